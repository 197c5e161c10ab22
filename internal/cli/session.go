package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/layouts"
	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/internal/presentation/tui"
	"github.com/aretw0/layouts/pkg/session"
)

// RunOptions configures an interactive run.
type RunOptions struct {
	// Workflow to start. May be empty when the catalog holds a single workflow.
	Workflow string
	// SessionID resumes a saved draft instead of starting a new session.
	SessionID string
	// AutoSave persists the draft when the console exits.
	AutoSave    bool
	Interactive bool
	Logger      *slog.Logger
}

// RunSession starts (or resumes) a session and drives it from in until the
// user quits or ctx is cancelled.
func RunSession(ctx context.Context, eng *layouts.Engine, opts RunOptions, in io.Reader, out io.Writer) error {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	if opts.Interactive {
		tui.PrintBanner(out)
	}

	sess, resumed, err := openSession(ctx, eng, opts)
	if err != nil {
		return err
	}
	logSessionStatus(logger, out, sess, resumed)

	console := NewConsole(eng.Sessions(), sess, out, opts.Interactive, WithConsoleLogger(logger))
	if err := sess.Mounted(ctx); err != nil {
		console.printer.Errorf("hydration failed: %v", err)
	}
	console.Render()

	runErr := console.Run(ctx, in)

	if opts.AutoSave && eng.Sessions().Store() != nil {
		if _, err := eng.Sessions().Save(context.WithoutCancel(ctx), sess.ID); err != nil {
			logger.Warn("failed to save draft", "session_id", sess.ID, "err", err)
		} else {
			printSystemMessage(out, "Draft '%s' saved.", sess.ID)
		}
	}

	if errors.Is(runErr, context.Canceled) {
		printSystemMessage(out, "Interrupted at step %d.", sess.Wizard.Active()+1)
		return nil
	}
	return runErr
}

func openSession(ctx context.Context, eng *layouts.Engine, opts RunOptions) (*session.Session, bool, error) {
	if opts.SessionID != "" {
		sess, err := eng.Resume(ctx, opts.SessionID)
		if err != nil {
			return nil, false, fmt.Errorf("failed to resume session: %w", err)
		}
		return sess, true, nil
	}

	name := opts.Workflow
	if name == "" {
		names := eng.Catalog().Names()
		if len(names) != 1 {
			return nil, false, fmt.Errorf("choose a workflow with --workflow: %s", strings.Join(names, ", "))
		}
		name = names[0]
	}
	sess, err := eng.Start(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("failed to start session: %w", err)
	}
	return sess, false, nil
}

// printSystemMessage prints a standardized system message.
func printSystemMessage(out io.Writer, format string, args ...any) {
	fmt.Fprintf(out, ">>> %s\n", fmt.Sprintf(format, args...))
}

func logSessionStatus(logger *slog.Logger, out io.Writer, sess *session.Session, resumed bool) {
	if resumed {
		logger.Info("Session Resumed", "session_id", sess.ID, "step", sess.Wizard.Active())
		printSystemMessage(out, "Resuming '%s' at step %d...", sess.Workflow.Name, sess.Wizard.Active()+1)
		return
	}
	logger.Info("Session Created", "session_id", sess.ID, "workflow", sess.Workflow.Name)
	printSystemMessage(out, "Session '%s' active.", sess.ID)
}
