package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/internal/presentation/graph"
	"github.com/aretw0/layouts/internal/presentation/tui"
	"github.com/aretw0/layouts/pkg/layout"
	"github.com/aretw0/layouts/pkg/session"
)

// errQuit stops the read loop.
var errQuit = errors.New("quit")

const helpText = `Commands:
  next | submit              advance (submit honors step overrides)
  back                       go back one step
  reset                      start over
  goto <n>                   jump to step n (0-based)
  set <layout> <json>        replace the data of a layout
  patch <layout> <path> <json>
                             store a value inside the data of a layout
  hydrate <layout> [overwrite]
                             fetch a layout again
  layouts                    list every layout
  show [layout]              print the wizard, or one layout as JSON
  warn <text> | dismiss <text> | clear
                             manage warnings
  save                       persist the draft
  graph                      print the Mermaid graph of the session
  help | quit`

// Console drives one session from line commands.
type Console struct {
	sessions *session.Manager
	sess     *session.Session
	out      io.Writer
	printer  *tui.Printer
	logger   *slog.Logger
}

// ConsoleOption configures a Console.
type ConsoleOption func(*Console)

// WithConsoleLogger sets the logger used for command tracing.
func WithConsoleLogger(logger *slog.Logger) ConsoleOption {
	return func(c *Console) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewConsole creates a console over a live session. interactive enables colors
// and markdown rendering.
func NewConsole(sessions *session.Manager, sess *session.Session, out io.Writer, interactive bool, opts ...ConsoleOption) *Console {
	c := &Console{
		sessions: sessions,
		sess:     sess,
		out:      out,
		printer:  tui.NewPrinter(out, interactive),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session driven by the console.
func (c *Console) Session() *session.Session {
	return c.sess
}

// Render prints the current wizard view.
func (c *Console) Render() {
	c.printer.PrintView(c.sess.Wizard.View())
}

// Run reads commands from in until quit, EOF or ctx is done.
func (c *Console) Run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.out, "> ")
		select {
		case <-ctx.Done():
			fmt.Fprintln(c.out)
			return ctx.Err()
		case err := <-readErr:
			fmt.Fprintln(c.out)
			return err
		case line := <-lines:
			err := c.Exec(ctx, line)
			if errors.Is(err, errQuit) {
				return nil
			}
			if err != nil {
				c.printer.Errorf("%v", err)
			}
		}
	}
}

// Exec runs a single command line.
func (c *Console) Exec(ctx context.Context, line string) error {
	cmd, rest := cut(line)
	if cmd == "" {
		return nil
	}
	c.logger.Debug("console command", "session_id", c.sess.ID, "cmd", cmd)

	wz := c.sess.Wizard
	switch strings.ToLower(cmd) {
	case "quit", "exit", "q":
		return errQuit
	case "help", "?":
		fmt.Fprintln(c.out, helpText)
		return nil
	case "next", "n":
		return c.settle(ctx, wz.Next(ctx))
	case "submit":
		step, ok := wz.Current()
		if !ok {
			return fmt.Errorf("no active step")
		}
		b, err := step.OnSubmit(ctx)
		if err != nil {
			return err
		}
		return c.settle(ctx, b)
	case "back", "b":
		wz.Back(ctx)
		return c.settle(ctx, nil)
	case "reset":
		return c.settle(ctx, wz.Reset(ctx))
	case "goto":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("goto: step must be a number, got %q", rest)
		}
		return c.settle(ctx, wz.GoToStep(ctx, n))
	case "set":
		key, raw := cut(rest)
		q, err := c.query(key)
		if err != nil {
			return err
		}
		v, err := decodeValue(raw)
		if err != nil {
			return err
		}
		q.Assign(v)
		return c.showLayout(key)
	case "patch":
		key, args := cut(rest)
		path, raw := cut(args)
		q, err := c.query(key)
		if err != nil {
			return err
		}
		v, err := decodeValue(raw)
		if err != nil {
			return err
		}
		if err := q.UpdateData(path, v); err != nil {
			return err
		}
		return c.showLayout(key)
	case "hydrate":
		key, mode := cut(rest)
		q, err := c.query(key)
		if err != nil {
			return err
		}
		var opts []layout.HydrateOption
		if mode == "overwrite" {
			opts = append(opts, layout.Overwrite())
		}
		if err := q.Hydrate(ctx, opts...).Wait(ctx); err != nil {
			return fmt.Errorf("hydrate %s: %w", key, err)
		}
		return c.showLayout(key)
	case "layouts", "ls":
		c.listLayouts()
		return nil
	case "show":
		if rest == "" {
			c.Render()
			return nil
		}
		return c.showLayout(rest)
	case "warn":
		if rest == "" {
			return fmt.Errorf("warn: missing text")
		}
		wz.DisplayWarnings(rest)
		c.Render()
		return nil
	case "dismiss":
		if !wz.Dismiss(rest) {
			return fmt.Errorf("dismiss: no warning %q", rest)
		}
		c.Render()
		return nil
	case "clear":
		wz.ClearWarnings()
		c.Render()
		return nil
	case "save":
		return c.save(ctx)
	case "graph":
		fmt.Fprint(c.out, graph.GenerateMermaid(
			c.sess.Workflow.Definitions,
			c.sess.Workflow.Steps,
			graph.OverlayFrom(c.sess.Layouts, wz),
		))
		return nil
	}
	return fmt.Errorf("unknown command %q (type help)", cmd)
}

// settle waits for the hydrations of a navigation and prints the new view.
// Hydration failures are reported on the layout and do not fail the command.
func (c *Console) settle(ctx context.Context, b layout.Batch) error {
	if err := b.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return err
		}
		c.printer.Errorf("hydration failed: %v", err)
	}
	c.Render()
	return nil
}

func (c *Console) query(key string) (layout.Query, error) {
	if key == "" {
		return layout.Query{}, fmt.Errorf("missing layout name")
	}
	if !c.sess.Layouts.Has(key) {
		return layout.Query{}, fmt.Errorf("unknown layout %q", key)
	}
	return c.sess.Layouts.Query(key), nil
}

func (c *Console) showLayout(key string) error {
	q, err := c.query(key)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(q.Value(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	fmt.Fprintf(c.out, "%s (%s)\n%s\n", key, status(q), data)
	if q.Err() != nil {
		c.printer.Errorf("%v", q.Err())
	}
	return nil
}

func (c *Console) listLayouts() {
	for _, key := range c.sess.Layouts.Keys() {
		q := c.sess.Layouts.Query(key)
		fmt.Fprintf(c.out, "%-20s %s\n", key, status(q))
	}
}

func (c *Console) save(ctx context.Context) error {
	diff, err := c.sessions.Save(ctx, c.sess.ID)
	if err != nil {
		return err
	}
	if diff == nil {
		fmt.Fprintf(c.out, "Draft %s unchanged.\n", c.sess.ID)
		return nil
	}
	changed := make([]string, 0, len(diff.Layouts))
	for key := range diff.Layouts {
		changed = append(changed, key)
	}
	slices.Sort(changed)
	fmt.Fprintf(c.out, "Draft %s saved.", c.sess.ID)
	if len(changed) > 0 {
		fmt.Fprintf(c.out, " Changed: %s.", strings.Join(changed, ", "))
	}
	fmt.Fprintln(c.out)
	return nil
}

func status(q layout.Query) string {
	switch {
	case q.IsLoading():
		return "loading"
	case q.Err() != nil:
		return "error"
	case layout.IsEmpty(q.Value()):
		return "empty"
	}
	return "ready"
}

func decodeValue(raw string) (any, error) {
	if raw == "" {
		return nil, fmt.Errorf("missing JSON value")
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("invalid JSON value: %w", err)
	}
	return v, nil
}

func cut(s string) (string, string) {
	head, tail, _ := strings.Cut(strings.TrimSpace(s), " ")
	return head, strings.TrimSpace(tail)
}
