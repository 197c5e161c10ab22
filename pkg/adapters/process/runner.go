package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os/exec"
	"sort"
	"strings"

	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/domain"
	"github.com/aretw0/layouts/pkg/layout"
)

// EnvPrefix prefixes the environment variables carrying dependency data.
const EnvPrefix = "LAYOUTS_DEP_"

// Runner runs allow-listed local commands as hydrators.
// Only registered tools can run; documents refer to them by name.
type Runner struct {
	registry map[string]ToolConfig
	baseDir  string
	logger   *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithTools populates the allow-list from a loaded config.
func WithTools(tools map[string]ToolConfig) RunnerOption {
	return func(r *Runner) {
		for name, tool := range tools {
			tool.Name = name
			r.registry[name] = tool
		}
	}
}

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithLogger configures a logger for execution tracing.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a new process runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: make(map[string]ToolConfig),
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a trusted command to the allow-list.
func (r *Runner) Register(name string, command string, args ...string) {
	r.registry[name] = ToolConfig{
		Name:    name,
		Command: command,
		Args:    args,
	}
}

// Tools returns the registered tool names, sorted.
func (r *Runner) Tools() []string {
	names := make([]string, 0, len(r.registry))
	for name := range r.registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Hydrator returns a hydrator running the named tool.
//
// Dependency data is passed twice: as a JSON array on stdin, and as one
// environment variable per dependency (LAYOUTS_DEP_0, LAYOUTS_DEP_1, ...),
// never as command flags. Standard output holding a JSON object or array is
// decoded; anything else is returned as trimmed text.
func (r *Runner) Hydrator(name string) (layout.Hydrator, error) {
	tool, ok := r.registry[name]
	if !ok {
		return nil, fmt.Errorf("process tool not registered: %s", name)
	}
	return func(ctx context.Context, deps ...any) (any, error) {
		return r.run(ctx, tool, deps)
	}, nil
}

func (r *Runner) run(ctx context.Context, tool ToolConfig, deps []any) (any, error) {
	if deps == nil {
		deps = []any{}
	}
	stdin, err := json.Marshal(deps)
	if err != nil {
		return nil, fmt.Errorf("encode dependencies: %w", err)
	}

	cmd := exec.CommandContext(ctx, tool.Command, tool.Args...)
	cmd.Dir = r.baseDir
	cmd.Stdin = bytes.NewReader(stdin)

	env := cmd.Environ()
	for k, v := range tool.Environment {
		env = append(env, k+"="+v)
	}
	for i, dep := range deps {
		env = append(env, fmt.Sprintf("%s%d=%s", EnvPrefix, i, envValue(dep)))
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	r.logger.Debug("running tool", "tool", tool.Name, "command", tool.Command)
	if err := cmd.Run(); err != nil {
		msg := fmt.Sprintf("%s: execution failed: %v", tool.Name, err)
		if s := strings.TrimSpace(stderr.String()); s != "" {
			msg += ". Stderr: " + s
		}
		return nil, domain.NewError(http.StatusBadGateway, msg, err)
	}

	return decodeOutput(stdout.String()), nil
}

// envValue renders primitives as text and anything else as JSON.
func envValue(v any) string {
	switch v.(type) {
	case string, int, int64, float64, bool:
		return fmt.Sprintf("%v", v)
	case nil:
		return ""
	}
	if b, err := json.Marshal(v); err == nil {
		return string(b)
	}
	return fmt.Sprintf("%v", v)
}

func decodeOutput(out string) any {
	trimmed := strings.TrimSpace(out)
	if (strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")) ||
		(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
		var v any
		if err := json.Unmarshal([]byte(trimmed), &v); err == nil {
			return v
		}
	}
	return trimmed
}
