package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/layouts"
	"github.com/aretw0/layouts/internal/logging"
	"github.com/aretw0/layouts/pkg/adapters/process"
	"github.com/aretw0/layouts/pkg/adapters/rest"
	"github.com/aretw0/layouts/pkg/registry"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "layouts",
	Short: "Layouts runs multi-step forms backed by hydrated data",
	Long: `Layouts loads workflow documents (YAML) describing data layouts, their
dependencies and the wizard steps that mount them, and runs them from the
terminal or over HTTP.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("dir", ".", "Directory containing the workflow documents")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format (text, json)")
	rootCmd.PersistentFlags().String("tools", "tools.yaml", "Allow-list of local commands usable by \"process\" hydrators")
}

// loggerFromFlags builds the application logger. Logs go to stderr so they
// never interleave with the wizard on stdout.
func loggerFromFlags(cmd *cobra.Command) (*slog.Logger, error) {
	levelFlag, _ := cmd.Flags().GetString("log-level")
	formatFlag, _ := cmd.Flags().GetString("log-format")

	level, err := logging.ParseLevel(levelFlag)
	if err != nil {
		return nil, err
	}
	format := logging.Format(formatFlag)
	if format != logging.FormatText && format != logging.FormatJSON {
		return nil, fmt.Errorf("unknown log format %q", formatFlag)
	}
	return logging.NewWithFormat(os.Stderr, level, format), nil
}

// workflowDir resolves the workflow directory: --dir wins, then the first argument.
func workflowDir(cmd *cobra.Command, args []string) string {
	dir, _ := cmd.Flags().GetString("dir")
	if !cmd.Flags().Changed("dir") && len(args) > 0 {
		dir = args[0]
	}
	return dir
}

// newRegistry builds the producer registry. When a tools file exists (looked up
// next to the workflows unless --tools is set) the "process" kind is enabled.
func newRegistry(cmd *cobra.Command, dir string, logger *slog.Logger) (*registry.Registry, error) {
	reg := registry.NewDefault(rest.WithLogger(logger))

	toolsPath, _ := cmd.Flags().GetString("tools")
	if !cmd.Flags().Changed("tools") {
		toolsPath = filepath.Join(dir, toolsPath)
	}
	tools, err := process.LoadTools(toolsPath)
	if err != nil {
		return nil, err
	}
	if len(tools) > 0 {
		reg.RegisterProcess(process.NewRunner(
			process.WithTools(tools),
			process.WithBaseDir(dir),
			process.WithLogger(logger),
		))
		logger.Debug("process tools enabled", "path", toolsPath, "tools", len(tools))
	}
	return reg, nil
}

// newEngine loads the workflows of dir.
func newEngine(cmd *cobra.Command, dir string, logger *slog.Logger, opts ...layouts.Option) (*layouts.Engine, error) {
	reg, err := newRegistry(cmd, dir, logger)
	if err != nil {
		return nil, err
	}
	opts = append(opts, layouts.WithRegistry(reg), layouts.WithLogger(logger))
	eng, err := layouts.New(dir, opts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing layouts: %w", err)
	}
	return eng, nil
}
