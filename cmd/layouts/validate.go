package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/layouts/pkg/schema"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [dir|file]",
	Short: "Check workflow documents for consistency",
	Long: `Parses every workflow document and reports missing fields, unknown
dependencies, dependency cycles and unknown hydrator kinds.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := workflowDir(cmd, args)
		logger, err := loggerFromFlags(cmd)
		if err != nil {
			return err
		}
		names, err := runValidate(cmd, target, logger)
		if err != nil {
			printValidationErrors(cmd.ErrOrStderr(), err)
			return fmt.Errorf("validation failed")
		}
		for _, n := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "%s ✅\n", n)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Workflows are valid!")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, target string, logger *slog.Logger) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	dir := target
	if !info.IsDir() {
		dir = filepath.Dir(target)
	}
	reg, err := newRegistry(cmd, dir, logger)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		wf, err := schema.LoadFile(target, reg)
		if err != nil {
			return nil, err
		}
		return []string{wf.Name}, nil
	}

	catalog, err := schema.LoadDir(target, reg)
	if err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("no workflow documents in %s", target)
	}
	return catalog.Names(), nil
}

// printValidationErrors writes one entry per failing document.
func printValidationErrors(w io.Writer, err error) {
	_, aggregate := err.(*schema.AggregateError)
	if joined, ok := err.(interface{ Unwrap() []error }); ok && !aggregate {
		for _, e := range joined.Unwrap() {
			printValidationErrors(w, e)
		}
		return
	}
	fmt.Fprintf(w, "✖ %s\n", strings.TrimRight(err.Error(), "\n"))
}
