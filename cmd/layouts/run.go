package main

import (
	"context"
	"os"

	"github.com/aretw0/layouts"
	"github.com/aretw0/layouts/internal/cli"
	"github.com/aretw0/layouts/internal/presentation/tui"
	"github.com/aretw0/layouts/pkg/observability"
	"github.com/spf13/cobra"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run [dir]",
	Short: "Walk through a workflow in the terminal",
	Long: `Starts a session of a workflow and drives it with line commands
(next, back, set, patch, hydrate, ...). Type "help" once started.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := workflowDir(cmd, args)
		workflow, _ := cmd.Flags().GetString("workflow")
		sessionID, _ := cmd.Flags().GetString("session")
		autoSave, _ := cmd.Flags().GetBool("save")

		logger, err := loggerFromFlags(cmd)
		if err != nil {
			return err
		}

		persistence, err := cli.OpenStore(storeOptionsFromFlags(cmd), logger)
		if err != nil {
			return err
		}
		defer persistence.Close()

		opts := []layouts.Option{
			layouts.WithLifecycleHooks(observability.LogHooks(logger)),
		}
		if persistence != nil {
			opts = append(opts, layouts.WithStore(persistence.Store))
			if persistence.Locker != nil {
				opts = append(opts, layouts.WithLocker(persistence.Locker))
			}
		}
		eng, err := newEngine(cmd, dir, logger, opts...)
		if err != nil {
			return err
		}

		sigCtx := cli.NewSignalContext(context.Background())
		defer sigCtx.Cancel()

		return cli.RunSession(sigCtx, eng, cli.RunOptions{
			Workflow:    workflow,
			SessionID:   sessionID,
			AutoSave:    autoSave,
			Interactive: tui.IsTerminal(os.Stdout),
			Logger:      logger,
		}, os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("workflow", "w", "", "Workflow to start (defaults to the only one)")
	runCmd.Flags().StringP("session", "s", "", "Resume a saved draft")
	runCmd.Flags().Bool("save", false, "Save the draft on exit")
	addStoreFlags(runCmd, cli.StoreFile)
}
