package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/pov-engine/internal/inventory"
)

var republishInput string

var republishCmd = &cobra.Command{
	Use:   "republish <model-id>",
	Short: "Re-run generation for a model's scope and publish a new version",
	Long:  "Loads the given model to recover its engagement and scope, re-runs the pipeline on the supplied input file, and publishes the result as the next version. The prior version is left untouched.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		in, err := inventory.Load(republishInput)
		if err != nil {
			return err
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		bundle, err := e.Manager.Republish(ctx, args[0], in)
		if err != nil {
			return err
		}

		printBundleSummary(bundle)
		return nil
	},
}

func init() {
	republishCmd.Flags().StringVar(&republishInput, "input", "", "input file (.yaml or .xlsx)")
	republishCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(republishCmd)
}
