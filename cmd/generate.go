package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/pov-engine/internal/inventory"
	"github.com/sells-group/pov-engine/internal/model"
)

var (
	generateInput      string
	generateEngagement string
	generateScope      string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new model version from an evidence input file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		in, err := inventory.Load(generateInput)
		if err != nil {
			return err
		}
		if generateEngagement != "" {
			in.EngagementID = generateEngagement
		}
		if generateScope != "" {
			in.Scope = generateScope
		}

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		bundle, err := e.Manager.Generate(ctx, in)
		if err != nil {
			return eris.Wrap(err, "generate")
		}

		printBundleSummary(bundle)
		return nil
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateInput, "input", "", "input file (.yaml or .xlsx)")
	generateCmd.Flags().StringVar(&generateEngagement, "engagement", "", "engagement id (overrides input file)")
	generateCmd.Flags().StringVar(&generateScope, "scope", "", "scope (overrides input file)")
	generateCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(generateCmd)
}

func printBundleSummary(bundle *model.ModelBundle) {
	m := bundle.Model
	fmt.Printf("model %s (%s/%s v%d)\n", m.ID, m.EngagementID, m.Scope, m.Version)
	fmt.Printf("  elements:       %d\n", m.ElementCount)
	fmt.Printf("  contradictions: %d\n", m.ContradictionCount)
	fmt.Printf("  gaps:           %d\n", len(bundle.Gaps))
	fmt.Printf("  confidence:     %.4f\n", m.ConfidenceScore)
}
