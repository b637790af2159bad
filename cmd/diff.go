package main

import (
	"encoding/json"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sells-group/pov-engine/internal/model"
)

var diffJSON bool

var diffCmd = &cobra.Command{
	Use:   "diff <v1-model-id> <v2-model-id>",
	Short: "Compare two model versions element by element",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		diff, err := e.Manager.Diff(ctx, args[0], args[1])
		if err != nil {
			return err
		}

		if diffJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(diff)
		}

		printDiff(diff)
		return nil
	},
}

func init() {
	diffCmd.Flags().BoolVar(&diffJSON, "json", false, "emit the diff as JSON")
	rootCmd.AddCommand(diffCmd)
}

func printDiff(diff *model.VersionDiff) {
	fmt.Printf("diff %s -> %s: %d changes, %d unchanged\n",
		diff.V1ID, diff.V2ID, diff.TotalChanges(), diff.UnchangedCount)

	for _, c := range diff.Added {
		fmt.Printf("  + %s\n", c.ElementName)
	}
	for _, c := range diff.Removed {
		fmt.Printf("  - %s\n", c.ElementName)
	}
	for _, c := range diff.Modified {
		fmt.Printf("  ~ %s (%s)\n", c.ElementName, strings.Join(c.ChangedFields, ", "))
	}
}
