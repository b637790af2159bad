package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps <model-id>",
	Short: "List evidence gaps for a model version",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		gaps, err := e.Store.GetGaps(ctx, args[0])
		if err != nil {
			return err
		}
		if len(gaps) == 0 {
			fmt.Println("no evidence gaps")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SEVERITY\tTYPE\tDESCRIPTION\tRECOMMENDATION")
		for _, g := range gaps {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", g.Severity, g.GapType, g.Description, g.Recommendation)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(gapsCmd)
}
