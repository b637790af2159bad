package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var (
	versionsEngagement string
	versionsScope      string
)

var versionsCmd = &cobra.Command{
	Use:   "versions",
	Short: "List model versions for an engagement",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		e, err := initEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		models, err := e.Manager.List(ctx, versionsEngagement, versionsScope)
		if err != nil {
			return err
		}
		if len(models) == 0 {
			fmt.Println("no model versions found")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SCOPE\tVERSION\tMODEL ID\tSTATUS\tELEMENTS\tCONFIDENCE\tGENERATED AT")
		for _, m := range models {
			fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%d\t%.4f\t%s\n",
				m.Scope, m.Version, m.ID, m.Status, m.ElementCount,
				m.ConfidenceScore, m.GeneratedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

func init() {
	versionsCmd.Flags().StringVar(&versionsEngagement, "engagement", "", "engagement id")
	versionsCmd.Flags().StringVar(&versionsScope, "scope", "", "limit to one scope")
	versionsCmd.MarkFlagRequired("engagement")
	rootCmd.AddCommand(versionsCmd)
}
