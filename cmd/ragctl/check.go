package main

import (
	"context"

	"github.com/spf13/cobra"

	"hierarag/internal/bootstrap"
)

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Report unfinished ingestions and chunks whose parent is missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *bootstrap.App) error {
				report, err := a.Ingest.CheckConsistency(ctx)
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return c.printJSON(cmd, report)
				}
				cmd.Printf("pending ingestions: %d\n", len(report.Pending))
				for _, e := range report.Pending {
					cmd.Printf("  %s %s (%d parents, started %s)\n", e.ID, e.Source, len(e.ParentIDs), e.StartedAt.Format("2006-01-02 15:04:05"))
				}
				cmd.Printf("dangling parent ids: %d\n", len(report.DanglingParents))
				for _, id := range report.DanglingParents {
					cmd.Printf("  %s\n", id)
				}
				return nil
			})
		},
	}
}
