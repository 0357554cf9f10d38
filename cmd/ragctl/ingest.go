package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hierarag/internal/app"
	"hierarag/internal/bootstrap"
	"hierarag/internal/pkg/docextract"
)

func (c *cli) ingestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>...",
		Short: "Ingest .pdf, .md or .txt files",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withApp(cmd, func(ctx context.Context, a *bootstrap.App) error {
				var results []*app.IngestResult
				for _, path := range args {
					res, err := ingestFile(ctx, a.Ingest, path)
					if err != nil {
						return fmt.Errorf("%s: %w", path, err)
					}
					results = append(results, res)
					if !c.jsonOutput {
						cmd.Printf("ingested %s: %d chunks\n", res.Filename, res.ChunksCount)
					}
				}
				if c.jsonOutput {
					return c.printJSON(cmd, results)
				}
				return nil
			})
		},
	}
}

func ingestFile(ctx context.Context, svc *app.IngestService, path string) (*app.IngestResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file failed: %w", err)
	}
	text, err := docextract.Extract(path, data)
	if err != nil {
		return nil, err
	}
	return svc.Ingest(ctx, app.IngestInput{Filename: path, Content: text})
}
