package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"hierarag/internal/bootstrap"
	"hierarag/internal/model"
)

func (c *cli) askCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "ask simple|agentic <query>",
		Short:     "Answer a question from the ingested documents",
		Args:      cobra.MinimumNArgs(2),
		ValidArgs: []string{"simple", "agentic"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, query := args[0], strings.Join(args[1:], " ")
			if mode != "simple" && mode != "agentic" {
				return fmt.Errorf("unknown mode %q (want simple or agentic)", mode)
			}
			return c.withApp(cmd, func(ctx context.Context, a *bootstrap.App) error {
				if mode == "simple" {
					res, err := a.Simple.Answer(ctx, query)
					if err != nil {
						return err
					}
					if c.jsonOutput {
						return c.printJSON(cmd, res)
					}
					printAnswer(cmd, res.Answer, res.Sources)
					return nil
				}

				res, err := a.Agentic.Answer(ctx, query)
				if err != nil {
					return err
				}
				if c.jsonOutput {
					return c.printJSON(cmd, res)
				}
				printAnswer(cmd, res.Answer, res.Sources)
				return nil
			})
		},
	}
}

func printAnswer(cmd *cobra.Command, answer string, sources []model.Source) {
	cmd.Println(answer)
	if len(sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, s := range sources {
		cmd.Printf("  [%d] %s: %s\n", i+1, s.Source, s.Content)
	}
}
