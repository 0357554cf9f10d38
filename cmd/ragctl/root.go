package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"hierarag/internal/bootstrap"
	"hierarag/internal/config"
)

type appOpener func(ctx context.Context, cfg *config.Config) (*bootstrap.App, error)

type cli struct {
	open       appOpener
	configPath string
	jsonOutput bool
}

func newRootCmd(open appOpener) *cobra.Command {
	c := &cli{open: open}
	root := &cobra.Command{
		Use:           "ragctl",
		Short:         "Ingest documents and query the hierarchical RAG index",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	defaultPath := os.Getenv("CONFIG_FILE")
	if defaultPath == "" {
		defaultPath = "configs/config.toml"
	}
	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", defaultPath, "path to the toml config file")
	root.PersistentFlags().BoolVar(&c.jsonOutput, "json", false, "print results as JSON")

	root.AddCommand(
		c.ingestCmd(),
		c.askCmd(),
		c.checkCmd(),
		c.tokenCmd(),
	)
	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(c.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	return cfg, nil
}

// withApp opens the application for one command and closes it afterwards.
func (c *cli) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *bootstrap.App) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := c.open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("bootstrap failed: %w", err)
	}
	defer a.Close()
	return fn(ctx, a)
}

func (c *cli) printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
