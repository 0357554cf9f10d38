package main

import (
	"time"

	"github.com/spf13/cobra"

	"hierarag/internal/pkg/jwtutil"
)

func (c *cli) tokenCmd() *cobra.Command {
	var (
		subject string
		scopes  []string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token signed with auth.jwt_secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("ttl") {
				ttl = cfg.TokenTTL()
			}
			token, err := jwtutil.GenerateToken(cfg.Auth.JWTSecret, subject, scopes, ttl)
			if err != nil {
				return err
			}
			cmd.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "ragctl", "token subject")
	cmd.Flags().StringSliceVar(&scopes, "scope", []string{jwtutil.ScopeIngest}, "granted scopes")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (default auth.jwt_expire_minute, 0 for none)")
	return cmd
}
