package main

import (
	"fmt"
	"time"

	"github.com/JonMunkholm/csvbatch/internal/auth"
	"github.com/JonMunkholm/csvbatch/internal/config"
	"github.com/spf13/cobra"
)

func newTokenCmd(a *app) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for --owner, signed with JWT_SECRET",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if ttl <= 0 {
				ttl = cfg.Security.TokenTTL
			}
			tokens, err := newTokenManager(cfg, ttl)
			if err != nil {
				return withCode(exitUsage, err)
			}
			tok, err := tokens.Generate(a.owner)
			if err != nil {
				return withCode(exitUsage, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (default: JWT_TOKEN_TTL)")
	return cmd
}

func newTokenManager(cfg *config.Config, ttl time.Duration) (*auth.TokenManager, error) {
	return auth.NewTokenManager(cfg.Security.JWTSecret, cfg.Security.JWTAlgorithm, ttl)
}
