package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/satriahrh/gspeech/internal/auth"
)

var tokenTTL time.Duration

func tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token CLIENT_ID",
		Short: "Mint a bearer token for the HTTP API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Server.JWTSecret == "" {
				return errors.New("server.jwt_secret or GSPEECH_JWT_SECRET is required")
			}

			tokens, err := auth.NewTokenManager(cfg.Server.JWTSecret, tokenTTL)
			if err != nil {
				return err
			}
			token, err := tokens.GenerateClientToken(args[0])
			if err != nil {
				return fmt.Errorf("failed to generate token: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}

	cmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "Token lifetime (default 720h)")

	return cmd
}
