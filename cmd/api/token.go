package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/pkordes/trip-planner/backend/internal/config"
	"github.com/pkordes/trip-planner/backend/internal/middleware"
)

var (
	tokenUser string
	tokenTTL  time.Duration
)

// tokenCmd mints an access token signed with JWT_SECRET. Real deployments
// receive tokens from the identity provider; this is for local development.
var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Print a signed access token for a user ID",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		userID, err := uuid.Parse(tokenUser)
		if err != nil {
			return fmt.Errorf("--user must be a UUID: %w", err)
		}
		token, err := middleware.IssueToken([]byte(cfg.JWTSecret), userID, tokenTTL)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenUser, "user", "", "user ID (UUID) to put in the subject claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 24*time.Hour, "token lifetime")
	_ = tokenCmd.MarkFlagRequired("user")
}
