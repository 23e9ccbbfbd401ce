package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/config"
)

// NewTokenCmd signs a host token with the configured secret.
func NewTokenCmd(opts *options) *cobra.Command {
	var hostID string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a host token",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return err
			}
			if hostID == "" {
				hostID = uuid.NewString()
			}
			if ttl <= 0 {
				ttl = config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour)
			}
			token, err := auth.NewAuthenticator(cfg.Auth.JWTSecret).Sign(hostID, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "host_id: %s\ntoken: %s\n", hostID, token)
			return nil
		},
	}
	cmd.Flags().StringVar(&hostID, "host-id", "", "host identity to embed (random when empty)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	return cmd
}
