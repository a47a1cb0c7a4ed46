package main

import (
	"fmt"
	"strings"
	"time"

	"todo-notifier/internal/pkg/jwt"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/cobra"
)

// only the auth settings; issuing a token must not require a database
type tokenConfig struct {
	Secret string `envconfig:"AUTH_SECRET" required:"true"`
	Issuer string `envconfig:"AUTH_ISSUER" default:"family-todos"`
}

var (
	tokenSubject string
	tokenScopes  []string
	tokenTTL     time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a service token for the web app or the change trigger",
	Long: `Issue an HS256 service token signed with AUTH_SECRET.

Scopes:
  ` + jwt.ScopeSweep + `   POST /api/notifications/sweep
  ` + jwt.ScopeTaskChanged + `        POST /api/tasks/{id}/changed`,
	RunE: runToken,
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "webapp", "calling service name")
	tokenCmd.Flags().StringSliceVar(&tokenScopes, "scope", []string{jwt.ScopeSweep, jwt.ScopeTaskChanged}, "granted scope, repeatable")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "token lifetime, 0 for no expiry")
}

func runToken(cmd *cobra.Command, _ []string) error {
	var cfg tokenConfig
	if err := envconfig.Process("", &cfg); err != nil {
		return fmt.Errorf("failed to process env config: %w", err)
	}

	var scopes []string
	for _, s := range tokenScopes {
		if s = strings.TrimSpace(s); s != "" {
			scopes = append(scopes, s)
		}
	}

	token, err := jwt.NewService(cfg.Secret, cfg.Issuer).GenerateToken(tokenSubject, tokenTTL, scopes...)
	if err != nil {
		return fmt.Errorf("failed to sign token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
