package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"campusattend/internal/attendance"
	"campusattend/internal/auth"
)

type tokenFlags struct {
	subject string
	role    string
	ttl     time.Duration
}

// NewTokenCommand creates the token command.
func NewTokenCommand(rootOpts *RootOptions) *cobra.Command {
	flags := &tokenFlags{}
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for development",
		Long: `Sign an access token with the configured JWT_SIGNING_KEY and JWT_ISSUER.

Intended for local testing against the API; production identities come
from the campus identity provider.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch flags.role {
			case attendance.RoleStudent, attendance.RoleStaff, attendance.RoleAdmin:
			default:
				return fmt.Errorf("invalid role %q: must be student, staff or admin", flags.role)
			}

			cfg := rootOpts.load()
			ttl := flags.ttl
			if ttl <= 0 {
				ttl = cfg.AccessTTL
			}
			tok, err := auth.Issue(flags.subject, flags.role, cfg.JWTIssuer, cfg.JWTSigningKey, ttl)
			if err != nil {
				return fmt.Errorf("issue token: %w", err)
			}
			return write(cmd.OutOrStdout(), rootOpts.Format, map[string]any{
				"access_token": tok.AccessToken,
				"expires_at":   tok.ExpiresAt.Unix(),
				"subject":      flags.subject,
				"role":         flags.role,
			}, tok.AccessToken)
		},
	}

	cmd.Flags().StringVar(&flags.subject, "subject", "", "user id to put in the sub claim")
	cmd.Flags().StringVar(&flags.role, "role", attendance.RoleStudent, "role claim (student|staff|admin)")
	cmd.Flags().DurationVar(&flags.ttl, "ttl", 0, "token lifetime (defaults to ACCESS_TTL)")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}
