package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"live-quiz-service/internal/config"
	"live-quiz-service/internal/domain"
	transport "live-quiz-service/internal/transport/http"
)

// NewTokenCmd mints a signed caller token for local testing.
func NewTokenCmd(configPath *string) *cobra.Command {
	var (
		subject string
		role    string
		classID string
		ttl     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a bearer token for a teacher or student",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if cfg.Auth.Secret == "" {
				return fmt.Errorf("auth secret not configured")
			}
			r := domain.Role(role)
			if r != domain.RoleTeacher && r != domain.RoleStudent {
				return fmt.Errorf("role must be %q or %q", domain.RoleTeacher, domain.RoleStudent)
			}
			if ttl == 0 {
				ttl = config.TTLDuration(cfg.Auth.TokenTTL, 12*time.Hour)
			}
			token, err := transport.IssueToken(cfg.Auth.Secret, domain.Caller{ID: subject, Role: r, ClassID: classID}, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "sub", "", "caller id")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleStudent), "teacher or student")
	cmd.Flags().StringVar(&classID, "class", "", "class id")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "token lifetime (defaults to auth.token_ttl)")
	_ = cmd.MarkFlagRequired("sub")
	_ = cmd.MarkFlagRequired("class")
	return cmd
}
