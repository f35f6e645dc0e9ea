package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/spec-kit/monitor-report/internal/auth"
	"github.com/spec-kit/monitor-report/internal/config"
)

func init() {
	rootCmd.AddCommand(decodeTokenCmd)
}

// DecodedToken is the decode-token output.
type DecodedToken struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
	Reason   string `json:"reason,omitempty"`
}

var decodeTokenCmd = &cobra.Command{
	Use:   "decode-token <token>",
	Short: "Show the identity carried by a token",
	Long: `Decode a token's identity claims without trusting them.

When AUTH_JWT_SECRET is set the signature and expiry are verified too and the
result says why verification failed. Never use the unverified output for
authorization decisions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		identity := auth.DecodeUnsafe(args[0])
		if identity == nil {
			return errors.New("token is not decodable")
		}

		out := DecodedToken{
			UserID: identity.SubjectID,
			Email:  identity.Email,
			Role:   identity.Role.String(),
		}
		out.Verified, out.Reason = verifyWithEnv(args[0])
		return writeJSON(cmd.OutOrStdout(), out)
	},
}

func verifyWithEnv(token string) (bool, string) {
	cfg := config.AuthConfig{
		JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		Issuer:    envOr("AUTH_ISSUER", "discord-monitor-report"),
		Audience:  envOr("AUTH_AUDIENCE", "discord-monitor-report-api"),
	}
	if cfg.JWTSecret == "" {
		return false, "no secret configured"
	}
	tokens, err := auth.NewTokenManager(cfg)
	if err != nil {
		return false, fmt.Sprintf("invalid secret: %v", err)
	}
	if _, err := tokens.Verify(token); err != nil {
		return false, auth.TokenFailureReason(err)
	}
	return true, ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
