package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/monitor-report/internal/auth"
)

var hashCost int

func init() {
	hashPasswordCmd.Flags().IntVar(&hashCost, "cost", bcrypt.DefaultCost, "bcrypt work factor")
	rootCmd.AddCommand(hashPasswordCmd)
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt digest for a password",
	Long: `Print a bcrypt digest suitable for the users.password_hash column.

Examples:
  reportctl hash-password 'correct horse battery'
  reportctl hash-password --cost 12 'correct horse battery'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password := args[0]
		if !auth.ValidatePasswordStrength(password) {
			return fmt.Errorf("weak password: %s", auth.PasswordRequirements())
		}
		digest, err := auth.NewPasswordHasher(hashCost).Hash(cmd.Context(), password)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), digest)
		return nil
	},
}
