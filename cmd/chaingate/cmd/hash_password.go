package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/chaingate/chaingate/internal/domain/auth"
)

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password [password]",
	Short: "Generate an argon2id hash for an identities file",
	Long: `Generate an argon2id hash of a password for use in the identities file.

The output is a PHC-format string ("$argon2id$...") which goes directly
into the password_hash field of an identity entry.

Example:
  chaingate hash-password "my-secret-password"

Security note: The password will appear in shell history.
Consider clearing history after use or using an environment variable:
  chaingate hash-password "$MY_PASSWORD"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashPassword(args[0])
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		fmt.Println(hash)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(hashPasswordCmd)
}
