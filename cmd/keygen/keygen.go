// Package keygen implements the keygen subcommand which generates a fresh
// VAPID key pair.
package keygen

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridlead/pushgate/internal/vapid"
)

// Command creates the keygen subcommand.
func Command() *cobra.Command {
	var envFormat bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a VAPID P-256 key pair",
		Long: "Generate a fresh P-256 key pair and print the base64url public key and " +
			"private scalar. The private key must be kept secret; rotating it invalidates " +
			"every existing subscription.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pubB64, privB64, err := vapid.GenerateKeys()
			if err != nil {
				return fmt.Errorf("key generation failed: %w", err)
			}

			if envFormat {
				fmt.Printf("VAPID_PUBLIC_KEY=%s\n", pubB64)
				fmt.Printf("VAPID_PRIVATE_KEY=%s\n", privB64)
				return nil
			}
			fmt.Printf("Public key:  %s\n", pubB64)
			fmt.Printf("Private key: %s\n", privB64)
			return nil
		},
	}

	cmd.Flags().BoolVar(&envFormat, "env", false, "Print in environment variable format")

	return cmd
}
