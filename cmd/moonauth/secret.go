package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goodow/moonauth/internal/security/token"
)

func newSecretCmd() *cobra.Command {
	var flagBytes int

	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Generate a random token secret for auth.token_secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flagBytes < 32 {
				return fmt.Errorf("secret: at least 32 bytes required, got %d", flagBytes)
			}
			s, err := token.Random(flagBytes)
			if err != nil {
				return err
			}
			fmt.Println(s)
			return nil
		},
	}

	cmd.Flags().IntVar(&flagBytes, "bytes", 48, "entropy in bytes before encoding")
	return cmd
}
