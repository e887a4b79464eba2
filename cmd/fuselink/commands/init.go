package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fuselink/internal/crypto"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate the device key pair and store it sealed",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			kp, err := wire.Keys.Generate(cmd.Context(), passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Key pair created.\nFingerprint: %s\n", crypto.Fingerprint(kp.Public.Slice()))
			return nil
		},
	}
}
