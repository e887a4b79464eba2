package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fuselink/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Show the fingerprint of the device public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			kp, err := wire.Keys.Load(passphrase)
			if err != nil {
				return err
			}
			fmt.Println(crypto.Fingerprint(kp.Public.Slice()))
			return nil
		},
	}
}
