package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fuselink/internal/crypto"
)

// reset: discard all sessions and regenerate the key pair wholesale.
func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard every session and regenerate the device key pair",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if err := wire.Store.DeleteSessions(); err != nil {
				return err
			}
			if err := wire.Controller.Reset(cmd.Context(), passphrase); err != nil {
				return err
			}
			kp, err := wire.Keys.Current()
			if err != nil {
				return err
			}
			fmt.Printf("Reset complete.\nNew fingerprint: %s\n", crypto.Fingerprint(kp.Public.Slice()))
			return nil
		},
	}
}
