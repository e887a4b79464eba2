package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fuselink/internal/crypto"
)

// pair <token>: consume a scanned token and establish a session.
func pairCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pair <token>",
		Short: "Establish a session from a peer's pairing token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if _, err := wire.Keys.Load(passphrase); err != nil {
				return err
			}

			sess, err := wire.Controller.Pair(cmd.Context(), []byte(args[0]), time.Now())
			if err != nil {
				return fmt.Errorf("pairing: %w", err)
			}
			if err := wire.Store.SaveSession(passphrase, sess); err != nil {
				return err
			}
			fmt.Printf("Session %s established with peer %s via %s\n",
				sess.ID, crypto.Fingerprint(sess.PeerPublic.Slice()), sess.Node)
			return nil
		},
	}
}
