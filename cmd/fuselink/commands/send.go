package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"fuselink/internal/domain"
)

// send <message>: encrypt and push one message through the fusion node.
func sendCmd() *cobra.Command {
	var (
		sessionID string
		destID    uint32
	)
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Encrypt and send a message over an established session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if _, err := wire.Keys.Load(passphrase); err != nil {
				return err
			}
			if err := wire.RestoreSessions(cfg, passphrase); err != nil {
				return err
			}

			id := domain.SessionID(sessionID)
			if id == "" {
				sessions, err := wire.Store.LoadSessions(passphrase)
				if err != nil {
					return err
				}
				if len(sessions) != 1 {
					return fmt.Errorf("%d sessions stored; pick one with --session", len(sessions))
				}
				id = sessions[0].ID
			}

			if err := wire.Controller.Send(id, domain.DestinationID(destID), []byte(args[0])); err != nil {
				return err
			}
			fmt.Println("sent")
			return nil
		},
	}
	cmd.Flags().StringVar(&sessionID, "session", "", "session to send on (defaults to the only stored session)")
	cmd.Flags().Uint32Var(&destID, "dest", 0, "peer destination identity")
	_ = cmd.MarkFlagRequired("dest")
	return cmd
}
