package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"fuselink/internal/controller"
)

// addrWait bounds how long we wait for the fusion node to assign us a
// relay address before giving up on token issue.
const addrWait = 5 * time.Second

func tokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token",
		Short: "Issue the out-of-band pairing token (QR payload)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requirePassphrase(); err != nil {
				return err
			}
			if _, err := wire.Keys.Load(passphrase); err != nil {
				return err
			}

			deadline := time.Now().Add(addrWait)
			for {
				raw, err := wire.Controller.IssueToken(time.Now())
				if err == nil {
					fmt.Println(string(raw))
					return nil
				}
				if !errors.Is(err, controller.ErrNoRelayAddress) || time.Now().After(deadline) {
					return err
				}
				time.Sleep(100 * time.Millisecond)
			}
		},
	}
}
