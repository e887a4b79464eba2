package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// listen: print decrypted inbound messages until interrupted.
func listenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "listen",
		Short: "Receive and print messages addressed to this device",
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

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			for {
				select {
				case <-sig:
					return nil
				case msg := <-wire.Controller.Messages():
					fmt.Printf("[%s] %s\n", msg.SessionID, msg.Plaintext)
				}
			}
		},
	}
}
