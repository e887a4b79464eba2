package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"fuselink/internal/app"
	"fuselink/internal/domain"
)

var (
	cfgFile    string
	home       string
	passphrase string
	nodeAddr   string
	localID    uint32
	logLevel   string

	cfg  app.Config
	wire *app.Wire
)

func Execute() error {
	root := &cobra.Command{
		Use:   "fuselink",
		Short: "End-to-end encrypted messaging through an untrusted fusion node",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".fuselink")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}

			cfg = app.Config{
				Home:     home,
				Node:     nodeAddr,
				LocalID:  domain.DestinationID(localID),
				LogLevel: logLevel,
			}
			if cfgFile != "" {
				var err error
				if cfg, err = app.LoadConfig(cfgFile, cfg); err != nil {
					return err
				}
			}

			lvl, err := zerolog.ParseLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("parse log level: %w", err)
			}
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
				Level(lvl).With().Timestamp().Logger()

			if wire, err = app.NewWire(cfg, log); err != nil {
				return err
			}
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if wire != nil {
				return wire.Close()
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "TOML config file")
	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.fuselink)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase to protect keys")
	root.PersistentFlags().StringVar(&nodeAddr, "node", "", "fusion node address (e.g. 127.0.0.1:7420)")
	root.PersistentFlags().Uint32Var(&localID, "id", 0, "this device's destination identity")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "zerolog level")

	root.AddCommand(
		initCmd(), fingerprintCmd(), tokenCmd(),
		pairCmd(), sendCmd(), listenCmd(), resetCmd(),
	)
	return root.Execute()
}

func requirePassphrase() error {
	if passphrase == "" {
		return fmt.Errorf("passphrase required (-p)")
	}
	return nil
}
