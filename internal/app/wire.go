package app

import (
	"github.com/rs/zerolog"

	"fuselink/internal/controller"
	"fuselink/internal/domain"
	"fuselink/internal/keystore"
	"fuselink/internal/protocol/session"
	"fuselink/internal/routing"
	"fuselink/internal/store"
	"fuselink/internal/transport"
)

// Wire bundles the stores, engine and controller for a binary.
type Wire struct {
	Store      *store.FileStore
	Keys       *keystore.Store
	Engine     *session.Engine
	Routes     *routing.Table
	Transport  domain.Transport
	Controller *controller.Controller
}

// NewWire constructs the dependency graph from cfg. When cfg.Node is empty
// no transport is dialed and the controller runs offline.
func NewWire(cfg Config, log zerolog.Logger) (*Wire, error) {
	fileStore := store.NewFileStore(cfg.Home)
	keys := keystore.New(fileStore, log)
	engine := session.New(log)
	routes := routing.NewTable(log)

	var tr domain.Transport
	if cfg.Node != "" {
		tcp, err := transport.DialTCP(cfg.Node, log)
		if err != nil {
			return nil, err
		}
		tr = tcp
	}

	ctrl := controller.New(
		controller.Config{LocalID: cfg.LocalID, StaticNode: cfg.StaticAddr},
		keys, engine, routes, tr, log,
	)
	return &Wire{
		Store:      fileStore,
		Keys:       keys,
		Engine:     engine,
		Routes:     routes,
		Transport:  tr,
		Controller: ctrl,
	}, nil
}

// RestoreSessions loads persisted sessions into the engine and routing
// table.
func (w *Wire) RestoreSessions(cfg Config, passphrase string) error {
	sessions, err := w.Store.LoadSessions(passphrase)
	if err != nil {
		return err
	}
	for _, sess := range sessions {
		if err := w.Engine.Restore(sess); err != nil {
			return err
		}
		w.Routes.Register(cfg.LocalID, w.Controller.Node(), sess.ID)
	}
	return nil
}

// Close tears down the controller and transport.
func (w *Wire) Close() error { return w.Controller.Close() }
