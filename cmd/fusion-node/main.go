package main

import (
	"encoding/binary"
	"flag"
	"io"
	"net"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"fuselink/internal/transport"
	"fuselink/internal/wire"
)

func main() {
	var (
		cfgFile = flag.String("config", "", "TOML config file")
		listen  = flag.String("listen", "", "listen address (overrides config)")
	)
	flag.Parse()

	cfg := defaultNodeConfig()
	if *cfgFile != "" {
		var err error
		if cfg, err = loadNodeConfig(*cfgFile, cfg); err != nil {
			l := zerolog.New(os.Stderr)
			l.Fatal().Err(err).Msg("config")
		}
	}
	if *listen != "" {
		cfg.Listen = *listen
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).With().Timestamp().Logger()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		log.Fatal().Err(err).Str("listen", cfg.Listen).Msg("listen failed")
	}
	log.Info().Str("listen", cfg.Listen).Msg("fusion node up")

	reg := newRegistry()
	for {
		conn, err := ln.Accept()
		if err != nil {
			log.Error().Err(err).Msg("accept failed")
			return
		}
		go serve(conn, reg, log)
	}
}

// client is one attached device connection.
type client struct {
	conn net.Conn
	wmu  sync.Mutex
}

// Forward writes one length-prefixed chunk to the device, best effort.
func (c *client) Forward(chunk []byte) bool {
	if len(chunk) > transport.MaxChunk {
		return false
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()

	var hdr [2]byte
	binary.BigEndian.PutUint16(hdr[:], uint16(len(chunk)))
	if _, err := c.conn.Write(hdr[:]); err != nil {
		return false
	}
	_, err := c.conn.Write(chunk)
	return err == nil
}

func serve(conn net.Conn, reg *registry, log zerolog.Logger) {
	defer conn.Close()

	c := &client{conn: conn}
	addr := reg.attach(c)
	defer reg.detach(addr)

	clog := log.With().Str("addr", addr.String()).Str("remote", conn.RemoteAddr().String()).Logger()
	clog.Info().Int("attached", reg.size()).Msg("device attached")
	defer clog.Info().Msg("device detached")

	// Announce the assigned address: a frame with our address and an empty
	// ciphertext tail.
	hello, err := wire.Encode(addr, nil)
	if err != nil || !c.Forward(hello) {
		clog.Warn().Msg("failed to announce address")
		return
	}

	for {
		var hdr [2]byte
		if _, err := io.ReadFull(conn, hdr[:]); err != nil {
			return
		}
		chunk := make([]byte, binary.BigEndian.Uint16(hdr[:]))
		if _, err := io.ReadFull(conn, chunk); err != nil {
			return
		}
		forward(chunk, reg, clog)
	}
}

// forward parses only the address prefix and passes the chunk on untouched.
func forward(chunk []byte, reg *registry, log zerolog.Logger) {
	f, err := wire.Decode(chunk)
	if err != nil {
		log.Warn().Err(err).Msg("dropping undecodable chunk")
		return
	}
	if len(f.Ciphertext) == 0 {
		// Control traffic flows node to device only; ignore upstream echoes.
		return
	}
	target, ok := reg.lookup(f.Node)
	if !ok {
		log.Debug().Str("target", f.Node.String()).Msg("no device at address, dropping")
		return
	}
	if !target.Forward(chunk) {
		log.Warn().Str("target", f.Node.String()).Msg("forward failed")
	}
}
