package transport_test

import (
	"bytes"
	"encoding/binary"
	"io"
	"net"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"fuselink/internal/domain"
	"fuselink/internal/transport"
	"fuselink/internal/wire"
)

func collect(tr domain.Transport) <-chan []byte {
	out := make(chan []byte, 16)
	tr.SetReceiver(func(b []byte) { out <- b })
	return out
}

func waitChunk(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case b := <-ch:
		return b
	case <-time.After(2 * time.Second):
		t.Fatal("no chunk received")
	}
	return nil
}

func TestPipeDelivery(t *testing.T) {
	a, b := transport.Pipe("relay1", "relay2")
	defer a.Close()
	defer b.Close()

	got := collect(b)
	if !a.Send([]byte{1, 2, 3}) {
		t.Fatal("Send failed")
	}
	if chunk := waitChunk(t, got); !bytes.Equal(chunk, []byte{1, 2, 3}) {
		t.Fatalf("chunk: got %x", chunk)
	}
}

func TestPipePreservesOrder(t *testing.T) {
	a, b := transport.Pipe("relay1", "relay2")
	defer a.Close()
	defer b.Close()

	got := collect(b)
	for i := byte(0); i < 10; i++ {
		if !a.Send([]byte{i}) {
			t.Fatalf("Send %d failed", i)
		}
	}
	for i := byte(0); i < 10; i++ {
		if chunk := waitChunk(t, got); chunk[0] != i {
			t.Fatalf("out of order: want %d, got %d", i, chunk[0])
		}
	}
}

func TestPipeStatusAndClose(t *testing.T) {
	a, b := transport.Pipe("relay1", "relay2")
	defer b.Close()

	var node domain.RelayAddress
	for st := range a.Status() {
		if st.State == domain.StateConnectedWithAddress {
			node = st.Node
			break
		}
	}
	if node != "relay1" {
		t.Fatalf("assigned node: got %q", node)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if a.Send([]byte{1}) {
		t.Fatal("Send after close should fail")
	}
}

// fakeNode accepts one connection, assigns addr and echoes every chunk
// back to the sender.
func fakeNode(t *testing.T, addr domain.RelayAddress) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		writeChunk := func(b []byte) error {
			var hdr [2]byte
			binary.BigEndian.PutUint16(hdr[:], uint16(len(b)))
			if _, err := conn.Write(hdr[:]); err != nil {
				return err
			}
			_, err := conn.Write(b)
			return err
		}

		hello, _ := wire.Encode(addr, nil)
		if err := writeChunk(hello); err != nil {
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
			if err := writeChunk(chunk); err != nil {
				return
			}
		}
	}()
	return ln.Addr().String()
}

func TestTCPAssignmentAndEcho(t *testing.T) {
	addr := fakeNode(t, "aabbccdd")

	tr, err := transport.DialTCP(addr, zerolog.Nop())
	if err != nil {
		t.Fatalf("DialTCP: %v", err)
	}
	defer tr.Close()
	got := collect(tr)

	deadline := time.After(2 * time.Second)
	var node domain.RelayAddress
	for node == "" {
		select {
		case st := <-tr.Status():
			if st.State == domain.StateConnectedWithAddress {
				node = st.Node
			}
		case <-deadline:
			t.Fatal("no address assignment")
		}
	}
	if node != "aabbccdd" {
		t.Fatalf("assigned node: got %q", node)
	}

	frame, err := wire.Encode("aabbccdd", []byte("opaque"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !tr.Send(frame) {
		t.Fatal("Send failed")
	}
	if chunk := waitChunk(t, got); !bytes.Equal(chunk, frame) {
		t.Fatalf("echo: want %x, got %x", frame, chunk)
	}
}
