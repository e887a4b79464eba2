package main

import "testing"

type fakeSink struct {
	chunks [][]byte
}

func (f *fakeSink) Forward(chunk []byte) bool {
	f.chunks = append(f.chunks, chunk)
	return true
}

func TestAttachAssignsUniqueAddresses(t *testing.T) {
	reg := newRegistry()
	seen := make(map[string]bool)
	for i := 0; i < 64; i++ {
		addr := reg.attach(&fakeSink{})
		if len(addr) != 8 {
			t.Fatalf("address %q: want 8 hex chars", addr)
		}
		if seen[addr.String()] {
			t.Fatalf("address %q assigned twice", addr)
		}
		seen[addr.String()] = true
	}
	if reg.size() != 64 {
		t.Fatalf("want 64 attached, got %d", reg.size())
	}
}

func TestLookupAndDetach(t *testing.T) {
	reg := newRegistry()
	s := &fakeSink{}
	addr := reg.attach(s)

	got, ok := reg.lookup(addr)
	if !ok || got != sink(s) {
		t.Fatal("lookup should return the attached sink")
	}

	reg.detach(addr)
	if _, ok := reg.lookup(addr); ok {
		t.Fatal("lookup after detach should miss")
	}
	if reg.size() != 0 {
		t.Fatalf("want empty registry, got %d", reg.size())
	}
}
