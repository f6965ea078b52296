package option

import (
	"testing"

	"github.com/drake/gotelnet"
)

func TestDefaultRegistryEchoIsLocalOnly(t *testing.T) {
	r := NewDefaultRegistry()
	d, ok := r.Get(telnet.OptEcho)
	if !ok {
		t.Fatalf("expected ECHO registered")
	}
	if !d.AcceptsLocal() {
		t.Fatalf("expected ECHO acceptable locally")
	}
	if d.AcceptsRemote() {
		t.Fatalf("expected ECHO never acceptable remotely (Open Question b)")
	}
}

func TestRegistryGetMissing(t *testing.T) {
	r := NewRegistry()
	if _, ok := r.Get(telnet.OptCharset); ok {
		t.Fatalf("expected CHARSET absent from empty registry")
	}
}

func TestRegistryUpsertInsertsSorted(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Descriptor{ID: telnet.OptNAWS})
	r.Upsert(Descriptor{ID: telnet.OptBinaryTransmission})
	r.Upsert(Descriptor{ID: telnet.OptEcho})

	for _, id := range []telnet.Option{telnet.OptBinaryTransmission, telnet.OptEcho, telnet.OptNAWS} {
		if _, ok := r.Get(id); !ok {
			t.Fatalf("expected %v registered", id)
		}
	}
	for i := 1; i < len(r.entries); i++ {
		if r.entries[i].ID <= r.entries[i-1].ID {
			t.Fatalf("ordering invariant violated")
		}
	}
}

func TestRegistryUpsertReplacesExisting(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Descriptor{ID: telnet.OptEcho, Name: "ECHO", MaxSubnegBytes: 1})
	r.Upsert(Descriptor{ID: telnet.OptEcho, Name: "ECHO", MaxSubnegBytes: 2})

	d, _ := r.Get(telnet.OptEcho)
	if d.MaxSubnegBytes != 2 {
		t.Fatalf("expected replace to win, got MaxSubnegBytes=%d", d.MaxSubnegBytes)
	}
}

func TestRegistryUpsertBulkMergesAndOverridesOnTie(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Descriptor{ID: telnet.OptEcho, Name: "old"})
	r.UpsertBulk([]Descriptor{
		{ID: telnet.OptNAWS, Name: "NAWS"},
		{ID: telnet.OptEcho, Name: "new"},
		{ID: telnet.OptBinaryTransmission, Name: "BINARY"},
	})

	d, ok := r.Get(telnet.OptEcho)
	if !ok || d.Name != "new" {
		t.Fatalf("expected bulk entry to win tie, got %+v ok=%v", d, ok)
	}
	if !r.Has(telnet.OptNAWS) || !r.Has(telnet.OptBinaryTransmission) {
		t.Fatalf("expected both new bulk entries present")
	}
}

// A Descriptor returned by Get must stay valid (value semantics) even after
// a later Upsert replaces the entry (P5).
func TestRegistrySnapshotStableAcrossLaterUpsert(t *testing.T) {
	r := NewRegistry()
	r.Upsert(Descriptor{ID: telnet.OptEcho, Name: "v1", MaxSubnegBytes: 1})
	snap, _ := r.Get(telnet.OptEcho)

	r.Upsert(Descriptor{ID: telnet.OptEcho, Name: "v2", MaxSubnegBytes: 2})

	if snap.Name != "v1" || snap.MaxSubnegBytes != 1 {
		t.Fatalf("snapshot mutated: %+v", snap)
	}
	cur, _ := r.Get(telnet.OptEcho)
	if cur.Name != "v2" {
		t.Fatalf("expected live registry to reflect v2, got %+v", cur)
	}
}

func TestDescriptorAcceptPredicateOverridesSupportsFlag(t *testing.T) {
	called := false
	d := Descriptor{
		ID:            telnet.OptCharset,
		SupportsLocal: true,
		AcceptLocal: func(telnet.Option) bool {
			called = true
			return false
		},
	}
	if d.AcceptsLocal() {
		t.Fatalf("expected predicate veto to win")
	}
	if !called {
		t.Fatalf("expected predicate invoked")
	}
}

func TestDescriptorSupportsFlagShortCircuitsPredicate(t *testing.T) {
	d := Descriptor{
		ID:            telnet.OptCharset,
		SupportsLocal: false,
		AcceptLocal:   alwaysAccept,
	}
	if d.AcceptsLocal() {
		t.Fatalf("expected SupportsLocal=false to veto regardless of predicate")
	}
}
