package option

import (
	"sort"
	"sync"

	"github.com/drake/gotelnet"
)

// Registry is the process-scope, thread-safe table of known option
// descriptors (C2). Readers never block each other; a concurrent Upsert
// blocks readers only for the duration of a single insert/replace.
//
// Entries are kept in a slice sorted by ID so Get is a binary search
// (O(log n)) and UpsertBulk of a pre-sorted list is O(n), matching §4.1.
type Registry struct {
	mu      sync.RWMutex
	entries []Descriptor // sorted by ID
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// NewDefaultRegistry returns a registry pre-loaded with the options named in
// §3: BINARY, ECHO, SUPPRESS-GO-AHEAD, STATUS, TIMING-MARK, TERMINAL-TYPE,
// NAWS, TERMINAL-SPEED, LINEMODE, NEW-ENVIRON, CHARSET.
//
// The ECHO predicate intentionally accepts only local, never remote —
// spec.md's Open Question (b) preserves this source quirk rather than
// silently adopting the common convention of accepting remote ECHO too.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	r.UpsertBulk([]Descriptor{
		{ID: telnet.OptBinaryTransmission, Name: "BINARY", SupportsLocal: true, SupportsRemote: true},
		{ID: telnet.OptEcho, Name: "ECHO", SupportsLocal: true, SupportsRemote: false, AcceptRemote: neverAccept},
		{ID: telnet.OptSuppressGoAhead, Name: "SUPPRESS-GO-AHEAD", SupportsLocal: true, SupportsRemote: true},
		{ID: telnet.OptStatus, Name: "STATUS", SupportsLocal: true, SupportsRemote: true},
		{ID: telnet.OptTimingMark, Name: "TIMING-MARK", SupportsLocal: true, SupportsRemote: true},
		{ID: telnet.OptTerminalType, Name: "TERMINAL-TYPE", SupportsLocal: true, SupportsRemote: true, SupportsSubneg: true, MaxSubnegBytes: 256},
		{ID: telnet.OptNAWS, Name: "NAWS", SupportsLocal: true, SupportsRemote: true, SupportsSubneg: true, MaxSubnegBytes: 4},
		{ID: telnet.OptTerminalSpeed, Name: "TERMINAL-SPEED", SupportsLocal: true, SupportsRemote: true, SupportsSubneg: true, MaxSubnegBytes: 64},
		{ID: telnet.OptLinemode, Name: "LINEMODE", SupportsLocal: false, SupportsRemote: false},
		{ID: telnet.OptNewEnviron, Name: "NEW-ENVIRON", SupportsLocal: false, SupportsRemote: true, SupportsSubneg: true, MaxSubnegBytes: 1024},
		{ID: telnet.OptCharset, Name: "CHARSET", SupportsLocal: true, SupportsRemote: true, SupportsSubneg: true, MaxSubnegBytes: 256},
	})
	return r
}

func (r *Registry) search(id telnet.Option) int {
	return sort.Search(len(r.entries), func(i int) bool { return r.entries[i].ID >= id })
}

// Get returns the descriptor for id, if registered. The returned value is a
// copy (value semantics) and is never invalidated by a later Upsert (P5).
func (r *Registry) Get(id telnet.Option) (Descriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	i := r.search(id)
	if i < len(r.entries) && r.entries[i].ID == id {
		return r.entries[i], true
	}
	return Descriptor{}, false
}

// Has reports whether id is registered.
func (r *Registry) Has(id telnet.Option) bool {
	_, ok := r.Get(id)
	return ok
}

// Upsert inserts d or replaces the existing descriptor for d.ID.
func (r *Registry) Upsert(d Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i := r.search(d.ID)
	if i < len(r.entries) && r.entries[i].ID == d.ID {
		r.entries[i] = d
		return
	}
	r.entries = append(r.entries, Descriptor{})
	copy(r.entries[i+1:], r.entries[i:])
	r.entries[i] = d
}

// UpsertBulk loads a batch of descriptors in one critical section. The
// input need not be pre-sorted by the caller — it is sorted once here —
// but a caller that already has a sorted slice pays only the O(n) merge
// §4.1 promises.
func (r *Registry) UpsertBulk(descriptors []Descriptor) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sorted := make([]Descriptor, len(descriptors))
	copy(sorted, descriptors)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	merged := make([]Descriptor, 0, len(r.entries)+len(sorted))
	i, j := 0, 0
	for i < len(r.entries) && j < len(sorted) {
		switch {
		case r.entries[i].ID < sorted[j].ID:
			merged = append(merged, r.entries[i])
			i++
		case r.entries[i].ID > sorted[j].ID:
			merged = append(merged, sorted[j])
			j++
		default: // equal ID: bulk entry wins, matching single Upsert's replace semantics
			merged = append(merged, sorted[j])
			i++
			j++
		}
	}
	merged = append(merged, r.entries[i:]...)
	merged = append(merged, sorted[j:]...)
	r.entries = merged
}
