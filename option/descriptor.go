// Package option holds the static description of Telnet options (C2): the
// registry a PFSM/Q-Method engine consults to know what it may negotiate.
package option

import "github.com/drake/gotelnet"

// AcceptPredicate decides whether this side is willing to perform (local)
// or permit (remote) an option. Per spec invariant 5, implementations must
// be pure: identical input implies identical output.
type AcceptPredicate func(id telnet.Option) bool

// Descriptor is the immutable, per-option static description (§3). Once
// registered, a Descriptor is never mutated — Registry.Upsert replaces the
// whole value, so a Descriptor returned by Get stays valid forever (value
// semantics, P5).
type Descriptor struct {
	ID              telnet.Option
	Name            string
	SupportsLocal   bool
	SupportsRemote  bool
	SupportsSubneg  bool
	MaxSubnegBytes  int // 0 means unbounded.
	AcceptLocal     AcceptPredicate
	AcceptRemote    AcceptPredicate
}

// alwaysAccept is the default predicate for an option with no custom rule:
// accept whenever the corresponding Supports flag is set.
func alwaysAccept(telnet.Option) bool { return true }

// neverAccept always rejects; used for options this side never performs.
func neverAccept(telnet.Option) bool { return false }

// AcceptsLocal reports whether the option may be enabled on our (local)
// side: SupportsLocal must be set and AcceptLocal (default accept) agree.
func (d Descriptor) AcceptsLocal() bool {
	if !d.SupportsLocal {
		return false
	}
	pred := d.AcceptLocal
	if pred == nil {
		pred = alwaysAccept
	}
	return pred(d.ID)
}

func (d Descriptor) AcceptsRemote() bool {
	if !d.SupportsRemote {
		return false
	}
	pred := d.AcceptRemote
	if pred == nil {
		pred = alwaysAccept
	}
	return pred(d.ID)
}
