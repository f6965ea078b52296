package parser

import (
	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/negotiate"
)

// EventKind discriminates the side-effect payload carried by an Event.
type EventKind int

const (
	// EventNegotiationResponse is an outbound (cmd, opt) the Q-Method
	// engine decided to send in reaction to an inbound negotiation.
	EventNegotiationResponse EventKind = iota
	// EventSignal is a non-error processing signal (GA, EOR, IP, ...).
	EventSignal
	// EventSubnegComplete delivers a fully received, IAC-unescaped
	// subnegotiation payload for Option.
	EventSubnegComplete
	// EventAYTResponse asks the caller to write the configured AYT
	// response string; AYT is not itself surfaced as a signal (§4.3).
	EventAYTResponse
	// EventError is a recoverable per-byte protocol error (§7 band 1);
	// the parser has already returned to NORMAL.
	EventError
	// EventWarning is a log-and-continue condition that does not reset the
	// parser or end the read: spec.md §9 Open Question (a)'s lenient
	// SB_SAW_IAC handling of a non-SE/non-IAC byte.
	EventWarning
)

// Event is the side-effect channel out of Feed: zero or more are produced
// per byte fed, in addition to the kept application bytes.
type Event struct {
	Kind     EventKind
	Response negotiate.Response     // EventNegotiationResponse
	Signal   telnet.ProcessingSignal // EventSignal
	Command  telnet.Command          // EventSignal: the originating command byte
	Option   telnet.Option           // EventSubnegComplete
	Payload  []byte                  // EventSubnegComplete/EventAYTResponse, owned by the caller
	Err      error                   // EventError
}
