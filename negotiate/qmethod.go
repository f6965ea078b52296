// Package negotiate implements the RFC 1143 Q-Method option negotiation
// engine (C3): two independent per-option state machines, "us" (our local
// willingness) and "them" (the peer's), each carrying a queue bit so that
// two hosts negotiating the same option simultaneously converge instead of
// oscillating forever.
package negotiate

import (
	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/option"
)

// State is one of the four Q-Method states for one side of one option.
type State int

const (
	StateNO State = iota
	StateYES
	StateWantNo
	StateWantYes
)

func (s State) String() string {
	switch s {
	case StateNO:
		return "NO"
	case StateYES:
		return "YES"
	case StateWantNo:
		return "WANTNO"
	case StateWantYes:
		return "WANTYES"
	default:
		return "?"
	}
}

// Queue is the pending-opposite-request bit, meaningful only while State is
// WANTNO or WANTYES (invariant 2).
type Queue int

const (
	QueueEmpty Queue = iota
	QueueOpposite
)

// SideState is the negotiation state of one option on one side (us/them).
type SideState struct {
	State State
	Queue Queue
}

// pair is the full per-option state: our side and the peer's side.
type pair struct {
	us   SideState
	them SideState
}

// Side selects which of an option's two independent state machines an
// operation applies to.
type Side int

const (
	SideUs Side = iota
	SideThem
)

// UnknownOptionHandler decides whether an unregistered option offered by
// the peer (WILL or DO) should be treated as accepted (as though a
// default-reject descriptor were registered and this side reciprocates) or
// rejected outright. Called at most once per distinct option per Engine
// (memoized, see cache.go).
type UnknownOptionHandler func(id telnet.Option) bool

// Response is an outbound negotiation triple the engine has decided to
// send. At most one Response is produced per inbound negotiation (Output
// contract, §4.2).
type Response struct {
	Cmd telnet.Command
	Opt telnet.Option
}

// Engine owns the Q-Method state for every option referenced so far on a
// single connection. An Engine is single-owner: like the PFSM it drives,
// it must never be shared across goroutines without external
// synchronization (§5 "Concurrency core").
type Engine struct {
	registry *option.Registry
	unknown  *unknownCache
	states   map[telnet.Option]*pair
}

// NewEngine creates an engine bound to registry, consulting unknownHandler
// (memoized) for any option the registry doesn't recognize when the peer
// offers WILL/DO. A nil unknownHandler rejects every unknown option.
func NewEngine(registry *option.Registry, unknownHandler UnknownOptionHandler) *Engine {
	if unknownHandler == nil {
		unknownHandler = func(telnet.Option) bool { return false }
	}
	return &Engine{
		registry: registry,
		unknown:  newUnknownCache(unknownHandler),
		states:   make(map[telnet.Option]*pair),
	}
}

// state returns the pair for opt, lazily creating it at (NO, NO) on first
// reference (§9 "Lazy option-state creation").
func (e *Engine) state(opt telnet.Option) *pair {
	p, ok := e.states[opt]
	if !ok {
		p = &pair{}
		e.states[opt] = p
	}
	return p
}

// Us returns the current local-side state for opt (NO,NO if never
// referenced).
func (e *Engine) Us(opt telnet.Option) SideState { return e.state(opt).us }

// Them returns the current remote-side state for opt.
func (e *Engine) Them(opt telnet.Option) SideState { return e.state(opt).them }

// descriptorOrUnknown resolves a descriptor for opt, falling back to a
// synthetic default-reject descriptor driven by the unknown-option handler
// when opt is not registered (§4.2 "Edge cases").
func (e *Engine) descriptorOrUnknown(opt telnet.Option) option.Descriptor {
	if d, ok := e.registry.Get(opt); ok {
		return d
	}
	accept := e.unknown.accepts(opt)
	return option.Descriptor{
		ID:             opt,
		SupportsLocal:  accept,
		SupportsRemote: accept,
	}
}

// HandleWill processes an inbound WILL opt (peer offers to enable its
// side). Returns the outbound response, if any, and a protocol error if the
// peer's offer was itself a negotiation violation (still leaves the state
// pair consistent; §4.2 table).
func (e *Engine) HandleWill(opt telnet.Option) (*Response, error) {
	d := e.descriptorOrUnknown(opt)
	p := e.state(opt)
	resp, err := handleEnableOffer(&p.them, d.AcceptsRemote(), telnet.DO, telnet.DONT)
	return resp, err
}

// HandleWont processes an inbound WONT opt.
func (e *Engine) HandleWont(opt telnet.Option) *Response {
	p := e.state(opt)
	return handleDisableOffer(&p.them, telnet.DONT)
}

// HandleDo processes an inbound DO opt (peer asks us to enable our side).
func (e *Engine) HandleDo(opt telnet.Option) (*Response, error) {
	d := e.descriptorOrUnknown(opt)
	p := e.state(opt)
	resp, err := handleEnableOffer(&p.us, d.AcceptsLocal(), telnet.WILL, telnet.WONT)
	return resp, err
}

// HandleDont processes an inbound DONT opt.
func (e *Engine) HandleDont(opt telnet.Option) *Response {
	p := e.state(opt)
	return handleDisableOffer(&p.us, telnet.WONT)
}

// handleEnableOffer implements the WILL/DO inbound table (§4.2), generic
// over which side it mutates and which accept/reject commands it emits.
func handleEnableOffer(s *SideState, accepts bool, acceptCmd, rejectCmd telnet.Command) (*Response, error) {
	switch s.State {
	case StateNO:
		if accepts {
			s.State = StateYES
			return &Response{Cmd: acceptCmd}, nil
		}
		return &Response{Cmd: rejectCmd}, nil

	case StateYES:
		return nil, nil

	case StateWantNo:
		if s.Queue == QueueEmpty {
			s.State = StateNO
			return nil, telnet.NewError(telnet.CodeProtocolViolation, "peer offered to enable an option we had just disabled (WANTNO/empty)")
		}
		// WANTNO, OPPOSITE: we had changed our mind mid-negotiation.
		s.State = StateYES
		s.Queue = QueueEmpty
		return nil, nil

	case StateWantYes:
		if s.Queue == QueueEmpty {
			s.State = StateYES
			return nil, nil
		}
		// WANTYES, OPPOSITE: our queued disable fires now.
		s.State = StateWantNo
		s.Queue = QueueEmpty
		return &Response{Cmd: rejectCmd}, nil
	}
	return nil, nil
}

// handleDisableOffer implements the WONT/DONT inbound table (§4.2).
func handleDisableOffer(s *SideState, rejectCmd telnet.Command) *Response {
	switch s.State {
	case StateNO:
		return nil

	case StateYES:
		s.State = StateNO
		return &Response{Cmd: rejectCmd}

	case StateWantNo:
		if s.Queue == QueueEmpty {
			s.State = StateNO
			return nil
		}
		s.State = StateWantYes
		s.Queue = QueueEmpty
		var acceptCmd telnet.Command
		if rejectCmd == telnet.DONT {
			acceptCmd = telnet.DO
		} else {
			acceptCmd = telnet.WILL
		}
		return &Response{Cmd: acceptCmd}

	case StateWantYes:
		s.State = StateNO
		s.Queue = QueueEmpty
		return nil
	}
	return nil
}

// AskEnable requests that side be enabled for opt: on SideUs this emits
// WILL (we offer), on SideThem this emits DO (we request). Returns nil if
// no outbound command is needed right now (already enabled, or a request
// is already in flight and this just flips the queue bit).
func (e *Engine) AskEnable(side Side, opt telnet.Option) *Response {
	p := e.state(opt)
	enableCmd, disableCmd := commandsFor(side)
	s := sideOf(p, side)
	return askEnable(s, enableCmd, disableCmd)
}

// AskDisable requests that side be disabled for opt.
func (e *Engine) AskDisable(side Side, opt telnet.Option) *Response {
	p := e.state(opt)
	enableCmd, disableCmd := commandsFor(side)
	s := sideOf(p, side)
	return askDisable(s, enableCmd, disableCmd)
}

func commandsFor(side Side) (enableCmd, disableCmd telnet.Command) {
	if side == SideUs {
		return telnet.WILL, telnet.WONT
	}
	return telnet.DO, telnet.DONT
}

func sideOf(p *pair, side Side) *SideState {
	if side == SideUs {
		return &p.us
	}
	return &p.them
}

// askEnable implements the local "request enable" table (RFC 1143
// Appendix): the asymmetric counterpart to handleEnableOffer, used when
// *we* initiate rather than react.
func askEnable(s *SideState, enableCmd, disableCmd telnet.Command) *Response {
	switch s.State {
	case StateNO:
		s.State = StateWantYes
		return &Response{Cmd: enableCmd}
	case StateYES:
		return nil
	case StateWantNo:
		s.Queue = QueueOpposite
		return nil
	case StateWantYes:
		if s.Queue == QueueOpposite {
			s.Queue = QueueEmpty
		}
		return nil
	}
	return nil
}

// askDisable implements the local "request disable" table.
func askDisable(s *SideState, enableCmd, disableCmd telnet.Command) *Response {
	switch s.State {
	case StateNO:
		return nil
	case StateYES:
		s.State = StateWantNo
		return &Response{Cmd: disableCmd}
	case StateWantNo:
		if s.Queue == QueueOpposite {
			s.Queue = QueueEmpty
		}
		return nil
	case StateWantYes:
		s.Queue = QueueOpposite
		return nil
	}
	return nil
}

// setQueue sets the queue bit, rejecting the change outside WANTNO/WANTYES
// (invariant 2). Only tests call it; askEnable/askDisable assign the queue
// bit directly, and only while the side is in WANTNO or WANTYES.
func setQueue(s *SideState, q Queue) error {
	if s.State != StateWantNo && s.State != StateWantYes {
		return telnet.NewError(telnet.CodeNegotiationQueueError, "queue bit set outside WANTNO/WANTYES")
	}
	s.Queue = q
	return nil
}
