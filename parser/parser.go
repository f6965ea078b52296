// Package parser implements the Protocol Finite State Machine (C4): a
// byte-level parser that turns an inbound Telnet stream into application
// data plus protocol events, driving a negotiate.Engine for option
// negotiation and an option.Registry for subnegotiation bounds. It is a
// port, in spirit and in state-machine shape, of teacher's
// network/telnet.go extract()/process() pair, generalized from one
// hard-coded MUD option set to the pluggable registry + Q-Method engine
// spec.md requires.
package parser

import (
	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/negotiate"
	"github.com/drake/gotelnet/option"
)

// State is one of the parser's six states (§3 "Parser state").
type State int

const (
	StateNormal State = iota
	StateSawIAC
	StateNegAwaitOpt
	StateSBAwaitOpt
	StateSBData
	StateSBSawIAC
)

func (s State) String() string {
	switch s {
	case StateNormal:
		return "NORMAL"
	case StateSawIAC:
		return "SAW_IAC"
	case StateNegAwaitOpt:
		return "NEG_AWAIT_OPT"
	case StateSBAwaitOpt:
		return "SB_AWAIT_OPT"
	case StateSBData:
		return "SB_DATA"
	case StateSBSawIAC:
		return "SB_SAW_IAC"
	default:
		return "?"
	}
}

// Verdict is what a single inbound byte resolves to (§2 data flow).
type Verdict int

const (
	VerdictDiscard Verdict = iota
	VerdictKeepData
	VerdictKeepEscapedIAC
)

// Parser is the PFSM. It owns the subnegotiation buffer and the pending
// command/option while mid-sequence; every field is reset to zero on any
// transition back to StateNormal (invariant 1). A Parser is not re-entrant
// — see stream.Stream for the single-owner wrapper that suspends around
// transport I/O.
type Parser struct {
	registry   *option.Registry
	engine     *negotiate.Engine
	aytFunc    func() []byte // produces the bytes to queue for an AYT reply
	defaultMax int           // subneg bound for an option the registry has no entry for

	state      State
	pendingCmd telnet.Command
	subOpt     telnet.Option
	subBuf     []byte
	subMax     int // resolved bound for the in-progress subnegotiation
}

// New creates a Parser bound to registry and engine. aytFunc, if non-nil,
// is invoked to produce the bytes queued as an EventAYTResponse payload
// when the peer sends AYT; if nil, AYT still surfaces the event with a nil
// Payload and the caller decides what (if anything) to send. defaultMax is
// the subnegotiation bound applied when the registry has no descriptor for
// the option in play (config.DefaultMaxSubnegBytes).
func New(registry *option.Registry, engine *negotiate.Engine, aytFunc func() []byte, defaultMax int) *Parser {
	return &Parser{registry: registry, engine: engine, aytFunc: aytFunc, defaultMax: defaultMax}
}

// CurrentState reports the parser's state, for tests; not consulted during
// normal operation (§4.3).
func (p *Parser) CurrentState() State { return p.state }

// reset returns the parser to StateNormal and clears all buffered state
// (invariant 1).
func (p *Parser) reset() {
	p.state = StateNormal
	p.pendingCmd = 0
	p.subOpt = 0
	p.subBuf = nil
	p.subMax = 0
}

// Feed ingests data and returns the application bytes kept (in order) and
// the events raised while processing it. Both slices are owned by the
// caller; Feed never retains a reference to data after returning.
func (p *Parser) Feed(data []byte) (kept []byte, events []Event) {
	kept = make([]byte, 0, len(data))
	for _, b := range data {
		v, ev := p.step(b)
		switch v {
		case VerdictKeepData, VerdictKeepEscapedIAC:
			kept = append(kept, b)
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return kept, events
}

// FeedByte processes a single inbound byte and returns its verdict plus any
// event raised. stream.Stream uses this directly (rather than Feed) so it
// can stop consuming a chunk mid-way on a signal or error, per §4.6 step 4.
func (p *Parser) FeedByte(b byte) (Verdict, *Event) {
	return p.step(b)
}

// step is the pure function (current_state, byte) -> (new_state, verdict,
// event) described by §4.3's table. It is only "pure" modulo the engine's
// own internal state (Q-Method pairs), which step is explicitly allowed
// and expected to mutate — the PFSM itself carries no Q-Method logic.
func (p *Parser) step(b byte) (Verdict, *Event) {
	switch p.state {
	case StateNormal:
		if b == byte(telnet.IAC) {
			p.state = StateSawIAC
			return VerdictDiscard, nil
		}
		return VerdictKeepData, nil

	case StateSawIAC:
		return p.stepSawIAC(b)

	case StateNegAwaitOpt:
		return p.stepNegAwaitOpt(b)

	case StateSBAwaitOpt:
		return p.stepSBAwaitOpt(b)

	case StateSBData:
		return p.stepSBData(b)

	case StateSBSawIAC:
		return p.stepSBSawIAC(b)
	}
	return VerdictDiscard, nil
}

func (p *Parser) stepSawIAC(b byte) (Verdict, *Event) {
	cmd := telnet.Command(b)

	if cmd == telnet.IAC {
		p.state = StateNormal
		return VerdictKeepEscapedIAC, nil
	}
	if cmd.IsNegotiation() {
		p.pendingCmd = cmd
		p.state = StateNegAwaitOpt
		return VerdictDiscard, nil
	}
	if cmd == telnet.SB {
		p.state = StateSBAwaitOpt
		return VerdictDiscard, nil
	}
	if cmd == telnet.SE {
		p.reset()
		return VerdictDiscard, errEvent(telnet.CodeInvalidSubnegotiation, "stray SE outside subnegotiation")
	}
	if cmd == telnet.AYT {
		p.reset()
		var payload []byte
		if p.aytFunc != nil {
			payload = p.aytFunc()
		}
		return VerdictDiscard, &Event{Kind: EventAYTResponse, Payload: payload}
	}
	if cmd.IsBareSignal() {
		p.reset()
		sig, ok := telnet.SignalForCommand(cmd)
		if ok {
			return VerdictDiscard, &Event{Kind: EventSignal, Signal: sig, Command: cmd}
		}
		return VerdictDiscard, nil
	}
	p.reset()
	return VerdictDiscard, errEvent(telnet.CodeInvalidCommand, "unrecognized command byte after IAC")
}

func (p *Parser) stepNegAwaitOpt(b byte) (Verdict, *Event) {
	opt := telnet.Option(b)
	cmd := p.pendingCmd
	p.reset()

	var resp *negotiate.Response
	var err error
	switch cmd {
	case telnet.WILL:
		resp, err = p.engine.HandleWill(opt)
	case telnet.WONT:
		resp = p.engine.HandleWont(opt)
	case telnet.DO:
		resp, err = p.engine.HandleDo(opt)
	case telnet.DONT:
		resp = p.engine.HandleDont(opt)
	}

	if err != nil {
		return VerdictDiscard, errEvent(telnet.CodeProtocolViolation, err.Error())
	}
	if resp != nil {
		return VerdictDiscard, &Event{Kind: EventNegotiationResponse, Response: negotiate.Response{Cmd: resp.Cmd, Opt: opt}}
	}
	return VerdictDiscard, nil
}

func (p *Parser) stepSBAwaitOpt(b byte) (Verdict, *Event) {
	opt := telnet.Option(b)
	p.subOpt = opt
	p.subMax = p.defaultMax // default_max_subneg_bytes fallback for unregistered options
	if d, ok := p.registry.Get(opt); ok {
		p.subMax = d.MaxSubnegBytes
	}
	p.subBuf = make([]byte, 0, 64)
	p.state = StateSBData
	return VerdictDiscard, nil
}

func (p *Parser) stepSBData(b byte) (Verdict, *Event) {
	if b == byte(telnet.IAC) {
		p.state = StateSBSawIAC
		return VerdictDiscard, nil
	}
	if p.subMax > 0 && len(p.subBuf) >= p.subMax {
		p.reset()
		return VerdictDiscard, errEvent(telnet.CodeSubnegotiationOverflow, "subnegotiation payload exceeded max_subneg_bytes")
	}
	p.subBuf = append(p.subBuf, b)
	return VerdictDiscard, nil
}

func (p *Parser) stepSBSawIAC(b byte) (Verdict, *Event) {
	if b == byte(telnet.SE) {
		opt := p.subOpt
		payload := make([]byte, len(p.subBuf))
		copy(payload, p.subBuf)
		p.reset()
		return VerdictDiscard, &Event{Kind: EventSubnegComplete, Option: opt, Payload: payload}
	}
	if b == byte(telnet.IAC) {
		if p.subMax > 0 && len(p.subBuf) >= p.subMax {
			p.reset()
			return VerdictDiscard, errEvent(telnet.CodeSubnegotiationOverflow, "subnegotiation payload exceeded max_subneg_bytes")
		}
		p.subBuf = append(p.subBuf, byte(telnet.IAC))
		p.state = StateSBData
		return VerdictDiscard, nil
	}
	// Lenient per spec.md §9 Open Question (a): treat as an unescaped IAC
	// followed by ordinary data rather than hardening to protocol_violation.
	if p.subMax > 0 && len(p.subBuf)+2 > p.subMax {
		p.reset()
		return VerdictDiscard, errEvent(telnet.CodeSubnegotiationOverflow, "subnegotiation payload exceeded max_subneg_bytes")
	}
	p.subBuf = append(p.subBuf, byte(telnet.IAC), b)
	p.state = StateSBData
	return VerdictDiscard, &Event{Kind: EventWarning, Err: telnet.NewError(telnet.CodeInvalidCommand, "non-SE byte after IAC inside subnegotiation; treated as escaped data")}
}

func errEvent(code telnet.Code, msg string) *Event {
	return &Event{Kind: EventError, Err: telnet.NewError(code, msg)}
}
