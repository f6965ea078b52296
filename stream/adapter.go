// Package stream implements the Stream Adapter (C6): the async read/write
// surface over a byte Transport that coordinates the PFSM (parser), the
// Q-Method engine (negotiate), and the Outbound Encoder (encode) so that
// negotiation responses generated during a Read are flushed to the peer
// before Read returns. Grounded on teacher's network/client.go TCPClient +
// connection pair — a buffered channel, a write mutex, atomic stats —
// generalized from one hard-coded MUD option set to config-driven policy.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/config"
	"github.com/drake/gotelnet/encode"
	"github.com/drake/gotelnet/negotiate"
	"github.com/drake/gotelnet/option"
	"github.com/drake/gotelnet/parser"
)

// sidebandCapacity is the suggested bound from §5 "Backpressure".
const sidebandCapacity = 16

// scratchSize is the per-Read underlying transport read size, matching
// teacher's 4096-byte buf in network/client.go's readLoop.
const scratchSize = 4096

// SubnegHandler reacts to a completed subnegotiation payload for a
// specific option. A non-nil, non-empty return value is queued as raw
// outbound bytes (already framed by the handler, e.g. via
// encode.Subnegotiation) before the read that triggered it completes.
type SubnegHandler func(opt telnet.Option, payload []byte) []byte

// Stats mirrors teacher's network.Stats: point-in-time counters a caller
// can poll for monitoring, read without blocking the hot path.
type Stats struct {
	BytesRead      uint64
	BytesWritten   uint64
	LastReadTime   time.Time
	DroppedSignals uint64
}

// Stream is the Stream Adapter. One Stream owns exactly one Transport and
// is not safe for concurrent Read calls (§5 "a PFSM is not re-entered
// concurrently") — concurrent Write/Read is fine, matching teacher's
// separate readLoop/writeLoop goroutines.
type Stream struct {
	transport Transport
	registry  *option.Registry
	engine    *negotiate.Engine
	parser    *parser.Parser
	cfg       config.Config

	sideband chan telnet.ProcessingSignal

	handlersMu sync.RWMutex
	handlers   map[telnet.Option]SubnegHandler

	writeMu sync.Mutex // serializes frames onto the transport

	unhealthy atomic.Bool

	bytesRead      atomic.Uint64
	bytesWritten   atomic.Uint64
	lastReadTime   atomic.Int64
	droppedSignals atomic.Uint64

	scratch []byte
}

// New creates a Stream over transport using registry for option bounds and
// cfg for policy. A fresh negotiate.Engine is created per Stream, per §3
// "Option state pairs are created on first reference ... and persist for
// the PFSM's lifetime" — one Stream, one connection, one Engine.
func New(transport Transport, registry *option.Registry, cfg config.Config) *Stream {
	s := &Stream{
		transport: transport,
		registry:  registry,
		cfg:       cfg,
		sideband:  make(chan telnet.ProcessingSignal, sidebandCapacity),
		handlers:  make(map[telnet.Option]SubnegHandler),
		scratch:   make([]byte, scratchSize),
	}
	s.engine = negotiate.NewEngine(registry, negotiate.UnknownOptionHandler(cfg.UnknownOptionHandler))
	defaultMax := cfg.DefaultMaxSubnegBytes
	if defaultMax == 0 {
		defaultMax = config.DefaultMaxSubnegBytes
	}
	s.parser = parser.New(registry, s.engine, func() []byte { return []byte(cfg.AYTResponse) }, defaultMax)
	return s
}

// RegisterSubnegHandler installs handler for opt, replacing any previous
// one. Passing a nil handler removes it.
func (s *Stream) RegisterSubnegHandler(opt telnet.Option, handler SubnegHandler) {
	s.handlersMu.Lock()
	defer s.handlersMu.Unlock()
	if handler == nil {
		delete(s.handlers, opt)
		return
	}
	s.handlers[opt] = handler
}

// Signals returns the sideband channel of processing signals (§4.6
// "Sideband"). Readers who care can peek/wait on it between Read calls.
func (s *Stream) Signals() <-chan telnet.ProcessingSignal { return s.sideband }

// Healthy reports whether the stream can still be used. Once false (a
// fatal/internal error, §7 band 3), every subsequent operation fails with
// CodeInternalError and the caller must reconnect.
func (s *Stream) Healthy() bool { return !s.unhealthy.Load() }

// Stats returns a point-in-time snapshot of connection counters.
func (s *Stream) Stats() Stats {
	lastRead := time.Unix(0, s.lastReadTime.Load())
	if s.lastReadTime.Load() == 0 {
		lastRead = time.Time{}
	}
	return Stats{
		BytesRead:      s.bytesRead.Load(),
		BytesWritten:   s.bytesWritten.Load(),
		LastReadTime:   lastRead,
		DroppedSignals: s.droppedSignals.Load(),
	}
}

// CurrentState exposes the PFSM's state for tests/diagnostics (§4.3: "not
// expected to be consulted during normal operation").
func (s *Stream) CurrentState() parser.State { return s.parser.CurrentState() }

// markUnhealthy flips the stream to the terminal unhealthy state.
func (s *Stream) markUnhealthy() {
	s.unhealthy.Store(true)
}

func (s *Stream) unhealthyErr() error {
	return telnet.NewError(telnet.CodeInternalError, "stream is unhealthy; reconnect required")
}

// Read reads up to len(buf) application bytes, returning the count. It may
// complete short when a signal is encountered (§4.6 step 4) — the signal
// itself arrives on Signals(), not as a return value. Negotiation
// responses and subnegotiation-handler replies generated while processing
// this chunk are flushed to the transport before Read returns (§4.6,
// "Ordering guarantees").
func (s *Stream) Read(ctx context.Context, buf []byte) (int, error) {
	if !s.Healthy() {
		return 0, s.unhealthyErr()
	}
	if len(buf) == 0 {
		return 0, nil
	}

	readSize := len(buf)
	if readSize > len(s.scratch) {
		readSize = len(s.scratch)
	}

	n, rerr := s.transport.ReadSome(ctx, s.scratch[:readSize])
	if n > 0 {
		s.bytesRead.Add(uint64(n))
		s.lastReadTime.Store(time.Now().UnixNano())
	}
	if n == 0 {
		if rerr != nil {
			s.markUnhealthy()
			return 0, wrapInternal(rerr)
		}
		return 0, nil
	}

	var outbound [][]byte
	written := 0

	for i := 0; i < n; i++ {
		verdict, ev := s.parser.FeedByte(s.scratch[i])
		if verdict == parser.VerdictKeepData || verdict == parser.VerdictKeepEscapedIAC {
			buf[written] = s.scratch[i]
			written++
		}
		if ev == nil {
			continue
		}

		switch ev.Kind {
		case parser.EventNegotiationResponse:
			frame, _ := encode.Negotiation(ev.Response.Cmd, ev.Response.Opt)
			outbound = append(outbound, frame)

		case parser.EventAYTResponse:
			if len(ev.Payload) > 0 {
				outbound = append(outbound, encode.Data(ev.Payload))
			}

		case parser.EventSubnegComplete:
			if reply := s.dispatchSubneg(ev.Option, ev.Payload); len(reply) > 0 {
				outbound = append(outbound, reply)
			}

		case parser.EventSignal:
			if handled := s.dispatchCommand(ev.Command); handled {
				continue
			}
			s.drain(ctx, outbound)
			s.postSignal(ev.Signal)
			return written, nil

		case parser.EventWarning:
			s.cfg.LogError(ev.Err.(*telnet.Error).Code, ev.Err.Error())

		case parser.EventError:
			s.drain(ctx, outbound)
			s.cfg.LogError(ev.Err.(*telnet.Error).Code, ev.Err.Error())
			return written, ev.Err
		}
	}

	s.drain(ctx, outbound)
	if rerr != nil {
		s.markUnhealthy()
		return written, wrapInternal(rerr)
	}
	return written, nil
}

// dispatchCommand invokes a configured CommandHandler for cmd, if any, and
// reports whether one existed (in which case the signal is consumed
// locally rather than surfaced on the sideband).
func (s *Stream) dispatchCommand(cmd telnet.Command) bool {
	h, ok := s.cfg.CommandHandlers[cmd]
	if !ok || h == nil {
		return false
	}
	h(cmd)
	return true
}

// dispatchSubneg invokes the registered handler for opt, if any.
func (s *Stream) dispatchSubneg(opt telnet.Option, payload []byte) []byte {
	s.handlersMu.RLock()
	h, ok := s.handlers[opt]
	s.handlersMu.RUnlock()
	if !ok {
		return nil
	}
	return h(opt, payload)
}

// postSignal pushes sig to the sideband, dropping the oldest entry on
// overflow and counting the drop (§5 "Backpressure").
func (s *Stream) postSignal(sig telnet.ProcessingSignal) {
	for {
		select {
		case s.sideband <- sig:
			return
		default:
			select {
			case <-s.sideband:
				s.droppedSignals.Add(1)
			default:
			}
		}
	}
}

// drain flushes frames to the transport as a single concatenated write
// (§4.6 step 4/7), preserving FIFO order and never splitting a frame.
func (s *Stream) drain(ctx context.Context, frames [][]byte) {
	if len(frames) == 0 {
		return
	}
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	buf := make([]byte, 0, total)
	for _, f := range frames {
		buf = append(buf, f...)
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	n, err := s.transport.WriteAll(ctx, buf)
	if n > 0 {
		s.bytesWritten.Add(uint64(n))
	}
	if err != nil {
		s.markUnhealthy()
	}
}

// Write IAC-escapes data and writes it to the transport, returning the
// number of application bytes consumed (not the wire byte count).
func (s *Stream) Write(ctx context.Context, data []byte) (int, error) {
	if !s.Healthy() {
		return 0, s.unhealthyErr()
	}
	encoded := encode.Data(data)

	s.writeMu.Lock()
	n, err := s.transport.WriteAll(ctx, encoded)
	s.writeMu.Unlock()

	if n > 0 {
		s.bytesWritten.Add(uint64(n))
	}
	if err != nil {
		s.markUnhealthy()
		return 0, wrapInternal(err)
	}
	return len(data), nil
}

// WriteCommand writes a bare command frame (IAC cmd).
func (s *Stream) WriteCommand(ctx context.Context, cmd telnet.Command) error {
	frame, err := encode.Command(cmd)
	if err != nil {
		return err
	}
	return s.writeFrame(ctx, frame)
}

// SendSubnegotiation writes IAC SB opt <payload> IAC SE.
func (s *Stream) SendSubnegotiation(ctx context.Context, opt telnet.Option, payload []byte) error {
	return s.writeFrame(ctx, encode.Subnegotiation(opt, payload))
}

// RequestEnable asks the Q-Method engine to enable side for opt (our WILL
// or our DO, per side) and writes whatever response that produces, if any.
func (s *Stream) RequestEnable(ctx context.Context, side negotiate.Side, opt telnet.Option) error {
	resp := s.engine.AskEnable(side, opt)
	return s.sendResponse(ctx, resp, opt)
}

// RequestDisable mirrors RequestEnable for disabling an option.
func (s *Stream) RequestDisable(ctx context.Context, side negotiate.Side, opt telnet.Option) error {
	resp := s.engine.AskDisable(side, opt)
	return s.sendResponse(ctx, resp, opt)
}

func (s *Stream) sendResponse(ctx context.Context, resp *negotiate.Response, opt telnet.Option) error {
	if resp == nil {
		return nil
	}
	frame, err := encode.Negotiation(resp.Cmd, opt)
	if err != nil {
		return err
	}
	return s.writeFrame(ctx, frame)
}

func (s *Stream) writeFrame(ctx context.Context, frame []byte) error {
	if !s.Healthy() {
		return s.unhealthyErr()
	}
	s.writeMu.Lock()
	n, err := s.transport.WriteAll(ctx, frame)
	s.writeMu.Unlock()

	if n > 0 {
		s.bytesWritten.Add(uint64(n))
	}
	if err != nil {
		s.markUnhealthy()
		return wrapInternal(err)
	}
	return nil
}

func wrapInternal(err error) error {
	return telnet.WrapError(telnet.CodeInternalError, "transport failure", err)
}
