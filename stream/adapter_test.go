package stream

import (
	"bytes"
	"context"
	"sync"
	"testing"

	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/config"
	"github.com/drake/gotelnet/negotiate"
	"github.com/drake/gotelnet/option"
)

// memTransport is an in-memory Transport for tests: inbound is a queue of
// chunks ReadSome hands out one at a time, outbound accumulates every
// WriteAll call in order. Modeled after teacher's network tests, which drive
// the parser off literal byte slices rather than a live socket.
type memTransport struct {
	mu       sync.Mutex
	inbound  [][]byte
	outbound []byte
	readErr  error
}

func (m *memTransport) ReadSome(ctx context.Context, buf []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.inbound) == 0 {
		if m.readErr != nil {
			return 0, m.readErr
		}
		return 0, nil
	}
	chunk := m.inbound[0]
	m.inbound = m.inbound[1:]
	n := copy(buf, chunk)
	return n, nil
}

func (m *memTransport) WriteAll(ctx context.Context, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outbound = append(m.outbound, data...)
	return len(data), nil
}

func (m *memTransport) written() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]byte, len(m.outbound))
	copy(out, m.outbound)
	return out
}

func newTestStream(inbound ...[]byte) (*Stream, *memTransport) {
	tr := &memTransport{inbound: inbound}
	reg := option.NewDefaultRegistry()
	cfg := config.DefaultConfig()
	return New(tr, reg, cfg), tr
}

func TestStreamReadPlainData(t *testing.T) {
	s, _ := newTestStream([]byte("hello"))
	buf := make([]byte, 64)
	n, err := s.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(buf[:n]) != "hello" {
		t.Fatalf("got %q", buf[:n])
	}
}

// Negotiation responses generated while processing a Read must be flushed to
// the transport before Read returns (§4.6 ordering guarantee).
func TestStreamFlushesNegotiationResponseBeforeReadReturns(t *testing.T) {
	input := []byte{byte(telnet.IAC), byte(telnet.DO), byte(telnet.OptEcho)}
	s, tr := newTestStream(input)
	buf := make([]byte, 64)

	n, err := s.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected no application bytes, got %d", n)
	}
	want := []byte{byte(telnet.IAC), byte(telnet.WILL), byte(telnet.OptEcho)}
	if !bytes.Equal(tr.written(), want) {
		t.Fatalf("outbound = %v, want %v", tr.written(), want)
	}
}

// A signal ends the current Read early; data preceding it is still
// delivered, and the signal itself arrives on Signals(), not the return.
func TestStreamSignalEndsReadEarly(t *testing.T) {
	input := append([]byte("AB"), byte(telnet.IAC), byte(telnet.GA))
	input = append(input, []byte("unread")...)
	s, _ := newTestStream(input)
	buf := make([]byte, 64)

	n, err := s.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(buf[:n]) != "AB" {
		t.Fatalf("got %q, want AB", buf[:n])
	}

	select {
	case sig := <-s.Signals():
		if sig != telnet.SignalGoAhead {
			t.Fatalf("got signal %v, want go_ahead", sig)
		}
	default:
		t.Fatalf("expected a signal on the sideband")
	}
}

// A registered subnegotiation handler's reply must be flushed before Read
// returns, just like a negotiation response.
func TestStreamSubnegHandlerReplyIsFlushed(t *testing.T) {
	naws := option.EncodeNAWS(80, 24)
	input := []byte{byte(telnet.IAC), byte(telnet.SB), byte(telnet.OptNAWS)}
	input = append(input, naws...)
	input = append(input, byte(telnet.IAC), byte(telnet.SE))

	s, tr := newTestStream(input)
	s.RegisterSubnegHandler(telnet.OptNAWS, func(opt telnet.Option, payload []byte) []byte {
		return []byte{0xAA, 0xBB}
	})

	buf := make([]byte, 64)
	if _, err := s.Read(context.Background(), buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(tr.written(), []byte{0xAA, 0xBB}) {
		t.Fatalf("outbound = %v, want [AA BB]", tr.written())
	}
}

// A CommandHandler for a bare signal command consumes it locally: no entry
// on the sideband, and the Read continues past it instead of stopping.
func TestStreamCommandHandlerConsumesSignal(t *testing.T) {
	handled := false
	input := append([]byte{byte(telnet.IAC), byte(telnet.IP)}, []byte("after")...)
	tr := &memTransport{inbound: [][]byte{input}}
	reg := option.NewDefaultRegistry()
	cfg := config.DefaultConfig()
	cfg.CommandHandlers = map[telnet.Command]config.CommandHandler{
		telnet.IP: func(cmd telnet.Command) { handled = true },
	}
	s := New(tr, reg, cfg)

	buf := make([]byte, 64)
	n, err := s.Read(context.Background(), buf)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !handled {
		t.Fatalf("expected CommandHandler invoked")
	}
	if string(buf[:n]) != "after" {
		t.Fatalf("got %q, want \"after\" to continue past the handled IP", buf[:n])
	}
	select {
	case sig := <-s.Signals():
		t.Fatalf("expected no sideband signal, got %v", sig)
	default:
	}
}

func TestStreamWriteEscapesIAC(t *testing.T) {
	s, tr := newTestStream()
	n, err := s.Write(context.Background(), []byte{0x41, byte(telnet.IAC)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected application byte count 2, got %d", n)
	}
	want := []byte{0x41, byte(telnet.IAC), byte(telnet.IAC)}
	if !bytes.Equal(tr.written(), want) {
		t.Fatalf("outbound = %v, want %v", tr.written(), want)
	}
}

func TestStreamRequestEnableWritesWill(t *testing.T) {
	s, tr := newTestStream()
	if err := s.RequestEnable(context.Background(), negotiate.SideUs, telnet.OptNAWS); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{byte(telnet.IAC), byte(telnet.WILL), byte(telnet.OptNAWS)}
	if !bytes.Equal(tr.written(), want) {
		t.Fatalf("outbound = %v, want %v", tr.written(), want)
	}
}

func TestStreamUnhealthyAfterTransportError(t *testing.T) {
	tr := &memTransport{readErr: errBoom}
	reg := option.NewDefaultRegistry()
	s := New(tr, reg, config.DefaultConfig())

	buf := make([]byte, 16)
	_, err := s.Read(context.Background(), buf)
	if err == nil {
		t.Fatalf("expected transport error to surface")
	}
	if s.Healthy() {
		t.Fatalf("expected stream marked unhealthy")
	}

	_, err = s.Read(context.Background(), buf)
	terr, ok := err.(*telnet.Error)
	if !ok || terr.Code != telnet.CodeInternalError {
		t.Fatalf("expected internal_error on unhealthy stream, got %v", err)
	}
}

var errBoom = boomError{}

type boomError struct{}

func (boomError) Error() string { return "boom" }
