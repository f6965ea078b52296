package scripting

import (
	"bytes"
	"os"
	"testing"

	"github.com/drake/gotelnet"
)

func TestTerminalTypeHandlerRespondsToSend(t *testing.T) {
	os.Setenv("TERM", "xterm-256color")
	h := TerminalTypeHandler()
	got := h(telnet.OptTerminalType, []byte{byte(OperationSEND)})

	want := append([]byte{byte(telnet.IAC), byte(telnet.SB), byte(telnet.OptTerminalType), byte(OperationIS)}, []byte("xterm-256color")...)
	want = append(want, byte(telnet.IAC), byte(telnet.SE))
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestTerminalTypeHandlerIgnoresIS(t *testing.T) {
	h := TerminalTypeHandler()
	if got := h(telnet.OptTerminalType, []byte{byte(OperationIS)}); got != nil {
		t.Fatalf("expected no reply to IS, got %v", got)
	}
}

func TestTerminalSpeedHandlerDefaultsWhenEmpty(t *testing.T) {
	h := TerminalSpeedHandler("")
	got := h(telnet.OptTerminalSpeed, []byte{byte(OperationSEND)})
	if !bytes.Contains(got, []byte("38400,38400")) {
		t.Fatalf("expected default speed in reply, got %v", got)
	}
}

func TestTerminalSpeedHandlerIgnoresEmptyPayload(t *testing.T) {
	h := TerminalSpeedHandler("9600,9600")
	if got := h(telnet.OptTerminalSpeed, nil); got != nil {
		t.Fatalf("expected no reply to empty payload, got %v", got)
	}
}
