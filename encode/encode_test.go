package encode

import (
	"bytes"
	"testing"

	"github.com/drake/gotelnet"
)

func TestDataEscapesIAC(t *testing.T) {
	got := Data([]byte{0x41, byte(telnet.IAC), 0x42})
	want := []byte{0x41, byte(telnet.IAC), byte(telnet.IAC), 0x42}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDataNoIACIsUnchanged(t *testing.T) {
	in := []byte("hello world")
	got := Data(in)
	if !bytes.Equal(got, in) {
		t.Fatalf("got %v, want %v", got, in)
	}
}

func TestCommandEncodesBareFrame(t *testing.T) {
	got, err := Command(telnet.AYT)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{byte(telnet.IAC), byte(telnet.AYT)}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestCommandRejectsReservedBytes(t *testing.T) {
	for _, cmd := range []telnet.Command{telnet.WILL, telnet.WONT, telnet.DO, telnet.DONT, telnet.SB, telnet.SE, telnet.IAC} {
		if _, err := Command(cmd); err == nil {
			t.Fatalf("expected error encoding reserved command %v", cmd)
		}
	}
}

func TestNegotiationEncodesTriple(t *testing.T) {
	got, err := Negotiation(telnet.DO, telnet.OptEcho)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []byte{byte(telnet.IAC), byte(telnet.DO), byte(telnet.OptEcho)}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestNegotiationRejectsNonNegotiationCommand(t *testing.T) {
	if _, err := Negotiation(telnet.AYT, telnet.OptEcho); err == nil {
		t.Fatalf("expected error for non-negotiation command")
	}
}

func TestSubnegotiationFramesAndEscapesPayload(t *testing.T) {
	got := Subnegotiation(telnet.OptNAWS, []byte{0x00, byte(telnet.IAC), 0x18})
	want := []byte{
		byte(telnet.IAC), byte(telnet.SB), byte(telnet.OptNAWS),
		0x00, byte(telnet.IAC), byte(telnet.IAC), 0x18,
		byte(telnet.IAC), byte(telnet.SE),
	}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestSubnegotiationEmptyPayload(t *testing.T) {
	got := Subnegotiation(telnet.OptTerminalType, nil)
	want := []byte{byte(telnet.IAC), byte(telnet.SB), byte(telnet.OptTerminalType), byte(telnet.IAC), byte(telnet.SE)}
	if !bytes.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}
