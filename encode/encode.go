// Package encode implements the Outbound Encoder (C5): pure, allocating
// functions that turn application data and protocol commands into the
// exact wire bytes §6 specifies. None of these touch a transport; see
// stream.Stream for the piece that writes their output to a connection.
package encode

import "github.com/drake/gotelnet"

// Data IAC-escapes application bytes for transmission: every 0xFF becomes
// 0xFF 0xFF (§6 wire format, P1/P3). Capacity is reserved at roughly 1.1x
// the input to amortize growth without assuming a specific IAC density.
func Data(data []byte) []byte {
	out := make([]byte, 0, len(data)+len(data)/10+1)
	for _, b := range data {
		out = append(out, b)
		if b == byte(telnet.IAC) {
			out = append(out, byte(telnet.IAC))
		}
	}
	return out
}

// reservedCommands may never be passed to Command: each has its own
// dedicated encoder because it carries more than a bare command byte.
var reservedCommands = map[telnet.Command]bool{
	telnet.WILL: true, telnet.WONT: true, telnet.DO: true, telnet.DONT: true,
	telnet.SB: true, telnet.SE: true, telnet.IAC: true,
}

// Command encodes a bare command frame: IAC cmd. cmd must not be one of
// WILL/WONT/DO/DONT/SB/SE/IAC — use Negotiation or Subnegotiation instead.
func Command(cmd telnet.Command) ([]byte, error) {
	if reservedCommands[cmd] {
		return nil, telnet.NewError(telnet.CodeInvalidCommand, "use Negotiation/Subnegotiation to encode "+cmd.String())
	}
	return []byte{byte(telnet.IAC), byte(cmd)}, nil
}

// Negotiation encodes a negotiation triple: IAC cmd opt. cmd must be one of
// WILL/WONT/DO/DONT.
func Negotiation(cmd telnet.Command, opt telnet.Option) ([]byte, error) {
	if !cmd.IsNegotiation() {
		return nil, telnet.NewError(telnet.CodeInvalidNegotiation, "command is not WILL/WONT/DO/DONT: "+cmd.String())
	}
	return []byte{byte(telnet.IAC), byte(cmd), byte(opt)}, nil
}

// Subnegotiation encodes IAC SB opt <escaped payload> IAC SE.
func Subnegotiation(opt telnet.Option, payload []byte) []byte {
	escaped := Data(payload)
	out := make([]byte, 0, 3+len(escaped)+2)
	out = append(out, byte(telnet.IAC), byte(telnet.SB), byte(opt))
	out = append(out, escaped...)
	out = append(out, byte(telnet.IAC), byte(telnet.SE))
	return out
}
