package scripting

import (
	"os"

	"github.com/drake/gotelnet"
	"github.com/drake/gotelnet/encode"
)

// Operation is the first payload byte of a TERMINAL-TYPE/TERMINAL-SPEED
// subnegotiation (RFC 1091 §4, RFC 1079 §3): IS(0) carries a value, SEND(1)
// requests one.
type Operation byte

const (
	OperationIS   Operation = 0
	OperationSEND Operation = 1
)

// TerminalTypeHandler answers TERMINAL-TYPE SEND with the TERM environment
// variable, falling back to "unknown" (RFC 1091). Grounded on
// plyul-telnet's connection.go terminalTypeOptionHandler.
func TerminalTypeHandler() func(opt telnet.Option, payload []byte) []byte {
	return func(opt telnet.Option, payload []byte) []byte {
		if len(payload) == 0 || Operation(payload[0]) != OperationSEND {
			return nil
		}
		term := os.Getenv("TERM")
		if term == "" {
			term = "unknown"
		}
		out := append([]byte{byte(OperationIS)}, []byte(term)...)
		return encode.Subnegotiation(telnet.OptTerminalType, out)
	}
}

// TerminalSpeedHandler answers TERMINAL-SPEED SEND with a fixed
// transmit,receive baud pair (RFC 1079). Grounded on the same file's
// terminalSpeedOptionHandler; speed defaults to "38400,38400" if empty.
func TerminalSpeedHandler(speed string) func(opt telnet.Option, payload []byte) []byte {
	if speed == "" {
		speed = "38400,38400"
	}
	return func(opt telnet.Option, payload []byte) []byte {
		if len(payload) == 0 || Operation(payload[0]) != OperationSEND {
			return nil
		}
		out := append([]byte{byte(OperationIS)}, []byte(speed)...)
		return encode.Subnegotiation(telnet.OptTerminalSpeed, out)
	}
}
