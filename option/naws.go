package option

import (
	"encoding/binary"

	"github.com/drake/gotelnet"
)

// EncodeNAWS builds the 4-byte NAWS subnegotiation payload for a given
// terminal width/height (RFC 1073). The caller still escapes IAC via the
// outbound encoder; this only produces the raw payload.
func EncodeNAWS(width, height uint16) []byte {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], width)
	binary.BigEndian.PutUint16(payload[2:4], height)
	return payload
}

// DecodeNAWS parses an inbound NAWS subnegotiation payload. Teacher
// (network/client.go) only ever sends NAWS locally and never decodes an
// inbound one; this fills that gap for a server-side or proxying consumer.
func DecodeNAWS(payload []byte) (width, height uint16, err error) {
	if len(payload) != 4 {
		return 0, 0, telnet.NewError(telnet.CodeInvalidSubnegotiation, "NAWS payload must be exactly 4 bytes")
	}
	return binary.BigEndian.Uint16(payload[0:2]), binary.BigEndian.Uint16(payload[2:4]), nil
}
