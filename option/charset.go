package option

import (
	"bytes"

	"golang.org/x/text/encoding/ianaindex"

	"github.com/drake/gotelnet"
)

// CharsetOp is the first payload byte of a CHARSET subnegotiation (RFC 2066
// §3).
type CharsetOp byte

const (
	CharsetRequest      CharsetOp = 1
	CharsetAccepted     CharsetOp = 2
	CharsetRejected     CharsetOp = 3
	CharsetTTableIs     CharsetOp = 4
	CharsetTTableReject CharsetOp = 5
	CharsetTTableAck    CharsetOp = 6
	CharsetTTableNak    CharsetOp = 7
)

// ValidCharset reports whether name is a charset IANA recognizes, using
// golang.org/x/text's registry rather than hand-rolling an allow-list — the
// same validation a correct CHARSET REQUEST responder needs before picking
// one of the peer's offered names (RFC 2066 §4).
func ValidCharset(name string) bool {
	_, err := ianaindex.IANA.Encoding(name)
	return err == nil
}

// DecodeCharsetRequest parses a CHARSET REQUEST payload: a one-byte
// delimiter followed by delimiter-separated candidate charset names (RFC
// 2066 §4, "[ttable]" TTABLE prefix not implemented — see DESIGN.md).
func DecodeCharsetRequest(payload []byte) ([]string, error) {
	if len(payload) < 2 || CharsetOp(payload[0]) != CharsetRequest {
		return nil, telnet.NewError(telnet.CodeInvalidSubnegotiation, "not a CHARSET REQUEST payload")
	}
	delim := payload[1]
	parts := bytes.Split(payload[2:], []byte{delim})
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		if len(p) > 0 {
			names = append(names, string(p))
		}
	}
	if len(names) == 0 {
		return nil, telnet.NewError(telnet.CodeInvalidSubnegotiation, "CHARSET REQUEST named no charsets")
	}
	return names, nil
}

// EncodeCharsetAccepted builds a CHARSET ACCEPTED reply naming the chosen
// charset.
func EncodeCharsetAccepted(name string) []byte {
	return append([]byte{byte(CharsetAccepted)}, []byte(name)...)
}

// EncodeCharsetRejected builds a CHARSET REJECTED reply (none of the
// offered names were acceptable).
func EncodeCharsetRejected() []byte {
	return []byte{byte(CharsetRejected)}
}

// ChooseCharset picks the first candidate ValidCharset accepts, in the
// order offered (RFC 2066 doesn't mandate a preference order beyond that).
func ChooseCharset(candidates []string) (string, bool) {
	for _, c := range candidates {
		if ValidCharset(c) {
			return c, true
		}
	}
	return "", false
}
