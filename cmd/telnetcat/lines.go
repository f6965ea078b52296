package main

import "bytes"

// promptMode selects how outputBuffer decides a prompt (an unterminated
// trailing line) should be flushed for display. Adapted from teacher's
// network/telnet.go OutputBuffer/TelnetMode; the mode changes only through
// setMode, and nothing here reacts to processing signals.
type promptMode int

const (
	promptModeUnterminated promptMode = iota // split on \n only; no GA/EOR seen yet
	promptModeTerminated                     // peer sends GA/EOR to mark prompt boundaries
)

// outputBuffer accumulates inbound application bytes and splits them into
// complete lines, holding back a trailing partial line as the "prompt"
// until a newline completes it, prompt(true) consumes it, or (in
// unterminated mode) inputSent discards it.
type outputBuffer struct {
	buf     bytes.Buffer
	mode    promptMode
	dirty   bool // received bytes since the last prompt flush
}

func newOutputBuffer() *outputBuffer {
	return &outputBuffer{}
}

func (o *outputBuffer) setMode(m promptMode) { o.mode = m }

// receive appends data and returns any newly completed lines.
func (o *outputBuffer) receive(data []byte) []string {
	o.buf.Write(data)
	o.dirty = true

	buf := o.buf.Bytes()
	var lines []string
	last := 0
	for i := 0; i < len(buf); i++ {
		if buf[i] == '\n' {
			end := i
			if end > last && buf[end-1] == '\r' {
				end--
			}
			lines = append(lines, string(buf[last:end]))
			last = i + 1
		}
	}
	if last > 0 {
		remaining := append([]byte(nil), buf[last:]...)
		o.buf.Reset()
		o.buf.Write(remaining)
	}
	return lines
}

// prompt returns the pending partial line, clearing it if consume is true.
func (o *outputBuffer) prompt(consume bool) string {
	if o.buf.Len() == 0 {
		return ""
	}
	text := o.buf.String()
	if consume {
		o.buf.Reset()
		o.dirty = false
	}
	return text
}

func (o *outputBuffer) hasNewData() bool { return o.dirty }

// inputSent clears any pending prompt in unterminated mode: the server will
// re-echo and re-print its own prompt after our input lands.
func (o *outputBuffer) inputSent() {
	if o.mode == promptModeUnterminated {
		o.buf.Reset()
		o.dirty = false
	}
}
