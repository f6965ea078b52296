package telnet

// ProcessingSignal is a non-error inbound event that may cause a Stream
// read to complete early. Distinct category from Error (§6, §7).
type ProcessingSignal int

const (
	SignalEndOfLine ProcessingSignal = iota
	SignalCarriageReturn
	SignalEndOfRecord
	SignalGoAhead
	SignalEraseCharacter
	SignalEraseLine
	SignalAbortOutput
	SignalInterruptProcess
	SignalTelnetBreak
	SignalDataMark
)

func (s ProcessingSignal) String() string {
	switch s {
	case SignalEndOfLine:
		return "end_of_line"
	case SignalCarriageReturn:
		return "carriage_return"
	case SignalEndOfRecord:
		return "end_of_record"
	case SignalGoAhead:
		return "go_ahead"
	case SignalEraseCharacter:
		return "erase_character"
	case SignalEraseLine:
		return "erase_line"
	case SignalAbortOutput:
		return "abort_output"
	case SignalInterruptProcess:
		return "interrupt_process"
	case SignalTelnetBreak:
		return "telnet_break"
	case SignalDataMark:
		return "data_mark"
	default:
		return "unknown_signal"
	}
}

// SignalForCommand maps a bare IAC command byte to its processing signal.
// AYT is handled separately (it triggers an auto-response, not a signal).
func SignalForCommand(c Command) (ProcessingSignal, bool) {
	switch c {
	case GA:
		return SignalGoAhead, true
	case EOR:
		return SignalEndOfRecord, true
	case EC:
		return SignalEraseCharacter, true
	case EL:
		return SignalEraseLine, true
	case AO:
		return SignalAbortOutput, true
	case IP:
		return SignalInterruptProcess, true
	case BRK:
		return SignalTelnetBreak, true
	case DM:
		return SignalDataMark, true
	default:
		return 0, false
	}
}
