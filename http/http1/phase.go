package http1

// Phase is a step of reading or writing a single message. Phases are strictly ordered
// and a phase advances only once its step is Done.
type Phase uint8

const (
	// Before runs the hook preceding the message.
	Before Phase = iota
	// Headers covers the start line and the header block.
	Headers
	// Between determines the body framing.
	Between
	Body
	// After decides on keep-alive and runs the hook following the message.
	After
	// End is the idle phase. Nothing happens until the phase is restarted.
	End
)

func (p Phase) String() string {
	switch p {
	case Before:
		return "before"
	case Headers:
		return "headers"
	case Between:
		return "between"
	case Body:
		return "body"
	case After:
		return "after"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Outcome is the result of a single step.
type Outcome uint8

const (
	// Done advances to the next phase.
	Done Outcome = iota
	// Pending suspends the phase until more bytes, more space or an explicit resume.
	Pending
	// Failed aborts the exchange and closes the connection.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Done:
		return "done"
	case Pending:
		return "pending"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}
