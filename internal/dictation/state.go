package dictation

// State - состояние конечного автомата диктовки.
type State int

const (
	Initializing State = iota
	Idle
	Recording
	Processing
	Done
	Error
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Processing:
		return "processing"
	case Done:
		return "done"
	case Error:
		return "error"
	}
	return "unknown"
}

// Status - снимок состояния для наблюдателей.
type Status struct {
	State State
	// Message - причина ошибки для State == Error.
	Message string
	// Text - напечатанный текст для State == Done.
	Text      string
	SessionID uint64
}
