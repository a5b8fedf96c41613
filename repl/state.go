package repl

// State is the lifecycle state of the remote REPL as seen from the host.
type State int

const (
	Disconnected State = iota // initial and post-close
	Connecting                // handshake in flight
	NormalRepl                // interactive ">>> " prompt
	RawRepl                   // machine mode prompt
	SoftReboot                // firmware restarting, transient
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case NormalRepl:
		return "normalREPL"
	case RawRepl:
		return "rawREPL"
	case SoftReboot:
		return "soft reboot"
	default:
		return "unknown"
	}
}

// Interactive reports whether user input may be forwarded to the board.
func (s State) Interactive() bool {
	return s == NormalRepl || s == RawRepl
}

// EventKind identifies what a classified chunk produced.
type EventKind int

const (
	EventState EventKind = iota // state transition, status marker only
	EventText                   // pass-through REPL output
	EventShort                  // single byte chunk, likely a control byte
	EventFault                  // connect or transport failure, never produced by Machine
)

func (k EventKind) String() string {
	switch k {
	case EventState:
		return "state"
	case EventText:
		return "text"
	case EventShort:
		return "short"
	case EventFault:
		return "fault"
	default:
		return "unknown"
	}
}

// Event is one classified result of feeding a chunk to a Machine.
type Event struct {
	Kind  EventKind
	State State  // new state for EventState, current state otherwise
	Text  string // decoded text for EventText
	Raw   []byte // original byte for EventShort
	Err   error  // cause for EventFault
}
