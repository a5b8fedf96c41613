package repl

import "strings"

// maxPending bounds the text held back while waiting for the startup banner.
const maxPending = 4096

// Banners holds the fixed substrings used to recognize REPL mode changes.
// They depend on the exact firmware build, so they are kept swappable.
type Banners struct {
	// Version marks the start of the startup message, e.g. "MicroPython v".
	Version string
	// Normal is contained in the startup message of the normal REPL.
	Normal string
	// Raw prefixes the raw REPL entry message.
	Raw string
	// Reboot prefixes the soft reboot message.
	Reboot string
}

// DefaultBanners returns the banners printed by MicroPython on RP2040 boards.
func DefaultBanners() Banners {
	return Banners{
		Version: VersionMarker,
		Normal:  NormalBanner,
		Raw:     RawBanner,
		Reboot:  RebootBanner,
	}
}

// Machine classifies inbound chunks into REPL state transitions and
// pass-through text. It is not safe for concurrent use.
type Machine struct {
	banners Banners
	// primed is set when the prime sequence was sent on connect, in which
	// case everything before the startup banner is noise.
	primed  bool
	state   State
	pending strings.Builder
}

// NewMachine creates a Machine in the Disconnected state.
func NewMachine(primed bool, banners Banners) *Machine {
	return &Machine{
		banners: banners,
		primed:  primed,
		state:   Disconnected,
	}
}

// State returns the current state.
func (m *Machine) State() State {
	return m.state
}

// Reset forces the machine into state and discards any held back text. It
// is used for transitions driven by the host (connect, disconnect) rather
// than by inbound data.
func (m *Machine) Reset(state State) {
	m.state = state
	m.pending.Reset()
}

// Feed consumes one chunk of inbound bytes. Chunk boundaries carry no
// meaning. It returns zero or one state event followed by at most one text
// event.
func (m *Machine) Feed(chunk []byte) []Event {
	if len(chunk) == 0 {
		return nil
	}

	// A lone byte is almost always a control byte or EOF marker
	if len(chunk) == 1 {
		return []Event{{Kind: EventShort, State: m.state, Raw: []byte{chunk[0]}}}
	}

	text := strings.ToValidUTF8(string(chunk), "\uFFFD")

	if m.state == Connecting {
		return m.connecting(text)
	}

	switch {
	case strings.HasPrefix(text, m.banners.Raw):
		return m.enter(RawRepl)
	case strings.Contains(text, m.banners.Normal):
		return m.enter(NormalRepl)
	case strings.HasPrefix(text, m.banners.Reboot):
		return m.enter(SoftReboot)
	default:
		return []Event{{Kind: EventText, State: m.state, Text: text}}
	}
}

// enter switches to state. A banner for the state we are already in is
// swallowed without an event.
func (m *Machine) enter(state State) []Event {
	if m.state == state {
		return nil
	}
	m.state = state
	return []Event{{Kind: EventState, State: state}}
}

func (m *Machine) connecting(text string) []Event {
	if m.primed {
		m.pending.WriteString(text)
		buffered := m.pending.String()
		if !strings.Contains(buffered, m.banners.Normal) {
			if len(buffered) > maxPending {
				m.pending.Reset()
				m.pending.WriteString(buffered[len(buffered)-maxPending:])
			}
			return nil
		}
		m.pending.Reset()
		text = buffered
	}

	m.state = NormalRepl
	events := []Event{{Kind: EventState, State: NormalRepl}}
	if startup := m.trimToVersion(text); startup != "" {
		events = append(events, Event{Kind: EventText, State: NormalRepl, Text: startup})
	}
	return events
}

// trimToVersion drops the prompt noise in front of the startup message.
func (m *Machine) trimToVersion(text string) string {
	if i := strings.Index(text, m.banners.Version); i >= 0 {
		return text[i:]
	}
	return text
}
