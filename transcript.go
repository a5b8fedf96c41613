package main

import (
	"errors"
	"slices"
	"sync"

	"i4.energy/across/picorepl/repl"
)

const defaultTranscriptLines = 500

// Transcript keeps the most recent lines of REPL output.
type Transcript struct {
	mu      sync.Mutex
	pending []byte
	lines   []string
	max     int
}

func NewTranscript(max int) *Transcript {
	if max <= 0 {
		max = defaultTranscriptLines
	}
	return &Transcript{max: max}
}

// Write appends REPL output. Complete lines and prompts become available
// through Lines; a trailing partial line is held back. Output that runs
// past repl.MaxLineLength without a line ending is stored in pieces of that
// length.
func (t *Transcript) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.pending = append(t.pending, p...)
	for {
		advance, token, err := repl.Splitter(t.pending, false)
		if errors.Is(err, repl.ErrLineTooLong) {
			advance, token = repl.MaxLineLength, t.pending[:repl.MaxLineLength]
		} else if err != nil || advance == 0 {
			break
		}
		t.lines = append(t.lines, string(token))
		t.pending = t.pending[advance:]
	}
	if over := len(t.lines) - t.max; over > 0 {
		t.lines = slices.Delete(t.lines, 0, over)
	}
	return len(p), nil
}

// Lines returns the stored lines, oldest first.
func (t *Transcript) Lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.lines)
}
