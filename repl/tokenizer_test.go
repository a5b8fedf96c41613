package repl_test

import (
	"bufio"
	"errors"
	"strings"
	"testing"

	"i4.energy/across/picorepl/repl"
)

func TestSplitter(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "Expression and result",
			input:    "1+1\r\n2\r\n",
			expected: []string{"1+1", "2"},
		},
		{
			name:     "Prompt without line ending",
			input:    ">>> ",
			expected: []string{">>> "},
		},
		{
			name:     "Prompt followed by echoed input",
			input:    ">>> print('hi')\r\nhi\r\n>>> ",
			expected: []string{">>> ", "print('hi')", "hi", ">>> "},
		},
		{
			name:     "Startup banner",
			input:    "MicroPython v1.2 on 2024-01-01; RP2040\r\nType \"help()\" for more information.\r\n>>> ",
			expected: []string{"MicroPython v1.2 on 2024-01-01; RP2040", "Type \"help()\" for more information.", ">>> "},
		},
		{
			name:     "Traceback",
			input:    "Traceback (most recent call last):\r\n  File \"<stdin>\", line 1, in <module>\r\nNameError: name 'x' isn't defined\r\n",
			expected: []string{"Traceback (most recent call last):", "  File \"<stdin>\", line 1, in <module>", "NameError: name 'x' isn't defined"},
		},
		{
			name:     "Empty lines handling",
			input:    "\r\n\r\nok\r\n",
			expected: []string{"", "", "ok"},
		},
		{
			name:     "Raw REPL banner",
			input:    "raw REPL; CTRL-B to exit\r\n>",
			expected: []string{"raw REPL; CTRL-B to exit", ">"},
		},
		{
			name:     "Continuation prompt",
			input:    "for i in range(2):\r\n...     print(i)\r\n... \r\n0\r\n1\r\n>>> ",
			expected: []string{"for i in range(2):", "... ", "    print(i)", "... ", "", "0", "1", ">>> "},
		},
		{
			name:     "Raw REPL prompt before acknowledgement",
			input:    "raw REPL; CTRL-B to exit\r\n>OK1\r\n\x04\x04>",
			expected: []string{"raw REPL; CTRL-B to exit", ">", "OK1", "\x04\x04>"},
		},
		{
			name:     "Output starting with a bracket is not a prompt",
			input:    ">x\r\n",
			expected: []string{">x"},
		},
		{
			name:     "Line at the length limit",
			input:    strings.Repeat("x", repl.MaxLineLength) + "\r\n",
			expected: []string{strings.Repeat("x", repl.MaxLineLength)},
		},
		// EOF scenarios - testing atEOF functionality
		{
			name:     "Incomplete line at EOF",
			input:    "1+1\r\n2",
			expected: []string{"1+1", "2"},
		},
		{
			name:     "Partial prompt at EOF",
			input:    "2\r\n>>",
			expected: []string{"2", ">>"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var tokens []string
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(repl.Splitter)

			for scanner.Scan() {
				tokens = append(tokens, scanner.Text())
			}

			if err := scanner.Err(); err != nil {
				t.Fatalf("Scanner error: %v", err)
			}

			if len(tokens) != len(tt.expected) {
				t.Fatalf("Expected %d tokens, got %d.\nExpected: %v\nGot: %v",
					len(tt.expected), len(tokens), tt.expected, tokens)
			}

			for i, expected := range tt.expected {
				if tokens[i] != expected {
					t.Errorf("Token %d: expected %q, got %q", i, expected, tokens[i])
				}
			}
		})
	}
}

func TestSplitterPartialPrompt(t *testing.T) {
	for _, data := range []string{">", ">>", ">>>", ".", "..", "..."} {
		t.Run(data, func(t *testing.T) {
			advance, token, err := repl.Splitter([]byte(data), false)
			if advance != 0 || token != nil || err != nil {
				t.Errorf("expected to wait for more data, got advance=%d token=%q err=%v", advance, token, err)
			}
		})
	}
}

func TestSplitterLineTooLong(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{
			name:  "Output without line ending",
			input: strings.Repeat("x", repl.MaxLineLength+1),
		},
		{
			name:  "Line ending beyond the limit",
			input: strings.Repeat("x", repl.MaxLineLength+1) + "\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			scanner.Split(repl.Splitter)
			for scanner.Scan() {
			}

			if !errors.Is(scanner.Err(), repl.ErrLineTooLong) {
				t.Errorf("expected ErrLineTooLong, got %v", scanner.Err())
			}
		})
	}
}

func TestStateInteractive(t *testing.T) {
	tests := []struct {
		state    repl.State
		expected bool
	}{
		{repl.Disconnected, false},
		{repl.Connecting, false},
		{repl.NormalRepl, true},
		{repl.RawRepl, true},
		{repl.SoftReboot, false},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			if got := tt.state.Interactive(); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}
