package repl

import (
	"bufio"
	"bytes"
)

// MaxLineLength bounds a single token produced by Splitter.
const MaxLineLength = 4096

var prompts = [][]byte{[]byte(Prompt), []byte(ContinuationPrompt)}

// Splitter tokenizes REPL output into lines. It uses the signature of
// bufio.SplitFunc so it can be directly used with bufio.Scanner.
//
// Lines end with CRLF. The normal and continuation prompts (">>> ", "... ")
// and the raw REPL prompt in front of its "OK" are printed without a line
// ending and come out as tokens of their own. A line longer than
// MaxLineLength fails with ErrLineTooLong.
func Splitter(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	for _, prompt := range prompts {
		if bytes.HasPrefix(data, prompt) {
			return len(prompt), data[:len(prompt)], nil
		}
		// The rest of the prompt may still be on its way
		if !atEOF && len(data) < len(prompt) && bytes.HasPrefix(prompt, data) {
			return 0, nil, nil
		}
	}

	if bytes.HasPrefix(data, []byte(RawPrompt+RawAck)) {
		return len(RawPrompt), data[:len(RawPrompt)], nil
	}

	if i := bytes.Index(data, []byte(CRLF)); i >= 0 {
		if i > MaxLineLength {
			return 0, nil, ErrLineTooLong
		}
		return i + len(CRLF), data[:i], nil
	}

	if len(data) > MaxLineLength {
		return 0, nil, ErrLineTooLong
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

var _ bufio.SplitFunc = Splitter
