package repl

import "errors"

// ErrLineTooLong is returned by Splitter when a line of REPL output
// exceeds MaxLineLength without a line ending.
var ErrLineTooLong = errors.New("repl output line too long")
