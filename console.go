package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"i4.energy/across/picorepl/repl"
	"i4.energy/across/picorepl/session"
)

// Catppuccin Mocha subset
var (
	surface1 = lipgloss.Color("#45475a")
	overlay1 = lipgloss.Color("#7f849c")
	green    = lipgloss.Color("#a6e3a1")
	yellow   = lipgloss.Color("#f9e2af")
	peach    = lipgloss.Color("#fab387")
	red      = lipgloss.Color("#f38ba8")
	mauve    = lipgloss.Color("#cba6f7")
)

var (
	statusStyle = lipgloss.NewStyle().Bold(true)
	shortStyle  = lipgloss.NewStyle().Foreground(overlay1)
	faultStyle  = lipgloss.NewStyle().Foreground(red).Bold(true)
)

func stateStyle(state repl.State) lipgloss.Style {
	switch state {
	case repl.NormalRepl:
		return statusStyle.Foreground(green)
	case repl.RawRepl:
		return statusStyle.Foreground(peach)
	case repl.Connecting, repl.SoftReboot:
		return statusStyle.Foreground(yellow)
	default:
		return statusStyle.Foreground(red)
	}
}

// renderEvent writes one session event. REPL output is passed through
// untouched; everything else is a styled status line.
func renderEvent(w io.Writer, e repl.Event) {
	switch e.Kind {
	case repl.EventText:
		io.WriteString(w, e.Text)
	case repl.EventState:
		fmt.Fprintln(w, stateStyle(e.State).Render("=== STATUS: "+e.State.String()+" ==="))
	case repl.EventShort:
		fmt.Fprintln(w, shortStyle.Render(fmt.Sprintf("=== SHORT MESSAGE: %q ===", e.Raw)))
	case repl.EventFault:
		fmt.Fprintln(w, faultStyle.Render(fmt.Sprintf("=== ERROR: %v ===", e.Err)))
	}
}

// lineReader is the part of readline the console uses
type lineReader interface {
	Readline() (string, error)
	Close() error
}

// lineHandler receives console input
type lineHandler interface {
	HandleLine(ctx context.Context, line string) error
	Send(ctx context.Context, data []byte) error
}

// Console is the interactive terminal: board output above, line input
// below.
type Console struct {
	in  lineReader
	out io.Writer
	err io.Writer
}

func NewConsole() (*Console, error) {
	rl, err := readline.NewEx(&readline.Config{
		InterruptPrompt: "^C",
		EOFPrompt:       session.CmdExit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}
	return &Console{in: rl, out: rl.Stdout(), err: rl.Stderr()}, nil
}

// Stderr returns a writer that coordinates with the input line. Use it
// for log output.
func (c *Console) Stderr() io.Writer {
	return c.err
}

func (c *Console) Close() error {
	return c.in.Close()
}

// Render prints events until done is closed and the remaining events are
// drained.
func (c *Console) Render(events <-chan repl.Event, done <-chan struct{}) {
	for {
		select {
		case e := <-events:
			renderEvent(c.out, e)
		case <-done:
			for {
				select {
				case e := <-events:
					renderEvent(c.out, e)
				default:
					return
				}
			}
		}
	}
}

// Run forwards input lines to h until ctx is done. CTRL-C is sent to the
// board as an interrupt, end of input leaves like the exit command.
func (c *Console) Run(ctx context.Context, h lineHandler) error {
	stop := context.AfterFunc(ctx, func() {
		c.in.Close()
	})
	defer stop()

	for {
		line, err := c.in.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if err := h.Send(ctx, []byte(repl.CtrlC)); err != nil {
				return err
			}
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return h.HandleLine(ctx, session.CmdExit)
		}
		if err := h.HandleLine(ctx, line); err != nil {
			return err
		}
	}
}
