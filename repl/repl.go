package repl

const (
	// Control bytes understood by the MicroPython REPL
	CtrlA = "\x01" // enter raw REPL
	CtrlB = "\x02" // exit raw REPL, back to the normal REPL
	CtrlC = "\x03" // interrupt
	CtrlD = "\x04" // soft reboot / exit paste mode
	CtrlE = "\x05" // enter paste mode
	CtrlF = "\x06" // safe boot, unreliable on most ports

	// Terminal Control
	CR                 = "\r"
	CRLF               = "\r\n"
	Prompt             = ">>> "
	ContinuationPrompt = "... "
	// RawPrompt is answered with RawAck once the raw REPL accepted input
	RawPrompt = ">"
	RawAck    = "OK"

	// Banner anchors
	VersionMarker = "MicroPython v"
	NormalBanner  = "RP2040\r\nType \"help()\" for more information."
	RawBanner     = "raw REPL; CTRL-B to exit"
	RebootBanner  = "soft reboot"
)

const (
	// SoftResetStatement resets the interpreter through the machine API
	// without restarting the board.
	SoftResetStatement = "import machine;machine.soft_reset()"

	// HardResetStatement restarts the board. The host side transport goes
	// away and the device re-enumerates.
	HardResetStatement = "import machine;machine.reset()"

	// SoftRebootSequence makes the firmware print its soft reboot banner
	// without a hardware reset.
	SoftRebootSequence = CR + CtrlD

	// HardRebootSequence asks for a safe boot.
	//
	// Deprecated: most firmware builds ignore CTRL-F on the REPL.
	HardRebootSequence = CR + CtrlF

	// PrimeSequence interrupts any running program twice and forces the
	// normal REPL.
	PrimeSequence = CR + CtrlC + CtrlC + CtrlB

	// NudgeSequence asks the REPL to print a fresh prompt.
	NudgeSequence = CRLF
)
