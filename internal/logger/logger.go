package logger

import (
	"github.com/fatih/color"
)

// Leveled Printf-style logging backed by fatih/color. Color is dropped
// automatically when output is not a terminal.

// Info logs informational and progress messages in green.
var Info = color.New(color.FgGreen).PrintfFunc()

// Warn logs warnings (skipped checks, degraded behavior) in bright magenta.
var Warn = color.New(color.FgHiMagenta).PrintfFunc()

// Error logs error messages in red.
var Error = color.New(color.FgRed).PrintfFunc()

// Debug logs debug messages in cyan when enabled via Init, otherwise no-op.
var Debug = func(format string, a ...any) {}

// Init enables or disables debug logging. The CLI calls this from the root
// command's PersistentPreRun before any subcommand runs.
func Init(enableDebug bool) {
	if enableDebug {
		Debug = color.New(color.FgCyan).PrintfFunc()
	} else {
		Debug = func(format string, a ...any) {}
	}
}
