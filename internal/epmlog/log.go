// Package epmlog wraps the two stdout/stderr loggers every epm command
// needs, plus Verbose-gated tracing. There is no logger global: every
// command receives a *Logger constructed once in cmd/epm/main.go and
// carried through epmctx.Context.
package epmlog

import (
	"fmt"
	"io"
	"log"
)

// Logger pairs an Out and Err *log.Logger with a Verbose switch.
type Logger struct {
	Out     *log.Logger
	Err     *log.Logger
	Verbose bool
}

// New constructs a Logger writing to out/errw with no prefix or
// timestamp, since a CLI tool's own output should not be timestamped.
func New(out, errw io.Writer, verbose bool) *Logger {
	return &Logger{
		Out:     log.New(out, "", 0),
		Err:     log.New(errw, "", 0),
		Verbose: verbose,
	}
}

// Printf writes a line to Out.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.Out.Printf(format, args...)
}

// Errorf writes a line to Err, prefixed with the command name.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Err.Printf("epm: "+format, args...)
}

// Vlogf writes a trace line to Err only when Verbose is set, used for
// install's promotion and already-direct notes and remove's orphan reports.
func (l *Logger) Vlogf(format string, args ...interface{}) {
	if !l.Verbose {
		return
	}
	l.Err.Printf("trace: "+format, args...)
}

// Cause renders err's full causal chain ("%+v") when Verbose is set, or
// just its flat message otherwise.
func (l *Logger) Cause(err error) string {
	if l.Verbose {
		return fmt.Sprintf("%+v", err)
	}
	return err.Error()
}
