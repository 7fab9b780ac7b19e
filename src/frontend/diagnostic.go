// diagnostic.go implements the diagnostic record and formatting described
// in the language reference: "<file>:<line>:<column>: <severity>: <message>"
// printed to stderr. Errors are fatal and are returned up the call stack as
// plain errors; warnings are printed immediately and parsing continues.

package frontend

import (
	"fmt"
	"os"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// severity classifies a Diagnostic as recoverable or fatal.
type severity int

// diagnosticError wraps a Diagnostic so it can be returned as a Go error
// and still carry file/line/column for the driver to report.
type diagnosticError struct {
	d Diagnostic
}

// Diagnostic is a single compiler message: a source position, a severity
// and a human readable message.
type Diagnostic struct {
	File    string
	Line    int
	Column  int
	Sev     severity
	Message string
}

// ---------------------
// ----- Constants -----
// ---------------------

const (
	// SevWarning marks a Diagnostic that does not stop compilation.
	SevWarning severity = iota
	// SevError marks a Diagnostic that is immediately fatal.
	SevError
)

// ---------------------
// ----- functions -----
// ---------------------

// String formats the Diagnostic as "<file>:<line>:<column>: <severity>: <message>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s: %s", d.File, d.Line, d.Column, d.sevString(), d.Message)
}

// sevString returns the textual severity tag used in diagnostic output.
func (d Diagnostic) sevString() string {
	if d.Sev == SevError {
		return "error"
	}
	return "warning"
}

// Error implements the error interface so a Diagnostic of severity SevError
// can be returned and propagated like any other error.
func (e diagnosticError) Error() string {
	return e.d.String()
}

// errorf builds a SevError Diagnostic positioned at the given file, line and
// column and returns it as an error. Callers of parseLambda propagate it unchanged; it
// is fatal by construction (spec §7: "every lex or parse error is
// immediately fatal").
func errorf(file string, line, col int, format string, args ...interface{}) error {
	return diagnosticError{Diagnostic{
		File:    file,
		Line:    line,
		Column:  col,
		Sev:     SevError,
		Message: fmt.Sprintf(format, args...),
	}}
}

// warnf prints a SevWarning Diagnostic to stderr immediately and returns
// control to the caller; warnings never halt compilation.
func warnf(file string, line, col int, format string, args ...interface{}) {
	d := Diagnostic{
		File:    file,
		Line:    line,
		Column:  col,
		Sev:     SevWarning,
		Message: fmt.Sprintf(format, args...),
	}
	fmt.Fprintln(os.Stderr, d.String())
}
