package frontend

import "testing"

func TestDiagnosticString(t *testing.T) {
	d := Diagnostic{File: "<stdin>", Line: 1, Column: 1, Sev: SevError, Message: "']' unexpected."}
	want := "<stdin>:1:1: error: ']' unexpected."
	if got := d.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	d.Sev = SevWarning
	d.Message = "Inline assembly isn't supported, ignoring."
	want = "<stdin>:1:1: warning: Inline assembly isn't supported, ignoring."
	if got := d.String(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestErrorf(t *testing.T) {
	err := errorf("<stdin>", 3, 9, "Invalid character '%c'.", '}')
	want := "<stdin>:3:9: error: Invalid character '}'."
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
