package util

import (
	"os"
	"testing"
)

// withArgs runs fn with os.Args set to append(["falsec"], args...), restoring
// the previous os.Args afterward.
func withArgs(t *testing.T, args []string, fn func()) {
	t.Helper()
	old := os.Args
	defer func() { os.Args = old }()
	os.Args = append([]string{"falsec"}, args...)
	fn()
}

func TestParseArgsDefaults(t *testing.T) {
	var opt Options
	var err error
	withArgs(t, nil, func() {
		opt, err = ParseArgs()
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if !opt.DecodeLatin1 || !opt.DecodeUTF8 {
		t.Errorf("expected latin1/utf8 decoding on by default")
	}
	if opt.Unsigned {
		t.Errorf("expected unsigned mode off by default")
	}
	if opt.StackSize != DefaultStackSize {
		t.Errorf("StackSize = %d, want %d", opt.StackSize, DefaultStackSize)
	}
	if opt.IntWidth != DefaultIntWidth {
		t.Errorf("IntWidth = %d, want %d", opt.IntWidth, DefaultIntWidth)
	}
}

func TestParseArgsFlags(t *testing.T) {
	var opt Options
	var err error
	withArgs(t, []string{"-o", "out.bc", "-no-latin1", "-unsigned", "-stack-size", "2048", "-int-width", "64", "prog.f"}, func() {
		opt, err = ParseArgs()
	})
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if opt.Out != "out.bc" {
		t.Errorf("Out = %q, want out.bc", opt.Out)
	}
	if opt.DecodeLatin1 {
		t.Errorf("expected latin1 decoding disabled")
	}
	if !opt.Unsigned {
		t.Errorf("expected unsigned mode enabled")
	}
	if opt.StackSize != 2048 {
		t.Errorf("StackSize = %d, want 2048", opt.StackSize)
	}
	if opt.IntWidth != 64 {
		t.Errorf("IntWidth = %d, want 64", opt.IntWidth)
	}
	if opt.Src != "prog.f" {
		t.Errorf("Src = %q, want prog.f", opt.Src)
	}
}

func TestParseArgsInvalidIntWidth(t *testing.T) {
	var err error
	withArgs(t, []string{"-int-width", "24"}, func() {
		_, err = ParseArgs()
	})
	if err == nil {
		t.Fatalf("expected error for unsupported int width")
	}
}

func TestParseArgsUnexpectedFlag(t *testing.T) {
	var err error
	withArgs(t, []string{"-not-a-flag"}, func() {
		_, err = ParseArgs()
	})
	if err == nil {
		t.Fatalf("expected error for unrecognized flag")
	}
}
