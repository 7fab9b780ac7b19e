// Tests the parser/code generator against the concrete end-to-end
// scenarios enumerated for this compiler: string printing, arithmetic,
// variable round-trips, structured control flow and error reporting.

package frontend

import (
	"strings"
	"testing"

	"falsec/src/util"
)

func compile(t *testing.T, src string) (*Environment, error) {
	t.Helper()
	opt := util.Options{
		DecodeLatin1: true,
		DecodeUTF8:   true,
		StackSize:    util.DefaultStackSize,
		IntWidth:     util.DefaultIntWidth,
	}
	env := NewEnvironment("<test>", opt)
	t.Cleanup(env.Dispose)

	p := NewParser(env, src)
	if _, err := p.ParseRoot(); err != nil {
		return env, err
	}
	if err := env.Assemble(); err != nil {
		t.Fatalf("Assemble: %s", err)
	}
	return env, nil
}

func TestParseHelloString(t *testing.T) {
	env, err := compile(t, `"hi"`)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	ir := env.Module.String()
	if !strings.Contains(ir, `c"hi\00"`) {
		t.Errorf("expected string constant bytes in IR, got:\n%s", ir)
	}
	if !strings.Contains(ir, "call void @lf_printstring") {
		t.Errorf("expected a call to lf_printstring, got:\n%s", ir)
	}
}

func TestParseArithmetic(t *testing.T) {
	env, err := compile(t, "2 3+.")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	ir := env.Module.String()
	for _, want := range []string{"add i32", "call void @lf_printnum"} {
		if !strings.Contains(ir, want) {
			t.Errorf("expected %q in IR, got:\n%s", want, ir)
		}
	}
}

func TestParseVariableRoundTrip(t *testing.T) {
	env, err := compile(t, "42a:a;.")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	ir := env.Module.String()
	if !strings.Contains(ir, "@vars") {
		t.Errorf("expected a reference to the vars global, got:\n%s", ir)
	}
}

func TestParseLambdaWithIf(t *testing.T) {
	env, err := compile(t, "1[99.]?")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if got := env.count(); got != 2 {
		t.Fatalf("expected 2 lambdas, got %d", got)
	}

	ir := env.Module.String()
	if !strings.Contains(ir, "define private void @lambda_1()") {
		t.Errorf("expected lambda_1 to be defined, got:\n%s", ir)
	}
}

func TestParseWhileCounter(t *testing.T) {
	env, err := compile(t, "5a:[a;0>][a;.a;1-a:]#")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if got := env.count(); got != 3 {
		t.Fatalf("expected 3 lambdas (body + cond + while-body), got %d", got)
	}
}

func TestParseErrorStrayClose(t *testing.T) {
	_, err := compile(t, "]")
	if err == nil {
		t.Fatalf("expected an error for a stray ']'")
	}
	want := "<test>:1:1: error: ']' unexpected."
	if err.Error() != want {
		t.Errorf("got error %q, want %q", err.Error(), want)
	}
}

func TestParseLambdaIdsContiguous(t *testing.T) {
	env, err := compile(t, "[1][2][3]%%%")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	lambdas := env.lambdas()
	for i1, l := range lambdas {
		if int(l.ID) != i1 {
			t.Errorf("lambda at index %d has id %d", i1, l.ID)
		}
	}
}

func TestParseCharLiteral(t *testing.T) {
	env, err := compile(t, "'X.")
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	ir := env.Module.String()
	if !strings.Contains(ir, "i32 88") {
		t.Errorf("expected the constant 88 ('X') in IR, got:\n%s", ir)
	}
}

func TestParseEncodingEquivalence(t *testing.T) {
	ascii, err := compile(t, "B")
	if err != nil {
		t.Fatalf("ascii: %s", err)
	}
	latin1, err := compile(t, "\xdf")
	if err != nil {
		t.Fatalf("latin1: %s", err)
	}
	utf8, err := compile(t, "\xc3\x9f")
	if err != nil {
		t.Fatalf("utf8: %s", err)
	}

	want := "call void @lf_flush"
	for name, env := range map[string]*Environment{"ascii": ascii, "latin1": latin1, "utf8": utf8} {
		if !strings.Contains(env.Module.String(), want) {
			t.Errorf("%s encoding: expected %q in IR", name, want)
		}
	}
}
