// lambda.go implements the Lambda Tree (spec §4.4): the in-memory
// collection of every lambda function the parser allocates, threaded
// newest-first through each Lambda's prev pointer, plus the Environment
// that owns the LLVM module and the handful of globals every lambda's IR
// refers to (the evaluation stack, the 26 variables, the lambda table and
// the runtime externs).

package frontend

import (
	"strconv"

	"falsec/src/util"

	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Lambda is a single anonymous False code block: a parameterless,
// void-returning LLVM function, plus the bookkeeping the parser needs while
// it is still being generated.
type Lambda struct {
	ID     uint32  // Assigned in allocation order; 0 is the program body.
	Parent *Lambda // Enclosing lambda, nil for lambda 0.
	Line   int     // Source line of the '[' that introduced this lambda (1 for lambda 0).
	Column int     // Source column of the '[' that introduced this lambda (0 for lambda 0).

	nBB int // Count of basic blocks allocated so far, used only to name them uniquely.

	Fn      llvm.Value       // The lambda's LLVM function value.
	bb      llvm.BasicBlock  // Current insertion basic block.
	builder llvm.Builder     // This lambda's own IR builder cursor; released when the lambda closes.

	env  *Environment
	prev *Lambda // Newest-first linked list of every allocated lambda.
}

// Environment owns the LLVM module being assembled and every lambda
// allocated while parsing it, plus the runtime-library externs and the
// three global state structures (vars, stack, stack_index) that every
// lambda's IR reads and writes.
type Environment struct {
	File string // Display name used in diagnostics ("<stdin>" or a path).
	Opt  util.Options

	Context llvm.Context
	Module  llvm.Module

	lambdaFuncType llvm.Type // void() — the type shared by every lambda function.
	lastLambda     *Lambda   // Head of the newest-first lambda list.
	stringID       int       // Next auto-generated "string_<n>" suffix.

	FuncLambda0 llvm.Value // lambda_0, the program body; set once parsing finishes.
	FuncMain    llvm.Value // The public main(int, char**) thunk.

	FuncPrintNum    llvm.Value // extern void lf_printnum(uint32_t)
	FuncPrintString llvm.Value // extern void lf_printstring(const char*)
	FuncPutChar     llvm.Value // extern void lf_putchar(uint32_t)
	FuncGetChar     llvm.Value // extern uint32_t lf_getchar(void)
	FuncFlush       llvm.Value // extern void lf_flush(void)

	VarVars     llvm.Value // uint32_t vars[26]
	VarStack    llvm.Value // uint32_t stack[stack_size]
	VarStackIdx llvm.Value // uint32_t stack_index
	VarLambdas  llvm.Value // lambda_t *lambdas, points at element 0 of the anonymous function-pointer array.

	I32 llvm.Type
}

// ---------------------
// ----- functions -----
// ---------------------

// initLambdaIR declares l's LLVM function, appends its initial basic block
// and positions a fresh builder cursor at it — l_init_llvm's job.
func initLambdaIR(env *Environment, l *Lambda, name string) {
	l.Fn = llvm.AddFunction(env.Module, name, env.lambdaFuncType)
	l.Fn.SetLinkage(llvm.PrivateLinkage)

	l.bb = llvm.AddBasicBlock(l.Fn, "")
	l.nBB = 1
	l.builder = env.Context.NewBuilder()
	l.builder.SetInsertPointAtEnd(l.bb)
}

// newRootLambda allocates lambda 0, the program body, and positions the
// environment's lambda list at it.
func newRootLambda(env *Environment) *Lambda {
	l := &Lambda{ID: 0, Line: 1, Column: 0, env: env}
	env.lastLambda = l
	initLambdaIR(env, l, "lambda_0")
	return l
}

// newChildLambda allocates a new lambda nested inside parent, copying
// parent's current source position as the child's origin (spec §4.4: "copies
// the parent's current line/column as the child's origin").
func newChildLambda(parent *Lambda) *Lambda {
	env := parent.env
	l := &Lambda{
		ID:     env.lastLambda.ID + 1,
		Parent: parent,
		Line:   parent.Line,
		Column: parent.Column,
		env:    env,
		prev:   env.lastLambda,
	}
	env.lastLambda = l
	initLambdaIR(env, l, lambdaName(l.ID))
	return l
}

// lambdaName returns the auto-generated name of the lambda function with
// the given id: "lambda_<id>".
func lambdaName(id uint32) string {
	return "lambda_" + strconv.FormatUint(uint64(id), 10)
}

// newBasicBlock appends a freshly named basic block to l's function,
// matching l_new_bb's "b<n>" naming scheme.
func newBasicBlock(l *Lambda) llvm.BasicBlock {
	name := "b" + strconv.Itoa(l.nBB)
	l.nBB++
	return llvm.AddBasicBlock(l.Fn, name)
}

// count returns the number of lambdas allocated in env, used once parsing
// finishes to size the lambda table.
func (env *Environment) count() int {
	return int(env.lastLambda.ID) + 1
}

// lambdas returns every allocated Lambda ordered by id, gathered by walking
// the newest-first linked list (spec §4.4: "final traversal to gather every
// lambda's function handle in id order").
func (env *Environment) lambdas() []*Lambda {
	out := make([]*Lambda, env.count())
	for l := env.lastLambda; l != nil; l = l.prev {
		out[l.ID] = l
	}
	return out
}
