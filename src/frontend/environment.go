// environment.go implements Environment Assembly (spec §4.6): declaring the
// three state globals and the five runtime externs before parsing, and,
// once parsing has produced every lambda, building the lambda table and
// the main() thunk, then verifying and serializing the module.

package frontend

import (
	"errors"
	"fmt"
	"os"

	"falsec/src/util"

	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// ---------------------
// ----- functions -----
// ---------------------

// NewEnvironment creates a module named "llfalse", records file as the
// display name for diagnostics, and declares every
// global and extern the generated lambdas will reference, before any
// parsing happens.
func NewEnvironment(file string, opt util.Options) *Environment {
	ctx := llvm.NewContext()
	env := &Environment{
		File:    file,
		Opt:     opt,
		Context: ctx,
		Module:  ctx.NewModule("llfalse"),
		I32:     llvm.Int32Type(),
	}
	prepareEnvironment(env)
	return env
}

// prepareEnvironment declares vars/stack/stack_index, the lf_* runtime
// externs and reserves the lambda function type, mirroring llfalse.c's
// prepare_env.
func prepareEnvironment(env *Environment) {
	i32 := env.I32
	voidT := llvm.VoidType()
	strT := llvm.PointerType(llvm.Int8Type(), 0)

	// uint32_t vars[26];
	varsTyp := llvm.ArrayType(i32, 26)
	env.VarVars = llvm.AddGlobal(env.Module, varsTyp, "vars")
	env.VarVars.SetLinkage(llvm.PrivateLinkage)
	env.VarVars.SetInitializer(llvm.ConstNull(varsTyp))

	// uint32_t stack[stack_size];
	stackTyp := llvm.ArrayType(i32, env.Opt.StackSize)
	env.VarStack = llvm.AddGlobal(env.Module, stackTyp, "stack")
	env.VarStack.SetLinkage(llvm.PrivateLinkage)
	env.VarStack.SetInitializer(llvm.ConstNull(stackTyp))

	// uint32_t stack_index;
	env.VarStackIdx = llvm.AddGlobal(env.Module, i32, "stack_index")
	env.VarStackIdx.SetLinkage(llvm.PrivateLinkage)
	env.VarStackIdx.SetInitializer(llvm.ConstNull(i32))

	// typedef void (*lambda_t)(void);
	env.lambdaFuncType = llvm.FunctionType(voidT, nil, false)

	// lambda_t *lambdas; — filled in by assembleLambdaTable once parsing finishes.
	lambdaPtrPtr := llvm.PointerType(llvm.PointerType(env.lambdaFuncType, 0), 0)
	env.VarLambdas = llvm.AddGlobal(env.Module, lambdaPtrPtr, "lambdas")
	env.VarLambdas.SetLinkage(llvm.PrivateLinkage)

	fnVoidI32 := llvm.FunctionType(voidT, []llvm.Type{i32}, false)
	fnVoidStr := llvm.FunctionType(voidT, []llvm.Type{strT}, false)
	fnI32Void := llvm.FunctionType(i32, nil, false)
	fnVoidVoid := llvm.FunctionType(voidT, nil, false)

	env.FuncPrintNum = llvm.AddFunction(env.Module, "lf_printnum", fnVoidI32)
	env.FuncPrintString = llvm.AddFunction(env.Module, "lf_printstring", fnVoidStr)
	env.FuncPutChar = llvm.AddFunction(env.Module, "lf_putchar", fnVoidI32)
	env.FuncGetChar = llvm.AddFunction(env.Module, "lf_getchar", fnI32Void)
	env.FuncFlush = llvm.AddFunction(env.Module, "lf_flush", fnVoidVoid)
}

// Assemble builds the lambda function-pointer table and main(), the last
// things Environment Assembly does once parse_lambda(lambda_0) has
// returned (spec §4.6 steps 1-2).
func (env *Environment) Assemble() error {
	if env.FuncLambda0.IsNil() {
		return errors.New("compiler error: lambda 0 was never generated")
	}

	assembleLambdaTable(env)
	return genMain(env)
}

// assembleLambdaTable collects every lambda's function value in id order,
// wraps them in a constant array global and points the "lambdas" global at
// its first element — llfalse.c's fill_lambdas, realized with the same
// anonymous-global + in-bounds GEP-to-element-0 trick its comment documents.
func assembleLambdaTable(env *Environment) {
	lambdas := env.lambdas()
	fnPtrTyp := llvm.PointerType(env.lambdaFuncType, 0)

	values := make([]llvm.Value, len(lambdas))
	for i, l := range lambdas {
		values[i] = l.Fn
	}

	arrayConst := llvm.ConstArray(fnPtrTyp, values)
	anon := llvm.AddGlobal(env.Module, arrayConst.Type(), "")
	anon.SetLinkage(llvm.PrivateLinkage)
	anon.SetInitializer(arrayConst)

	zero := llvm.ConstInt(env.I32, 0, false)
	gep := llvm.ConstInBoundsGEP(anon, []llvm.Value{zero, zero})
	env.VarLambdas.SetInitializer(gep)
}

// genMain declares the public main(int, char**) thunk that calls
// lambda_0() and returns zero, matching llfalse.c's finish_env.
func genMain(env *Environment) error {
	intT := llvm.IntType(env.Opt.IntWidth)
	strPtrPtr := llvm.PointerType(llvm.PointerType(llvm.Int8Type(), 0), 0)

	fnMain := llvm.FunctionType(intT, []llvm.Type{intT, strPtrPtr}, false)
	main := llvm.AddFunction(env.Module, "main", fnMain)
	main.SetLinkage(llvm.ExternalLinkage)
	main.Param(0).SetName("argc")
	main.Param(1).SetName("argv")

	b := env.Context.NewBuilder()
	defer b.Dispose()

	bb := llvm.AddBasicBlock(main, "")
	b.SetInsertPointAtEnd(bb)
	b.CreateCall(env.FuncLambda0, nil, "")
	b.CreateRet(llvm.ConstNull(intT))

	env.FuncMain = main
	return nil
}

// Verify runs LLVM's module verifier. Diagnostics are printed to stderr but
// verification failure does not by itself abort emission (spec §4.6 step 3,
// §7: IRVerifyError is "non-fatal to bitcode emission, but printed").
func (env *Environment) Verify() error {
	if err := llvm.VerifyModule(env.Module, llvm.PrintMessageAction); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	return nil
}

// WriteTo serializes the module's bitcode to w.
func (env *Environment) WriteTo(w *os.File) error {
	return llvm.WriteBitcodeToFile(env.Module, w)
}

// Dispose releases the module and its context. Must be called once, at
// driver exit (spec §5: "The module handle is released at driver exit.").
func (env *Environment) Dispose() {
	env.Module.Dispose()
	env.Context.Dispose()
}
