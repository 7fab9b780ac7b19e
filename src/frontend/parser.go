// parser.go implements the Parser / Code Generator (spec §4.5): a single
// recursive-descent pass over the source that, character by character,
// lowers False's primitives directly into the current lambda's IR.

package frontend

import (
	"fmt"

	"tinygo.org/x/go-llvm"
)

// ----------------------------
// ----- Type definitions -----
// ----------------------------

// Parser drives parseLambda over a single source, sharing one reader
// across every lambda it recurses into (only the builder cursor and
// current-position bookkeeping are per-lambda).
type Parser struct {
	env *Environment
	r   *reader
}

// ---------------------
// ----- functions -----
// ---------------------

// NewParser returns a Parser ready to consume src into env.
func NewParser(env *Environment, src string) *Parser {
	return &Parser{env: env, r: newReader(src)}
}

// isASCIIDigit reports whether ch is an ASCII decimal digit.
func isASCIIDigit(ch int) bool {
	return ch >= '0' && ch <= '9'
}

// isPrintable reports whether ch is a printable ASCII byte, for choosing
// between the two "invalid character" diagnostic forms.
func isPrintable(ch int) bool {
	return ch >= 0x20 && ch < 0x7f
}

// u32 returns the i32 constant n.
func (p *Parser) u32(n uint32) llvm.Value {
	return llvm.ConstInt(p.env.I32, uint64(n), false)
}

// errAt builds a fatal diagnostic positioned at the reader's current
// location, not the lambda's (which is only refreshed once per dispatch
// and would be stale for errors raised mid digit-run/comment/string scan).
func (p *Parser) errAt(l *Lambda, format string, args ...interface{}) error {
	line, col := p.r.position()
	return errorf(p.env.File, line, col, format, args...)
}

// ----- evaluation-stack lowering (llfalse.c's index_stack_by_value/grow_stack family) -----

// indexStackByValue computes an in-bounds pointer to the stack slot at
// dynamic depth i below the current top (0 is the top itself).
func (p *Parser) indexStackByValue(l *Lambda, i llvm.Value) llvm.Value {
	stackIdx := l.builder.CreateLoad(p.env.VarStackIdx, "")
	indices := []llvm.Value{p.u32(0), l.builder.CreateSub(stackIdx, i, "")}
	return l.builder.CreateInBoundsGEP(p.env.VarStack, indices, "")
}

// indexStack is indexStackByValue specialized to a compile-time-known depth.
func (p *Parser) indexStack(l *Lambda, i uint32) llvm.Value {
	return p.indexStackByValue(l, p.u32(i))
}

func (p *Parser) storeStack(l *Lambda, index uint32, value llvm.Value) {
	l.builder.CreateStore(value, p.indexStack(l, index))
}

func (p *Parser) loadStack(l *Lambda, index uint32) llvm.Value {
	return l.builder.CreateLoad(p.indexStack(l, index), "")
}

// growStack adjusts the stack index by delta, clobbering freed slots with
// undef first when shrinking (spec §4.5: "the compiler must store an
// undefined value to the freed slots before decrementing the index").
func (p *Parser) growStack(l *Lambda, delta int) {
	if delta < 0 {
		undef := llvm.Undef(p.env.I32)
		for i := 0; i < -delta; i++ {
			l.builder.CreateStore(undef, p.indexStack(l, uint32(i)))
		}
	}

	old := l.builder.CreateLoad(p.env.VarStackIdx, "")
	var delta32 llvm.Value
	if delta >= 0 {
		delta32 = p.u32(uint32(delta))
		old = l.builder.CreateAdd(old, delta32, "")
	} else {
		delta32 = p.u32(uint32(-delta))
		old = l.builder.CreateSub(old, delta32, "")
	}
	l.builder.CreateStore(old, p.env.VarStackIdx)
}

func (p *Parser) pushStack(l *Lambda, value llvm.Value) {
	p.growStack(l, 1)
	p.storeStack(l, 0, value)
}

func (p *Parser) popStack(l *Lambda) llvm.Value {
	v := p.loadStack(l, 0)
	p.growStack(l, -1)
	return v
}

// indexVariables computes an in-bounds pointer to variables[ref].
func (p *Parser) indexVariables(l *Lambda, ref llvm.Value) llvm.Value {
	indices := []llvm.Value{p.u32(0), ref}
	return l.builder.CreateInBoundsGEP(p.env.VarVars, indices, "")
}

// loadLambdaFn loads the function pointer at lambda_table[index].
func (p *Parser) loadLambdaFn(l *Lambda, index llvm.Value) llvm.Value {
	ptr := l.builder.CreateLoad(p.env.VarLambdas, "")
	gep := l.builder.CreateGEP(ptr, []llvm.Value{index}, "")
	return l.builder.CreateLoad(gep, "")
}

// ----- operator groups (llfalse.c's build_simple_binop/build_icmp_op) -----

func (p *Parser) buildSimpleBinop(l *Lambda, op llvm.Opcode) {
	b := p.popStack(l)
	a := p.popStack(l)
	p.pushStack(l, l.builder.CreateBinOp(op, a, b, ""))
}

func (p *Parser) buildICmpOp(l *Lambda, pred llvm.IntPredicate) {
	b := p.popStack(l)
	a := p.popStack(l)
	cmp := l.builder.CreateICmp(pred, a, b, "")
	p.pushStack(l, l.builder.CreateSExt(cmp, p.env.I32, ""))
}

// buildString accumulates the bytes of a string literal, emits a private
// constant global for it and calls lf_printstring with a pointer to its
// first byte (llfalse.c's build_string).
func (p *Parser) buildString(l *Lambda) error {
	buf := newBuffer()
	for {
		ch := p.r.next()
		if ch == eof {
			return p.errAt(l, "Unexpected end of file inside string.")
		}
		if ch == '"' {
			break
		}
		buf.append(byte(ch))
	}

	bytes := buf.finalize()
	str := llvm.ConstString(string(bytes), true)

	name := fmt.Sprintf("string_%d", p.env.stringID)
	p.env.stringID++

	global := llvm.AddGlobal(p.env.Module, str.Type(), name)
	global.SetLinkage(llvm.PrivateLinkage)
	global.SetInitializer(str)

	zero := p.u32(0)
	ptr := l.builder.CreateGEP(global, []llvm.Value{zero, zero}, "")
	l.builder.CreateCall(p.env.FuncPrintString, []llvm.Value{ptr}, "")
	return nil
}

// buildIf lowers '?': pop body_id, then cond; branch into a body block that
// calls the body lambda, then converges on a fresh out block (spec §4.5,
// llfalse.c's build_if).
func (p *Parser) buildIf(l *Lambda) {
	bodyID := p.popStack(l)
	condV := p.popStack(l)

	bodyFn := p.loadLambdaFn(l, bodyID)
	cond := l.builder.CreateIsNotNull(condV, "")

	bodyBB := newBasicBlock(l)
	outBB := newBasicBlock(l)

	l.builder.CreateCondBr(cond, bodyBB, outBB)

	l.builder.SetInsertPointAtEnd(bodyBB)
	l.builder.CreateCall(bodyFn, nil, "")
	l.builder.CreateBr(outBB)

	l.builder.SetInsertPointAtEnd(outBB)
	l.bb = outBB
}

// buildWhile lowers '#': pop body_id, then cond_id; emits the
// head/body/out triangle that re-evaluates the condition lambda on every
// iteration (spec §4.5, llfalse.c's build_while).
func (p *Parser) buildWhile(l *Lambda) {
	headBB := newBasicBlock(l)
	bodyBB := newBasicBlock(l)
	outBB := newBasicBlock(l)

	bodyID := p.popStack(l)
	condID := p.popStack(l)
	bodyFn := p.loadLambdaFn(l, bodyID)
	condFn := p.loadLambdaFn(l, condID)

	l.builder.CreateBr(headBB)

	l.builder.SetInsertPointAtEnd(headBB)
	l.builder.CreateCall(condFn, nil, "")
	condV := p.popStack(l)
	cond := l.builder.CreateIsNotNull(condV, "")
	l.builder.CreateCondBr(cond, bodyBB, outBB)

	l.builder.SetInsertPointAtEnd(bodyBB)
	l.builder.CreateCall(bodyFn, nil, "")
	l.builder.CreateBr(headBB)

	l.builder.SetInsertPointAtEnd(outBB)
	l.bb = outBB
}

// ----- main dispatch -----

// ParseRoot parses the whole source into lambda 0 and returns it once
// parsing finishes (end-of-stream is the only legal terminator there).
func (p *Parser) ParseRoot() (*Lambda, error) {
	root := newRootLambda(p.env)
	if err := p.parseLambda(root); err != nil {
		return nil, err
	}
	p.env.FuncLambda0 = root.Fn
	return root, nil
}

// parseLambda consumes characters into l until ']' closes it or end of
// stream is reached (legal only for lambda 0). It implements the full
// dispatch table of spec §4.5.
func (p *Parser) parseLambda(l *Lambda) error {
	for {
		ch := p.r.next()

	reparse:
		l.Line, l.Column = p.r.position()

		if ch == eof {
			if l.ID != 0 {
				return p.errAt(l, "Unexpected end of file. Use ']' to terminate lambdas.")
			}
			break
		}
		if ch == ']' {
			if l.ID == 0 {
				return p.errAt(l, "']' unexpected.")
			}
			break
		}

		switch {
		case ch >= 'a' && ch <= 'z':
			p.pushStack(l, p.u32(uint32(ch-'a')))
			continue

		case isASCIIDigit(ch):
			num := uint32(ch - '0')
			for {
				ch = p.r.next()
				if !isASCIIDigit(ch) {
					break
				}
				num = 10*num + uint32(ch-'0')
			}
			p.pushStack(l, p.u32(num))
			goto reparse
		}

		switch ch {
		case ' ', '\t', '\n':
			// whitespace

		case 0xc3: // UTF-8 lead byte
			if !p.env.Opt.DecodeUTF8 {
				return p.invalidChar(l, ch)
			}
			ch = p.r.next()
			switch ch {
			case 0x9f:
				ch = 'B'
			case 0xb8:
				ch = 'O'
			default:
				return p.errAt(l, "Invalid UTF-8 sequence c3 %02x", ch)
			}
			p.r.uncountByte()
			goto reparse

		case '{': // comment
			for {
				ch = p.r.next()
				if ch == '}' {
					break
				}
				if ch == eof {
					return p.errAt(l, "Unexpected end of file. Use '}' to terminate comments")
				}
			}

		case '[': // nested lambda
			child := newChildLambda(l)
			if err := p.parseLambda(child); err != nil {
				return err
			}
			l.Line, l.Column = child.Line, child.Column
			p.pushStack(l, p.u32(child.ID))

		case '\'': // character literal
			ch = p.r.next()
			if ch == eof {
				return p.errAt(l, "Unexpected end of file after apostrophe (')")
			}
			p.pushStack(l, p.u32(uint32(byte(ch))))

		case '`': // inline assembly
			warnf(p.env.File, l.Line, l.Column, "Inline assembly isn't supported, ignoring.")

		case ':': // store
			ref := p.popStack(l)
			val := p.popStack(l)
			l.builder.CreateStore(val, p.indexVariables(l, ref))

		case ';': // load
			ref := p.popStack(l)
			ptr := p.indexVariables(l, ref)
			p.pushStack(l, l.builder.CreateLoad(ptr, ""))

		case '!': // indirect call
			index := p.popStack(l)
			fn := p.loadLambdaFn(l, index)
			l.builder.CreateCall(fn, nil, "")

		case '+':
			p.buildSimpleBinop(l, llvm.Add)
		case '-':
			p.buildSimpleBinop(l, llvm.Sub)
		case '*':
			p.buildSimpleBinop(l, llvm.Mul)
		case '/':
			// unsigned_mode resolution: off is signed (default), on is unsigned.
			if p.env.Opt.Unsigned {
				p.buildSimpleBinop(l, llvm.UDiv)
			} else {
				p.buildSimpleBinop(l, llvm.SDiv)
			}
		case '&':
			p.buildSimpleBinop(l, llvm.And)
		case '|':
			p.buildSimpleBinop(l, llvm.Or)

		case '=':
			p.buildICmpOp(l, llvm.IntEQ)
		case '>':
			// unsigned_mode resolution: off is signed (default), on is unsigned.
			if p.env.Opt.Unsigned {
				p.buildICmpOp(l, llvm.IntUGT)
			} else {
				p.buildICmpOp(l, llvm.IntSGT)
			}

		case '_': // negate
			p.storeStack(l, 0, l.builder.CreateNeg(p.loadStack(l, 0), ""))
		case '~': // bitwise not
			p.storeStack(l, 0, l.builder.CreateNot(p.loadStack(l, 0), ""))
		case '$': // dup
			p.pushStack(l, p.loadStack(l, 0))
		case '%': // drop
			p.growStack(l, -1)
		case '\\': // swap
			b := p.popStack(l)
			a := p.popStack(l)
			p.pushStack(l, b)
			p.pushStack(l, a)
		case '@': // rotate
			a := p.loadStack(l, 2)
			b := p.loadStack(l, 1)
			c := p.loadStack(l, 0)
			p.storeStack(l, 2, b)
			p.storeStack(l, 1, c)
			p.storeStack(l, 0, a)

		case 0xf8: // latin1 ø
			if !p.env.Opt.DecodeLatin1 {
				return p.invalidChar(l, ch)
			}
			fallthrough
		case 'O': // pick
			index := p.popStack(l)
			value := l.builder.CreateLoad(p.indexStackByValue(l, index), "pick")
			p.pushStack(l, value)

		case '?':
			p.buildIf(l)
		case '#':
			p.buildWhile(l)

		case '.': // printnum
			// TODO: lf_printnum always prints signed regardless of unsigned_mode.
			arg := p.popStack(l)
			l.builder.CreateCall(p.env.FuncPrintNum, []llvm.Value{arg}, "")

		case '"': // string literal
			if err := p.buildString(l); err != nil {
				return err
			}

		case ',': // putchar
			arg := p.popStack(l)
			l.builder.CreateCall(p.env.FuncPutChar, []llvm.Value{arg}, "")

		case '^': // getchar
			res := l.builder.CreateCall(p.env.FuncGetChar, nil, "")
			p.pushStack(l, res)

		case 0xdf: // latin1 ß
			if !p.env.Opt.DecodeLatin1 {
				return p.invalidChar(l, ch)
			}
			fallthrough
		case 'B': // flush
			l.builder.CreateCall(p.env.FuncFlush, nil, "")

		default:
			return p.invalidChar(l, ch)
		}
	}

	l.builder.CreateRetVoid()
	l.builder.Dispose()
	l.builder = llvm.Builder{}
	return nil
}

// invalidChar reports an unrecognized byte, choosing the printable or
// hex-escaped diagnostic form per spec §4.5.
func (p *Parser) invalidChar(l *Lambda, ch int) error {
	if isPrintable(ch) {
		return p.errAt(l, "Invalid character '%c'.", rune(ch))
	}
	return p.errAt(l, "Invalid character '\\x%02x'.", ch)
}
