package asm

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/rv32edu/rv32emu/isa"
)

var maxUint32 = big.NewInt(0xFFFFFFFF)

// line is one logical source line's tokens (newline stripped), plus the
// 1-based line number it came from.
type line struct {
	lineNo int
	tokens []Token
}

func splitLines(filename, source string) ([]line, []error) {
	lex := NewLexer(source, filename)
	var lines []line
	var cur []Token
	var errs []error
	lineNo := 1
	for {
		tok, err := lex.NextToken()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if tok.Kind == TokenEOF {
			if len(cur) > 0 {
				lines = append(lines, line{lineNo: lineNo, tokens: cur})
			}
			break
		}
		if tok.Kind == TokenNewline {
			lines = append(lines, line{lineNo: lineNo, tokens: cur})
			cur = nil
			lineNo++
			continue
		}
		cur = append(cur, tok)
	}
	return lines, errs
}

// directiveName reports whether tok begins a recognized dot-directive,
// splitting its leading-dot name from the merged ".word"-style token the
// lexer produces.
func directiveName(tok Token) (string, bool) {
	if tok.Kind != TokenSymbol || !strings.HasPrefix(tok.Text, ".") {
		return "", false
	}
	return strings.ToLower(tok.Text[1:]), true
}

type asmState struct {
	filename string
	lines    []line
	symtab   *SymbolTable
	errs     []error
}

// Assemble runs the full two-pass assembly pipeline over source,
// returning the byte-exact program image or the complete list of errors
// encountered (assembly does not stop at the first error).
func Assemble(filename, source string) (*AssembledProgram, []error) {
	lines, lexErrs := splitLines(filename, source)
	st := &asmState{filename: filename, lines: lines, symtab: NewSymbolTable(), errs: lexErrs}

	st.symtab.Define("!org0", []RPNItem{{Kind: RPNInteger, IntVal: big.NewInt(0)}}, Token{})

	st.firstPass()

	for _, err := range st.symtab.ResolveAll() {
		st.errs = append(st.errs, err)
	}

	prog := st.secondPass()

	for name, addr := range st.symtab.resolved {
		if !addr.Value.IsUint64() || !addr.Value.IsInt64() || addr.Value.Cmp(maxUint32) > 0 {
			st.errs = append(st.errs, fmt.Errorf("label %q does not fit in a 32-bit address", name))
			continue
		}
		prog.Labels[name] = addr.Value.Int64()
	}

	if len(st.errs) > 0 {
		return nil, st.errs
	}
	return prog, nil
}

// firstPass builds the symbol table and validates mnemonics/directives
// without emitting any bytes; its only output is label bindings and the
// running per-section offset used to compute them.
func (st *asmState) firstPass() {
	currentOrg := "!org0"
	var offset int64

	for _, ln := range st.lines {
		toks := ln.tokens
		if len(toks) == 0 {
			continue
		}
		idx := 0

		var labelName string
		var labelTok Token
		hasLabel := false
		if len(toks) >= 2 && toks[0].Kind == TokenSymbol && toks[1].Kind == TokenColon {
			labelName = toks[0].Text
			labelTok = toks[0]
			hasLabel = true
			idx += 2
		}

		sectionDirective := false
		var sectionExpr []RPNItem
		if idx < len(toks) {
			if name, ok := directiveName(toks[idx]); ok && (name == "text" || name == "data") {
				sectionDirective = true
				idx++
				exprToks := takeExprTokens(toks, &idx)
				var err error
				if len(exprToks) > 0 {
					sectionExpr, err = ShuntingYard(exprToks)
					if err != nil {
						st.errs = append(st.errs, err)
					}
				} else {
					sectionExpr = []RPNItem{{Kind: RPNInteger, IntVal: big.NewInt(0)}}
				}
			}
		}

		if sectionDirective {
			if hasLabel {
				st.symtab.Define(labelName, sectionExpr, labelTok)
			} else {
				st.symtab.Define(fmt.Sprintf("!org%d", ln.lineNo), sectionExpr, toks[0])
				currentOrg = fmt.Sprintf("!org%d", ln.lineNo)
			}
			offset = 0
		} else if hasLabel {
			st.symtab.Define(labelName, []RPNItem{
				{Kind: RPNVariable, Name: currentOrg, Tok: labelTok},
				{Kind: RPNInteger, IntVal: big.NewInt(offset), Tok: labelTok},
				{Kind: RPNAdd, Tok: labelTok},
			}, labelTok)
		}

		if idx >= len(toks) {
			continue
		}

		if name, ok := directiveName(toks[idx]); ok {
			if hasLabel && !sectionDirective && dataExprSelfReferences(labelName, toks[idx:]) {
				st.errs = append(st.errs, fmt.Errorf("%s: recursive loop found while resolving %s", labelTok.Pos, labelName))
				continue
			}
			size, err := dataDirectiveSize(name, toks[idx:])
			if err != nil {
				st.errs = append(st.errs, err)
				continue
			}
			offset += size
			continue
		}

		if toks[idx].Kind == TokenSymbol {
			mnemonic := toks[idx].Text
			if _, ok := isa.Lookup(mnemonic); !ok {
				st.errs = append(st.errs, fmt.Errorf("%s: invalid instruction %q", toks[idx].Pos, mnemonic))
				continue
			}
			offset += 4
		}
	}
}

// dataExprSelfReferences reports whether a data directive's operand
// expressions name the very label defined on the same line — e.g.
// `foo: .word foo` — which this assembler treats as a recursive
// definition rather than a legitimate self-pointer, since the label's
// own address and the directive's payload would otherwise need each
// other to resolve.
func dataExprSelfReferences(label string, toks []Token) bool {
	for _, t := range toks[1:] {
		if t.Kind == TokenSymbol && t.Text == label {
			return true
		}
	}
	return false
}

// takeExprTokens consumes tokens from toks[*idx:] up to (not including) a
// trailing comma or end of line, advancing *idx past them.
func takeExprTokens(toks []Token, idx *int) []Token {
	start := *idx
	for *idx < len(toks) && toks[*idx].Kind != TokenComma {
		*idx++
	}
	return toks[start:*idx]
}

func dataDirectiveSize(name string, toks []Token) (int64, error) {
	switch name {
	case "text", "data":
		return 0, nil
	case "byte":
		return int64(countCommaExprs(toks[1:])), nil
	case "word":
		return int64(countCommaExprs(toks[1:])) * 4, nil
	case "string":
		if len(toks) < 2 || toks[1].Kind != TokenStrLiteral {
			return 0, fmt.Errorf("%s: expected string literal after .string", toks[0].Pos)
		}
		return int64(len(toks[1].StrVal)) + 1, nil
	case "ascii":
		if len(toks) < 2 || toks[1].Kind != TokenStrLiteral {
			return 0, fmt.Errorf("%s: expected string literal after .ascii", toks[0].Pos)
		}
		return int64(len(toks[1].StrVal)), nil
	default:
		return 0, fmt.Errorf("%s: unknown directive %q", toks[0].Pos, name)
	}
}

func countCommaExprs(toks []Token) int {
	if len(toks) == 0 {
		return 0
	}
	n := 1
	for _, t := range toks {
		if t.Kind == TokenComma {
			n++
		}
	}
	return n
}

// secondPass re-walks the same lines now that every label has a resolved
// Address, emitting instruction and data bytes into the program image.
func (st *asmState) secondPass() *AssembledProgram {
	prog := newAssembledProgram()
	currentSection := SectionText
	currentOrg := "!org0"
	var offset int64
	entrySet := false

	resolve := func(name string, tok Token) (Address, error) {
		v, ok := st.symtab.Value(name)
		if !ok {
			return Address{}, fmt.Errorf("%s: undefined symbol %q", tok.Pos, name)
		}
		return v, nil
	}

	for _, ln := range st.lines {
		toks := ln.tokens
		if len(toks) == 0 {
			continue
		}
		idx := 0

		hasLabel := false
		if len(toks) >= 2 && toks[0].Kind == TokenSymbol && toks[1].Kind == TokenColon {
			hasLabel = true
			idx += 2
		}

		sectionDirective := false
		var sectionKind Section
		if idx < len(toks) {
			if name, ok := directiveName(toks[idx]); ok && (name == "text" || name == "data") {
				sectionDirective = true
				if name == "text" {
					sectionKind = SectionText
				} else {
					sectionKind = SectionData
				}
				idx++
				takeExprTokens(toks, &idx)
			}
		}

		if sectionDirective {
			currentSection = sectionKind
			offset = 0
			if !hasLabel {
				currentOrg = fmt.Sprintf("!org%d", ln.lineNo)
			}
			if !entrySet && currentSection == SectionText {
				if v, ok := st.symtab.Value(currentOrg); ok && v.Value.IsInt64() {
					prog.EntryTextStart = uint32(v.Value.Int64())
					entrySet = true
				}
			}
		}

		baseAddr, ok := resolveLineAddress(st.symtab, currentOrg, offset)
		if !ok {
			continue
		}

		if idx >= len(toks) {
			continue
		}

		if name, ok := directiveName(toks[idx]); ok {
			consumed, err := st.emitDataDirective(prog, name, toks[idx:], uint32(baseAddr))
			if err != nil {
				st.errs = append(st.errs, err)
				continue
			}
			offset += consumed
			continue
		}

		if toks[idx].Kind == TokenSymbol {
			word, err := st.encodeInstruction(toks[idx:], resolve, uint32(baseAddr))
			if err != nil {
				st.errs = append(st.errs, err)
				continue
			}
			prog.putInstructionWord(uint32(baseAddr), word)
			prog.putSourceMapping(ln.lineNo, uint32(baseAddr))
			offset += 4
		}
	}

	return prog
}

func resolveLineAddress(st *SymbolTable, org string, offset int64) (int64, bool) {
	base, ok := st.Value(org)
	if !ok || !base.Value.IsInt64() {
		return 0, false
	}
	return base.Value.Int64() + offset, true
}

func (st *asmState) emitDataDirective(prog *AssembledProgram, name string, toks []Token, addr uint32) (int64, error) {
	switch name {
	case "text", "data":
		return 0, nil
	case "byte":
		vals, err := evalCommaExprs(toks[1:], st.symtab)
		if err != nil {
			return 0, err
		}
		for i, v := range vals {
			prog.putDataByte(addr+uint32(i), byte(v))
		}
		return int64(len(vals)), nil
	case "word":
		vals, err := evalCommaExprs(toks[1:], st.symtab)
		if err != nil {
			return 0, err
		}
		for i, v := range vals {
			base := addr + uint32(i*4)
			prog.putDataByte(base, byte(v))
			prog.putDataByte(base+1, byte(v>>8))
			prog.putDataByte(base+2, byte(v>>16))
			prog.putDataByte(base+3, byte(v>>24))
		}
		return int64(len(vals)) * 4, nil
	case "string":
		s := toks[1].StrVal
		for i := 0; i < len(s); i++ {
			prog.putDataByte(addr+uint32(i), s[i])
		}
		prog.putDataByte(addr+uint32(len(s)), 0)
		return int64(len(s)) + 1, nil
	case "ascii":
		s := toks[1].StrVal
		for i := 0; i < len(s); i++ {
			prog.putDataByte(addr+uint32(i), s[i])
		}
		return int64(len(s)), nil
	default:
		return 0, fmt.Errorf("%s: unknown directive %q", toks[0].Pos, name)
	}
}

func evalCommaExprs(toks []Token, st *SymbolTable) ([]uint32, error) {
	var out []uint32
	idx := 0
	for idx < len(toks) {
		start := idx
		for idx < len(toks) && toks[idx].Kind != TokenComma {
			idx++
		}
		rpn, err := ShuntingYard(toks[start:idx])
		if err != nil {
			return nil, err
		}
		addr, err := EvalRPN(rpn, func(name string, tok Token) (Address, error) {
			v, ok := st.Value(name)
			if !ok {
				return Address{}, fmt.Errorf("%s: undefined symbol %q", tok.Pos, name)
			}
			return v, nil
		})
		if err != nil {
			return nil, err
		}
		out = append(out, uint32(addr.Value.Int64()))
		if idx < len(toks) {
			idx++ // skip comma
		}
	}
	return out, nil
}
