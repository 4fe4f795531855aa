package asm

import (
	"fmt"
	"math/big"
)

// RPNKind identifies one node of a reverse-Polish expression produced by
// ShuntingYard.
type RPNKind int

const (
	RPNInteger RPNKind = iota
	RPNVariable
	RPNUnaryPlus
	RPNUnaryMinus
	RPNBitwiseNot
	RPNAdd
	RPNSubtract
	RPNMultiply
	RPNDivide
	RPNModulo
	RPNShiftLeft
	RPNShiftRight
	RPNBitwiseAnd
	RPNBitwiseOr
	RPNBitwiseXor
)

type RPNItem struct {
	Kind   RPNKind
	IntVal *big.Int
	Name   string
	Tok    Token
}

type associativity int

const (
	assocLeft associativity = iota
	assocRight
)

func (k RPNKind) precedence() int {
	switch k {
	case RPNUnaryPlus, RPNUnaryMinus, RPNBitwiseNot:
		return 6
	case RPNMultiply, RPNDivide, RPNModulo:
		return 5
	case RPNAdd, RPNSubtract:
		return 4
	case RPNShiftLeft, RPNShiftRight:
		return 3
	case RPNBitwiseAnd:
		return 2
	case RPNBitwiseXor:
		return 1
	case RPNBitwiseOr:
		return 0
	default:
		return -1
	}
}

func (k RPNKind) associativity() associativity {
	if k == RPNUnaryPlus || k == RPNUnaryMinus || k == RPNBitwiseNot {
		return assocRight
	}
	return assocLeft
}

func isOperand(t Token) bool {
	return t.Kind == TokenSymbol || t.Kind == TokenIntLiteral || t.Kind == TokenChrLiteral
}

// ShuntingYard converts a flat token run representing an expression into
// reverse-Polish form, resolving +/- into their unary or binary sense
// from whether an operand or operator most recently appeared.
func ShuntingYard(tokens []Token) ([]RPNItem, error) {
	var output []RPNItem
	var opStack []struct {
		kind RPNKind
		tok  Token
		paren bool
	}

	expectOperand := true

	pushOp := func(kind RPNKind, tok Token) {
		for len(opStack) > 0 {
			top := opStack[len(opStack)-1]
			if top.paren {
				break
			}
			if top.kind.precedence() > kind.precedence() ||
				(top.kind.precedence() == kind.precedence() && kind.associativity() == assocLeft) {
				output = append(output, RPNItem{Kind: top.kind, Tok: top.tok})
				opStack = opStack[:len(opStack)-1]
				continue
			}
			break
		}
		opStack = append(opStack, struct {
			kind RPNKind
			tok  Token
			paren bool
		}{kind, tok, false})
	}

	for _, tok := range tokens {
		switch tok.Kind {
		case TokenIntLiteral:
			output = append(output, RPNItem{Kind: RPNInteger, IntVal: big.NewInt(tok.IntVal), Tok: tok})
			expectOperand = false
		case TokenChrLiteral:
			output = append(output, RPNItem{Kind: RPNInteger, IntVal: big.NewInt(tok.IntVal), Tok: tok})
			expectOperand = false
		case TokenSymbol:
			output = append(output, RPNItem{Kind: RPNVariable, Name: tok.Text, Tok: tok})
			expectOperand = false
		case TokenPlus:
			if expectOperand {
				pushOp(RPNUnaryPlus, tok)
			} else {
				pushOp(RPNAdd, tok)
			}
			expectOperand = true
		case TokenMinus:
			if expectOperand {
				pushOp(RPNUnaryMinus, tok)
			} else {
				pushOp(RPNSubtract, tok)
			}
			expectOperand = true
		case TokenTilde:
			pushOp(RPNBitwiseNot, tok)
			expectOperand = true
		case TokenAsterisk:
			pushOp(RPNMultiply, tok)
			expectOperand = true
		case TokenSlash:
			pushOp(RPNDivide, tok)
			expectOperand = true
		case TokenPercent:
			pushOp(RPNModulo, tok)
			expectOperand = true
		case TokenShl:
			pushOp(RPNShiftLeft, tok)
			expectOperand = true
		case TokenShr:
			pushOp(RPNShiftRight, tok)
			expectOperand = true
		case TokenAmpersand:
			pushOp(RPNBitwiseAnd, tok)
			expectOperand = true
		case TokenPipe:
			pushOp(RPNBitwiseOr, tok)
			expectOperand = true
		case TokenCaret:
			pushOp(RPNBitwiseXor, tok)
			expectOperand = true
		case TokenLParen:
			opStack = append(opStack, struct {
				kind RPNKind
				tok  Token
				paren bool
			}{0, tok, true})
			expectOperand = true
		case TokenRParen:
			found := false
			for len(opStack) > 0 {
				top := opStack[len(opStack)-1]
				opStack = opStack[:len(opStack)-1]
				if top.paren {
					found = true
					break
				}
				output = append(output, RPNItem{Kind: top.kind, Tok: top.tok})
			}
			if !found {
				return nil, fmt.Errorf("%s: mismatched parenthesis", tok.Pos)
			}
			expectOperand = false
		default:
			return nil, fmt.Errorf("%s: unexpected token in expression", tok.Pos)
		}
	}

	for len(opStack) > 0 {
		top := opStack[len(opStack)-1]
		opStack = opStack[:len(opStack)-1]
		if top.paren {
			return nil, fmt.Errorf("%s: mismatched parenthesis", top.tok.Pos)
		}
		output = append(output, RPNItem{Kind: top.kind, Tok: top.tok})
	}

	return output, nil
}

// EvalRPN evaluates a reverse-Polish expression to an Address, resolving
// any Variable node through resolve (typically a symbol table lookup).
func EvalRPN(items []RPNItem, resolve func(name string, tok Token) (Address, error)) (Address, error) {
	var stack []Address

	pop := func(tok Token) (Address, error) {
		if len(stack) == 0 {
			return Address{}, fmt.Errorf("%s: empty expression stack", tok.Pos)
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}

	for _, item := range items {
		switch item.Kind {
		case RPNInteger:
			stack = append(stack, Address{Section: SectionAbsolute, Value: new(big.Int).Set(item.IntVal)})
		case RPNVariable:
			v, err := resolve(item.Name, item.Tok)
			if err != nil {
				return Address{}, err
			}
			stack = append(stack, v)
		case RPNUnaryPlus:
			a, err := pop(item.Tok)
			if err != nil {
				return Address{}, err
			}
			stack = append(stack, a)
		case RPNUnaryMinus:
			a, err := pop(item.Tok)
			if err != nil {
				return Address{}, err
			}
			r, err := a.Neg()
			if err != nil {
				return Address{}, fmt.Errorf("%s: %w", item.Tok.Pos, err)
			}
			stack = append(stack, r)
		case RPNBitwiseNot:
			a, err := pop(item.Tok)
			if err != nil {
				return Address{}, err
			}
			r, err := a.Not()
			if err != nil {
				return Address{}, fmt.Errorf("%s: %w", item.Tok.Pos, err)
			}
			stack = append(stack, r)
		default:
			b, err := pop(item.Tok)
			if err != nil {
				return Address{}, err
			}
			a, err := pop(item.Tok)
			if err != nil {
				return Address{}, err
			}
			r, err := applyBinary(item.Kind, a, b)
			if err != nil {
				return Address{}, fmt.Errorf("%s: %w", item.Tok.Pos, err)
			}
			stack = append(stack, r)
		}
	}

	if len(stack) != 1 {
		return Address{}, fmt.Errorf("malformed expression: %d values left on stack", len(stack))
	}
	return stack[0], nil
}

func applyBinary(kind RPNKind, a, b Address) (Address, error) {
	switch kind {
	case RPNAdd:
		return a.Add(b)
	case RPNSubtract:
		return a.Sub(b)
	case RPNMultiply:
		return a.Mul(b)
	case RPNDivide:
		return a.Div(b)
	case RPNModulo:
		return a.Rem(b)
	case RPNShiftLeft:
		return a.Shl(b)
	case RPNShiftRight:
		return a.Shr(b)
	case RPNBitwiseAnd:
		return a.BitAnd(b)
	case RPNBitwiseOr:
		return a.BitOr(b)
	case RPNBitwiseXor:
		return a.BitXor(b)
	default:
		return Address{}, fmt.Errorf("unknown binary operator")
	}
}
