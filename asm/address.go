package asm

import (
	"fmt"
	"math/big"
)

// Section tags which memory region a value is relative to. Arithmetic
// between addresses of mismatched sections is rejected at assemble time
// rather than silently producing a nonsensical offset.
type Section int

const (
	SectionText Section = iota
	SectionData
	SectionAbsolute
)

func (s Section) String() string {
	switch s {
	case SectionText:
		return "text"
	case SectionData:
		return "data"
	case SectionAbsolute:
		return "absolute"
	default:
		return "?"
	}
}

// Address is an arbitrary-precision value tagged with the section it is
// relative to. Label values, computed expression results, and literal
// constants all carry one, so expressions like `label + 4` keep track of
// which section the result lands in (or fail if the combination makes
// no sense, e.g. multiplying two text addresses together).
type Address struct {
	Section Section
	Value   *big.Int
}

func NewAddress(section Section, v *big.Int) Address {
	return Address{Section: section, Value: v}
}

func AbsoluteAddress(v int64) Address {
	return Address{Section: SectionAbsolute, Value: big.NewInt(v)}
}

func (a Address) String() string {
	return fmt.Sprintf("%s (%s)", a.Value.String(), a.Section)
}

func sectionErr(op string, a, b Section) error {
	return fmt.Errorf("cannot %s addresses from sections %s %s %s", op, a, op, b)
}

func (a Address) Neg() (Address, error) {
	if a.Section != SectionAbsolute {
		return Address{}, fmt.Errorf("cannot negate address in section %s", a.Section)
	}
	return Address{SectionAbsolute, new(big.Int).Neg(a.Value)}, nil
}

func (a Address) Not() (Address, error) {
	if a.Section != SectionAbsolute {
		return Address{}, fmt.Errorf("cannot bitwise not address in section %s", a.Section)
	}
	return Address{SectionAbsolute, new(big.Int).Not(a.Value)}, nil
}

func (a Address) requireAbsolutePair(b Address, op string) error {
	if a.Section != SectionAbsolute || b.Section != SectionAbsolute {
		return sectionErr(op, a.Section, b.Section)
	}
	return nil
}

func (a Address) Mul(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "multiply"); err != nil {
		return Address{}, err
	}
	return Address{SectionAbsolute, new(big.Int).Mul(a.Value, b.Value)}, nil
}

func (a Address) Div(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "divide"); err != nil {
		return Address{}, err
	}
	if b.Value.Sign() == 0 {
		return Address{}, fmt.Errorf("division by zero")
	}
	return Address{SectionAbsolute, new(big.Int).Quo(a.Value, b.Value)}, nil
}

func (a Address) Rem(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "modulo"); err != nil {
		return Address{}, err
	}
	if b.Value.Sign() == 0 {
		return Address{}, fmt.Errorf("modulo by zero")
	}
	return Address{SectionAbsolute, new(big.Int).Rem(a.Value, b.Value)}, nil
}

func (a Address) Shl(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "left shift"); err != nil {
		return Address{}, err
	}
	if !b.Value.IsUint64() {
		return Address{}, fmt.Errorf("shift amount %s out of range", b.Value)
	}
	return Address{SectionAbsolute, new(big.Int).Lsh(a.Value, uint(b.Value.Uint64()))}, nil
}

func (a Address) Shr(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "right shift"); err != nil {
		return Address{}, err
	}
	if !b.Value.IsUint64() {
		return Address{}, fmt.Errorf("shift amount %s out of range", b.Value)
	}
	return Address{SectionAbsolute, new(big.Int).Rsh(a.Value, uint(b.Value.Uint64()))}, nil
}

func (a Address) BitOr(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "bitwise or"); err != nil {
		return Address{}, err
	}
	return Address{SectionAbsolute, new(big.Int).Or(a.Value, b.Value)}, nil
}

func (a Address) BitAnd(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "bitwise and"); err != nil {
		return Address{}, err
	}
	return Address{SectionAbsolute, new(big.Int).And(a.Value, b.Value)}, nil
}

func (a Address) BitXor(b Address) (Address, error) {
	if err := a.requireAbsolutePair(b, "bitwise xor"); err != nil {
		return Address{}, err
	}
	return Address{SectionAbsolute, new(big.Int).Xor(a.Value, b.Value)}, nil
}

// Add allows Absolute+X=X (in either order) or same-section+same-section
// (unusual, but the original grammar permits it and yields that section).
func (a Address) Add(b Address) (Address, error) {
	switch {
	case a.Section == SectionAbsolute:
		return Address{b.Section, new(big.Int).Add(a.Value, b.Value)}, nil
	case b.Section == SectionAbsolute:
		return Address{a.Section, new(big.Int).Add(a.Value, b.Value)}, nil
	case a.Section == b.Section:
		return Address{a.Section, new(big.Int).Add(a.Value, b.Value)}, nil
	default:
		return Address{}, fmt.Errorf("cannot add addresses from different sections %s + %s", a.Section, b.Section)
	}
}

// Sub allows X-Absolute=X, or same-section-same-section=Absolute (the
// distance between two labels in the same section is a plain number).
func (a Address) Sub(b Address) (Address, error) {
	switch {
	case b.Section == SectionAbsolute:
		return Address{a.Section, new(big.Int).Sub(a.Value, b.Value)}, nil
	case a.Section == b.Section:
		return Address{SectionAbsolute, new(big.Int).Sub(a.Value, b.Value)}, nil
	default:
		return Address{}, fmt.Errorf("cannot subtract addresses from different sections %s - %s", a.Section, b.Section)
	}
}
