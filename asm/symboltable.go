package asm

import "fmt"

// symbolDef is an unresolved label binding: the RPN expression that
// computes its address, plus the token that introduced it (for error
// reporting when resolution fails).
type symbolDef struct {
	expr []RPNItem
	tok  Token
}

// SymbolTable holds every label's defining expression during the first
// pass, then memoizes each one's resolved Address as resolveAll runs a
// depth-first walk over the (possibly inter-referential) definitions.
type SymbolTable struct {
	defs     map[string]symbolDef
	resolved map[string]Address
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		defs:     make(map[string]symbolDef),
		resolved: make(map[string]Address),
	}
}

// Define binds name to an expression. Later Define calls for the same
// name overwrite the earlier one, matching how a second `label:` simply
// rebinds the symbol-table entry in the original two-pass design.
func (st *SymbolTable) Define(name string, expr []RPNItem, tok Token) {
	st.defs[name] = symbolDef{expr: expr, tok: tok}
}

func (st *SymbolTable) Has(name string) bool {
	_, ok := st.defs[name]
	return ok
}

// ResolveAll walks every defined symbol to a concrete Address, reporting
// undefined references and circular definitions as errors. It must run
// once, after the whole source has been scanned, so that forward
// references (a label used before its definition appears) resolve
// correctly.
func (st *SymbolTable) ResolveAll() []error {
	var errs []error
	visiting := make(map[string]bool)
	for name := range st.defs {
		if _, err := st.resolve(name, visiting); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (st *SymbolTable) resolve(name string, visiting map[string]bool) (Address, error) {
	if v, ok := st.resolved[name]; ok {
		return v, nil
	}
	if visiting[name] {
		def := st.defs[name]
		return Address{}, fmt.Errorf("%s: recursive loop found while resolving %s", def.tok.Pos, name)
	}
	def, ok := st.defs[name]
	if !ok {
		return Address{}, fmt.Errorf("symbol %s not defined", name)
	}

	visiting[name] = true
	val, err := EvalRPN(def.expr, func(ref string, tok Token) (Address, error) {
		v, err := st.resolve(ref, visiting)
		if err != nil {
			return Address{}, err
		}
		return v, nil
	})
	delete(visiting, name)
	if err != nil {
		return Address{}, err
	}

	st.resolved[name] = val
	return val, nil
}

// Value returns a previously-resolved symbol's address. Callers must run
// ResolveAll first; Value is used by the second assembly pass once every
// symbol has a fixed value.
func (st *SymbolTable) Value(name string) (Address, bool) {
	v, ok := st.resolved[name]
	return v, ok
}
