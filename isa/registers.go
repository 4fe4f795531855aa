package isa

import "strings"

// abiNames gives the calling-convention name for each of the 32 integer
// registers, index by register number.
var abiNames = [32]string{
	"zero", "ra", "sp", "gp", "tp", "t0", "t1", "t2",
	"s0", "s1", "a0", "a1", "a2", "a3", "a4", "a5",
	"a6", "a7", "s2", "s3", "s4", "s5", "s6", "s7",
	"s8", "s9", "s10", "s11", "t3", "t4", "t5", "t6",
}

// ABIName returns the calling-convention name for register reg (0-31),
// e.g. ABIName(2) == "sp". s0 and fp both refer to x8; ABIName prefers
// "s0" per the canonical RISC-V register table.
func ABIName(reg uint32) string {
	if reg > 31 {
		return "?"
	}
	return abiNames[reg]
}

var byName map[string]uint32

func init() {
	byName = make(map[string]uint32, 64)
	for i := 0; i < 32; i++ {
		byName[abiNames[i]] = uint32(i)
	}
	byName["fp"] = 8 // x8 is aliased as both s0 and fp
}

// RegisterByName resolves either an xN form ("x5") or an ABI alias
// ("t0", "sp", "fp", "zero") to a register number.
func RegisterByName(name string) (uint32, bool) {
	name = strings.ToLower(name)
	if strings.HasPrefix(name, "x") {
		n, err := parseUintStrict(name[1:])
		if err == nil && n < 32 {
			return n, true
		}
		return 0, false
	}
	reg, ok := byName[name]
	return reg, ok
}

func parseUintStrict(s string) (uint32, error) {
	if s == "" {
		return 0, &BuildError{Message: "empty register number"}
	}
	var n uint32
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, &BuildError{Message: "not a decimal register number"}
		}
		n = n*10 + uint32(c-'0')
	}
	return n, nil
}
