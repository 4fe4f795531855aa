package asm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rv32edu/rv32emu/asm"
)

// External-package tests exercising only asm's public surface, a separate
// assert/require-based suite layered on top of the package-internal
// table-driven tests.

func TestAssembleReportsLabelsAndSizes(t *testing.T) {
	program, errs := asm.Assemble("<integration>", `
.data
buf: .word 0

.text
start:
	lui a0, 0x0
	sw  a1, 0(a0)
	lw  a2, 0(a0)
	ebreak
`)
	require.Empty(t, errs)

	addr, ok := program.Labels["start"]
	require.True(t, ok, "expected a 'start' label")
	assert.Equal(t, int64(0), addr)

	assert.Equal(t, 4, len(program.DataMemory), "buf: .word 0 should emit 4 data bytes")
	assert.GreaterOrEqual(t, len(program.InstructionMemory), 16, "expected at least 4 encoded instructions")
}

func TestAssembleInvalidMnemonicReturnsError(t *testing.T) {
	_, errs := asm.Assemble("<integration>", ".text\n  frobnicate x1, x2, x3\n")
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Error(), "invalid instruction")
}

func TestAssembleUnresolvedLabelReturnsError(t *testing.T) {
	_, errs := asm.Assemble("<integration>", ".text\n  beq a0, a1, nowhere\n")
	require.NotEmpty(t, errs)
}
