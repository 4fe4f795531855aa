package vm

import "github.com/rv32edu/rv32emu/isa"

// HazardDetector implements the five-stage pipeline's stall-only (no
// forwarding) hazard policy: an instruction holds in ID until every
// register it reads is guaranteed to have its final value, and until any
// in-flight branch/jump has resolved.
//
// Cycle counts: writeback happens in the cycle an instruction has been in
// ID for 4 cycles (counting the dispatch cycle as 1), so a dependent
// instruction dispatched on the very next cycle after the producer must
// still wait 3 more cycles — hence reg_busy starts at 4 and is decremented
// once before each cycle's stall check, leaving exactly 3 cycles of actual
// stall for back-to-back dependent instructions. The same contract sizes
// the 3-cycle branch_bubble: a branch/jump resolves its target by the end
// of its 3rd cycle past dispatch.
type HazardDetector struct {
	regBusy        [32]uint8
	branchBubble   uint8
}

// DetectHazards advances the detector by one cycle and reports whether the
// instruction currently in ID must stall. x0 is never busy, since writes to
// it are always discarded.
func (h *HazardDetector) DetectHazards(instr isa.Instruction) bool {
	for i := range h.regBusy {
		if h.regBusy[i] != 0 {
			h.regBusy[i]--
		}
	}
	if h.branchBubble != 0 {
		h.branchBubble--
	}

	def, ok := isa.DefinitionFor(instr)
	if !ok {
		return false
	}

	if h.branchBubble != 0 {
		return true
	}

	format := def.Format
	if format != isa.FormatU && format != isa.FormatJ && h.busy(instr.Rs1()) {
		return true
	}
	if (format == isa.FormatR || format == isa.FormatS || format == isa.FormatB) && h.busy(instr.Rs2()) {
		return true
	}

	if format == isa.FormatJ || format == isa.FormatB || (format == isa.FormatI && def.Opcode == isa.OpcodeJALR) {
		h.branchBubble = 3
	}
	if format != isa.FormatS && format != isa.FormatB {
		h.regBusy[instr.Rd()&0x1F] = 4
	}
	return false
}

func (h *HazardDetector) busy(reg uint32) bool {
	if reg == 0 {
		return false
	}
	return h.regBusy[reg&0x1F] != 0
}
