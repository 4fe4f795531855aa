package vm

// Snapshot captures enough of an Emulator's state at one clock boundary to
// redraw it or step back to it: the register file, where every pipeline
// stage currently points, and how much serial output has been produced so
// far. It deliberately does not copy data memory — for the small programs
// this emulator targets, the debugger can show the live MemoryModule for
// the "now" snapshot and only registers/PCs for history entries.
type Snapshot struct {
	Cycles      uint64
	Registers   [32]uint32
	PCs         []PcPos
	OutputLen   int
	DebugHalted bool
}

// CaptureSnapshot builds a Snapshot from an Emulator's current state.
func CaptureSnapshot(e *Emulator) Snapshot {
	return Snapshot{
		Cycles:      e.Cycles,
		Registers:   e.Registers.Snapshot(),
		PCs:         e.Pipeline.AllPCs(),
		OutputLen:   len(e.Memory.SerialOutput()),
		DebugHalted: e.Pipeline.RequestingDebug(),
	}
}

// History is a bounded ring buffer of snapshots, recorded one per clock, so
// the host UI can step backward through prior cycles without the emulator
// itself supporting reverse execution.
type History struct {
	maxEntries int
	entries    []Snapshot
}

// NewHistory returns a History that retains at most maxEntries snapshots,
// dropping the oldest once full.
func NewHistory(maxEntries int) *History {
	return &History{maxEntries: maxEntries}
}

// Record appends s, evicting the oldest entry if the history is full.
func (h *History) Record(s Snapshot) {
	h.entries = append(h.entries, s)
	if h.maxEntries > 0 && len(h.entries) > h.maxEntries {
		h.entries = h.entries[len(h.entries)-h.maxEntries:]
	}
}

// Len returns the number of snapshots currently retained.
func (h *History) Len() int {
	return len(h.entries)
}

// At returns the snapshot n steps back from the most recent (n=0 is the
// most recent recorded snapshot).
func (h *History) At(n int) (Snapshot, bool) {
	idx := len(h.entries) - 1 - n
	if idx < 0 || idx >= len(h.entries) {
		return Snapshot{}, false
	}
	return h.entries[idx], true
}

// Clear discards all recorded snapshots.
func (h *History) Clear() {
	h.entries = h.entries[:0]
}
