package vm

// LSR bit positions in the UART's Line Status Register.
const (
	LSRRxReady byte = 1 << 0
	LSRRxBusy  byte = 1 << 1
	LSRTxReady byte = 1 << 2
	LSRTxBusy  byte = 1 << 3
	LSRError   byte = 1 << 7
)

// UART is the memory-mapped serial peripheral. Its Rx side is driven by the
// attached MemoryModule's serial input cursor rather than by reading back
// whatever happens to be sitting in the Rx MMIO byte — the cursor model is
// the one spec.md calls out as correct; the data-memory-read variant some
// source snapshots show is the bug it names.
type UART struct {
	RxAddr  uint32
	TxAddr  uint32
	LSRAddr uint32
	Delay   uint32

	cycleCount uint32
}

// NewUART returns a UART at the default MMIO addresses (Rx 0xF0, Tx 0xF4,
// LSR 0xF8) with a 20-cycle busy delay after any transfer.
func NewUART() *UART {
	return &UART{RxAddr: 0xF0, TxAddr: 0xF4, LSRAddr: 0xF8, Delay: 20}
}

// Trigger runs one cycle of UART logic against mem: while busy it just
// counts down; otherwise it clears any expired busy bits, then services a
// pending Tx byte or, failing that, a pending Rx byte.
func (u *UART) Trigger(mem *MemoryModule) {
	if u.cycleCount > 0 {
		u.cycleCount--
		return
	}

	lsr := mem.ReadByte(u.LSRAddr)
	if lsr&LSRTxBusy != 0 {
		lsr = (lsr &^ LSRTxBusy) | LSRTxReady
	}
	if lsr&LSRRxBusy != 0 {
		lsr = (lsr &^ LSRRxBusy) | LSRRxReady
	}
	mem.WriteByte(u.LSRAddr, lsr)

	if tx := mem.ReadByte(u.TxAddr); tx != 0 {
		mem.WriteByte(u.TxAddr, 0)
		mem.WriteByte(u.LSRAddr, mem.ReadByte(u.LSRAddr)|LSRTxBusy)
		mem.AppendSerialOutput(tx)
		u.cycleCount = u.Delay
		return
	}

	if mem.ReadByte(u.RxAddr) == 0 {
		if b, ok := mem.NextSerialByte(); ok {
			mem.WriteByte(u.RxAddr, b)
			mem.WriteByte(u.LSRAddr, mem.ReadByte(u.LSRAddr)|LSRRxBusy)
			u.cycleCount = u.Delay
		}
	}
}
