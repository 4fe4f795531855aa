package vm

// ByteEnable selects which of a word's four bytes a memory access touches,
// in address order (byte 0 = bits 7:0 .. byte 3 = bits 31:24).
type ByteEnable [4]bool

var (
	ByteEnableWord     = ByteEnable{true, true, true, true}
	ByteEnableHalfWord = ByteEnable{true, true, false, false}
	ByteEnableByte     = ByteEnable{true, false, false, false}
)

// MemoryModule is the sparse, byte-addressable data memory the pipelines
// read and write, plus the serial input/output buffers the UART drains
// from and appends to. A mapping from address to byte is sufficient and
// simpler than a flat buffer for the small programs this emulator targets.
type MemoryModule struct {
	data map[uint32]byte

	serialInput  []byte
	serialCursor int
	serialOutput []byte
}

// NewMemoryModule returns an empty data memory with the given serial input
// buffer attached (may be nil/empty for programs that don't use the UART).
func NewMemoryModule(serialInput []byte) *MemoryModule {
	return &MemoryModule{
		data:        make(map[uint32]byte),
		serialInput: serialInput,
	}
}

// ReadByte returns the byte at addr, or 0 if unmapped.
func (m *MemoryModule) ReadByte(addr uint32) byte {
	return m.data[addr]
}

// WriteByte stores value at addr.
func (m *MemoryModule) WriteByte(addr uint32, value byte) {
	m.data[addr] = value
}

// PreviewByte reads addr without any side effect, defaulting to 0 for
// unmapped bytes. Like ReadByte it never inserts an entry into the
// underlying map on a miss; it exists for UI/debugger display.
func (m *MemoryModule) PreviewByte(addr uint32) byte {
	if v, ok := m.data[addr]; ok {
		return v
	}
	return 0
}

// ReadWord reads a little-endian 32-bit word at addr, masked by be; bytes
// outside the enable mask read as 0.
func (m *MemoryModule) ReadWord(addr uint32, be ByteEnable) uint32 {
	var word uint32
	for i := 0; i < 4; i++ {
		if be[i] {
			word |= uint32(m.ReadByte(addr+uint32(i))) << (8 * i)
		}
	}
	return word
}

// WriteWord stores the little-endian bytes of value at addr, limited to the
// bytes selected by be.
func (m *MemoryModule) WriteWord(addr uint32, value uint32, be ByteEnable) {
	for i := 0; i < 4; i++ {
		if be[i] {
			m.WriteByte(addr+uint32(i), byte(value>>(8*i)))
		}
	}
}

// PreviewWord is the side-effect-free analogue of ReadWord, for display.
func (m *MemoryModule) PreviewWord(addr uint32) uint32 {
	var word uint32
	for i := 0; i < 4; i++ {
		word |= uint32(m.PreviewByte(addr+uint32(i))) << (8 * i)
	}
	return word
}

// NextSerialByte consumes and returns the next unread byte of serial input,
// advancing the cursor. ok is false once the input is exhausted.
func (m *MemoryModule) NextSerialByte() (b byte, ok bool) {
	if m.serialCursor >= len(m.serialInput) {
		return 0, false
	}
	b = m.serialInput[m.serialCursor]
	m.serialCursor++
	return b, true
}

// AppendSerialOutput appends a byte the program wrote to the UART's Tx
// register to the observable output buffer.
func (m *MemoryModule) AppendSerialOutput(b byte) {
	m.serialOutput = append(m.serialOutput, b)
}

// SerialOutput returns the bytes written to Tx so far, in order.
func (m *MemoryModule) SerialOutput() []byte {
	return m.serialOutput
}

// ReadInstruction assembles the little-endian 32-bit instruction word
// starting at pc from instructionMemory, treating unmapped bytes as 0. Once
// pc runs past the end of the image the word it reads back decodes to an
// all-zero opcode, which the controller treats as a default/NOP control
// vector rather than a fault.
func ReadInstruction(instructionMemory map[uint32]byte, pc uint32) uint32 {
	var word uint32
	for i := uint32(0); i < 4; i++ {
		word |= uint32(instructionMemory[pc+i]) << (8 * i)
	}
	return word
}
