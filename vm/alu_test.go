package vm

import "testing"

func TestALUOpApply(t *testing.T) {
	tests := []struct {
		name string
		op   ALUOp
		a, b uint32
		want uint32
	}{
		{"add", ALUAdd, 2, 3, 5},
		{"add overflow wraps", ALUAdd, 0xFFFFFFFF, 1, 0},
		{"sub", ALUSub, 10, 3, 7},
		{"sub underflow wraps", ALUSub, 0, 1, 0xFFFFFFFF},
		{"xor", ALUXor, 0xF0F0F0F0, 0x0F0F0F0F, 0xFFFFFFFF},
		{"or", ALUOr, 0xF0, 0x0F, 0xFF},
		{"and", ALUAnd, 0xFF, 0x0F, 0x0F},
		{"sll", ALUSll, 1, 4, 16},
		{"sll masks shift amount", ALUSll, 1, 32 + 4, 16},
		{"srl", ALUSrl, 0x80000000, 4, 0x08000000},
		{"sra sign-extends", ALUSra, 0x80000000, 4, 0xF8000000},
		{"sra positive behaves like srl", ALUSra, 0x40000000, 4, 0x04000000},
		{"eq true", ALUEq, 5, 5, 1},
		{"eq false", ALUEq, 5, 6, 0},
		{"neq true", ALUNeq, 5, 6, 1},
		{"lt signed true", ALULt, 0xFFFFFFFF, 1, 1}, // -1 < 1
		{"lt signed false", ALULt, 1, 0xFFFFFFFF, 0},
		{"ge signed", ALUGe, 1, 0xFFFFFFFF, 1}, // 1 >= -1
		{"ltu true", ALULtu, 1, 2, 1},
		{"ltu false (unsigned -1 is huge)", ALULtu, 0xFFFFFFFF, 1, 0},
		{"geu", ALUGeu, 0xFFFFFFFF, 1, 1},
		{"selb passes b through", ALUSelB, 0x11111111, 0x22222222, 0x22222222},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op.Apply(tt.a, tt.b); got != tt.want {
				t.Errorf("%v.Apply(%#x, %#x) = %#x, want %#x", tt.op, tt.a, tt.b, got, tt.want)
			}
		})
	}
}
