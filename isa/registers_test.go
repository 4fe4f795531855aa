package isa

import "testing"

func TestRegisterByNameABI(t *testing.T) {
	cases := map[string]uint32{
		"zero": 0, "sp": 2, "a0": 10, "t0": 5, "s0": 8, "fp": 8, "ra": 1,
	}
	for name, want := range cases {
		got, ok := RegisterByName(name)
		if !ok || got != want {
			t.Fatalf("RegisterByName(%q) = %d,%v want %d", name, got, ok, want)
		}
	}
}

func TestRegisterByNameXForm(t *testing.T) {
	got, ok := RegisterByName("x31")
	if !ok || got != 31 {
		t.Fatalf("RegisterByName(x31) = %d,%v want 31", got, ok)
	}
	if _, ok := RegisterByName("x32"); ok {
		t.Fatalf("x32 should be out of range")
	}
}

func TestABIName(t *testing.T) {
	if ABIName(0) != "zero" || ABIName(2) != "sp" || ABIName(10) != "a0" {
		t.Fatalf("ABIName mismatch")
	}
}
