package debugger

import "testing"

func TestCommandHistoryAddAndNavigate(t *testing.T) {
	h := NewCommandHistory(100)
	h.Add("step")
	h.Add("continue")

	if got := h.Previous(); got != "continue" {
		t.Fatalf("Previous() = %q, want continue", got)
	}
	if got := h.Previous(); got != "step" {
		t.Fatalf("Previous() = %q, want step", got)
	}
	if got := h.Previous(); got != "" {
		t.Fatalf("Previous() at start should be empty, got %q", got)
	}
	if got := h.Next(); got != "continue" {
		t.Fatalf("Next() = %q, want continue", got)
	}
}

func TestCommandHistoryIgnoresEmptyAndRepeats(t *testing.T) {
	h := NewCommandHistory(100)
	h.Add("")
	h.Add("step")
	h.Add("step")

	if got := h.All(); len(got) != 1 {
		t.Fatalf("All() = %v, want a single entry", got)
	}
}

func TestCommandHistoryBoundedSize(t *testing.T) {
	h := NewCommandHistory(2)
	h.Add("a")
	h.Add("b")
	h.Add("c")

	all := h.All()
	if len(all) != 2 || all[0] != "b" || all[1] != "c" {
		t.Fatalf("All() = %v, want [b c]", all)
	}
}

func TestCommandHistoryGetLast(t *testing.T) {
	h := NewCommandHistory(100)
	if got := h.GetLast(); got != "" {
		t.Fatalf("GetLast() on empty history = %q, want empty", got)
	}
	h.Add("step")
	h.Add("next")
	if got := h.GetLast(); got != "next" {
		t.Fatalf("GetLast() = %q, want next", got)
	}
}

func TestCommandHistoryClear(t *testing.T) {
	h := NewCommandHistory(100)
	h.Add("step")
	h.Clear()
	if len(h.All()) != 0 {
		t.Errorf("All() after Clear should be empty")
	}
}
