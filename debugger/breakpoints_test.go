package debugger

import "testing"

func TestBreakpointManagerAdd(t *testing.T) {
	bm := NewBreakpointManager()
	bp := bm.Add(0x1000, false)

	if bp.ID != 1 || bp.Address != 0x1000 || !bp.Enabled || bp.Temporary {
		t.Fatalf("unexpected breakpoint: %+v", bp)
	}
}

func TestBreakpointManagerAddExistingReenables(t *testing.T) {
	bm := NewBreakpointManager()
	first := bm.Add(0x1000, false)
	_ = bm.SetEnabled(first.ID, false)

	second := bm.Add(0x1000, true)
	if second.ID != first.ID {
		t.Errorf("re-adding at the same address should reuse the existing breakpoint")
	}
	if !second.Enabled || !second.Temporary {
		t.Errorf("re-add should re-enable and update temporary flag")
	}
}

func TestBreakpointManagerDelete(t *testing.T) {
	bm := NewBreakpointManager()
	bp := bm.Add(0x1000, false)

	if err := bm.Delete(bp.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if bm.Get(0x1000) != nil {
		t.Errorf("breakpoint should be gone after Delete")
	}
	if err := bm.Delete(bp.ID); err == nil {
		t.Errorf("deleting an already-deleted breakpoint should error")
	}
}

func TestBreakpointManagerSetEnabled(t *testing.T) {
	bm := NewBreakpointManager()
	bp := bm.Add(0x1000, false)

	if err := bm.SetEnabled(bp.ID, false); err != nil {
		t.Fatalf("SetEnabled failed: %v", err)
	}
	if bm.Get(0x1000).Enabled {
		t.Errorf("breakpoint should be disabled")
	}
}

func TestBreakpointManagerAddressSetOnlyEnabled(t *testing.T) {
	bm := NewBreakpointManager()
	enabled := bm.Add(0x1000, false)
	disabled := bm.Add(0x2000, false)
	_ = bm.SetEnabled(disabled.ID, false)

	set := bm.AddressSet()
	if !set[0x1000] {
		t.Errorf("enabled breakpoint should be present in AddressSet")
	}
	if set[0x2000] {
		t.Errorf("disabled breakpoint should not be present in AddressSet")
	}
	_ = enabled
}

func TestBreakpointManagerProcessHitRemovesTemporary(t *testing.T) {
	bm := NewBreakpointManager()
	bp := bm.Add(0x1000, true)

	hit := bm.ProcessHit(0x1000)
	if hit == nil || hit.ID != bp.ID || hit.HitCount != 1 {
		t.Fatalf("unexpected hit result: %+v", hit)
	}
	if bm.Get(0x1000) != nil {
		t.Errorf("temporary breakpoint should be removed after being hit")
	}
}

func TestBreakpointManagerProcessHitKeepsPermanent(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(0x1000, false)

	bm.ProcessHit(0x1000)
	if bm.Get(0x1000) == nil {
		t.Errorf("permanent breakpoint should survive being hit")
	}
}

func TestBreakpointManagerClearAndCount(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(0x1000, false)
	bm.Add(0x2000, false)

	if bm.Count() != 2 {
		t.Fatalf("Count() = %d, want 2", bm.Count())
	}
	bm.Clear()
	if bm.Count() != 0 {
		t.Errorf("Count() after Clear = %d, want 0", bm.Count())
	}
}
