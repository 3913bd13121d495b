package debugger

import "testing"

func TestBreakpointManagerAdd(t *testing.T) {
	bm := NewBreakpointManager()

	bp := bm.Add(100, false)
	if bp == nil {
		t.Fatal("Add returned nil")
	}
	if bp.ID != 1 {
		t.Errorf("expected ID 1, got %d", bp.ID)
	}
	if bp.Line != 100 {
		t.Errorf("expected line 100, got %d", bp.Line)
	}
	if !bp.Enabled {
		t.Error("breakpoint should be enabled by default")
	}
	if bp.HitCount != 0 {
		t.Errorf("expected hit count 0, got %d", bp.HitCount)
	}
}

func TestBreakpointManagerAddMultiple(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.Add(10, false)
	bp2 := bm.Add(20, false)

	if bp1.ID == bp2.ID {
		t.Error("breakpoint IDs should be unique")
	}
	if len(bm.All()) != 2 {
		t.Errorf("expected 2 breakpoints, got %d", len(bm.All()))
	}
}

func TestBreakpointManagerAddDuplicateLineUpdates(t *testing.T) {
	bm := NewBreakpointManager()

	bp1 := bm.Add(10, false)
	bp2 := bm.Add(10, true)

	if bp1.ID != bp2.ID {
		t.Error("re-adding the same line should update the existing breakpoint")
	}
	if !bp2.Temporary {
		t.Error("expected the update to set Temporary")
	}
}

func TestBreakpointManagerDelete(t *testing.T) {
	bm := NewBreakpointManager()
	bp := bm.Add(10, false)

	if err := bm.Delete(bp.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if bm.At(10) != nil {
		t.Error("breakpoint should be gone after Delete")
	}
	if err := bm.Delete(999); err == nil {
		t.Error("expected an error deleting an unknown ID")
	}
}

func TestBreakpointManagerHitIncrementsAndRemovesTemporary(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(10, true)

	hit := bm.Hit(10)
	if hit == nil || hit.HitCount != 1 {
		t.Fatalf("expected a hit with count 1, got %+v", hit)
	}
	if bm.At(10) != nil {
		t.Error("temporary breakpoint should be removed after being hit")
	}
}

func TestBreakpointManagerHitPermanentSurvives(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(10, false)

	bm.Hit(10)
	bm.Hit(10)

	bp := bm.At(10)
	if bp == nil || bp.HitCount != 2 {
		t.Fatalf("expected permanent breakpoint to survive with count 2, got %+v", bp)
	}
}

func TestBreakpointManagerAllSortedByLine(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(30, false)
	bm.Add(10, false)
	bm.Add(20, false)

	all := bm.All()
	if len(all) != 3 || all[0].Line != 10 || all[1].Line != 20 || all[2].Line != 30 {
		t.Fatalf("expected breakpoints sorted by line, got %+v", all)
	}
}

func TestBreakpointManagerClear(t *testing.T) {
	bm := NewBreakpointManager()
	bm.Add(10, false)
	bm.Add(20, false)

	bm.Clear()
	if len(bm.All()) != 0 {
		t.Error("expected no breakpoints after Clear")
	}
}
