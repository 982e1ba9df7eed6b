package debugger

import (
	"testing"

	"github.com/lookbusy1344/ndiff/register"
)

func TestWatchpointManager_AddWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint("$6", 6)

	if wp == nil {
		t.Fatal("AddWatchpoint returned nil")
	}

	if wp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", wp.ID)
	}

	if wp.Expression != "$6" {
		t.Errorf("Expression = %s, want $6", wp.Expression)
	}

	if wp.Register != 6 {
		t.Errorf("Register = %d, want 6", wp.Register)
	}

	if !wp.Enabled {
		t.Error("Watchpoint should be enabled by default")
	}

	if wp.HitCount != 0 {
		t.Errorf("Initial hit count should be 0, got %d", wp.HitCount)
	}
}

func TestWatchpointManager_AddMultiple(t *testing.T) {
	wm := NewWatchpointManager()

	wp1 := wm.AddWatchpoint("$6", 6)
	wp2 := wm.AddWatchpoint("$7", 7)

	if wp1.ID == wp2.ID {
		t.Error("Watchpoint IDs should be unique")
	}

	if wm.Count() != 2 {
		t.Errorf("Expected 2 watchpoints, got %d", wm.Count())
	}
}

func TestWatchpointManager_DeleteWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint("$6", 6)

	err := wm.DeleteWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("DeleteWatchpoint failed: %v", err)
	}

	if wm.GetWatchpoint(wp.ID) != nil {
		t.Error("Watchpoint not deleted")
	}

	err = wm.DeleteWatchpoint(999)
	if err == nil {
		t.Error("Expected error when deleting non-existent watchpoint")
	}
}

func TestWatchpointManager_EnableDisable(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint("$6", 6)

	err := wm.DisableWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("DisableWatchpoint failed: %v", err)
	}

	if wp.Enabled {
		t.Error("Watchpoint not disabled")
	}

	err = wm.EnableWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("EnableWatchpoint failed: %v", err)
	}

	if !wp.Enabled {
		t.Error("Watchpoint not enabled")
	}
}

func TestWatchpointManager_CheckWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()
	reg := register.New(16)

	wp := wm.AddWatchpoint("$6", 6)

	reg.Set(6, 100)
	err := wm.InitializeWatchpoint(wp.ID, reg)
	if err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}

	if wp.LastValue != 100 {
		t.Errorf("LastValue = %v, want 100", wp.LastValue)
	}

	triggered, changed := wm.CheckWatchpoints(reg)
	if triggered != nil || changed {
		t.Error("Should not trigger when value hasn't changed")
	}

	reg.Set(6, 200)
	triggered, changed = wm.CheckWatchpoints(reg)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when value changes")
	}

	if triggered.ID != wp.ID {
		t.Errorf("Wrong watchpoint triggered: got %d, want %d", triggered.ID, wp.ID)
	}

	if wp.HitCount != 1 {
		t.Errorf("Hit count = %d, want 1", wp.HitCount)
	}

	if wp.LastValue != 200 {
		t.Errorf("LastValue not updated: got %v, want 200", wp.LastValue)
	}
}

func TestWatchpointManager_Disabled(t *testing.T) {
	wm := NewWatchpointManager()
	reg := register.New(16)

	wp := wm.AddWatchpoint("$6", 6)
	_ = wm.InitializeWatchpoint(wp.ID, reg)
	_ = wm.DisableWatchpoint(wp.ID)

	reg.Set(6, 100)

	triggered, _ := wm.CheckWatchpoints(reg)
	if triggered != nil {
		t.Error("Disabled watchpoint should not trigger")
	}
}

func TestWatchpointManager_GetAllWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint("$5", 5)
	wm.AddWatchpoint("$6", 6)
	wm.AddWatchpoint("$7", 7)

	all := wm.GetAllWatchpoints()

	if len(all) != 3 {
		t.Errorf("Expected 3 watchpoints, got %d", len(all))
	}
}

func TestWatchpointManager_Clear(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint("$5", 5)
	wm.AddWatchpoint("$6", 6)

	wm.Clear()

	if wm.Count() != 0 {
		t.Errorf("Expected 0 watchpoints after clear, got %d", wm.Count())
	}
}

func TestWatchpointManager_GetWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint("$6", 6)

	found := wm.GetWatchpoint(wp.ID)
	if found != wp {
		t.Error("GetWatchpoint returned wrong watchpoint")
	}

	if wm.GetWatchpoint(999) != nil {
		t.Error("GetWatchpoint should return nil for non-existent ID")
	}
}
