// event_flags_test.go - Event flag aggregate tests

package main

import (
	"testing"
)

func TestEventFlagMasks(t *testing.T) {
	// The combined masks are bit-exact contracts with the dispatcher
	// (0x81) and the main loop (0x83).
	if EVT_MASK_IRQ != EVT_PENDING|EVT_ACTIVE {
		t.Errorf("EVT_MASK_IRQ = 0x%02X, want pending|active", EVT_MASK_IRQ)
	}
	if EVT_MASK_MAIN != EVT_PENDING|EVT_PROC_REQ|EVT_ACTIVE {
		t.Errorf("EVT_MASK_MAIN = 0x%02X, want pending|proc|active", EVT_MASK_MAIN)
	}
}

func TestEventFlagOps(t *testing.T) {
	rf := NewRegisterFile()
	f := NewEventFlags(rf)

	f.Set(EVT_PENDING)
	f.Set(EVT_POWER)
	if got := f.Value(); got != EVT_PENDING|EVT_POWER {
		t.Errorf("flags = 0x%02X, want 0x%02X", got, EVT_PENDING|EVT_POWER)
	}
	if !f.Any(EVT_MASK_MAIN) {
		t.Error("pending bit not visible through the main-loop aggregate")
	}
	if f.Any(EVT_MASK_IRQ & ^uint8(EVT_PENDING)) {
		t.Error("active bit reported set while clear")
	}

	f.Clear(EVT_PENDING)
	if f.Any(EVT_PENDING) {
		t.Error("pending bit survived Clear")
	}

	f.Set(0xFF)
	f.Reset()
	if got := f.Value(); got != 0 {
		t.Errorf("flags after reset = 0x%02X, want 0", got)
	}
}
