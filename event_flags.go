// event_flags.go - Shared event flag byte between the dispatchers and the main loop

package main

// Event flag bit layout. One software byte, shared between the
// interrupt-side handlers (writers) and the main polling loop (reader).
// The layout is bit-exact: later subsystems test the combined masks.
const (
	EVT_PENDING  = 0x01 // An event is pending
	EVT_PROC_REQ = 0x02 // Processing requested by a handler
	EVT_POWER    = 0x04 // Power event observed
	EVT_ACTIVE   = 0x80 // Core active

	EVT_MASK_IRQ  = 0x81 // Aggregate consulted by service routine B
	EVT_MASK_MAIN = 0x83 // Aggregate consulted by the main polling loop
)

// EventFlags is a thin view over the flag byte in the register file.
// There is no lock of its own: correctness relies on single-writer-
// per-bit discipline plus the register file's per-access lock, exactly
// as the firmware relies on 8-bit store atomicity.
type EventFlags struct {
	regs *RegisterFile
}

func NewEventFlags(regs *RegisterFile) *EventFlags {
	return &EventFlags{regs: regs}
}

// Set raises the given flag bits.
func (f *EventFlags) Set(mask uint8) {
	f.regs.SetBits(REG_EVENT_FLAGS, mask)
}

// Clear lowers the given flag bits.
func (f *EventFlags) Clear(mask uint8) {
	f.regs.ClearBits(REG_EVENT_FLAGS, mask)
}

// Value returns the current flag byte.
func (f *EventFlags) Value() uint8 {
	return f.regs.Read8(REG_EVENT_FLAGS)
}

// Any reports whether any bit of mask is set.
func (f *EventFlags) Any(mask uint8) bool {
	return f.Value()&mask != 0
}

// Reset drops all flags. Power-on state is all-clear.
func (f *EventFlags) Reset() {
	f.regs.Write8(REG_EVENT_FLAGS, 0)
}
