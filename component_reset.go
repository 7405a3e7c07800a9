// component_reset.go - Reset lifecycle for all CoreBridge components

package main

// Reset returns the whole machine to power-on state: interrupts
// masked, registers at their defaults, bank selector at its reset
// value, flags clear, halt state dropped, diagnostic scrollback
// emptied. Installed firmware segments, dispatch bindings and register
// hooks survive, exactly like the mask ROM and decode logic of the
// real part.
//
// Order matters: the interrupt controller is silenced first so no
// service routine observes a half-reset register file.
func (c *BridgeCore) Reset() {
	c.irq.Reset()
	c.regs.Reset()
	c.banks.Reset()
	c.diag.Reset()
	c.stateWork = false
	c.halted.Store(false)
}
