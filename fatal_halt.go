// fatal_halt.go - Deliberate fail-stop on unrecoverable hardware errors

package main

// FatalHalt emits best-effort diagnostic text through the diagnostic
// port and enters the terminal halt state. It never returns: the
// firmware's answer to an unrecoverable hardware error is a permanent
// stop, not a crash or a retry. Once halted, no dispatcher step and no
// main-loop iteration executes again. The calling goroutine parks
// forever rather than spinning.
func (c *BridgeCore) FatalHalt(msg string) {
	if c.halted.CompareAndSwap(false, true) {
		// The diagnostic bytes go out the same way all firmware
		// output does: one register write per character.
		for i := 0; i < len(msg); i++ {
			c.regs.Write8(REG_DIAG_DATA, msg[i])
		}
		c.regs.Write8(REG_DIAG_DATA, '\n')
	}
	select {}
}

// Halted reports whether the terminal halt state has been entered.
func (c *BridgeCore) Halted() bool {
	return c.halted.Load()
}
