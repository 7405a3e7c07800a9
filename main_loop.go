// main_loop.go - The cooperative main polling loop

/*
 ██████╗ ██████╗ ██████╗ ███████╗██████╗ ██████╗ ██╗██████╗  ██████╗ ███████╗
██╔════╝██╔═══██╗██╔══██╗██╔════╝██╔══██╗██╔══██╗██║██╔══██╗██╔════╝ ██╔════╝
██║     ██║   ██║██████╔╝█████╗  ██████╔╝██████╔╝██║██║  ██║██║  ███╗█████╗
██║     ██║   ██║██╔══██╗██╔══╝  ██╔══██╗██╔══██╗██║██║  ██║██║   ██║██╔══╝
╚██████╗╚██████╔╝██║  ██║███████╗██████╔╝██║  ██║██║██████╔╝╚██████╔╝███████╗
 ╚═════╝ ╚═════╝ ╚═╝  ╚═╝╚══════╝╚═════╝ ╚═╝  ╚═╝╚═╝╚═════╝  ╚═════╝ ╚══════╝

(c) 2025 - 2026 CoreBridge Project
https://github.com/corebridge/CoreBridge
License: GPLv3 or later
*/

/*
main_loop.go - Main Polling Loop

The main loop is the firmware's only thread of control outside the two
interrupt service routines. It is an infinite, cooperative scheduler
with one implicit state: running. Each iteration performs the same
fixed sequence; there is no exit path and no error return, because
there is no caller above it.

The PHY-ready wait in the core poll step is an unbounded blocking spin
on hardware readiness. That is not a bug to be fixed with a timeout:
the chip has nothing useful to do before its PHY comes up, and test
harnesses substitute a simulated register instead.
*/

package main

import (
	"runtime"
)

// Run enters the main polling loop and never returns. Once the fatal
// halt state is reached the loop degenerates to the terminal spin.
func (c *BridgeCore) Run() {
	for {
		if c.halted.Load() {
			runtime.Gosched()
			continue
		}
		c.iteration()
	}
}

// RunIterations executes up to n iterations, stopping early on halt.
// Harness entry point; production code uses Run.
func (c *BridgeCore) RunIterations(n int) {
	for i := 0; i < n && !c.halted.Load(); i++ {
		c.iteration()
	}
}

// iteration is one pass of the main loop, in fixed order:
//
//  1. Keep the liveness bit satisfied.
//  2. Five unconditional poll/handler calls.
//  3. The guarded handler group, entered on the event-flag aggregate
//     (mask 0x83). Inside the group the event-state handler is gated
//     on the pending flag, the error/link-state handler on the PCIe
//     link event bit, and the PHY-config and flash-command fast paths
//     on the NVMe completion timer bit.
//  4. Clear both interrupt priority bits, re-enable both lines and
//     the global enable. Masked conditions latched during the
//     iteration are delivered here.
//  5. The critical section: with interrupts disabled, decide from the
//     system-state register and the local latch whether state-machine
//     bookkeeping runs.
func (c *BridgeCore) iteration() {
	c.regs.SetBits(REG_CPU_EXEC, CPU_EXEC_ALIVE)

	c.onTimerLink()
	c.onPhyLinkCfg()
	c.onReserved()
	c.corePollDispatch()
	c.onUsbPowerInit()

	if c.flags.Any(EVT_MASK_MAIN) {
		if c.flags.Any(EVT_PENDING) {
			c.onEvtState()
		}
		if c.regs.Read8(REG_PCIE_LINK)&PCIE_LINK_EVT != 0 {
			c.onErrLinkState()
		}
		if c.regs.Read8(REG_NVME_CPLTMR)&NVME_CPLTMR_EXP != 0 {
			c.onPhyGroup()
			c.onFlashGroup()
		}
	}

	c.irq.ClearPriorityBits()
	c.irq.EnableLine(IRQLineA)
	c.irq.EnableLine(IRQLineB)
	c.irq.EnableGlobal()

	c.irq.CriticalSection(func() {
		state := c.regs.Read8(REG_SYS_STATE)
		if state&SYS_STATE_WORK != 0 || c.stateWork {
			c.stateWork = false
			c.onStateTick()
		}
	})
}

// corePollDispatch is the core poll/dispatch step. It blocks in an
// unbounded spin until the PHY reports ready. A fatal halt raised by
// an interrupt during the spin ends the iteration.
func (c *BridgeCore) corePollDispatch() {
	for c.regs.Read8(REG_PHY_STAT)&PHY_READY == 0 {
		if c.halted.Load() {
			return
		}
		runtime.Gosched()
	}
}

// RequestStateWork arms the local bookkeeping latch consulted inside
// the critical section of the next iteration.
func (c *BridgeCore) RequestStateWork() {
	c.irq.CriticalSection(func() {
		c.stateWork = true
	})
}
