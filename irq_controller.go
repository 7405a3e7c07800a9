// irq_controller.go - Interrupt lines, enable bits and the critical section

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
irq_controller.go - Interrupt Controller for the CoreBridge simulator

The NB583 has exactly one concurrency primitive: two external interrupt
lines preempting a single always-running main loop, with the global
interrupt-enable bit as the only mutual exclusion. The simulator maps
this onto one mutex:

    A service routine runs to completion holding the mutex.
    The main loop holds the mutex for exactly the span of its
    disable/enable critical section, nothing more.
    Raising a line latches a pending bit; delivery happens when the
    mutex is free and both the line and the global enable are set.

A raise that arrives while the mutex is held is only latched, never
dropped: the next enable sweep (the main loop re-enables both lines and
the global bit once per iteration) delivers it. That is exactly when a
masked interrupt fires on the real part, so the latch-and-sweep model
preserves the observable ordering.

The two lines are serialized rather than nested (B cannot preempt A
mid-service here). The chip guarantees no ordering between the lines,
so serialization is observationally equivalent; see DESIGN.md.
*/

package main

import (
	"sync"
	"sync/atomic"
)

type IRQLine int

const (
	IRQLineA IRQLine = iota // Peripheral/transfer events (service routine A)
	IRQLineB                // System/PCIe/NVMe/timer events (service routine B)

	NUM_IRQ_LINES
)

func (l IRQLine) String() string {
	switch l {
	case IRQLineA:
		return "A"
	case IRQLineB:
		return "B"
	}
	return "?"
}

type IRQController struct {
	// mu stands in for the global interrupt-enable bit. Whoever holds
	// it is "running with interrupts off" as far as the rest of the
	// machine can observe.
	mu sync.Mutex

	ea       bool
	enabled  [NUM_IRQ_LINES]bool
	priority [NUM_IRQ_LINES]bool
	pending  [NUM_IRQ_LINES]atomic.Bool

	service [NUM_IRQ_LINES]func()
}

func NewIRQController() *IRQController {
	return &IRQController{}
}

// SetService installs the service routine for one line. Done once at
// machine construction; the vector table is fixed.
func (ic *IRQController) SetService(line IRQLine, fn func()) {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.service[line] = fn
}

// Raise asserts a line from a device model or test. The pending latch
// is level-style: it stays set until the line is serviced. Delivery is
// attempted immediately; if the machine is inside a service routine or
// the critical section, the latch waits for the next sweep.
func (ic *IRQController) Raise(line IRQLine) {
	ic.pending[line].Store(true)
	if ic.mu.TryLock() {
		ic.runPendingLocked()
		ic.mu.Unlock()
	}
}

// runPendingLocked delivers pending lines while the global enable is
// set. After every service run the scan restarts, so a handler that
// latches the other line gets it serviced before delivery returns.
func (ic *IRQController) runPendingLocked() {
	for ic.ea {
		ran := false
		for line := IRQLine(0); line < NUM_IRQ_LINES; line++ {
			if !ic.enabled[line] || ic.service[line] == nil {
				continue
			}
			if ic.pending[line].CompareAndSwap(true, false) {
				ic.service[line]()
				ran = true
			}
		}
		if !ran {
			return
		}
	}
}

// EnableLine arms one line and sweeps for anything already latched.
func (ic *IRQController) EnableLine(line IRQLine) {
	ic.mu.Lock()
	ic.enabled[line] = true
	ic.runPendingLocked()
	ic.mu.Unlock()
}

// DisableLine masks one line. Pending state is preserved.
func (ic *IRQController) DisableLine(line IRQLine) {
	ic.mu.Lock()
	ic.enabled[line] = false
	ic.mu.Unlock()
}

// EnableGlobal sets the global enable bit and sweeps pending lines.
// On the real part this is the moment masked interrupts fire.
func (ic *IRQController) EnableGlobal() {
	ic.mu.Lock()
	ic.ea = true
	ic.runPendingLocked()
	ic.mu.Unlock()
}

// ClearPriorityBits drops both lines' priority bits, re-arming them at
// equal priority. The main loop does this once per iteration.
func (ic *IRQController) ClearPriorityBits() {
	ic.mu.Lock()
	for i := range ic.priority {
		ic.priority[i] = false
	}
	ic.mu.Unlock()
}

// SetPriority raises one line's priority bit. Kept as observable state
// only; delivery here is serialized either way.
func (ic *IRQController) SetPriority(line IRQLine) {
	ic.mu.Lock()
	ic.priority[line] = true
	ic.mu.Unlock()
}

// Priority reports one line's priority bit.
func (ic *IRQController) Priority(line IRQLine) bool {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	return ic.priority[line]
}

// Pending reports whether a line is latched and not yet serviced.
func (ic *IRQController) Pending(line IRQLine) bool {
	return ic.pending[line].Load()
}

// CriticalSection runs fn with the global enable cleared, exactly
// bracketing it the way the main loop's disable/enable pair does. Any
// decision fn makes against shared state cannot be torn by a service
// routine. Pending lines latched meanwhile are delivered on the way
// out, when the enable bit comes back.
func (ic *IRQController) CriticalSection(fn func()) {
	ic.mu.Lock()
	ic.ea = false
	fn()
	ic.ea = true
	ic.runPendingLocked()
	ic.mu.Unlock()
}

// Reset returns the controller to power-on state: everything masked,
// nothing pending. Service bindings survive, like the vector table.
func (ic *IRQController) Reset() {
	ic.mu.Lock()
	defer ic.mu.Unlock()
	ic.ea = false
	for i := range ic.enabled {
		ic.enabled[i] = false
		ic.priority[i] = false
		ic.pending[i].Store(false)
	}
}
