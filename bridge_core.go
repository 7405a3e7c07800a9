// bridge_core.go - Machine assembly for the CoreBridge simulator

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
bridge_core.go - BridgeCore assembly

BridgeCore wires the register file, the event flags, the bank
controller, the interrupt controller and the diagnostic port into one
machine and owns the handler entry points the dispatch skeleton calls.

Every handler is a parameterless call: state is communicated entirely
through the shared register file, never through arguments or return
values, and a handler must not widen the interrupt enable state it was
entered with. The default handler bodies perform only the register and
event-flag side effects that are fixed by the recovered control flow;
each one is a replaceable func field so a test or a device model can
stand in for the unrecovered leaf behavior.
*/

package main

import (
	"sync/atomic"
)

type BridgeCore struct {
	regs  *RegisterFile
	flags *EventFlags
	banks *BankController
	irq   *IRQController
	diag  *DiagPort

	halted atomic.Bool

	// stateWork is the local latch consulted inside the main loop's
	// critical section, next to REG_SYS_STATE.
	stateWork bool

	// Endpoint translation tables: status nibble -> handler slot.
	// Values >= EP_XLAT_SENTINEL terminate the endpoint loop; a zero
	// status byte translates to the sentinel, so an idle endpoint
	// table ends the loop on its first iteration. Only the first
	// table dispatches; the second lands in the mirrored 4-7 range
	// and is consulted for termination alone, so the handler table
	// covers the first table's slot range.
	epXlat0 [16]uint8
	epXlat1 [16]uint8

	// Service routine A leaves.
	onXfrBuf     func()
	onAuxPeriph  func()
	onEpGlobal   func()
	epHandlers   [EP_SLOT_COUNT]func()
	onNvmeQBusy  func()
	onNvmeQReady func()

	// Service routine B leaves.
	onSystemEvent  func()
	onBufDispatch  func()
	onNvmeQueue    func()
	onPcieLink     func()
	onNvmeCplTimer func()
	onNvmeEvent    func()
	onSysTimer     func()
	onPcieRecovery func() // resides in bank B, reached through the trampoline

	// Main loop leaves.
	onTimerLink    func()
	onPhyLinkCfg   func()
	onReserved     func()
	onUsbPowerInit func()
	onEvtState     func()
	onErrLinkState func()
	onPhyGroup     func()
	onFlashGroup   func()
	onStateTick    func()
}

// Dispatch target of the error/recovery handler. It lives in the
// non-resident bank, so service routine B must reach it through the
// trampoline; the offset is the entry point in bank B's code segment.
var hPcieErrRecovery = HandlerID{Offset: 0x32F0, Bank: BankB}

func NewBridgeCore() *BridgeCore {
	c := &BridgeCore{
		regs:  NewRegisterFile(),
		banks: NewBankController(),
		irq:   NewIRQController(),
	}
	c.flags = NewEventFlags(c.regs)
	c.diag = NewDiagPort(c.regs)

	c.installXlatTables()
	c.installDefaultHandlers()

	c.banks.Bind(hPcieErrRecovery, func() { c.onPcieRecovery() })

	c.irq.SetService(IRQLineA, c.ServiceRoutineA)
	c.irq.SetService(IRQLineB, c.ServiceRoutineB)

	return c
}

// installXlatTables builds the endpoint translation tables. Nibble 0
// maps to the sentinel; nibbles with exactly one bit set map to their
// slot pair; multi-bit nibbles resolve to the lowest set bit, which is
// how the recovered tables behave for every populated entry.
func (c *BridgeCore) installXlatTables() {
	for n := 0; n < 16; n++ {
		if n == 0 {
			c.epXlat0[n] = EP_XLAT_SENTINEL
			c.epXlat1[n] = EP_XLAT_SENTINEL
			continue
		}
		low := uint8(0)
		for bit := uint8(0); bit < 4; bit++ {
			if n&(1<<bit) != 0 {
				low = bit
				break
			}
		}
		c.epXlat0[n] = low
		c.epXlat1[n] = low + 4
	}
}

// installDefaultHandlers binds every entry point to its default body.
// Defaults carry only the side effects fixed by the dispatch skeleton:
// event-flag writes and acknowledge patterns. The leaf internals are
// external collaborators of this core.
func (c *BridgeCore) installDefaultHandlers() {
	nop := func() {}

	c.onXfrBuf = nop
	c.onAuxPeriph = nop
	c.onEpGlobal = nop
	for i := range c.epHandlers {
		c.epHandlers[i] = nop
	}
	c.onNvmeQBusy = nop
	c.onNvmeQReady = nop

	c.onSystemEvent = func() { c.flags.Set(EVT_ACTIVE) }
	c.onBufDispatch = nop
	c.onNvmeQueue = func() { c.flags.Set(EVT_PENDING) }
	c.onPcieLink = func() { c.flags.Set(EVT_PENDING | EVT_ACTIVE) }
	c.onNvmeCplTimer = func() { c.flags.Set(EVT_PROC_REQ) }
	c.onNvmeEvent = nop
	c.onSysTimer = nop
	c.onPcieRecovery = c.pcieRecovery

	c.onTimerLink = nop
	c.onPhyLinkCfg = nop
	c.onReserved = nop
	c.onUsbPowerInit = func() { c.flags.Set(EVT_POWER) }
	c.onEvtState = nop
	c.onErrLinkState = nop
	c.onPhyGroup = nop
	c.onFlashGroup = nop
	c.onStateTick = nop
}

// pcieRecovery is the default bank-B error/recovery handler. It
// forwards recoverable PCIe error conditions by flagging them for the
// main loop and acknowledges what it observed. The fatal condition is
// the one explicit-hang branch of the firmware: diagnostics out, then
// the terminal halt state.
func (c *BridgeCore) pcieRecovery() {
	ev := c.regs.Read8(REG_PCIE_EVENT)
	if ev&PCIE_EVENT_FATAL != 0 {
		c.FatalHalt("PCIE DMA INIT FAIL")
	}
	c.flags.Set(EVT_PENDING | EVT_ACTIVE)
	c.regs.WriteClear(REG_PCIE_EVENT, ev&PCIE_EVENT_ERR_MASK)
}

// Regs exposes the register file (monitor, script host, device models).
func (c *BridgeCore) Regs() *RegisterFile { return c.regs }

// Flags exposes the event flag view.
func (c *BridgeCore) Flags() *EventFlags { return c.flags }

// Banks exposes the bank controller.
func (c *BridgeCore) Banks() *BankController { return c.banks }

// IRQ exposes the interrupt controller.
func (c *BridgeCore) IRQ() *IRQController { return c.irq }

// Diag exposes the diagnostic port.
func (c *BridgeCore) Diag() *DiagPort { return c.diag }

// Seal freezes the register decode and dispatch table. Call once,
// before Run or any interrupt delivery.
func (c *BridgeCore) Seal() {
	c.regs.Seal()
	c.banks.Seal()
}
