// irq_dispatch.go - The two interrupt service routines

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
irq_dispatch.go - Interrupt Dispatchers

Each hardware interrupt line has one service routine, structured as a
fixed, ordered chain of poll -> maybe-handle -> continue steps over a
fixed list of status registers. The order is load-bearing: the USB,
PCIe and NVMe subsystems assume this exact sequencing and its
acknowledge-before-read patterns, so the steps below mirror the
recovered program order one for one.

Every step is evaluated on every entry, in textual order, regardless of
what fired last time. There is no priority reordering and no masking
between steps; multiple conditions are serviced in a single entry. A
step whose guard is false touches nothing.
*/

package main

// ServiceRoutineA handles the peripheral/transfer line.
//
// Poll order:
//  1. Master status bit 0 clear: run the secondary check block
//     (transfer buffers, auxiliary peripheral events, global endpoint
//     status), then fall into the endpoint loop. Bit 0 set: straight
//     to the endpoint loop.
//  2. Endpoint loop: up to EP_LOOP_MAX indexed entries, two chained
//     status bytes each, two translation-table lookups, one per-entry
//     handler, observed bits written back W1C. Ends early when either
//     lookup reaches the sentinel.
//  3. Deferred NVMe pass, only if its master bit is set: poll the
//     queue busy/ready flags with fallback handlers, then acknowledge
//     the completion register.
func (c *BridgeCore) ServiceRoutineA() {
	if c.halted.Load() {
		return
	}

	master := c.regs.Read8(REG_XFR_MASTER)
	if master&XFR_MASTER_EP_DIRECT == 0 {
		c.secondaryCheckBlock()
	}

	c.endpointLoop()

	if c.regs.Read8(REG_XFR_MASTER)&XFR_MASTER_NVME_DEFER != 0 {
		c.deferredNvmePass()
	}
}

// secondaryCheckBlock covers the extended checks taken when the master
// register does not indicate direct endpoint work. Each register is an
// independent guarded step with its own acknowledge.
func (c *BridgeCore) secondaryCheckBlock() {
	if v := c.regs.Read8(REG_XFR_BUF); v != 0 {
		c.regs.WriteClear(REG_XFR_BUF, v)
		c.onXfrBuf()
	}
	if v := c.regs.Read8(REG_AUX_PERIPH); v != 0 {
		c.regs.WriteClear(REG_AUX_PERIPH, v)
		c.onAuxPeriph()
	}
	if v := c.regs.Read8(REG_EP_GLOBAL); v != 0 {
		c.regs.WriteClear(REG_EP_GLOBAL, v)
		c.onEpGlobal()
	}
}

// endpointLoop walks the indexed endpoint table. Writing REG_EP_INDEX
// selects the entry whose chained status bytes appear in REG_EP_STAT0
// and REG_EP_STAT1; device models hook those cells. A zero status
// nibble translates to the sentinel, so an idle table terminates the
// loop on its first iteration without calling any handler.
func (c *BridgeCore) endpointLoop() {
	for i := 0; i < EP_LOOP_MAX; i++ {
		c.regs.Write8(REG_EP_INDEX, uint8(i))
		s0 := c.regs.Read8(REG_EP_STAT0)
		s1 := c.regs.Read8(REG_EP_STAT1)

		slot0 := c.epXlat0[s0&0x0F]
		slot1 := c.epXlat1[s1&0x0F]
		if slot0 >= EP_XLAT_SENTINEL || slot1 >= EP_XLAT_SENTINEL {
			break
		}

		// The second lookup only participated in the termination test
		// above; dispatch goes through the first table.
		c.epHandlers[slot0]()

		// Acknowledge exactly the observed bits.
		c.regs.WriteClear(REG_EP_STAT0, s0)
		c.regs.WriteClear(REG_EP_STAT1, s1)
	}
}

// deferredNvmePass drains queue work that was deferred to interrupt
// context. Busy entries take precedence over ready entries; an idle
// queue ends the pass. The completion register is acknowledged last.
func (c *BridgeCore) deferredNvmePass() {
	for i := 0; i < NVME_DEFER_MAX; i++ {
		q := c.regs.Read8(REG_NVME_QSTAT)
		if q&NVME_QSTAT_BUSY != 0 {
			c.onNvmeQBusy()
		} else if q&NVME_QSTAT_READY != 0 {
			c.onNvmeQReady()
		} else {
			break // idle queue, done
		}
	}
	cpl := c.regs.Read8(REG_NVME_CPL)
	c.regs.WriteClear(REG_NVME_CPL, cpl)
}

// ServiceRoutineB handles the system/PCIe/NVMe/timer line.
//
// Poll order: system event; secondary CPU status (acknowledge, then
// buffer dispatch); NVMe queue; then, only when the event-flag
// aggregate (mask 0x81) is non-zero, the PCIe link event, the NVMe
// completion timer, the NVMe pending event (acknowledge and process)
// and the combined PCIe event mask, whose handler lives in the
// non-resident bank and is reached through the trampoline. The system
// timer check runs unconditionally at the end.
func (c *BridgeCore) ServiceRoutineB() {
	if c.halted.Load() {
		return
	}

	if c.regs.Read8(REG_SYS_EVENT)&SYS_EVENT_PENDING != 0 {
		c.onSystemEvent()
	}

	if c.regs.Read8(REG_CPU_STAT2)&CPU_STAT2_DISP != 0 {
		c.regs.WriteClear(REG_CPU_STAT2, CPU_STAT2_DISP)
		c.onBufDispatch()
	}

	if c.regs.Read8(REG_NVME_QPEND)&NVME_QPEND_SET != 0 {
		c.onNvmeQueue()
	}

	if c.flags.Any(EVT_MASK_IRQ) {
		if c.regs.Read8(REG_PCIE_LINK)&PCIE_LINK_EVT != 0 {
			c.onPcieLink()
		}
		if c.regs.Read8(REG_NVME_CPLTMR)&NVME_CPLTMR_EXP != 0 {
			c.onNvmeCplTimer()
		}
		if c.regs.Read8(REG_NVME_EVENT)&NVME_EVENT_PEND != 0 {
			c.regs.WriteClear(REG_NVME_EVENT, NVME_EVENT_PEND)
			c.onNvmeEvent()
		}
		if c.regs.Read8(REG_PCIE_EVENT)&PCIE_EVENT_ERR_MASK != 0 {
			c.banks.Invoke(hPcieErrRecovery)
		}
	}

	if c.regs.Read8(REG_SYS_TIMER)&SYS_TIMER_TICK != 0 {
		c.onSysTimer()
	}
}
