// registers.go - Centralized XDATA register address map for CoreBridge

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
registers.go - Master XDATA Register Address Map

This file provides a centralized reference for the NB583 bridge
controller's external-data register space as modeled by the simulator.
Individual subsystems keep their detailed bit definitions next to the
addresses they belong to; everything lives here so the dispatcher, the
main loop, the monitor, the script host and the tests all share one map.

MEMORY MAP OVERVIEW
===================

Address Range       Block                       Serviced by
---------------------------------------------------------------------------
0x7000-0x702F       Transfer/endpoint block     Service routine A
0x7100-0x710F       System/PCIe/NVMe block      Service routine B
0x7200-0x720F       CPU execution / PHY block   Main polling loop
0x7300-0x730F       Diagnostic port (UART)      terminal_output.go
0x7400              Event flag byte (software)  event_flags.go

Code space is separate from this map: 0x0000-0x7FFF is the always
resident common segment, 0x8000-0xFFFF is the banked window selected
by the segment selector (see bank_trampoline.go).

All hardware status registers follow the write-1-to-clear discipline:
reading returns the live condition bits, and writing clears exactly the
set bits that were written as 1, leaving all other bits untouched.
*/

package main

// ------------------------------------------------------------------------------
// Transfer/endpoint block (interrupt line A)
// ------------------------------------------------------------------------------
const (
	REG_XFR_MASTER = 0x7000 // Master transfer status
	REG_XFR_BUF    = 0x7001 // Transfer buffer status
	REG_AUX_PERIPH = 0x7002 // Auxiliary peripheral events
	REG_EP_GLOBAL  = 0x7003 // Global endpoint status

	REG_EP_INDEX = 0x7010 // Endpoint table index (write to select entry)
	REG_EP_STAT0 = 0x7011 // Endpoint status, first chained byte (W1C)
	REG_EP_STAT1 = 0x7012 // Endpoint status, second chained byte (W1C)

	REG_NVME_QSTAT = 0x7020 // Deferred NVMe queue busy/ready flags
	REG_NVME_CPL   = 0x7021 // Deferred NVMe completion acknowledge (W1C)
)

// REG_XFR_MASTER bits
const (
	XFR_MASTER_EP_DIRECT  = 0x01 // Skip secondary checks, go straight to the endpoint loop
	XFR_MASTER_NVME_DEFER = 0x40 // Deferred NVMe queue pass requested
)

// REG_NVME_QSTAT bits
const (
	NVME_QSTAT_BUSY  = 0x01
	NVME_QSTAT_READY = 0x02
)

// Endpoint loop limits. The first translation table maps a status
// nibble to one of EP_SLOT_COUNT per-entry handler slots; the second
// maps into the mirrored upper range and feeds only the loop
// termination test. EP_XLAT_SENTINEL is the first value outside both
// ranges and ends the loop.
const (
	EP_LOOP_MAX      = 32
	EP_SLOT_COUNT    = 4
	EP_XLAT_SENTINEL = 8
	NVME_DEFER_MAX   = 32
)

// ------------------------------------------------------------------------------
// System/PCIe/NVMe block (interrupt line B)
// ------------------------------------------------------------------------------
const (
	REG_SYS_EVENT   = 0x7100 // System event status
	REG_CPU_STAT2   = 0x7101 // Secondary CPU status
	REG_NVME_QPEND  = 0x7102 // NVMe queue pending status
	REG_PCIE_LINK   = 0x7103 // PCIe link event status
	REG_NVME_CPLTMR = 0x7104 // NVMe completion timer status
	REG_NVME_EVENT  = 0x7105 // NVMe event pending status
	REG_PCIE_EVENT  = 0x7106 // Combined PCIe event/error status
	REG_SYS_TIMER   = 0x7107 // System timer status
)

const (
	SYS_EVENT_PENDING = 0x01
	CPU_STAT2_DISP    = 0x02 // Buffer dispatch requested
	NVME_QPEND_SET    = 0x01
	PCIE_LINK_EVT     = 0x01
	NVME_CPLTMR_EXP   = 0x01
	NVME_EVENT_PEND   = 0x01
	SYS_TIMER_TICK    = 0x01
)

// REG_PCIE_EVENT bits. PCIE_EVENT_ERR_MASK is the combined mask that
// routes to the bank-B error/recovery handler; PCIE_EVENT_FATAL inside
// it marks the unrecoverable DMA/init failure that ends in a halt.
const (
	PCIE_EVENT_AER      = 0x02
	PCIE_EVENT_SURPDN   = 0x04
	PCIE_EVENT_HOTRST   = 0x08
	PCIE_EVENT_FATAL    = 0x10
	PCIE_EVENT_ERR_MASK = PCIE_EVENT_AER | PCIE_EVENT_SURPDN | PCIE_EVENT_HOTRST | PCIE_EVENT_FATAL
)

// ------------------------------------------------------------------------------
// CPU execution / PHY block (main polling loop)
// ------------------------------------------------------------------------------
const (
	REG_CPU_EXEC  = 0x7200 // CPU execution status (liveness bit)
	REG_SYS_STATE = 0x7201 // System state, read inside the critical section
	REG_PHY_STAT  = 0x7202 // PHY link status
	REG_PHY_CFG   = 0x7203 // PHY link parameter configuration
)

const (
	CPU_EXEC_ALIVE = 0x01
	SYS_STATE_WORK = 0x01 // State-machine bookkeeping requested
	PHY_READY      = 0x01
)

// ------------------------------------------------------------------------------
// Diagnostic port (see terminal_output.go)
// ------------------------------------------------------------------------------
const (
	REG_DIAG_DATA = 0x7300 // Write: emit one byte
	REG_DIAG_STAT = 0x7301 // Bit 0: transmitter ready (always set in simulation)
)

const DIAG_STAT_TXRDY = 0x01

// ------------------------------------------------------------------------------
// Event flag byte (software state, see event_flags.go)
// ------------------------------------------------------------------------------
const REG_EVENT_FLAGS = 0x7400

// Register space size. The NB583 decodes a flat 16-bit XDATA space.
const REG_SPACE_SIZE = 0x10000
