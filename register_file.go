// register_file.go - Shared register-cell model for CoreBridge

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
register_file.go - Register File for the CoreBridge simulator

This module implements the shared register space that every part of the
NB583 core communicates through. The real chip has no argument passing
between the dispatcher, the handlers and the main loop; all state flows
through these cells, so the simulation gives the register file the same
central role and injects it everywhere.

Core Features:

    Flat 16-bit address space of 8-bit cells.
    Write-1-to-clear acknowledge semantics via WriteClear, reproduced
    bit-for-bit: only the written 1-bits clear, other bits are untouched.
    Read-modify-write SetBits/ClearBits performed under the file's lock
    so no partially-updated cell is ever observable.
    I/O hook regions with onRead/onWrite callbacks, so tests and device
    models can intercept accesses to simulated hardware cells.
    Hook table sealed once the machine starts, matching the chip's
    build-time-fixed decode.

The mutex here protects individual cell accesses only. Mutual exclusion
between whole routines (the critical section of the main loop) is the
interrupt controller's job, not the register file's.
*/

package main

import (
	"sync"
)

type RegHook struct {
	/*
		RegHook represents an intercepted register region.
		Each region is defined by its start and end addresses and
		includes callback functions invoked on read and write.

		onRead, if non-nil, provides the value returned by Read8
		in place of the stored cell. onWrite, if non-nil, observes
		every store after it has been applied to the cell.
	*/
	start   uint16
	end     uint16
	onRead  func(addr uint16) uint8
	onWrite func(addr uint16, value uint8)
}

type RegisterFile struct {
	/*
		RegisterFile is the process-wide register/flag state of the
		simulated chip. It exists for the lifetime of the machine;
		Reset clears the cells but never the hook table.
	*/

	mu    sync.Mutex
	cells [REG_SPACE_SIZE]uint8
	hooks []RegHook

	sealed bool
}

func NewRegisterFile() *RegisterFile {
	rf := &RegisterFile{}
	rf.installDefaults()
	return rf
}

// installDefaults applies the power-on values. The diagnostic port's
// transmitter-ready bit is hard-wired set in simulation.
func (rf *RegisterFile) installDefaults() {
	rf.cells[REG_DIAG_STAT] = DIAG_STAT_TXRDY
}

// MapHook registers an I/O hook region. Panics if called after Seal,
// mirroring the bus-seal discipline: the decode is fixed before any
// code runs, never while it runs.
func (rf *RegisterFile) MapHook(start, end uint16, onRead func(uint16) uint8, onWrite func(uint16, uint8)) {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	if rf.sealed {
		panic("register file: MapHook after Seal")
	}
	rf.hooks = append(rf.hooks, RegHook{start: start, end: end, onRead: onRead, onWrite: onWrite})
}

// Seal freezes the hook table. Called once when execution starts.
func (rf *RegisterFile) Seal() {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	rf.sealed = true
}

func (rf *RegisterFile) hookFor(addr uint16) *RegHook {
	for i := range rf.hooks {
		h := &rf.hooks[i]
		if addr >= h.start && addr <= h.end {
			return h
		}
	}
	return nil
}

// Read8 returns the current value of one cell.
func (rf *RegisterFile) Read8(addr uint16) uint8 {
	rf.mu.Lock()
	h := rf.hookFor(addr)
	if h != nil && h.onRead != nil {
		rf.mu.Unlock()
		// Hooks run outside the lock; they may poke other cells.
		return h.onRead(addr)
	}
	v := rf.cells[addr]
	rf.mu.Unlock()
	return v
}

// Write8 stores a value unconditionally. Most hardware status cells
// are never written this way by firmware code; they use WriteClear.
func (rf *RegisterFile) Write8(addr uint16, value uint8) {
	rf.mu.Lock()
	rf.cells[addr] = value
	h := rf.hookFor(addr)
	rf.mu.Unlock()
	if h != nil && h.onWrite != nil {
		h.onWrite(addr, value)
	}
}

// WriteClear performs a write-1-to-clear acknowledge: every bit set in
// value clears the corresponding cell bit, every zero bit is untouched.
// This is the acknowledge discipline of all NB583 status registers and
// must not be approximated as "clear all".
func (rf *RegisterFile) WriteClear(addr uint16, value uint8) {
	rf.mu.Lock()
	rf.cells[addr] &^= value
	h := rf.hookFor(addr)
	rf.mu.Unlock()
	if h != nil && h.onWrite != nil {
		h.onWrite(addr, value)
	}
}

// SetBits sets the given bits, leaving the rest of the cell untouched.
// The read-modify-write runs under the file's lock.
func (rf *RegisterFile) SetBits(addr uint16, mask uint8) {
	rf.mu.Lock()
	rf.cells[addr] |= mask
	h := rf.hookFor(addr)
	rf.mu.Unlock()
	if h != nil && h.onWrite != nil {
		h.onWrite(addr, mask)
	}
}

// ClearBits clears the given bits under the file's lock. This is the
// simulator-side primitive device models use to deassert conditions;
// firmware-side code acknowledges through WriteClear instead.
func (rf *RegisterFile) ClearBits(addr uint16, mask uint8) {
	rf.mu.Lock()
	rf.cells[addr] &^= mask
	rf.mu.Unlock()
}

// Peek reads a cell without consulting hooks. Monitor and test use.
func (rf *RegisterFile) Peek(addr uint16) uint8 {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	return rf.cells[addr]
}

// Reset clears every cell and reinstalls power-on defaults. Hooks
// survive reset, like the decode logic of the real chip.
func (rf *RegisterFile) Reset() {
	rf.mu.Lock()
	defer rf.mu.Unlock()
	for i := range rf.cells {
		rf.cells[i] = 0
	}
	rf.installDefaults()
}
