// bank_trampoline.go - Code-segment virtualization and cross-bank calls

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
bank_trampoline.go - Segment Trampoline for the CoreBridge simulator

The NB583's CPU addresses 64KB of code at a time while the firmware
occupies ~96KB. The lower 32KB (the common segment) is always resident;
the upper 32KB window is time-multiplexed between two banks by a
single-bit segment selector. The firmware crosses banks with a
return-oriented trampoline: the caller pushes the target address,
the trampoline flips the selector and "returns" into the new bank.

The simulation does not reproduce the stack trick. It preserves the
externally observable contract instead:

    A handler is a HandlerID (16-bit offset, bank), fixed at build time.
    Invoke is the only place the selector ever changes.
    During a banked handler's execution the selector equals its bank;
    on return the selector again equals the bank of the next banked
    frame up. The selector is a pure function of who is executing,
    maintained as a logical bank stack and verified at every transfer.
    Nested cross-bank calls (bank B calling back into bank A) work.
    Common code and data are addressable regardless of the selector.
*/

package main

import (
	"fmt"
	"sync"
)

// Bank identifies a logical code segment.
type Bank uint8

const (
	BankCommon Bank = iota // Always resident, code 0x0000-0x7FFF
	BankA                  // Upper window 0x8000-0xFFFF, selector 0
	BankB                  // Upper window 0x8000-0xFFFF, selector 1
)

func (b Bank) String() string {
	switch b {
	case BankCommon:
		return "common"
	case BankA:
		return "bankA"
	case BankB:
		return "bankB"
	}
	return fmt.Sprintf("bank(%d)", uint8(b))
}

// Code window geometry.
const (
	BANK_SIZE   = 0x8000 // 32KB per segment
	BANK_WINDOW = 0x8000 // Upper-half window base
)

// HandlerID addresses a dispatch target: a 16-bit code offset plus the
// bank it resides in. Targets are fixed at build time; there is no
// dynamic registration once the table is sealed.
type HandlerID struct {
	Offset uint16
	Bank   Bank
}

func (id HandlerID) String() string {
	return fmt.Sprintf("%s:0x%04X", id.Bank, id.Offset)
}

type BankController struct {
	/*
		BankController owns the single mutable segment selector, the
		dispatch table and the banked code window. The selector is
		updated only inside Invoke; everything else may only read it.
	*/

	mu       sync.Mutex
	selector Bank   // BankA or BankB: which bank the upper window maps
	stack    []Bank // logical module stack, bottom is the reset context

	table  map[HandlerID]func()
	sealed bool

	// Code segments. Index by Bank; BankCommon is the lower half.
	code [3][]byte
}

func NewBankController() *BankController {
	bc := &BankController{
		selector: BankA,
		stack:    []Bank{BankCommon},
		table:    make(map[HandlerID]func()),
	}
	for i := range bc.code {
		bc.code[i] = make([]byte, BANK_SIZE)
	}
	return bc
}

// Bind installs a dispatch target. Panics after Seal: the firmware's
// dispatch targets are link-time constants, never runtime state.
func (bc *BankController) Bind(id HandlerID, fn func()) {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if bc.sealed {
		panic("bank controller: Bind after Seal")
	}
	bc.table[id] = fn
}

// Seal freezes the dispatch table.
func (bc *BankController) Seal() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.sealed = true
}

// residencyLocked returns the bank the currently executing logical
// module expects in the upper window: the nearest banked frame from
// the top of the stack. Common frames are transparent; if the whole
// stack is common code the selector value is immaterial and the
// current one is reported.
func (bc *BankController) residencyLocked() Bank {
	for i := len(bc.stack) - 1; i >= 0; i-- {
		if bc.stack[i] != BankCommon {
			return bc.stack[i]
		}
	}
	return bc.selector
}

// Invoke transfers control into a dispatch target, standing in for the
// trampoline pair of the original firmware. For banked targets it
// writes the selector immediately before the transfer and restores it
// to the next frame's expectation on return. The consistency check at
// the transfer point is the simulation's form of the firmware's
// implicit invariant that the selector always matches whoever is
// currently executing.
func (bc *BankController) Invoke(id HandlerID) {
	bc.mu.Lock()
	fn := bc.table[id]
	if fn == nil {
		bc.mu.Unlock()
		panic(fmt.Sprintf("bank controller: unbound dispatch target %s", id))
	}
	if id.Bank != BankCommon {
		if have := bc.residencyLocked(); have != bc.selector {
			bc.mu.Unlock()
			panic(fmt.Sprintf("bank controller: selector %s does not match executing module %s", bc.selector, have))
		}
		bc.selector = id.Bank
	}
	bc.stack = append(bc.stack, id.Bank)
	bc.mu.Unlock()

	fn()

	bc.mu.Lock()
	bc.stack = bc.stack[:len(bc.stack)-1]
	if id.Bank != BankCommon {
		bc.selector = bc.residencyLocked()
	}
	bc.mu.Unlock()
}

// Selector returns the current segment selector value.
func (bc *BankController) Selector() Bank {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return bc.selector
}

// Depth returns the logical call depth, reset context included.
func (bc *BankController) Depth() int {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	return len(bc.stack)
}

// InstallSegment loads one 32KB code segment into the window model.
func (bc *BankController) InstallSegment(bank Bank, data []byte) error {
	if int(bank) >= len(bc.code) {
		return fmt.Errorf("install segment: unknown bank %d", bank)
	}
	if len(data) != BANK_SIZE {
		return fmt.Errorf("install segment %s: got %d bytes, want %d", bank, len(data), BANK_SIZE)
	}
	bc.mu.Lock()
	defer bc.mu.Unlock()
	copy(bc.code[bank], data)
	return nil
}

// CodeRead reads one byte of code space as the CPU would see it: the
// lower half always resolves to the common segment, the upper half to
// whichever bank the selector currently maps. This is the observable
// all-or-nothing property of a bank switch.
func (bc *BankController) CodeRead(addr uint16) uint8 {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	if addr < BANK_WINDOW {
		return bc.code[BankCommon][addr]
	}
	return bc.code[bc.selector][addr-BANK_WINDOW]
}

// Reset drops any in-flight call state and returns the selector to its
// power-on value. Installed code and the dispatch table survive.
func (bc *BankController) Reset() {
	bc.mu.Lock()
	defer bc.mu.Unlock()
	bc.selector = BankA
	bc.stack = bc.stack[:0]
	bc.stack = append(bc.stack, BankCommon)
}
