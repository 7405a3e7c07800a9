// reset_lifecycle_test.go - Whole-machine power-on reset tests

package main

import (
	"testing"
)

func TestResetReturnsMachineToPowerOn(t *testing.T) {
	core := NewBridgeCore()
	core.Seal()

	// Dirty every component the way a running scenario would.
	core.Regs().Write8(REG_XFR_MASTER, 0xFF)
	core.Flags().Set(EVT_PENDING | EVT_ACTIVE)
	core.IRQ().Raise(IRQLineB)
	core.RequestStateWork()
	core.halted.Store(true)
	emitDiag(core.Regs(), "OLD RUN\n")

	core.Reset()

	if got := core.Regs().Peek(REG_XFR_MASTER); got != 0 {
		t.Errorf("REG_XFR_MASTER = 0x%02X after reset", got)
	}
	if got := core.Flags().Value(); got != 0 {
		t.Errorf("event flags = 0x%02X after reset", got)
	}
	if core.IRQ().Pending(IRQLineB) {
		t.Error("pending interrupt survived reset")
	}
	if core.Halted() {
		t.Error("halt state survived reset")
	}
	if len(core.Diag().Lines()) != 0 {
		t.Error("diagnostic scrollback survived reset")
	}
	if got := core.Banks().Selector(); got != BankA {
		t.Errorf("bank selector = %s after reset, want bankA", got)
	}
	if got := core.Regs().Peek(REG_DIAG_STAT); got&DIAG_STAT_TXRDY == 0 {
		t.Errorf("REG_DIAG_STAT = 0x%02X, transmit-ready default missing", got)
	}
}

func TestResetPreservesFirmwareAndBindings(t *testing.T) {
	core := NewBridgeCore()
	bankA := make([]byte, BANK_SIZE)
	bankA[0x1200] = 0xEE
	data, err := BuildFirmwareImage(nil, bankA, nil)
	if err != nil {
		t.Fatal(err)
	}
	img, err := ParseFirmwareImage(data)
	if err != nil {
		t.Fatal(err)
	}
	if err := img.Install(core.Banks()); err != nil {
		t.Fatal(err)
	}
	core.Seal()

	core.Reset()

	// Segment content survives like mask ROM; the reset selector maps
	// bank A into the window.
	if got := core.Banks().CodeRead(BANK_WINDOW + 0x1200); got != 0xEE {
		t.Fatalf("bank window read 0x%02X after reset, want installed byte", got)
	}

	// The dispatch binding still reaches the recovery handler: a fatal
	// PCIe event must still take the machine down through the trampoline.
	core.Regs().SetBits(REG_PCIE_EVENT, PCIE_EVENT_FATAL)
	go core.Banks().Invoke(hPcieErrRecovery)
	waitFor(t, core.Halted)
	if !core.Diag().Contains("PCIE DMA INIT FAIL") {
		t.Error("fatal diagnostics missing after reset")
	}
}
