// debug_monitor_test.go - Monitor command tests

package main

import (
	"bytes"
	"strings"
	"testing"
)

func monitorFixture() (*MachineMonitor, *BridgeCore, *bytes.Buffer) {
	core := NewBridgeCore()
	out := &bytes.Buffer{}
	return NewMachineMonitor(core, out), core, out
}

func TestMonitorReadWriteCommands(t *testing.T) {
	m, core, out := monitorFixture()

	m.Execute("wr 0x7000 0x41")
	if got := core.Regs().Peek(REG_XFR_MASTER); got != 0x41 {
		t.Fatalf("wr left 0x%02X, want 0x41", got)
	}

	out.Reset()
	m.Execute("rd 0x7000")
	if !strings.Contains(out.String(), "0x41") {
		t.Errorf("rd output %q missing value", out.String())
	}

	m.Execute("w1c 0x7000 0x40")
	if got := core.Regs().Peek(REG_XFR_MASTER); got != 0x01 {
		t.Errorf("w1c left 0x%02X, want 0x01", got)
	}

	m.Execute("set 0x7000 0x80")
	if got := core.Regs().Peek(REG_XFR_MASTER); got != 0x81 {
		t.Errorf("set left 0x%02X, want 0x81", got)
	}
}

func TestMonitorIRQAndStep(t *testing.T) {
	m, core, out := monitorFixture()
	core.Regs().SetBits(REG_PHY_STAT, PHY_READY)

	m.Execute("irq b")
	if !core.IRQ().Pending(IRQLineB) {
		t.Error("irq b did not latch the line while masked")
	}

	m.Execute("step 2")
	if core.IRQ().Pending(IRQLineB) {
		t.Error("latched line not delivered by stepping")
	}

	out.Reset()
	m.Execute("flags")
	if !strings.Contains(out.String(), "event flags") {
		t.Errorf("flags output %q", out.String())
	}

	out.Reset()
	m.Execute("bank")
	if !strings.Contains(out.String(), "bankA") {
		t.Errorf("bank output %q", out.String())
	}
}

func TestMonitorBlankLine(t *testing.T) {
	m, _, out := monitorFixture()
	m.Execute("")
	m.Execute("   ")
	if out.Len() != 0 {
		t.Errorf("blank line produced output %q", out.String())
	}
}

func TestMonitorUnknownCommand(t *testing.T) {
	m, _, out := monitorFixture()
	m.Execute("frobnicate")
	if !strings.Contains(out.String(), "unknown command") {
		t.Errorf("output %q", out.String())
	}
}

func TestMonitorRepl(t *testing.T) {
	m, core, _ := monitorFixture()
	in := strings.NewReader("wr 0x7400 0x83\nhalt?\nquit\nwr 0x7400 0x00\n")
	m.Repl(in)
	if got := core.Flags().Value(); got != 0x83 {
		t.Errorf("flags = 0x%02X: repl did not execute commands before quit", got)
	}
}
