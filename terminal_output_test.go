// terminal_output_test.go - Diagnostic port tests

package main

import (
	"bytes"
	"testing"
)

func diagFixture() (*RegisterFile, *DiagPort) {
	regs := NewRegisterFile()
	d := NewDiagPort(regs)
	regs.Seal()
	return regs, d
}

func emitDiag(regs *RegisterFile, s string) {
	for i := 0; i < len(s); i++ {
		regs.Write8(REG_DIAG_DATA, s[i])
	}
}

func TestDiagPortAssemblesLines(t *testing.T) {
	regs, d := diagFixture()

	emitDiag(regs, "PHY UP\n")
	emitDiag(regs, "LINK ")
	if got := d.LastLine(); got != "PHY UP" {
		t.Fatalf("LastLine = %q, want %q", got, "PHY UP")
	}
	if len(d.Lines()) != 1 {
		t.Fatalf("partial line must not appear in scrollback, got %v", d.Lines())
	}

	emitDiag(regs, "TRAINED\n")
	if got := d.LastLine(); got != "LINK TRAINED" {
		t.Fatalf("LastLine = %q, want %q", got, "LINK TRAINED")
	}
	if !d.Contains("TRAINED") || d.Contains("NVME") {
		t.Error("Contains does not match scrollback")
	}
}

func TestDiagPortSink(t *testing.T) {
	regs, d := diagFixture()
	var buf bytes.Buffer
	d.SetSink(&buf)

	emitDiag(regs, "EP RESET\n")
	if got := buf.String(); got != "EP RESET\n" {
		t.Fatalf("sink got %q", got)
	}
}

func TestDiagPortLineCap(t *testing.T) {
	regs, d := diagFixture()

	for i := 0; i < DIAG_MAX_LINE; i++ {
		regs.Write8(REG_DIAG_DATA, 'x')
	}
	regs.Write8(REG_DIAG_DATA, 'y')
	if n := len(d.Lines()); n != 1 {
		t.Fatalf("overlong line flushed %d times, want 1", n)
	}
	if got := len(d.LastLine()); got != DIAG_MAX_LINE {
		t.Errorf("flushed line length = %d, want %d", got, DIAG_MAX_LINE)
	}

	// The overflowing byte is not lost: it opens the next line.
	regs.Write8(REG_DIAG_DATA, '\n')
	if got := d.LastLine(); got != "y" {
		t.Fatalf("line after cap flush = %q, want %q", got, "y")
	}
}

func TestDiagPortReset(t *testing.T) {
	regs, d := diagFixture()
	emitDiag(regs, "STALE\n")
	emitDiag(regs, "partial")

	d.Reset()
	if len(d.Lines()) != 0 || d.LastLine() != "" {
		t.Fatal("reset left scrollback behind")
	}

	emitDiag(regs, "FRESH\n")
	if got := d.LastLine(); got != "FRESH" {
		t.Fatalf("partial line leaked across reset: %q", got)
	}
}
