// terminal_output.go - Diagnostic port device for CoreBridge

package main

import (
	"io"
	"strings"
	"sync"
)

const DIAG_MAX_LINE = 1024 // Maximum buffered line length

// DiagPort is the UART-style diagnostic output device. The firmware
// core emits diagnostics one byte at a time through REG_DIAG_DATA;
// the port buffers them into lines, keeps a scrollback for the monitor
// and the tests, and forwards complete lines to an optional sink.
// Logging at this layer is an external collaborator of the core: the
// core only ever performs the register writes.
type DiagPort struct {
	mu      sync.Mutex
	regs    *RegisterFile
	line    []byte
	history []string
	sink    io.Writer
}

func NewDiagPort(regs *RegisterFile) *DiagPort {
	d := &DiagPort{
		regs: regs,
		line: make([]byte, 0, DIAG_MAX_LINE),
	}
	regs.MapHook(REG_DIAG_DATA, REG_DIAG_DATA, nil, d.handleWrite)
	return d
}

// SetSink directs completed lines to w (typically os.Stdout in the
// interactive machine). Tests usually leave the sink nil and read the
// scrollback instead.
func (d *DiagPort) SetSink(w io.Writer) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sink = w
}

func (d *DiagPort) handleWrite(addr uint16, value uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if value == '\n' {
		d.flushLocked()
		return
	}
	// An overlong line flushes at the cap; the overflowing byte starts
	// the next line.
	if len(d.line) >= DIAG_MAX_LINE {
		d.flushLocked()
	}
	d.line = append(d.line, value)
}

func (d *DiagPort) flushLocked() {
	s := string(d.line)
	d.history = append(d.history, s)
	d.line = d.line[:0]
	if d.sink != nil {
		io.WriteString(d.sink, s+"\n")
	}
}

// Lines returns a copy of all completed diagnostic lines.
func (d *DiagPort) Lines() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.history))
	copy(out, d.history)
	return out
}

// LastLine returns the most recent completed line, or "".
func (d *DiagPort) LastLine() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.history) == 0 {
		return ""
	}
	return d.history[len(d.history)-1]
}

// Contains reports whether any completed line contains substr.
func (d *DiagPort) Contains(substr string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, l := range d.history {
		if strings.Contains(l, substr) {
			return true
		}
	}
	return false
}

// Reset drops the scrollback and any partial line.
func (d *DiagPort) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.line = d.line[:0]
	d.history = d.history[:0]
}
