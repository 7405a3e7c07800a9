// terminal_host.go - Raw-mode stdin adapter for the interactive monitor

package main

import (
	"fmt"
	"os"

	"golang.org/x/term"
)

// TerminalHost puts the controlling terminal into raw mode and adapts
// stdin for the monitor: CR becomes LF, DEL becomes BS, and every byte
// is echoed locally since raw mode disables OS echo. Only instantiated
// in main.go for interactive use, never in tests.
type TerminalHost struct {
	fd       int
	oldState *term.State
}

func NewTerminalHost() *TerminalHost {
	return &TerminalHost{fd: int(os.Stdin.Fd())}
}

// Start switches the terminal to raw mode. Call Stop to restore it.
func (h *TerminalHost) Start() error {
	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		return fmt.Errorf("terminal_host: failed to set raw mode: %w", err)
	}
	h.oldState = oldState
	return nil
}

// Stop restores the terminal state captured by Start.
func (h *TerminalHost) Stop() {
	if h.oldState != nil {
		_ = term.Restore(h.fd, h.oldState)
		h.oldState = nil
	}
}

// Read implements io.Reader over raw stdin with line-discipline fixups.
func (h *TerminalHost) Read(p []byte) (int, error) {
	n, err := os.Stdin.Read(p)
	for i := 0; i < n; i++ {
		// Raw mode sends CR for Enter; the monitor wants LF.
		if p[i] == '\r' {
			p[i] = '\n'
		}
		// Modern terminals send 0x7F (DEL) for Backspace.
		if p[i] == 0x7F {
			p[i] = 0x08
		}
		// Local echo: raw mode disabled the OS-level one.
		if p[i] == '\n' {
			os.Stdout.WriteString("\r\n")
		} else {
			os.Stdout.Write(p[i : i+1])
		}
	}
	return n, err
}
