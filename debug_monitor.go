// debug_monitor.go - Interactive machine monitor for CoreBridge

package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// MachineMonitor is a line-oriented debugger over the simulated
// machine: inspect and poke registers, raise interrupt lines, step the
// main loop, load firmware images and run scenario scripts. It reads
// commands from any io.Reader; interactive use wires it to the raw
// terminal via TerminalHost, tests feed it a strings.Reader.
type MachineMonitor struct {
	core   *BridgeCore
	script *ScriptHost
	out    io.Writer
}

func NewMachineMonitor(core *BridgeCore, out io.Writer) *MachineMonitor {
	return &MachineMonitor{
		core:   core,
		script: NewScriptHost(core),
		out:    out,
	}
}

// Repl consumes command lines until EOF or "quit".
func (m *MachineMonitor) Repl(in io.Reader) {
	sc := bufio.NewScanner(in)
	m.printf("CoreBridge monitor. Type 'help' for commands.\n")
	m.prompt()
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "quit" || line == "q" {
			return
		}
		if line != "" {
			m.Execute(line)
		}
		m.prompt()
	}
}

func (m *MachineMonitor) prompt() {
	m.printf("nb583> ")
}

func (m *MachineMonitor) printf(format string, args ...any) {
	fmt.Fprintf(m.out, format, args...)
}

// Execute runs a single monitor command line.
func (m *MachineMonitor) Execute(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "help", "?":
		m.help()
	case "rd":
		m.cmdRead(args)
	case "wr":
		m.cmdWrite(args, (*RegisterFile).Write8)
	case "w1c":
		m.cmdWrite(args, (*RegisterFile).WriteClear)
	case "set":
		m.cmdWrite(args, (*RegisterFile).SetBits)
	case "flags":
		m.printf("event flags = 0x%02X\n", m.core.flags.Value())
	case "bank":
		m.printf("selector = %s, depth = %d\n", m.core.banks.Selector(), m.core.banks.Depth())
	case "irq":
		m.cmdIRQ(args)
	case "step":
		m.cmdStep(args)
	case "halt?":
		m.printf("halted = %v\n", m.core.Halted())
	case "diag":
		for _, l := range m.core.diag.Lines() {
			m.printf("%s\n", l)
		}
	case "load":
		m.cmdLoad(args)
	case "script":
		m.cmdScript(args)
	case "reset":
		m.core.Reset()
		m.printf("machine reset\n")
	default:
		m.printf("unknown command %q, try 'help'\n", cmd)
	}
}

func (m *MachineMonitor) help() {
	m.printf(`rd <addr>           read a register
wr <addr> <val>     plain write
w1c <addr> <mask>   write-1-to-clear acknowledge
set <addr> <mask>   assert condition bits
flags               show the event flag byte
bank                show bank selector and call depth
irq a|b             raise an interrupt line
step [n]            run n main-loop iterations (default 1)
halt?               show the fatal halt state
diag                dump diagnostic output
load <path>         load a firmware image
script <path>       run a Lua scenario script
reset               power-on reset
quit                leave the monitor
`)
}

func (m *MachineMonitor) cmdRead(args []string) {
	if len(args) != 1 {
		m.printf("usage: rd <addr>\n")
		return
	}
	addr, err := parseNum(args[0])
	if err != nil {
		m.printf("bad address: %v\n", err)
		return
	}
	m.printf("[0x%04X] = 0x%02X\n", addr, m.core.regs.Read8(uint16(addr)))
}

func (m *MachineMonitor) cmdWrite(args []string, op func(*RegisterFile, uint16, uint8)) {
	if len(args) != 2 {
		m.printf("usage: <cmd> <addr> <value>\n")
		return
	}
	addr, err1 := parseNum(args[0])
	val, err2 := parseNum(args[1])
	if err1 != nil || err2 != nil {
		m.printf("bad argument\n")
		return
	}
	op(m.core.regs, uint16(addr), uint8(val))
	m.printf("[0x%04X] = 0x%02X\n", addr, m.core.regs.Peek(uint16(addr)))
}

func (m *MachineMonitor) cmdIRQ(args []string) {
	if len(args) != 1 {
		m.printf("usage: irq a|b\n")
		return
	}
	switch strings.ToLower(args[0]) {
	case "a":
		m.core.irq.Raise(IRQLineA)
		m.printf("raised line A\n")
	case "b":
		m.core.irq.Raise(IRQLineB)
		m.printf("raised line B\n")
	default:
		m.printf("usage: irq a|b\n")
	}
}

func (m *MachineMonitor) cmdStep(args []string) {
	n := 1
	if len(args) == 1 {
		v, err := parseNum(args[0])
		if err != nil || v < 1 {
			m.printf("usage: step [n]\n")
			return
		}
		n = int(v)
	}
	m.core.RunIterations(n)
	m.printf("ran %d iteration(s), halted=%v\n", n, m.core.Halted())
}

func (m *MachineMonitor) cmdLoad(args []string) {
	if len(args) != 1 {
		m.printf("usage: load <path>\n")
		return
	}
	img, err := LoadFirmwareImage(args[0])
	if err != nil {
		m.printf("%v\n", err)
		return
	}
	if err := img.Install(m.core.banks); err != nil {
		m.printf("%v\n", err)
		return
	}
	m.printf("loaded image version %d\n", img.Version)
}

func (m *MachineMonitor) cmdScript(args []string) {
	if len(args) != 1 {
		m.printf("usage: script <path>\n")
		return
	}
	if err := m.script.RunFile(args[0]); err != nil {
		m.printf("%v\n", err)
	}
}

// parseNum accepts 0x-prefixed hex or plain decimal.
func parseNum(s string) (uint64, error) {
	ls := strings.ToLower(s)
	if strings.HasPrefix(ls, "0x") {
		return strconv.ParseUint(ls[2:], 16, 32)
	}
	return strconv.ParseUint(s, 10, 32)
}
