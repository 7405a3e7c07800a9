// script_host.go - Lua scenario scripting for the CoreBridge simulator

package main

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// ScriptHost exposes the simulated machine to Lua, so hardware
// scenarios (assert status bits, fire a line, step the loop, check
// what happened) can be written as scripts instead of Go harness code.
//
// Exposed functions:
//
//	rd(addr)          read a register cell
//	wr(addr, v)       plain write
//	setbits(addr, m)  assert condition bits (simulator side)
//	clrbits(addr, m)  deassert condition bits (simulator side)
//	w1c(addr, m)      firmware-style write-1-to-clear acknowledge
//	flags()           read the event flag byte
//	setflags(m)       raise event flag bits
//	irq("a"|"b")      raise an interrupt line
//	step(n)           run n main-loop iterations
//	halted()          true once the terminal halt state is entered
//	selector()        current bank selector name
//	diag()            most recent diagnostic line
type ScriptHost struct {
	core *BridgeCore
}

func NewScriptHost(core *BridgeCore) *ScriptHost {
	return &ScriptHost{core: core}
}

// RunFile executes a scenario script from disk.
func (sh *ScriptHost) RunFile(path string) error {
	L := sh.newState()
	defer L.Close()
	if err := L.DoFile(path); err != nil {
		return fmt.Errorf("script %s: %w", path, err)
	}
	return nil
}

// RunString executes an inline scenario script.
func (sh *ScriptHost) RunString(src string) error {
	L := sh.newState()
	defer L.Close()
	if err := L.DoString(src); err != nil {
		return fmt.Errorf("script: %w", err)
	}
	return nil
}

func (sh *ScriptHost) newState() *lua.LState {
	L := lua.NewState()
	c := sh.core

	reg := func(name string, fn lua.LGFunction) {
		L.SetGlobal(name, L.NewFunction(fn))
	}

	reg("rd", func(L *lua.LState) int {
		addr := uint16(L.CheckInt(1))
		L.Push(lua.LNumber(c.regs.Read8(addr)))
		return 1
	})
	reg("wr", func(L *lua.LState) int {
		c.regs.Write8(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)))
		return 0
	})
	reg("setbits", func(L *lua.LState) int {
		c.regs.SetBits(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)))
		return 0
	})
	reg("clrbits", func(L *lua.LState) int {
		c.regs.ClearBits(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)))
		return 0
	})
	reg("w1c", func(L *lua.LState) int {
		c.regs.WriteClear(uint16(L.CheckInt(1)), uint8(L.CheckInt(2)))
		return 0
	})
	reg("flags", func(L *lua.LState) int {
		L.Push(lua.LNumber(c.flags.Value()))
		return 1
	})
	reg("setflags", func(L *lua.LState) int {
		c.flags.Set(uint8(L.CheckInt(1)))
		return 0
	})
	reg("irq", func(L *lua.LState) int {
		switch L.CheckString(1) {
		case "a", "A":
			c.irq.Raise(IRQLineA)
		case "b", "B":
			c.irq.Raise(IRQLineB)
		default:
			L.ArgError(1, "want \"a\" or \"b\"")
		}
		return 0
	})
	reg("step", func(L *lua.LState) int {
		n := L.OptInt(1, 1)
		c.RunIterations(n)
		return 0
	})
	reg("halted", func(L *lua.LState) int {
		L.Push(lua.LBool(c.Halted()))
		return 1
	})
	reg("selector", func(L *lua.LState) int {
		L.Push(lua.LString(c.banks.Selector().String()))
		return 1
	})
	reg("diag", func(L *lua.LState) int {
		L.Push(lua.LString(c.diag.LastLine()))
		return 1
	})

	return L
}
