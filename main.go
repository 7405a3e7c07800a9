// main.go - Main entry point for the CoreBridge simulator

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

package main

import (
	"flag"
	"fmt"
	"os"
)

func boilerPlate() {
	fmt.Println("CoreBridge - event-dispatch core simulator for the NB583 USB/NVMe bridge controller")
	fmt.Println("(c) 2025 - 2026 CoreBridge Project")
	fmt.Println("https://github.com/corebridge/CoreBridge")
	fmt.Println("License: GPLv3 or later")
	fmt.Println()
}

func main() {
	imagePath := flag.String("image", "", "firmware image to load into the code banks")
	scriptPath := flag.String("script", "", "Lua scenario script to run")
	monitor := flag.Bool("monitor", false, "start the interactive machine monitor")
	trace := flag.Bool("trace", false, "log every handler dispatch to stdout")
	flag.Parse()

	boilerPlate()

	core := NewBridgeCore()
	core.Diag().SetSink(os.Stdout)
	if *trace {
		core.TraceDispatch(os.Stdout)
	}

	if *imagePath != "" {
		img, err := LoadFirmwareImage(*imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		if err := img.Install(core.Banks()); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Loaded firmware image %s (version %d)\n", *imagePath, img.Version)
	}

	core.Seal()

	switch {
	case *monitor:
		host := NewTerminalHost()
		if err := host.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		defer host.Stop()
		NewMachineMonitor(core, os.Stdout).Repl(host)

	case *scriptPath != "":
		if err := NewScriptHost(core).RunFile(*scriptPath); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	default:
		// Headless: bring the PHY up so the core poll step does not
		// spin forever against an empty register file, then run.
		core.Regs().SetBits(REG_PHY_STAT, PHY_READY)
		core.Run()
	}
}
