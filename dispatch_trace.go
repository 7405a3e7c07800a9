// dispatch_trace.go - Handler dispatch tracing

package main

import (
	"fmt"
	"io"
)

// TraceDispatch wraps every handler entry point so each dispatch
// writes the handler's name to w before the original body runs. The
// -trace flag uses it to make the fixed poll order visible while the
// machine runs; wrap once, before execution starts.
func (c *BridgeCore) TraceDispatch(w io.Writer) {
	wrap := func(name string, fn func()) func() {
		return func() {
			fmt.Fprintf(w, "dispatch %s\n", name)
			fn()
		}
	}

	c.onXfrBuf = wrap("xfr-buf", c.onXfrBuf)
	c.onAuxPeriph = wrap("aux-periph", c.onAuxPeriph)
	c.onEpGlobal = wrap("ep-global", c.onEpGlobal)
	for i := range c.epHandlers {
		c.epHandlers[i] = wrap(fmt.Sprintf("ep%d", i), c.epHandlers[i])
	}
	c.onNvmeQBusy = wrap("nvme-queue-busy", c.onNvmeQBusy)
	c.onNvmeQReady = wrap("nvme-queue-ready", c.onNvmeQReady)

	c.onSystemEvent = wrap("system-event", c.onSystemEvent)
	c.onBufDispatch = wrap("buf-dispatch", c.onBufDispatch)
	c.onNvmeQueue = wrap("nvme-queue", c.onNvmeQueue)
	c.onPcieLink = wrap("pcie-link", c.onPcieLink)
	c.onNvmeCplTimer = wrap("nvme-cpl-timer", c.onNvmeCplTimer)
	c.onNvmeEvent = wrap("nvme-event", c.onNvmeEvent)
	c.onSysTimer = wrap("sys-timer", c.onSysTimer)
	c.onPcieRecovery = wrap("pcie-recovery", c.onPcieRecovery)

	c.onTimerLink = wrap("timer-link", c.onTimerLink)
	c.onPhyLinkCfg = wrap("phy-link-cfg", c.onPhyLinkCfg)
	c.onReserved = wrap("reserved", c.onReserved)
	c.onUsbPowerInit = wrap("usb-power-init", c.onUsbPowerInit)
	c.onEvtState = wrap("evt-state", c.onEvtState)
	c.onErrLinkState = wrap("err-link-state", c.onErrLinkState)
	c.onPhyGroup = wrap("phy-group", c.onPhyGroup)
	c.onFlashGroup = wrap("flash-group", c.onFlashGroup)
	c.onStateTick = wrap("state-tick", c.onStateTick)
}
