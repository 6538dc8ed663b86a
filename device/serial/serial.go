// Package serial drives the COM1 UART. The port serves as the kernel's
// diagnostic console: once initialized it becomes the kfmt output sink and
// receives the bytes user processes write to stdout/stderr.
package serial

import (
	"io"

	"helios/kernel"
	"helios/kernel/cpu"
	"helios/kernel/kfmt"
)

const (
	com1Base = uint16(0x3f8)

	// Register offsets from the port base.
	regData       = uint16(0)
	regIntEnable  = uint16(1)
	regFIFO       = uint16(2)
	regLineCtrl   = uint16(3)
	regModemCtrl  = uint16(4)
	regLineStatus = uint16(5)

	// lineStatusTxEmpty is set when the transmit holding register can
	// accept another byte.
	lineStatusTxEmpty = uint8(1 << 5)
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
)

// Device is the COM1 serial port.
type Device struct {
	base uint16
}

// DriverName returns the name of this driver.
func (dev *Device) DriverName() string {
	return "uart_16550"
}

// DriverInit programs the UART for 115200 baud, 8 data bits, no parity, one
// stop bit, with the FIFO enabled and interrupts off. The port is polled on
// write; it never interrupts the CPU.
func (dev *Device) DriverInit(w io.Writer) *kernel.Error {
	portWriteByteFn(dev.base+regIntEnable, 0x00)

	// Latch the divisor registers and program divisor 1 (115200 baud).
	portWriteByteFn(dev.base+regLineCtrl, 0x80)
	portWriteByteFn(dev.base+regData, 0x01)
	portWriteByteFn(dev.base+regIntEnable, 0x00)

	// 8N1, divisor latch off.
	portWriteByteFn(dev.base+regLineCtrl, 0x03)

	// FIFO on, cleared, 14-byte trigger.
	portWriteByteFn(dev.base+regFIFO, 0xc7)

	// Assert DTR and RTS.
	portWriteByteFn(dev.base+regModemCtrl, 0x0b)

	// Drain any stale byte.
	portReadByteFn(dev.base + regData)

	kfmt.Fprintf(w, "initialized %s on port %x\n", dev.DriverName(), uint64(dev.base))
	return nil
}

// Write sends p out the port one byte at a time, waiting for the transmitter
// to drain between bytes. It implements io.Writer and never fails.
func (dev *Device) Write(p []byte) (int, error) {
	for _, b := range p {
		for portReadByteFn(dev.base+regLineStatus)&lineStatusTxEmpty == 0 {
		}
		portWriteByteFn(dev.base+regData, b)
	}

	return len(p), nil
}

// Probe returns the COM1 device.
func Probe() *Device {
	return &Device{base: com1Base}
}
