package irq

import "helios/kernel/cpu"

const (
	picMasterCmdPort  = uint16(0x20)
	picMasterDataPort = uint16(0x21)
	picSlaveCmdPort   = uint16(0xa0)
	picSlaveDataPort  = uint16(0xa1)

	// Vector bases the PIC lines get remapped to. They must clear the CPU
	// exception range 0-31.
	picMasterBase = uint8(0x20)
	picSlaveBase  = uint8(0x28)

	picCmdInit = uint8(0x11)
	picCmdEOI  = uint8(0x20)

	// Initial interrupt masks: only the timer (line 0) and keyboard
	// (line 1) on the master PIC are unmasked.
	picMasterMask = uint8(0xfc)
	picSlaveMask  = uint8(0xff)

	pitCmdPort  = uint16(0x43)
	pitDataPort = uint16(0x40)

	// pitCmdRateGen selects channel 0, lo/hi byte access, mode 3.
	pitCmdRateGen = uint8(0x36)

	// pitBaseFreq is the fixed oscillator frequency of the 8253/8254.
	pitBaseFreq = uint32(1193182)

	// timerFrequency is the tick rate programmed at boot.
	timerFrequency = uint32(100)

	kbdDataPort = uint16(0x60)
)

var (
	portWriteByteFn = cpu.PortWriteByte
	portReadByteFn  = cpu.PortReadByte
)

// remapPIC reprograms the two cascaded 8259 controllers so that hardware
// interrupt lines 0-15 are delivered on vectors 32-47 instead of overlapping
// the CPU exception vectors.
func remapPIC() {
	portWriteByteFn(picMasterCmdPort, picCmdInit)
	portWriteByteFn(picMasterDataPort, picMasterBase)
	portWriteByteFn(picMasterDataPort, 0x04) // slave on line 2
	portWriteByteFn(picMasterDataPort, 0x01) // 8086 mode

	portWriteByteFn(picSlaveCmdPort, picCmdInit)
	portWriteByteFn(picSlaveDataPort, picSlaveBase)
	portWriteByteFn(picSlaveDataPort, 0x02) // cascade identity
	portWriteByteFn(picSlaveDataPort, 0x01) // 8086 mode

	portWriteByteFn(picMasterDataPort, picMasterMask)
	portWriteByteFn(picSlaveDataPort, picSlaveMask)
}

// ackIRQ signals end-of-interrupt for a remapped hardware line. Lines routed
// through the slave controller need an EOI on both chips.
func ackIRQ(num InterruptNumber) {
	if num >= irqBase+8 {
		portWriteByteFn(picSlaveCmdPort, picCmdEOI)
	}
	portWriteByteFn(picMasterCmdPort, picCmdEOI)
}

// startTimer programs PIT channel 0 to fire at freq Hz.
func startTimer(freq uint32) {
	divisor := pitBaseFreq / freq

	portWriteByteFn(pitCmdPort, pitCmdRateGen)
	portWriteByteFn(pitDataPort, uint8(divisor&0xff))
	portWriteByteFn(pitDataPort, uint8(divisor>>8))
}
