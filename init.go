package hd44780

import (
	"fmt"
	"time"

	"github.com/flavioheleno/hd44780/bus4bit"
)

// Instruction bytes.
const (
	instrReset8Bit     byte = 0x03 // Function set, 8-bit interface (as sent before the switch)
	instrSet4Bit       byte = 0x02 // Function set, 4-bit interface
	instrDisplayOn     byte = 0x0C // Display on, cursor off, blink off
	instrDisplayOff    byte = 0x08 // Display off
	instrClearDisplay  byte = 0x01
	instrEntryMode     byte = 0x06 // Increment address, no shift
	instrFunctionSet1L byte = 0x20 // 4-bit, 1 line, 5x8 dots
	instrFunctionSet2L byte = 0x28 // 4-bit, 2 lines, 5x8 dots
)

// Waits from the HD44780U datasheet, figures 23 and 24.
const (
	powerUpDelay    = 15 * time.Millisecond
	firstResetDelay = 4100 * time.Microsecond
	resetDelay      = 100 * time.Microsecond
	clearDelay      = 1520 * time.Microsecond
)

type step struct {
	instr byte
	wait  time.Duration // held before instr is sent
}

// initSequence returns the power-on instruction sequence for a display with
// the given number of rows, with the settle interval the bus uses.
func initSequence(rows int, settle time.Duration) []step {
	functionSet := instrFunctionSet2L
	if rows == 1 {
		functionSet = instrFunctionSet1L
	}
	return []step{
		// The controller state is undefined at power-up, so the 8-bit reset is
		// repeated three times with shrinking waits before switching widths.
		{instrReset8Bit, powerUpDelay},
		{instrReset8Bit, firstResetDelay},
		{instrReset8Bit, resetDelay},
		{instrSet4Bit, settle},
		{instrDisplayOn, settle},
		{instrClearDisplay, settle},
		{instrEntryMode, clearDelay},
		{functionSet, settle},
	}
}

// init runs the power-on sequence. It is called once, from NewGPIO.
func (d *Dev) init() error {
	for _, s := range initSequence(d.rows, d.bus.Settle()) {
		d.bus.Sleep(s.wait)
		if err := d.bus.Transmit(s.instr, bus4bit.Command); err != nil {
			return fmt.Errorf("hd44780: init instruction 0x%02X: %w", s.instr, err)
		}
	}
	d.bus.Sleep(d.bus.Settle())
	return nil
}
