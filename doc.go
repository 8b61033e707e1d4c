// Package hd44780 controls an HD44780 character LCD over a 4-bit GPIO bus.
//
// The HD44780 is a dot-matrix character LCD controller found on most 16×2 and
// 20×4 text modules. This driver talks to it with six GPIO lines and no read
// back, and exposes the display as a write-only io.WriteSeeker.
//
// # Display Characteristics
//
// - 1 to 4 rows of 1 to 40 characters, 80 characters of display RAM at most
// - 4-bit interface: each byte is sent as two nibbles
// - Write-only: the R/W line is tied to ground, so the busy flag is never read
// - Fixed settle waits instead of busy polling
//
// # Hardware Connection
//
// Connect the display to your system with six GPIO lines:
//
//	Display Pin → System Pin
//	VSS         → GND
//	VDD         → 5V
//	V0          → Contrast potentiometer wiper
//	RS          → GPIO7
//	R/W         → GND
//	E           → GPIO8
//	D4          → GPIO25
//	D5          → GPIO24
//	D6          → GPIO23
//	D7          → GPIO18
//
// # Basic Usage
//
// Example of creating and using the display:
//
//	package main
//
//	import (
//		"log"
//
//		"github.com/flavioheleno/hd44780"
//		"github.com/flavioheleno/hd44780/bus4bit"
//		"periph.io/x/conn/v3/gpio"
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		// Initialize periph.io
//		if _, err := host.Init(); err != nil {
//			log.Fatal(err)
//		}
//
//		// Create device
//		dev, err := hd44780.NewGPIO(bus4bit.Pins{
//			RS: gpioreg.ByName("GPIO7"),
//			E:  gpioreg.ByName("GPIO8"),
//			D: [4]gpio.PinOut{
//				gpioreg.ByName("GPIO25"),
//				gpioreg.ByName("GPIO24"),
//				gpioreg.ByName("GPIO23"),
//				gpioreg.ByName("GPIO18"),
//			},
//		}, &hd44780.Opts{Rows: 2, Cols: 16})
//		if err != nil {
//			log.Fatal(err)
//		}
//		defer dev.Halt()
//
//		dev.WriteString("Hello, world!")
//	}
//
// # Writes
//
// A write holds the bus for its whole duration, so writes from different
// goroutines never interleave on the display. A write longer than Capacity()
// is rejected with ErrMessageTooLarge before any line is touched:
//
//	_, err := dev.Write(make([]byte, 33)) // 2x16 display
//	errors.Is(err, hd44780.ErrMessageTooLarge) // true
//
// Use WriteContext to bound the wait for the bus. If the context is done
// before the bus is acquired, the write fails with ErrInterrupted and nothing
// is sent. Once sending starts it is not cancelled: stopping between nibbles
// would leave the controller out of step.
//
// # Position
//
// The device keeps a write position between 0 and Capacity(). Writes advance
// it; Seek moves it:
//
//	dev.Seek(0, io.SeekStart)
//	dev.Seek(-4, io.SeekEnd)     // Capacity() - 4
//	dev.Seek(-1000, io.SeekCurrent) // clamped to 0
//
// Seeking past Capacity() fails with ErrInvalidArgument.
//
// # Control Commands
//
// Control runs an out-of-band command on the same locked path as writes:
//
//	dev.Control(ctx, hd44780.CmdClear)
//
// Clear blanks the display and rewinds the position to 0. Unknown commands
// are ignored.
//
// # Performance
//
// Every nibble holds the bus for two settle intervals (37µs each at minimum),
// so a byte costs at least 148µs and a full 2×16 write about 5ms. Under
// contention, callers wait for the whole write of the current holder.
//
// # Datasheet
//
// https://www.sparkfun.com/datasheets/LCD/HD44780.pdf
package hd44780
