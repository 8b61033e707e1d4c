// Package bus4bit drives the 4-bit parallel interface of an HD44780-class
// character LCD controller using six discrete GPIO lines.
//
// Every byte is sent as two nibbles, high nibble first. For each nibble the
// data lines D4..D7 are first driven Low, then the lines whose bit is set are
// driven High, and finally the enable line is pulsed to latch the nibble:
//
//	Byte 0x48 ('H'), mode Character
//	RS: High
//	Nibble 0x4: D4=0 D5=0 D6=1 D7=0, E: Low, wait, High, wait
//	Nibble 0x8: D4=0 D5=0 D6=0 D7=1, E: Low, wait, High, wait
//
// The controller latches on the falling edge of E, so Configure leaves E High
// when it claims the lines.
//
// Example usage:
//
//	b, err := bus4bit.New(bus4bit.Pins{
//		RS: gpioreg.ByName("GPIO7"),
//		E:  gpioreg.ByName("GPIO8"),
//		D: [4]gpio.PinOut{
//			gpioreg.ByName("GPIO25"),
//			gpioreg.ByName("GPIO24"),
//			gpioreg.ByName("GPIO23"),
//			gpioreg.ByName("GPIO18"),
//		},
//	}, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if err := b.Configure(); err != nil {
//		log.Fatal(err)
//	}
//	_ = b.Transmit('H', bus4bit.Character)
//
// The settle interval is a minimum imposed by the controller. Waiting longer
// only costs throughput; waiting less corrupts data without any error being
// reported, since the R/W line is not wired and nothing is read back.
package bus4bit
