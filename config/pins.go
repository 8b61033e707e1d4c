package config

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"github.com/flavioheleno/hd44780/bus4bit"
)

type namedPin struct {
	key string
	pin string
}

func (p PinsConfig) named() []namedPin {
	return []namedPin{
		{"rs", p.RS},
		{"e", p.E},
		{"d4", p.D4},
		{"d5", p.D5},
		{"d6", p.D6},
		{"d7", p.D7},
	}
}

// Resolve looks every pin up by name. Pass gpioreg.ByName on a host after
// host.Init().
func (p PinsConfig) Resolve(lookup func(name string) gpio.PinIO) (bus4bit.Pins, error) {
	var out [6]gpio.PinOut
	for i, n := range p.named() {
		pin := lookup(n.pin)
		if pin == nil {
			return bus4bit.Pins{}, fmt.Errorf("config: pins.%s: GPIO pin %s not found", n.key, n.pin)
		}
		out[i] = pin
	}
	return bus4bit.Pins{
		RS: out[0],
		E:  out[1],
		D:  [4]gpio.PinOut{out[2], out[3], out[4], out[5]},
	}, nil
}
