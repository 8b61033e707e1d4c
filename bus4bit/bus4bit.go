// Package bus4bit implements the HD44780 4-bit bus transaction protocol.
package bus4bit

import (
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// SettleDelay is the minimum instruction execution time of the controller.
// It is held on each side of the enable transition.
const SettleDelay = 37 * time.Microsecond

// Mode selects the register addressed by the RS line.
type Mode bool

const (
	// Command addresses the instruction register (RS Low).
	Command Mode = false
	// Character addresses the data register (RS High).
	Character Mode = true
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == Character {
		return "Character"
	}
	return "Command"
}

// Pins are the six output lines of the bus.
type Pins struct {
	RS gpio.PinOut    // Register select
	E  gpio.PinOut    // Enable
	D  [4]gpio.PinOut // D4, D5, D6, D7
}

// Validate reports an error when any line is missing.
func (p *Pins) Validate() error {
	if p.RS == nil {
		return errors.New("bus4bit: RS pin is required")
	}
	if p.E == nil {
		return errors.New("bus4bit: E pin is required")
	}
	for i, d := range p.D {
		if d == nil {
			return fmt.Errorf("bus4bit: D%d pin is required", i+4)
		}
	}
	return nil
}

func (p *Pins) all() []gpio.PinOut {
	return []gpio.PinOut{p.RS, p.E, p.D[0], p.D[1], p.D[2], p.D[3]}
}

// Opts is the configuration for the bus.
type Opts struct {
	// Clock provides the settle waits. nil uses the real clock.
	Clock clockwork.Clock
	// Settle overrides SettleDelay. Zero keeps the default; values below
	// SettleDelay are rejected.
	Settle time.Duration
}

// Bus sends bytes to the controller. It holds no transaction state: every
// Transmit is self-contained, so callers are responsible for serializing
// access when several goroutines share one Bus.
type Bus struct {
	pins   Pins
	clock  clockwork.Clock
	settle time.Duration
}

// New returns a Bus on the given lines. opts can be nil to use defaults.
//
// The lines are not touched until Configure is called.
func New(pins Pins, opts *Opts) (*Bus, error) {
	if err := pins.Validate(); err != nil {
		return nil, err
	}
	if opts == nil {
		opts = &Opts{}
	}
	if opts.Settle != 0 && opts.Settle < SettleDelay {
		return nil, fmt.Errorf("bus4bit: settle %s is below the controller minimum %s", opts.Settle, SettleDelay)
	}
	b := &Bus{
		pins:   pins,
		clock:  opts.Clock,
		settle: opts.Settle,
	}
	if b.clock == nil {
		b.clock = clockwork.NewRealClock()
	}
	if b.settle == 0 {
		b.settle = SettleDelay
	}
	return b, nil
}

// Configure drives every line to its idle level: RS and D4..D7 Low, E High.
func (b *Bus) Configure() error {
	if err := b.pins.RS.Out(gpio.Low); err != nil {
		return fmt.Errorf("bus4bit: failed to claim RS: %w", err)
	}
	for i, d := range b.pins.D {
		if err := d.Out(gpio.Low); err != nil {
			return fmt.Errorf("bus4bit: failed to claim D%d: %w", i+4, err)
		}
	}
	if err := b.pins.E.Out(gpio.High); err != nil {
		return fmt.Errorf("bus4bit: failed to claim E: %w", err)
	}
	return nil
}

// Transmit sends v to the register selected by mode, high nibble first.
func (b *Bus) Transmit(v byte, mode Mode) error {
	if err := b.pins.RS.Out(gpio.Level(mode)); err != nil {
		return fmt.Errorf("bus4bit: failed to set RS: %w", err)
	}
	if err := b.writeNibble(v >> 4); err != nil {
		return err
	}
	return b.writeNibble(v & 0x0F)
}

// Sleep waits d on the bus clock.
func (b *Bus) Sleep(d time.Duration) {
	b.clock.Sleep(d)
}

// Settle returns the settle interval in use.
func (b *Bus) Settle() time.Duration {
	return b.settle
}

// writeNibble places the low 4 bits of n on D4..D7 and latches them.
func (b *Bus) writeNibble(n byte) error {
	for i, d := range b.pins.D {
		if err := d.Out(gpio.Low); err != nil {
			return fmt.Errorf("bus4bit: failed to clear D%d: %w", i+4, err)
		}
	}
	for i, d := range b.pins.D {
		if n&(1<<uint(i)) == 0 {
			continue
		}
		if err := d.Out(gpio.High); err != nil {
			return fmt.Errorf("bus4bit: failed to set D%d: %w", i+4, err)
		}
	}
	return b.pulse()
}

// pulse drops and raises E, holding the settle interval after each edge.
func (b *Bus) pulse() error {
	if err := b.pins.E.Out(gpio.Low); err != nil {
		return fmt.Errorf("bus4bit: failed to pull E low: %w", err)
	}
	b.clock.Sleep(b.settle)
	if err := b.pins.E.Out(gpio.High); err != nil {
		return fmt.Errorf("bus4bit: failed to pull E high: %w", err)
	}
	b.clock.Sleep(b.settle)
	return nil
}

// String implements conn.Resource.
func (b *Bus) String() string {
	return fmt.Sprintf("bus4bit.Bus{RS:%s E:%s D4:%s D5:%s D6:%s D7:%s}",
		b.pins.RS, b.pins.E, b.pins.D[0], b.pins.D[1], b.pins.D[2], b.pins.D[3])
}

// Halt releases every line. All lines are halted even if one fails.
func (b *Bus) Halt() error {
	var errs []error
	for _, p := range b.pins.all() {
		if err := p.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("bus4bit: failed to halt %s: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

var _ conn.Resource = &Bus{}
