// Package bus4bittest is meant to be used to test code driving a bus4bit.Bus
// without hardware.
//
// A Recorder hands out fake lines and a clock. Every level written to a line
// and every wait requested from the clock is appended to one ordered event
// log, from which the latched nibbles and the transmitted bytes are decoded.
package bus4bittest

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/flavioheleno/hd44780/bus4bit"
)

// Line names used in the event log.
const (
	RS = "RS"
	E  = "E"
	D4 = "D4"
	D5 = "D5"
	D6 = "D6"
	D7 = "D7"
)

var lineNames = []string{RS, E, D4, D5, D6, D7}

// Event is one entry of the log: either a level written to Line, or a wait
// of Delay when Line is empty.
type Event struct {
	Line  string
	Level gpio.Level
	Delay time.Duration
}

// IsDelay reports whether the event is a clock wait.
func (e Event) IsDelay() bool {
	return e.Line == ""
}

// Latch is a nibble captured on a falling edge of E.
type Latch struct {
	Mode   bus4bit.Mode
	Nibble byte
}

// Frame is a byte reassembled from two consecutive latches.
type Frame struct {
	Mode  bus4bit.Mode
	Value byte
	// Wait is the total clock wait recorded between the previous frame's
	// final latch (or the last Reset) and this frame's first latch.
	Wait time.Duration
}

// Recorder records line writes and clock waits in order.
type Recorder struct {
	mu     sync.Mutex
	events []Event
	start  map[string]gpio.Level
	fail   map[string]error
	pins   map[string]*Pin
	clock  *Clock
}

// New returns a Recorder with six fresh lines, all Low.
func New() *Recorder {
	r := &Recorder{
		start: map[string]gpio.Level{},
		fail:  map[string]error{},
		pins:  map[string]*Pin{},
	}
	for i, name := range lineNames {
		r.pins[name] = &Pin{Pin: &gpiotest.Pin{N: name, Num: i}, r: r}
		r.start[name] = gpio.Low
	}
	r.clock = &Clock{Clock: clockwork.NewFakeClock(), r: r}
	return r
}

// Pins returns the recorded lines wired as a bus.
func (r *Recorder) Pins() bus4bit.Pins {
	return bus4bit.Pins{
		RS: r.pins[RS],
		E:  r.pins[E],
		D:  [4]gpio.PinOut{r.pins[D4], r.pins[D5], r.pins[D6], r.pins[D7]},
	}
}

// Pin returns the named line.
func (r *Recorder) Pin(name string) *Pin {
	return r.pins[name]
}

// Clock returns a clock whose Sleep records the wait and returns at once.
func (r *Recorder) Clock() clockwork.Clock {
	return r.clock
}

// FailOn makes every subsequent write to line return err. A nil err clears it.
func (r *Recorder) FailOn(line string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.fail, line)
		return
	}
	r.fail[line] = err
}

// Reset drops the log and takes the current line levels as the new start.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	for name, p := range r.pins {
		r.start[name] = p.Pin.Read()
	}
}

// Events returns a copy of the log.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// Transitions counts the line writes in the log.
func (r *Recorder) Transitions() int {
	n := 0
	for _, e := range r.Events() {
		if !e.IsDelay() {
			n++
		}
	}
	return n
}

// Writes counts the writes to one line.
func (r *Recorder) Writes(line string) int {
	n := 0
	for _, e := range r.Events() {
		if e.Line == line {
			n++
		}
	}
	return n
}

// Latches decodes every falling edge of E into the nibble held on D4..D7
// and the mode held on RS at that instant.
func (r *Recorder) Latches() []Latch {
	var out []Latch
	r.walk(func(level map[string]gpio.Level, _ time.Duration) {
		out = append(out, latchOf(level))
	})
	return out
}

// Frames pairs the latches into bytes, high nibble first. A trailing odd
// latch is reported as an error.
func (r *Recorder) Frames() ([]Frame, error) {
	var (
		out     []Frame
		pending *Frame
	)
	r.walk(func(level map[string]gpio.Level, wait time.Duration) {
		l := latchOf(level)
		if pending == nil {
			pending = &Frame{Mode: l.Mode, Value: l.Nibble << 4, Wait: wait}
			return
		}
		pending.Value |= l.Nibble
		out = append(out, *pending)
		pending = nil
	})
	if pending != nil {
		return out, fmt.Errorf("bus4bittest: dangling nibble 0x%X", pending.Value>>4)
	}
	return out, nil
}

// walk replays the log, calling fn on each falling edge of E with the line
// levels at that instant and the waits accumulated since the previous edge.
func (r *Recorder) walk(fn func(level map[string]gpio.Level, wait time.Duration)) {
	r.mu.Lock()
	level := make(map[string]gpio.Level, len(r.start))
	for k, v := range r.start {
		level[k] = v
	}
	events := append([]Event(nil), r.events...)
	r.mu.Unlock()

	var wait time.Duration
	for _, e := range events {
		if e.IsDelay() {
			wait += e.Delay
			continue
		}
		prev := level[e.Line]
		level[e.Line] = e.Level
		if e.Line == E && prev == gpio.High && e.Level == gpio.Low {
			fn(level, wait)
			wait = 0
		}
	}
}

func latchOf(level map[string]gpio.Level) Latch {
	var n byte
	for i, name := range []string{D4, D5, D6, D7} {
		if level[name] {
			n |= 1 << uint(i)
		}
	}
	return Latch{Mode: bus4bit.Mode(level[RS]), Nibble: n}
}

func (r *Recorder) record(e Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.fail[e.Line]; err != nil && !e.IsDelay() {
		return err
	}
	r.events = append(r.events, e)
	return nil
}

// Pin is a gpiotest.Pin that logs its writes to a Recorder.
type Pin struct {
	*gpiotest.Pin
	r      *Recorder
	halted bool
}

// Halt implements conn.Resource and marks the line as released.
func (p *Pin) Halt() error {
	p.r.mu.Lock()
	p.halted = true
	p.r.mu.Unlock()
	return p.Pin.Halt()
}

// Halted reports whether Halt was called on the line.
func (p *Pin) Halted() bool {
	p.r.mu.Lock()
	defer p.r.mu.Unlock()
	return p.halted
}

// Out implements gpio.PinOut.
func (p *Pin) Out(l gpio.Level) error {
	if err := p.r.record(Event{Line: p.N, Level: l}); err != nil {
		return err
	}
	return p.Pin.Out(l)
}

// Clock is a fake clock that logs Sleep calls to a Recorder.
type Clock struct {
	clockwork.Clock
	r *Recorder
}

// Sleep implements clockwork.Clock. It does not block.
func (c *Clock) Sleep(d time.Duration) {
	_ = c.r.record(Event{Delay: d})
}

var _ gpio.PinOut = &Pin{}
