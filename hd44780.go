// Package hd44780 controls an HD44780 character LCD wired on a 4-bit GPIO bus.
//
// The display is exposed as a write-only, seekable stream bounded by its
// character capacity (rows × columns). All access to the bus is serialized.
//
// See the examples for how to use this package.
package hd44780

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"
	"periph.io/x/conn/v3"

	"github.com/flavioheleno/hd44780/bus4bit"
)

// Opts is the configuration for the HD44780 display.
type Opts struct {
	// Display geometry in characters
	Rows int // default: 2, must be between 1 and 4
	Cols int // default: 16, must be between 1 and 40

	// Bus timing
	Clock  clockwork.Clock // nil uses the real clock
	Settle time.Duration   // default: bus4bit.SettleDelay, must not be lower

	// Logger receives debug traces. nil disables logging.
	Logger *zerolog.Logger
}

// Dev is the device handle for the HD44780 display.
type Dev struct {
	bus *bus4bit.Bus
	log zerolog.Logger

	// Display geometry
	rows, cols int
	capacity   int

	// Access lock; guards every field below and the bus itself.
	sem *semaphore.Weighted

	pos    int64
	halted bool
}

// NewGPIO creates a new HD44780 device driven over the six given lines.
//
// The lines are claimed as outputs and the power-on initialization sequence
// is run before NewGPIO returns.
//
// opts can be nil to use defaults (2x16 display).
func NewGPIO(pins bus4bit.Pins, opts *Opts) (*Dev, error) {
	if opts == nil {
		opts = &Opts{}
	}
	rows, cols := opts.Rows, opts.Cols
	if rows == 0 {
		rows = 2
	}
	if cols == 0 {
		cols = 16
	}
	if rows < 1 || rows > 4 {
		return nil, fmt.Errorf("%w: rows must be between 1 and 4", ErrInvalidParameter)
	}
	if cols < 1 || cols > 40 {
		return nil, fmt.Errorf("%w: cols must be between 1 and 40", ErrInvalidParameter)
	}
	if rows*cols > 80 {
		return nil, fmt.Errorf("%w: %dx%d exceeds the 80 character display RAM", ErrInvalidParameter, rows, cols)
	}
	b, err := bus4bit.New(pins, &bus4bit.Opts{Clock: opts.Clock, Settle: opts.Settle})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidParameter, err)
	}

	d := &Dev{
		bus:      b,
		log:      zerolog.Nop(),
		rows:     rows,
		cols:     cols,
		capacity: rows * cols,
		sem:      semaphore.NewWeighted(1),
	}
	if opts.Logger != nil {
		d.log = opts.Logger.With().Str("device", d.String()).Logger()
	}

	if err := b.Configure(); err != nil {
		_ = b.Halt()
		return nil, fmt.Errorf("hd44780: %w", err)
	}
	if err := d.init(); err != nil {
		_ = b.Halt()
		return nil, err
	}
	d.log.Debug().Stringer("bus", b).Msg("initialized")
	return d, nil
}

// Capacity returns the number of characters the display holds.
func (d *Dev) Capacity() int {
	return d.capacity
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	return fmt.Sprintf("hd44780.Dev{%dx%d}", d.rows, d.cols)
}

// Read always fails; the display is write-only.
func (d *Dev) Read(p []byte) (int, error) {
	return 0, ErrNotSupported
}

// Write sends p to the display as characters.
func (d *Dev) Write(p []byte) (int, error) {
	return d.WriteContext(context.Background(), p)
}

// WriteString sends s to the display as characters.
func (d *Dev) WriteString(s string) (int, error) {
	return d.Write([]byte(s))
}

// WriteContext sends p to the display as characters.
//
// It blocks until the bus is free or ctx is done, in which case it returns
// ErrInterrupted without touching the bus. A p longer than Capacity is
// rejected with ErrMessageTooLarge, also without touching the bus. Once the
// first byte is sent the write runs to completion; ctx is not consulted again.
func (d *Dev) WriteContext(ctx context.Context, p []byte) (int, error) {
	n, err := d.send(ctx, p, bus4bit.Character, d.advance)
	if err != nil {
		return n, err
	}
	d.log.Debug().Int("bytes", n).Msg("write")
	return n, nil
}

// Seek sets the position for the next write. See SeekContext.
func (d *Dev) Seek(offset int64, whence int) (int64, error) {
	return d.SeekContext(context.Background(), offset, whence)
}

// SeekContext sets the position for the next write, relative to the start
// (io.SeekStart), the current position (io.SeekCurrent) or the capacity
// (io.SeekEnd).
//
// A target past the capacity is rejected with ErrInvalidArgument. A negative
// target is clamped to 0. As with any io.Seeker, io.SeekEnd adds offset to the
// capacity, so useful io.SeekEnd offsets are zero or negative.
func (d *Dev) SeekContext(ctx context.Context, offset int64, whence int) (int64, error) {
	if err := d.lock(ctx); err != nil {
		return 0, err
	}
	defer d.unlock()
	if d.halted {
		return 0, ErrHalted
	}

	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = d.pos + offset
	case io.SeekEnd:
		pos = int64(d.capacity) + offset
	default:
		return d.pos, fmt.Errorf("%w: whence %d", ErrInvalidArgument, whence)
	}
	if pos > int64(d.capacity) {
		return d.pos, fmt.Errorf("%w: position %d past capacity %d", ErrInvalidArgument, pos, d.capacity)
	}
	if pos < 0 {
		pos = 0
	}
	d.pos = pos
	d.log.Debug().Int64("pos", pos).Msg("seek")
	return pos, nil
}

// Halt turns the display off and releases the bus lines.
// After calling Halt, every operation returns ErrHalted.
func (d *Dev) Halt() error {
	if err := d.lock(context.Background()); err != nil {
		return err
	}
	defer d.unlock()
	if d.halted {
		return nil
	}
	d.halted = true
	err := d.bus.Transmit(instrDisplayOff, bus4bit.Command)
	if herr := d.bus.Halt(); err == nil {
		err = herr
	}
	if err != nil {
		return fmt.Errorf("hd44780: halt: %w", err)
	}
	d.log.Debug().Msg("halted")
	return nil
}

// Replace clears the display and writes p from the first position, holding
// the bus for both so no other access lands in between.
//
// p is checked against Capacity before anything is sent: an oversized p is
// rejected with ErrMessageTooLarge and the display keeps its content.
func (d *Dev) Replace(ctx context.Context, p []byte) (int, error) {
	if err := d.acquire(ctx, len(p)); err != nil {
		return 0, err
	}
	defer d.unlock()

	if _, err := d.transmit([]byte{instrClearDisplay}, bus4bit.Command, d.home); err != nil {
		return 0, err
	}
	n, err := d.transmit(p, bus4bit.Character, d.advance)
	if err != nil {
		return n, err
	}
	d.log.Debug().Int("bytes", n).Msg("replace")
	return n, nil
}

// send is the single path to the bus for one message. It acquires the lock,
// rejects oversized messages and transmits p in the given mode.
func (d *Dev) send(ctx context.Context, p []byte, mode bus4bit.Mode, commit func(n int)) (int, error) {
	if err := d.acquire(ctx, len(p)); err != nil {
		return 0, err
	}
	defer d.unlock()
	return d.transmit(p, mode, commit)
}

// acquire takes the lock for a message of size bytes. On success the caller
// must unlock.
func (d *Dev) acquire(ctx context.Context, size int) error {
	if err := d.lock(ctx); err != nil {
		return err
	}
	if d.halted {
		d.unlock()
		return ErrHalted
	}
	if size > d.capacity {
		d.unlock()
		return fmt.Errorf("%w: %d bytes, capacity %d", ErrMessageTooLarge, size, d.capacity)
	}
	return nil
}

// transmit sends p in mode and calls commit with the number of bytes sent.
// Every byte carries mode on RS, so a Command transmission never leaks into
// the next Character one. The lock must be held.
func (d *Dev) transmit(p []byte, mode bus4bit.Mode, commit func(n int)) (int, error) {
	n := 0
	for _, b := range p {
		if err := d.bus.Transmit(b, mode); err != nil {
			commit(n)
			return n, fmt.Errorf("hd44780: write byte %d: %w", n, err)
		}
		n++
	}
	commit(n)
	return n, nil
}

// advance moves the position forward by n, stopping at the capacity.
// The lock must be held.
func (d *Dev) advance(n int) {
	d.pos += int64(n)
	if d.pos > int64(d.capacity) {
		d.pos = int64(d.capacity)
	}
}

func (d *Dev) lock(ctx context.Context) error {
	if err := d.sem.Acquire(ctx, 1); err != nil {
		d.log.Warn().Err(err).Msg("bus lock wait interrupted")
		return fmt.Errorf("%w: %w", ErrInterrupted, err)
	}
	return nil
}

func (d *Dev) unlock() {
	d.sem.Release(1)
}

var _ io.ReadWriteSeeker = &Dev{}
var _ io.StringWriter = &Dev{}
var _ conn.Resource = &Dev{}
