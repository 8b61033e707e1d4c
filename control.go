package hd44780

import (
	"context"

	"github.com/flavioheleno/hd44780/bus4bit"
)

// Command is an out-of-band control request.
type Command string

const (
	// CmdClear blanks the display and returns the cursor to the first
	// position. It also resets the write position to 0.
	CmdClear Command = "clear"
)

// Clear blanks the display. It is Control(context.Background(), CmdClear).
func (d *Dev) Clear() error {
	return d.Control(context.Background(), CmdClear)
}

// Control executes cmd on the same locked path as writes, with the register
// select forced to Command for the duration of the call.
//
// An unrecognized command does nothing and returns nil.
func (d *Dev) Control(ctx context.Context, cmd Command) error {
	switch cmd {
	case CmdClear:
		if _, err := d.send(ctx, []byte{instrClearDisplay}, bus4bit.Command, d.home); err != nil {
			return err
		}
		d.log.Debug().Str("command", string(cmd)).Msg("control")
		return nil
	default:
		d.log.Warn().Str("command", string(cmd)).Msg("unrecognized control command ignored")
		return nil
	}
}

// home waits for a clear to execute and rewinds the position.
// The lock must be held.
func (d *Dev) home(n int) {
	if n == 0 {
		return
	}
	d.bus.Sleep(clearDelay)
	d.pos = 0
}
