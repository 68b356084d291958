package controlremo

import (
	"context"
	"time"

	"github.com/eivy/remo-fan-power/ir"
)

// FanHeader is the fixed part of the frames captured from the fan remote,
// LSB-first decoded.
var FanHeader = []byte{0x23, 0xCB, 0x16, 0x44, 0x80, 0x89}

// Sweep describes a brute force over the last byte of an AEHA frame:
// Header, then Cmd, then every value in [From, To].
type Sweep struct {
	Header   []byte
	Cmd      byte
	From     int
	To       int
	Freq     int
	Unit     float64
	Interval time.Duration
}

// SweepResult is reported once per emitted frame.
type SweepResult struct {
	Last  byte
	Frame []byte
	Err   error
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 0xFF {
		return 0xFF
	}
	return v
}

// Sweep emits one frame per value, waiting sw.Interval between frames. A
// failed emit is reported and the sweep goes on; only ctx stops it early.
func (l *Local) Sweep(ctx context.Context, sw Sweep, report func(SweepResult)) error {
	freq := sw.Freq
	if freq == 0 {
		freq = ir.DefaultFreq
	}
	unit := sw.Unit
	if unit == 0 {
		unit = ir.SweepUnit
	}

	for v := clampByte(sw.From); v <= clampByte(sw.To); v++ {
		frame := make([]byte, 0, len(sw.Header)+2)
		frame = append(frame, sw.Header...)
		frame = append(frame, sw.Cmd, byte(v))

		raw := ir.Signal{Format: ir.FormatMicroseconds, Freq: freq, Data: ir.EncodeAEHA(frame, unit)}
		err := l.Emit(ctx, raw)
		if err != nil {
			l.log.Error(err, "Sweep frame failed", "last", v)
		}
		if report != nil {
			report(SweepResult{Last: byte(v), Frame: frame, Err: err})
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sw.Interval):
		}
	}
	return nil
}
