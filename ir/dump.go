package ir

import (
	"bufio"
	"encoding/json"
	"io"
	"strings"
)

// Frame is one decoded line of a capture dump.
type Frame struct {
	Line   int // 1-based
	Signal Signal
	Unit   float64
	Bits   string
}

// Bytes returns the frame bits packed LSB-first.
func (f Frame) Bytes() []byte {
	return BitsToBytes(f.Bits)
}

type dumpRecord struct {
	Format string  `json:"format"`
	Freq   int     `json:"freq"`
	Data   []int64 `json:"data"`
}

// ParseLine extracts the JSON object from a dump line. Lines may carry a
// prefix before the object or garbage after its closing brace; blank lines
// and "#" or "//" comments yield false.
func ParseLine(line string) (Signal, bool) {
	s := strings.TrimSpace(line)
	if s == "" || strings.HasPrefix(s, "#") || strings.HasPrefix(s, "//") {
		return Signal{}, false
	}
	i := strings.Index(s, "{")
	if i < 0 {
		return Signal{}, false
	}
	js := s[i:]

	var rec dumpRecord
	if err := json.Unmarshal([]byte(js), &rec); err != nil {
		j := strings.LastIndex(js, "}")
		if j < 0 {
			return Signal{}, false
		}
		rec = dumpRecord{}
		if err := json.Unmarshal([]byte(js[:j+1]), &rec); err != nil {
			return Signal{}, false
		}
	}

	sig := Signal{Format: rec.Format, Freq: rec.Freq, Data: make([]uint32, len(rec.Data))}
	if sig.Format == "" {
		sig.Format = FormatMicroseconds
	}
	if sig.Freq == 0 {
		sig.Freq = DefaultFreq
	}
	for k, v := range rec.Data {
		if v < 0 {
			v = -v
		}
		sig.Data[k] = uint32(v)
	}
	return sig, true
}

// ParseDump reads a JSON-lines capture and decodes every frame with at
// least two pulses.
func ParseDump(r io.Reader) ([]Frame, error) {
	var frames []Frame
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		sig, ok := ParseLine(sc.Text())
		if !ok || len(sig.Data) < 2 {
			continue
		}
		unit := EstimateUnit(sig.Data)
		frames = append(frames, Frame{
			Line:   line,
			Signal: sig,
			Unit:   unit,
			Bits:   DecodeAEHA(sig.Data, unit),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return frames, nil
}

// Select returns the frames whose line number lies in [from, to].
func Select(frames []Frame, from, to int) []Frame {
	var out []Frame
	for _, f := range frames {
		if f.Line >= from && f.Line <= to {
			out = append(out, f)
		}
	}
	return out
}
