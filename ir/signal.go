// Package ir holds the raw infrared record exchanged with the hub and the
// helpers used while tuning pulse timings by hand.
package ir

import (
	"encoding/json"
	"errors"
	"fmt"
)

// FormatMicroseconds is the only format the hub understands.
const FormatMicroseconds = "us"

// DefaultFreq is the usual consumer IR carrier in kHz.
const DefaultFreq = 38

var (
	ErrEmpty     = errors.New("ir: signal has no pulses")
	ErrFormat    = errors.New("ir: unsupported format")
	ErrOddLength = errors.New("ir: odd number of pulses")
)

// Signal is a raw infrared record: alternating mark/space durations.
type Signal struct {
	Format string   `json:"format" yaml:"format"`
	Freq   int      `json:"freq" yaml:"freq"`
	Data   []uint32 `json:"data" yaml:"data,flow"`
}

// NewSignal returns a record in microseconds on the default carrier.
func NewSignal(data ...uint32) Signal {
	return Signal{Format: FormatMicroseconds, Freq: DefaultFreq, Data: data}
}

// Validate reports structural problems. ErrOddLength is advisory: the hub
// accepts such frames and some remotes end on a trailing mark.
func (s Signal) Validate() error {
	if s.Format != FormatMicroseconds {
		return fmt.Errorf("%w: %q", ErrFormat, s.Format)
	}
	if len(s.Data) == 0 {
		return ErrEmpty
	}
	if len(s.Data)%2 != 0 {
		return ErrOddLength
	}
	return nil
}

// Message is the JSON text the cloud API expects in the "message" field.
func (s Signal) Message() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Parse decodes a raw record and fills the defaults for missing fields.
func Parse(b []byte) (Signal, error) {
	var s Signal
	if err := json.Unmarshal(b, &s); err != nil {
		return Signal{}, fmt.Errorf("ir: parse signal: %w", err)
	}
	if s.Format == "" {
		s.Format = FormatMicroseconds
	}
	if s.Freq == 0 {
		s.Freq = DefaultFreq
	}
	return s, nil
}

// Lead returns the first mark/space pair, if any.
func (s Signal) Lead() (Pair, bool) {
	if len(s.Data) < 2 {
		return Pair{}, false
	}
	return Pair{Mark: s.Data[0], Space: s.Data[1]}, true
}

// Pair is one mark followed by one space.
type Pair struct {
	Mark  uint32 `json:"mark"`
	Space uint32 `json:"space"`
}

func (p Pair) String() string {
	return fmt.Sprintf("(%d, %d)", p.Mark, p.Space)
}

// Pairs splits the pulses into mark/space pairs; a trailing mark gets a zero space.
func (s Signal) Pairs() []Pair {
	pairs := make([]Pair, 0, (len(s.Data)+1)/2)
	for i := 0; i < len(s.Data); i += 2 {
		p := Pair{Mark: s.Data[i]}
		if i+1 < len(s.Data) {
			p.Space = s.Data[i+1]
		}
		pairs = append(pairs, p)
	}
	return pairs
}
