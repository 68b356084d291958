package ir

import (
	"math"
	"sort"
	"strings"
)

const (
	// DefaultUnit is used when a frame carries no usable pulse.
	DefaultUnit float64 = 425
	// SweepUnit is the unit observed on the fan remote when no sample is at hand.
	SweepUnit float64 = 355

	minUnit         float64 = 50
	shortPulseMax   uint32  = 800
	leaderTolerance float64 = 0.6
)

// EstimateUnit guesses the base unit T of an AEHA style frame: the median of
// the short pulses, or of every non-zero pulse when none is short.
func EstimateUnit(data []uint32) float64 {
	small := make([]float64, 0, len(data))
	for _, v := range data {
		if v > 0 && v < shortPulseMax {
			small = append(small, float64(v))
		}
	}
	if len(small) == 0 {
		for _, v := range data {
			if v > 0 {
				small = append(small, float64(v))
			}
		}
	}
	if len(small) == 0 {
		return DefaultUnit
	}
	return median(small)
}

func median(v []float64) float64 {
	sort.Float64s(v)
	n := len(v)
	if n%2 == 1 {
		return v[n/2]
	}
	return (v[n/2-1] + v[n/2]) / 2
}

func near(x, target, tol float64) bool {
	return math.Abs(x-target) <= tol*target
}

// MatchesAEHALeader reports whether p looks like an 8T mark / 4T space leader.
func MatchesAEHALeader(p Pair, unit float64) bool {
	return near(float64(p.Mark), 8*unit, leaderTolerance) && near(float64(p.Space), 4*unit, leaderTolerance)
}

// EncodeAEHA builds the pulse train for the given bytes: leader, LSB-first
// bits as 1T mark plus 1T (zero) or 3T (one) space, then a 1T trailer mark.
func EncodeAEHA(bytes []byte, unit float64) []uint32 {
	t := math.Max(minUnit, unit)
	us := func(n float64) uint32 { return uint32(math.Round(n * t)) }

	seq := make([]uint32, 0, 2+len(bytes)*16+1)
	seq = append(seq, us(8), us(4))
	for _, b := range bytes {
		for i := 0; i < 8; i++ {
			seq = append(seq, us(1))
			if (b>>i)&1 == 1 {
				seq = append(seq, us(3))
			} else {
				seq = append(seq, us(1))
			}
		}
	}
	return append(seq, us(1))
}

// DecodeAEHA turns a pulse train into a bit string. The first pair is taken
// as the leader whether or not it matches; each following space is mapped to
// the nearest of 1T and 3T.
func DecodeAEHA(data []uint32, unit float64) string {
	arr := make([]uint32, 0, len(data))
	for _, v := range data {
		if v != 0 {
			arr = append(arr, v)
		}
	}
	if len(arr) < 4 {
		return ""
	}

	var bits strings.Builder
	for i := 2; i+1 < len(arr); i += 2 {
		r := 0.0
		if unit > 0 {
			r = float64(arr[i+1]) / unit
		}
		if math.Abs(r-3) < math.Abs(r-1) {
			bits.WriteByte('1')
		} else {
			bits.WriteByte('0')
		}
	}
	return bits.String()
}

// BitsToBytes packs groups of eight bits, first bit as LSB. A trailing
// partial group is dropped.
func BitsToBytes(bits string) []byte {
	out := make([]byte, 0, len(bits)/8)
	for i := 0; i+8 <= len(bits); i += 8 {
		var v byte
		for j := 0; j < 8; j++ {
			if bits[i+j] == '1' {
				v |= 1 << j
			}
		}
		out = append(out, v)
	}
	return out
}

// Hamming counts differing positions plus the length difference.
func Hamming(a, b string) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	d := 0
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			d++
		}
	}
	if len(a) > len(b) {
		return d + len(a) - len(b)
	}
	return d + len(b) - len(a)
}
