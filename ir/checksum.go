package ir

import (
	"fmt"
	"strings"
)

// FrameLen is the length of the fan remote frames the checksum search targets:
// six header bytes, a command byte and the checksum.
const FrameLen = 8

const (
	cmdIndex      = 6
	checksumIndex = 7
	maxCmdWeight  = 16
)

type rule struct {
	name string
	fn   func(b []byte) byte
}

func subsetName(s []int) string {
	parts := make([]string, len(s))
	for i, v := range s {
		parts[i] = fmt.Sprint(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// subsets enumerates the non-empty subsets of byte indexes 0..6.
func subsets() [][]int {
	var out [][]int
	for mask := 1; mask < 1<<(cmdIndex+1); mask++ {
		var s []int
		for i := 0; i <= cmdIndex; i++ {
			if mask>>i&1 == 1 {
				s = append(s, i)
			}
		}
		out = append(out, s)
	}
	return out
}

func sum(b []byte, s []int) int {
	n := 0
	for _, i := range s {
		n += int(b[i])
	}
	return n
}

func xor(b []byte, s []int) byte {
	var v byte
	for _, i := range s {
		v ^= b[i]
	}
	return v
}

// SearchChecksum lists the checksum rules that reproduce byte 7 of every
// sample from bytes 0..6. Samples shorter than FrameLen are ignored.
func SearchChecksum(samples [][]byte) []string {
	var frames [][]byte
	for _, s := range samples {
		if len(s) >= FrameLen {
			frames = append(frames, s[:FrameLen])
		}
	}
	if len(frames) == 0 {
		return nil
	}

	okAll := func(fn func([]byte) byte) bool {
		for _, b := range frames {
			if fn(b) != b[checksumIndex] {
				return false
			}
		}
		return true
	}

	var found []string
	all := subsets()

	for _, s := range all {
		name := subsetName(s)
		for _, r := range []rule{
			{fmt.Sprintf("sum(S=%s) mod 256", name), func(b []byte) byte { return byte(sum(b, s)) }},
			{fmt.Sprintf("(-sum(S=%s)) mod 256 (two's complement)", name), func(b []byte) byte { return byte(-sum(b, s)) }},
			{fmt.Sprintf("~sum(S=%s) & 0xFF", name), func(b []byte) byte { return ^byte(sum(b, s)) }},
		} {
			if okAll(r.fn) {
				found = append(found, r.name)
			}
		}
	}

	for _, s := range all {
		name := subsetName(s)
		for _, r := range []rule{
			{fmt.Sprintf("xor(S=%s)", name), func(b []byte) byte { return xor(b, s) }},
			{fmt.Sprintf("~xor(S=%s) & 0xFF", name), func(b []byte) byte { return ^xor(b, s) }},
		} {
			if okAll(r.fn) {
				found = append(found, r.name)
			}
		}
	}

	// sum(S) + k*cmd + c, with c fixed by the first sample.
	first := frames[0]
	for _, s := range all {
		for k := 0; k < maxCmdWeight; k++ {
			base := byte(sum(first, s) + k*int(first[cmdIndex]))
			c := first[checksumIndex] - base
			fn := func(b []byte) byte { return byte(sum(b, s)+k*int(b[cmdIndex])) + c }
			if okAll(fn) {
				found = append(found, fmt.Sprintf("(sum(S=%s) + %d*cmd + %d) mod 256", subsetName(s), k, c))
			}
		}
	}
	return found
}
