package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	controlremo "github.com/eivy/remo-fan-power"
	"github.com/eivy/remo-fan-power/ir"
	"github.com/spf13/cobra"
)

var sweepFlags struct {
	File     string
	Cmd      uint8
	Start    int
	End      int
	Freq     int
	Interval time.Duration
}

var analyzeFlags struct {
	Group1 string
	Group2 string
}

func init() {
	f := sweepCmd.Flags()
	f.StringVar(&sweepFlags.File, "file", "dump-results.txt", "capture dump the timing unit is estimated from")
	f.Uint8Var(&sweepFlags.Cmd, "cmd", 0x02, "command byte before the swept byte")
	f.IntVar(&sweepFlags.Start, "start", 0, "first value of the last byte")
	f.IntVar(&sweepFlags.End, "end", 255, "last value of the last byte")
	f.IntVar(&sweepFlags.Freq, "freq", ir.DefaultFreq, "carrier frequency in kHz")
	f.DurationVar(&sweepFlags.Interval, "sleep", 2*time.Second, "pause between frames")

	for _, c := range []*cobra.Command{analyzeCmd, checksumCmd} {
		c.Flags().StringVar(&analyzeFlags.Group1, "group1", "2-5", "dump lines of the first group, 1-based inclusive")
		c.Flags().StringVar(&analyzeFlags.Group2, "group2", "7-10", "dump lines of the second group, 1-based inclusive")
	}
	rootCmd.AddCommand(sweepCmd, analyzeCmd, checksumCmd)
}

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Emit AEHA frames of the fan header with every value of the last byte",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		unit, err := unitFromDump(sweepFlags.File)
		if err != nil {
			return err
		}
		log.Info("Sweeping", "unit", unit, "cmd", sweepFlags.Cmd, "start", sweepFlags.Start, "end", sweepFlags.End)

		ctx, cancel := commandContext(cmd)
		defer cancel()
		local, err := newLocal()
		if err != nil {
			return err
		}
		return local.Sweep(ctx, controlremo.Sweep{
			Header:   controlremo.FanHeader,
			Cmd:      sweepFlags.Cmd,
			From:     sweepFlags.Start,
			To:       sweepFlags.End,
			Freq:     sweepFlags.Freq,
			Unit:     unit,
			Interval: sweepFlags.Interval,
		}, func(r controlremo.SweepResult) {
			if r.Err != nil {
				fmt.Printf("XX=0x%02X: %v\n", r.Last, r.Err)
				return
			}
			fmt.Printf("XX=0x%02X: sent\n", r.Last)
		})
	},
}

// unitFromDump estimates the timing unit over every frame of a dump, or
// falls back to ir.SweepUnit when there is no dump.
func unitFromDump(path string) (float64, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return ir.SweepUnit, nil
	}
	if err != nil {
		return 0, err
	}
	defer f.Close()
	frames, err := ir.ParseDump(f)
	if err != nil {
		return 0, err
	}
	var all []uint32
	for _, fr := range frames {
		all = append(all, fr.Signal.Data...)
	}
	if len(all) == 0 {
		return ir.SweepUnit, nil
	}
	return ir.EstimateUnit(all), nil
}

func parseRange(s string) (int, int, error) {
	a, b, ok := strings.Cut(s, "-")
	if !ok {
		return 0, 0, fmt.Errorf("range %q: want FROM-TO", s)
	}
	from, err := strconv.Atoi(a)
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	to, err := strconv.Atoi(b)
	if err != nil {
		return 0, 0, fmt.Errorf("range %q: %w", s, err)
	}
	return from, to, nil
}

func loadGroups(path string) ([]ir.Frame, []ir.Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()
	frames, err := ir.ParseDump(f)
	if err != nil {
		return nil, nil, err
	}
	if len(frames) == 0 {
		return nil, nil, fmt.Errorf("%s: no JSON lines with a data array", path)
	}
	a1, b1, err := parseRange(analyzeFlags.Group1)
	if err != nil {
		return nil, nil, err
	}
	a2, b2, err := parseRange(analyzeFlags.Group2)
	if err != nil {
		return nil, nil, err
	}
	return ir.Select(frames, a1, b1), ir.Select(frames, a2, b2), nil
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze FILE",
	Short: "Decode the AEHA bits of two groups of dump lines and compare them",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g1, g2, err := loadGroups(args[0])
		if err != nil {
			return err
		}
		summarize("Group1", g1)
		summarize("Group2", g2)
		if len(g1) > 0 && len(g2) > 0 {
			fmt.Println("=== Cross-group comparison ===")
			fmt.Printf("Hamming(group1.first, group2.first) = %d\n", ir.Hamming(g1[0].Bits, g2[0].Bits))
		}
		return nil
	},
}

func summarize(label string, group []ir.Frame) {
	fmt.Printf("=== %s (%d lines) ===\n", label, len(group))
	for _, f := range group {
		b := f.Bytes()
		if len(b) > ir.FrameLen {
			b = b[:ir.FrameLen]
		}
		fmt.Printf("- line %d: unit~%.0fus bits=%d bytes=% X\n", f.Line, f.Unit, len(f.Bits), b)
	}
	if len(group) == 0 {
		return
	}
	fmt.Println("Hamming to first:")
	for _, f := range group {
		fmt.Printf("  line %d: %d\n", f.Line, ir.Hamming(group[0].Bits, f.Bits))
	}
}

var checksumCmd = &cobra.Command{
	Use:   "checksum FILE",
	Short: "List checksum rules that hold for every 8-byte frame of the selected dump lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		g1, g2, err := loadGroups(args[0])
		if err != nil {
			return err
		}
		var samples [][]byte
		for i, g := range [][]ir.Frame{g1, g2} {
			for j, f := range g {
				b := f.Bytes()
				if len(b) < ir.FrameLen {
					continue
				}
				if j == 0 {
					fmt.Printf("Group%d rep bytes: % X\n", i+1, b[:ir.FrameLen])
				}
				samples = append(samples, b[:ir.FrameLen])
			}
		}
		if len(samples) == 0 {
			return fmt.Errorf("no decodable %d-byte frames in the selected lines", ir.FrameLen)
		}

		rules := ir.SearchChecksum(samples)
		fmt.Printf("Found %d candidate checksum rules that match all samples:\n", len(rules))
		for i, r := range rules {
			if i == 50 {
				fmt.Printf(" ... and %d more\n", len(rules)-50)
				break
			}
			fmt.Println(" -", r)
		}
		return nil
	},
}
