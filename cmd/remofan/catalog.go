package main

import (
	"fmt"
	"strings"

	"github.com/eivy/remo-fan-power/catalog"
	"github.com/eivy/remo-fan-power/ir"
	"github.com/spf13/cobra"
)

var catalogFlags struct {
	Device   string
	Raw      string
	Note     string
	Verified bool
	Out      string
}

func init() {
	add := catalogAddCmd.Flags()
	add.StringVar(&catalogFlags.Raw, "raw", "", "raw record as JSON")
	add.StringVar(&catalogFlags.Note, "note", "", "free text kept with the entry")
	add.BoolVar(&catalogFlags.Verified, "verified", false, "the record was observed to work on the device")
	_ = catalogAddCmd.MarkFlagRequired("raw")

	catalogExportCmd.Flags().StringVar(&catalogFlags.Out, "out", "docs/signals", "directory of the markdown documents")

	catalogCmd.PersistentFlags().StringVar(&catalogFlags.Device, "device", "", "device name (default from config)")
	catalogCmd.AddCommand(catalogAddCmd, catalogListCmd, catalogExportCmd)
	rootCmd.AddCommand(catalogCmd)
}

func catalogDevice() string {
	if catalogFlags.Device != "" {
		return catalogFlags.Device
	}
	return cfg.Device
}

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Keep the raw records known to work on each device",
	Args:  cobra.NoArgs,
}

var catalogAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add or replace an entry of the device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := ir.Parse([]byte(catalogFlags.Raw))
		if err != nil {
			return fmt.Errorf("--raw: %w", err)
		}
		if err := raw.Validate(); err != nil {
			log.Info("Storing a questionable record", "error", err.Error())
		}
		c, err := loadCatalog()
		if err != nil {
			return err
		}
		c.Add(catalogDevice(), catalog.Entry{Name: args[0], Note: catalogFlags.Note, Verified: catalogFlags.Verified, Signal: raw})
		if err := c.Save(cfg.Catalog); err != nil {
			return err
		}
		fmt.Printf("Stored %s/%s in %s\n", catalogDevice(), args[0], cfg.Catalog)
		return nil
	},
}

type entryRow struct {
	Device   string `json:"device" yaml:"device"`
	Name     string `json:"name" yaml:"name"`
	Verified bool   `json:"verified" yaml:"verified"`
	Freq     int    `json:"freq" yaml:"freq"`
	Pulses   int    `json:"pulses" yaml:"pulses"`
	Note     string `json:"note,omitempty" yaml:"note,omitempty"`
}

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the entries of every device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			return err
		}
		rows := []entryRow{}
		for _, d := range c.Devices {
			if catalogFlags.Device != "" && !strings.EqualFold(d.Name, catalogFlags.Device) {
				continue
			}
			for _, e := range d.Entries {
				rows = append(rows, entryRow{Device: d.Name, Name: e.Name, Verified: e.Verified, Freq: e.Signal.Freq, Pulses: len(e.Signal.Data), Note: e.Note})
			}
		}
		return printResult(rows)
	},
}

var catalogExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write one markdown document per device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := loadCatalog()
		if err != nil {
			return err
		}
		paths, err := c.WriteMarkdown(catalogFlags.Out)
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Println(p)
		}
		return nil
	},
}
