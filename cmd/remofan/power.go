package main

import (
	"fmt"

	controlremo "github.com/eivy/remo-fan-power"
	"github.com/eivy/remo-fan-power/ir"
	"github.com/spf13/cobra"
)

var powerFlags struct {
	ApplianceID string
	Nickname    string
	Type        string
	Pattern     string
	RegisterAs  string
	Raw         string
	Entry       string
	Surface     string
}

func init() {
	f := powerOnCmd.Flags()
	f.StringVar(&powerFlags.ApplianceID, "appliance-id", "", "appliance id, skips the nickname and type match")
	f.StringVar(&powerFlags.Nickname, "nickname", "", "substring of the appliance nickname")
	f.StringVar(&powerFlags.Type, "type", "", "appliance type fallback (IR, TV, LIGHT, AC, ANY)")
	f.StringVar(&powerFlags.Pattern, "signal", "", "signal name to look for")
	f.StringVar(&powerFlags.RegisterAs, "register-as", "", "name given to a newly registered signal")
	f.StringVar(&powerFlags.Raw, "raw", "", `raw record to register when missing, e.g. '{"format":"us","freq":38,"data":[...]}'`)
	f.StringVar(&powerFlags.Entry, "entry", "", "catalog entry to register when missing")
	f.StringVar(&powerFlags.Surface, "surface", "", "cloud or local")
	rootCmd.AddCommand(powerOnCmd)
}

var powerOnCmd = &cobra.Command{
	Use:   "power-on",
	Short: "Send the power signal of the fan, registering it first when the hub does not know it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		sel, q, surface, err := powerRequest()
		if err != nil {
			return err
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		if surface == controlremo.SurfaceLocal {
			if q.Raw == nil {
				return fmt.Errorf("local surface needs a raw record: use --raw or --entry")
			}
			local, err := newLocal()
			if err != nil {
				return err
			}
			if err := local.Emit(ctx, *q.Raw); err != nil {
				return err
			}
			fmt.Printf("Emitted %d pulses on %s\n", len(q.Raw.Data), cfg.LocalHost)
			return nil
		}

		ctl, err := newController(nil)
		if err != nil {
			return err
		}
		res, err := ctl.PowerOn(ctx, sel, q)
		if err != nil {
			return err
		}
		verb := "Sent"
		if res.Created {
			verb = "Registered and sent"
		}
		if cfg.DryRun {
			verb = "[dry-run] would send"
		}
		fmt.Printf("%s signal %s (id=%s) to %s (id=%s)\n", verb, res.Signal.Name, res.Signal.ID, res.Appliance.Nickname, res.Appliance.ID)
		return nil
	},
}

// powerRequest merges the config with the command flags.
func powerRequest() (controlremo.Selector, controlremo.SignalRequest, controlremo.Surface, error) {
	sel, q, surface := cfg.Appliance, cfg.Signal, cfg.Surface
	if powerFlags.ApplianceID != "" {
		sel.ID = powerFlags.ApplianceID
	}
	if powerFlags.Nickname != "" {
		sel.Nickname = powerFlags.Nickname
	}
	if powerFlags.Type != "" {
		t, err := controlremo.ParseApplianceType(powerFlags.Type)
		if err != nil {
			return sel, q, surface, err
		}
		sel.Type = t
	}
	if powerFlags.Pattern != "" {
		q.Pattern = powerFlags.Pattern
	}
	if powerFlags.RegisterAs != "" {
		q.RegisterAs = powerFlags.RegisterAs
	}
	if powerFlags.Surface != "" {
		s, err := controlremo.ParseSurface(powerFlags.Surface)
		if err != nil {
			return sel, q, surface, err
		}
		surface = s
	}

	switch {
	case powerFlags.Raw != "":
		raw, err := ir.Parse([]byte(powerFlags.Raw))
		if err != nil {
			return sel, q, surface, fmt.Errorf("--raw: %w", err)
		}
		q.Raw = &raw
	case q.Raw == nil:
		entry := powerFlags.Entry
		if entry == "" {
			entry = cfg.CatalogEntry
		}
		c, err := loadCatalog()
		if err != nil {
			return sel, q, surface, err
		}
		if entry == "" {
			name := q.Pattern
			if name == "" {
				name = controlremo.DefaultSignalName
			}
			// a catalog entry named like the signal is used when present
			if raw, err := controlremo.CatalogSignal(c, cfg.Device, name); err == nil {
				q.Raw = raw
			}
			break
		}
		raw, err := controlremo.CatalogSignal(c, cfg.Device, entry)
		if err != nil {
			return sel, q, surface, err
		}
		q.Raw = raw
	}
	return sel, q, surface, nil
}
