package main

import (
	"context"
	"fmt"
	"os"
	"time"

	controlremo "github.com/eivy/remo-fan-power"
	"github.com/eivy/remo-fan-power/catalog"
	"github.com/eivy/remo-fan-power/ir"
	"github.com/eivy/remo-fan-power/mqtt"
	"github.com/spf13/cobra"
)

var localFlags struct {
	Raw      string
	Entry    string
	Wait     time.Duration
	Interval time.Duration
	Save     string
	Add      string
	Forward  bool
	Target   string
	Surface  string
}

func init() {
	emit := localEmitCmd.Flags()
	emit.StringVar(&localFlags.Raw, "raw", "", "raw record as JSON")
	emit.StringVar(&localFlags.Entry, "entry", "", "catalog entry of the configured device")

	capture := localCaptureCmd.Flags()
	capture.DurationVar(&localFlags.Wait, "wait", 10*time.Second, "how long to poll for a frame")
	capture.DurationVar(&localFlags.Interval, "interval", 200*time.Millisecond, "polling interval")
	capture.StringVar(&localFlags.Save, "save", "", "write the captured record as JSON to this file")
	capture.StringVar(&localFlags.Add, "add", "", "store the captured record in the catalog under this name")

	watch := localWatchCmd.Flags()
	watch.DurationVar(&localFlags.Interval, "interval", 200*time.Millisecond, "polling interval")
	watch.BoolVar(&localFlags.Forward, "forward", false, "publish a command when a frame matches a catalog entry")
	watch.StringVar(&localFlags.Target, "target", "", "appliance commanded by forwarded frames (default: the device)")
	watch.StringVar(&localFlags.Surface, "surface", "cloud", "surface of forwarded commands")

	localCmd.AddCommand(localEmitCmd, localCaptureCmd, localWatchCmd)
	rootCmd.AddCommand(localCmd)
}

var localCmd = &cobra.Command{
	Use:   "local",
	Short: "Talk to the hub on the LAN",
	Args:  cobra.NoArgs,
}

var localEmitCmd = &cobra.Command{
	Use:   "emit",
	Short: "Transmit a raw record immediately, without registering it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var raw ir.Signal
		switch {
		case localFlags.Raw != "":
			var err error
			if raw, err = ir.Parse([]byte(localFlags.Raw)); err != nil {
				return fmt.Errorf("--raw: %w", err)
			}
		case localFlags.Entry != "":
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			r, err := controlremo.CatalogSignal(c, cfg.Device, localFlags.Entry)
			if err != nil {
				return err
			}
			raw = *r
		default:
			return fmt.Errorf("use --raw or --entry")
		}
		if err := raw.Validate(); err != nil {
			log.Info("Emitting a questionable record", "error", err.Error())
		}

		ctx, cancel := commandContext(cmd)
		defer cancel()
		local, err := newLocal()
		if err != nil {
			return err
		}
		if err := local.Emit(ctx, raw); err != nil {
			return err
		}
		fmt.Printf("Emitted %d pulses at %d kHz\n", len(raw.Data), raw.Freq)
		return nil
	},
}

var localCaptureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Wait for the hub to receive a frame and print it",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		ctx, cancelWait := context.WithTimeout(ctx, localFlags.Wait)
		defer cancelWait()

		local, err := newLocal()
		if err != nil {
			return err
		}
		sig, err := local.Capture(ctx, localFlags.Interval)
		if err != nil {
			return fmt.Errorf("no frame within %s: %w", localFlags.Wait, err)
		}
		msg, err := sig.Message()
		if err != nil {
			return err
		}
		fmt.Println(msg)

		if localFlags.Save != "" {
			if err := os.WriteFile(localFlags.Save, []byte(msg+"\n"), 0o644); err != nil {
				return err
			}
			log.Info("Saved", "path", localFlags.Save)
		}
		if localFlags.Add != "" {
			c, err := loadCatalog()
			if err != nil {
				return err
			}
			c.Add(cfg.Device, catalog.Entry{Name: localFlags.Add, Signal: sig, Note: "captured from " + cfg.LocalHost})
			if err := c.Save(cfg.Catalog); err != nil {
				return err
			}
			log.Info("Added to catalog", "device", cfg.Device, "entry", localFlags.Add)
		}
		return nil
	},
}

var localWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print every frame the hub receives until interrupted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		local, err := newLocal()
		if err != nil {
			return err
		}

		observe := func(ir.Signal, bool) {}
		if localFlags.Forward {
			trigger, disconnect, err := newTrigger()
			if err != nil {
				return err
			}
			defer disconnect()
			observe = trigger.Observe
		}

		var last string
		return local.Watch(ctx, localFlags.Interval, func(sig ir.Signal, ok bool) {
			observe(sig, ok)
			if !ok {
				return
			}
			msg, err := sig.Message()
			if err != nil || msg == last {
				return
			}
			last = msg
			fmt.Printf("%s %s\n", time.Now().Format(time.TimeOnly), msg)
		})
	},
}

func newTrigger() (*controlremo.Trigger, func(), error) {
	surface, err := controlremo.ParseSurface(localFlags.Surface)
	if err != nil {
		return nil, nil, err
	}
	c, err := loadCatalog()
	if err != nil {
		return nil, nil, err
	}
	device, ok := c.Device(cfg.Device)
	if !ok {
		return nil, nil, fmt.Errorf("catalog %s has no device %q", cfg.Catalog, cfg.Device)
	}
	if cfg.MQTT.Broker == "" {
		return nil, nil, fmt.Errorf("set MQTT_BROKER")
	}
	client := mqtt.NewClient(cfg.MQTT, log)
	if err := client.Connect(); err != nil {
		return nil, nil, err
	}
	return controlremo.NewTrigger(device, localFlags.Target, surface, client, log), client.Disconnect, nil
}
