package main

import (
	"fmt"

	controlremo "github.com/eivy/remo-fan-power"
	"github.com/eivy/remo-fan-power/metrics"
	"github.com/eivy/remo-fan-power/mqtt"
	"github.com/spf13/cobra"
)

func init() {
	bridgeCmd.Flags().String("metrics-addr", "", "serve /metrics and /healthz on this address")
	if err := v.BindPFlag("metrics-addr", bridgeCmd.Flags().Lookup("metrics-addr")); err != nil {
		panic(err)
	}
	bindEnv("metrics-addr", "REMO_METRICS_ADDR")
	rootCmd.AddCommand(bridgeCmd)
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Dispatch signals on MQTT commands and serve metrics",
	Long: `Subscribes to remo/command/{appliance} and publishes the outcome of every
command on remo/status/{appliance}. The payload is {"button":"power","type":"cloud"};
the appliance is an id or a nickname for cloud commands and a catalog device for
local ones.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("set MQTT_BROKER")
		}
		ctx, cancel := commandContext(cmd)
		defer cancel()

		cache, err := controlremo.NewSignalCache(cfg.CacheTTL)
		if err != nil {
			return err
		}
		defer cache.Close()

		cloud, err := newCloud()
		if err != nil {
			return err
		}
		var local *controlremo.Local
		if cfg.LocalHost != "" {
			if local, err = newLocal(); err != nil {
				return err
			}
		}
		cat, err := loadCatalog()
		if err != nil {
			return err
		}

		client := mqtt.NewClient(cfg.MQTT, log)
		if err := client.Connect(); err != nil {
			return err
		}
		defer client.Disconnect()

		bridge := controlremo.NewBridge(
			controlremo.NewResolver(cloud, cache, collector, log),
			controlremo.NewDispatcher(cloud, cfg.DryRun, collector, log),
			local, cat, client, log,
		)
		if err := client.SubscribeCommands(ctx, bridge); err != nil {
			return err
		}

		if addr := v.GetString("metrics-addr"); addr != "" {
			cfg.Metrics.ListenAddr = addr
		}
		if cfg.Metrics.ListenAddr != "" {
			return metrics.NewExporter(cfg.Metrics, collector, log).Serve(ctx)
		}
		<-ctx.Done()
		return nil
	},
}
