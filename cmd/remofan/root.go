package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	controlremo "github.com/eivy/remo-fan-power"
	"github.com/eivy/remo-fan-power/catalog"
	"github.com/eivy/remo-fan-power/hlog"
	"github.com/eivy/remo-fan-power/metrics"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"gopkg.in/yaml.v3"
)

var (
	v         = viper.New()
	log       = logr.Discard()
	cfg       controlremo.Config
	collector = metrics.NewCollector()
)

var rootCmd = &cobra.Command{
	Use:           "remofan",
	Short:         "Turn a fan on through a Nature Remo hub",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd {
			return nil
		}
		return setup()
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if cmd == versionCmd || cmd == bridgeCmd {
			return nil
		}
		return push()
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.String("config", "config.yaml", "configuration file")
	f.String("env-file", ".env", "dotenv file loaded before reading the environment")
	f.BoolP("verbose", "v", false, "log progress")
	f.Bool("debug", false, "log HTTP attempts and cache hits")
	f.Bool("json", false, "print results as JSON instead of YAML")
	f.Bool("dry-run", false, "resolve everything but do not transmit")
	f.Duration("timeout", 0, "per request timeout (0: from config)")
	f.Int("retries", -1, "retries for 429, 5xx and connection errors (-1: from config)")
	f.String("ip", "", "hub address on the LAN")
	f.String("catalog", "", "signal catalog file (default from config)")
	f.String("push-url", "", "pushgateway to push run metrics to")

	if err := v.BindPFlags(f); err != nil {
		panic(err)
	}
	bindEnv("token", "NATURE_REMO_TOKEN")
	bindEnv("ip", "NATURE_REMO_LOCAL_IP_ADDRESS", "REMO_IP")
	bindEnv("cloud-url", "NATURE_REMO_API_URL")
	bindEnv("push-url", "PUSHGATEWAY_URL")
	bindEnv("verbose", "VERBOSE")
	bindEnv("mqtt.broker", "MQTT_BROKER")
	bindEnv("mqtt.port", "MQTT_PORT")
	bindEnv("mqtt.username", "MQTT_USERNAME")
	bindEnv("mqtt.password", "MQTT_PASSWORD")
	bindEnv("mqtt.client-id", "MQTT_CLIENT_ID")
}

func bindEnv(key string, envs ...string) {
	if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
		panic(err)
	}
}

// setup loads .env, the config file, then overlays environment and flags.
func setup() error {
	if err := gotenv.Load(v.GetString("env-file")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("env file: %w", err)
	}
	log = hlog.Init(v.GetBool("verbose"), v.GetBool("debug"))

	c, err := controlremo.ReadConfig(v.GetString("config"))
	if err != nil {
		return err
	}
	overlay(&c.Token, "token")
	overlay(&c.LocalHost, "ip")
	overlay(&c.CloudURL, "cloud-url")
	overlay(&c.Catalog, "catalog")
	overlay(&c.Metrics.PushURL, "push-url")
	overlay(&c.MQTT.Broker, "mqtt.broker")
	overlay(&c.MQTT.Username, "mqtt.username")
	overlay(&c.MQTT.Password, "mqtt.password")
	overlay(&c.MQTT.ClientID, "mqtt.client-id")
	if p := v.GetInt("mqtt.port"); p > 0 {
		c.MQTT.Port = p
	}
	if d := v.GetDuration("timeout"); d > 0 {
		c.Timeout = d
		c.LocalTimeout = d
	}
	if r := v.GetInt("retries"); r >= 0 {
		c.Retries = r
	}
	if v.GetBool("dry-run") {
		c.DryRun = true
	}
	cfg = c
	log.V(1).Info("Configuration loaded", "config", v.GetString("config"), "surface", cfg.Surface.String(), "appliance", cfg.Appliance.String())
	return nil
}

func overlay(dst *string, key string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}

// commandContext is cancelled by SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

func instrument(opts controlremo.TransportOptions) controlremo.TransportOptions {
	opts.Wrap = func(next http.RoundTripper) http.RoundTripper {
		return metrics.Transport(collector, next)
	}
	return opts
}

func newCloud() (*controlremo.Cloud, error) {
	return controlremo.NewCloud(cfg.Token, cfg.CloudURL, instrument(cfg.CloudTransport()), log)
}

func newLocal() (*controlremo.Local, error) {
	return controlremo.NewLocal(cfg.LocalHost, instrument(cfg.LocalTransport()), cfg.DryRun, collector, log)
}

func newController(cache *controlremo.SignalCache) (*controlremo.Controller, error) {
	cloud, err := newCloud()
	if err != nil {
		return nil, err
	}
	resolver := controlremo.NewResolver(cloud, cache, collector, log)
	dispatcher := controlremo.NewDispatcher(cloud, cfg.DryRun, collector, log)
	return controlremo.NewController(resolver, dispatcher, log), nil
}

func loadCatalog() (*catalog.Catalog, error) {
	return catalog.Load(cfg.Catalog)
}

func push() error {
	if cfg.Metrics.PushURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metrics.NewExporter(cfg.Metrics, collector, log).Push(ctx); err != nil {
		log.Error(err, "Failed to push metrics", "url", cfg.Metrics.PushURL)
	}
	return nil
}

// printResult writes out as YAML, or JSON with --json.
func printResult(out any) error {
	if v.GetBool("json") {
		b, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	}
	b, err := yaml.Marshal(out)
	if err != nil {
		return err
	}
	fmt.Print(string(b))
	return nil
}
