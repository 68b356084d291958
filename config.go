package controlremo

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/eivy/remo-fan-power/metrics"
	"github.com/eivy/remo-fan-power/mqtt"
	"gopkg.in/yaml.v3"
)

// Config is configuration
type Config struct {
	Token     string        `yaml:"Token,omitempty"`
	CloudURL  string        `yaml:"CloudURL,omitempty"`
	LocalHost string        `yaml:"LocalHost,omitempty"`
	Surface   Surface       `yaml:"Surface"`
	Appliance Selector      `yaml:"Appliance"`
	Signal    SignalRequest `yaml:"Signal"`
	// CatalogEntry names the catalog entry used as the raw record when Signal.Raw is empty.
	CatalogEntry string `yaml:"CatalogEntry,omitempty"`
	Catalog      string `yaml:"Catalog"`
	Device       string `yaml:"Device"` // catalog device name

	Timeout      time.Duration `yaml:"Timeout"`
	LocalTimeout time.Duration `yaml:"LocalTimeout"`
	Retries      int           `yaml:"Retries"`
	CacheTTL     time.Duration `yaml:"CacheTTL"`
	DryRun       bool          `yaml:"DryRun"`

	MQTT    mqtt.Config    `yaml:"MQTT"`
	Metrics metrics.Config `yaml:"Metrics"`
}

// DefaultConfig targets the first appliance whose nickname contains "fan".
func DefaultConfig() Config {
	return Config{
		CloudURL:     DefaultCloudURL,
		Surface:      SurfaceCloud,
		Appliance:    Selector{Nickname: "fan", Type: ApplianceTypeIR},
		Signal:       SignalRequest{Pattern: DefaultSignalName, RegisterAs: DefaultSignalName},
		Catalog:      "signals.yaml",
		Device:       "fan",
		Timeout:      15 * time.Second,
		LocalTimeout: 5 * time.Second,
		Retries:      3,
		CacheTTL:     5 * time.Minute,
		MQTT:         mqtt.Config{Port: 1883, ClientID: "remo-controller"},
		Metrics:      metrics.Config{Path: metrics.DefaultPath, Job: metrics.DefaultJob},
	}
}

// ReadConfig reads a YAML file over the defaults. A missing file yields the
// defaults. An Appliance block replaces the default selector as a whole.
func ReadConfig(path string) (Config, error) {
	config := DefaultConfig()
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	var sel struct {
		Appliance *Selector `yaml:"Appliance"`
	}
	if err := yaml.Unmarshal(b, &sel); err != nil {
		return config, fmt.Errorf("config %s: %w", path, err)
	}
	if sel.Appliance != nil {
		config.Appliance = Selector{}
	}
	if err := yaml.Unmarshal(b, &config); err != nil {
		return config, fmt.Errorf("config %s: %w", path, err)
	}
	return config, config.Validate()
}

// Validate rejects values no run can work with.
func (c Config) Validate() error {
	if c.Timeout <= 0 || c.LocalTimeout <= 0 {
		return errors.New("timeouts must be positive")
	}
	if c.Retries < 0 {
		return errors.New("retries must not be negative")
	}
	if c.Appliance.ID == "" && c.Appliance.Nickname == "" && c.Appliance.Type == ApplianceTypeAny {
		return errors.New("appliance selector matches nothing: set ID, Nickname or Type")
	}
	return nil
}

// CloudTransport is the transport configuration of the cloud surface.
func (c Config) CloudTransport() TransportOptions {
	return TransportOptions{Timeout: c.Timeout, Retries: c.Retries, WaitMin: time.Second, WaitMax: 10 * time.Second}
}

// LocalTransport is the transport configuration of the LAN surface.
func (c Config) LocalTransport() TransportOptions {
	return TransportOptions{Timeout: c.LocalTimeout, Retries: c.Retries, WaitMin: 200 * time.Millisecond, WaitMax: 2 * time.Second, Header: LocalHeader}
}
