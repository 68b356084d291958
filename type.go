package controlremo

import (
	"fmt"
	"strings"

	"github.com/tenntenn/natureremo"
)

// ApplianceType is the appliance kind a Selector falls back to.
type ApplianceType int

const (
	// ApplianceTypeIR is a plain learned-signal appliance
	ApplianceTypeIR ApplianceType = iota
	// ApplianceTypeTV is
	ApplianceTypeTV
	// ApplianceTypeLight is
	ApplianceTypeLight
	// ApplianceTypeAirCon is
	ApplianceTypeAirCon
	// ApplianceTypeAny disables the type fallback
	ApplianceTypeAny
)

func (t ApplianceType) String() string {
	switch t {
	case ApplianceTypeIR:
		return "IR"
	case ApplianceTypeTV:
		return "TV"
	case ApplianceTypeLight:
		return "LIGHT"
	case ApplianceTypeAirCon:
		return "AC"
	case ApplianceTypeAny:
		return "ANY"
	default:
		return "Unknown"
	}
}

// Matches reports whether an appliance reported by the hub is of this type.
func (t ApplianceType) Matches(remote natureremo.ApplianceType) bool {
	if t == ApplianceTypeAny {
		return false
	}
	return strings.EqualFold(string(remote), t.String())
}

// ParseApplianceType accepts the hub spelling and a few aliases.
func ParseApplianceType(s string) (ApplianceType, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "IR", "INFRARED":
		return ApplianceTypeIR, nil
	case "TV":
		return ApplianceTypeTV, nil
	case "LIGHT":
		return ApplianceTypeLight, nil
	case "AC", "AIRCON":
		return ApplianceTypeAirCon, nil
	case "ANY", "":
		return ApplianceTypeAny, nil
	}
	return ApplianceTypeAny, fmt.Errorf("unknown appliance type %q", s)
}

// MarshalYAML define custom marshaling for ApplianceType
func (t ApplianceType) MarshalYAML() (interface{}, error) {
	return t.String(), nil
}

// UnmarshalYAML define custom unmarshaling for ApplianceType
func (t *ApplianceType) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var aux string
	if err := unmarshal(&aux); err != nil {
		return err
	}
	v, err := ParseApplianceType(aux)
	if err != nil {
		return err
	}
	*t = v
	return nil
}
