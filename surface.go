package controlremo

import (
	"fmt"
	"strings"
)

// Surface is the hub API a signal is dispatched through.
type Surface int

const (
	// SurfaceCloud is the internet API, bearer token authenticated
	SurfaceCloud Surface = iota
	// SurfaceLocal is the LAN endpoint of the hub itself
	SurfaceLocal
)

func (s Surface) String() string {
	switch s {
	case SurfaceCloud:
		return "cloud"
	case SurfaceLocal:
		return "local"
	default:
		return "Unknown"
	}
}

// ParseSurface is the inverse of String; empty means cloud.
func ParseSurface(v string) (Surface, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "cloud", "":
		return SurfaceCloud, nil
	case "local":
		return SurfaceLocal, nil
	}
	return SurfaceCloud, fmt.Errorf("unknown surface %q", v)
}

// MarshalYAML define custom marshaling for Surface
func (s Surface) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML define custom unmarshaling for Surface
func (s *Surface) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var aux string
	if err := unmarshal(&aux); err != nil {
		return err
	}
	v, err := ParseSurface(aux)
	if err != nil {
		return err
	}
	*s = v
	return nil
}
