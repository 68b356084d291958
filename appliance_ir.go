package controlremo

import (
	"context"
	"errors"
	"strings"

	"github.com/eivy/remo-fan-power/ir"
	"github.com/tenntenn/natureremo"
)

// DefaultSignalName is both the search pattern and the name new signals get.
const DefaultSignalName = "power"

// SignalRequest says which signal to look for and what to register when
// the appliance has none.
type SignalRequest struct {
	Pattern    string     `yaml:"Pattern"`
	RegisterAs string     `yaml:"RegisterAs"`
	Raw        *ir.Signal `yaml:"Raw,omitempty"`
}

func (q SignalRequest) pattern() string {
	if q.Pattern == "" {
		return DefaultSignalName
	}
	return q.Pattern
}

func (q SignalRequest) name() string {
	if q.RegisterAs == "" {
		return q.pattern()
	}
	return q.RegisterAs
}

// FindSignal looks for an exact name, then a case-insensitive one, then a
// case-insensitive substring.
func FindSignal(list []*natureremo.Signal, query string) *natureremo.Signal {
	for _, s := range list {
		if s.Name == query {
			return s
		}
	}
	low := strings.ToLower(query)
	for _, s := range list {
		if strings.ToLower(s.Name) == low {
			return s
		}
	}
	for _, s := range list {
		if strings.Contains(strings.ToLower(s.Name), low) {
			return s
		}
	}
	return nil
}

func signalNames(list []*natureremo.Signal) []string {
	names := make([]string, 0, len(list))
	for _, s := range list {
		names = append(names, s.Name+" (id="+s.ID+")")
	}
	return names
}

// Signals lists the learned signals of appliance, from the cache when warm.
func (r *Resolver) Signals(ctx context.Context, appliance *natureremo.Appliance) ([]*natureremo.Signal, error) {
	if list, ok := r.cache.Get(appliance.ID); ok {
		r.log.V(1).Info("Signal list from cache", "appliance", appliance.ID)
		return list, nil
	}
	list, err := r.hub.Signals(ctx, appliance)
	if err != nil {
		return nil, err
	}
	r.cache.Set(appliance.ID, list)
	return list, nil
}

// Signal resolves the signal to dispatch. When nothing matches and q.Raw is
// set, the raw record is registered under q.RegisterAs and the new signal is
// returned with created set. The hub does not check that the timings make
// sense for the device.
func (r *Resolver) Signal(ctx context.Context, appliance *natureremo.Appliance, q SignalRequest) (*natureremo.Signal, bool, error) {
	list, err := r.Signals(ctx, appliance)
	if err != nil {
		return nil, false, err
	}
	if s := FindSignal(list, q.pattern()); s != nil {
		r.log.Info("Resolved signal", "appliance", appliance.ID, "id", s.ID, "name", s.Name)
		return s, false, nil
	}

	if q.Raw == nil {
		return nil, false, &NotFoundError{Kind: ErrSignalNotFound, Query: q.pattern(), Available: signalNames(list)}
	}
	if err := q.Raw.Validate(); err != nil {
		if !errors.Is(err, ir.ErrOddLength) {
			return nil, false, err
		}
		r.log.Info("Registering a frame with an odd number of pulses", "pulses", len(q.Raw.Data))
	}

	created, err := r.hub.CreateSignal(ctx, appliance, q.name(), *q.Raw)
	if err != nil {
		return nil, false, err
	}
	r.cache.Invalidate(appliance.ID)
	r.rec.RecordRegistration(appliance.ID, created.ID)
	r.log.Info("Registered signal", "appliance", appliance.ID, "id", created.ID, "name", q.name())
	return created, true, nil
}

// SignalEntry is a signal tagged with the appliance it belongs to.
type SignalEntry struct {
	Signal    *natureremo.Signal
	Appliance *natureremo.Appliance
}

// AllSignals walks every appliance. Appliances whose signal list cannot be
// read are skipped with a log line.
func (r *Resolver) AllSignals(ctx context.Context) ([]SignalEntry, error) {
	appliances, err := r.hub.Appliances(ctx)
	if err != nil {
		return nil, err
	}
	var out []SignalEntry
	for _, a := range appliances {
		list, err := r.Signals(ctx, a)
		if err != nil {
			if errors.Is(err, ErrUnauthorized) {
				return nil, err
			}
			r.log.Error(err, "Failed to list signals", "appliance", a.ID)
			continue
		}
		for _, s := range list {
			out = append(out, SignalEntry{Signal: s, Appliance: a})
		}
	}
	return out, nil
}

// FindEntry applies FindSignal over entries from every appliance.
func FindEntry(entries []SignalEntry, query string) (SignalEntry, bool) {
	list := make([]*natureremo.Signal, len(entries))
	for i, e := range entries {
		list[i] = e.Signal
	}
	s := FindSignal(list, query)
	if s == nil {
		return SignalEntry{}, false
	}
	for _, e := range entries {
		if e.Signal == s {
			return e, true
		}
	}
	return SignalEntry{}, false
}
