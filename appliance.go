package controlremo

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/tenntenn/natureremo"
)

// Selector picks one appliance out of the hub's list.
type Selector struct {
	ID       string        `yaml:"ID,omitempty"`
	Nickname string        `yaml:"Nickname,omitempty"`
	Type     ApplianceType `yaml:"Type"`
}

func (s Selector) String() string {
	if s.ID != "" {
		return "id=" + s.ID
	}
	return fmt.Sprintf("nickname~%q type=%s", s.Nickname, s.Type)
}

// SelectAppliance returns the appliance matching sel. An ID must match
// exactly. Otherwise the first nickname containing sel.Nickname (ignoring
// case) wins, then the first appliance of sel.Type.
func SelectAppliance(list []*natureremo.Appliance, sel Selector) (*natureremo.Appliance, error) {
	if sel.ID != "" {
		for _, a := range list {
			if a.ID == sel.ID {
				return a, nil
			}
		}
		return nil, notFound(ErrApplianceNotFound, sel.String(), list)
	}

	if target := strings.ToLower(sel.Nickname); target != "" {
		for _, a := range list {
			if strings.Contains(strings.ToLower(a.Nickname), target) {
				return a, nil
			}
		}
	}
	for _, a := range list {
		if sel.Type.Matches(a.Type) {
			return a, nil
		}
	}
	return nil, notFound(ErrApplianceNotFound, sel.String(), list)
}

func notFound(kind error, query string, list []*natureremo.Appliance) error {
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, fmt.Sprintf("%s (id=%s type=%s)", a.Nickname, a.ID, a.Type))
	}
	return &NotFoundError{Kind: kind, Query: query, Available: names}
}

// Recorder receives what the controller did; metrics.Collector implements it.
type Recorder interface {
	RecordRegistration(applianceID, signalID string)
	RecordDispatch(applianceID, signalID, surface string)
}

type nopRecorder struct{}

func (nopRecorder) RecordRegistration(string, string)     {}
func (nopRecorder) RecordDispatch(string, string, string) {}

// Resolver turns selectors and names into hub records.
type Resolver struct {
	hub   Hub
	cache *SignalCache
	rec   Recorder
	log   logr.Logger
}

// NewResolver returns a resolver; cache and rec may be nil.
func NewResolver(hub Hub, cache *SignalCache, rec Recorder, log logr.Logger) *Resolver {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Resolver{hub: hub, cache: cache, rec: rec, log: log.WithName("resolver")}
}

// Appliance fetches the appliance list and applies sel.
func (r *Resolver) Appliance(ctx context.Context, sel Selector) (*natureremo.Appliance, error) {
	list, err := r.hub.Appliances(ctx)
	if err != nil {
		return nil, err
	}
	a, err := SelectAppliance(list, sel)
	if err != nil {
		return nil, err
	}
	r.log.Info("Resolved appliance", "id", a.ID, "nickname", a.Nickname, "type", a.Type)
	return a, nil
}

// Lookup finds an appliance by ID, falling back to a nickname match.
func (r *Resolver) Lookup(ctx context.Context, key string) (*natureremo.Appliance, error) {
	list, err := r.hub.Appliances(ctx)
	if err != nil {
		return nil, err
	}
	a, err := SelectAppliance(list, Selector{ID: key})
	if IsNotFound(err) {
		a, err = SelectAppliance(list, Selector{Nickname: key, Type: ApplianceTypeAny})
	}
	return a, err
}
