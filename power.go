package controlremo

import (
	"context"
	"strings"

	"github.com/go-logr/logr"
	"github.com/tenntenn/natureremo"
)

// Result is what a power-on run resolved and did.
type Result struct {
	Appliance *natureremo.Appliance
	Signal    *natureremo.Signal
	Created   bool
}

// Controller runs the lookup, resolve and dispatch steps in order on one session.
type Controller struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	log        logr.Logger
}

func NewController(resolver *Resolver, dispatcher *Dispatcher, log logr.Logger) *Controller {
	return &Controller{resolver: resolver, dispatcher: dispatcher, log: log.WithName("controller")}
}

func (c *Controller) Resolver() *Resolver {
	return c.resolver
}

// PowerOn resolves the appliance, resolves or registers the signal, and sends it.
func (c *Controller) PowerOn(ctx context.Context, sel Selector, q SignalRequest) (*Result, error) {
	a, err := c.resolver.Appliance(ctx, sel)
	if err != nil {
		return nil, err
	}
	s, created, err := c.resolver.Signal(ctx, a, q)
	if err != nil {
		return nil, err
	}
	if err := c.dispatcher.Send(ctx, a.ID, s); err != nil {
		return nil, err
	}
	return &Result{Appliance: a, Signal: s, Created: created}, nil
}

// SendID sends a signal by identifier without any lookup.
func (c *Controller) SendID(ctx context.Context, id string) error {
	return c.dispatcher.Send(ctx, "", &natureremo.Signal{ID: id})
}

// SendName searches every appliance for the first of names that matches and
// sends it.
func (c *Controller) SendName(ctx context.Context, names ...string) (*SignalEntry, error) {
	entries, err := c.resolver.AllSignals(ctx)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		e, ok := FindEntry(entries, name)
		if !ok {
			continue
		}
		c.log.Info("Resolved signal", "name", e.Signal.Name, "id", e.Signal.ID, "appliance", applianceLabel(e.Appliance))
		if err := c.dispatcher.Send(ctx, e.Appliance.ID, e.Signal); err != nil {
			return nil, err
		}
		return &e, nil
	}

	available := make([]string, 0, len(entries))
	for _, e := range entries {
		available = append(available, e.Signal.Name+" (id="+e.Signal.ID+") appliance="+applianceLabel(e.Appliance))
	}
	return nil, &NotFoundError{Kind: ErrSignalNotFound, Query: strings.Join(names, " | "), Available: available}
}

func applianceLabel(a *natureremo.Appliance) string {
	if a.Nickname != "" {
		return a.Nickname
	}
	return string(a.Type)
}
