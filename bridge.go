package controlremo

import (
	"context"
	"time"

	"github.com/eivy/remo-fan-power/catalog"
	"github.com/eivy/remo-fan-power/ir"
	"github.com/eivy/remo-fan-power/mqtt"
	"github.com/go-logr/logr"
)

// StatusPublisher reports the outcome of a command.
type StatusPublisher interface {
	PublishStatus(status mqtt.Status) error
}

// Bridge dispatches MQTT commands. Cloud commands resolve the button among
// the appliance's learned signals, registering it from the catalog when
// missing. Local commands emit the catalog entry directly.
type Bridge struct {
	resolver   *Resolver
	dispatcher *Dispatcher
	local      *Local
	catalog    *catalog.Catalog
	publisher  StatusPublisher
	log        logr.Logger
}

// NewBridge wires a bridge; local and cat may be nil.
func NewBridge(resolver *Resolver, dispatcher *Dispatcher, local *Local, cat *catalog.Catalog, publisher StatusPublisher, log logr.Logger) *Bridge {
	if cat == nil {
		cat = &catalog.Catalog{}
	}
	return &Bridge{
		resolver:   resolver,
		dispatcher: dispatcher,
		local:      local,
		catalog:    cat,
		publisher:  publisher,
		log:        log.WithName("bridge"),
	}
}

// HandleCommand implements mqtt.CommandHandler.
func (b *Bridge) HandleCommand(ctx context.Context, cmd mqtt.Command) error {
	button := cmd.Button
	if button == "" {
		button = DefaultSignalName
	}
	status := mqtt.Status{ApplianceID: cmd.ApplianceID, SignalName: button}

	surface, err := ParseSurface(cmd.Type)
	if err == nil {
		status.Surface = surface.String()
		switch surface {
		case SurfaceLocal:
			err = b.emit(ctx, cmd.ApplianceID, button)
		default:
			status.SignalID, err = b.send(ctx, cmd.ApplianceID, button)
		}
	}

	status.Timestamp = time.Now().UTC()
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Dispatched = true
	}
	if b.publisher != nil {
		if perr := b.publisher.PublishStatus(status); perr != nil {
			b.log.Error(perr, "Failed to publish status", "appliance", cmd.ApplianceID)
		}
	}
	return err
}

func (b *Bridge) send(ctx context.Context, key, button string) (string, error) {
	a, err := b.resolver.Lookup(ctx, key)
	if err != nil {
		return "", err
	}
	q := SignalRequest{Pattern: button, RegisterAs: button}
	if e, ok := b.catalog.Lookup(a.Nickname, button); ok {
		raw := e.Signal
		q.Raw = &raw
	}
	s, _, err := b.resolver.Signal(ctx, a, q)
	if err != nil {
		return "", err
	}
	if err := b.dispatcher.Send(ctx, a.ID, s); err != nil {
		return s.ID, err
	}
	return s.ID, nil
}

func (b *Bridge) emit(ctx context.Context, device, button string) error {
	if b.local == nil {
		return ErrNoLocalHost
	}
	e, ok := b.catalog.Lookup(device, button)
	if !ok {
		return &NotFoundError{Kind: ErrSignalNotFound, Query: device + "/" + button, Available: catalogNames(b.catalog)}
	}
	return b.local.Emit(ctx, e.Signal)
}

func catalogNames(c *catalog.Catalog) []string {
	var names []string
	for _, d := range c.Devices {
		for _, e := range d.Entries {
			names = append(names, d.Name+"/"+e.Name)
		}
	}
	return names
}

// CatalogSignal returns the catalog entry as a registrable raw record.
func CatalogSignal(c *catalog.Catalog, device, name string) (*ir.Signal, error) {
	e, ok := c.Lookup(device, name)
	if !ok {
		return nil, &NotFoundError{Kind: ErrSignalNotFound, Query: device + "/" + name, Available: catalogNames(c)}
	}
	raw := e.Signal
	return &raw, nil
}
