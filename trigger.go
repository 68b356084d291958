package controlremo

import (
	"github.com/eivy/remo-fan-power/catalog"
	"github.com/eivy/remo-fan-power/ir"
	"github.com/eivy/remo-fan-power/mqtt"
	"github.com/go-logr/logr"
)

// CommandPublisher puts a command on the bus.
type CommandPublisher interface {
	PublishCommand(cmd mqtt.Command) error
}

// Trigger turns frames the hub hears from a physical remote into commands.
// It fires when the last received frame changes and the new frame decodes to
// the same bits as a catalog entry of the device.
type Trigger struct {
	target    string
	surface   Surface
	entries   map[string]string // entry name -> decoded bits
	publisher CommandPublisher
	last      string
	log       logr.Logger
}

// NewTrigger watches for the entries of device and commands target.
func NewTrigger(device catalog.Device, target string, surface Surface, publisher CommandPublisher, log logr.Logger) *Trigger {
	if target == "" {
		target = device.Name
	}
	entries := make(map[string]string, len(device.Entries))
	for _, e := range device.Entries {
		entries[e.Name] = ir.DecodeAEHA(e.Signal.Data, ir.EstimateUnit(e.Signal.Data))
	}
	return &Trigger{
		target:    target,
		surface:   surface,
		entries:   entries,
		publisher: publisher,
		log:       log.WithName("trigger"),
	}
}

// Match returns the name of the entry sig decodes to.
func (t *Trigger) Match(sig ir.Signal) (string, bool) {
	bits := ir.DecodeAEHA(sig.Data, ir.EstimateUnit(sig.Data))
	if bits == "" {
		return "", false
	}
	for name, want := range t.entries {
		if ir.Hamming(bits, want) == 0 {
			return name, true
		}
	}
	return "", false
}

// Observe is a Local.Watch callback.
func (t *Trigger) Observe(sig ir.Signal, ok bool) {
	if !ok {
		return
	}
	msg, err := sig.Message()
	if err != nil || msg == t.last {
		return
	}
	first := t.last == ""
	t.last = msg
	if first {
		// the hub still holds whatever it heard before we started
		return
	}

	name, matched := t.Match(sig)
	if !matched {
		t.log.V(1).Info("Frame matches no entry", "pulses", len(sig.Data))
		return
	}
	cmd := mqtt.Command{ApplianceID: t.target, Button: name, Type: t.surface.String()}
	if err := t.publisher.PublishCommand(cmd); err != nil {
		t.log.Error(err, "Failed to publish command", "button", name)
		return
	}
	t.log.Info("Forwarded", "button", name, "target", t.target)
}
