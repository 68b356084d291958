package controlremo

import (
	"context"

	"github.com/go-logr/logr"
	"github.com/tenntenn/natureremo"
)

// unknownAppliance labels dispatches of a signal sent by id alone.
const unknownAppliance = "unknown"

// Sender transmits a stored signal.
type Sender interface {
	SendSignal(ctx context.Context, signal *natureremo.Signal) error
}

// Dispatcher asks the hub to transmit a stored signal. Infrared is one way:
// a nil error only means the hub accepted the request.
type Dispatcher struct {
	sender Sender
	dryRun bool
	rec    Recorder
	log    logr.Logger
}

func NewDispatcher(sender Sender, dryRun bool, rec Recorder, log logr.Logger) *Dispatcher {
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Dispatcher{sender: sender, dryRun: dryRun, rec: rec, log: log.WithName("dispatcher")}
}

// Send issues one send request for signal.
func (d *Dispatcher) Send(ctx context.Context, applianceID string, signal *natureremo.Signal) error {
	if applianceID == "" {
		applianceID = unknownAppliance
	}
	if d.dryRun {
		d.log.Info("Dry run, not sending", "appliance", applianceID, "signal", signal.ID, "name", signal.Name)
		return nil
	}
	if err := d.sender.SendSignal(ctx, signal); err != nil {
		return err
	}
	d.rec.RecordDispatch(applianceID, signal.ID, SurfaceCloud.String())
	d.log.Info("Sent signal", "appliance", applianceID, "signal", signal.ID, "name", signal.Name)
	return nil
}
