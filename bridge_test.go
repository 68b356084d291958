package controlremo

import (
	"context"
	"errors"
	"testing"

	"github.com/eivy/remo-fan-power/catalog"
	"github.com/eivy/remo-fan-power/ir"
	"github.com/eivy/remo-fan-power/mqtt"
	"github.com/go-logr/logr/testr"
	"github.com/tenntenn/natureremo"
)

type statusRecorder struct {
	statuses []mqtt.Status
}

func (r *statusRecorder) PublishStatus(s mqtt.Status) error {
	r.statuses = append(r.statuses, s)
	return nil
}

type commandRecorder struct {
	commands []mqtt.Command
}

func (r *commandRecorder) PublishCommand(c mqtt.Command) error {
	r.commands = append(r.commands, c)
	return nil
}

func testCatalog() *catalog.Catalog {
	c := &catalog.Catalog{}
	c.Add("Fan", catalog.Entry{Name: "power", Signal: ir.Signal{Format: ir.FormatMicroseconds, Freq: 38, Data: ir.EncodeAEHA([]byte{0x23, 0xCB, 0x16, 0x44, 0x80, 0x89, 0x01, 0x5A}, ir.SweepUnit)}})
	c.Add("Fan", catalog.Entry{Name: "swing", Signal: ir.Signal{Format: ir.FormatMicroseconds, Freq: 38, Data: ir.EncodeAEHA([]byte{0x23, 0xCB, 0x16, 0x44, 0x80, 0x89, 0x02, 0x5B}, ir.SweepUnit)}})
	return c
}

func newTestBridge(t *testing.T, hub Hub, local *Local, pub StatusPublisher) *Bridge {
	t.Helper()
	log := testr.New(t)
	return NewBridge(NewResolver(hub, nil, nil, log), NewDispatcher(hub, false, nil, log), local, testCatalog(), pub, log)
}

func TestBridgeCloudCommand(t *testing.T) {
	hub := newFakeHub(testAppliances...)
	hub.signals["a1"] = []*natureremo.Signal{{ID: "s1", Name: "power"}}
	pub := &statusRecorder{}
	b := newTestBridge(t, hub, nil, pub)

	if err := b.HandleCommand(context.Background(), mqtt.Command{ApplianceID: "a1"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(hub.sent) != 1 || hub.sent[0] != "s1" {
		t.Fatalf("sent = %v", hub.sent)
	}
	if len(pub.statuses) != 1 {
		t.Fatalf("statuses = %+v", pub.statuses)
	}
	s := pub.statuses[0]
	if !s.Dispatched || s.SignalID != "s1" || s.SignalName != DefaultSignalName || s.Surface != "cloud" || s.Timestamp.IsZero() {
		t.Fatalf("status = %+v", s)
	}
}

func TestBridgeRegistersFromCatalog(t *testing.T) {
	hub := newFakeHub(testAppliances...)
	pub := &statusRecorder{}
	b := newTestBridge(t, hub, nil, pub)

	if err := b.HandleCommand(context.Background(), mqtt.Command{ApplianceID: "Fan", Button: "swing", Type: "cloud"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(hub.created) != 1 || len(hub.sent) != 1 || hub.sent[0] != "new-1" {
		t.Fatalf("created=%d sent=%v", len(hub.created), hub.sent)
	}

	// the second command finds the registered signal
	if err := b.HandleCommand(context.Background(), mqtt.Command{ApplianceID: "Fan", Button: "swing"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if len(hub.created) != 1 || len(hub.sent) != 2 {
		t.Fatalf("created=%d sent=%v", len(hub.created), hub.sent)
	}
}

func TestBridgeReportsFailures(t *testing.T) {
	hub := newFakeHub(testAppliances...)
	pub := &statusRecorder{}
	b := newTestBridge(t, hub, nil, pub)
	ctx := context.Background()

	if err := b.HandleCommand(ctx, mqtt.Command{ApplianceID: "garage"}); !errors.Is(err, ErrApplianceNotFound) {
		t.Fatalf("err = %v", err)
	}
	if err := b.HandleCommand(ctx, mqtt.Command{ApplianceID: "a1", Type: "infrared"}); err == nil {
		t.Fatal("unknown surface accepted")
	}
	if err := b.HandleCommand(ctx, mqtt.Command{ApplianceID: "Fan", Type: "local"}); !errors.Is(err, ErrNoLocalHost) {
		t.Fatalf("err = %v", err)
	}
	if len(hub.sent) != 0 {
		t.Fatalf("sent = %v", hub.sent)
	}
	if len(pub.statuses) != 3 {
		t.Fatalf("statuses = %+v", pub.statuses)
	}
	for _, s := range pub.statuses {
		if s.Dispatched || s.Error == "" {
			t.Fatalf("status = %+v", s)
		}
	}
}

func TestBridgeLocalCommand(t *testing.T) {
	h := newLocalHub(t)
	local := newTestLocal(t, h, false, nil)
	pub := &statusRecorder{}
	b := newTestBridge(t, newFakeHub(), local, pub)
	ctx := context.Background()

	if err := b.HandleCommand(ctx, mqtt.Command{ApplianceID: "fan", Button: "swing", Type: "local"}); err != nil {
		t.Fatalf("handle: %v", err)
	}
	emitted := h.emits()
	if len(emitted) != 1 {
		t.Fatalf("emitted %d", len(emitted))
	}
	want, _ := testCatalog().Lookup("fan", "swing")
	if len(emitted[0].Data) != len(want.Signal.Data) {
		t.Fatalf("emitted %d pulses, want %d", len(emitted[0].Data), len(want.Signal.Data))
	}

	if err := b.HandleCommand(ctx, mqtt.Command{ApplianceID: "fan", Button: "timer", Type: "local"}); !errors.Is(err, ErrSignalNotFound) {
		t.Fatalf("err = %v", err)
	}
	if len(h.emits()) != 1 {
		t.Fatal("emitted for a missing entry")
	}
	if !pub.statuses[0].Dispatched || pub.statuses[0].Surface != "local" || pub.statuses[1].Dispatched {
		t.Fatalf("statuses = %+v", pub.statuses)
	}
}

func TestCatalogSignal(t *testing.T) {
	raw, err := CatalogSignal(testCatalog(), "FAN", "Power")
	if err != nil || raw.Freq != 38 {
		t.Fatalf("raw = %+v, err = %v", raw, err)
	}
	if _, err := CatalogSignal(testCatalog(), "fan", "timer"); !IsNotFound(err) {
		t.Fatalf("err = %v", err)
	}
}

func TestTrigger(t *testing.T) {
	c := testCatalog()
	pub := &commandRecorder{}
	tr := NewTrigger(c.Devices[0], "bedroom-fan", SurfaceCloud, pub, testr.New(t))

	power, _ := c.Lookup("fan", "power")
	swing, _ := c.Lookup("fan", "swing")
	other := ir.Signal{Format: ir.FormatMicroseconds, Freq: 38, Data: ir.EncodeAEHA([]byte{0x01, 0x02}, ir.SweepUnit)}

	if name, ok := tr.Match(swing.Signal); !ok || name != "swing" {
		t.Fatalf("match = %s, %v", name, ok)
	}

	tr.Observe(power.Signal, true)     // already held by the hub
	tr.Observe(ir.NewSignal(0), false) // placeholder
	tr.Observe(power.Signal, true)     // unchanged
	tr.Observe(other, true)            // unknown frame
	tr.Observe(swing.Signal, true)
	tr.Observe(swing.Signal, true)
	tr.Observe(power.Signal, true)

	if len(pub.commands) != 2 {
		t.Fatalf("commands = %+v", pub.commands)
	}
	if c := pub.commands[0]; c.ApplianceID != "bedroom-fan" || c.Button != "swing" || c.Type != "cloud" {
		t.Fatalf("command = %+v", c)
	}
	if pub.commands[1].Button != "power" {
		t.Fatalf("command = %+v", pub.commands[1])
	}
}
