package controlremo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/eivy/remo-fan-power/ir"
	"github.com/go-logr/logr"
	"github.com/tenntenn/natureremo"
)

// LocalHeader marks requests as coming from the LAN; the hub rejects
// /messages calls without it.
var LocalHeader = http.Header{
	"X-Requested-With": {"local"},
	"Accept":           {"application/json"},
}

// Local talks to the hub on the LAN: no token, no persistence.
type Local struct {
	client *natureremo.LocalClient
	host   string
	dryRun bool
	rec    Recorder
	log    logr.Logger
}

// NewLocal opens the LAN surface of the hub at host (IP or IP:port).
func NewLocal(host string, opts TransportOptions, dryRun bool, rec Recorder, log logr.Logger) (*Local, error) {
	if host == "" {
		return nil, ErrNoLocalHost
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	log = log.WithName("local").WithValues("host", host)
	if opts.Header == nil {
		opts.Header = LocalHeader
	}
	hc := NewHTTPClient(opts, log)

	lc := natureremo.NewLocalClient(host)
	lc.HTTPClient = hc
	return &Local{client: lc, host: host, dryRun: dryRun, rec: rec, log: log}, nil
}

func toRemo(sig ir.Signal) (*natureremo.IRSignal, error) {
	b, err := json.Marshal(sig)
	if err != nil {
		return nil, err
	}
	var out natureremo.IRSignal
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func fromRemo(sig *natureremo.IRSignal) (ir.Signal, error) {
	b, err := json.Marshal(sig)
	if err != nil {
		return ir.Signal{}, err
	}
	return ir.Parse(b)
}

// Emit transmits raw immediately.
func (l *Local) Emit(ctx context.Context, raw ir.Signal) error {
	if l.dryRun {
		l.log.Info("Dry run, not emitting", "pulses", len(raw.Data), "freq", raw.Freq)
		return nil
	}
	sig, err := toRemo(raw)
	if err != nil {
		return err
	}
	if err := l.client.Emit(ctx, sig); err != nil {
		return fmt.Errorf("emit on %s: %w", l.host, err)
	}
	l.rec.RecordDispatch(l.host, "", SurfaceLocal.String())
	l.log.Info("Emitted", "pulses", len(raw.Data), "freq", raw.Freq)
	return nil
}

// Fetch returns the last frame the hub received.
func (l *Local) Fetch(ctx context.Context) (ir.Signal, error) {
	sig, err := l.client.Fetch(ctx)
	if err != nil {
		return ir.Signal{}, fmt.Errorf("fetch from %s: %w", l.host, err)
	}
	return fromRemo(sig)
}

// Placeholder reports the frames the hub returns when nothing was received.
func Placeholder(sig ir.Signal) bool {
	return len(sig.Data) == 0 || (len(sig.Data) == 1 && sig.Data[0] == 0)
}

// Capture polls until the hub holds a real frame or ctx is done. Fetch
// errors count as "nothing yet".
func (l *Local) Capture(ctx context.Context, interval time.Duration) (ir.Signal, error) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		sig, err := l.Fetch(ctx)
		switch {
		case err != nil:
			l.log.V(1).Info("No message yet", "error", err.Error())
		case !Placeholder(sig):
			l.log.Info("Captured", "pulses", len(sig.Data))
			return sig, nil
		}
		select {
		case <-ctx.Done():
			return ir.Signal{}, ctx.Err()
		case <-t.C:
		}
	}
}

// Watch calls fn with every fetch result until ctx is done. ok is false for
// placeholders and failed fetches.
func (l *Local) Watch(ctx context.Context, interval time.Duration, fn func(sig ir.Signal, ok bool)) error {
	t := time.NewTicker(interval)
	defer t.Stop()
	for ctx.Err() == nil {
		sig, err := l.Fetch(ctx)
		fn(sig, err == nil && !Placeholder(sig))
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
	}
	return nil
}
