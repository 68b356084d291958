package controlremo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/eivy/remo-fan-power/ir"
	"github.com/go-logr/logr/testr"
)

// localHub fakes the /messages endpoint of a hub on the LAN.
type localHub struct {
	*httptest.Server
	mu       sync.Mutex
	fetches  []string // served in order, the last one repeats
	served   int
	emitted  []ir.Signal
	noHeader int
	failPost bool
}

func newLocalHub(t *testing.T, fetches ...string) *localHub {
	t.Helper()
	h := &localHub{fetches: fetches}
	h.Server = httptest.NewServer(http.HandlerFunc(h.serve))
	t.Cleanup(h.Close)
	return h
}

func (h *localHub) host() string {
	return strings.TrimPrefix(h.URL, "http://")
}

func (h *localHub) serve(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r.URL.Path != "/messages" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	if r.Header.Get("X-Requested-With") != "local" {
		h.noHeader++
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	switch r.Method {
	case http.MethodGet:
		if len(h.fetches) == 0 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		i := h.served
		if i >= len(h.fetches) {
			i = len(h.fetches) - 1
		}
		h.served++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, h.fetches[i])
	case http.MethodPost:
		if h.failPost {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		b, _ := io.ReadAll(r.Body)
		sig, err := ir.Parse(b)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		h.emitted = append(h.emitted, sig)
		w.WriteHeader(http.StatusOK)
	}
}

func (h *localHub) emits() []ir.Signal {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]ir.Signal(nil), h.emitted...)
}

func newTestLocal(t *testing.T, h *localHub, dryRun bool, rec Recorder) *Local {
	t.Helper()
	l, err := NewLocal(h.host(), TransportOptions{Timeout: 2 * time.Second}, dryRun, rec, testr.New(t))
	if err != nil {
		t.Fatalf("local: %v", err)
	}
	return l
}

func TestNewLocalWithoutHost(t *testing.T) {
	if _, err := NewLocal("", TransportOptions{}, false, nil, testr.New(t)); !errors.Is(err, ErrNoLocalHost) {
		t.Fatalf("err = %v", err)
	}
}

func TestLocalEmit(t *testing.T) {
	h := newLocalHub(t)
	rec := &countingRecorder{}
	l := newTestLocal(t, h, false, rec)

	if err := l.Emit(context.Background(), ir.NewSignal(9000, 4500, 560, 560)); err != nil {
		t.Fatalf("emit: %v", err)
	}
	got := h.emits()
	if len(got) != 1 || len(got[0].Data) != 4 || got[0].Data[1] != 4500 || got[0].Freq != 38 {
		t.Fatalf("emitted = %+v", got)
	}
	h.mu.Lock()
	noHeader := h.noHeader
	h.mu.Unlock()
	if noHeader != 0 {
		t.Fatalf("%d requests without X-Requested-With", noHeader)
	}
	if len(rec.dispatches) != 1 || !strings.HasSuffix(rec.dispatches[0], "/local") {
		t.Fatalf("dispatches = %v", rec.dispatches)
	}
}

func TestLocalEmitDryRun(t *testing.T) {
	h := newLocalHub(t)
	l := newTestLocal(t, h, true, nil)
	if err := l.Emit(context.Background(), ir.NewSignal(1, 2)); err != nil {
		t.Fatal(err)
	}
	if n := len(h.emits()); n != 0 {
		t.Fatalf("emitted %d", n)
	}
}

func TestLocalFetch(t *testing.T) {
	h := newLocalHub(t, `{"format":"us","freq":38,"data":[3400,1700,425,1275]}`)
	l := newTestLocal(t, h, false, nil)

	sig, err := l.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if sig.Format != ir.FormatMicroseconds || len(sig.Data) != 4 || sig.Data[3] != 1275 {
		t.Fatalf("signal = %+v", sig)
	}
}

func TestPlaceholder(t *testing.T) {
	for _, tt := range []struct {
		sig  ir.Signal
		want bool
	}{
		{ir.NewSignal(), true},
		{ir.NewSignal(0), true},
		{ir.NewSignal(5), false},
		{ir.NewSignal(0, 0), false},
	} {
		if got := Placeholder(tt.sig); got != tt.want {
			t.Errorf("Placeholder(%v) = %v", tt.sig.Data, got)
		}
	}
}

func TestLocalCaptureSkipsPlaceholder(t *testing.T) {
	h := newLocalHub(t,
		`{"format":"us","freq":38,"data":[0]}`,
		`{"format":"us","freq":38,"data":[0]}`,
		`{"format":"us","freq":38,"data":[3400,1700,425,425]}`,
	)
	l := newTestLocal(t, h, false, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sig, err := l.Capture(ctx, 5*time.Millisecond)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}
	if len(sig.Data) != 4 || sig.Data[0] != 3400 {
		t.Fatalf("signal = %+v", sig)
	}
}

func TestLocalCaptureTimesOut(t *testing.T) {
	h := newLocalHub(t, `{"format":"us","freq":38,"data":[0]}`)
	l := newTestLocal(t, h, false, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := l.Capture(ctx, 5*time.Millisecond); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v", err)
	}
}

func TestLocalWatch(t *testing.T) {
	h := newLocalHub(t,
		`{"format":"us","freq":38,"data":[0]}`,
		`{"format":"us","freq":38,"data":[3400,1700]}`,
	)
	l := newTestLocal(t, h, false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var oks []bool
	err := l.Watch(ctx, time.Millisecond, func(sig ir.Signal, ok bool) {
		oks = append(oks, ok)
		if len(oks) == 3 {
			cancel()
		}
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(oks) != 3 || oks[0] || !oks[1] || !oks[2] {
		t.Fatalf("oks = %v", oks)
	}
}

func TestLocalSweep(t *testing.T) {
	h := newLocalHub(t)
	l := newTestLocal(t, h, false, nil)

	var results []SweepResult
	err := l.Sweep(context.Background(), Sweep{Header: FanHeader, Cmd: 0x01, From: 0x10, To: 0x12, Interval: time.Millisecond},
		func(r SweepResult) { results = append(results, r) })
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 3 || results[2].Last != 0x12 {
		t.Fatalf("results = %+v", results)
	}
	emitted := h.emits()
	if len(emitted) != 3 {
		t.Fatalf("emitted %d frames", len(emitted))
	}
	frame := ir.BitsToBytes(ir.DecodeAEHA(emitted[0].Data, ir.EstimateUnit(emitted[0].Data)))
	want := append(append([]byte{}, FanHeader...), 0x01, 0x10)
	if string(frame) != string(want) {
		t.Fatalf("frame = % x, want % x", frame, want)
	}
}

func TestLocalSweepContinuesAfterFailure(t *testing.T) {
	h := newLocalHub(t)
	h.failPost = true
	l, err := NewLocal(h.host(), TransportOptions{Timeout: time.Second}, false, nil, testr.New(t))
	if err != nil {
		t.Fatal(err)
	}

	var failed int
	err = l.Sweep(context.Background(), Sweep{Header: FanHeader, From: 0xFE, To: 0x1FF, Interval: time.Millisecond},
		func(r SweepResult) {
			if r.Err != nil {
				failed++
			}
		})
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if failed != 2 {
		t.Fatalf("failed = %d", failed)
	}
}

func TestLocalSweepStopsOnCancel(t *testing.T) {
	h := newLocalHub(t)
	l := newTestLocal(t, h, false, nil)

	ctx, cancel := context.WithCancel(context.Background())
	var n int
	err := l.Sweep(ctx, Sweep{Header: FanHeader, From: 0, To: 255, Interval: time.Hour}, func(SweepResult) {
		n++
		cancel()
	})
	if !errors.Is(err, context.Canceled) || n != 1 {
		t.Fatalf("err = %v after %d frames", err, n)
	}
}
