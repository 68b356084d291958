package catalog

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/eivy/remo-fan-power/ir"
)

func TestLoadMissingFile(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(c.Devices) != 0 {
		t.Fatalf("devices = %v", c.Devices)
	}
}

func TestAddSaveLoadLookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signals", "catalog.yaml")
	added := time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

	c := &Catalog{}
	c.Add("Fan", Entry{Name: "power", Signal: ir.NewSignal(9000, 4500, 560, 560), Added: added})
	c.Add("fan", Entry{Name: "swing", Signal: ir.NewSignal(3400, 1700), Added: added})
	c.Add("FAN", Entry{Name: "Power", Verified: true, Signal: ir.NewSignal(3400, 1700, 425, 425), Added: added})

	if len(c.Devices) != 1 || len(c.Devices[0].Entries) != 2 {
		t.Fatalf("catalog = %+v", c)
	}
	if err := c.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	e, ok := loaded.Lookup("fan", "POWER")
	if !ok {
		t.Fatal("power not found")
	}
	if !e.Verified || !reflect.DeepEqual(e.Signal, ir.NewSignal(3400, 1700, 425, 425)) {
		t.Fatalf("entry = %+v", e)
	}
	if d, ok := loaded.Device("FAN"); !ok || len(d.Entries) != 2 {
		t.Fatalf("device = %+v", d)
	}
	if _, ok := loaded.Lookup("tv", "power"); ok {
		t.Fatal("unexpected device")
	}
}

func TestWriteMarkdown(t *testing.T) {
	c := &Catalog{}
	c.Add("Living room fan", Entry{Name: "power", Note: "learned with the app", Verified: true, Signal: ir.NewSignal(3400, 1700, 425, 1275)})

	dir := t.TempDir()
	paths, err := c.WriteMarkdown(dir)
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if len(paths) != 1 || filepath.Base(paths[0]) != "living-room-fan.md" {
		t.Fatalf("paths = %v", paths)
	}
	b, err := os.ReadFile(paths[0])
	if err != nil {
		t.Fatal(err)
	}
	md := string(b)
	for _, want := range []string{
		"# Living room fan",
		"| power | yes | 38 | 4 | (3400, 1700) |",
		"learned with the app",
		`{"format":"us","freq":38,"data":[3400,1700,425,1275]}`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown lacks %q:\n%s", want, md)
		}
	}
}

func TestFileName(t *testing.T) {
	if got := FileName("  "); got != "device.md" {
		t.Fatalf("FileName = %s", got)
	}
	if got := FileName("扇風機 Fan/2"); got != "fan-2.md" {
		t.Fatalf("FileName = %s", got)
	}
}
