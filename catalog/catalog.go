// Package catalog keeps the raw signals known to work on each device.
package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"text/template"
	"time"

	"github.com/eivy/remo-fan-power/ir"
	"gopkg.in/yaml.v3"
)

// Entry is one named raw signal.
type Entry struct {
	Name     string    `yaml:"Name"`
	Note     string    `yaml:"Note,omitempty"`
	Verified bool      `yaml:"Verified"` // observed to work on the device
	Added    time.Time `yaml:"Added"`
	Signal   ir.Signal `yaml:"Signal"`
}

// Device groups the entries of one physical device.
type Device struct {
	Name      string  `yaml:"Name"`
	Appliance string  `yaml:"Appliance,omitempty"` // hub appliance id, when registered
	Entries   []Entry `yaml:"Entries"`
}

// Catalog is the whole file.
type Catalog struct {
	Devices []Device `yaml:"Devices"`
}

// Load reads path. A missing file is an empty catalog.
func Load(path string) (*Catalog, error) {
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Catalog{}, nil
	}
	if err != nil {
		return nil, err
	}
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the catalog to path.
func (c *Catalog) Save(path string) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, b, 0o644)
}

func (c *Catalog) device(name string) *Device {
	for i := range c.Devices {
		if strings.EqualFold(c.Devices[i].Name, name) {
			return &c.Devices[i]
		}
	}
	return nil
}

// Device returns the device called name, ignoring case.
func (c *Catalog) Device(name string) (Device, bool) {
	if d := c.device(name); d != nil {
		return *d, true
	}
	return Device{}, false
}

// Add stores e under device, replacing an entry of the same name.
func (c *Catalog) Add(device string, e Entry) {
	if e.Added.IsZero() {
		e.Added = time.Now().UTC().Truncate(time.Second)
	}
	d := c.device(device)
	if d == nil {
		c.Devices = append(c.Devices, Device{Name: device})
		d = &c.Devices[len(c.Devices)-1]
	}
	for i := range d.Entries {
		if strings.EqualFold(d.Entries[i].Name, e.Name) {
			d.Entries[i] = e
			return
		}
	}
	d.Entries = append(d.Entries, e)
}

// Lookup finds the entry called name on device, both case-insensitively.
func (c *Catalog) Lookup(device, name string) (Entry, bool) {
	d := c.device(device)
	if d == nil {
		return Entry{}, false
	}
	for _, e := range d.Entries {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return Entry{}, false
}

var mdTemplate = template.Must(template.New("device").Funcs(template.FuncMap{
	"lead": func(s ir.Signal) string {
		if p, ok := s.Lead(); ok {
			return p.String()
		}
		return "-"
	},
	"message": func(s ir.Signal) string {
		m, _ := s.Message()
		return m
	},
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
}).Parse(`# {{.Name}}
{{if .Appliance}}
Appliance: ` + "`{{.Appliance}}`" + `
{{end}}
| Name | Verified | Freq (kHz) | Pulses | Lead-in (µs) | Added |
|---|---|---|---|---|---|
{{range .Entries}}| {{.Name}} | {{if .Verified}}yes{{else}}no{{end}} | {{.Signal.Freq}} | {{len .Signal.Data}} | {{lead .Signal}} | {{date .Added}} |
{{end}}{{range .Entries}}
## {{.Name}}
{{if .Note}}
{{.Note}}
{{end}}
` + "```json\n{{message .Signal}}\n```" + `
{{end}}`))

// RenderMarkdown writes the markdown document of one device.
func RenderMarkdown(w io.Writer, d Device) error {
	return mdTemplate.Execute(w, d)
}

var unsafeFileChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// FileName is the markdown file name used for a device.
func FileName(device string) string {
	name := strings.Trim(unsafeFileChars.ReplaceAllString(strings.ToLower(device), "-"), "-")
	if name == "" {
		name = "device"
	}
	return name + ".md"
}

// WriteMarkdown writes one document per device into dir and returns the paths.
func (c *Catalog) WriteMarkdown(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var paths []string
	for _, d := range c.Devices {
		p := filepath.Join(dir, FileName(d.Name))
		f, err := os.Create(p)
		if err != nil {
			return paths, err
		}
		err = RenderMarkdown(f, d)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return paths, fmt.Errorf("render %s: %w", p, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}
