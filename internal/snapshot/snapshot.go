// Package snapshot persists checkpoints as a zone document in XML, JSON or
// YAML, chosen by the output file extension.
package snapshot

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/entrosim/internal/dynamo"
	"gopkg.in/yaml.v3"
)

type Format int

const (
	FormatXML Format = iota
	FormatJSON
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return "xml"
	}
}

// FormatFor picks the format from the file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xml":
		return FormatXML, nil
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return 0, dynamo.Configf("unsupported output format %q", filepath.Ext(path))
	}
}

type Document struct {
	XMLName xml.Name `xml:"zone_data" json:"-" yaml:"-"`
	Zones   []Zone   `xml:"zone" json:"zones" yaml:"zones"`
}

type Zone struct {
	Label      string     `xml:"label1,attr" json:"label" yaml:"label"`
	Step       int        `xml:"label2,attr" json:"step" yaml:"step"`
	Properties []Property `xml:"optional_properties>property" json:"properties" yaml:"properties"`
	Nuclides   []Nuclide  `xml:"mass_fractions>nuclide" json:"mass_fractions" yaml:"mass_fractions"`
}

type Property struct {
	Name  string `xml:"name,attr" json:"name" yaml:"name"`
	Value string `xml:",chardata" json:"value" yaml:"value"`
}

type Nuclide struct {
	Name string  `xml:"name,attr" json:"name" yaml:"name"`
	Z    int     `xml:"z" json:"z" yaml:"z"`
	A    int     `xml:"a" json:"a" yaml:"a"`
	X    float64 `xml:"x" json:"x" yaml:"x"`
}

// Property returns the named property of z.
func (z Zone) Property(name string) (string, bool) {
	for _, p := range z.Properties {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// ZoneFromCheckpoint lays out the committed scalars first, then the
// zone's extension properties in key order. Nuclides with zero mass
// fraction are omitted.
func ZoneFromCheckpoint(c dynamo.Checkpoint) Zone {
	z := Zone{Label: c.Label, Step: c.Step}
	for _, p := range []struct {
		name string
		v    float64
	}{
		{"time", c.Time},
		{"dtime", c.Dtime},
		{"t9", c.T9},
		{"rho", c.Rho},
		{"entropy per nucleon", c.Entropy},
	} {
		z.Properties = append(z.Properties, Property{Name: p.name, Value: formatFloat(p.v)})
	}

	keys := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		z.Properties = append(z.Properties, Property{Name: k, Value: c.Properties[k]})
	}

	for _, s := range c.Species {
		if s.MassFraction > 0 {
			z.Nuclides = append(z.Nuclides, Nuclide{Name: s.Name, Z: s.Z, A: s.A, X: s.MassFraction})
		}
	}
	return z
}

func Encode(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return err
		}
		return enc.Close()
	default:
		data, err := xml.MarshalIndent(doc, "", "  ")
		if err != nil {
			return err
		}
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return err
		}
		if _, err := w.Write(data); err != nil {
			return err
		}
		_, err = io.WriteString(w, "\n")
		return err
	}
}

func Decode(r io.Reader, format Format) (Document, error) {
	var doc Document
	var err error
	switch format {
	case FormatJSON:
		err = json.NewDecoder(r).Decode(&doc)
	case FormatYAML:
		err = yaml.NewDecoder(r).Decode(&doc)
	default:
		err = xml.NewDecoder(r).Decode(&doc)
	}
	return doc, err
}

// Read loads a document written by a Writer.
func Read(path string) (Document, error) {
	format, err := FormatFor(path)
	if err != nil {
		return Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Document{}, err
	}
	defer f.Close()
	doc, err := Decode(f, format)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", path, err)
	}
	return doc, nil
}

// Writer is a dynamo.CheckpointWriter that rewrites its whole document on
// every Flush.
type Writer struct {
	path    string
	format  Format
	doc     Document
	flushes int
}

func NewWriter(path string) (*Writer, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	return &Writer{path: path, format: format}, nil
}

func (w *Writer) Record(c dynamo.Checkpoint) error {
	w.doc.Zones = append(w.doc.Zones, ZoneFromCheckpoint(c))
	return nil
}

// Flush writes to a temporary file next to the target and renames it into
// place.
func (w *Writer) Flush() error {
	var buf bytes.Buffer
	if err := Encode(&buf, w.format, w.doc); err != nil {
		return fmt.Errorf("encode %s: %w", w.format, err)
	}

	dir := filepath.Dir(w.path)
	tmp, err := os.CreateTemp(dir, ".entrosim-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), w.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	w.flushes++
	return nil
}

func (w *Writer) Document() Document {
	return w.doc
}

func (w *Writer) Flushes() int {
	return w.flushes
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
