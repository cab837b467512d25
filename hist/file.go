package hist

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/vmihailenco/msgpack/v5"
)

// Well known keys of File.Values.
const (
	KeyNGen   = "nGen"
	KeyXSec   = "xsec"
	KeyLumi   = "lumi"
	KeyIsData = "isData"
)

// File is a named collection of histograms plus scalar metadata.
type File struct {
	RunID    string              `msgpack:"run_id,omitempty"`
	Values   map[string]float64  `msgpack:"values,omitempty"`
	H1       map[string]*H1      `msgpack:"h1,omitempty"`
	H2       map[string]*H2      `msgpack:"h2,omitempty"`
	Cutflows map[string]*Cutflow `msgpack:"cutflows,omitempty"`
}

// NewFile returns an empty file.
func NewFile() *File {
	return &File{
		Values:   make(map[string]float64),
		H1:       make(map[string]*H1),
		H2:       make(map[string]*H2),
		Cutflows: make(map[string]*Cutflow),
	}
}

// Value returns the metadata value for key, or def when it is absent.
func (f *File) Value(key string, def float64) float64 {
	if v, ok := f.Values[key]; ok {
		return v
	}
	return def
}

// Merge adds every histogram and cutflow of o into f. Histograms only in o
// are copied. Values already present in f are kept.
func (f *File) Merge(o *File) error {
	for k, v := range o.Values {
		if _, ok := f.Values[k]; !ok {
			f.Values[k] = v
		}
	}
	for name, h := range o.H1 {
		if mine, ok := f.H1[name]; ok {
			if err := mine.Add(h); err != nil {
				return err
			}
			continue
		}
		f.H1[name] = h.Clone(h.Name)
	}
	for name, h := range o.H2 {
		if mine, ok := f.H2[name]; ok {
			if err := mine.Add(h); err != nil {
				return err
			}
			continue
		}
		f.H2[name] = h.Clone(h.Name)
	}
	for name, c := range o.Cutflows {
		if mine, ok := f.Cutflows[name]; ok {
			mine.Add(c)
			continue
		}
		f.Cutflows[name] = c.Clone()
	}
	return nil
}

// Encode writes f to w.
func (f *File) Encode(w io.Writer) error {
	if err := msgpack.NewEncoder(w).Encode(f); err != nil {
		return fmt.Errorf("failed to encode histogram file: %w", err)
	}
	return nil
}

// Decode reads a file from r.
func Decode(r io.Reader) (*File, error) {
	f := NewFile()
	if err := msgpack.NewDecoder(r).Decode(f); err != nil {
		return nil, fmt.Errorf("failed to decode histogram file: %w", err)
	}
	// omitempty fields decode to nil maps
	if f.Values == nil {
		f.Values = make(map[string]float64)
	}
	if f.H1 == nil {
		f.H1 = make(map[string]*H1)
	}
	if f.H2 == nil {
		f.H2 = make(map[string]*H2)
	}
	if f.Cutflows == nil {
		f.Cutflows = make(map[string]*Cutflow)
	}
	return f, nil
}

// Save writes f to path.
func (f *File) Save(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	w := bufio.NewWriter(out)
	if err := f.Encode(w); err != nil {
		_ = out.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return out.Close()
}

// Load reads the file at path.
func Load(path string) (*File, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = in.Close() }()
	return Decode(bufio.NewReader(in))
}
