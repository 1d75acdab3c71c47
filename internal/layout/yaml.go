package layout

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a layout from a YAML file and validates it.
func Load(path string) (Layout, error) {
	f, err := os.Open(path)
	if err != nil {
		return Layout{}, fmt.Errorf("failed to open layout: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			// Best-effort close for read-only layout file.
			_ = cerr
		}
	}()
	return Decode(f)
}

// Decode parses a YAML layout and validates it. Unknown keys are rejected.
func Decode(r io.Reader) (Layout, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var l Layout
	if err := dec.Decode(&l); err != nil {
		if errors.Is(err, io.EOF) {
			return Layout{}, fmt.Errorf("%w: layout file is empty", ErrInvalidLayout)
		}
		return Layout{}, fmt.Errorf("failed to decode layout: %w", err)
	}
	for i := range l.Counters {
		if l.Counters[i].Combine == "" {
			l.Counters[i].Combine = CombineSum
		}
	}
	if err := l.Validate(); err != nil {
		return Layout{}, err
	}
	return l, nil
}

// Dump writes the layout as YAML.
func Dump(w io.Writer, l Layout) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(l); err != nil {
		return fmt.Errorf("failed to encode layout: %w", err)
	}
	return enc.Close()
}
