package output

import (
	"encoding/json"
	"io"
)

// JSONFormatter outputs frames as JSON Lines, one object per event.
type JSONFormatter struct {
	writer io.Writer
}

// NewJSONFormatter creates a new JSON Lines formatter
func NewJSONFormatter(w io.Writer) *JSONFormatter {
	return &JSONFormatter{writer: w}
}

// SetOutput sets the output writer
func (j *JSONFormatter) SetOutput(w io.Writer) {
	j.writer = w
}

// Close is a no-op.
func (j *JSONFormatter) Close() error {
	return nil
}

// Format writes one JSON object per row, keyed by column name.
func (j *JSONFormatter) Format(f *Frame) error {
	encoder := json.NewEncoder(j.writer)
	obj := make(map[string]float64, len(f.Columns))
	for _, row := range f.Rows {
		for i, name := range f.Columns {
			obj[name] = row[i]
		}
		if err := encoder.Encode(obj); err != nil {
			return err
		}
	}
	return nil
}
