package output

import (
	"fmt"
	"io"
	"strings"
)

// Formatter writes a frame to an output.
//
// Implementers must provide Format to encode the frame in their format and
// SetOutput to change the destination. Format may be called once per batch
// of rows; Close finishes the encoding without closing the output writer.
type Formatter interface {
	// Format writes the rows of the frame.
	Format(f *Frame) error

	// SetOutput changes the output writer.
	SetOutput(w io.Writer)

	// Close finishes the output.
	Close() error
}

// FormatterFor returns the formatter matching a frame file suffix such as
// ".csv" or ".jsonl.zst".
func FormatterFor(suffix string, w io.Writer) (Formatter, error) {
	switch base := strings.TrimSuffix(strings.TrimSuffix(suffix, ".gz"), ".zst"); base {
	case ".csv":
		return NewCSVFormatter(w), nil
	case ".jsonl":
		return NewJSONFormatter(w), nil
	default:
		return nil, fmt.Errorf("unsupported frame format %q", suffix)
	}
}
