package output

import (
	"errors"
	"fmt"
	"io"

	"github.com/vegasq/cutflow/engine"
)

// DefaultBatchRows is the number of rows a Sink buffers before writing.
const DefaultBatchRows = 4096

// Sink streams the rows of a frame into one file, a batch at a time, so a
// partition never holds more than one batch of selected rows.
type Sink struct {
	path      string
	frame     *Frame
	batch     int
	file      io.WriteCloser
	formatter Formatter
}

// NewSink creates path and the formatter writing into it. A batch of zero
// or less uses DefaultBatchRows.
func NewSink(path string, frame *Frame, batch int, formatter func(io.Writer) (Formatter, error)) (*Sink, error) {
	if batch <= 0 {
		batch = DefaultBatchRows
	}
	file, err := Create(path)
	if err != nil {
		return nil, err
	}
	f, err := formatter(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &Sink{path: path, frame: frame, batch: batch, file: file, formatter: f}, nil
}

// Path returns the file being written.
func (s *Sink) Path() string {
	return s.path
}

// Fill records the event's row and writes the batch once it is full.
func (s *Sink) Fill(ev *engine.Event) error {
	s.frame.Fill(ev)
	if len(s.frame.Rows) < s.batch {
		return nil
	}
	return s.flush()
}

func (s *Sink) flush() error {
	if err := s.formatter.Format(s.frame); err != nil {
		return fmt.Errorf("failed to write %s: %w", s.path, err)
	}
	s.frame.Reset()
	return nil
}

// Close writes the remaining rows and closes the file.
func (s *Sink) Close() error {
	var errs []error
	if err := s.flush(); err != nil {
		errs = append(errs, err)
	}
	if err := s.formatter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to finish %s: %w", s.path, err))
	}
	if err := s.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close %s: %w", s.path, err))
	}
	return errors.Join(errs...)
}
