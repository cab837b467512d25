package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVFormatter outputs frames as CSV with a header row.
type CSVFormatter struct {
	writer io.Writer
	header bool
}

// NewCSVFormatter creates a new CSV formatter
func NewCSVFormatter(w io.Writer) *CSVFormatter {
	return &CSVFormatter{writer: w}
}

// SetOutput sets the output writer
func (c *CSVFormatter) SetOutput(w io.Writer) {
	c.writer = w
	c.header = false
}

// Close is a no-op; every Format call flushes its rows.
func (c *CSVFormatter) Close() error {
	return nil
}

// Format writes the frame as CSV. The header is written by the first call
// only. A frame without columns writes nothing.
func (c *CSVFormatter) Format(f *Frame) error {
	csvWriter := csv.NewWriter(c.writer)
	if f.Empty() {
		csvWriter.Flush()
		return csvWriter.Error()
	}

	if !c.header {
		if err := csvWriter.Write(f.Columns); err != nil {
			return err
		}
		c.header = true
	}

	record := make([]string, len(f.Columns))
	for _, row := range f.Rows {
		for i, v := range row {
			record[i] = formatValue(v)
		}
		if err := csvWriter.Write(record); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	if err := csvWriter.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV writer: %w", err)
	}
	return nil
}

// formatValue writes the shortest representation that reads back to v.
func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
