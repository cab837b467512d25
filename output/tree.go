package output

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"
)

// RunIDKey is the key/value metadata entry holding the run id.
const RunIDKey = "cutflow.run_id"

// TreeWriter writes frames as parquet files with one required double
// column per frame column. Every Format call appends one row group; the
// schema is fixed by the first frame.
type TreeWriter struct {
	writer io.Writer
	runID  string

	w     *parquet.Writer
	order []int
}

// NewTreeWriter creates a tree writer stamping runID into the file
// metadata.
func NewTreeWriter(w io.Writer, runID string) *TreeWriter {
	return &TreeWriter{writer: w, runID: runID}
}

// SetOutput sets the output writer. A file in progress is abandoned.
func (t *TreeWriter) SetOutput(w io.Writer) {
	t.writer = w
	t.w = nil
}

// Schema returns the parquet schema of the frame.
func Schema(f *Frame) *parquet.Schema {
	group := make(parquet.Group, len(f.Columns))
	for _, name := range f.Columns {
		group[name] = parquet.Leaf(parquet.DoubleType)
	}
	return parquet.NewSchema("events", group)
}

func (t *TreeWriter) open(f *Frame) {
	schema := Schema(f)

	// Leaves are ordered by name in the schema, not by frame order.
	index := make(map[string]int, len(f.Columns))
	for i, path := range schema.Columns() {
		index[path[0]] = i
	}
	t.order = make([]int, len(f.Columns))
	for i, name := range f.Columns {
		t.order[i] = index[name]
	}

	t.w = parquet.NewWriter(t.writer, schema,
		parquet.Compression(&parquet.Zstd),
		parquet.KeyValueMetadata(RunIDKey, t.runID),
	)
}

// Format appends the frame's rows as one row group.
func (t *TreeWriter) Format(f *Frame) error {
	if t.w == nil {
		t.open(f)
	}
	if len(f.Rows) == 0 {
		return nil
	}
	if len(f.Columns) != len(t.order) {
		return fmt.Errorf("tree has %d columns, frame has %d", len(t.order), len(f.Columns))
	}

	rows := make([]parquet.Row, 0, len(f.Rows))
	for _, values := range f.Rows {
		row := make(parquet.Row, len(values))
		for i, v := range values {
			col := t.order[i]
			row[col] = parquet.ValueOf(v).Level(0, 0, col)
		}
		rows = append(rows, row)
	}
	if _, err := t.w.WriteRows(rows); err != nil {
		return fmt.Errorf("failed to write tree rows: %w", err)
	}
	if err := t.w.Flush(); err != nil {
		return fmt.Errorf("failed to flush row group: %w", err)
	}
	return nil
}

// Close writes the parquet footer. A writer that never saw a frame writes
// nothing.
func (t *TreeWriter) Close() error {
	if t.w == nil {
		return nil
	}
	w := t.w
	t.w = nil
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close tree: %w", err)
	}
	return nil
}
