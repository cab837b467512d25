package reader

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/parquet-go/parquet-go"
)

var (
	// ErrNoColumn is returned when a column is not part of the schema.
	ErrNoColumn = errors.New("column not found")

	// ErrNotNumeric is returned for columns that cannot be read as numbers.
	ErrNotNumeric = errors.New("column is not numeric")
)

const readBatch = 1024

// Tree reads an entry range of one parquet event file.
//
// It maintains both an OS file handle and a parquet file handle to enable
// proper resource cleanup.
type Tree struct {
	path    string
	file    *os.File
	pqFile  *parquet.File
	start   int64
	end     int64
	columns map[string]*Column
}

func openTree(path string, start, end int64) (*Tree, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	stat, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pqFile, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		_ = file.Close()
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}

	total := pqFile.NumRows()
	if end < 0 || end > total {
		end = total
	}
	if start < 0 {
		start = 0
	}
	if start > end {
		start = end
	}

	return &Tree{
		path:    path,
		file:    file,
		pqFile:  pqFile,
		start:   start,
		end:     end,
		columns: make(map[string]*Column),
	}, nil
}

// Path returns the file the tree reads.
func (t *Tree) Path() string {
	return t.path
}

// Total returns the number of entries in the file.
func (t *Tree) Total() int64 {
	return t.pqFile.NumRows()
}

// Range returns the entry range covered by the tree.
func (t *Tree) Range() (int64, int64) {
	return t.start, t.end
}

// Len returns the number of entries in the tree's range.
func (t *Tree) Len() int {
	return int(t.end - t.start)
}

// Schema returns the parquet file schema.
func (t *Tree) Schema() *parquet.Schema {
	return t.pqFile.Schema()
}

// Has reports whether name is a leaf column of the file.
func (t *Tree) Has(name string) bool {
	_, ok := t.pqFile.Schema().Lookup(name)
	return ok
}

// Column returns the named column for the tree's range, reading it from
// the file on first use.
func (t *Tree) Column(name string) (*Column, error) {
	if col, ok := t.columns[name]; ok {
		return col, nil
	}
	col, err := t.load(name)
	if err != nil {
		return nil, err
	}
	t.columns[name] = col
	return col, nil
}

// Close closes the underlying file. It is safe to call Close multiple
// times.
func (t *Tree) Close() error {
	if t.file == nil {
		return nil
	}
	err := t.file.Close()
	t.file = nil
	t.columns = nil
	return err
}

func (t *Tree) load(name string) (*Column, error) {
	leaf, ok := t.pqFile.Schema().Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoColumn, name, t.path)
	}
	switch leaf.Node.Type().Kind() {
	case parquet.Boolean, parquet.Int32, parquet.Int64, parquet.Float, parquet.Double:
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotNumeric, name)
	}

	col := &Column{
		Name:   name,
		Jagged: leaf.MaxRepetitionLevel > 0,
		starts: make([]int, 0, t.Len()),
	}

	buf := make([]parquet.Value, readBatch)
	var base int64
	for _, rg := range t.pqFile.RowGroups() {
		n := rg.NumRows()
		if base+n <= t.start {
			base += n
			continue
		}
		if base >= t.end {
			break
		}
		chunk := rg.ColumnChunks()[leaf.ColumnIndex]
		if err := t.readChunk(chunk, base, leaf.MaxDefinitionLevel, col, buf); err != nil {
			return nil, fmt.Errorf("failed to read column %s: %w", name, err)
		}
		base += n
	}
	return col, nil
}

// readChunk appends the values of the rows of chunk that fall into the
// tree's range. base is the file row index of the chunk's first row.
func (t *Tree) readChunk(chunk parquet.ColumnChunk, base int64, maxDef int, col *Column, buf []parquet.Value) error {
	pages := chunk.Pages()
	defer func() { _ = pages.Close() }()

	row := base - 1
	for {
		page, err := pages.ReadPage()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		values := page.Values()
		for {
			n, err := values.ReadValues(buf)
			for _, v := range buf[:n] {
				if v.RepetitionLevel() == 0 {
					row++
					if row >= t.start && row < t.end {
						col.startRow()
					}
				}
				if row < t.start || row >= t.end {
					continue
				}
				switch {
				case v.DefinitionLevel() == maxDef:
					col.append(toFloat(v))
				case !col.Jagged:
					col.append(math.NaN())
				}
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				parquet.Release(page)
				return err
			}
		}
		parquet.Release(page)
	}
}

func toFloat(v parquet.Value) float64 {
	switch v.Kind() {
	case parquet.Boolean:
		if v.Boolean() {
			return 1
		}
		return 0
	case parquet.Int32:
		return float64(v.Int32())
	case parquet.Int64:
		return float64(v.Int64())
	case parquet.Float:
		return float64(v.Float())
	case parquet.Double:
		return v.Double()
	}
	return math.NaN()
}
