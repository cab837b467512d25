// Package scan splits datasets into entry ranges and processes them in
// parallel, at most one goroutine per worker, merging results in a single
// collector.
package scan

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/vegasq/cutflow/internal/logging"
	"github.com/vegasq/cutflow/reader"
)

// ErrNoDatasets is returned when no input holds events for the channel.
var ErrNoDatasets = errors.New("no dataset holds the channel")

// Partition is a contiguous entry range of one dataset.
type Partition struct {
	ID      int
	Dir     string
	Start   int64
	End     int64
	Entries int64
}

// Len returns the number of entries in the range.
func (p Partition) Len() int64 {
	return p.End - p.Start
}

// Plan is the partitioning of a run.
type Plan struct {
	Channel    string
	Partitions []Partition
	// Workers bounds how many partitions are scanned at once.
	Workers int
	// Skipped lists the datasets without events for the channel.
	Skipped []string
}

// Entries returns the number of entries covered by the plan.
func (p *Plan) Entries() int64 {
	var n int64
	for _, part := range p.Partitions {
		n += part.Len()
	}
	return n
}

// NewPlan distributes workers over the datasets in proportion to their
// selected entries. Every dataset holding the channel gets at least one
// partition; an empty one gets exactly one empty partition so its stored
// cutflow still counts. Only the first floor(entries*fraction) entries of
// each dataset are selected.
func NewPlan(dirs []string, channel string, workers int, fraction float64, logger *slog.Logger) (*Plan, error) {
	logger = logging.Default(logger).With("component", "plan")
	if workers < 1 {
		workers = 1
	}
	if !(fraction > 0 && fraction <= 1) {
		return nil, fmt.Errorf("fraction must be in (0, 1], got %g", fraction)
	}

	type input struct {
		dir      string
		entries  int64
		selected int64
	}
	var inputs []input
	var total int64
	plan := &Plan{Channel: channel, Workers: workers}
	for _, dir := range dirs {
		ds, err := reader.OpenDataset(dir)
		if err != nil {
			return nil, err
		}
		if !ds.HasChannel(channel) {
			logger.Warn("dataset has no events for channel, skipping", "dataset", dir, "channel", channel)
			plan.Skipped = append(plan.Skipped, dir)
			continue
		}
		entries, err := ds.Entries(channel)
		if err != nil {
			return nil, err
		}
		selected := int64(math.Floor(float64(entries) * fraction))
		inputs = append(inputs, input{dir: dir, entries: entries, selected: selected})
		total += selected
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoDatasets, channel)
	}

	for _, in := range inputs {
		k := shares(in.selected, total, workers)
		for j := 0; j < k; j++ {
			plan.Partitions = append(plan.Partitions, Partition{
				ID:      len(plan.Partitions),
				Dir:     in.dir,
				Start:   in.selected * int64(j) / int64(k),
				End:     in.selected * int64(j+1) / int64(k),
				Entries: in.entries,
			})
		}
	}
	return plan, nil
}

// Split cuts every partition longer than maxEntries into equal ranges of
// at most maxEntries entries and renumbers the partitions. Each partition
// materializes its columns for its whole range, so maxEntries bounds the
// memory of one worker. A maxEntries of zero or less leaves the plan as is.
func (p *Plan) Split(maxEntries int64) {
	if maxEntries <= 0 {
		return
	}
	var parts []Partition
	for _, part := range p.Partitions {
		n := part.Len()
		k := max((n+maxEntries-1)/maxEntries, 1)
		for j := int64(0); j < k; j++ {
			parts = append(parts, Partition{
				ID:      len(parts),
				Dir:     part.Dir,
				Start:   part.Start + n*j/k,
				End:     part.Start + n*(j+1)/k,
				Entries: part.Entries,
			})
		}
	}
	p.Partitions = parts
}

// shares returns the number of partitions for a dataset holding n of the
// total selected entries.
func shares(n, total int64, workers int) int {
	if n == 0 || total == 0 {
		return 1
	}
	k := int(math.Round(float64(workers) * float64(n) / float64(total)))
	k = max(k, 1)
	return int(min(int64(k), n))
}
