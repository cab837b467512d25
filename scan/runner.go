package scan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/vegasq/cutflow/engine"
	"github.com/vegasq/cutflow/hist"
	"github.com/vegasq/cutflow/internal/affinity"
	"github.com/vegasq/cutflow/internal/logging"
	"github.com/vegasq/cutflow/internal/metrics"
	"github.com/vegasq/cutflow/output"
	"github.com/vegasq/cutflow/query"
	"github.com/vegasq/cutflow/reader"
)

// Options configures a run.
type Options struct {
	Parameters []*query.Descriptor
	Cuts       []*query.Descriptor

	Clean        *engine.CleanRef
	ExtraWeights []string
	Models       engine.ModelSource
	Features     []*query.Descriptor

	// Output is the path prefix of the written files.
	Output      string
	FrameSuffix string
	// BatchRows is the number of selected rows buffered per output file
	// before they are written; zero uses output.DefaultBatchRows.
	BatchRows  int
	PinThreads bool

	Metrics *metrics.Manager
	Logger  *slog.Logger
}

// Bundle is the result of one partition.
type Bundle struct {
	Partition Partition
	Hists     *hist.File
	// Files lists the row outputs the partition wrote.
	Files       []string
	Scanned     int
	Selected    int
	Unavailable int
	Duration    time.Duration
}

// Result is the merged outcome of a run.
type Result struct {
	RunID string
	Hists *hist.File
	// Files lists every file written, the histogram file first.
	Files    []string
	Scanned  int
	Selected int
}

// Cutflow returns the merged cutflow of the channel.
func (r *Result) Cutflow(channel string) *hist.Cutflow {
	return r.Hists.Cutflows[engine.CutflowName+"_"+channel]
}

// Runner executes a plan.
type Runner struct {
	plan    *Plan
	opts    Options
	logger  *slog.Logger
	metrics *metrics.Manager
}

// NewRunner creates a runner.
func NewRunner(plan *Plan, opts Options) *Runner {
	logger := logging.Default(opts.Logger)
	m := opts.Metrics
	if m == nil {
		m = metrics.NewManager()
	}
	if opts.FrameSuffix == "" {
		opts.FrameSuffix = ".csv"
	}
	for range plan.Skipped {
		m.DatasetSkipped()
	}
	return &Runner{
		plan:    plan,
		opts:    opts,
		logger:  logger.With("component", "scan", "channel", plan.Channel),
		metrics: m,
	}
}

// Run scans the partitions with at most plan.Workers goroutines at a time
// and merges the results. Cancellation is observed between partitions; a
// started partition runs to completion.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if _, err := output.FormatterFor(r.opts.FrameSuffix, io.Discard); err != nil {
		return nil, err
	}

	res := &Result{RunID: uuid.NewString(), Hists: hist.NewFile()}
	res.Hists.RunID = res.RunID
	started := time.Now()
	r.logger.Info("run started", "run_id", res.RunID, "partitions", len(r.plan.Partitions), "entries", r.plan.Entries())

	bundles := make(chan *Bundle)
	collected := make(chan error, 1)
	go func() {
		collected <- r.collect(bundles, res)
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(r.plan.Workers, 1))
	for i, p := range r.plan.Partitions {
		i, p := i, p
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if r.opts.PinThreads {
				// The thread stays locked until the goroutine exits and
				// is then discarded with its affinity mask.
				if _, err := affinity.Pin(affinity.CPUFor(i)); err != nil {
					r.logger.Warn("thread pinning failed", "partition", p.ID, "error", err)
				}
			}
			b, err := r.process(p, res.RunID)
			if err != nil {
				return fmt.Errorf("partition %d of %s: %w", p.ID, p.Dir, err)
			}
			bundles <- b
			return nil
		})
	}
	err := g.Wait()
	close(bundles)
	if cerr := <-collected; err == nil {
		err = cerr
	}
	if err != nil {
		return nil, err
	}

	path := r.opts.Output + ".msgpack"
	if err := res.Hists.Save(path); err != nil {
		return nil, err
	}
	res.Files = append([]string{path}, res.Files...)

	r.logger.Info("run finished", "run_id", res.RunID, "scanned", res.Scanned, "selected", res.Selected, "elapsed", time.Since(started))
	return res, nil
}

// process scans one partition with its own store handle and bindings,
// streaming selected rows to the partition's output files.
func (r *Runner) process(p Partition, runID string) (*Bundle, error) {
	start := time.Now()
	ds, err := reader.OpenDataset(p.Dir)
	if err != nil {
		return nil, err
	}
	tree, err := ds.OpenTree(r.plan.Channel, p.Start, p.End)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tree.Close() }()

	ctx, err := engine.NewContext(tree, ds.Meta, engine.Options{
		Channel:      r.plan.Channel,
		Clean:        r.opts.Clean,
		ExtraWeights: r.opts.ExtraWeights,
		Models:       r.opts.Models,
		Features:     r.opts.Features,
		Logger:       r.logger.With("partition", p.ID),
	})
	if err != nil {
		return nil, err
	}
	chain, err := ctx.NewCutChain(r.opts.Cuts)
	if err != nil {
		return nil, err
	}
	qs, err := ctx.BindAll(r.opts.Parameters)
	if err != nil {
		return nil, err
	}
	filler, err := output.NewHistFiller(qs)
	if err != nil {
		return nil, err
	}
	treeFrame := output.NewFrame(qs, output.TreeColumns)
	csvFrame := output.NewFrame(qs, output.CSVColumns)
	sinks, err := r.openSinks(p, runID, treeFrame, csvFrame)
	if err != nil {
		return nil, err
	}
	closeSinks := func() error {
		var errs []error
		for _, s := range sinks {
			errs = append(errs, s.Close())
		}
		return errors.Join(errs...)
	}

	cf := ctx.CutflowSeed()
	b := &Bundle{Partition: p}
	for entry, n := 0, ctx.Len(); entry < n; entry++ {
		ev := ctx.Begin(entry)
		b.Scanned++
		if !chain.Apply(ev, cf) {
			continue
		}
		b.Selected++
		filler.Fill(ev)
		for _, s := range sinks {
			if err := s.Fill(ev); err != nil {
				_ = closeSinks()
				return nil, err
			}
		}
	}
	if err := closeSinks(); err != nil {
		return nil, err
	}
	for _, s := range sinks {
		b.Files = append(b.Files, s.Path())
	}

	b.Hists = hist.NewFile()
	if err := filler.AddTo(b.Hists); err != nil {
		return nil, err
	}
	b.Hists.Cutflows[engine.CutflowName+"_"+r.plan.Channel] = cf
	b.Unavailable = filler.Unavailable() + treeFrame.Unavailable() + csvFrame.Unavailable()
	b.Duration = time.Since(start)
	return b, nil
}

// openSinks creates the tree and frame files of a partition, skipping
// frames without columns.
func (r *Runner) openSinks(p Partition, runID string, tree, frame *output.Frame) ([]*output.Sink, error) {
	var sinks []*output.Sink
	open := func(path string, f *output.Frame, formatter func(io.Writer) (output.Formatter, error)) error {
		if f.Empty() {
			return nil
		}
		s, err := output.NewSink(path, f, r.opts.BatchRows, formatter)
		if err != nil {
			return err
		}
		sinks = append(sinks, s)
		return nil
	}

	err := open(fmt.Sprintf("%s_%d.parquet", r.opts.Output, p.ID), tree, func(w io.Writer) (output.Formatter, error) {
		return output.NewTreeWriter(w, runID), nil
	})
	if err == nil {
		err = open(fmt.Sprintf("%s_%d%s", r.opts.Output, p.ID, r.opts.FrameSuffix), frame, func(w io.Writer) (output.Formatter, error) {
			return output.FormatterFor(r.opts.FrameSuffix, w)
		})
	}
	if err != nil {
		for _, s := range sinks {
			_ = s.Close()
		}
		return nil, err
	}
	return sinks, nil
}

// collect merges bundles until the channel closes. After a failure it
// keeps draining so workers never block.
func (r *Runner) collect(bundles <-chan *Bundle, res *Result) error {
	var errs []error
	done, total := 0, len(r.plan.Partitions)
	for b := range bundles {
		done++
		if len(errs) > 0 {
			continue
		}
		if err := r.merge(b, res); err != nil {
			errs = append(errs, err)
			continue
		}
		r.metrics.ObservePartition(b.Scanned, b.Selected, b.Unavailable, b.Duration)
		r.logger.Info("partition done",
			"partition", b.Partition.ID,
			"dataset", b.Partition.Dir,
			"progress", fmt.Sprintf("%d/%d", done, total),
			"scanned", b.Scanned,
			"selected", b.Selected,
			"elapsed", b.Duration,
		)
	}
	return errors.Join(errs...)
}

func (r *Runner) merge(b *Bundle, res *Result) error {
	if err := res.Hists.Merge(b.Hists); err != nil {
		return fmt.Errorf("failed to merge partition %d: %w", b.Partition.ID, err)
	}
	res.Scanned += b.Scanned
	res.Selected += b.Selected
	res.Files = append(res.Files, b.Files...)
	return nil
}
