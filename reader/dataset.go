package reader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/vegasq/cutflow/hist"
)

// MetaFile is the name of the metadata file inside a dataset directory.
const MetaFile = "meta.msgpack"

// ErrNoChannel is returned when a dataset has no tree for a channel.
var ErrNoChannel = errors.New("channel not found in dataset")

// Dataset is a directory of per-channel event files plus metadata.
type Dataset struct {
	Dir  string
	Meta *hist.File
}

// OpenDataset opens the dataset in dir. A missing metadata file yields
// empty metadata.
func OpenDataset(dir string) (*Dataset, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("failed to open dataset: %s is not a directory", dir)
	}

	meta := hist.NewFile()
	metaPath := filepath.Join(dir, MetaFile)
	if _, err := os.Stat(metaPath); err == nil {
		meta, err = hist.Load(metaPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read dataset metadata: %w", err)
		}
	}
	return &Dataset{Dir: dir, Meta: meta}, nil
}

// Name returns the directory base name.
func (d *Dataset) Name() string {
	return filepath.Base(d.Dir)
}

// TreePath returns the path of the channel's event file.
func (d *Dataset) TreePath(channel string) string {
	return filepath.Join(d.Dir, channel+".parquet")
}

// HasChannel reports whether the dataset holds events for channel.
func (d *Dataset) HasChannel(channel string) bool {
	_, err := os.Stat(d.TreePath(channel))
	return err == nil
}

// Entries returns the number of events stored for channel.
func (d *Dataset) Entries(channel string) (int64, error) {
	if !d.HasChannel(channel) {
		return 0, fmt.Errorf("%w: %s in %s", ErrNoChannel, channel, d.Dir)
	}
	t, err := openTree(d.TreePath(channel), 0, -1)
	if err != nil {
		return 0, err
	}
	defer func() { _ = t.Close() }()
	return t.Total(), nil
}

// OpenTree opens the entry range [start, end) of the channel's events.
// An end beyond the stored entries is clamped.
func (d *Dataset) OpenTree(channel string, start, end int64) (*Tree, error) {
	if !d.HasChannel(channel) {
		return nil, fmt.Errorf("%w: %s in %s", ErrNoChannel, channel, d.Dir)
	}
	return openTree(d.TreePath(channel), start, end)
}
