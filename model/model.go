// Package model loads the trained discriminants evaluated when an event
// file has no precomputed score column. Models are read once at startup
// and shared read-only by every partition.
package model

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/vegasq/cutflow/engine"
	"github.com/vegasq/cutflow/internal/logging"
)

// WeightsFile is the model file inside a mass hypothesis directory.
const WeightsFile = "weights.yaml"

var (
	// ErrFeatureCount is returned when a model and the configured
	// features disagree on the number of inputs.
	ErrFeatureCount = errors.New("feature count mismatch")
	// ErrInvalidModel is returned for unreadable or inconsistent model files.
	ErrInvalidModel = errors.New("invalid model")
)

// Logistic is a standardized linear model with a logistic output:
// score = 1 / (1 + exp(-(bias + sum w_i (x_i - mean_i) / scale_i))).
type Logistic struct {
	Mass    float64   `koanf:"mass"`
	Bias    float64   `koanf:"bias"`
	Weights []float64 `koanf:"weights"`
	Mean    []float64 `koanf:"mean"`
	Scale   []float64 `koanf:"scale"`
}

func (l *Logistic) validate() error {
	n := len(l.Weights)
	if n == 0 {
		return fmt.Errorf("%w: no weights", ErrInvalidModel)
	}
	if l.Mean != nil && len(l.Mean) != n {
		return fmt.Errorf("%w: %d means for %d weights", ErrInvalidModel, len(l.Mean), n)
	}
	if l.Scale != nil && len(l.Scale) != n {
		return fmt.Errorf("%w: %d scales for %d weights", ErrInvalidModel, len(l.Scale), n)
	}
	for i, s := range l.Scale {
		if s == 0 {
			return fmt.Errorf("%w: zero scale for input %d", ErrInvalidModel, i)
		}
	}
	return nil
}

// Inputs returns the number of features the model takes.
func (l *Logistic) Inputs() int {
	return len(l.Weights)
}

// Score evaluates the model.
func (l *Logistic) Score(features []float64) (float64, error) {
	if len(features) != len(l.Weights) {
		return 0, fmt.Errorf("%w: got %d, want %d", ErrFeatureCount, len(features), len(l.Weights))
	}
	z := l.Bias
	for i, x := range features {
		if l.Mean != nil {
			x -= l.Mean[i]
		}
		if l.Scale != nil {
			x /= l.Scale[i]
		}
		z += l.Weights[i] * x
	}
	return 1 / (1 + math.Exp(-z)), nil
}

// LoadLogistic reads a model file.
func LoadLogistic(path string) (*Logistic, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidModel, path, err)
	}
	var l Logistic
	if err := k.UnmarshalWithConf("", &l, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidModel, path, err)
	}
	if err := l.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &l, nil
}

// Registry holds the models of one channel keyed by mass hypothesis.
type Registry struct {
	dir    string
	models map[float64]*Logistic
}

// Open loads every mass hypothesis below baseDir/channelDir. A
// subdirectory without a weights file is ignored. The mass is taken from
// the file, or from the directory name when the file omits it.
func Open(baseDir, channelDir string, logger *slog.Logger) (*Registry, error) {
	logger = logging.Default(logger).With("component", "model")
	dir := filepath.Join(baseDir, channelDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read model directory: %w", err)
	}

	r := &Registry{dir: dir, models: make(map[float64]*Logistic)}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name(), WeightsFile)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		m, err := LoadLogistic(path)
		if err != nil {
			return nil, err
		}
		if m.Mass == 0 {
			mass, err := strconv.ParseFloat(e.Name(), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s has no mass", ErrInvalidModel, path)
			}
			m.Mass = mass
		}
		if _, dup := r.models[m.Mass]; dup {
			return nil, fmt.Errorf("%w: duplicate mass %g in %s", ErrInvalidModel, m.Mass, dir)
		}
		r.models[m.Mass] = m
	}
	logger.Info("models loaded", "dir", dir, "masses", r.Masses())
	return r, nil
}

// Masses returns the loaded mass hypotheses in increasing order.
func (r *Registry) Masses() []float64 {
	masses := make([]float64, 0, len(r.models))
	for m := range r.models {
		masses = append(masses, m)
	}
	sort.Float64s(masses)
	return masses
}

// CheckInputs verifies every model takes n features.
func (r *Registry) CheckInputs(n int) error {
	for mass, m := range r.models {
		if m.Inputs() != n {
			return fmt.Errorf("%w: model for mass %g takes %d inputs, %d features configured", ErrFeatureCount, mass, m.Inputs(), n)
		}
	}
	return nil
}

// Scorer returns the model of a mass hypothesis.
func (r *Registry) Scorer(mass float64) (engine.Scorer, bool) {
	m, ok := r.models[mass]
	if !ok {
		return nil, false
	}
	return m, true
}
