package experiment

import (
	"sort"
	"strings"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// Line is one key/value pair of an outcome summary.
type Line struct {
	Key   string
	Value string
}

// Outcome is what running one algorithm produced.
type Outcome struct {
	Algorithm string
	Summary   []Line
	// Report is a multi-line text block such as a confusion matrix or a tree.
	Report string
	// Model is the gob-encodable result written when saving is enabled.
	Model any
	// Charts are the PNG files written, if any.
	Charts []string

	chart func(dir string) ([]string, error)
}

func (o *Outcome) add(key, value string) {
	o.Summary = append(o.Summary, Line{Key: key, Value: value})
}

// Algorithm runs one model over a dataset.
type Algorithm interface {
	Name() string
	Run(ds *dataset.Dataset) (*Outcome, error)
}

type constructor func(cfg *Config) Algorithm

var registry = map[string]constructor{
	"kmeans":          newKMeansRun,
	"dbscan":          newDBSCANRun,
	"id3":             newID3Run,
	"knn":             newKNNRun,
	"gradientdescent": newGradientDescentRun,
	"annealing":       newAnnealingRun,
}

// New returns the algorithm registered under name.
func New(name string, cfg *Config) (Algorithm, error) {
	ctor, ok := registry[name]
	if !ok {
		return nil, errors.NewValidationError("algorithm", "unknown algorithm, try "+knownNames(), name)
	}
	return ctor(cfg), nil
}

// Known reports whether name is a registered algorithm.
func Known(name string) bool {
	_, ok := registry[name]
	return ok
}

func knownNames() string {
	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
