// Package experiment runs the algorithms named in a YAML experiment file
// over one CSV dataset and reports, plots and saves their results.
package experiment

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/YuminosukeSato/mlkit/core/dataset"
	"github.com/YuminosukeSato/mlkit/core/model"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

// Runner executes an experiment.
type Runner struct {
	cfg     *Config
	printer *Printer
	logger  log.Logger
	verbose bool
}

// NewRunner returns a runner printing to w.
func NewRunner(cfg *Config, w io.Writer, verbose bool) *Runner {
	return &Runner{
		cfg:     cfg,
		printer: NewPrinter(w),
		logger:  log.GetLoggerWithName("experiment"),
		verbose: verbose,
	}
}

// Run loads the configured dataset and runs every algorithm on it.
func (r *Runner) Run() ([]*Outcome, error) {
	ds, err := LoadCSV(r.cfg.Dataset.Path, r.cfg.Dataset.Target)
	if err != nil {
		return nil, err
	}
	r.printer.Dataset(r.cfg.Dataset.Path, ds.Len(), ds.NumAttributes())
	return r.RunDataset(ds)
}

// RunDataset runs every configured algorithm on ds. An algorithm that
// fails, or panics, is reported and skipped; the error is returned only
// when none succeeded.
func (r *Runner) RunDataset(ds *dataset.Dataset) ([]*Outcome, error) {
	ds, err := Scale(ds, r.cfg.Dataset.Scaler)
	if err != nil {
		return nil, err
	}
	if r.cfg.Charts || r.cfg.Save {
		if err := os.MkdirAll(r.output(), 0o755); err != nil {
			return nil, errors.Wrapf(err, "create output directory %s", r.output())
		}
	}

	var (
		outcomes []*Outcome
		lastErr  error
	)
	for _, name := range r.cfg.Run {
		start := time.Now()
		out, err := r.runOne(name, ds)
		if err != nil {
			r.logger.Error("Algorithm failed", err, log.ModelNameKey, name)
			r.printer.Failure(name, err)
			lastErr = err
			continue
		}
		r.logger.Info("Algorithm finished",
			log.ModelNameKey, name,
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
		r.printer.Outcome(out, r.verbose)
		outcomes = append(outcomes, out)
	}
	if len(outcomes) == 0 && lastErr != nil {
		return nil, lastErr
	}
	return outcomes, nil
}

func (r *Runner) runOne(name string, ds *dataset.Dataset) (out *Outcome, err error) {
	alg, err := New(name, r.cfg)
	if err != nil {
		return nil, err
	}
	err = errors.SafeExecute("experiment."+name, func() error {
		var runErr error
		out, runErr = alg.Run(ds)
		return runErr
	})
	if err != nil {
		return nil, err
	}

	if r.cfg.Charts && out.chart != nil {
		paths, err := out.chart(r.output())
		out.Charts = paths
		if err != nil {
			return nil, err
		}
	}
	if r.cfg.Save && out.Model != nil {
		path := filepath.Join(r.output(), name+".gob")
		if err := model.SaveModel(out.Model, path); err != nil {
			return nil, err
		}
		out.add("saved", path)
	}
	return out, nil
}

func (r *Runner) output() string {
	if r.cfg.Output == "" {
		return "out"
	}
	return r.cfg.Output
}
