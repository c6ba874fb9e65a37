// Command mlkit runs a YAML experiment over a CSV dataset.
//
//	mlkit -config experiment.yaml
//	mlkit -config experiment.yaml -data iris.csv -run knn,id3 -charts
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/YuminosukeSato/mlkit/internal/experiment"
	"github.com/YuminosukeSato/mlkit/pkg/errors"
	"github.com/YuminosukeSato/mlkit/pkg/log"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("mlkit", flag.ContinueOnError)
	configFile := fs.String("config", "experiment.yaml", "Path to the experiment file")
	dataFile := fs.String("data", "", "CSV dataset, overrides dataset.path")
	outputDir := fs.String("output", "", "Directory for charts and saved models, overrides output")
	runList := fs.String("run", "", "Comma-separated algorithms, overrides run")
	logLevel := fs.String("log-level", "", "debug|info|warn|error, overrides log.level")
	logBackend := fs.String("log-backend", "", "zerolog|console|slog, overrides log.backend")
	charts := fs.Bool("charts", false, "Write PNG charts")
	save := fs.Bool("save", false, "Save fitted models as gob files")
	verbose := fs.Bool("v", false, "Print full reports")
	noColor := fs.Bool("no-color", false, "Disable coloured output")
	if err := fs.Parse(args); err != nil {
		return err
	}
	color.NoColor = color.NoColor || *noColor

	cfg, err := experiment.Load(*configFile)
	if err != nil {
		return err
	}
	override(cfg, *dataFile, *outputDir, *runList, *logLevel, *logBackend)
	cfg.Charts = cfg.Charts || *charts
	cfg.Save = cfg.Save || *save
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Dataset.Path == "" {
		return errors.NewValidationError("dataset.path", "set it in the experiment or pass -data", "")
	}

	level := cfg.Log.Level
	if level == "" {
		level = "warn"
	}
	if err := log.SetupLogger(cfg.Log.Backend, level); err != nil {
		return err
	}

	_, err = experiment.NewRunner(cfg, os.Stdout, *verbose).Run()
	return err
}

func override(cfg *experiment.Config, data, output, runList, level, backend string) {
	if data != "" {
		cfg.Dataset.Path = data
	}
	if output != "" {
		cfg.Output = output
	}
	if runList != "" {
		cfg.Run = nil
		for _, name := range strings.Split(runList, ",") {
			if name = strings.TrimSpace(name); name != "" {
				cfg.Run = append(cfg.Run, name)
			}
		}
	}
	if level != "" {
		cfg.Log.Level = level
	}
	if backend != "" {
		cfg.Log.Backend = backend
	}
}
