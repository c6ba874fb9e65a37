package experiment

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/mlkit/pkg/errors"
)

// Config is an experiment file. Zero values fall back to each
// algorithm's default.
type Config struct {
	Dataset struct {
		Path   string `yaml:"path"`
		Target string `yaml:"target"`
		Scaler string `yaml:"scaler"`
	} `yaml:"dataset"`
	Output string `yaml:"output"`
	Seed   int64  `yaml:"seed"`
	Log    struct {
		Backend string `yaml:"backend"`
		Level   string `yaml:"level"`
	} `yaml:"log"`
	Charts bool     `yaml:"charts"`
	Save   bool     `yaml:"save"`
	Run    []string `yaml:"run"`

	Algorithms struct {
		KMeans struct {
			K         int    `yaml:"k"`
			MaxIter   int    `yaml:"max_iter"`
			Distance  string `yaml:"distance"`
			Normalize *bool  `yaml:"normalize"`
		} `yaml:"kmeans"`
		DBSCAN struct {
			Eps      float64 `yaml:"eps"`
			MinPts   int     `yaml:"min_pts"`
			Distance string  `yaml:"distance"`
		} `yaml:"dbscan"`
		ID3 struct {
			PercentSplit    float64 `yaml:"percent_split"`
			CrossValidation int     `yaml:"cross_validation"`
			Discretize      bool    `yaml:"discretize"`
		} `yaml:"id3"`
		KNN struct {
			K               int     `yaml:"k"`
			Distance        string  `yaml:"distance"`
			PercentSplit    float64 `yaml:"percent_split"`
			CrossValidation int     `yaml:"cross_validation"`
			TieUnclassified bool    `yaml:"tie_unclassified"`
		} `yaml:"knn"`
		GradientDescent struct {
			Alpha      float64 `yaml:"alpha"`
			Precision  float64 `yaml:"precision"`
			MaxIter    int     `yaml:"max_iter"`
			YColumn    *int    `yaml:"y_column"`
			Univariate bool    `yaml:"univariate"`
			SaveError  bool    `yaml:"save_error"`
			Gap        int     `yaml:"gap"`
		} `yaml:"gradientdescent"`
		Annealing struct {
			Temperature float64 `yaml:"temperature"`
			Cooling     string  `yaml:"cooling"`
			SaveHistory bool    `yaml:"save_history"`
		} `yaml:"annealing"`
	} `yaml:"algorithms"`
}

// Load reads an experiment file. Callers apply their overrides and then
// call Validate.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read experiment %s", path)
	}
	return Parse(data)
}

// Parse decodes an experiment from YAML.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{Seed: -1}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode experiment")
	}
	return cfg, nil
}

// Validate checks that every algorithm to run is known.
func (c *Config) Validate() error {
	if len(c.Run) == 0 {
		return errors.NewValidationError("run", "list at least one algorithm", c.Run)
	}
	for _, name := range c.Run {
		if !Known(name) {
			return errors.NewValidationError("run", "unknown algorithm, try "+knownNames(), name)
		}
	}
	return nil
}
