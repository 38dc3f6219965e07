// Package config loads the YAML run configuration used by the born-optim CLI.
//
// A run configuration selects an optimizer and its hyperparameters, the
// synthetic training problem, and where the optimizer record is written:
//
//	optimizer:
//	  kind: adagrad
//	  adagrad:
//	    lr_decay: 0.5
//	    epsilon: 1e-8
//	    weight_decay:
//	      penalty: 0.01
//	    grad_clipping:
//	      norm: 1.0
//	training:
//	  learning_rate: 0.01
//	  steps: 100
//	  seed: 42
//	  workers: 0
//	record:
//	  format: bin
//	  path: adagrad.boro
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/born-ml/born-optim/internal/optim"
	"github.com/born-ml/born-optim/internal/parallel"
	"github.com/born-ml/born-optim/internal/record"
)

// ErrInvalid is returned for a configuration that fails validation.
var ErrInvalid = errors.New("invalid configuration")

// Config is a complete run configuration.
type Config struct {
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Training  TrainingConfig  `yaml:"training"`
	Record    RecordConfig    `yaml:"record"`
}

// OptimizerConfig selects an optimizer. Only the section matching Kind is
// used; a missing section means that optimizer's defaults.
type OptimizerConfig struct {
	Kind    string               `yaml:"kind"`
	AdaGrad *optim.AdaGradConfig `yaml:"adagrad,omitempty"`
	SGD     *optim.SGDConfig     `yaml:"sgd,omitempty"`
	Adam    *optim.AdamConfig    `yaml:"adam,omitempty"`
}

// TrainingConfig describes the synthetic least-squares problem.
type TrainingConfig struct {
	LearningRate float64 `yaml:"learning_rate"`
	Steps        int     `yaml:"steps"`
	Seed         int64   `yaml:"seed"`
	InFeatures   int     `yaml:"in_features"`
	OutFeatures  int     `yaml:"out_features"`
	BatchSize    int     `yaml:"batch_size"`
	Workers      int     `yaml:"workers"` // 0 uses every CPU, 1 runs sequentially
}

// RecordConfig says where the optimizer record is saved.
type RecordConfig struct {
	Format record.Format `yaml:"format,omitempty"` // Empty means infer from Path
	Path   string        `yaml:"path"`
}

// Default returns a configuration that trains a 6x6 linear layer with
// AdaGrad and writes a JSON record.
func Default() *Config {
	adagrad := optim.NewAdaGradConfig()
	return &Config{
		Optimizer: OptimizerConfig{
			Kind:    optim.AdaGradName,
			AdaGrad: &adagrad,
		},
		Training: TrainingConfig{
			LearningRate: 0.01,
			Steps:        100,
			Seed:         1,
			InFeatures:   6,
			OutFeatures:  6,
			BatchSize:    32,
		},
		Record: RecordConfig{
			Path: "optimizer.json",
		},
	}
}

// Load reads and validates a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of Default and validates the result. Unknown
// keys are rejected.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Validate checks every section.
func (c *Config) Validate() error {
	if err := c.Optimizer.Validate(); err != nil {
		return err
	}
	if err := c.Training.Validate(); err != nil {
		return err
	}
	return c.Record.Validate()
}

// Validate checks the kind and the matching section.
func (o *OptimizerConfig) Validate() error {
	var err error
	switch o.Kind {
	case optim.AdaGradName:
		if o.AdaGrad != nil {
			err = o.AdaGrad.Validate()
		}
	case optim.SGDName:
		if o.SGD != nil {
			err = o.SGD.Validate()
		}
	case optim.AdamName:
		if o.Adam != nil {
			err = o.Adam.Validate()
		}
	default:
		return fmt.Errorf("%w: optimizer kind %q (want %s, %s or %s)",
			ErrInvalid, o.Kind, optim.AdaGradName, optim.SGDName, optim.AdamName)
	}
	if err != nil {
		return fmt.Errorf("%w: optimizer.%s: %w", ErrInvalid, o.Kind, err)
	}
	return nil
}

// AdaGradConfig returns the AdaGrad section or its defaults.
func (o *OptimizerConfig) AdaGradConfig() optim.AdaGradConfig {
	if o.AdaGrad == nil {
		return optim.NewAdaGradConfig()
	}
	return *o.AdaGrad
}

// SGDConfig returns the SGD section or its defaults.
func (o *OptimizerConfig) SGDConfig() optim.SGDConfig {
	if o.SGD == nil {
		return optim.SGDConfig{}
	}
	return *o.SGD
}

// AdamConfig returns the Adam section or its defaults.
func (o *OptimizerConfig) AdamConfig() optim.AdamConfig {
	if o.Adam == nil {
		return optim.AdamConfig{}
	}
	return *o.Adam
}

// Validate checks the training section.
func (t *TrainingConfig) Validate() error {
	switch {
	case !(t.LearningRate > 0):
		return fmt.Errorf("%w: training.learning_rate %v must be > 0", ErrInvalid, t.LearningRate)
	case t.Steps < 1:
		return fmt.Errorf("%w: training.steps %d must be >= 1", ErrInvalid, t.Steps)
	case t.InFeatures < 1 || t.OutFeatures < 1:
		return fmt.Errorf("%w: training features %dx%d must be positive", ErrInvalid, t.InFeatures, t.OutFeatures)
	case t.BatchSize < 1:
		return fmt.Errorf("%w: training.batch_size %d must be >= 1", ErrInvalid, t.BatchSize)
	case t.Workers < 0:
		return fmt.Errorf("%w: training.workers %d must be >= 0", ErrInvalid, t.Workers)
	}
	return nil
}

// Parallel converts Workers into a fan-out config.
func (t *TrainingConfig) Parallel() parallel.Config {
	switch t.Workers {
	case 0:
		return parallel.DefaultConfig()
	case 1:
		return parallel.Sequential()
	default:
		return parallel.Config{Enabled: true, NumWorkers: t.Workers, MinChunkSize: 1}
	}
}

// Validate checks that a format can be resolved.
func (r *RecordConfig) Validate() error {
	if r.Path == "" {
		return fmt.Errorf("%w: record.path is empty", ErrInvalid)
	}
	if _, err := r.ResolvedFormat(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

// ResolvedFormat returns Format, or the format implied by Path's extension.
func (r *RecordConfig) ResolvedFormat() (record.Format, error) {
	if r.Format != "" {
		return record.ParseFormat(string(r.Format))
	}
	return record.FormatFromPath(r.Path)
}
