// Package config loads repolizer settings from YAML.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"

	"github.com/ivoronin/repolizer/internal/duplication"
	"github.com/ivoronin/repolizer/internal/scanner"
)

// Config is the root of the configuration file.
type Config struct {
	Duplication DuplicationConfig `yaml:"duplication"`
}

// DuplicationConfig configures the duplication check.
type DuplicationConfig struct {
	MinBlockSize      int      `yaml:"min_block_size"`
	MaxFileSize       string   `yaml:"max_file_size"` // e.g. "1MiB", "500KB"
	Timeout           string   `yaml:"timeout"`       // e.g. "30s"; "0s" disables the watchdog
	MaxWorkers        int      `yaml:"max_workers"`
	ParallelThreshold int      `yaml:"parallel_threshold"`
	ExcludeDirs       []string `yaml:"exclude_dirs"`
	Exclude           []string `yaml:"exclude,omitempty"`
	MaxExemplars      int      `yaml:"max_exemplars"`
	SnippetLength     int      `yaml:"snippet_length"`
	CacheFile         string   `yaml:"cache_file,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Duplication: DuplicationConfig{
			MinBlockSize:      duplication.DefaultMinBlockSize,
			MaxFileSize:       "1MiB",
			Timeout:           duplication.DefaultTimeout.String(),
			MaxWorkers:        duplication.DefaultMaxWorkers,
			ParallelThreshold: duplication.DefaultParallelThreshold,
			ExcludeDirs:       append([]string(nil), scanner.DefaultExcludeDirs...),
			MaxExemplars:      duplication.DefaultMaxExemplars,
			SnippetLength:     duplication.DefaultSnippetLength,
		},
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return cfg, nil
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// Options validates the duplication section and converts it to analysis options.
func (c *Config) Options() (duplication.Options, error) {
	d := c.Duplication
	opts := duplication.DefaultOptions()
	var errs []error

	if d.MinBlockSize < 1 {
		errs = append(errs, fmt.Errorf("min_block_size must be at least 1, got %d", d.MinBlockSize))
	}
	opts.MinBlockSize = d.MinBlockSize

	if d.MaxFileSize != "" {
		size, err := humanize.ParseBytes(d.MaxFileSize)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid max_file_size %q: %w", d.MaxFileSize, err))
		}
		opts.MaxFileSize = int64(size)
	} else {
		opts.MaxFileSize = 0
	}

	if d.Timeout != "" {
		timeout, err := time.ParseDuration(d.Timeout)
		switch {
		case err != nil:
			errs = append(errs, fmt.Errorf("invalid timeout %q: %w", d.Timeout, err))
		case timeout < 0:
			errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", d.Timeout))
		}
		opts.Timeout = timeout
	}

	if d.MaxWorkers < 1 {
		errs = append(errs, fmt.Errorf("max_workers must be at least 1, got %d", d.MaxWorkers))
	}
	opts.MaxWorkers = d.MaxWorkers

	if d.ParallelThreshold < 0 {
		errs = append(errs, fmt.Errorf("parallel_threshold must not be negative, got %d", d.ParallelThreshold))
	}
	opts.ParallelThreshold = d.ParallelThreshold

	if d.MaxExemplars < 0 {
		errs = append(errs, fmt.Errorf("max_exemplars must not be negative, got %d", d.MaxExemplars))
	}
	opts.MaxExemplars = d.MaxExemplars

	if d.SnippetLength < 0 {
		errs = append(errs, fmt.Errorf("snippet_length must not be negative, got %d", d.SnippetLength))
	}
	opts.SnippetLength = d.SnippetLength

	for _, p := range d.Exclude {
		if !doublestar.ValidatePattern(p) {
			errs = append(errs, fmt.Errorf("invalid exclude pattern %q", p))
		}
	}
	opts.ExcludeDirs = d.ExcludeDirs
	opts.Excludes = d.Exclude

	if err := errors.Join(errs...); err != nil {
		return duplication.Options{}, err
	}
	return opts, nil
}
