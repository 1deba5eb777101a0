// Package config loads the generator settings from a YAML file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/ardanlabs/unwindgen/generator"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "unwindgen.yaml"

var suffixRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

type Config struct {
	Input       string            `yaml:"input"`
	OutputDir   string            `yaml:"output_dir"`
	Suffix      string            `yaml:"suffix"`
	BindingFile string            `yaml:"binding_file"`
	NativeFile  string            `yaml:"native_file"`
	Includes    []string          `yaml:"includes"`
	Skip        []string          `yaml:"skip"`
	Types       map[string]string `yaml:"types"`
}

func Default() Config {
	opts := generator.DefaultOptions()

	return Config{
		OutputDir:   ".",
		Suffix:      opts.Suffix,
		BindingFile: opts.BindingFile,
		NativeFile:  opts.NativeFile,
		Includes:    opts.Includes,
		Skip:        opts.Skip,
	}
}

// Load reads path over the defaults. Keys present in the file replace the
// default values; unknown keys are rejected.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("decoding %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.Input == "" {
		return fmt.Errorf("no input file configured")
	}
	if !suffixRe.MatchString(c.Suffix) {
		return fmt.Errorf("suffix %q is not a valid identifier fragment", c.Suffix)
	}
	if c.BindingFile == "" || c.NativeFile == "" {
		return fmt.Errorf("binding_file and native_file must be set")
	}
	if c.BindingFile == c.NativeFile {
		return fmt.Errorf("binding_file and native_file are both %q", c.BindingFile)
	}

	return nil
}

func (c Config) Options(logger *slog.Logger) generator.Options {
	return generator.Options{
		Suffix:      c.Suffix,
		BindingFile: c.BindingFile,
		NativeFile:  c.NativeFile,
		Includes:    c.Includes,
		Skip:        c.Skip,
		Types:       c.Types,
		Logger:      logger,
	}
}
