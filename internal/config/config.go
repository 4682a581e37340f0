// Package config builds and validates the options for one grouping run.
package config

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"areagroup/internal/models"
	"areagroup/internal/serializer"
	"areagroup/internal/writer"
)

// ErrInvalidConfig wraps every configuration error.
var ErrInvalidConfig = errors.New("invalid configuration")

// Configuration validation errors.
var (
	ErrMissingInputPath    = errors.New("input file path is required")
	ErrInvalidOutputFormat = errors.New("output type must be 'json' or 'xml'")
	ErrUnknownSearchField  = errors.New("search field must be one of: " + strings.Join(models.CanonicalFields, ", "))
	ErrEmptySearchField    = errors.New("search field needs at least one value")
	ErrMalformedArgument   = errors.New("arguments must be key=value")
	ErrInvalidDelimiter    = errors.New("delimiter must be a single character")
	ErrInvalidLogLevel     = errors.New("log level must be one of: debug, info, warn, error")
)

// Reserved argument keys. Any other key is a search field.
const (
	KeyInput     = "input"
	KeyOutput    = "output"
	KeyType      = "type"
	KeyDelimiter = "delimiter"
	KeyLogLevel  = "log"
	KeyConfig    = "config"
	KeySave      = "save"
)

// Defaults applied before validation.
const (
	DefaultType      = serializer.FormatJSON
	DefaultDelimiter = ","
	DefaultLogLevel  = "info"
)

// Config holds the options for one run.
type Config struct {
	Input     string              `yaml:"input" validate:"required"`
	Type      string              `yaml:"type" validate:"oneof=json xml"`
	Output    string              `yaml:"output"`
	Delimiter string              `yaml:"delimiter" validate:"len=1"`
	LogLevel  string              `yaml:"log_level" validate:"oneof=debug info warn error"`
	Search    map[string][]string `yaml:"search" validate:"dive,keys,canonical_field,endkeys,min=1"`

	// File is the YAML file the options were read from, if any.
	File string `yaml:"-"`
	// Save is where the effective options are written back as YAML, if set.
	Save string `yaml:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Map keys are canonical field names, never raw column labels.
	_ = v.RegisterValidation("canonical_field", func(fl validator.FieldLevel) bool {
		return models.IsCanonicalField(fl.Field().String())
	})

	return v
}

// Load builds a validated Config from command-line tokens. A config=<path>
// token loads a YAML file first; the remaining tokens override its values and
// search criteria from both are merged.
func Load(args []string) (*Config, error) {
	cli, err := ParseArgs(args)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	if cli.File != "" {
		fileCfg, err := ReadConfigFile(cli.File)
		if err != nil {
			return nil, err
		}

		cfg = fileCfg
	}

	cfg.Merge(cli)
	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ParseArgs maps key=value tokens onto a Config without applying defaults.
func ParseArgs(args []string) (*Config, error) {
	cfg := &Config{}

	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %w: %q", ErrInvalidConfig, ErrMalformedArgument, arg)
		}

		switch key {
		case KeyInput:
			cfg.Input = value
		case KeyOutput:
			cfg.Output = value
		case KeyType:
			cfg.Type = value
		case KeyDelimiter:
			cfg.Delimiter = value
		case KeyLogLevel:
			cfg.LogLevel = value
		case KeyConfig:
			cfg.File = value
		case KeySave:
			cfg.Save = value
		default:
			cfg.AddSearch(key, value)
		}
	}

	return cfg, nil
}

// ReadConfigFile parses a YAML options file without defaults or validation.
func ReadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	cfg.File = path

	return &cfg, nil
}

// SaveConfig writes the configuration as YAML. The file is readable by
// config=<path> on a later run.
func (c *Config) SaveConfig(ctx context.Context, path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	w := writer.New(&writer.Options{PermFile: 0o600})
	if err := w.Write(ctx, path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// AddSearch registers one more required substring for field.
func (c *Config) AddSearch(field, value string) {
	if c.Search == nil {
		c.Search = make(map[string][]string)
	}

	c.Search[field] = append(c.Search[field], value)
}

// Merge overlays the non-empty options of other onto c and appends its
// search criteria.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Input != "" {
		c.Input = other.Input
	}

	if other.Output != "" {
		c.Output = other.Output
	}

	if other.Type != "" {
		c.Type = other.Type
	}

	if other.Delimiter != "" {
		c.Delimiter = other.Delimiter
	}

	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}

	if other.File != "" {
		c.File = other.File
	}

	if other.Save != "" {
		c.Save = other.Save
	}

	for field, values := range other.Search {
		for _, v := range values {
			c.AddSearch(field, v)
		}
	}
}

// ApplyDefaults fills the type, delimiter and log level. The output path is
// derived later from the validated type.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = DefaultType
	}

	if c.Delimiter == "" {
		c.Delimiter = DefaultDelimiter
	}

	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
}

// Validate checks the configuration. Every returned error wraps
// ErrInvalidConfig and one of the specific configuration errors.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	errs := make([]error, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalidConfig, translate(fe)))
	}

	return errors.Join(errs...)
}

func translate(fe validator.FieldError) error {
	switch fe.Tag() {
	case "required":
		return ErrMissingInputPath
	case "len":
		return fmt.Errorf("%w: %q", ErrInvalidDelimiter, fe.Value())
	case "canonical_field":
		return fmt.Errorf("%w: got %q", ErrUnknownSearchField, fe.Value())
	case "min":
		return fmt.Errorf("%w: %s", ErrEmptySearchField, fe.Field())
	case "oneof":
		if strings.HasPrefix(fe.StructField(), "LogLevel") {
			return fmt.Errorf("%w: got %q", ErrInvalidLogLevel, fe.Value())
		}

		return fmt.Errorf("%w: got %q", ErrInvalidOutputFormat, fe.Value())
	default:
		return fmt.Errorf("%s failed %q validation", fe.Field(), fe.Tag())
	}
}

// OutputPath returns the configured output path or the default for Type.
func (c *Config) OutputPath() string {
	if c.Output != "" {
		return c.Output
	}

	return serializer.DefaultPath(c.Type)
}

// Comma returns the delimiter as a rune.
func (c *Config) Comma() rune {
	for _, r := range c.Delimiter {
		return r
	}

	return ','
}

// SearchFields returns the search field names in sorted order.
func (c *Config) SearchFields() []string {
	fields := make([]string, 0, len(c.Search))
	for f := range c.Search {
		fields = append(fields, f)
	}

	sort.Strings(fields)

	return fields
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Input: %s, Output: %s, Type: %s, SearchFields: %v}",
		c.Input,
		c.OutputPath(),
		c.Type,
		c.SearchFields(),
	)
}
