// Package model loads the model configuration artifact and runs inference
// against the model file.
package model

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrConfigValidation indicates a required configuration field is absent.
var ErrConfigValidation = errors.New("model config validation failed")

// InputShape declares the spatial shape the model expects images in.
type InputShape struct {
	Height   int `json:"height" yaml:"height"`
	Width    int `json:"width" yaml:"width"`
	Channels int `json:"channels" yaml:"channels"`
}

// ONNXNames maps pipeline inputs/outputs to graph node names. All fields
// have defaults; only models exported with custom names need to set them.
type ONNXNames struct {
	FeaturesInput string `json:"features_input" yaml:"features_input"`
	ImageInput    string `json:"image_input" yaml:"image_input"`
	Output        string `json:"output" yaml:"output"`
}

// Config is the model configuration artifact. It is loaded once and
// immutable for the duration of a run.
type Config struct {
	InputShape InputShape `json:"input_shape" yaml:"input_shape"`

	// Features lists the numeric feature columns the model consumes, in
	// its expected input order.
	Features []string `json:"features" yaml:"features"`

	// ClassNames defines the model vocabulary: position i names the class
	// scored by output column i.
	ClassNames []string `json:"class_names" yaml:"class_names"`

	ONNX ONNXNames `json:"onnx" yaml:"onnx"`
}

// LoadConfig reads and validates a YAML model configuration.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse model config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Validate checks that every required field is present.
func (c *Config) Validate() error {
	if c.InputShape.Height <= 0 || c.InputShape.Width <= 0 {
		return fmt.Errorf("%w: input_shape height/width missing or invalid", ErrConfigValidation)
	}
	if c.InputShape.Channels != 1 && c.InputShape.Channels != 3 {
		return fmt.Errorf("%w: input_shape channels must be 1 or 3, got %d",
			ErrConfigValidation, c.InputShape.Channels)
	}
	if len(c.Features) == 0 {
		return fmt.Errorf("%w: features list missing", ErrConfigValidation)
	}
	if len(c.ClassNames) == 0 {
		return fmt.Errorf("%w: class_names list missing", ErrConfigValidation)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.ONNX.FeaturesInput == "" {
		c.ONNX.FeaturesInput = "features"
	}
	if c.ONNX.ImageInput == "" {
		c.ONNX.ImageInput = "image"
	}
	if c.ONNX.Output == "" {
		c.ONNX.Output = "scores"
	}
}
