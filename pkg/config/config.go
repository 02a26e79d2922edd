// Package config provides YAML-based configuration loading with environment variable expansion.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Validator is an interface for configuration validation.
type Validator interface {
	Validate() error
}

// Load loads configuration from a YAML file with environment variable expansion.
// Keys absent from the file keep the values already in target.
func Load[T any](filename string, target *T) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", filename, err)
	}
	return Parse(data, filename, target)
}

// Parse decodes YAML data into target after expanding ${VAR} references and
// validates the result. name is only used in error messages.
func Parse[T any](data []byte, name string, target *T) error {
	expandedData := os.ExpandEnv(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), target); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", name, err)
	}
	return validate(target)
}

// LoadOptional behaves like Load but treats a missing file as empty, so
// target keeps its defaults. It reports whether the file was read.
func LoadOptional[T any](filename string, target *T) (bool, error) {
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return false, validate(target)
	}
	if err := Load(filename, target); err != nil {
		return false, err
	}
	return true, nil
}

func validate[T any](target *T) error {
	if validator, ok := any(target).(Validator); ok {
		if err := validator.Validate(); err != nil {
			return fmt.Errorf("config validation failed: %w", err)
		}
	}
	return nil
}
