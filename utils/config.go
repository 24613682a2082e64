// Package utils carries the configuration and reporting helpers shared by
// the command-line tools.
package utils

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Config holds training configuration
type Config struct {
	Architecture []int
	BatchSize    int
	LearnRate    float64
	MaxEpochs    int
	Measure      string
}

// ParseArchitecture parses a whitespace-separated architecture string,
// for example "784 128 10", into layer widths.
func ParseArchitecture(archStr string) ([]int, error) {
	archParts := strings.Fields(archStr)
	if len(archParts) == 0 {
		return nil, errors.New("empty architecture")
	}
	arch := make([]int, len(archParts))
	for i, s := range archParts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing layer width %q", s)
		}
		arch[i] = n
	}
	return arch, nil
}

// ValidateConfig validates training configuration
func ValidateConfig(config *Config) error {
	if len(config.Architecture) < 2 {
		return errors.New("architecture must have at least 2 layers (input and output)")
	}

	for _, w := range config.Architecture {
		if w < 1 {
			return errors.Errorf("layer width must be positive, got %d", w)
		}
	}

	if config.BatchSize <= 0 {
		return errors.New("batch size must be positive")
	}

	if config.LearnRate <= 0 {
		return errors.New("learning rate must be positive")
	}

	if config.MaxEpochs <= 0 {
		return errors.New("max epochs must be positive")
	}

	return nil
}
