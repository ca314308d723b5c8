package native

import (
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/wippyai/interop/errors"
)

var validate = validator.New()

// Config sizes the native heap.
type Config struct {
	// InitialSize is the committed heap size in bytes.
	InitialSize uint32 `json:"initial_size" validate:"required,gte=4096,ltefield=MaxSize" jsonschema:"description=Committed heap size in bytes,minimum=4096"`
	// MaxSize bounds heap growth. Addresses at or above MapBase are reserved for host mappings.
	MaxSize uint32 `json:"max_size" validate:"required,lte=2147483648" jsonschema:"description=Upper bound for heap growth in bytes,maximum=2147483648"`
	// GrowthStep is the minimum number of bytes added when the heap grows.
	GrowthStep uint32 `json:"growth_step" validate:"required,gte=4096" jsonschema:"description=Minimum growth increment in bytes,minimum=4096"`
	// MaxAllocation rejects any single allocation larger than this.
	MaxAllocation uint32 `json:"max_allocation" validate:"required,ltefield=MaxSize" jsonschema:"description=Largest single allocation in bytes"`
	// UseMmap backs the heap with an anonymous mapping outside the Go heap.
	UseMmap bool `json:"use_mmap" jsonschema:"description=Back the heap with an anonymous mmap where supported"`
}

// DefaultConfig returns a 1 MiB heap that may grow to 256 MiB.
func DefaultConfig() *Config {
	return &Config{
		InitialSize:   1 << 20,
		MaxSize:       256 << 20,
		GrowthStep:    64 << 10,
		MaxAllocation: 128 << 20,
		UseMmap:       true,
	}
}

// Validate checks the config constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.New(errors.PhaseConfig, errors.KindInvalidInput).
			GoType("native.Config").
			Detail("heap config").
			Cause(err).
			Build()
	}
	return nil
}

// LoadConfig reads a JSON config file. Missing fields take default values.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindNotFound, err, "read config")
	}
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(errors.PhaseConfig, errors.KindInvalidData, err, "parse config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
