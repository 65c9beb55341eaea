package config

import (
	"context"
	"fmt"
	"math"
	"time"

	"tilecoder/collision"
	tileerrors "tilecoder/errors"
	"tilecoder/hashing"
	"tilecoder/tiling"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	MemoryKindCollision = "collision"
	MemoryKindRaw       = "raw"
)

// OuterConfig is the file envelope: a kind selector and its definition.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

// TilingConfig holds the tiling parameters of one problem, plus a few knobs for
// the sampling driver in main. Viper lowercases every key it reads, so the yaml
// tags are lowercase too.
type TilingConfig struct {
	// NumTilings is the number of indices produced per state.
	NumTilings int `yaml:"numtilings"`
	// Memory selects between a collision table and raw hashing.
	Memory MemoryConfig `yaml:"memory"`
	// Inputs describes each float variable, in order.
	Inputs []InputConfig `yaml:"inputs"`
	// Samples and Seed drive the sampler in main.
	Samples int   `yaml:"samples"`
	Seed    int64 `yaml:"seed"`
	// Deadline is a fixed duration bounding a run.
	Deadline map[string]string `yaml:"deadline"`
}

type MemoryConfig struct {
	Kind   string `yaml:"kind"`
	Size   int    `yaml:"size"`
	Safety string `yaml:"safety"`
}

// InputConfig is one float variable: the range it is sampled from and its wrap
// width, a whole number of tile units (zero for a non-periodic variable). Values
// are in tile units; scale them before tiling.
type InputConfig struct {
	Name      string  `yaml:"name"`
	Min       float64 `yaml:"min"`
	Max       float64 `yaml:"max"`
	WrapWidth float64 `yaml:"wrapwidth"`
}

// FromYaml reads the envelope with viper, then decodes its def as a TilingConfig.
func FromYaml(path string) (*TilingConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, err
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != "tiling" {
		return nil, fmt.Errorf("%w: config kind %q", tileerrors.ErrConfiguration, outerConfig.Kind)
	}

	var spec []byte
	if spec, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := &TilingConfig{}
	if err = yaml.Unmarshal(spec, innerConfig); err != nil {
		return nil, err
	}

	if err = innerConfig.Validate(); err != nil {
		return nil, err
	}
	return innerConfig, nil
}

// Validate checks everything that can be checked without building the memory.
func (cfg *TilingConfig) Validate() error {
	if cfg.NumTilings <= 0 {
		return fmt.Errorf("%w: got %d", tileerrors.ErrInvalidNumTilings, cfg.NumTilings)
	}
	if len(cfg.Inputs) > tiling.MaxNumFloats {
		return fmt.Errorf("%w: %d inputs", tileerrors.ErrTooManyFloats, len(cfg.Inputs))
	}
	for _, in := range cfg.Inputs {
		if in.Max < in.Min {
			return fmt.Errorf("%w: input %q has max below min", tileerrors.ErrConfiguration, in.Name)
		}
		if in.WrapWidth < 0 || math.IsInf(in.WrapWidth, 0) || in.WrapWidth != math.Trunc(in.WrapWidth) {
			return fmt.Errorf("%w: input %q", tileerrors.ErrInvalidWrapWidth, in.Name)
		}
	}
	if cfg.Memory.Size != 0 && !hashing.IsPowerOfTwo(cfg.Memory.Size) {
		return fmt.Errorf("%w: memory size %d", tileerrors.ErrNotPowerOfTwo, cfg.Memory.Size)
	}
	switch cfg.Memory.Kind {
	case MemoryKindCollision:
		if _, err := collision.ParseSafety(cfg.safety()); err != nil {
			return err
		}
	case MemoryKindRaw:
	default:
		return fmt.Errorf("%w: %q", tileerrors.ErrUnknownMemoryKind, cfg.Memory.Kind)
	}
	if cfg.Samples < 0 {
		return fmt.Errorf("%w: negative sample count", tileerrors.ErrConfiguration)
	}
	if _, err := cfg.runTimeout(); err != nil {
		return err
	}
	return nil
}

func (cfg *TilingConfig) safety() string {
	if cfg.Memory.Safety == "" {
		return collision.DefaultSafety.String()
	}
	return cfg.Memory.Safety
}

func (cfg *TilingConfig) size() int {
	if cfg.Memory.Size == 0 {
		return collision.DefaultSize
	}
	return cfg.Memory.Size
}

// NewMemory builds the configured memory. A collision table is returned as
// *collision.Table so callers can read its stats.
func (cfg *TilingConfig) NewMemory() (tiling.Memory, error) {
	switch cfg.Memory.Kind {
	case MemoryKindCollision:
		safety, err := collision.ParseSafety(cfg.safety())
		if err != nil {
			return nil, err
		}
		table, err := collision.New(cfg.size(), collision.WithSafety(safety))
		if err != nil {
			return nil, err
		}
		return table, nil
	case MemoryKindRaw:
		raw, err := tiling.NewRaw(cfg.size())
		if err != nil {
			return nil, err
		}
		return raw, nil
	}
	return nil, fmt.Errorf("%w: %q", tileerrors.ErrUnknownMemoryKind, cfg.Memory.Kind)
}

// WrapWidths returns the inputs' wrap widths, or nil if no input wraps.
func (cfg *TilingConfig) WrapWidths() []float64 {
	wraps := false
	widths := make([]float64, len(cfg.Inputs))
	for i, in := range cfg.Inputs {
		widths[i] = in.WrapWidth
		wraps = wraps || in.WrapWidth != 0
	}
	if !wraps {
		return nil
	}
	return widths
}

// NewCoder builds the memory and a coder over it.
func (cfg *TilingConfig) NewCoder() (*tiling.Coder, error) {
	memory, err := cfg.NewMemory()
	if err != nil {
		return nil, err
	}
	return tiling.NewCoder(cfg.NumTilings, memory, cfg.WrapWidths())
}

// runTimeout parses deadline.duration. Zero means the run is unbounded.
func (cfg *TilingConfig) runTimeout() (time.Duration, error) {
	val, ok := cfg.Deadline["duration"]
	if !ok {
		return 0, nil
	}
	timeout, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("%w: deadline: %v", tileerrors.ErrConfiguration, err)
	}
	if timeout <= 0 {
		return 0, fmt.Errorf("%w: deadline %s is not positive", tileerrors.ErrConfiguration, val)
	}
	return timeout, nil
}

// WithDeadline derives the run's context from ctx, bounded by deadline.duration
// when one is configured. The caller must call the returned cancel.
func (cfg *TilingConfig) WithDeadline(ctx context.Context) (context.Context, context.CancelFunc, error) {
	timeout, err := cfg.runTimeout()
	if err != nil {
		return nil, nil, err
	}
	if timeout == 0 {
		runCtx, cancel := context.WithCancel(ctx)
		return runCtx, cancel, nil
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	return runCtx, cancel, nil
}
