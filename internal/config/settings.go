package config

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/pelletier/go-toml"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"heightfield/internal/noise"
	"heightfield/internal/terrain"
)

//go:embed settings.schema.json
var settingsSchema string

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiledSchema, schemaErr = jsonschema.CompileString("settings.schema.json", settingsSchema)
	})
	return compiledSchema, schemaErr
}

// Extent is a rows by cols size.
type Extent struct {
	Rows int `toml:"rows" yaml:"rows" json:"rows"`
	Cols int `toml:"cols" yaml:"cols" json:"cols"`
}

// Settings describes one terrain generation run as stored in a config file.
type Settings struct {
	Map        Extent  `toml:"map" yaml:"map" json:"map"`
	Chunk      Extent  `toml:"chunk" yaml:"chunk" json:"chunk"`
	Seed       *int64  `toml:"seed,omitempty" yaml:"seed,omitempty" json:"seed,omitempty"`
	Noise      string  `toml:"noise" yaml:"noise" json:"noise"`
	Frequency  float64 `toml:"frequency" yaml:"frequency" json:"frequency"`
	Amplitude  float64 `toml:"amplitude" yaml:"amplitude" json:"amplitude"`
	Octaves    int     `toml:"octaves" yaml:"octaves" json:"octaves"`
	Lacunarity float64 `toml:"lacunarity" yaml:"lacunarity" json:"lacunarity"`
	Gain       float64 `toml:"gain" yaml:"gain" json:"gain"`
	Workers    int     `toml:"workers" yaml:"workers" json:"workers"`
	Capacity   int     `toml:"capacity" yaml:"capacity" json:"capacity"`
}

// Default returns a 600x600 map in 60x60 chunks sampled at 1/100 with one
// octave. Workers and capacity come from the process-wide defaults.
func Default() Settings {
	return Settings{
		Map:        Extent{Rows: 600, Cols: 600},
		Chunk:      Extent{Rows: 60, Cols: 60},
		Noise:      noise.DefaultBackend,
		Frequency:  1.0 / 100,
		Amplitude:  1,
		Octaves:    1,
		Lacunarity: 2,
		Gain:       0.5,
		Workers:    GetWorkers(),
		Capacity:   GetCapacity(),
	}
}

// Load reads a .toml, .yaml or .yml file. Keys absent from the file keep
// their Default values. The result is validated before it is returned.
func Load(path string) (Settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, err
	}
	var doc map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		tree, err := toml.LoadBytes(raw)
		if err != nil {
			return Settings{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		doc = tree.ToMap()
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return Settings{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
	default:
		return Settings{}, fmt.Errorf("%s: unsupported config format %q", filepath.Base(path), ext)
	}
	return decode(doc)
}

// decode overlays doc on Default after checking it against the schema.
func decode(doc map[string]any) (Settings, error) {
	if doc == nil {
		doc = map[string]any{}
	}
	encoded, err := json.Marshal(doc)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := validateJSON(encoded); err != nil {
		return Settings{}, err
	}
	s := Default()
	if err := json.Unmarshal(encoded, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return s, s.Validate()
}

func validateJSON(encoded []byte) error {
	sch, err := schema()
	if err != nil {
		return fmt.Errorf("compile settings schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(encoded, &v); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return &terrain.ConfigError{Field: "settings", Reason: err.Error()}
	}
	return nil
}

// Validate checks s against the settings schema and the known noise backends.
func (s Settings) Validate() error {
	encoded, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := validateJSON(encoded); err != nil {
		return err
	}
	if !slices.Contains(noise.Backends(), s.Noise) {
		return &terrain.ConfigError{Field: "noise", Reason: fmt.Sprintf("unknown backend %q", s.Noise)}
	}
	return nil
}

// Fractal returns the octave parameters.
func (s Settings) Fractal() terrain.Fractal {
	return terrain.Fractal{
		Frequency:  s.Frequency,
		Amplitude:  s.Amplitude,
		Octaves:    s.Octaves,
		Lacunarity: s.Lacunarity,
		Gain:       s.Gain,
	}
}

// Options converts s into builder options. Logging, profiling and the shuffle
// source are left for the caller.
func (s Settings) Options() terrain.Options {
	return terrain.Options{
		Map:     terrain.Shape{Rows: s.Map.Rows, Cols: s.Map.Cols},
		Chunk:   terrain.Shape{Rows: s.Chunk.Rows, Cols: s.Chunk.Cols},
		Seed:    s.Seed,
		Fractal: s.Fractal(),
		Workers: s.Workers,
		Noise:   s.Noise,
	}
}
