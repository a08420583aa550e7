package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"evosculpt/internal/evo"
	"evosculpt/internal/genotype"
	"evosculpt/internal/model"
	"evosculpt/internal/phenotype"
	"evosculpt/internal/sculpt"
	"evosculpt/internal/storage"
	"evosculpt/internal/studio"
)

type sessionConfig struct {
	GridSize       int
	MaxGridSize    int
	ImageSize      int
	Scale          float64
	Stitching      string
	Poles          string
	Seed           int64
	Fallback       string
	MaxHidden      int
	ConnectionProb float64
	Store          string
	DBPath         string
	Workers        int
	LogLevel       string
}

func defaultSessionConfig() sessionConfig {
	g := genotype.DefaultConfig()
	return sessionConfig{
		GridSize:       evo.DefaultGridSize,
		MaxGridSize:    evo.DefaultMaxGridSize,
		ImageSize:      phenotype.DefaultSize,
		Scale:          sculpt.DefaultScale,
		Stitching:      model.StitchPlane.String(),
		Poles:          sculpt.PoleRimFan.String(),
		Seed:           1,
		Fallback:       evo.FallbackWholePopulation.String(),
		MaxHidden:      g.MaxHidden,
		ConnectionProb: g.ConnectionProb,
		Store:          storage.DefaultStoreKind(),
		DBPath:         "evosculpt.db",
		LogLevel:       "info",
	}
}

// loadSessionConfig overlays the keys present in path onto the defaults.
// Files ending in .yaml or .yml are read as YAML, anything else as JSON.
func loadSessionConfig(path string) (sessionConfig, error) {
	cfg := defaultSessionConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	var raw map[string]any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if v, ok := asInt(raw["grid_size"]); ok {
		cfg.GridSize = v
	}
	if v, ok := asInt(raw["max_grid_size"]); ok {
		cfg.MaxGridSize = v
	}
	if v, ok := asInt(raw["image_size"]); ok {
		cfg.ImageSize = v
	}
	if v, ok := asFloat64(raw["scale"]); ok {
		cfg.Scale = v
	}
	if v, ok := asString(raw["stitching"]); ok {
		cfg.Stitching = v
	}
	if v, ok := asString(raw["poles"]); ok {
		cfg.Poles = v
	}
	if v, ok := asInt64(raw["seed"]); ok {
		cfg.Seed = v
	}
	if v, ok := asString(raw["fallback"]); ok {
		cfg.Fallback = v
	}
	if v, ok := asInt(raw["max_hidden"]); ok {
		cfg.MaxHidden = v
	}
	if v, ok := asFloat64(raw["connection_prob"]); ok {
		cfg.ConnectionProb = v
	}
	if v, ok := asString(raw["store"]); ok {
		cfg.Store = v
	}
	if v, ok := asString(raw["db_path"]); ok {
		cfg.DBPath = v
	}
	if v, ok := asInt(raw["workers"]); ok {
		cfg.Workers = v
	}
	if v, ok := asString(raw["log_level"]); ok {
		cfg.LogLevel = v
	}
	return cfg, nil
}

func (c sessionConfig) studioConfig(store storage.Store, logger *slog.Logger) (studio.Config, error) {
	stitching, err := model.ParseStitchingMode(c.Stitching)
	if err != nil {
		return studio.Config{}, err
	}
	poles, err := sculpt.ParsePoleMode(c.Poles)
	if err != nil {
		return studio.Config{}, err
	}
	fallback, err := evo.ParseFallbackPolicy(c.Fallback)
	if err != nil {
		return studio.Config{}, err
	}
	g := genotype.DefaultConfig()
	g.MaxHidden = c.MaxHidden
	g.ConnectionProb = c.ConnectionProb
	return studio.Config{
		GridSize:    c.GridSize,
		MaxGridSize: c.MaxGridSize,
		Seed:        c.Seed,
		Fallback:    fallback,
		ImageSize:   c.ImageSize,
		Scale:       c.Scale,
		Stitching:   stitching,
		Poles:       poles,
		Workers:     c.Workers,
		Genotype:    g,
		Store:       store,
		Logger:      logger,
	}, nil
}

func parseLogLevel(name string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", name)
	}
	return level, nil
}

func asString(v any) (string, bool) {
	s, ok := v.(string)
	return s, ok
}

func asInt(v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case float64:
		return int(x), true
	default:
		return 0, false
	}
}

func asInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	default:
		return 0, false
	}
}

func asFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	default:
		return 0, false
	}
}

func overrideFromFlags(cfg *sessionConfig, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "grid":
			cfg.GridSize = v.(int)
		case "max-grid":
			cfg.MaxGridSize = v.(int)
		case "size":
			cfg.ImageSize = v.(int)
		case "scale":
			cfg.Scale = v.(float64)
		case "mode":
			cfg.Stitching = v.(string)
		case "poles":
			cfg.Poles = v.(string)
		case "seed":
			cfg.Seed = v.(int64)
		case "fallback":
			cfg.Fallback = v.(string)
		case "workers":
			cfg.Workers = v.(int)
		case "store":
			cfg.Store = v.(string)
		case "db-path":
			cfg.DBPath = v.(string)
		case "log-level":
			cfg.LogLevel = v.(string)
		}
	}
}
