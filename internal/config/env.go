package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "REGIONSEL_"

// envOverride maps an environment variable onto a config path.
type envOverride struct {
	name  string
	path  string
	apply func(cfg *Config, value string) error
}

var envOverrides = []envOverride{
	{name: "BACKEND", path: "render.backend", apply: func(cfg *Config, v string) error {
		cfg.Render.Backend = v
		return nil
	}},
	{name: "FPS", path: "render.fps", apply: func(cfg *Config, v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("fps must be an integer")
		}
		cfg.Render.FPS = n
		return nil
	}},
	{name: "LOG_LEVEL", path: "log_level", apply: func(cfg *Config, v string) error {
		cfg.LogLevel = v
		return nil
	}},
	{name: "DISPLAY", path: "display", apply: func(cfg *Config, v string) error {
		cfg.Display = v
		return nil
	}},
	{name: "HOTKEY", path: "hotkey", apply: func(cfg *Config, v string) error {
		cfg.Hotkey = v
		return nil
	}},
	{name: "ON_SELECT", path: "on_select", apply: func(cfg *Config, v string) error {
		cfg.OnSelect = v
		return nil
	}},
}

// readEnv returns the REGIONSEL_* variables of the dotenv file at path
// overlaid with the process environment. A missing file is not an error.
func readEnv(path string) (map[string]string, error) {
	out := map[string]string{}

	if _, err := os.Stat(path); err == nil {
		fileEnv, err := godotenv.Read(path)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to parse env file: %w", path, err)
		}
		for k, v := range fileEnv {
			if strings.HasPrefix(k, EnvPrefix) {
				out[k] = v
			}
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			out[k] = v
		}
	}
	return out, nil
}

// applyEnv applies overrides from env and records them in sources.
func applyEnv(cfg *Config, env map[string]string, sources sourceMap) error {
	for _, o := range envOverrides {
		name := EnvPrefix + o.name
		value, ok := env[name]
		if !ok || strings.TrimSpace(value) == "" {
			continue
		}
		if err := o.apply(cfg, strings.TrimSpace(value)); err != nil {
			return &ValidationError{Path: o.path, Source: Source{Kind: SourceEnv, Name: name}, Err: err}
		}
		sources.setEnv(o.path, name)
	}
	return nil
}
