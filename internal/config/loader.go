package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

type SourceKind string

const (
	SourceDefault SourceKind = "default"
	SourceFile    SourceKind = "file"
	SourceEnv     SourceKind = "env"
)

type Source struct {
	Kind   SourceKind
	Name   string // for default/env
	File   string
	Line   int
	Column int
}

type LoadResult struct {
	Config  *Config
	Sources map[string]Source // dotted key -> last writer
	Files   []string          // loaded files, includes before includers
}

// EnvFileName is the optional dotenv file next to the config file.
const EnvFileName = "env"

func DefaultConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "regionsel", "config.yaml"), nil
}

// Load reads the configuration from the standard location.
func Load() (*Config, error) {
	res, err := LoadWithSources()
	if err != nil {
		return nil, err
	}
	return res.Config, nil
}

// LoadWithSources is Load plus per-key provenance.
func LoadWithSources() (*LoadResult, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads path with its includes, then applies REGIONSEL_*
// overrides from the dotenv file beside it and from the process environment.
// A missing path yields the defaults.
func LoadFromPath(path string) (*LoadResult, error) {
	l := newFileLoader()
	raw := RawConfig{}

	if _, err := os.Stat(path); err == nil {
		raw, err = l.load(path)
		if err != nil {
			return nil, err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}

	cfg := BuildEffectiveConfig(raw)

	env, err := readEnv(filepath.Join(filepath.Dir(path), EnvFileName))
	if err != nil {
		return nil, err
	}
	if err := applyEnv(cfg, env, l.sources); err != nil {
		return nil, l.sources.annotate(err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, l.sources.annotate(err)
	}

	return &LoadResult{Config: cfg, Sources: l.sources, Files: l.files}, nil
}

// sourceMap records the last writer of every dotted key.
type sourceMap map[string]Source

// walk records every key under node as written by file.
func (m sourceMap) walk(node *yaml.Node, file, prefix string) {
	if node == nil || node.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i].Value, node.Content[i+1]
		if prefix != "" {
			key = prefix + "." + key
		}
		m[key] = Source{Kind: SourceFile, File: file, Line: val.Line, Column: val.Column}
		m.walk(val, file, key)
	}
}

// setEnv records key as overridden by the environment variable name.
func (m sourceMap) setEnv(key, name string) {
	m[key] = Source{Kind: SourceEnv, Name: name}
}

// annotate attaches the recorded source of a ValidationError's key.
func (m sourceMap) annotate(err error) error {
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Path == "" {
		return err
	}
	if src, ok := m[verr.Path]; ok && verr.Source.Kind == "" {
		verr.Source = src
	}
	return err
}

// fileLoader merges a config file with everything it includes. Each file is
// read at most once; includes apply before the file that names them.
type fileLoader struct {
	sources sourceMap
	files   []string
	done    map[string]bool
	chain   []string
}

func newFileLoader() *fileLoader {
	return &fileLoader{sources: sourceMap{}, done: map[string]bool{}}
}

func (l *fileLoader) load(path string) (RawConfig, error) {
	file, err := resolveFile(path)
	if err != nil {
		return RawConfig{}, err
	}
	if i := slices.Index(l.chain, file); i >= 0 {
		cycle := append(slices.Clone(l.chain[i:]), file)
		return RawConfig{}, fmt.Errorf("include cycle detected: %s", strings.Join(cycle, " -> "))
	}
	if l.done[file] {
		return RawConfig{}, nil
	}
	l.done[file] = true

	root, own, err := parseFile(file)
	if err != nil {
		return RawConfig{}, err
	}

	l.chain = append(l.chain, file)
	defer func() { l.chain = l.chain[:len(l.chain)-1] }()

	merged := RawConfig{}
	for _, inc := range includeNodes(root) {
		targets, err := includeTargets(file, inc.Value)
		if err != nil {
			return RawConfig{}, fmt.Errorf("%s:%d:%d: include %q: %w", file, inc.Line, inc.Column, inc.Value, err)
		}
		for _, target := range targets {
			sub, err := l.load(target)
			if err != nil {
				return RawConfig{}, err
			}
			merged = merged.merge(sub)
		}
	}

	l.sources.walk(root, file, "")
	l.files = append(l.files, file)
	return merged.merge(own), nil
}

// parseFile returns the root mapping of file and its strict decoding.
func parseFile(file string) (*yaml.Node, RawConfig, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, RawConfig{}, fmt.Errorf("%s: failed to read: %w", file, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, RawConfig{}, fmt.Errorf("%s: failed to parse yaml: %w", file, err)
	}

	var raw RawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil && err != io.EOF {
		return nil, RawConfig{}, fmt.Errorf("%s: %w", file, err)
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	return root, raw, nil
}

// includeNodes returns the scalar entries of the top-level include key.
func includeNodes(root *yaml.Node) []*yaml.Node {
	if root == nil || root.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if root.Content[i].Value != "include" {
			continue
		}
		val := root.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			return []*yaml.Node{val}
		case yaml.SequenceNode:
			var out []*yaml.Node
			for _, item := range val.Content {
				if item.Kind == yaml.ScalarNode {
					out = append(out, item)
				}
			}
			return out
		}
		return nil
	}
	return nil
}

// includeTargets resolves an include relative to the including file. A
// directory expands to its *.yaml and *.yml files in name order.
func includeTargets(from, include string) ([]string, error) {
	if include == "" {
		return nil, errors.New("path is empty")
	}
	if include == "~" || strings.HasPrefix(include, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		include = filepath.Join(home, strings.TrimPrefix(include[1:], "/"))
	}
	if !filepath.IsAbs(include) {
		include = filepath.Join(filepath.Dir(from), include)
	}

	info, err := os.Stat(include)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{include}, nil
	}

	entries, err := os.ReadDir(include)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, ent := range entries {
		switch strings.ToLower(filepath.Ext(ent.Name())) {
		case ".yaml", ".yml":
			if !ent.IsDir() {
				out = append(out, filepath.Join(include, ent.Name()))
			}
		}
	}
	return out, nil
}

// resolveFile returns the absolute, symlink-free form of path when it can.
func resolveFile(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %q: %w", path, err)
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real, nil
	}
	return abs, nil
}
