// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package config loads extraction settings: embedded defaults overlaid
// with an optional user YAML file, then validated.
package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultConfigYAML []byte

// EnvConfigPath names the environment variable holding a config file path.
const EnvConfigPath = "APIEXTRACT_CONFIG"

// MaxConfigFileSize bounds the size of a user config file (1MB).
const MaxConfigFileSize = 1024 * 1024

// ErrInvalidConfig indicates the configuration failed to parse or validate.
var ErrInvalidConfig = errors.New("invalid configuration")

var configTracer = otel.Tracer("apiextract.config")

// Config holds every tunable of an extraction run.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type Config struct {
	Marker       MarkerConfig       `yaml:"marker" validate:"required"`
	Sources      SourcesConfig      `yaml:"sources" validate:"required"`
	Extraction   ExtractionConfig   `yaml:"extraction" validate:"required"`
	Cache        CacheConfig        `yaml:"cache" validate:"required"`
	ContentTypes ContentTypesConfig `yaml:"content_types" validate:"required"`
}

// MarkerConfig names the comment markers that flag an API declaration.
type MarkerConfig struct {
	// Tag is the JSDoc tag, without "@".
	Tag string `yaml:"tag" validate:"required,excludesall=@"`

	// Comment is the word of the `[word] text` comment line form.
	Comment string `yaml:"comment" validate:"required,excludesall=[]"`
}

// SourcesConfig controls input discovery and module resolution.
type SourcesConfig struct {
	// Extensions are the recognized source file suffixes.
	Extensions []string `yaml:"extensions" validate:"required,min=1,dive,startswith=."`

	// ExcludeDirs are directory names never entered during discovery.
	ExcludeDirs []string `yaml:"exclude_dirs" validate:"dive,required"`

	// ModuleRoots are the directories non-relative specifiers resolve
	// against. Relative entries in a config file are relative to that file.
	ModuleRoots []string `yaml:"module_roots" validate:"dive,required"`

	// MaxFileSizeBytes is the largest source file parsed.
	MaxFileSizeBytes int64 `yaml:"max_file_size_bytes" validate:"min=1"`
}

// ExtractionConfig controls type expansion.
type ExtractionConfig struct {
	// BinaryTypes are reference names emitted as scalars.
	BinaryTypes []string `yaml:"binary_types" validate:"dive,required"`

	// MaxDepth bounds nested declaration expansions.
	MaxDepth int `yaml:"max_depth" validate:"min=1,max=1024"`
}

// CacheConfig sizes the per-run file cache.
type CacheConfig struct {
	FileCacheSize  int `yaml:"file_cache_size" validate:"min=1"`
	PreloadWorkers int `yaml:"preload_workers" validate:"min=1,max=256"`
}

// ContentTypesConfig holds the Content-Type values implied by call flags.
type ContentTypesConfig struct {
	// URLEncoded is used for `{ urlencoded: true }`.
	URLEncoded string `yaml:"urlencoded" validate:"required"`

	// Form is used for `{ form: true }`.
	Form string `yaml:"form" validate:"required"`
}

var (
	defaultConfigMu      sync.RWMutex
	defaultConfigOnce    sync.Once
	cachedDefaultConfig  *Config
	defaultConfigLoadErr error
)

// Default returns the embedded configuration, loaded once and cached.
//
// Thread Safety: Safe for concurrent use via sync.Once.
func Default(ctx context.Context) (*Config, error) {
	defaultConfigMu.RLock()
	if cachedDefaultConfig != nil || defaultConfigLoadErr != nil {
		cfg, err := cachedDefaultConfig, defaultConfigLoadErr
		defaultConfigMu.RUnlock()
		return cfg, err
	}
	defaultConfigMu.RUnlock()

	defaultConfigMu.Lock()
	defer defaultConfigMu.Unlock()
	defaultConfigOnce.Do(func() {
		cachedDefaultConfig, defaultConfigLoadErr = Load(ctx, nil)
	})
	return cachedDefaultConfig, defaultConfigLoadErr
}

// ResetDefault clears the cached default configuration for tests.
func ResetDefault() {
	defaultConfigMu.Lock()
	defer defaultConfigMu.Unlock()
	cachedDefaultConfig = nil
	defaultConfigLoadErr = nil
	defaultConfigOnce = sync.Once{}
}

// Load builds a Config from the embedded defaults overlaid with overrides.
//
// Description:
//
//	The embedded defaults are decoded first; overrides, when non-empty,
//	are decoded onto the same value, so only the keys present in
//	overrides change. Lists are replaced, not merged. The result is
//	validated.
//
// Inputs:
//
//	ctx - Context for tracing.
//	overrides - User YAML. May be nil.
//
// Outputs:
//
//	*Config - The validated configuration.
//	error - Wraps ErrInvalidConfig on parse or validation failure.
func Load(ctx context.Context, overrides []byte) (*Config, error) {
	_, span := configTracer.Start(ctx, "config.Load")
	defer span.End()

	if len(overrides) > MaxConfigFileSize {
		return nil, fmt.Errorf("%w: config exceeds maximum size (%d > %d)", ErrInvalidConfig, len(overrides), MaxConfigFileSize)
	}

	var cfg Config
	if err := yaml.Unmarshal(defaultConfigYAML, &cfg); err != nil {
		return nil, fmt.Errorf("%w: parsing embedded defaults: %w", ErrInvalidConfig, err)
	}
	if len(overrides) > 0 {
		if err := yaml.Unmarshal(overrides, &cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing YAML: %w", ErrInvalidConfig, err)
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	span.SetAttributes(
		attribute.String("marker_tag", cfg.Marker.Tag),
		attribute.Int("extensions", len(cfg.Sources.Extensions)),
		attribute.Int("module_roots", len(cfg.Sources.ModuleRoots)),
		attribute.Int("max_depth", cfg.Extraction.MaxDepth),
	)
	return &cfg, nil
}

// LoadFile loads a user config file over the defaults.
//
// Relative module roots are made absolute against the directory of path.
func LoadFile(ctx context.Context, path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if info.Size() > MaxConfigFileSize {
		return nil, fmt.Errorf("%w: %s exceeds maximum size (%d > %d)", ErrInvalidConfig, path, info.Size(), MaxConfigFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	cfg, err := Load(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	base := filepath.Dir(path)
	for i, root := range cfg.Sources.ModuleRoots {
		if !filepath.IsAbs(root) {
			cfg.Sources.ModuleRoots[i] = filepath.Join(base, root)
		}
	}

	slog.Info("config loaded",
		slog.String("path", path),
		slog.Int("module_roots", len(cfg.Sources.ModuleRoots)),
		slog.Int("extensions", len(cfg.Sources.Extensions)),
	)
	return cfg, nil
}

// Resolve loads the config at path, or at $APIEXTRACT_CONFIG when path is
// empty, or the embedded defaults when neither is set.
func Resolve(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path == "" {
		return Default(ctx)
	}
	return LoadFile(ctx, path)
}

// LoadDotEnv loads environment files into the process environment.
// Missing files are ignored; variables already set are kept.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	var existing []string
	for _, p := range paths {
		if _, err := os.Stat(p); err == nil {
			existing = append(existing, p)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("loading env files: %w", err)
	}
	return nil
}

var (
	validatorOnce   sync.Once
	structValidator *validator.Validate
)

// validate checks the struct tags of cfg.
func validate(cfg *Config) error {
	validatorOnce.Do(func() {
		structValidator = validator.New(validator.WithRequiredStructEnabled())
	})
	if err := structValidator.Struct(cfg); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidConfig, first.Namespace(), first.Tag())
		}
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
