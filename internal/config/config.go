// Package config loads the canopy configuration file.
package config

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/canopy/pkg/collision"
	"github.com/aretw0/canopy/pkg/command"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the project directory when --config is not given.
const DefaultFile = "canopy.yaml"

// Store backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
)

// Config is the root of canopy.yaml.
type Config struct {
	LogLevel  string          `yaml:"logLevel" json:"logLevel" validate:"omitempty,oneof=debug info warn warning error"`
	History   HistoryConfig   `yaml:"history" json:"history"`
	Hooks     HooksConfig     `yaml:"hooks" json:"hooks"`
	Collision CollisionConfig `yaml:"collision" json:"collision"`
	Store     StoreConfig     `yaml:"store" json:"store"`
	HTTP      HTTPConfig      `yaml:"http" json:"http"`
	// Catalog is an optional YAML file of extra element types.
	Catalog string `yaml:"catalog" json:"catalog"`
}

type HistoryConfig struct {
	Max  int `yaml:"max" json:"max" validate:"gte=0"`
	Trim int `yaml:"trim" json:"trim" validate:"gte=0,ltefield=Max"`
}

type HooksConfig struct {
	// FilterCacheSize enables memoized filters when positive.
	FilterCacheSize int `yaml:"filterCacheSize" json:"filterCacheSize" validate:"gte=0"`
}

type CollisionConfig struct {
	MinIntersectionRatio float64 `yaml:"minIntersectionRatio" json:"minIntersectionRatio" validate:"gt=0,lte=1"`
}

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Backend string        `yaml:"backend" json:"backend" validate:"oneof=memory file redis sqlite"`
	Path    string        `yaml:"path" json:"path"`
	LockTTL time.Duration `yaml:"lockTTL" json:"lockTTL" validate:"gte=0"`
	Redis   RedisConfig   `yaml:"redis" json:"redis"`
	// EncryptionKeys are base64 AES-256 keys; the first encrypts, the rest only decrypt.
	EncryptionKeys []string `yaml:"encryptionKeys" json:"encryptionKeys" validate:"dive,base64"`
	// Redact lists prop keys (regular expressions) masked before saving.
	Redact []string `yaml:"redact" json:"redact"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr" json:"addr"`
	Password string        `yaml:"password" json:"password"`
	DB       int           `yaml:"db" json:"db" validate:"gte=0"`
	Prefix   string        `yaml:"prefix" json:"prefix"`
	TTL      time.Duration `yaml:"ttl" json:"ttl" validate:"gte=0"`
}

type HTTPConfig struct {
	Port int `yaml:"port" json:"port" validate:"gt=0,lte=65535"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		LogLevel: "info",
		History: HistoryConfig{
			Max:  command.DefaultHistoryMax,
			Trim: command.DefaultHistoryTrim,
		},
		Collision: CollisionConfig{MinIntersectionRatio: collision.DefaultMinRatio},
		Store: StoreConfig{
			Backend: BackendFile,
			Path:    filepath.Join(".canopy", "documents"),
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "canopy:",
			},
		},
		HTTP: HTTPConfig{Port: 8080},
	}
}

// Load reads a configuration file (YAML or JSON) over the defaults.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}

	if strings.ToLower(filepath.Ext(path)) == ".json" {
		err = json.Unmarshal(data, &cfg)
	} else {
		err = yaml.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges and the store backend.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Store.Backend == BackendSQLite && c.Store.Path == "" {
		return errors.New("invalid config: store.path is required for sqlite")
	}
	return nil
}

// Keys decodes the encryption keys. The first is the active key.
func (s StoreConfig) Keys() (active []byte, fallback [][]byte, err error) {
	for i, raw := range s.EncryptionKeys {
		key, err := base64.StdEncoding.DecodeString(raw)
		if err != nil {
			return nil, nil, fmt.Errorf("encryption key %d: %w", i, err)
		}
		if len(key) != 32 {
			return nil, nil, fmt.Errorf("encryption key %d: must be 32 bytes, got %d", i, len(key))
		}
		if i == 0 {
			active = key
		} else {
			fallback = append(fallback, key)
		}
	}
	return active, fallback, nil
}

// Resolve makes relative store paths relative to dir.
func (c *Config) Resolve(dir string) {
	if c.Store.Path != "" && c.Store.Path != ":memory:" && !filepath.IsAbs(c.Store.Path) {
		c.Store.Path = filepath.Join(dir, c.Store.Path)
	}
	if c.Catalog != "" && !filepath.IsAbs(c.Catalog) {
		c.Catalog = filepath.Join(dir, c.Catalog)
	}
}
