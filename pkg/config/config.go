// Package config reads the per-language lemmatizer configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by Load.
const (
	EnvResources = "LEMMATA_RESOURCES"
	EnvConfig    = "LEMMATA_CONFIG"
	EnvFetchURL  = "LEMMATA_FETCH_URL"
)

// DefaultResources is used when neither the file nor the environment names a
// resources directory.
const DefaultResources = "resources"

// Analyzer selects the transducer backing a language.
type Analyzer string

const (
	AnalyzerTable  Analyzer = "table"
	AnalyzerKagome Analyzer = "kagome"
	AnalyzerNone   Analyzer = "none"
)

// DefaultLanguages are configured when the file lists none.
var DefaultLanguages = []string{"en", "de", "fr", "it", "nl", "es", "ja"}

// Language configures one language.
type Language struct {
	Code              string   `yaml:"code"`
	Dictionaries      string   `yaml:"dictionaries"`
	Analyzer          Analyzer `yaml:"analyzer"`
	Model             string   `yaml:"model"`
	DisableTransducer bool     `yaml:"disableTransducer"`
}

// Config is the top-level configuration file.
type Config struct {
	Resources string     `yaml:"resources"`
	FetchURL  string     `yaml:"fetchURL"`
	Languages []Language `yaml:"languages"`
}

// Load reads the YAML file at path, or the file named by LEMMATA_CONFIG when
// path is empty. With neither, the default configuration is returned.
// Environment overrides and defaults are applied in both cases.
func Load(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	c := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		c, err = Parse(data)
		if err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if v := os.Getenv(EnvResources); v != "" {
		c.Resources = v
	}
	if v := os.Getenv(EnvFetchURL); v != "" {
		c.FetchURL = v
	}
	if err := c.Normalize(); err != nil {
		return nil, err
	}
	return c, nil
}

// Parse decodes YAML without applying defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// Normalize fills in defaults and validates the configuration.
func (c *Config) Normalize() error {
	if c.Resources == "" {
		c.Resources = DefaultResources
	}
	if len(c.Languages) == 0 {
		for _, code := range DefaultLanguages {
			c.Languages = append(c.Languages, Language{Code: code})
		}
	}
	seen := make(map[string]bool, len(c.Languages))
	for i := range c.Languages {
		l := &c.Languages[i]
		l.Code = strings.ToLower(strings.TrimSpace(l.Code))
		if l.Code == "" {
			return fmt.Errorf("config: language %d has no code", i)
		}
		if seen[l.Code] {
			return fmt.Errorf("config: language %q listed twice", l.Code)
		}
		seen[l.Code] = true

		if l.Dictionaries == "" {
			l.Dictionaries = filepath.Join(c.Resources, "dictionaries", l.Code)
		}
		switch l.Analyzer {
		case "":
			if l.Code == "ja" {
				l.Analyzer = AnalyzerKagome
			} else {
				l.Analyzer = AnalyzerTable
			}
		case AnalyzerTable, AnalyzerKagome, AnalyzerNone:
		default:
			return fmt.Errorf("config: language %q: unknown analyzer %q", l.Code, l.Analyzer)
		}
		if l.Model == "" && l.Analyzer == AnalyzerTable {
			l.Model = filepath.Join(c.Resources, "lemmaModels", l.Code+".lookup")
		}
	}
	return nil
}

// Language returns the configuration for code.
func (c *Config) Language(code string) (Language, bool) {
	code = strings.ToLower(strings.TrimSpace(code))
	for _, l := range c.Languages {
		if l.Code == code {
			return l, true
		}
	}
	return Language{}, false
}

// Codes lists the configured language codes in file order.
func (c *Config) Codes() []string {
	out := make([]string, len(c.Languages))
	for i, l := range c.Languages {
		out[i] = l.Code
	}
	return out
}
