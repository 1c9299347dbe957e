package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// Config represents the tabsift configuration.
type Config struct {
	Filter    FilterConfig    `yaml:"filter"`
	Substring SubstringConfig `yaml:"substring"`
	Regex     RegexConfig     `yaml:"regex"`
	Fuzzy     FuzzyConfig     `yaml:"fuzzy"`
	Picker    PickerConfig    `yaml:"picker"`
	Log       LogConfig       `yaml:"log"`
}

// FilterConfig selects the matching mode and scoring layout.
type FilterConfig struct {
	Fuzzy        bool `yaml:"fuzzy"`         // Partial-ratio scoring, best first
	Regex        bool `yaml:"regex"`         // Pattern matching; overrides fuzzy
	FilterColumn int  `yaml:"filter_column"` // Designated match column (-1 = all)
	Workers      int  `yaml:"workers"`       // Scoring goroutines (1 = serial)
}

// SubstringConfig holds settings for plain fixed-string filtering.
type SubstringConfig struct {
	CaseSensitive bool   `yaml:"case_sensitive"`
	SortColumn    int    `yaml:"sort_column"` // -1 keeps source order
	Locale        string `yaml:"locale"`      // BCP 47 tag for collation
}

// RegexConfig holds regex-mode settings.
type RegexConfig struct {
	CaseInsensitive bool `yaml:"case_insensitive"`
	CacheSize       int  `yaml:"cache_size"` // Compiled patterns kept
}

// FuzzyConfig holds fuzzy-mode settings.
type FuzzyConfig struct {
	CaseSensitive bool `yaml:"case_sensitive"` // false folds case before scoring
}

// PickerConfig holds interactive picker settings.
type PickerConfig struct {
	DebounceMs int  `yaml:"debounce_ms"` // Delay before a keystroke re-filters
	ShowScores bool `yaml:"show_scores"` // Show the cached score per row
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // Log file path (empty = stderr)
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Filter: FilterConfig{
			Fuzzy:        true,
			Regex:        false,
			FilterColumn: -1,
			Workers:      1,
		},
		Substring: SubstringConfig{
			CaseSensitive: false,
			SortColumn:    -1,
			Locale:        "",
		},
		Regex: RegexConfig{
			CaseInsensitive: false,
			CacheSize:       128,
		},
		Fuzzy: FuzzyConfig{
			CaseSensitive: true,
		},
		Picker: PickerConfig{
			DebounceMs: 60,
			ShowScores: false,
		},
		Log: LogConfig{
			Level: "warn",
			File:  "",
		},
	}
}

// DefaultConfigFile returns $TABSIFT_CONFIG, or config.yaml under the
// default config directory.
func DefaultConfigFile() string {
	if path := os.Getenv("TABSIFT_CONFIG"); path != "" {
		return path
	}
	return DefaultPaths().ConfigFile()
}

// Load loads configuration from DefaultConfigFile.
func Load() (*Config, error) {
	return LoadFromFile(DefaultConfigFile())
}

// LoadFromFile loads configuration from the specified file.
// If the file doesn't exist, returns default configuration.
// Environment variable overrides are applied after file loading.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.ApplyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Save saves the configuration to DefaultConfigFile.
func (c *Config) Save() error {
	return c.SaveToFile(DefaultConfigFile())
}

// SaveToFile saves the configuration to the specified file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Get retrieves a configuration value by dot-separated key.
// For example: "filter.fuzzy" or "picker.debounce_ms"
func (c *Config) Get(key string) (string, error) {
	section, field, err := splitKey(key)
	if err != nil {
		return "", err
	}

	switch section {
	case "filter":
		return c.getFilterField(field)
	case "substring":
		return c.getSubstringField(field)
	case "regex":
		return c.getRegexField(field)
	case "fuzzy":
		return c.getFuzzyField(field)
	case "picker":
		return c.getPickerField(field)
	case "log":
		return c.getLogField(field)
	default:
		return "", fmt.Errorf("unknown section: %s", section)
	}
}

// Set sets a configuration value by dot-separated key.
func (c *Config) Set(key, value string) error {
	section, field, err := splitKey(key)
	if err != nil {
		return err
	}

	switch section {
	case "filter":
		return c.setFilterField(field, value)
	case "substring":
		return c.setSubstringField(field, value)
	case "regex":
		return c.setRegexField(field, value)
	case "fuzzy":
		return c.setFuzzyField(field, value)
	case "picker":
		return c.setPickerField(field, value)
	case "log":
		return c.setLogField(field, value)
	default:
		return fmt.Errorf("unknown section: %s", section)
	}
}

func splitKey(key string) (string, string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 {
		return "", "", errors.New("key must be in format 'section.key'")
	}
	return parts[0], parts[1], nil
}

func (c *Config) getFilterField(field string) (string, error) {
	switch field {
	case "fuzzy":
		return strconv.FormatBool(c.Filter.Fuzzy), nil
	case "regex":
		return strconv.FormatBool(c.Filter.Regex), nil
	case "filter_column":
		return strconv.Itoa(c.Filter.FilterColumn), nil
	case "workers":
		return strconv.Itoa(c.Filter.Workers), nil
	default:
		return "", fmt.Errorf("unknown field: filter.%s", field)
	}
}

func (c *Config) setFilterField(field, value string) error {
	switch field {
	case "fuzzy":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for fuzzy: %w", err)
		}
		c.Filter.Fuzzy = v
	case "regex":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for regex: %w", err)
		}
		c.Filter.Regex = v
	case "filter_column":
		v, err := parseColumn("filter_column", value)
		if err != nil {
			return err
		}
		c.Filter.FilterColumn = v
	case "workers":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for workers: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("invalid workers: must be at least 1")
		}
		c.Filter.Workers = v
	default:
		return fmt.Errorf("unknown field: filter.%s", field)
	}
	return nil
}

func (c *Config) getSubstringField(field string) (string, error) {
	switch field {
	case "case_sensitive":
		return strconv.FormatBool(c.Substring.CaseSensitive), nil
	case "sort_column":
		return strconv.Itoa(c.Substring.SortColumn), nil
	case "locale":
		return c.Substring.Locale, nil
	default:
		return "", fmt.Errorf("unknown field: substring.%s", field)
	}
}

func (c *Config) setSubstringField(field, value string) error {
	switch field {
	case "case_sensitive":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for case_sensitive: %w", err)
		}
		c.Substring.CaseSensitive = v
	case "sort_column":
		v, err := parseColumn("sort_column", value)
		if err != nil {
			return err
		}
		c.Substring.SortColumn = v
	case "locale":
		if !isValidLocale(value) {
			return fmt.Errorf("invalid locale: %s (must be a BCP 47 tag)", value)
		}
		c.Substring.Locale = value
	default:
		return fmt.Errorf("unknown field: substring.%s", field)
	}
	return nil
}

func (c *Config) getRegexField(field string) (string, error) {
	switch field {
	case "case_insensitive":
		return strconv.FormatBool(c.Regex.CaseInsensitive), nil
	case "cache_size":
		return strconv.Itoa(c.Regex.CacheSize), nil
	default:
		return "", fmt.Errorf("unknown field: regex.%s", field)
	}
}

func (c *Config) setRegexField(field, value string) error {
	switch field {
	case "case_insensitive":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for case_insensitive: %w", err)
		}
		c.Regex.CaseInsensitive = v
	case "cache_size":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for cache_size: %w", err)
		}
		if v < 1 {
			return fmt.Errorf("invalid cache_size: must be at least 1")
		}
		c.Regex.CacheSize = v
	default:
		return fmt.Errorf("unknown field: regex.%s", field)
	}
	return nil
}

func (c *Config) getFuzzyField(field string) (string, error) {
	switch field {
	case "case_sensitive":
		return strconv.FormatBool(c.Fuzzy.CaseSensitive), nil
	default:
		return "", fmt.Errorf("unknown field: fuzzy.%s", field)
	}
}

func (c *Config) setFuzzyField(field, value string) error {
	switch field {
	case "case_sensitive":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for case_sensitive: %w", err)
		}
		c.Fuzzy.CaseSensitive = v
	default:
		return fmt.Errorf("unknown field: fuzzy.%s", field)
	}
	return nil
}

func (c *Config) getPickerField(field string) (string, error) {
	switch field {
	case "debounce_ms":
		return strconv.Itoa(c.Picker.DebounceMs), nil
	case "show_scores":
		return strconv.FormatBool(c.Picker.ShowScores), nil
	default:
		return "", fmt.Errorf("unknown field: picker.%s", field)
	}
}

func (c *Config) setPickerField(field, value string) error {
	switch field {
	case "debounce_ms":
		v, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid value for debounce_ms: %w", err)
		}
		if v < 0 {
			return fmt.Errorf("invalid debounce_ms: must be non-negative")
		}
		// Clamp to [0, 1000]
		if v > 1000 {
			v = 1000
		}
		c.Picker.DebounceMs = v
	case "show_scores":
		v, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for show_scores: %w", err)
		}
		c.Picker.ShowScores = v
	default:
		return fmt.Errorf("unknown field: picker.%s", field)
	}
	return nil
}

func (c *Config) getLogField(field string) (string, error) {
	switch field {
	case "level":
		return c.Log.Level, nil
	case "file":
		return c.Log.File, nil
	default:
		return "", fmt.Errorf("unknown field: log.%s", field)
	}
}

func (c *Config) setLogField(field, value string) error {
	switch field {
	case "level":
		if !isValidLogLevel(value) {
			return fmt.Errorf("invalid level: %s (must be debug, info, warn, or error)", value)
		}
		c.Log.Level = value
	case "file":
		c.Log.File = value
	default:
		return fmt.Errorf("unknown field: log.%s", field)
	}
	return nil
}

func parseColumn(name, value string) (int, error) {
	v, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %w", name, err)
	}
	if v < -1 {
		return 0, fmt.Errorf("invalid %s: must be -1 or a column index", name)
	}
	return v, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Filter.FilterColumn < -1 {
		return errors.New("filter.filter_column must be >= -1")
	}

	if c.Filter.Workers < 1 {
		return errors.New("filter.workers must be >= 1")
	}

	if c.Substring.SortColumn < -1 {
		return errors.New("substring.sort_column must be >= -1")
	}

	if !isValidLocale(c.Substring.Locale) {
		return fmt.Errorf("substring.locale must be a BCP 47 tag (got: %s)", c.Substring.Locale)
	}

	if c.Regex.CacheSize < 1 {
		return errors.New("regex.cache_size must be >= 1")
	}

	if c.Picker.DebounceMs < 0 {
		return errors.New("picker.debounce_ms must be >= 0")
	}
	if c.Picker.DebounceMs > 1000 {
		c.Picker.DebounceMs = 1000
	}

	if !isValidLogLevel(c.Log.Level) {
		return fmt.Errorf("log.level must be debug, info, warn, or error (got: %s)", c.Log.Level)
	}

	return nil
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func isValidLocale(tag string) bool {
	if tag == "" {
		return true
	}
	_, err := language.Parse(tag)
	return err == nil
}

// ApplyEnvOverrides applies environment variable overrides to the config.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("TABSIFT_REGEX"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Filter.Regex = b
		}
	}
	if v := os.Getenv("TABSIFT_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv("TABSIFT_LOG_LEVEL"); v != "" {
		if isValidLogLevel(v) {
			c.Log.Level = v
		}
	}
}

// ListKeys returns user-facing configuration keys.
func ListKeys() []string {
	return []string{
		"filter.fuzzy",
		"filter.regex",
		"filter.filter_column",
		"filter.workers",
		"substring.case_sensitive",
		"substring.sort_column",
		"substring.locale",
		"regex.case_insensitive",
		"regex.cache_size",
		"fuzzy.case_sensitive",
		"picker.debounce_ms",
		"picker.show_scores",
		"log.level",
		"log.file",
	}
}
