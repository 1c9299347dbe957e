package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if !cfg.Filter.Fuzzy {
		t.Error("Expected filter.fuzzy=true")
	}
	if cfg.Filter.Regex {
		t.Error("Expected filter.regex=false")
	}
	if cfg.Filter.FilterColumn != -1 {
		t.Errorf("Expected filter_column=-1, got %d", cfg.Filter.FilterColumn)
	}
	if cfg.Filter.Workers != 1 {
		t.Errorf("Expected workers=1, got %d", cfg.Filter.Workers)
	}
	if cfg.Substring.SortColumn != -1 {
		t.Errorf("Expected sort_column=-1, got %d", cfg.Substring.SortColumn)
	}
	if cfg.Regex.CacheSize != 128 {
		t.Errorf("Expected cache_size=128, got %d", cfg.Regex.CacheSize)
	}
	if cfg.Picker.DebounceMs != 60 {
		t.Errorf("Expected debounce_ms=60, got %d", cfg.Picker.DebounceMs)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Expected log.level=warn, got %s", cfg.Log.Level)
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid: %v", err)
	}
}

// ============================================================================
// Get/Set
// ============================================================================

func TestConfigGet(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key      string
		expected string
	}{
		{"filter.fuzzy", "true"},
		{"filter.regex", "false"},
		{"filter.filter_column", "-1"},
		{"filter.workers", "1"},
		{"substring.case_sensitive", "false"},
		{"substring.sort_column", "-1"},
		{"substring.locale", ""},
		{"regex.case_insensitive", "false"},
		{"regex.cache_size", "128"},
		{"fuzzy.case_sensitive", "true"},
		{"picker.debounce_ms", "60"},
		{"picker.show_scores", "false"},
		{"log.level", "warn"},
		{"log.file", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Errorf("Get(%q) error: %v", tt.key, err)
				return
			}
			if got != tt.expected {
				t.Errorf("Get(%q) = %q, want %q", tt.key, got, tt.expected)
			}
		})
	}
}

func TestConfigSet(t *testing.T) {
	tests := []struct {
		key      string
		value    string
		expected string
	}{
		{"filter.fuzzy", "false", "false"},
		{"filter.regex", "true", "true"},
		{"filter.filter_column", "2", "2"},
		{"filter.filter_column", "-1", "-1"},
		{"filter.workers", "8", "8"},
		{"substring.case_sensitive", "true", "true"},
		{"substring.sort_column", "0", "0"},
		{"substring.locale", "de-CH", "de-CH"},
		{"substring.locale", "", ""},
		{"regex.case_insensitive", "true", "true"},
		{"regex.cache_size", "16", "16"},
		{"fuzzy.case_sensitive", "false", "false"},
		{"picker.debounce_ms", "0", "0"},
		{"picker.debounce_ms", "5000", "1000"},
		{"picker.show_scores", "true", "true"},
		{"log.level", "debug", "debug"},
		{"log.file", "/tmp/tabsift.log", "/tmp/tabsift.log"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%q, %q) error: %v", tt.key, tt.value, err)
			}
			got, err := cfg.Get(tt.key)
			if err != nil {
				t.Fatalf("Get(%q) error: %v", tt.key, err)
			}
			if got != tt.expected {
				t.Errorf("after Set(%q, %q), Get = %q, want %q", tt.key, tt.value, got, tt.expected)
			}
		})
	}
}

func TestConfigGetInvalidKey(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key     string
		wantErr string
	}{
		{"filter", "format"},
		{"filter.fuzzy.extra", "format"},
		{"unknown.key", "unknown section"},
		{"filter.unknown", "unknown field"},
		{"substring.unknown", "unknown field"},
		{"regex.unknown", "unknown field"},
		{"fuzzy.unknown", "unknown field"},
		{"picker.unknown", "unknown field"},
		{"log.unknown", "unknown field"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			_, err := cfg.Get(tt.key)
			if err == nil {
				t.Fatalf("Get(%q) should have failed", tt.key)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Get(%q) error = %v, want containing %q", tt.key, err, tt.wantErr)
			}
			if err := cfg.Set(tt.key, "1"); err == nil {
				t.Errorf("Set(%q) should have failed", tt.key)
			}
		})
	}
}

func TestConfigSetInvalidValue(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"filter.fuzzy", "maybe"},
		{"filter.regex", "yes please"},
		{"filter.filter_column", "abc"},
		{"filter.filter_column", "-2"},
		{"filter.workers", "0"},
		{"filter.workers", "many"},
		{"substring.case_sensitive", "x"},
		{"substring.sort_column", "-5"},
		{"substring.locale", "!!not a tag"},
		{"regex.case_insensitive", "x"},
		{"regex.cache_size", "0"},
		{"fuzzy.case_sensitive", "x"},
		{"picker.debounce_ms", "-1"},
		{"picker.show_scores", "x"},
		{"log.level", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			cfg := DefaultConfig()
			before, _ := cfg.Get(tt.key)
			if err := cfg.Set(tt.key, tt.value); err == nil {
				t.Errorf("Set(%q, %q) should have failed", tt.key, tt.value)
			}
			after, _ := cfg.Get(tt.key)
			if before != after {
				t.Errorf("failed Set changed %s from %q to %q", tt.key, before, after)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"filter column below -1", func(c *Config) { c.Filter.FilterColumn = -3 }, true},
		{"zero workers", func(c *Config) { c.Filter.Workers = 0 }, true},
		{"sort column below -1", func(c *Config) { c.Substring.SortColumn = -2 }, true},
		{"bad locale", func(c *Config) { c.Substring.Locale = "??" }, true},
		{"good locale", func(c *Config) { c.Substring.Locale = "sv" }, false},
		{"zero cache", func(c *Config) { c.Regex.CacheSize = 0 }, true},
		{"negative debounce", func(c *Config) { c.Picker.DebounceMs = -1 }, true},
		{"bad log level", func(c *Config) { c.Log.Level = "trace" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateClampsDebounce(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Picker.DebounceMs = 60000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error: %v", err)
	}
	if cfg.Picker.DebounceMs != 1000 {
		t.Errorf("Expected debounce_ms clamped to 1000, got %d", cfg.Picker.DebounceMs)
	}
}

// ============================================================================
// Load/Save
// ============================================================================

func TestLoadFromFile_NonExistent(t *testing.T) {
	cfg, err := LoadFromFile("/nonexistent/path/config.yaml")
	if err != nil {
		t.Fatalf("LoadFromFile should return defaults for nonexistent file: %v", err)
	}
	if !cfg.Filter.Fuzzy {
		t.Error("Expected default filter.fuzzy=true")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	invalidYAML := `
filter:
  workers: [not valid yaml
  this is broken
`
	if err := os.WriteFile(configFile, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("Failed to write invalid YAML: %v", err)
	}

	if _, err := LoadFromFile(configFile); err == nil {
		t.Error("LoadFromFile should have returned an error for invalid YAML")
	}
}

func TestLoadFromFile_InvalidValues(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(configFile, []byte("filter:\n  workers: 0\n"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadFromFile(configFile)
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("Expected invalid config error, got %v", err)
	}
}

func TestLoadFromFile_PartialConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	partialYAML := `
filter:
  fuzzy: false
  filter_column: 1
log:
  level: debug
`
	if err := os.WriteFile(configFile, []byte(partialYAML), 0644); err != nil {
		t.Fatalf("Failed to write partial YAML: %v", err)
	}

	cfg, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if cfg.Filter.Fuzzy {
		t.Error("Expected filter.fuzzy=false")
	}
	if cfg.Filter.FilterColumn != 1 {
		t.Errorf("Expected filter_column=1, got %d", cfg.Filter.FilterColumn)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Expected log.level=debug, got %s", cfg.Log.Level)
	}

	// Unspecified keys keep their defaults
	if cfg.Filter.Workers != 1 {
		t.Errorf("Expected default workers=1, got %d", cfg.Filter.Workers)
	}
	if cfg.Picker.DebounceMs != 60 {
		t.Errorf("Expected default debounce_ms=60, got %d", cfg.Picker.DebounceMs)
	}
}

func TestLoadFromFile_EmptyFile(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "config.yaml")

	if err := os.WriteFile(configFile, []byte(""), 0644); err != nil {
		t.Fatalf("Failed to write empty file: %v", err)
	}

	cfg, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed for empty file: %v", err)
	}
	if cfg.Regex.CacheSize != 128 {
		t.Errorf("Expected default cache_size=128, got %d", cfg.Regex.CacheSize)
	}
}

func TestLoadFromFile_ReadError(t *testing.T) {
	subDir := filepath.Join(t.TempDir(), "subdir")
	if err := os.Mkdir(subDir, 0755); err != nil {
		t.Fatalf("Failed to create subdir: %v", err)
	}

	if _, err := LoadFromFile(subDir); err == nil {
		t.Error("LoadFromFile should have returned an error when reading a directory")
	}
}

func TestSaveAndLoad(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Filter.Regex = true
	cfg.Filter.Workers = 4
	cfg.Substring.Locale = "fr"
	cfg.Picker.ShowScores = true

	if err := cfg.SaveToFile(configFile); err != nil {
		t.Fatalf("SaveToFile failed: %v", err)
	}

	loaded, err := LoadFromFile(configFile)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}

	if *loaded != *cfg {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", *loaded, *cfg)
	}
}

func TestLoadUsesConfigEnv(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "custom.yaml")
	t.Setenv("TABSIFT_CONFIG", configFile)

	cfg := DefaultConfig()
	cfg.Regex.CacheSize = 7
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Regex.CacheSize != 7 {
		t.Errorf("Expected cache_size=7 from $TABSIFT_CONFIG, got %d", loaded.Regex.CacheSize)
	}
}

// ============================================================================
// Environment overrides
// ============================================================================

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		check func(*testing.T, *Config)
	}{
		{
			name: "regex on",
			env:  map[string]string{"TABSIFT_REGEX": "1"},
			check: func(t *testing.T, c *Config) {
				if !c.Filter.Regex {
					t.Error("Expected filter.regex=true")
				}
			},
		},
		{
			name: "regex unparseable is ignored",
			env:  map[string]string{"TABSIFT_REGEX": "sure"},
			check: func(t *testing.T, c *Config) {
				if c.Filter.Regex {
					t.Error("Expected filter.regex to stay false")
				}
			},
		},
		{
			name: "debug",
			env:  map[string]string{"TABSIFT_DEBUG": "true"},
			check: func(t *testing.T, c *Config) {
				if c.Log.Level != "debug" {
					t.Errorf("Expected log.level=debug, got %s", c.Log.Level)
				}
			},
		},
		{
			name: "explicit level wins over debug",
			env:  map[string]string{"TABSIFT_DEBUG": "true", "TABSIFT_LOG_LEVEL": "error"},
			check: func(t *testing.T, c *Config) {
				if c.Log.Level != "error" {
					t.Errorf("Expected log.level=error, got %s", c.Log.Level)
				}
			},
		},
		{
			name: "invalid level is ignored",
			env:  map[string]string{"TABSIFT_LOG_LEVEL": "loud"},
			check: func(t *testing.T, c *Config) {
				if c.Log.Level != "warn" {
					t.Errorf("Expected log.level=warn, got %s", c.Log.Level)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, key := range []string{"TABSIFT_REGEX", "TABSIFT_DEBUG", "TABSIFT_LOG_LEVEL"} {
				t.Setenv(key, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			cfg.ApplyEnvOverrides()
			tt.check(t, cfg)
		})
	}
}

// ============================================================================
// ListKeys
// ============================================================================

func TestListKeysAllGettable(t *testing.T) {
	cfg := DefaultConfig()
	for _, key := range ListKeys() {
		t.Run(key, func(t *testing.T) {
			if _, err := cfg.Get(key); err != nil {
				t.Errorf("Get(%q) failed for key from ListKeys: %v", key, err)
			}
		})
	}
}

func TestListKeysAllSettable(t *testing.T) {
	for _, key := range ListKeys() {
		t.Run(key, func(t *testing.T) {
			cfg := DefaultConfig()
			value, err := cfg.Get(key)
			if err != nil {
				t.Fatalf("Get(%q) failed: %v", key, err)
			}
			if err := cfg.Set(key, value); err != nil {
				t.Errorf("Set(%q, %q) failed for key from ListKeys: %v", key, value, err)
			}
		})
	}
}
