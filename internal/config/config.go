// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/agchat/internal/run"
	"github.com/jeranaias/agchat/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete agchat configuration.
type Config struct {
	// Backend is the streaming endpoint.
	Backend BackendConfig `toml:"backend" json:"backend"`

	// Stream controls how events are reduced into the transcript.
	Stream StreamConfig `toml:"stream" json:"stream"`

	// UI controls the terminal interface.
	UI UIConfig `toml:"ui" json:"ui"`

	// Log controls diagnostic logging.
	Log LogConfig `toml:"log" json:"log"`
}

// BackendConfig describes the streaming endpoint.
type BackendConfig struct {
	// Endpoint is the URL that receives the prompt and answers with an event stream.
	Endpoint string `toml:"endpoint" json:"endpoint"`
	// PromptParam is the query parameter that carries the prompt.
	PromptParam string `toml:"prompt_param" json:"prompt_param"`
	// RequestTimeoutSecs bounds the wait for response headers. The body
	// itself is streamed without a deadline.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// MaxLineBytes caps a single stream line.
	MaxLineBytes int `toml:"max_line_bytes" json:"max_line_bytes"`
}

// StreamConfig contains reducer settings.
type StreamConfig struct {
	// ArgsMode is "append" or "replace".
	ArgsMode string `toml:"args_mode" json:"args_mode"`
	// Placeholder shows the thinking indicator until the first content arrives.
	Placeholder bool `toml:"placeholder" json:"placeholder"`
	// IndicatorIntervalMs is the thinking animation period.
	IndicatorIntervalMs int `toml:"indicator_interval_ms" json:"indicator_interval_ms"`
	// IndicatorMaxDots is the longest indicator before it wraps.
	IndicatorMaxDots int `toml:"indicator_max_dots" json:"indicator_max_dots"`
	// FallbackText replaces the reply after a transport failure.
	FallbackText string `toml:"fallback_text" json:"fallback_text"`
}

// UIConfig contains terminal interface settings.
type UIConfig struct {
	// Theme is "dark", "light" or "auto".
	Theme string `toml:"theme" json:"theme"`
	// Markdown renders assistant replies as markdown.
	Markdown bool `toml:"markdown" json:"markdown"`
	// SubmitIntervalMs is the minimum gap between two submits.
	SubmitIntervalMs int `toml:"submit_interval_ms" json:"submit_interval_ms"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// File receives log lines. Empty disables file logging.
	File string `toml:"file" json:"file"`
	// Verbose also logs to stderr in line-oriented commands.
	Verbose bool `toml:"verbose" json:"verbose"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with all default values.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			Endpoint:           "",
			PromptParam:        "userprompt",
			RequestTimeoutSecs: 30,
			MaxLineBytes:       1 << 20,
		},
		Stream: StreamConfig{
			ArgsMode:            run.ArgsAppend.String(),
			Placeholder:         true,
			IndicatorIntervalMs: 350,
			IndicatorMaxDots:    run.DefaultIndicatorMaxDots,
			FallbackText:        run.DefaultFallbackText,
		},
		UI: UIConfig{
			Theme:            "auto",
			Markdown:         true,
			SubmitIntervalMs: 250,
		},
		Log: LogConfig{},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the agchat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".agchat"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Path returns the config file Load would read: the TOML file if present,
// then the JSON file, and the TOML path when neither exists.
func Path() (string, error) {
	tomlPath, err := ConfigPathTOML()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath, nil
	}
	jsonPath, err := ConfigPathJSON()
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(jsonPath); err == nil {
		return jsonPath, nil
	}
	return tomlPath, nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default location. A missing file is
// not an error. Environment overrides are applied last.
func Load() (*Config, error) {
	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML decodes a TOML file into cfg. Keys absent from the file keep
// their current values.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg. Keys absent from the file keep
// their current values.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration to a TOML file with a short header.
func SaveTOML(cfg *Config, path string) error {
	var b strings.Builder
	b.WriteString("# agchat configuration file\n")
	b.WriteString("# endpoint must point at a server that streams AG-UI events\n\n")
	if err := toml.NewEncoder(&b).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.WritePrivateFile(path, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON writes the configuration to a JSON file.
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.WritePrivateFile(path, data); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// validThemes lists the accepted ui.theme values.
var validThemes = []string{"auto", "dark", "light"}

// Validate checks the configuration and returns ValidateErrors listing
// every problem found, or nil. An empty endpoint is valid: commands that
// need one report it when they run.
func (c *Config) Validate() error {
	var errs ValidateErrors

	if c.Backend.Endpoint != "" {
		u, err := url.Parse(c.Backend.Endpoint)
		if err != nil {
			errs = append(errs, ValidationError{"backend.endpoint", fmt.Sprintf("invalid URL: %v", err)})
		} else if u.Scheme != "http" && u.Scheme != "https" {
			errs = append(errs, ValidationError{"backend.endpoint", "scheme must be http or https"})
		} else if u.Host == "" {
			errs = append(errs, ValidationError{"backend.endpoint", "missing host"})
		}
	}
	if strings.TrimSpace(c.Backend.PromptParam) == "" {
		errs = append(errs, ValidationError{"backend.prompt_param", "must not be empty"})
	}
	if c.Backend.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{"backend.request_timeout_secs", "must not be negative"})
	}
	if c.Backend.MaxLineBytes < 0 {
		errs = append(errs, ValidationError{"backend.max_line_bytes", "must not be negative"})
	}

	if _, err := run.ParseArgsMode(c.Stream.ArgsMode); err != nil {
		errs = append(errs, ValidationError{"stream.args_mode", "must be append or replace"})
	}
	if c.Stream.IndicatorIntervalMs < 0 {
		errs = append(errs, ValidationError{"stream.indicator_interval_ms", "must not be negative"})
	}
	if c.Stream.IndicatorMaxDots < 0 || c.Stream.IndicatorMaxDots > 40 {
		errs = append(errs, ValidationError{"stream.indicator_max_dots", "must be between 0 and 40"})
	}

	if !slices.Contains(validThemes, c.UI.Theme) {
		errs = append(errs, ValidationError{"ui.theme", fmt.Sprintf("must be one of %s", strings.Join(validThemes, ", "))})
	}
	if c.UI.SubmitIntervalMs < 0 {
		errs = append(errs, ValidationError{"ui.submit_interval_ms", "must not be negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values that have no meaning with their defaults.
// Booleans are left alone since false is a valid choice.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Backend.PromptParam == "" {
		c.Backend.PromptParam = defaults.Backend.PromptParam
	}
	if c.Backend.RequestTimeoutSecs == 0 {
		c.Backend.RequestTimeoutSecs = defaults.Backend.RequestTimeoutSecs
	}
	if c.Backend.MaxLineBytes == 0 {
		c.Backend.MaxLineBytes = defaults.Backend.MaxLineBytes
	}
	if c.Stream.ArgsMode == "" {
		c.Stream.ArgsMode = defaults.Stream.ArgsMode
	}
	if c.Stream.IndicatorIntervalMs == 0 {
		c.Stream.IndicatorIntervalMs = defaults.Stream.IndicatorIntervalMs
	}
	if c.Stream.IndicatorMaxDots == 0 {
		c.Stream.IndicatorMaxDots = defaults.Stream.IndicatorMaxDots
	}
	if c.Stream.FallbackText == "" {
		c.Stream.FallbackText = defaults.Stream.FallbackText
	}
	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// HeaderTimeout returns the response header timeout.
func (c *Config) HeaderTimeout() time.Duration {
	return time.Duration(c.Backend.RequestTimeoutSecs) * time.Second
}

// IndicatorInterval returns the thinking animation period.
func (c *Config) IndicatorInterval() time.Duration {
	return time.Duration(c.Stream.IndicatorIntervalMs) * time.Millisecond
}

// SubmitInterval returns the minimum gap between submits.
func (c *Config) SubmitInterval() time.Duration {
	return time.Duration(c.UI.SubmitIntervalMs) * time.Millisecond
}

// ArgsMode returns the parsed tool argument mode. Validate has already
// rejected unknown values, so an error falls back to append.
func (c *Config) ArgsMode() run.ArgsMode {
	mode, _ := run.ParseArgsMode(c.Stream.ArgsMode)
	return mode
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - AGCHAT_ENDPOINT: overrides backend.endpoint
//   - AGCHAT_PROMPT_PARAM: overrides backend.prompt_param
//   - AGCHAT_ARGS_MODE: overrides stream.args_mode
//   - AGCHAT_LOG_FILE: overrides log.file
//   - AGCHAT_VERBOSE: set to "1" or "true" to enable verbose logging
func (c *Config) ApplyEnvOverrides() {
	if endpoint := os.Getenv("AGCHAT_ENDPOINT"); endpoint != "" {
		c.Backend.Endpoint = endpoint
	}
	if param := os.Getenv("AGCHAT_PROMPT_PARAM"); param != "" {
		c.Backend.PromptParam = param
	}
	if mode := os.Getenv("AGCHAT_ARGS_MODE"); mode != "" {
		c.Stream.ArgsMode = mode
	}
	if file := os.Getenv("AGCHAT_LOG_FILE"); file != "" {
		c.Log.File = file
	}
	if verbose := os.Getenv("AGCHAT_VERBOSE"); verbose != "" {
		c.Log.Verbose = verbose == "1" || strings.ToLower(verbose) == "true"
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "stream.args_mode").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookup(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's type.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookup(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

// lookup walks a dot-notation key to its leaf field.
func (c *Config) lookup(key string) (reflect.Value, error) {
	if key == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			if field.Kind() == reflect.Struct {
				return reflect.Value{}, fmt.Errorf("field '%s' is a section", key)
			}
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field equivalent.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strings.TrimSpace(strVal), 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Bool:
			boolVal, err := strconv.ParseBool(strings.TrimSpace(strVal))
			if err != nil {
				return fmt.Errorf("invalid boolean value: %v", err)
			}
			field.SetBool(boolVal)
			return nil
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) && val.Kind() != reflect.String {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"backend.endpoint",
		"backend.prompt_param",
		"backend.request_timeout_secs",
		"backend.max_line_bytes",
		"stream.args_mode",
		"stream.placeholder",
		"stream.indicator_interval_ms",
		"stream.indicator_max_dots",
		"stream.fallback_text",
		"ui.theme",
		"ui.markdown",
		"ui.submit_interval_ms",
		"log.file",
		"log.verbose",
	}
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// String returns the configuration as indented JSON.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}
