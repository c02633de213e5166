// Package config provides configuration management for siteqa.
// Configuration is loaded from (highest to lowest priority):
// 1. Command-line flags
// 2. Environment variables (QA_*), including a .env file in the cwd
// 3. Project config (.siteqa/config.yaml or .siteqa/config.toml in cwd)
// 4. Home config (~/.siteqa/config.yaml or ~/.siteqa/config.toml)
// 5. Defaults
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/boshu2/siteqa/internal/changes"
	"github.com/boshu2/siteqa/internal/qa"
)

// Sentinel errors for configuration loading.
var (
	// ErrUnsupportedFormat is returned for a config file that is neither YAML nor TOML.
	ErrUnsupportedFormat = errors.New("unsupported config file format (use .yaml, .yml or .toml)")

	// ErrInvalidPattern is returned when a configured glob pattern is malformed.
	ErrInvalidPattern = errors.New("invalid path rule pattern")
)

// Config holds all siteqa configuration.
type Config struct {
	// Output controls the default output format (table, json, yaml).
	Output string `yaml:"output" json:"output" toml:"output"`

	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose" json:"verbose" toml:"verbose"`

	// LogFormat selects the log encoding (console, json).
	LogFormat string `yaml:"log_format" json:"log_format" toml:"log_format"`

	// BaseRef is the ref changed files are diffed against.
	// Default: origin/main
	BaseRef string `yaml:"base_ref" json:"base_ref" toml:"base_ref"`

	// Shell interprets step commands.
	// Default: sh
	Shell string `yaml:"shell" json:"shell" toml:"shell"`

	// ForceMode set to "full" forces the full pipeline after selection.
	ForceMode string `yaml:"force_mode" json:"force_mode" toml:"force_mode"`

	// ChangedFiles replaces git discovery when non-blank. Environment only.
	ChangedFiles string `yaml:"-" json:"changed_files,omitempty" toml:"-"`

	// Policy settings
	Policy PolicyConfig `yaml:"policy" json:"policy" toml:"policy"`

	// Rules replace the built-in path rules list by list.
	Rules qa.PathRules `yaml:"rules" json:"rules" toml:"rules"`
}

// PolicyConfig holds the audit version strings.
type PolicyConfig struct {
	QAVersion   string `yaml:"qa_version" json:"qa_version" toml:"qa_version"`
	A11yVersion string `yaml:"a11y_version" json:"a11y_version" toml:"a11y_version"`
}

// Default config values (used in resolution and validation).
const (
	defaultOutput    = "table"
	defaultLogFormat = "console"
	configDirName    = ".siteqa"
)

// Environment variable names.
const (
	EnvConfig       = "QA_CONFIG"
	EnvOutput       = "QA_OUTPUT"
	EnvVerbose      = "QA_VERBOSE"
	EnvLogFormat    = "QA_LOG_FORMAT"
	EnvBaseRef      = "QA_BASE_REF"
	EnvShell        = "QA_SHELL"
	EnvForceMode    = "QA_FORCE_MODE"
	EnvChangedFiles = "QA_CHANGED_FILES"
)

// EnvVars lists every environment variable siteqa reads.
var EnvVars = []string{
	EnvConfig,
	EnvOutput,
	EnvVerbose,
	EnvLogFormat,
	EnvBaseRef,
	EnvShell,
	EnvForceMode,
	EnvChangedFiles,
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Output:    defaultOutput,
		LogFormat: defaultLogFormat,
		BaseRef:   changes.DefaultBaseRef,
		Shell:     qa.DefaultShell,
		Policy: PolicyConfig{
			QAVersion:   qa.QAPolicyVersion,
			A11yVersion: qa.A11yPolicyVersion,
		},
		Rules: qa.DefaultPathRules(),
	}
}

// Load loads configuration with proper precedence.
// Priority: flags > env > project > home > defaults
func Load(flagOverrides *Config) (*Config, error) {
	loadDotEnv()

	cfg := Default()

	homeConfig, err := loadFromPath(HomeConfigPath())
	if err != nil {
		return nil, err
	}
	if homeConfig != nil {
		cfg = merge(cfg, homeConfig)
	}

	projectConfig, err := loadFromPath(ProjectConfigPath())
	if err != nil {
		return nil, err
	}
	if projectConfig != nil {
		cfg = merge(cfg, projectConfig)
	}

	cfg = applyEnv(cfg)

	if flagOverrides != nil {
		cfg = merge(cfg, flagOverrides)
	}

	if err := cfg.Rules.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPattern, err)
	}
	return cfg, nil
}

// loadDotEnv reads .env from the cwd without overriding variables that are
// already set. A missing file is not an error.
func loadDotEnv() {
	_ = godotenv.Load() //nolint:errcheck // .env is optional
}

// HomeConfigPath returns the first existing home config path, or the YAML
// location when none exists.
func HomeConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return firstExisting(filepath.Join(home, configDirName))
}

// ProjectConfigPath returns the project config path. QA_CONFIG wins over the
// .siteqa directory in the cwd.
func ProjectConfigPath() string {
	if override := strings.TrimSpace(os.Getenv(EnvConfig)); override != "" {
		return override
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return firstExisting(filepath.Join(cwd, configDirName))
}

func firstExisting(dir string) string {
	candidates := []string{"config.yaml", "config.yml", "config.toml"}
	for _, name := range candidates {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return filepath.Join(dir, candidates[0])
}

// loadFromPath loads config from a YAML or TOML file. A missing file yields
// (nil, nil).
func loadFromPath(path string) (*Config, error) {
	if path == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	return &cfg, nil
}

// applyEnv applies environment variable overrides.
func applyEnv(cfg *Config) *Config {
	if v := os.Getenv(EnvOutput); v != "" {
		cfg.Output = v
	}
	if verbose, ok := getEnvBool(EnvVerbose); ok {
		cfg.Verbose = verbose
	}
	if v := os.Getenv(EnvLogFormat); v != "" {
		cfg.LogFormat = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvBaseRef)); v != "" {
		cfg.BaseRef = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvShell)); v != "" {
		cfg.Shell = v
	}
	if v := os.Getenv(EnvForceMode); v != "" {
		cfg.ForceMode = v
	}
	if v := os.Getenv(EnvChangedFiles); v != "" {
		cfg.ChangedFiles = v
	}
	return cfg
}

// mergeStr overwrites dst with src when src is non-empty.
func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// mergeList overwrites dst with src when src has entries.
func mergeList(dst *[]string, src []string) {
	if len(src) > 0 {
		*dst = append([]string(nil), src...)
	}
}

// merge merges src into dst, with src values taking precedence.
// Verbose can only be switched on by a later layer.
func merge(dst, src *Config) *Config {
	mergeStr(&dst.Output, src.Output)
	if src.Verbose {
		dst.Verbose = true
	}
	mergeStr(&dst.LogFormat, src.LogFormat)
	mergeStr(&dst.BaseRef, src.BaseRef)
	mergeStr(&dst.Shell, src.Shell)
	mergeStr(&dst.ForceMode, src.ForceMode)
	mergeStr(&dst.ChangedFiles, src.ChangedFiles)

	mergeStr(&dst.Policy.QAVersion, src.Policy.QAVersion)
	mergeStr(&dst.Policy.A11yVersion, src.Policy.A11yVersion)

	mergeList(&dst.Rules.AllowedContentPatterns, src.Rules.AllowedContentPatterns)
	mergeList(&dst.Rules.NonContentPatterns, src.Rules.NonContentPatterns)
	mergeList(&dst.Rules.A11yCriticalDataPatterns, src.Rules.A11yCriticalDataPatterns)

	return dst
}

// Source represents where a config value came from.
type Source string

const (
	SourceDefault Source = "default"
	SourceHome    Source = "~/.siteqa/config"
	SourceProject Source = ".siteqa/config"
	SourceEnv     Source = "environment"
	SourceFlag    Source = "flag"
)

// getEnvString returns the value and whether the env var was set.
func getEnvString(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

// getEnvBool parses true/1 and false/0. The second result reports whether
// the variable held a recognised value.
func getEnvBool(key string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1":
		return true, true
	case "false", "0":
		return false, true
	default:
		return false, false
	}
}

// resolveStringField resolves a string through the precedence chain.
func resolveStringField(home, project, env, flag, def string) resolved {
	result := resolved{Value: def, Source: SourceDefault}
	if home != "" {
		result = resolved{Value: home, Source: SourceHome}
	}
	if project != "" {
		result = resolved{Value: project, Source: SourceProject}
	}
	if env != "" {
		result = resolved{Value: env, Source: SourceEnv}
	}
	if flag != "" {
		result = resolved{Value: flag, Source: SourceFlag}
	}
	return result
}

// ResolvedConfig shows config values with their sources.
type ResolvedConfig struct {
	Output    resolved `json:"output" yaml:"output"`
	Verbose   resolved `json:"verbose" yaml:"verbose"`
	LogFormat resolved `json:"log_format" yaml:"log_format"`
	BaseRef   resolved `json:"base_ref" yaml:"base_ref"`
	Shell     resolved `json:"shell" yaml:"shell"`
	ForceMode resolved `json:"force_mode" yaml:"force_mode"`
}

type resolved struct {
	Value  interface{} `json:"value" yaml:"value"`
	Source Source      `json:"source" yaml:"source"`
}

// FlagValues carries the command-line values that take part in Resolve.
type FlagValues struct {
	Output  string
	BaseRef string
	Verbose bool
}

// Resolve returns configuration with source tracking.
// Uses precedence chain: flags > env > project > home > defaults.
func Resolve(flags FlagValues) *ResolvedConfig {
	loadDotEnv()

	home, _ := loadFromPath(HomeConfigPath())
	if home == nil {
		home = &Config{}
	}
	project, _ := loadFromPath(ProjectConfigPath())
	if project == nil {
		project = &Config{}
	}

	envOutput, _ := getEnvString(EnvOutput)
	envLogFormat, _ := getEnvString(EnvLogFormat)
	envBaseRef, _ := getEnvString(EnvBaseRef)
	envShell, _ := getEnvString(EnvShell)
	envForceMode, _ := getEnvString(EnvForceMode)

	rc := &ResolvedConfig{
		Output:    resolveStringField(home.Output, project.Output, envOutput, flags.Output, defaultOutput),
		Verbose:   resolved{Value: false, Source: SourceDefault},
		LogFormat: resolveStringField(home.LogFormat, project.LogFormat, envLogFormat, "", defaultLogFormat),
		BaseRef:   resolveStringField(home.BaseRef, project.BaseRef, envBaseRef, flags.BaseRef, changes.DefaultBaseRef),
		Shell:     resolveStringField(home.Shell, project.Shell, envShell, "", qa.DefaultShell),
		ForceMode: resolveStringField(home.ForceMode, project.ForceMode, envForceMode, "", ""),
	}

	if home.Verbose {
		rc.Verbose = resolved{Value: true, Source: SourceHome}
	}
	if project.Verbose {
		rc.Verbose = resolved{Value: true, Source: SourceProject}
	}
	if v, ok := getEnvBool(EnvVerbose); ok {
		rc.Verbose = resolved{Value: v, Source: SourceEnv}
	}
	if flags.Verbose {
		rc.Verbose = resolved{Value: true, Source: SourceFlag}
	}

	return rc
}
