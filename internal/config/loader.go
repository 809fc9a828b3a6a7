// loader.go — Configuration loading with priority cascade.
// Priority: defaults < global config < project config < env vars < flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/MCPJam/apps-sdk-everything/internal/logging"
	"github.com/MCPJam/apps-sdk-everything/internal/util"
	"gopkg.in/yaml.v3"
)

// Widget page sources.
const (
	SourceEmbedded = "embedded"
	SourceDir      = "dir"
	SourceRemote   = "remote"
)

const (
	globalDirName   = ".apps-sdk-everything"
	globalFileName  = "config.yaml"
	projectFileName = ".apps-sdk-everything.yaml"
	envPrefix       = "APPS_SDK_"
)

// DefaultFrameOrigin is the deployed demo that may frame the widget pages.
const DefaultFrameOrigin = "https://apps-sdk-everything.vercel.app"

// Config holds all resolved configuration values.
type Config struct {
	Addr              string   `yaml:"addr"`
	BaseURL           string   `yaml:"base_url"`
	LogLevel          string   `yaml:"log_level"`
	LogFormat         string   `yaml:"log_format"`
	WidgetSource      string   `yaml:"widget_source"`
	WidgetsDir        string   `yaml:"widgets_dir"`
	RemoteURL         string   `yaml:"remote_url"`
	RemoteCacheSecs   int      `yaml:"remote_cache_seconds"`
	FrameOrigins      []string `yaml:"frame_origins"`
	DevHost           bool     `yaml:"dev_host"`
	OpenExternalAllow []string `yaml:"open_external_allow"`
	ToolRateLimit     int      `yaml:"tool_rate_limit"`
	BridgeDir         string   `yaml:"bridge_dir"`
}

// FlagOverrides holds values explicitly set via command-line flags.
// Nil pointer means the flag was not set (so lower-priority values are kept).
type FlagOverrides struct {
	Addr              *string
	BaseURL           *string
	LogLevel          *string
	LogFormat         *string
	WidgetSource      *string
	WidgetsDir        *string
	RemoteURL         *string
	FrameOrigins      *[]string
	DevHost           *bool
	OpenExternalAllow *[]string
	ToolRateLimit     *int
	BridgeDir         *string
}

// Defaults returns the base configuration.
func Defaults() Config {
	return Config{
		Addr:            "127.0.0.1:3000",
		LogLevel:        "info",
		LogFormat:       logging.FormatJSON,
		WidgetSource:    SourceEmbedded,
		RemoteCacheSecs: 60,
		FrameOrigins:    []string{DefaultFrameOrigin},
		ToolRateLimit:   500,
	}
}

// Load builds the final configuration by applying the priority cascade:
// defaults < global (~/.apps-sdk-everything/config.yaml) <
// project (.apps-sdk-everything.yaml) < env vars < flags.
func Load(projectDir string, flags *FlagOverrides) (Config, error) {
	cfg := Defaults()

	home, err := os.UserHomeDir()
	if err == nil {
		if err := loadGlobalConfig(&cfg, filepath.Join(home, globalDirName)); err != nil {
			return cfg, fmt.Errorf("global config: %w", err)
		}
	}

	if err := loadProjectConfig(&cfg, projectDir); err != nil {
		return cfg, fmt.Errorf("project config: %w", err)
	}

	if err := loadEnvVars(&cfg); err != nil {
		return cfg, fmt.Errorf("environment: %w", err)
	}

	if flags != nil {
		applyFlags(&cfg, flags)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

func loadGlobalConfig(cfg *Config, dir string) error {
	return loadYAMLFile(cfg, filepath.Join(dir, globalFileName))
}

func loadProjectConfig(cfg *Config, dir string) error {
	return loadYAMLFile(cfg, filepath.Join(dir, projectFileName))
}

// loadYAMLFile reads a YAML config file and merges the keys it sets into cfg.
func loadYAMLFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	fc.apply(cfg)
	return nil
}

// fileConfig uses pointers to distinguish "not set" from zero values.
type fileConfig struct {
	Addr              *string   `yaml:"addr"`
	BaseURL           *string   `yaml:"base_url"`
	LogLevel          *string   `yaml:"log_level"`
	LogFormat         *string   `yaml:"log_format"`
	WidgetSource      *string   `yaml:"widget_source"`
	WidgetsDir        *string   `yaml:"widgets_dir"`
	RemoteURL         *string   `yaml:"remote_url"`
	RemoteCacheSecs   *int      `yaml:"remote_cache_seconds"`
	FrameOrigins      *[]string `yaml:"frame_origins"`
	DevHost           *bool     `yaml:"dev_host"`
	OpenExternalAllow *[]string `yaml:"open_external_allow"`
	ToolRateLimit     *int      `yaml:"tool_rate_limit"`
	BridgeDir         *string   `yaml:"bridge_dir"`
}

func (fc fileConfig) apply(cfg *Config) {
	setString(&cfg.Addr, fc.Addr)
	setString(&cfg.BaseURL, fc.BaseURL)
	setString(&cfg.LogLevel, fc.LogLevel)
	setString(&cfg.LogFormat, fc.LogFormat)
	setString(&cfg.WidgetSource, fc.WidgetSource)
	setString(&cfg.WidgetsDir, fc.WidgetsDir)
	setString(&cfg.RemoteURL, fc.RemoteURL)
	setString(&cfg.BridgeDir, fc.BridgeDir)
	if fc.RemoteCacheSecs != nil {
		cfg.RemoteCacheSecs = *fc.RemoteCacheSecs
	}
	if fc.FrameOrigins != nil {
		cfg.FrameOrigins = append([]string(nil), (*fc.FrameOrigins)...)
	}
	if fc.DevHost != nil {
		cfg.DevHost = *fc.DevHost
	}
	if fc.OpenExternalAllow != nil {
		cfg.OpenExternalAllow = append([]string(nil), (*fc.OpenExternalAllow)...)
	}
	if fc.ToolRateLimit != nil {
		cfg.ToolRateLimit = *fc.ToolRateLimit
	}
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// loadEnvVars applies APPS_SDK_* overrides. Lists are comma-separated.
func loadEnvVars(cfg *Config) error {
	strs := map[string]*string{
		"ADDR":          &cfg.Addr,
		"BASE_URL":      &cfg.BaseURL,
		"LOG_LEVEL":     &cfg.LogLevel,
		"LOG_FORMAT":    &cfg.LogFormat,
		"WIDGET_SOURCE": &cfg.WidgetSource,
		"WIDGETS_DIR":   &cfg.WidgetsDir,
		"REMOTE_URL":    &cfg.RemoteURL,
		"BRIDGE_DIR":    &cfg.BridgeDir,
	}
	for name, dst := range strs {
		if v := os.Getenv(envPrefix + name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv(envPrefix + "FRAME_ORIGINS"); v != "" {
		cfg.FrameOrigins = splitList(v)
	}
	if v := os.Getenv(envPrefix + "OPEN_EXTERNAL_ALLOW"); v != "" {
		cfg.OpenExternalAllow = splitList(v)
	}
	if v := os.Getenv(envPrefix + "DEV_HOST"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sDEV_HOST: %w", envPrefix, err)
		}
		cfg.DevHost = b
	}
	for name, dst := range map[string]*int{
		"TOOL_RATE_LIMIT":      &cfg.ToolRateLimit,
		"REMOTE_CACHE_SECONDS": &cfg.RemoteCacheSecs,
	} {
		v := os.Getenv(envPrefix + name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, name, err)
		}
		*dst = n
	}
	return nil
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// applyFlags applies command-line flag overrides (highest priority).
func applyFlags(cfg *Config, flags *FlagOverrides) {
	setString(&cfg.Addr, flags.Addr)
	setString(&cfg.BaseURL, flags.BaseURL)
	setString(&cfg.LogLevel, flags.LogLevel)
	setString(&cfg.LogFormat, flags.LogFormat)
	setString(&cfg.WidgetSource, flags.WidgetSource)
	setString(&cfg.WidgetsDir, flags.WidgetsDir)
	setString(&cfg.RemoteURL, flags.RemoteURL)
	setString(&cfg.BridgeDir, flags.BridgeDir)
	if flags.FrameOrigins != nil {
		cfg.FrameOrigins = append([]string(nil), (*flags.FrameOrigins)...)
	}
	if flags.DevHost != nil {
		cfg.DevHost = *flags.DevHost
	}
	if flags.OpenExternalAllow != nil {
		cfg.OpenExternalAllow = append([]string(nil), (*flags.OpenExternalAllow)...)
	}
	if flags.ToolRateLimit != nil {
		cfg.ToolRateLimit = *flags.ToolRateLimit
	}
}

// Validate checks that configuration values are usable.
func (c Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		return fmt.Errorf("addr must be host:port, got %q", c.Addr)
	}
	if c.BaseURL != "" && !util.IsHTTPURL(c.BaseURL) {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.LogFormat != logging.FormatJSON && c.LogFormat != logging.FormatConsole {
		return fmt.Errorf("log_format must be %s or %s, got %q", logging.FormatJSON, logging.FormatConsole, c.LogFormat)
	}

	switch c.WidgetSource {
	case SourceEmbedded:
	case SourceDir:
		if c.WidgetsDir == "" {
			return errors.New("widget_source dir requires widgets_dir")
		}
	case SourceRemote:
		if !util.IsHTTPURL(c.RemoteURL) {
			return fmt.Errorf("widget_source remote requires an http(s) remote_url, got %q", c.RemoteURL)
		}
	default:
		return fmt.Errorf("widget_source must be %s, %s, or %s, got %q", SourceEmbedded, SourceDir, SourceRemote, c.WidgetSource)
	}

	if c.BridgeDir != "" {
		info, err := os.Stat(c.BridgeDir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("bridge_dir must be an existing directory, got %q", c.BridgeDir)
		}
	}

	if c.RemoteCacheSecs < 0 {
		return fmt.Errorf("remote_cache_seconds must be >= 0, got %d", c.RemoteCacheSecs)
	}
	if c.ToolRateLimit < 0 {
		return fmt.Errorf("tool_rate_limit must be >= 0, got %d", c.ToolRateLimit)
	}
	for _, o := range c.FrameOrigins {
		if !util.IsHTTPURL(o) {
			return fmt.Errorf("frame_origins entries must be http(s) origins, got %q", o)
		}
	}
	return nil
}
