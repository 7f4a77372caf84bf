// Package config loads the server list, transport settings and tool
// thresholds from config.yaml, .env and SHS_ environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"github.com/drutigliano19/spark-history-mcp/client/sparkhistory"
)

const (
	EnvPrefix         = "SHS"
	DefaultConfigFile = "config.yaml"
	DefaultServerName = "local"
	DefaultServerURL  = "http://localhost:18080"
	appDirName        = "spark-history-mcp"

	TransportStdio          = "stdio"
	TransportSSE            = "sse"
	TransportStreamableHTTP = "streamable-http"
)

var (
	ErrNoServers         = errors.New("no history servers configured")
	ErrUnknownServer     = errors.New("unknown history server")
	ErrInvalidThreshold  = errors.New("invalid significance threshold")
	ErrInvalidSimilarity = errors.New("invalid similarity threshold")
)

type AuthConfig struct {
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
	Token    string `mapstructure:"token" yaml:"token"`
}

type ServerConfig struct {
	URL       string     `mapstructure:"url" yaml:"url"`
	Default   bool       `mapstructure:"default" yaml:"default"`
	VerifySSL bool       `mapstructure:"verify_ssl" yaml:"verify_ssl"`
	UseProxy  bool       `mapstructure:"use_proxy" yaml:"use_proxy"`
	Timeout   int        `mapstructure:"timeout" yaml:"timeout"`
	RateLimit float64    `mapstructure:"rate_limit" yaml:"rate_limit"`
	Auth      AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// ClientConfig converts the server entry into REST client settings.
func (s ServerConfig) ClientConfig() sparkhistory.Config {
	return sparkhistory.Config{
		URL:       s.URL,
		Username:  s.Auth.Username,
		Password:  s.Auth.Password,
		Token:     s.Auth.Token,
		VerifySSL: s.VerifySSL,
		UseProxy:  s.UseProxy,
		Timeout:   time.Duration(s.Timeout) * time.Second,
		RateLimit: s.RateLimit,
	}
}

type McpConfig struct {
	Transports  []string `mapstructure:"transports" yaml:"transports"`
	Address     string   `mapstructure:"address" yaml:"address"`
	Port        int      `mapstructure:"port" yaml:"port"`
	Debug       bool     `mapstructure:"debug" yaml:"debug"`
	MetricsPath string   `mapstructure:"metrics_path" yaml:"metrics_path"`
}

// Addr is the listen address of the HTTP transports.
func (m McpConfig) Addr() string {
	return fmt.Sprintf("%s:%d", m.Address, m.Port)
}

// ToolConfig holds the thresholds used by the analysis and comparison tools.
type ToolConfig struct {
	SignificanceThreshold  float64 `mapstructure:"significance_threshold" yaml:"significance_threshold"`
	StageMatchSimilarity   float64 `mapstructure:"stage_match_similarity" yaml:"stage_match_similarity"`
	TimeOverlapWindowS     int     `mapstructure:"time_overlap_window_s" yaml:"time_overlap_window_s"`
	DefaultIntervalMinutes int     `mapstructure:"default_interval_minutes" yaml:"default_interval_minutes"`
	TimelineMaxIntervals   int     `mapstructure:"timeline_max_intervals" yaml:"timeline_max_intervals"`
	GCPressureThreshold    float64 `mapstructure:"gc_pressure_threshold" yaml:"gc_pressure_threshold"`
	HighSpillBytes         int64   `mapstructure:"high_spill_bytes" yaml:"high_spill_bytes"`
	MinStageDurationS      int     `mapstructure:"min_stage_duration_s" yaml:"min_stage_duration_s"`
	MinTaskCount           int     `mapstructure:"min_task_count" yaml:"min_task_count"`
	SQLPageSize            int     `mapstructure:"sql_page_size" yaml:"sql_page_size"`
	IncludeRunningDefaults bool    `mapstructure:"include_running_defaults" yaml:"include_running_defaults"`
	LargeStageDiffSeconds  float64 `mapstructure:"large_stage_diff_seconds" yaml:"large_stage_diff_seconds"`
}

type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// Path returns the cache directory, defaulting to the user cache dir.
func (c CacheConfig) Path() (string, error) {
	if c.Dir != "" {
		return c.Dir, nil
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user cache dir: %w", err)
	}
	return filepath.Join(dir, appDirName), nil
}

type Config struct {
	Servers map[string]ServerConfig `mapstructure:"servers" yaml:"servers"`
	Mcp     McpConfig               `mapstructure:"mcp" yaml:"mcp"`
	Tools   ToolConfig              `mapstructure:"tools" yaml:"tools"`
	Cache   CacheConfig             `mapstructure:"cache" yaml:"cache"`
}

func DefaultToolConfig() ToolConfig {
	return ToolConfig{
		SignificanceThreshold:  0.1,
		StageMatchSimilarity:   0.75,
		TimeOverlapWindowS:     300,
		DefaultIntervalMinutes: 1,
		TimelineMaxIntervals:   10000,
		GCPressureThreshold:    0.2,
		HighSpillBytes:         500 * 1024 * 1024,
		MinStageDurationS:      10,
		MinTaskCount:           10,
		SQLPageSize:            100,
		LargeStageDiffSeconds:  60,
	}
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Servers: map[string]ServerConfig{
			DefaultServerName: {URL: DefaultServerURL, Default: true, VerifySSL: true, Timeout: 30},
		},
		Mcp: McpConfig{
			Transports:  []string{TransportStreamableHTTP},
			Address:     "localhost",
			Port:        18888,
			MetricsPath: "/metrics",
		},
		Tools: DefaultToolConfig(),
		Cache: CacheConfig{Enabled: true},
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("mcp.transports", d.Mcp.Transports)
	v.SetDefault("mcp.address", d.Mcp.Address)
	v.SetDefault("mcp.port", d.Mcp.Port)
	v.SetDefault("mcp.debug", d.Mcp.Debug)
	v.SetDefault("mcp.metrics_path", d.Mcp.MetricsPath)

	t := d.Tools
	for key, value := range map[string]any{
		"significance_threshold":   t.SignificanceThreshold,
		"stage_match_similarity":   t.StageMatchSimilarity,
		"time_overlap_window_s":    t.TimeOverlapWindowS,
		"default_interval_minutes": t.DefaultIntervalMinutes,
		"timeline_max_intervals":   t.TimelineMaxIntervals,
		"gc_pressure_threshold":    t.GCPressureThreshold,
		"high_spill_bytes":         t.HighSpillBytes,
		"min_stage_duration_s":     t.MinStageDurationS,
		"min_task_count":           t.MinTaskCount,
		"sql_page_size":            t.SQLPageSize,
		"include_running_defaults": t.IncludeRunningDefaults,
		"large_stage_diff_seconds": t.LargeStageDiffSeconds,
	} {
		v.SetDefault("tools."+key, value)
		// flat names such as SHS_SIGNIFICANCE_THRESHOLD are accepted too
		envKey := strings.ToUpper(key)
		_ = v.BindEnv("tools."+key, EnvPrefix+"_TOOLS_"+envKey, EnvPrefix+"_"+envKey)
	}

	v.SetDefault("cache.enabled", d.Cache.Enabled)
	v.SetDefault("cache.dir", d.Cache.Dir)
}

// Load reads path (DefaultConfigFile when empty). A missing file is not an
// error. Variables from .env are loaded first and never override the
// process environment.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	if path == "" {
		path = DefaultConfigFile
	}

	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	conf := new(Config)
	if err := v.Unmarshal(conf); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if len(conf.Servers) == 0 {
		local := Default().Servers[DefaultServerName]
		if u := os.Getenv(EnvPrefix + "_SERVERS_LOCAL_URL"); u != "" {
			local.URL = u
		}
		conf.Servers = map[string]ServerConfig{DefaultServerName: local}
	} else {
		for name, s := range conf.Servers {
			if !v.IsSet("servers." + name + ".verify_ssl") {
				s.VerifySSL = true
			}
			conf.Servers[name] = s
		}
	}
	return conf, nil
}

// Write saves the configuration as YAML.
func (c *Config) Write(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, out, 0o600); err != nil {
		return fmt.Errorf("failed to write config %s: %w", path, err)
	}
	return nil
}

// ServerNames returns the configured server names in sorted order.
func (c *Config) ServerNames() []string {
	names := make([]string, 0, len(c.Servers))
	for name := range c.Servers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultServer prefers the server flagged default, then "local", then the
// first name in sorted order.
func (c *Config) DefaultServer() (string, error) {
	names := c.ServerNames()
	if len(names) == 0 {
		return "", ErrNoServers
	}
	for _, name := range names {
		if c.Servers[name].Default {
			return name, nil
		}
	}
	if _, ok := c.Servers[DefaultServerName]; ok {
		return DefaultServerName, nil
	}
	return names[0], nil
}

// Server looks up a server by name, falling back to the default server when
// name is empty.
func (c *Config) Server(name string) (string, ServerConfig, error) {
	if name == "" {
		var err error
		if name, err = c.DefaultServer(); err != nil {
			return "", ServerConfig{}, err
		}
	}
	s, ok := c.Servers[name]
	if !ok {
		return "", ServerConfig{}, fmt.Errorf("%w: %s", ErrUnknownServer, name)
	}
	return name, s, nil
}

func (c *Config) Validate() error {
	if len(c.Servers) == 0 {
		return ErrNoServers
	}
	defaults := 0
	for _, name := range c.ServerNames() {
		s := c.Servers[name]
		if _, err := url.ParseRequestURI(s.URL); err != nil {
			return fmt.Errorf("server %s: invalid url %q: %w", name, s.URL, err)
		}
		if s.Timeout < 0 {
			return fmt.Errorf("server %s: negative timeout", name)
		}
		if s.RateLimit < 0 {
			return fmt.Errorf("server %s: negative rate limit", name)
		}
		if s.Default {
			defaults++
		}
	}
	if defaults > 1 {
		return fmt.Errorf("%d servers are flagged default, at most one is allowed", defaults)
	}

	for _, t := range c.Mcp.Transports {
		if !slices.Contains([]string{TransportStdio, TransportSSE, TransportStreamableHTTP}, t) {
			return fmt.Errorf("unknown transport %q", t)
		}
	}
	if c.Mcp.Port < 1 || c.Mcp.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Mcp.Port)
	}

	if err := ValidateThreshold(c.Tools.SignificanceThreshold); err != nil {
		return err
	}
	if err := ValidateSimilarity(c.Tools.StageMatchSimilarity); err != nil {
		return fmt.Errorf("stage_match_similarity: %w", err)
	}
	if v := c.Tools.GCPressureThreshold; math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("gc_pressure_threshold must be within [0, 1], got %v", v)
	}
	if c.Tools.DefaultIntervalMinutes < 1 {
		return fmt.Errorf("default_interval_minutes must be positive")
	}
	if c.Tools.TimelineMaxIntervals < 1 {
		return fmt.Errorf("timeline_max_intervals must be positive")
	}
	return nil
}

// ValidateThreshold rejects NaN, negative and infinite thresholds.
func ValidateThreshold(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return fmt.Errorf("%w: %v", ErrInvalidThreshold, v)
	}
	return nil
}

// ValidateSimilarity rejects NaN and values outside [0, 1].
func ValidateSimilarity(v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %v must be within [0, 1]", ErrInvalidSimilarity, v)
	}
	return nil
}

// UserDir returns <user config dir>/spark-history-mcp.
func UserDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, appDirName), nil
}

var tools atomic.Pointer[ToolConfig]

// Tools returns the process-wide tool thresholds.
func Tools() ToolConfig {
	if t := tools.Load(); t != nil {
		return *t
	}
	return DefaultToolConfig()
}

// SetTools replaces the process-wide tool thresholds.
func SetTools(t ToolConfig) {
	tools.Store(&t)
}
