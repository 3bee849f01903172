/*
Package config manages TOML config for the commune index builder.

Values come, in increasing priority, from built-in defaults, the TOML file,
environment variables (optionally seeded from a .env file), then command
line flags applied by the caller.
*/
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/bastiangx/communeindex/internal/utils"
	"github.com/bastiangx/communeindex/pkg/normalize"
	"github.com/bastiangx/communeindex/pkg/shard"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
)

// Environment variables read by ApplyEnv.
const (
	EnvCommunesURL     = "COMMUNEINDEX_COMMUNES_URL"
	EnvDepartementsURL = "COMMUNEINDEX_DEPARTEMENTS_URL"
	EnvOutputDir       = "COMMUNEINDEX_OUTPUT_DIR"
	EnvFetchTimeout    = "COMMUNEINDEX_FETCH_TIMEOUT"
)

const maxDepthLimit = 16

// Config holds the entire config structure
type Config struct {
	Index   IndexConfig   `toml:"index"`
	Fetch   FetchConfig   `toml:"fetch"`
	Output  OutputConfig  `toml:"output"`
	Sitemap SitemapConfig `toml:"sitemap"`
	CLI     CliConfig     `toml:"cli"`
}

// IndexConfig drives the partitioner.
type IndexConfig struct {
	Threshold int    `toml:"threshold"`
	MaxDepth  int    `toml:"max_depth"`
	Alphabet  string `toml:"alphabet"`
	Workers   int    `toml:"workers"`
	FailFast  bool   `toml:"fail_fast"`
}

// FetchConfig holds the two dataset sources.
type FetchConfig struct {
	CommunesURL     string `toml:"communes_url"`
	DepartementsURL string `toml:"departements_url"`
	TimeoutSeconds  int    `toml:"timeout_seconds"`
	CacheDir        string `toml:"cache_dir"`
}

// OutputConfig places the shards and manifest.
type OutputConfig struct {
	Dir      string `toml:"dir"`
	ShardDir string `toml:"shard_dir"`
	Manifest string `toml:"manifest"`
	Format   string `toml:"format"`
}

// SitemapConfig holds sitemap generation options.
type SitemapConfig struct {
	Enabled     bool     `toml:"enabled"`
	BaseURL     string   `toml:"base_url"`
	Dir         string   `toml:"dir"`
	Template    string   `toml:"template"`
	SearchTypes []string `toml:"search_types"`
	SortOrder   string   `toml:"sort_order"`
}

// CliConfig holds inspector options.
type CliConfig struct {
	DefaultLimit int `toml:"default_limit"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Index: IndexConfig{
			Threshold: 800,
			MaxDepth:  7,
			Alphabet:  string(normalize.DefaultAlphabet),
			Workers:   1,
			FailFast:  true,
		},
		Fetch: FetchConfig{
			CommunesURL:     "https://geo.api.gouv.fr/communes?boost=population&fields=code,nom,codeDepartement,centre,codesPostaux",
			DepartementsURL: "https://vitemadose.gitlab.io/vitemadose/departements.json",
			TimeoutSeconds:  60,
		},
		Output: OutputConfig{
			Dir:      "public",
			ShardDir: "autocomplete-cache",
			Manifest: "autocompletes.json",
			Format:   "json",
		},
		Sitemap: SitemapConfig{
			Enabled:     true,
			BaseURL:     "https://trouverunefresque.org",
			Dir:         "sitemaps",
			SearchTypes: []string{"standard", "atelier", "formation", "junior"},
			SortOrder:   "distance",
		},
		CLI: CliConfig{
			DefaultLimit: 24,
		},
	}
}

// FetchTimeout returns the fetch timeout as a duration.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Fetch.TimeoutSeconds) * time.Second
}

// ShardFormat returns the parsed output format.
func (c *Config) ShardFormat() shard.Format {
	f, err := shard.ParseFormat(c.Output.Format)
	if err != nil {
		return shard.FormatJSON
	}
	return f
}

// GetDefaultConfigPath returns the default path for config.toml
func GetDefaultConfigPath() string {
	return utils.NewPathResolver().GetConfigPath("config.toml")
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/communeindex/config.toml
// 3. Builtin defaults
// The environment is applied on top in every case.
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	config, path := loadFile(customConfigPath)
	LoadDotEnv("")
	config.ApplyEnv()
	config.Validate()
	return config, path, nil
}

func loadFile(customConfigPath string) (*Config, string) {
	if customConfigPath != "" {
		if _, statErr := os.Stat(customConfigPath); statErr == nil {
			config, err := LoadConfig(customConfigPath)
			if err != nil {
				log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
			} else {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath
			}
		} else {
			log.Warnf("Custom config file not found at %s: %v. Trying default path...", customConfigPath, statErr)
		}
	}

	defaultPath := GetDefaultConfigPath()
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at default path %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), ""
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	configDir := filepath.Dir(configPath)

	if err := utils.EnsureDir(configDir); err != nil {
		log.Warnf("Failed to create config directory %s: %v. Using built-in defaults...", configDir, err)
		return DefaultConfig(), nil
	}

	if !utils.FileExists(configPath) {
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			log.Warnf("Failed to create default config file at %s: %v. Using built-in defaults...", configPath, err)
			return DefaultConfig(), nil
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}

	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()

	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		return tryPartialParse(configPath)
	}
	return config, nil
}

// tryPartialParse keeps every well-typed value from a file the strict decode rejected
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	tempConfig, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("Could not parse any valid configuration from %s: %v. Using all defaults.", configPath, err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(tempConfig, "index"); ok {
		extractIndexConfig(section, &config.Index)
	}
	if section, ok := utils.ExtractSection(tempConfig, "fetch"); ok {
		extractFetchConfig(section, &config.Fetch)
	}
	if section, ok := utils.ExtractSection(tempConfig, "output"); ok {
		extractOutputConfig(section, &config.Output)
	}
	if section, ok := utils.ExtractSection(tempConfig, "sitemap"); ok {
		extractSitemapConfig(section, &config.Sitemap)
	}
	if section, ok := utils.ExtractSection(tempConfig, "cli"); ok {
		if val, ok := utils.ExtractInt64(section, "default_limit"); ok {
			config.CLI.DefaultLimit = val
		}
	}
	return config, nil
}

func extractIndexConfig(data map[string]any, index *IndexConfig) {
	if val, ok := utils.ExtractInt64(data, "threshold"); ok {
		index.Threshold = val
	}
	if val, ok := utils.ExtractInt64(data, "max_depth"); ok {
		index.MaxDepth = val
	}
	if val, ok := utils.ExtractString(data, "alphabet"); ok {
		index.Alphabet = val
	}
	if val, ok := utils.ExtractInt64(data, "workers"); ok {
		index.Workers = val
	}
	if val, ok := utils.ExtractBool(data, "fail_fast"); ok {
		index.FailFast = val
	}
}

func extractFetchConfig(data map[string]any, fetch *FetchConfig) {
	if val, ok := utils.ExtractString(data, "communes_url"); ok {
		fetch.CommunesURL = val
	}
	if val, ok := utils.ExtractString(data, "departements_url"); ok {
		fetch.DepartementsURL = val
	}
	if val, ok := utils.ExtractInt64(data, "timeout_seconds"); ok {
		fetch.TimeoutSeconds = val
	}
	if val, ok := utils.ExtractString(data, "cache_dir"); ok {
		fetch.CacheDir = val
	}
}

func extractOutputConfig(data map[string]any, output *OutputConfig) {
	if val, ok := utils.ExtractString(data, "dir"); ok {
		output.Dir = val
	}
	if val, ok := utils.ExtractString(data, "shard_dir"); ok {
		output.ShardDir = val
	}
	if val, ok := utils.ExtractString(data, "manifest"); ok {
		output.Manifest = val
	}
	if val, ok := utils.ExtractString(data, "format"); ok {
		output.Format = val
	}
}

func extractSitemapConfig(data map[string]any, sitemap *SitemapConfig) {
	if val, ok := utils.ExtractBool(data, "enabled"); ok {
		sitemap.Enabled = val
	}
	if val, ok := utils.ExtractString(data, "base_url"); ok {
		sitemap.BaseURL = val
	}
	if val, ok := utils.ExtractString(data, "dir"); ok {
		sitemap.Dir = val
	}
	if val, ok := utils.ExtractString(data, "template"); ok {
		sitemap.Template = val
	}
	if val, ok := utils.ExtractStringSlice(data, "search_types"); ok {
		sitemap.SearchTypes = val
	}
	if val, ok := utils.ExtractString(data, "sort_order"); ok {
		sitemap.SortOrder = val
	}
}

// LoadDotEnv reads a .env file into the process environment without
// overriding variables that are already set. A missing file is not an error.
func LoadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if !utils.FileExists(path) {
		return
	}
	if err := godotenv.Load(path); err != nil {
		log.Warnf("Failed to load %s: %v", path, err)
		return
	}
	log.Debugf("Loaded environment from %s", path)
}

// ApplyEnv overrides file values with COMMUNEINDEX_* variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvCommunesURL); v != "" {
		c.Fetch.CommunesURL = v
	}
	if v := os.Getenv(EnvDepartementsURL); v != "" {
		c.Fetch.DepartementsURL = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.Output.Dir = v
	}
	if v := os.Getenv(EnvFetchTimeout); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			log.Warnf("Ignoring %s=%q: %v", EnvFetchTimeout, v, err)
		} else {
			c.Fetch.TimeoutSeconds = secs
		}
	}
}

// Validate resets out-of-range values to their defaults and reports whether
// anything had to change.
func (c *Config) Validate() bool {
	def := DefaultConfig()
	ok := true
	if c.Index.Threshold < 1 {
		log.Warnf("index.threshold=%d must be >= 1, using %d", c.Index.Threshold, def.Index.Threshold)
		c.Index.Threshold = def.Index.Threshold
		ok = false
	}
	if c.Index.MaxDepth < 1 || c.Index.MaxDepth > maxDepthLimit {
		log.Warnf("index.max_depth=%d must be in [1,%d], using %d", c.Index.MaxDepth, maxDepthLimit, def.Index.MaxDepth)
		c.Index.MaxDepth = def.Index.MaxDepth
		ok = false
	}
	if err := normalize.Alphabet(c.Index.Alphabet).Validate(); err != nil {
		log.Warnf("index.alphabet: %v, using default", err)
		c.Index.Alphabet = def.Index.Alphabet
		ok = false
	}
	if c.Index.Workers < 1 {
		log.Warnf("index.workers=%d must be >= 1, using %d", c.Index.Workers, def.Index.Workers)
		c.Index.Workers = def.Index.Workers
		ok = false
	}
	if c.Fetch.TimeoutSeconds < 1 {
		log.Warnf("fetch.timeout_seconds=%d must be >= 1, using %d", c.Fetch.TimeoutSeconds, def.Fetch.TimeoutSeconds)
		c.Fetch.TimeoutSeconds = def.Fetch.TimeoutSeconds
		ok = false
	}
	if _, err := shard.ParseFormat(c.Output.Format); err != nil {
		log.Warnf("output.format: %v, using %s", err, def.Output.Format)
		c.Output.Format = def.Output.Format
		ok = false
	}
	if c.Output.Dir == "" {
		c.Output.Dir = def.Output.Dir
	}
	if c.Output.ShardDir == "" {
		c.Output.ShardDir = def.Output.ShardDir
	}
	if c.Output.Manifest == "" {
		c.Output.Manifest = def.Output.Manifest
	}
	if len(c.Sitemap.SearchTypes) == 0 {
		c.Sitemap.SearchTypes = def.Sitemap.SearchTypes
	}
	if c.Sitemap.SortOrder == "" {
		c.Sitemap.SortOrder = def.Sitemap.SortOrder
	}
	if c.Sitemap.BaseURL == "" {
		c.Sitemap.BaseURL = def.Sitemap.BaseURL
	}
	if c.Sitemap.Dir == "" {
		c.Sitemap.Dir = def.Sitemap.Dir
	}
	if c.CLI.DefaultLimit < 1 {
		c.CLI.DefaultLimit = def.CLI.DefaultLimit
	}
	return ok
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		return "builtin defaults"
	}
	return utils.GetAbsolutePath(configPath)
}
