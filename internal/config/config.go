// Package config handles TOML configuration loading with environment variable substitution.
package config

import (
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the root configuration structure.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Refresh  RefreshConfig  `toml:"refresh"`
	Sources  SourcesConfig  `toml:"sources"`
}

type ServerConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	LogLevel string `toml:"log_level"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type RefreshConfig struct {
	Interval        time.Duration `toml:"interval"`
	EpisodesEnabled bool          `toml:"episodes_enabled"`
	EpisodeSeason   int           `toml:"episode_season"`
	EpisodeLimit    int           `toml:"episode_limit"`
}

type SourcesConfig struct {
	Wikipedia WikipediaConfig `toml:"wikipedia"`
	IMDB      IMDBConfig      `toml:"imdb"`
	TMDB      TMDBConfig      `toml:"tmdb"`
	TVmaze    TVmazeConfig    `toml:"tvmaze"`
	OMDB      OMDBConfig      `toml:"omdb"`
}

type WikipediaConfig struct {
	Enabled        bool          `toml:"enabled"`
	MinYear        int           `toml:"min_year"`
	FetchSummaries bool          `toml:"fetch_summaries"`
	SummaryDelay   time.Duration `toml:"summary_delay"`
}

type IMDBConfig struct {
	Enabled     bool          `toml:"enabled"`
	Queries     []string      `toml:"queries"`
	Limit       int           `toml:"limit"`
	DetailDelay time.Duration `toml:"detail_delay"`
}

type TMDBConfig struct {
	APIKey    string        `toml:"api_key"`
	PageLimit int           `toml:"page_limit"`
	PageDelay time.Duration `toml:"page_delay"`
}

type TVmazeConfig struct {
	Enabled   bool          `toml:"enabled"`
	PageLimit int           `toml:"page_limit"`
	PageDelay time.Duration `toml:"page_delay"`
}

type OMDBConfig struct {
	APIKey    string        `toml:"api_key"`
	Queries   []string      `toml:"queries"`
	PageLimit int           `toml:"page_limit"`
	PageDelay time.Duration `toml:"page_delay"`
}

// Load reads and parses the configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	// Substitute environment variables
	content, missing := substituteEnvVars(string(data))
	if len(missing) > 0 {
		return nil, &ConfigError{Path: path, Missing: missing}
	}

	var cfg Config
	md, err := toml.Decode(content, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	// Apply defaults
	if cfg.Server.Host == "" {
		cfg.Server.Host = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8590
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = "info"
	}
	if cfg.Database.Path == "" {
		cfg.Database.Path = "./data/teevee.db"
	}
	if cfg.Refresh.Interval == 0 {
		cfg.Refresh.Interval = 12 * time.Hour
	}
	if cfg.Refresh.EpisodeSeason == 0 {
		cfg.Refresh.EpisodeSeason = 1
	}
	if cfg.Refresh.EpisodeLimit == 0 {
		cfg.Refresh.EpisodeLimit = 25
	}

	// Scrape sources default to on; only an explicit enabled = false turns
	// one off. Keyed sources (tmdb, omdb) stay dormant without a key.
	if !md.IsDefined("refresh", "episodes_enabled") {
		cfg.Refresh.EpisodesEnabled = true
	}
	if !md.IsDefined("sources", "wikipedia", "enabled") {
		cfg.Sources.Wikipedia.Enabled = true
	}
	if !md.IsDefined("sources", "imdb", "enabled") {
		cfg.Sources.IMDB.Enabled = true
	}
	if !md.IsDefined("sources", "tvmaze", "enabled") {
		cfg.Sources.TVmaze.Enabled = true
	}
	if len(cfg.Sources.IMDB.Queries) == 0 {
		cfg.Sources.IMDB.Queries = []string{"star", "night"}
	}
	if len(cfg.Sources.OMDB.Queries) == 0 {
		cfg.Sources.OMDB.Queries = []string{"star", "night"}
	}

	return &cfg, nil
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
// and reports the names that resolved to nothing.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

func substituteEnvVars(content string) (string, []string) {
	var missing []string
	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := match[2 : len(match)-1] // Strip ${ and }
		if value, ok := os.LookupEnv(varName); ok {
			return value
		}
		missing = append(missing, varName)
		return match
	})
	return result, missing
}
