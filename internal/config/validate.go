// internal/config/validate.go
package config

import "fmt"

var validLogLevels = map[string]bool{
	"debug": true, "info": true, "warn": true, "error": true, "": true,
}

// Validate checks the configuration for errors.
// Returns a slice of error messages (empty if valid).
func (c *Config) Validate() []string {
	var errs []string

	// Server validation
	if c.Server.Port != 0 && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs = append(errs, fmt.Sprintf("server.port: must be between 1 and 65535, got %d", c.Server.Port))
	}
	if !validLogLevels[c.Server.LogLevel] {
		errs = append(errs, fmt.Sprintf("server.log_level: must be one of debug, info, warn, error; got %q", c.Server.LogLevel))
	}

	// Refresh validation
	if c.Refresh.Interval < 0 {
		errs = append(errs, "refresh.interval: must not be negative")
	}
	if c.Refresh.EpisodeSeason < 0 {
		errs = append(errs, fmt.Sprintf("refresh.episode_season: must not be negative, got %d", c.Refresh.EpisodeSeason))
	}
	if c.Refresh.EpisodeLimit < 0 {
		errs = append(errs, fmt.Sprintf("refresh.episode_limit: must not be negative, got %d", c.Refresh.EpisodeLimit))
	}

	// Source validation
	if c.Sources.Wikipedia.MinYear < 0 {
		errs = append(errs, fmt.Sprintf("sources.wikipedia.min_year: must not be negative, got %d", c.Sources.Wikipedia.MinYear))
	}
	if c.Sources.TMDB.PageLimit < 0 {
		errs = append(errs, fmt.Sprintf("sources.tmdb.page_limit: must not be negative, got %d", c.Sources.TMDB.PageLimit))
	}
	if c.Sources.TVmaze.PageLimit < 0 {
		errs = append(errs, fmt.Sprintf("sources.tvmaze.page_limit: must not be negative, got %d", c.Sources.TVmaze.PageLimit))
	}
	if c.Sources.OMDB.PageLimit < 0 {
		errs = append(errs, fmt.Sprintf("sources.omdb.page_limit: must not be negative, got %d", c.Sources.OMDB.PageLimit))
	}
	for _, query := range c.Sources.IMDB.Queries {
		if query == "" {
			errs = append(errs, "sources.imdb.queries: empty query")
			break
		}
	}

	return errs
}
