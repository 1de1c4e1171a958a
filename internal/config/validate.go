package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCalibre(); err != nil {
		return err
	}
	if err := c.validateMatching(); err != nil {
		return err
	}
	if err := c.validateReport(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateCalibre() error {
	if c.Calibre.Library == "" {
		return errors.New("calibre.library must be set (or export CALIBRE_LIBRARY)")
	}
	if c.Calibre.TimeoutSeconds < 0 {
		return errors.New("calibre.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateMatching() error {
	return ValidateThresholds(c.Matching.MatchThreshold, c.Matching.ReviewThreshold, c.Matching.TitleWeight)
}

// ValidateThresholds checks a threshold pair and title weight. It is exported so
// command flags that override the configured values can be checked the same way.
func ValidateThresholds(match, review, titleWeight int) error {
	if match < 0 || match > 100 {
		return fmt.Errorf("matching.match_threshold must be between 0 and 100, got %d", match)
	}
	if review < 0 || review > 100 {
		return fmt.Errorf("matching.review_threshold must be between 0 and 100, got %d", review)
	}
	if review > match {
		return fmt.Errorf("matching.review_threshold (%d) must not exceed matching.match_threshold (%d)", review, match)
	}
	if titleWeight < 0 || titleWeight > 100 {
		return fmt.Errorf("matching.title_weight must be between 0 and 100, got %d", titleWeight)
	}
	return nil
}

func (c *Config) validateReport() error {
	if c.Report.CandidateLimit < 1 {
		return errors.New("report.candidate_limit must be at least 1")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
