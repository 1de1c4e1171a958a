package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeCalibre(); err != nil {
		return err
	}
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSync()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeCalibre() error {
	if value, ok := os.LookupEnv("CALIBRE_LIBRARY"); ok && strings.TrimSpace(value) != "" {
		c.Calibre.Library = value
	}
	if value, ok := os.LookupEnv("CALIBREDB_BINARY"); ok && strings.TrimSpace(value) != "" {
		c.Calibre.Binary = value
	}
	c.Calibre.Binary = strings.TrimSpace(c.Calibre.Binary)
	if c.Calibre.Binary == "" {
		c.Calibre.Binary = defaultCalibreBinary
	}
	var err error
	if c.Calibre.Library, err = expandPath(strings.TrimSpace(c.Calibre.Library)); err != nil {
		return fmt.Errorf("calibre.library: %w", err)
	}
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Ledger.Path) == "" {
		c.Ledger.Path = filepath.Join(c.Paths.StateDir, defaultLedgerFile)
	}
	if c.Ledger.Path, err = expandPath(c.Ledger.Path); err != nil {
		return fmt.Errorf("ledger.path: %w", err)
	}
	if strings.TrimSpace(c.Sync.ReportRoot) == "" {
		c.Sync.ReportRoot = defaultReportRoot
	}
	if c.Sync.ReportRoot, err = expandPath(c.Sync.ReportRoot); err != nil {
		return fmt.Errorf("sync.report_root: %w", err)
	}
	if c.Logging.File, err = expandPath(strings.TrimSpace(c.Logging.File)); err != nil {
		return fmt.Errorf("logging.file: %w", err)
	}
	return nil
}

func (c *Config) normalizeSync() {
	tags := make([]string, 0, len(c.Sync.PlaceholderTags))
	seen := make(map[string]struct{}, len(c.Sync.PlaceholderTags))
	for _, tag := range c.Sync.PlaceholderTags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		tags = append(tags, tag)
	}
	c.Sync.PlaceholderTags = tags
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
