package config

import (
	"path/filepath"

	"github.com/adrg/xdg"
)

const (
	defaultLibrary            = "~/Calibre"
	defaultCalibreBinary      = "calibredb"
	defaultCalibreTimeout     = 120
	defaultMatchThreshold     = 90
	defaultReviewThreshold    = 75
	defaultTitleWeight        = 70
	defaultCreatePlaceholders = true
	defaultDryRun             = true
	defaultMarkEbookOnly      = true
	defaultPlaceholderTag     = "Audible"
	defaultReportRoot         = "."
	defaultCandidateLimit     = 5
	defaultLedgerEnabled      = true
	defaultLedgerFile         = "ledger.db"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Calibre: Calibre{
			Library:        defaultLibrary,
			Binary:         defaultCalibreBinary,
			TimeoutSeconds: defaultCalibreTimeout,
		},
		Matching: Matching{
			MatchThreshold:  defaultMatchThreshold,
			ReviewThreshold: defaultReviewThreshold,
			TitleWeight:     defaultTitleWeight,
		},
		Sync: Sync{
			CreatePlaceholders: defaultCreatePlaceholders,
			DryRun:             defaultDryRun,
			MarkEbookOnly:      defaultMarkEbookOnly,
			PlaceholderTags:    []string{defaultPlaceholderTag},
			ReportRoot:         defaultReportRoot,
		},
		Report: Report{
			CandidateLimit: defaultCandidateLimit,
		},
		Paths: Paths{
			StateDir: defaultStateDir(),
		},
		Ledger: Ledger{
			Enabled: defaultLedgerEnabled,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}

func defaultStateDir() string {
	xdg.Reload()
	return filepath.Join(xdg.StateHome, appDirName)
}
