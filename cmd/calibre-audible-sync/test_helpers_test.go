package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/config"
	"github.com/bergsfam/calibre-audible-integration/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *testsupport.MemoryStore
	configPath string
	feedPath   string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(homeDir, ".config"))
	t.Setenv("CALIBRE_LIBRARY", "")
	t.Setenv("CALIBREDB_BINARY", "")

	configPath := filepath.Join(homeDir, ".config", "calibre-audible", "config.toml")
	writeTestConfig(t, configPath, cfg)

	store := testsupport.NewMemoryStore(
		calibre.Record{ID: 7, Title: "The Hobbit", Authors: []string{"Tolkien, J.R.R."}, Formats: []string{"EPUB"}},
		calibre.Record{ID: 8, Title: "Dune", Authors: []string{"Frank Herbert"}, Formats: []string{"EPUB"}},
		calibre.Record{ID: 9, Title: "Dune", Authors: []string{"Frank Herbert"}, Formats: []string{"PDF"}},
	)
	feedPath := testsupport.WriteFeed(t, base,
		"B001,The Hobbit (Unabridged),,J.R.R. Tolkien,Andy Serkis,643,2021-03-04,,Middle-earth,1",
		"B002,Dune,,Frank Herbert,Scott Brick,1263,2020-01-01,,,",
		`B003,Good Omens,,"Terry Pratchett, Neil Gaiman",Martin Jarvis,,,,,`,
	)

	return &cliTestEnv{
		cfg:        cfg,
		store:      store,
		configPath: configPath,
		feedPath:   feedPath,
		baseDir:    base,
	}
}

func (env *cliTestEnv) factory(*config.Config, *slog.Logger) (calibre.Store, error) {
	return env.store, nil
}

func runCLI(t *testing.T, env *cliTestEnv, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommandWithStore(env.factory)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[calibre]
library = %q
binary = "calibredb"

[sync]
dry_run = false
report_root = %q

[paths]
state_dir = %q

[ledger]
enabled = true
path = %q

[logging]
level = "error"
`, cfg.Calibre.Library, cfg.Sync.ReportRoot, cfg.Paths.StateDir, cfg.Ledger.Path)
	testsupport.WriteFile(t, path, content)
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
