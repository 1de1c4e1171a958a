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
	cfg           *config.Config
	store         *testsupport.MemoryStore
	configPath    string
	feedPath      string
	ambiguousPath string
	baseDir       string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("CALIBRE_LIBRARY", "")
	t.Setenv("CALIBREDB_BINARY", "")

	configPath := filepath.Join(base, "config.toml")
	content := fmt.Sprintf(`[calibre]
library = %q

[sync]
placeholder_tags = ["Audible", "Review"]

[paths]
state_dir = %q

[ledger]
enabled = true
path = %q

[logging]
level = "error"
`, cfg.Calibre.Library, cfg.Paths.StateDir, cfg.Ledger.Path)
	testsupport.WriteFile(t, configPath, content)

	store := testsupport.NewMemoryStore(
		calibre.Record{ID: 7, Title: "The Hobbit", Authors: []string{"J.R.R. Tolkien"}, Formats: []string{"EPUB"}, ASIN: "B001", Owned: true},
		calibre.Record{ID: 8, Title: "Dune", Authors: []string{"Frank Herbert"}, Formats: []string{"EPUB"}},
		calibre.Record{ID: 9, Title: "Dune", Authors: []string{"Frank Herbert"}, Formats: []string{"PDF"}},
	)
	feedPath := testsupport.WriteFeed(t, base,
		"B001,The Hobbit (Unabridged),,J.R.R. Tolkien,Andy Serkis,643,2021-03-04,,Middle-earth,1",
		"B002,Dune,,Frank Herbert,Scott Brick,1263,2020-01-01,,,",
		`B003,Good Omens,,"Terry Pratchett, Neil Gaiman",Martin Jarvis,,,,,`,
	)
	ambiguousPath := testsupport.WriteFile(t, filepath.Join(base, "reports", "ambiguous.csv"),
		"asin,audible_title,audible_authors,top_score,candidates\n"+
			"B002,Dune,Frank Herbert,100,8:100:Dune; 9:100:Dune\n")

	return &cliTestEnv{
		cfg:           cfg,
		store:         store,
		configPath:    configPath,
		feedPath:      feedPath,
		ambiguousPath: ambiguousPath,
		baseDir:       base,
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

func writeMapping(t *testing.T, env *cliTestEnv, rows ...string) string {
	t.Helper()
	lines := append([]string{"asin,calibre_id,calibre_title,audible_only"}, rows...)
	return testsupport.WriteFile(t, filepath.Join(env.baseDir, "mapping.csv"), strings.Join(lines, "\n")+"\n")
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
