package calibre_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

type stubExecutor struct {
	responses map[string][]string
	failOn    string
	calls     [][]string
}

func (s *stubExecutor) Run(ctx context.Context, binary string, args []string, onStdout func(string)) error {
	s.calls = append(s.calls, append([]string(nil), args...))
	if len(args) == 0 {
		return errors.New("no args")
	}
	if args[0] == s.failOn {
		return errors.New("calibredb exited with status 1")
	}
	for _, line := range s.responses[args[0]] {
		onStdout(line)
	}
	return nil
}

func (s *stubExecutor) callsFor(command string) [][]string {
	var out [][]string
	for _, call := range s.calls {
		if call[0] == command {
			out = append(out, call)
		}
	}
	return out
}

const listPayload = `[
  {"id": 7, "title": "The Hobbit", "authors": "Tolkien, J.R.R.", "formats": ["/lib/hobbit.epub"], "tags": ["Fantasy"],
   "*audible_owned": null, "*audible_asin": null, "*format_status": "Ebook only"},
  {"id": 9, "title": "Dune", "authors": "Frank Herbert & Brian Herbert", "formats": [],
   "*audible_owned": true, "*audible_asin": "b002", "*audible_minutes": 1266, "*audible_match_score": 97,
   "*audible_purchase_date": "2019-07-03T00:00:00+00:00", "*format_status": "Audible only", "*audible_series": "Dune"}
]`

func fullColumns() []string {
	return []string{
		"audible_owned (1)", "audible_asin (2)", "audible_narrators (3)", "audible_minutes (4)",
		"audible_purchase_date (5)", "audible_match_score (6)", "format_status (7)", "audible_series (8)",
	}
}

func newClient(t *testing.T, exec *stubExecutor) *calibre.Client {
	t.Helper()
	client, err := calibre.New("calibredb", "/books", 5, calibre.WithExecutor(exec))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return client
}

func TestNewRequiresBinaryAndLibrary(t *testing.T) {
	if _, err := calibre.New("", "/books", 0); err == nil {
		t.Fatal("expected error without binary")
	}
	if _, err := calibre.New("calibredb", " ", 0); err == nil {
		t.Fatal("expected error without library")
	}
}

func TestListDecodesRecords(t *testing.T) {
	exec := &stubExecutor{responses: map[string][]string{
		"custom_columns": fullColumns(),
		"list":           strings.Split(listPayload, "\n"),
	}}
	client := newClient(t, exec)

	records, err := client.List(context.Background())
	if err != nil {
		t.Fatalf("List returned error: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	hobbit := records[0]
	if hobbit.ID != 7 || hobbit.Linked() || !hobbit.HasEbook() || hobbit.FormatStatus != calibre.FormatEbookOnly {
		t.Fatalf("unexpected hobbit record: %+v", hobbit)
	}
	dune := records[1]
	if dune.ASIN != "B002" || !dune.Owned || dune.Minutes != 1266 || dune.PurchaseDate != "2019-07-03" {
		t.Fatalf("unexpected dune record: %+v", dune)
	}
	if dune.MatchScore == nil || *dune.MatchScore != 97 {
		t.Fatalf("expected match score 97, got %v", dune.MatchScore)
	}
	if len(dune.Authors) != 2 || dune.Authors[1] != "Brian Herbert" {
		t.Fatalf("unexpected authors: %v", dune.Authors)
	}

	listCall := exec.callsFor("list")[0]
	joined := strings.Join(listCall, " ")
	if !strings.Contains(joined, "*audible_series") || strings.Contains(joined, "*audible_release_date") {
		t.Fatalf("expected only defined optional columns in list fields, got %q", joined)
	}
	if listCall[len(listCall)-2] != "--with-library" || listCall[len(listCall)-1] != "/books" {
		t.Fatalf("expected library flag at the end, got %v", listCall)
	}
	if got := len(exec.callsFor("custom_columns")); got != 1 {
		t.Fatalf("expected custom columns to be cached, got %d calls", got)
	}
}

func TestUpdateDropsUndefinedOptionalColumns(t *testing.T) {
	exec := &stubExecutor{responses: map[string][]string{"custom_columns": fullColumns()}}
	client := newClient(t, exec)

	asin := "B001"
	release := "2020-01-01"
	series := "Middle-earth"
	owned := true
	err := client.Update(context.Background(), 7, calibre.Patch{Owned: &owned, ASIN: &asin, ReleaseDate: &release, Series: &series, ClearScore: true})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	call := exec.callsFor("set_metadata")[0]
	joined := strings.Join(call, " ")
	for _, fragment := range []string{"set_metadata 7", "#audible_owned:Yes", "#audible_asin:B001", "#audible_match_score:", "#audible_series:Middle-earth"} {
		if !strings.Contains(joined, fragment) {
			t.Fatalf("expected %q in %q", fragment, joined)
		}
	}
	if strings.Contains(joined, "audible_release_date") {
		t.Fatalf("expected undefined optional column to be dropped, got %q", joined)
	}
}

func TestInsertParsesIDAndAppliesPatch(t *testing.T) {
	exec := &stubExecutor{responses: map[string][]string{
		"custom_columns": fullColumns(),
		"add":            {"Added book ids: 42"},
	}}
	client := newClient(t, exec)

	asin := "B003"
	status := calibre.FormatAudibleOnly
	id, err := client.Insert(context.Background(), calibre.Placeholder{
		Title:   "Good Omens",
		Authors: []string{"Terry Pratchett", "Neil Gaiman"},
		Tags:    []string{"Audible"},
		Patch:   calibre.Patch{ASIN: &asin, FormatStatus: &status},
	})
	if err != nil {
		t.Fatalf("Insert returned error: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected id 42, got %d", id)
	}
	add := strings.Join(exec.callsFor("add")[0], "|")
	if !strings.Contains(add, "--authors|Terry Pratchett & Neil Gaiman") || !strings.Contains(add, "--tags|Audible") {
		t.Fatalf("unexpected add args %q", add)
	}
	set := strings.Join(exec.callsFor("set_metadata")[0], " ")
	if !strings.Contains(set, "set_metadata 42") || !strings.Contains(set, "#format_status:Audible only") {
		t.Fatalf("unexpected set_metadata args %q", set)
	}
}

func TestStoreErrorsAreMarked(t *testing.T) {
	exec := &stubExecutor{responses: map[string][]string{"custom_columns": fullColumns()}, failOn: "set_metadata"}
	client := newClient(t, exec)
	asin := "B001"
	err := client.Update(context.Background(), 1, calibre.Patch{ASIN: &asin})
	if !errors.Is(err, services.ErrStoreAccess) {
		t.Fatalf("expected store access error, got %v", err)
	}

	exec = &stubExecutor{failOn: "custom_columns"}
	client = newClient(t, exec)
	if _, err := client.List(context.Background()); !errors.Is(err, services.ErrStoreAccess) {
		t.Fatalf("expected store access error from list, got %v", err)
	}
}

func TestColumnsParsesJSONForms(t *testing.T) {
	cases := map[string][]string{
		"object": {`{"audible_asin": {"num": 1}, "#format_status": {"num": 2}}`},
		"array":  {`[{"label": "audible_asin"}, {"label": "format_status"}]`},
		"lines":  {"audible_asin (1)", "format_status (2)"},
	}
	for name, lines := range cases {
		t.Run(name, func(t *testing.T) {
			client := newClient(t, &stubExecutor{responses: map[string][]string{"custom_columns": lines}})
			cols, err := client.Columns(context.Background())
			if err != nil {
				t.Fatalf("Columns returned error: %v", err)
			}
			if !cols.Has(calibre.ColumnASIN) || !cols.Has(calibre.ColumnFormatStatus) {
				t.Fatalf("unexpected columns %v", cols.Labels())
			}
		})
	}
}
