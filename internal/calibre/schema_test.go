package calibre

import (
	"errors"
	"strings"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

func TestCheckSchema(t *testing.T) {
	full := NewColumnSet("#audible_owned", "audible_asin", "audible_narrators", "audible_minutes",
		"audible_purchase_date", "audible_match_score", "*format_status")
	if err := CheckSchema(full); err != nil {
		t.Fatalf("expected complete schema to pass, got %v", err)
	}

	partial := NewColumnSet("audible_asin", "format_status")
	err := CheckSchema(partial)
	if !errors.Is(err, services.ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
	if !strings.Contains(err.Error(), "audible_owned") || strings.Contains(err.Error(), "audible_series") {
		t.Fatalf("expected only required columns to be reported, got %q", err.Error())
	}
}

func TestDeriveFormatStatus(t *testing.T) {
	cases := []struct {
		ebook, audio bool
		want         FormatStatus
	}{
		{true, true, FormatBoth},
		{false, true, FormatAudibleOnly},
		{true, false, FormatEbookOnly},
		{false, false, FormatUnknown},
	}
	for _, tc := range cases {
		if got := DeriveFormatStatus(tc.ebook, tc.audio); got != tc.want {
			t.Errorf("DeriveFormatStatus(%v,%v) = %q want %q", tc.ebook, tc.audio, got, tc.want)
		}
	}
	if ParseFormatStatus("audible ONLY") != FormatAudibleOnly || ParseFormatStatus("bogus") != "" {
		t.Fatal("unexpected ParseFormatStatus result")
	}
}

func TestPatchFieldsAndApply(t *testing.T) {
	score := 88
	minutes := 300
	patch := Patch{MatchScore: &score, Minutes: &minutes}
	fields := patch.Fields()
	if len(fields) != 2 || fields[0].Column != ColumnMinutes || fields[1].Value != "88" {
		t.Fatalf("unexpected fields %+v", fields)
	}

	rec := Record{ID: 1}
	patch.Apply(&rec)
	if rec.Minutes != 300 || rec.MatchScore == nil || *rec.MatchScore != 88 {
		t.Fatalf("unexpected record after apply: %+v", rec)
	}
	score = 1
	if *rec.MatchScore != 88 {
		t.Fatal("expected applied score to be copied")
	}

	Patch{ClearScore: true}.Apply(&rec)
	if rec.MatchScore != nil {
		t.Fatal("expected score cleared")
	}
	if !(Patch{}).Empty() {
		t.Fatal("expected zero patch to be empty")
	}
}

func TestParseAddedID(t *testing.T) {
	cases := map[string]int{
		"Added book ids: 15":      15,
		"Added book ids: 15, 16":  15,
		"Book added with id 1234": 1234,
	}
	for in, want := range cases {
		got, err := parseAddedID([]string{in})
		if err != nil || got != want {
			t.Errorf("parseAddedID(%q) = %d,%v want %d", in, got, err, want)
		}
	}
	if _, err := parseAddedID([]string{"nothing here"}); err == nil {
		t.Error("expected error without an id")
	}
}
