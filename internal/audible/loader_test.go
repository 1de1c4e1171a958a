package audible_test

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/audible"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

const sampleFeed = "\ufeffasin,title,subtitle,authors,narrators,runtime_length_min,purchase_date,release_date,series_title,series_sequence\n" +
	"b001,The Hobbit (Unabridged),,J.R.R. Tolkien,Andy Serkis,611,2021-03-04T17:11:22.843Z,2020-09-21,,\n" +
	"B002,Dune,Book 1,Frank Herbert,\"Scott Brick, Orlagh Cassidy\",1266.0,2019-07-03,,Dune,1\n" +
	"\n" +
	"B003,Good Omens,,Terry Pratchett & Neil Gaiman,,abc,not-a-date,,,\n"

func TestParseFeed(t *testing.T) {
	feed, err := audible.Parse(strings.NewReader(sampleFeed), "library.csv")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if feed.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", feed.Len())
	}

	hobbit := feed.Records[0]
	if hobbit.ASIN != "B001" {
		t.Fatalf("expected upper-cased asin, got %q", hobbit.ASIN)
	}
	if hobbit.RuntimeMinutes != 611 || hobbit.PurchaseDate != "2021-03-04" || hobbit.ReleaseDate != "2020-09-21" {
		t.Fatalf("unexpected hobbit fields: %+v", hobbit)
	}
	if hobbit.Line != 2 {
		t.Fatalf("expected line 2, got %d", hobbit.Line)
	}

	dune, ok := feed.Lookup(" b002 ")
	if !ok {
		t.Fatal("expected lookup by asin to succeed")
	}
	if dune.FullTitle() != "Dune: Book 1" {
		t.Fatalf("unexpected full title %q", dune.FullTitle())
	}
	if !reflect.DeepEqual(dune.Narrators, []string{"Scott Brick", "Orlagh Cassidy"}) {
		t.Fatalf("unexpected narrators: %v", dune.Narrators)
	}
	if dune.NarratorList() != "Scott Brick, Orlagh Cassidy" {
		t.Fatalf("unexpected narrator list %q", dune.NarratorList())
	}
	if dune.RuntimeMinutes != 1266 || dune.SeriesName != "Dune" || dune.SeriesSequence != "1" {
		t.Fatalf("unexpected dune fields: %+v", dune)
	}

	omens := feed.Records[2]
	if !reflect.DeepEqual(omens.Authors, []string{"Terry Pratchett", "Neil Gaiman"}) {
		t.Fatalf("unexpected authors: %v", omens.Authors)
	}
	if omens.RuntimeMinutes != 0 || omens.PurchaseDate != "" {
		t.Fatalf("expected unparseable values to be dropped, got %+v", omens)
	}
	if len(feed.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", feed.Warnings)
	}
}

func TestParseFeedErrors(t *testing.T) {
	cases := []struct {
		name     string
		content  string
		fragment string
	}{
		{"empty", "", "file is empty"},
		{"missing columns", "asin,name\nB001,x\n", "missing required column(s): title, authors"},
		{"empty asin", "asin,title,authors\n,Dune,Frank Herbert\n", "line 2: empty asin"},
		{"invalid asin", "asin,title,authors\nB-01,Dune,Frank Herbert\n", "invalid asin"},
		{"duplicate asin", "asin,title,authors\nB001,Dune,Frank Herbert\nb001,Dune,Frank Herbert\n", "duplicate asin B001"},
		{"ragged row", "asin,title,authors\nB001,Dune\n", "malformed row"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := audible.Parse(strings.NewReader(tc.content), "feed.csv")
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, services.ErrFeedParse) {
				t.Fatalf("expected feed parse marker, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.fragment) {
				t.Fatalf("expected %q in %q", tc.fragment, err.Error())
			}
		})
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := audible.LoadFile(filepath.Join(t.TempDir(), "absent.csv"))
	if !errors.Is(err, services.ErrFeedParse) || !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected feed parse error wrapping not-exist, got %v", err)
	}
}

func TestColumnAliases(t *testing.T) {
	content := "ASIN,Title,Author,Runtime,Series_Name\nB010,Mort,Terry Pratchett,420,Discworld\n"
	feed, err := audible.Parse(strings.NewReader(content), "alias.csv")
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	rec := feed.Records[0]
	if rec.RuntimeMinutes != 420 || rec.SeriesName != "Discworld" || len(rec.Authors) != 1 {
		t.Fatalf("unexpected record: %+v", rec)
	}
}

func TestFullTitleSkipsRedundantSubtitle(t *testing.T) {
	rec := audible.Record{Title: "Dune Messiah: Dune Chronicles, Book 2", Subtitle: "Dune Chronicles, Book 2"}
	if got := rec.FullTitle(); got != rec.Title {
		t.Fatalf("expected title unchanged, got %q", got)
	}
}

func TestParseDate(t *testing.T) {
	cases := map[string]string{
		"2020-01-02":               "2020-01-02",
		"2020-01-02T10:00:00Z":     "2020-01-02",
		"2020-01-02T10:00:00.123Z": "2020-01-02",
		"2020-01-02 10:00:00":      "2020-01-02",
	}
	for in, want := range cases {
		got, ok := audible.ParseDate(in)
		if !ok || got != want {
			t.Errorf("ParseDate(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
	if _, ok := audible.ParseDate("03/04/2020"); ok {
		t.Error("expected unsupported layout to fail")
	}
}
