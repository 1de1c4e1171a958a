package identification

import "testing"

func TestNormalizeTitle(t *testing.T) {
	cases := []struct {
		raw  string
		full string
		main string
	}{
		{"The Hobbit (Unabridged)", "the hobbit", "the hobbit"},
		{"The Hobbit", "the hobbit", "the hobbit"},
		{"  Les Misérables  ", "les miserables", "les miserables"},
		{"Dune: Book One", "dune book one", "dune"},
		{"Gone Girl: A Novel", "gone girl", "gone girl"},
		{"Project Hail Mary - A Novel", "project hail mary", "project hail mary"},
		{"Pride & Prejudice [Dramatized Adaptation]", "pride and prejudice", "pride and prejudice"},
		{"The Shining, Collector's Edition", "the shining", "the shining"},
		{"Spider-Man", "spider man", "spider man"},
		{"Unabridged", "unabridged", "unabridged"},
		{"(Unabridged)", "", ""},
	}
	for _, tc := range cases {
		got := NormalizeTitle(tc.raw)
		if got.Full != tc.full || got.Main != tc.main {
			t.Errorf("NormalizeTitle(%q) = %+v, want {%q %q}", tc.raw, got, tc.full, tc.main)
		}
	}
}

func TestNormalizeAuthors(t *testing.T) {
	cases := []struct {
		name string
		a, b []string
	}{
		{"initials and inversion", []string{"J.R.R. Tolkien"}, []string{"Tolkien, J.R.R."}},
		{"spaced initials", []string{"J. R. R. Tolkien"}, []string{"Tolkien, J.R.R."}},
		{"list forms", []string{"J. Smith & A. Jones"}, []string{"Jones, A.; Smith, J."}},
		{"split entries", []string{"A. Jones", "J. Smith"}, []string{"Smith, J. & Jones, A."}},
		{"diacritics", []string{"Charlotte Brontë"}, []string{"Bronte, Charlotte"}},
		{"particles", []string{"Ursula K. Le Guin"}, []string{"Le Guin, Ursula K."}},
		{"suffix and role", []string{"Martin Luther King Jr."}, []string{"King, Martin Luther (Editor)"}},
		{"dedupe", []string{"Frank Herbert", "Herbert, Frank"}, []string{"Frank Herbert"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			left, right := NormalizeAuthors(tc.a), NormalizeAuthors(tc.b)
			if left != right {
				t.Fatalf("expected %q and %q to match", left, right)
			}
			if left == "" {
				t.Fatal("expected non-empty canonical authors")
			}
		})
	}
}

func TestCanonicalAuthorsShape(t *testing.T) {
	got := CanonicalAuthors([]string{"Neil Gaiman and Terry Pratchett"})
	want := []string{"gaiman, neil", "pratchett, terry"}
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
	if got := NormalizeAuthors([]string{"Tolkien, J.R.R."}); got != "tolkien, jrr" {
		t.Fatalf("unexpected canonical form %q", got)
	}
	if got := CanonicalAuthors([]string{"Stephen King, Peter Straub"}); len(got) != 2 {
		t.Fatalf("expected comma-separated full names to split, got %v", got)
	}
}
