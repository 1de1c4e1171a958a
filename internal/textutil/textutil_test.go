package textutil

import (
	"math"
	"reflect"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Brontë", "bronte"},
		{"GARCÍA MÁRQUEZ", "garcia marquez"},
		{"Straße", "strasse"},
		{"Ærø", "aero"},
		{"ﬁnal", "final"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Fold(tt.in); got != tt.want {
			t.Errorf("Fold(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCollapseSpace(t *testing.T) {
	if got := CollapseSpace("  the   hobbit \t"); got != "the hobbit" {
		t.Fatalf("CollapseSpace() = %q", got)
	}
}

func TestTokenize(t *testing.T) {
	got := Tokenize("dune messiah: book 2")
	want := []string{"dune", "messiah", "book", "2"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Tokenize() = %v, want %v", got, want)
	}
}

func TestJaccard(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "the hobbit", "the hobbit", 1},
		{"both empty", "", "", 1},
		{"one empty", "dune", "", 0},
		{"half overlap", "dune", "dune messiah", 0.5},
		{"disjoint", "dune", "hobbit", 0},
		{"order independent", "ring lord", "lord ring", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Jaccard(NewTokenSet(tt.a), NewTokenSet(tt.b))
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Jaccard(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			if back := Jaccard(NewTokenSet(tt.b), NewTokenSet(tt.a)); back != got {
				t.Errorf("Jaccard not symmetric: %v vs %v", got, back)
			}
		})
	}
}

func TestTokenSetSorted(t *testing.T) {
	got := NewTokenSet("tolkien john ronald").Sorted()
	want := []string{"john", "ronald", "tolkien"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Sorted() = %v, want %v", got, want)
	}
}
