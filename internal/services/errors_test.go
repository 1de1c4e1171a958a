package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrStoreAccess, "apply", "set_metadata", "update failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrStoreAccess) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"apply", "set_metadata", "update failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutCause(t *testing.T) {
	err := services.Wrap(services.ErrFeedParse, "", "", "", nil)
	if !errors.Is(err, services.ErrFeedParse) {
		t.Fatalf("expected feed parse marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "operation failed") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestExitCodeMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, services.ExitOK},
		{"config", services.Wrap(services.ErrConfiguration, "config", "load", "bad", nil), services.ExitConfiguration},
		{"feed", services.Wrap(services.ErrFeedParse, "load", "feed", "bad row", nil), services.ExitFeedParse},
		{"schema", fmt.Errorf("check: %w", services.ErrSchemaMismatch), services.ExitSchema},
		{"store", services.Wrap(services.ErrStoreAccess, "apply", "", "", errors.New("io")), services.ExitStore},
		{"resolution", services.Wrap(services.ErrAmbiguousResolution, "resolve", "", "", nil), services.ExitResolution},
		{"other", errors.New("plain"), services.ExitFailure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := services.ExitCode(tc.err); got != tc.want {
				t.Fatalf("ExitCode() = %d, want %d", got, tc.want)
			}
		})
	}
}
