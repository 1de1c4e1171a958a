package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrFeedParse           = errors.New("feed parse error")
	ErrStoreAccess         = errors.New("library store error")
	ErrSchemaMismatch      = errors.New("library schema mismatch")
	ErrAmbiguousResolution = errors.New("ambiguous resolution")
	ErrValidation          = errors.New("validation error")
	ErrConfiguration       = errors.New("configuration error")
	ErrNotFound            = errors.New("not found")
)

// Process exit codes reported by the command line tools.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitFeedParse     = 3
	ExitSchema        = 4
	ExitStore         = 5
	ExitResolution    = 6
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrStoreAccess
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps an error returned by a command to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return ExitConfiguration
	case errors.Is(err, ErrFeedParse):
		return ExitFeedParse
	case errors.Is(err, ErrSchemaMismatch):
		return ExitSchema
	case errors.Is(err, ErrStoreAccess):
		return ExitStore
	case errors.Is(err, ErrAmbiguousResolution), errors.Is(err, ErrNotFound):
		return ExitResolution
	default:
		return ExitFailure
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "operation failed"
	}
	return strings.Join(parts, ": ")
}
