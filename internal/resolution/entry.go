package resolution

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/bergsfam/calibre-audible-integration/internal/report"
)

// Entry is one human-authored resolution.
type Entry struct {
	ASIN         string `csv:"asin" validate:"required,alphanum,max=20"`
	LibraryID    int    `csv:"calibre_id" validate:"gte=0"`
	CalibreTitle string `csv:"calibre_title" validate:"max=1024"`
	AudibleOnly  bool   `csv:"audible_only"`
	// Line is the mapping file line, 0 for command-line entries.
	Line int `csv:"-"`
}

// Target describes which of the three targets the entry names.
func (e Entry) Target() string {
	switch {
	case e.LibraryID > 0:
		return "calibre_id " + strconv.Itoa(e.LibraryID)
	case strings.TrimSpace(e.CalibreTitle) != "":
		return fmt.Sprintf("calibre_title %q", e.CalibreTitle)
	case e.AudibleOnly:
		return "audible_only"
	default:
		return "nothing"
	}
}

func (e Entry) targets() int {
	n := 0
	if e.LibraryID > 0 {
		n++
	}
	if strings.TrimSpace(e.CalibreTitle) != "" {
		n++
	}
	if e.AudibleOnly {
		n++
	}
	return n
}

var validate = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("csv"); name != "" && name != "-" {
			return name
		}
		return fld.Name
	})
	v.RegisterStructValidation(func(sl validator.StructLevel) {
		entry := sl.Current().Interface().(Entry)
		if entry.targets() != 1 {
			sl.ReportError(entry.LibraryID, "target", "target", "exactly_one", "")
		}
	}, Entry{})
	return v
}()

// Validate checks field formats and that exactly one target is set.
func (e Entry) Validate() error {
	err := validate.Struct(e)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}
	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, fe.Field()+" "+friendlyMessage(fe))
	}
	sort.Strings(messages)
	return errors.New(strings.Join(messages, "; "))
}

func friendlyMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "alphanum":
		return "must be letters and digits only"
	case "max":
		return "must not exceed " + fe.Param() + " characters"
	case "gte":
		return "must be greater than or equal to " + fe.Param()
	case "exactly_one":
		return "must name exactly one of calibre_id, calibre_title or audible_only"
	default:
		return "is invalid"
	}
}

// EntryFromRow converts a mapping row. Malformed numbers or flags are
// reported as errors for that row.
func EntryFromRow(row report.MappingRow) (Entry, error) {
	entry := Entry{
		ASIN:         strings.ToUpper(strings.TrimSpace(row.ASIN)),
		CalibreTitle: strings.TrimSpace(row.CalibreTitle),
		Line:         row.Line,
	}
	if raw := strings.TrimSpace(row.CalibreID); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil || id <= 0 {
			return entry, fmt.Errorf("calibre_id %q is not a positive integer", raw)
		}
		entry.LibraryID = id
	}
	flag, err := ParseFlag(row.AudibleOnly)
	if err != nil {
		return entry, err
	}
	entry.AudibleOnly = flag
	return entry, nil
}

// ParseFlag reads the audible_only column. Blank means false.
func ParseFlag(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y", "x":
		return true, nil
	default:
		return false, fmt.Errorf("audible_only %q is not a boolean", raw)
	}
}
