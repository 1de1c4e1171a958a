package calibre

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// Store is the library access the reconciliation pipeline needs.
type Store interface {
	Columns(ctx context.Context) (ColumnSet, error)
	List(ctx context.Context) ([]Record, error)
	Update(ctx context.Context, id int, patch Patch) error
	Insert(ctx context.Context, placeholder Placeholder) (int, error)
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger sets the logger used for command tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client wraps calibredb interactions.
type Client struct {
	binary  string
	library string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger

	mu      sync.Mutex
	columns ColumnSet
}

// New constructs a calibredb client for the library at libraryPath.
func New(binary, libraryPath string, timeoutSeconds int, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("calibredb binary required")
	}
	libraryPath = strings.TrimSpace(libraryPath)
	if libraryPath == "" {
		return nil, errors.New("calibre library path required")
	}
	client := &Client{
		binary:  binary,
		library: libraryPath,
		timeout: time.Duration(timeoutSeconds) * time.Second,
		exec:    commandExecutor{},
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "calibredb")
	return client, nil
}

// Library returns the library path the client operates on.
func (c *Client) Library() string {
	return c.library
}

// Columns returns the custom columns defined in the library. The result is
// cached for the lifetime of the client.
func (c *Client) Columns(ctx context.Context) (ColumnSet, error) {
	c.mu.Lock()
	cached := c.columns
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	lines, err := c.run(ctx, "custom_columns")
	if err != nil {
		return nil, services.Wrap(services.ErrStoreAccess, "calibre", "custom_columns", c.library, err)
	}
	columns := parseCustomColumns(lines)

	c.mu.Lock()
	c.columns = columns
	c.mu.Unlock()
	return columns, nil
}

// List reads every record with the annotation columns the library defines.
func (c *Client) List(ctx context.Context) ([]Record, error) {
	columns, err := c.Columns(ctx)
	if err != nil {
		return nil, err
	}
	fields := []string{"id", "title", "authors", "formats", "tags"}
	for _, spec := range Columns {
		if columns.Has(spec.Label) {
			fields = append(fields, "*"+spec.Label)
		}
	}
	lines, err := c.run(ctx, "list", "--for-machine", "--fields", strings.Join(fields, ","))
	if err != nil {
		return nil, services.Wrap(services.ErrStoreAccess, "calibre", "list", c.library, err)
	}
	records, err := parseList(strings.Join(lines, "\n"))
	if err != nil {
		return nil, services.Wrap(services.ErrStoreAccess, "calibre", "list", "decode output", err)
	}
	c.logger.Debug("library listed", logging.Int("records", len(records)))
	return records, nil
}

// Update applies patch to the record with the given id. Assignments to
// optional columns the library lacks are dropped.
func (c *Client) Update(ctx context.Context, id int, patch Patch) error {
	columns, err := c.Columns(ctx)
	if err != nil {
		return err
	}
	fields := columns.Filter(patch.Fields())
	if len(fields) == 0 {
		return nil
	}
	args := []string{"set_metadata", strconv.Itoa(id)}
	for _, field := range fields {
		args = append(args, "--field", "#"+field.Column+":"+field.Value)
	}
	if _, err := c.run(ctx, args...); err != nil {
		return services.Wrap(services.ErrStoreAccess, "calibre", "set_metadata", fmt.Sprintf("book %d", id), err)
	}
	c.logger.Debug("record updated", logging.Int(logging.FieldLibraryID, id), logging.Int("fields", len(fields)))
	return nil
}

// Insert creates an empty book carrying the placeholder fields and returns its id.
func (c *Client) Insert(ctx context.Context, placeholder Placeholder) (int, error) {
	title := strings.TrimSpace(placeholder.Title)
	if title == "" {
		title = "Untitled"
	}
	authors := strings.Join(placeholder.Authors, " & ")
	if strings.TrimSpace(authors) == "" {
		authors = "Unknown"
	}
	args := []string{"add", "--empty", "--title", title, "--authors", authors}
	if len(placeholder.Tags) > 0 {
		args = append(args, "--tags", strings.Join(placeholder.Tags, ","))
	}
	lines, err := c.run(ctx, args...)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreAccess, "calibre", "add", title, err)
	}
	id, err := parseAddedID(lines)
	if err != nil {
		return 0, services.Wrap(services.ErrStoreAccess, "calibre", "add", title, err)
	}
	if err := c.Update(ctx, id, placeholder.Patch); err != nil {
		return id, err
	}
	c.logger.Info("placeholder added", logging.Int(logging.FieldLibraryID, id), logging.String("title", title))
	return id, nil
}

func (c *Client) run(ctx context.Context, args ...string) ([]string, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}
	full := append(append([]string(nil), args...), "--with-library", c.library)
	var lines []string
	started := time.Now()
	err := c.exec.Run(runCtx, c.binary, full, func(line string) {
		lines = append(lines, line)
	})
	c.logger.Debug("calibredb invoked",
		logging.String("command", args[0]),
		logging.Duration("duration", time.Since(started)),
		logging.Bool("ok", err == nil))
	if err != nil {
		return nil, err
	}
	return lines, nil
}
