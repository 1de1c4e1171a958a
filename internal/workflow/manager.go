package workflow

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bergsfam/calibre-audible-integration/internal/calibre"
	"github.com/bergsfam/calibre-audible-integration/internal/config"
	"github.com/bergsfam/calibre-audible-integration/internal/identification"
	"github.com/bergsfam/calibre-audible-integration/internal/ledger"
	"github.com/bergsfam/calibre-audible-integration/internal/logging"
	"github.com/bergsfam/calibre-audible-integration/internal/services"
)

// Manager coordinates sync runs against a single library store.
type Manager struct {
	cfg     *config.Config
	store   calibre.Store
	ledger  *ledger.Store
	matcher *identification.Matcher
	logger  *slog.Logger
	now     func() time.Time
	newID   func() string
}

// Option configures a Manager.
type Option func(*Manager)

// WithLedger records runs in the given history store.
func WithLedger(store *ledger.Store) Option {
	return func(m *Manager) {
		m.ledger = store
	}
}

// WithLogger sets the manager logger.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRunIDs overrides run id generation.
func WithRunIDs(newID func() string) Option {
	return func(m *Manager) {
		if newID != nil {
			m.newID = newID
		}
	}
}

// NewManager validates the matching settings in cfg and returns a manager.
func NewManager(cfg *config.Config, store calibre.Store, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "sync", "init", "config is required", nil)
	}
	if store == nil {
		return nil, services.Wrap(services.ErrConfiguration, "sync", "init", "library store is required", nil)
	}
	m := &Manager{
		cfg:    cfg,
		store:  store,
		logger: logging.NewNop(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = logging.NewComponentLogger(m.logger, "sync")

	thresholds := identification.Thresholds{
		Match:  cfg.Matching.MatchThreshold,
		Review: cfg.Matching.ReviewThreshold,
	}
	matcher, err := identification.NewMatcher(thresholds, cfg.Matching.TitleWeight, m.logger)
	if err != nil {
		return nil, fmt.Errorf("configure matcher: %w", err)
	}
	m.matcher = matcher
	return m, nil
}

// Thresholds returns the classification thresholds in effect.
func (m *Manager) Thresholds() identification.Thresholds {
	return m.matcher.Thresholds()
}
