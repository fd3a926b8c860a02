package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"
	"golang.org/x/text/cases"

	"animedb/internal/config"
	"animedb/internal/logging"
	"animedb/internal/release"
	"animedb/internal/services"
	"animedb/internal/sheet"
)

// ErrInvalidRecord marks a candidate that failed field validation.
var ErrInvalidRecord = fmt.Errorf("%w: invalid record", services.ErrValidation)

// Outcome tags the result of Add.
type Outcome string

const (
	OutcomeAdded          Outcome = "added"
	OutcomeExactDuplicate Outcome = "exact_duplicate"
)

const lockRetryDelay = 50 * time.Millisecond

// Store applies identity and dedup rules over a table.
type Store struct {
	table  sheet.Table
	mu     sync.RWMutex
	lock   *flock.Flock
	clock  clockwork.Clock
	logger *slog.Logger
	fold   cases.Caser
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the clock used to stamp added rows.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLockFile serializes Add across processes with an exclusive lock on path.
func WithLockFile(path string) Option {
	return func(s *Store) {
		if strings.TrimSpace(path) != "" {
			s.lock = flock.New(path)
		}
	}
}

// New wraps table in a Store.
func New(table sheet.Table, opts ...Option) *Store {
	s := &Store{
		table:  table,
		clock:  clockwork.NewRealClock(),
		logger: logging.NewNop(),
		fold:   cases.Fold(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "catalog")
	return s
}

// Close releases the underlying table and lock file.
func (s *Store) Close() error {
	var lockErr error
	if s.lock != nil {
		lockErr = s.lock.Close()
	}
	return errors.Join(s.table.Close(), lockErr)
}

// Add stores c unless an identical row already exists for its series.
// The returned record is the stored row on OutcomeAdded and the existing row
// on OutcomeExactDuplicate.
func (s *Store) Add(ctx context.Context, c release.Candidate) (release.Record, Outcome, error) {
	if err := release.Validate(c); err != nil {
		return release.Record{}, "", fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	unlock, err := s.lockExclusive(ctx)
	if err != nil {
		return release.Record{}, "", err
	}
	defer unlock()

	records, err := s.load(ctx)
	if err != nil {
		return release.Record{}, "", err
	}

	seriesID := s.resolve(records, c.Title)
	for _, existing := range records {
		if existing.SeriesID != seriesID || !sameSlot(existing, c) {
			continue
		}
		if existing.URL == c.URL {
			s.logger.Debug("duplicate release skipped",
				logging.String(logging.FieldSeriesID, seriesID),
				logging.String(logging.FieldEpisodeLabel, c.Label()),
			)
			return existing, OutcomeExactDuplicate, nil
		}
	}

	record := release.Record{
		SeriesID: seriesID,
		Title:    c.Title,
		Season:   c.Season,
		Episode:  c.Episode,
		Quality:  c.Quality,
		Audio:    c.Audio,
		URL:      c.URL,
		AddedAt:  s.clock.Now().Truncate(time.Minute),
		Status:   release.DefaultStatus,
	}
	if err := s.table.Append(ctx, encodeRow(record)); err != nil {
		return release.Record{}, "", services.Wrap(services.ErrExternalTool, "catalog", "append", "write row", err)
	}
	s.logger.Info("release added",
		logging.String(logging.FieldSeriesID, seriesID),
		logging.String(logging.FieldEpisodeLabel, c.Label()),
		logging.String("quality", c.Quality),
	)
	return record, OutcomeAdded, nil
}

// ResolveSeriesID returns the ID already assigned to title, or the ID the next
// new title would receive.
func (s *Store) ResolveSeriesID(ctx context.Context, title string) (string, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return "", err
	}
	return s.resolve(records, title), nil
}

func (s *Store) resolve(records []release.Record, title string) string {
	key := s.titleKey(title)
	maxOrdinal := 0
	for _, r := range records {
		if s.titleKey(r.Title) == key {
			return r.SeriesID
		}
		if n, ok := release.ParseSeriesID(r.SeriesID); ok && n > maxOrdinal {
			maxOrdinal = n
		}
	}
	return release.FormatSeriesID(maxOrdinal + 1)
}

func (s *Store) titleKey(title string) string {
	return s.fold.String(strings.Join(strings.Fields(title), " "))
}

func sameSlot(r release.Record, c release.Candidate) bool {
	return strings.EqualFold(r.Season, c.Season) &&
		strings.EqualFold(r.Episode, c.Episode) &&
		strings.EqualFold(r.Quality, c.Quality)
}

// snapshot reads every record under the shared lock.
func (s *Store) snapshot(ctx context.Context) ([]release.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.load(ctx)
}

func (s *Store) load(ctx context.Context) ([]release.Record, error) {
	rows, err := s.table.ReadAll(ctx)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "catalog", "read", "load rows", err)
	}
	return decodeRows(rows), nil
}

func (s *Store) lockExclusive(ctx context.Context) (func(), error) {
	s.mu.Lock()
	if s.lock == nil {
		return s.mu.Unlock, nil
	}
	locked, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		s.mu.Unlock()
		if err == nil {
			err = errors.New("lock not acquired")
		}
		return nil, services.Wrap(services.ErrTimeout, "catalog", "lock", s.lock.Path(), err)
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("catalog lock release failed", logging.Error(err))
		}
		s.mu.Unlock()
	}, nil
}

// Open opens the table configured in cfg and wraps it in a Store guarded by
// the configured lock file.
func Open(cfg *config.Config, opts ...Option) (*Store, error) {
	table, err := sheet.Open(cfg)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "catalog", "open", cfg.Store.Path, err)
	}
	opts = append([]Option{WithLockFile(cfg.Store.LockPath)}, opts...)
	return New(table, opts...), nil
}
