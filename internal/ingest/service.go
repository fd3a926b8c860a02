package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"animedb/internal/catalog"
	"animedb/internal/logging"
	"animedb/internal/metrics"
	"animedb/internal/notifications"
	"animedb/internal/parser"
	"animedb/internal/release"
	"animedb/internal/services"
)

// ErrNothingParsed reports a listing from which no record could be read.
var ErrNothingParsed = fmt.Errorf("%w: %w", services.ErrValidation, parser.ErrNothingParsed)

const (
	defaultMaxErrors = 5
	errorDetailLen   = 50
)

// Catalog stores parsed records.
type Catalog interface {
	Add(ctx context.Context, c release.Candidate) (release.Record, catalog.Outcome, error)
}

// Parser extracts records from a listing.
type Parser interface {
	Parse(ctx context.Context, text string) parser.Outcome
}

// Authorizer decides whether a user may upload.
type Authorizer interface {
	Check(userID string) error
}

// Service orchestrates uploads.
type Service struct {
	catalog   Catalog
	parser    Parser
	access    Authorizer
	notifier  notifications.Service
	metrics   *metrics.Manager
	logger    *slog.Logger
	maxErrors int
}

// Option customizes a Service.
type Option func(*Service)

// WithAuthorizer requires uploaders to pass a.Check. Without one every user
// may upload.
func WithAuthorizer(a Authorizer) Option {
	return func(s *Service) { s.access = a }
}

// WithNotifier publishes upload events.
func WithNotifier(n notifications.Service) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMetrics records parse and add outcomes.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMaxErrors bounds the per-entry error messages kept in a report.
func WithMaxErrors(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxErrors = n
		}
	}
}

// NewService wires an upload pipeline.
func NewService(store Catalog, p Parser, opts ...Option) *Service {
	s := &Service{
		catalog:   store,
		parser:    p,
		notifier:  notifications.NewNoop(),
		logger:    logging.NewNop(),
		maxErrors: defaultMaxErrors,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "ingest")
	return s
}

// Upload parses text on behalf of userID and stores every record.
func (s *Service) Upload(ctx context.Context, userID, text string) (Report, error) {
	report := Report{BatchID: uuid.NewString(), User: userID}
	if _, ok := services.RequestIDFromContext(ctx); !ok {
		ctx = services.WithRequestID(ctx, report.BatchID)
	}
	ctx = services.WithUserID(ctx, userID)
	logger := logging.WithContext(ctx, s.logger)

	if s.access != nil {
		if err := s.access.Check(userID); err != nil {
			logging.WarnWithContext(logger, "upload rejected", "upload_unauthorized",
				logging.String(logging.FieldErrorHint, "authorize the user before uploading"),
				logging.String(logging.FieldImpact, "listing ignored"),
			)
			s.publish(ctx, notifications.EventUploadRejected, notifications.Payload{"user": userID})
			return report, err
		}
	}

	outcome := s.parser.Parse(ctx, text)
	s.metrics.ObserveParse(string(outcome.Provenance), len(outcome.Rejected))
	report.Provenance = outcome.Provenance
	if outcome.Diagnostic != nil {
		report.Diagnostic = outcome.Diagnostic.Error()
	}
	for _, rejected := range outcome.Rejected {
		report.addError(s.maxErrors, fmt.Sprintf("entry %d: %v", rejected.Index, rejected.Err))
	}
	if err := outcome.Err(); err != nil {
		logging.WarnWithContext(logger, "nothing parsed from listing", "upload_parse_failed",
			logging.Int("rejected", len(outcome.Rejected)),
			logging.String(logging.FieldErrorHint, "check the listing format"),
			logging.String(logging.FieldImpact, "no records stored"),
		)
		s.publish(ctx, notifications.EventParseFailed, notifications.Payload{"user": userID, "error": err})
		return report, ErrNothingParsed
	}

	report.Total = len(outcome.Records)
	report.Qualities = make(map[string]int)
	series := make(map[string]struct{})
	for _, candidate := range outcome.Records {
		report.URLs = append(report.URLs, candidate.URL)
		record, result, err := s.catalog.Add(ctx, candidate)
		if err != nil {
			if errors.Is(err, catalog.ErrInvalidRecord) {
				report.addError(s.maxErrors, fmt.Sprintf("%s %s%s: %s", candidate.Title, candidate.Season, candidate.Episode, truncate(err.Error(), errorDetailLen)))
				continue
			}
			logging.ErrorWithContext(logger, "upload aborted", "upload_storage_failed",
				logging.Error(err),
				logging.Int("added", report.Added),
				logging.String(logging.FieldErrorHint, "check catalog storage"),
				logging.String(logging.FieldImpact, "remaining records not stored"),
			)
			s.publish(ctx, notifications.EventError, notifications.Payload{"context": "upload", "error": err})
			return report, err
		}
		s.metrics.ObserveRecord(string(result))
		switch result {
		case catalog.OutcomeAdded:
			report.Added++
			report.Qualities[record.Quality]++
			series[record.SeriesID] = struct{}{}
		case catalog.OutcomeExactDuplicate:
			report.Skipped++
		}
	}
	report.Series = len(series)

	logger.Info("upload stored",
		logging.String("provenance", string(report.Provenance)),
		logging.Int("added", report.Added),
		logging.Int("skipped", report.Skipped),
		logging.Int("total", report.Total),
		logging.Int("errors", report.ErrorCount),
	)
	s.publish(ctx, notifications.EventUploadCompleted, notifications.Payload{
		"user":    userID,
		"added":   report.Added,
		"skipped": report.Skipped,
		"total":   report.Total,
		"urls":    report.URLs,
	})
	return report, nil
}

func (s *Service) publish(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := s.notifier.Publish(ctx, event, payload); err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "notification failed", "notification_failed",
			logging.String("event", string(event)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "activity log missing an entry"),
		)
	}
}

func truncate(s string, n int) string {
	runes := []rune(strings.TrimSpace(s))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n])
}
