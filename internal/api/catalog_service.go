package api

import (
	"context"
	"log/slog"
	"strings"

	"animedb/internal/access"
	"animedb/internal/assistant"
	"animedb/internal/catalog"
	"animedb/internal/logging"
	"animedb/internal/metrics"
	"animedb/internal/notifications"
	"animedb/internal/parser"
	"animedb/internal/query"
	"animedb/internal/results"
	"animedb/internal/services"
)

const (
	sourceExplicit = "explicit"
	emptyCatalog   = "Catalog is empty."

	// UploadHint answers chat messages that look like a release listing.
	UploadHint = "Bulk upload detected. Send the listing to the upload endpoint (or run \"animedb upload\") to store it."
)

// Service exposes catalog operations returning API DTOs.
type Service struct {
	catalog     *catalog.Store
	interpreter *query.Interpreter
	sessions    *assistant.Sessions
	access      *access.List
	notifier    notifications.Service
	metrics     *metrics.Manager
	logger      *slog.Logger
}

// Option customizes a Service.
type Option func(*Service)

// WithAssistant enables chat.
func WithAssistant(sessions *assistant.Sessions) Option {
	return func(s *Service) { s.sessions = sessions }
}

// WithAccess enables uploader administration.
func WithAccess(list *access.List) Option {
	return func(s *Service) { s.access = list }
}

// WithNotifier publishes activity events.
func WithNotifier(n notifications.Service) Option {
	return func(s *Service) {
		if n != nil {
			s.notifier = n
		}
	}
}

// WithMetrics records query sources.
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

// NewService constructs a Service. A nil interpreter uses pattern
// interpretation only.
func NewService(store *catalog.Store, interpreter *query.Interpreter, opts ...Option) *Service {
	if interpreter == nil {
		interpreter = query.NewInterpreter(nil)
	}
	s := &Service{
		catalog:     store,
		interpreter: interpreter,
		notifier:    notifications.NewNoop(),
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "api")
	return s
}

// Search runs a lookup. A non-empty explicit filter is used as given;
// otherwise text is interpreted against the catalog's titles.
func (s *Service) Search(ctx context.Context, userID, text string, explicit Filter) (SearchResult, error) {
	text = strings.TrimSpace(text)
	result := SearchResult{Query: text, Results: []Release{}}

	filter := explicit.ToFilter()
	if filter.IsZero() {
		if text == "" {
			return result, services.Wrap(services.ErrValidation, "api", "search", "query or filter required", nil)
		}
		titles, err := s.catalog.DistinctTitles(ctx)
		if err != nil {
			return result, err
		}
		if len(titles) == 0 {
			result.Source = string(query.SourcePattern)
			result.Text = emptyCatalog
			return result, nil
		}
		intent := s.interpreter.Interpret(ctx, text, titles)
		filter = intent.Filter
		result.Source = string(intent.Source)
		if filter.IsZero() {
			return result, services.Wrap(services.ErrValidation, "api", "search", "query names no title, season, episode, quality or audio", nil)
		}
	} else {
		result.Source = sourceExplicit
	}
	s.metrics.ObserveQuery(result.Source)
	result.Filter = FromFilter(filter)

	records, err := s.catalog.Query(ctx, filter)
	if err != nil {
		return result, err
	}
	result.Count = len(records)
	result.Results = FromRecords(records)
	result.Text = results.Format(records, s.logger)

	logging.WithContext(ctx, s.logger).Info("search completed",
		logging.String("filter", filter.String()),
		logging.String("source", result.Source),
		logging.Int("found", result.Count),
	)
	s.publish(ctx, notifications.EventSearch, notifications.Payload{"user": userID, "query": firstNonEmpty(text, filter.String()), "found": result.Count})
	return result, nil
}

// Titles lists every distinct title with a capped rendering.
func (s *Service) Titles(ctx context.Context) (TitlesResponse, error) {
	titles, err := s.catalog.DistinctTitles(ctx)
	if err != nil {
		return TitlesResponse{}, err
	}
	if titles == nil {
		titles = []string{}
	}
	return TitlesResponse{Count: len(titles), Titles: titles, Text: results.Browse(titles, results.BrowseLimit)}, nil
}

// Health reports catalog size and open chat sessions.
func (s *Service) Health(ctx context.Context) (HealthResponse, error) {
	stats, err := s.catalog.Stats(ctx)
	if err != nil {
		return HealthResponse{}, err
	}
	health := HealthResponse{OK: true, Records: stats.Records, Series: stats.Series}
	if s.sessions != nil {
		health.ChatSessions = s.sessions.Len()
	}
	return health, nil
}

// Chat answers a free-text message. Messages that look like a release
// listing get an upload hint instead of a model reply.
func (s *Service) Chat(ctx context.Context, userID, message string) (ChatResult, error) {
	if parser.LooksLikeBulkUpload(message) {
		return ChatResult{UploadHint: UploadHint}, nil
	}
	if s.sessions == nil {
		return ChatResult{}, services.Wrap(services.ErrConfiguration, "api", "chat", "assistant disabled", nil)
	}
	summary, err := s.catalog.Summary(ctx)
	if err != nil {
		return ChatResult{}, err
	}
	s.publish(ctx, notifications.EventChat, notifications.Payload{"user": userID, "message": message})
	reply, err := s.sessions.Chat(ctx, userID, message, summary)
	if err != nil {
		return ChatResult{}, err
	}
	return ChatResult{Reply: reply}, nil
}

// ClearChat drops the conversation for userID.
func (s *Service) ClearChat(userID string) bool {
	if s.sessions == nil {
		return false
	}
	return s.sessions.Clear(userID)
}

// Uploaders lists authorized uploaders.
func (s *Service) Uploaders() UploadersResponse {
	if s.access == nil {
		return UploadersResponse{Uploaders: []string{}}
	}
	return UploadersResponse{Uploaders: s.access.IDs()}
}

// Authorize adds userID to the uploader list on behalf of admin.
func (s *Service) Authorize(ctx context.Context, admin, userID string) (AuthorizeResponse, error) {
	if s.access == nil {
		return AuthorizeResponse{}, services.Wrap(services.ErrConfiguration, "api", "authorize", "access list disabled", nil)
	}
	added, err := s.access.Authorize(admin, userID)
	if err != nil {
		return AuthorizeResponse{}, err
	}
	if added {
		logging.WithContext(ctx, s.logger).Info("uploader authorized",
			logging.String("admin", admin),
			logging.String("uploader", userID),
		)
		s.publish(ctx, notifications.EventUploaderAuthorized, notifications.Payload{"admin": admin, "user": userID})
	}
	return AuthorizeResponse{UserID: strings.TrimSpace(userID), Added: added}, nil
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

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
