package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"animedb/internal/logging"
	"animedb/internal/release"
	"animedb/internal/services/llm"
)

// Provenance identifies which path produced a bulk parse result.
type Provenance string

const (
	ProvenanceStructured Provenance = "structured"
	ProvenanceFallback   Provenance = "fallback"
	ProvenanceFailed     Provenance = "failed"
)

// ErrNothingParsed reports that neither path produced a single record.
var ErrNothingParsed = errors.New("no valid entries found")

const defaultStructuredTimeout = 45 * time.Second

// Generator produces a JSON completion for the supplied prompts.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Outcome is the result of a bulk parse.
type Outcome struct {
	Provenance Provenance
	Records    []release.Candidate
	// Diagnostic explains why the structured path was not used, when it was not.
	Diagnostic error
	// Rejected lists fallback entries that could not be parsed.
	Rejected []EntryError
	// Dropped counts structured items that failed validation.
	Dropped int
}

// Err returns ErrNothingParsed when the outcome carries no records.
func (o Outcome) Err() error {
	if o.Provenance == ProvenanceFailed || len(o.Records) == 0 {
		return ErrNothingParsed
	}
	return nil
}

// BulkParser parses pasted listings, preferring a structured LLM extraction.
type BulkParser struct {
	generator Generator
	timeout   time.Duration
	logger    *slog.Logger
}

// Option customizes a BulkParser.
type Option func(*BulkParser)

// WithTimeout bounds the structured extraction call.
func WithTimeout(timeout time.Duration) Option {
	return func(p *BulkParser) {
		if timeout > 0 {
			p.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *BulkParser) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewBulkParser constructs a parser. A nil generator disables the structured
// path so every call uses the pattern parser.
func NewBulkParser(generator Generator, opts ...Option) *BulkParser {
	p := &BulkParser{
		generator: generator,
		timeout:   defaultStructuredTimeout,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "parser")
	return p
}

// Parse extracts every release from text. It never returns an error; a failed
// parse is reported through Outcome.Provenance and Outcome.Err.
func (p *BulkParser) Parse(ctx context.Context, text string) Outcome {
	logger := logging.WithContext(ctx, p.logger)
	if strings.TrimSpace(text) == "" {
		return Outcome{Provenance: ProvenanceFailed, Diagnostic: errors.New("empty listing")}
	}

	var diagnostic error
	if p.generator == nil {
		diagnostic = errors.New("structured extraction disabled")
	} else {
		records, dropped, err := p.parseStructured(ctx, text)
		if err == nil {
			logger.Info("listing parsed",
				logging.String("provenance", string(ProvenanceStructured)),
				logging.Int("records", len(records)),
				logging.Int("dropped", dropped),
			)
			return Outcome{Provenance: ProvenanceStructured, Records: records, Dropped: dropped}
		}
		diagnostic = err
		logging.WarnWithContext(logger, "structured extraction failed; using pattern parser", "parser_structured_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "listing parsed with pattern rules"),
			logging.String(logging.FieldErrorHint, "check llm api key, model, and timeout"),
		)
	}

	records, rejected := ParseListing(text)
	outcome := Outcome{
		Provenance: ProvenanceFallback,
		Records:    records,
		Diagnostic: diagnostic,
		Rejected:   rejected,
	}
	if len(records) == 0 {
		outcome.Provenance = ProvenanceFailed
	}
	logger.Info("listing parsed",
		logging.String("provenance", string(outcome.Provenance)),
		logging.Int("records", len(records)),
		logging.Int("rejected", len(rejected)),
	)
	return outcome
}

type structuredItem struct {
	Title   string `json:"anime_name" validate:"required"`
	Season  string `json:"season" validate:"required"`
	Episode string `json:"episode" validate:"required"`
	Quality string `json:"quality" validate:"required"`
	Audio   string `json:"audio" validate:"required"`
	URL     string `json:"url" validate:"required"`
}

var presence = validator.New(validator.WithRequiredStructEnabled())

func (p *BulkParser) parseStructured(ctx context.Context, text string) ([]release.Candidate, int, error) {
	callCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	content, err := p.generator.CompleteJSON(callCtx, ListingPrompt, text)
	if err != nil {
		return nil, 0, fmt.Errorf("structured extraction: %w", err)
	}
	items, err := decodeItems(content)
	if err != nil {
		return nil, 0, fmt.Errorf("structured extraction: decode: %w", err)
	}

	records := make([]release.Candidate, 0, len(items))
	dropped := 0
	for _, item := range items {
		if err := presence.Struct(item); err != nil {
			dropped++
			continue
		}
		candidate := release.Normalize(release.Candidate{
			Title:   item.Title,
			Season:  item.Season,
			Episode: item.Episode,
			Quality: item.Quality,
			Audio:   item.Audio,
			URL:     item.URL,
		})
		if err := release.Validate(candidate); err != nil {
			p.logger.Debug("structured item rejected", logging.Error(err))
			dropped++
			continue
		}
		records = append(records, candidate)
	}
	if len(records) == 0 {
		return nil, dropped, errors.New("structured extraction: no valid items")
	}
	return records, dropped, nil
}

// decodeItems accepts either {"episodes": [...]} or a bare array.
func decodeItems(content string) ([]structuredItem, error) {
	var raw json.RawMessage
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return nil, err
	}
	trimmed := strings.TrimSpace(string(raw))
	var items []structuredItem
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var envelope struct {
		Episodes []structuredItem `json:"episodes"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, err
	}
	return envelope.Episodes, nil
}
