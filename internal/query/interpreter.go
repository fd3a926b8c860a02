package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"animedb/internal/catalog"
	"animedb/internal/logging"
	"animedb/internal/release"
	"animedb/internal/services/llm"
)

// Source identifies which interpreter produced an Intent.
type Source string

const (
	SourceStructured Source = "structured"
	SourcePattern    Source = "pattern"
)

const (
	defaultTimeout    = 15 * time.Second
	defaultTitleHints = 20
	intentSearch      = "search"
)

// Generator produces a JSON completion for the supplied prompts.
type Generator interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Intent is an interpreted lookup.
type Intent struct {
	Filter catalog.Filter `json:"filter"`
	Intent string         `json:"intent"`
	Source Source         `json:"source"`
}

// Interpreter converts free text into catalog filters.
type Interpreter struct {
	generator  Generator
	timeout    time.Duration
	titleHints int
	logger     *slog.Logger
}

// Option customizes an Interpreter.
type Option func(*Interpreter)

// WithTimeout bounds the structured interpretation call.
func WithTimeout(timeout time.Duration) Option {
	return func(i *Interpreter) {
		if timeout > 0 {
			i.timeout = timeout
		}
	}
}

// WithTitleHints limits how many known titles are listed in the prompt.
func WithTitleHints(limit int) Option {
	return func(i *Interpreter) {
		if limit > 0 {
			i.titleHints = limit
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// NewInterpreter constructs an interpreter. A nil generator uses pattern
// interpretation only.
func NewInterpreter(generator Generator, opts ...Option) *Interpreter {
	i := &Interpreter{
		generator:  generator,
		timeout:    defaultTimeout,
		titleHints: defaultTitleHints,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(i)
	}
	i.logger = logging.NewComponentLogger(i.logger, "query")
	return i
}

// Interpret builds a filter for text given the catalog's known titles.
func (i *Interpreter) Interpret(ctx context.Context, text string, titles []string) Intent {
	text = strings.TrimSpace(text)
	if text == "" {
		return Intent{Intent: intentSearch, Source: SourcePattern}
	}
	logger := logging.WithContext(ctx, i.logger)
	if i.generator != nil {
		intent, err := i.interpretStructured(ctx, text, titles)
		if err == nil {
			logger.Debug("query interpreted", logging.String("source", string(SourceStructured)), logging.String("filter", intent.Filter.String()))
			return intent
		}
		attrs := append(logging.DecisionAttrs("query_interpretation", "pattern", err.Error()), logging.String("query", text))
		logger.Info("structured query interpretation failed; using patterns", logging.Args(attrs...)...)
	}
	return Interpret(text, titles)
}

// Interpret runs the pattern interpreter alone.
func Interpret(text string, titles []string) Intent {
	ex := extract(text)
	ex.filter.Title = ResolveTitle(ex.leftover, titles)
	return Intent{Filter: ex.filter, Intent: intentSearch, Source: SourcePattern}
}

type structuredIntent struct {
	Title   *string `json:"anime_name"`
	Season  *string `json:"season"`
	Episode *string `json:"episode"`
	Quality *string `json:"quality"`
	Audio   *string `json:"audio"`
	Intent  *string `json:"intent"`
}

func (i *Interpreter) interpretStructured(ctx context.Context, text string, titles []string) (Intent, error) {
	callCtx, cancel := context.WithTimeout(ctx, i.timeout)
	defer cancel()

	content, err := i.generator.CompleteJSON(callCtx, systemPrompt, userPrompt(text, titles, i.titleHints))
	if err != nil {
		return Intent{}, fmt.Errorf("interpret query: %w", err)
	}
	var raw structuredIntent
	if err := llm.DecodeLLMJSON(content, &raw); err != nil {
		return Intent{}, fmt.Errorf("interpret query: decode: %w", err)
	}

	var f catalog.Filter
	f.Title = value(raw.Title)
	if season := value(raw.Season); season != "" {
		if norm, ok := release.NormalizeSeasonToken(season); ok {
			f.Season = norm
		}
	}
	if episode := value(raw.Episode); episode != "" {
		if norm, ok := release.NormalizeEpisodeToken(episode); ok {
			f.Episode = norm
		}
	}
	if quality := value(raw.Quality); quality != "" {
		f.Quality = release.NormalizeQuality(quality)
	}
	if audio := value(raw.Audio); audio != "" {
		f.Audio = release.NormalizeAudio(audio)
	}
	if f.IsZero() {
		return Intent{}, errors.New("interpret query: no parameters returned")
	}

	intent := intentSearch
	if v := value(raw.Intent); v != "" {
		intent = v
	}
	return Intent{Filter: f, Intent: intent, Source: SourceStructured}, nil
}

// value unwraps a nullable JSON string, treating "null" and "none" as empty.
func value(s *string) string {
	if s == nil {
		return ""
	}
	v := strings.TrimSpace(*s)
	switch strings.ToLower(v) {
	case "null", "none", "n/a":
		return ""
	}
	return v
}
