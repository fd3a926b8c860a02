// Package assistant keeps per-user conversations with the LLM.
//
// Sessions are created by the first message from a user and live until they
// are cleared. Each turn may carry a catalog summary that is prefixed to the
// user's message so the model can answer questions about what is stored.
package assistant

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"animedb/internal/logging"
	"animedb/internal/services"
	"animedb/internal/services/llm"
)

const (
	defaultHistoryLimit = 40
	defaultTimeout      = 30 * time.Second

	systemPrompt = "You are a friendly assistant for an anime download catalog. " +
		"Answer questions about the catalog using the database summary when one is provided, " +
		"recommend titles, and keep replies short."
)

// Chatter sends a conversation to a model and returns its reply.
type Chatter interface {
	Chat(ctx context.Context, messages []llm.Message) (string, error)
}

type session struct {
	mu      sync.Mutex
	history []llm.Message
}

// Sessions tracks one conversation per user.
type Sessions struct {
	chatter      Chatter
	historyLimit int
	timeout      time.Duration
	logger       *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// Option customizes Sessions.
type Option func(*Sessions)

// WithHistoryLimit caps the number of stored messages per user.
func WithHistoryLimit(limit int) Option {
	return func(s *Sessions) {
		if limit > 0 {
			s.historyLimit = limit
		}
	}
}

// WithTimeout bounds each model call.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Sessions) {
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sessions) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New returns an empty session registry.
func New(chatter Chatter, opts ...Option) *Sessions {
	s := &Sessions{
		chatter:      chatter,
		historyLimit: defaultHistoryLimit,
		timeout:      defaultTimeout,
		logger:       logging.NewNop(),
		sessions:     make(map[string]*session),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "assistant")
	return s
}

// Chat sends message on behalf of userID. When catalogContext is non-empty it
// is prefixed to the message. A failed call leaves the history unchanged.
func (s *Sessions) Chat(ctx context.Context, userID, message, catalogContext string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", services.Wrap(services.ErrValidation, "assistant", "chat", "empty message", nil)
	}
	if s.chatter == nil {
		return "", services.Wrap(services.ErrConfiguration, "assistant", "chat", "llm not configured", nil)
	}

	content := message
	if catalogContext = strings.TrimSpace(catalogContext); catalogContext != "" {
		content = fmt.Sprintf("Database: %s\n\nUser: %s", catalogContext, message)
	}

	sess := s.session(userID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	turn := llm.Message{Role: "user", Content: content}
	messages := make([]llm.Message, 0, len(sess.history)+2)
	messages = append(messages, llm.Message{Role: "system", Content: systemPrompt})
	messages = append(messages, sess.history...)
	messages = append(messages, turn)

	callCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	reply, err := s.chatter.Chat(callCtx, messages)
	if err != nil {
		logging.WarnWithContext(logging.WithContext(ctx, s.logger), "assistant reply failed", "assistant_chat_failed",
			logging.String(logging.FieldUserID, userID),
			logging.Error(err),
			logging.String(logging.FieldImpact, "user received an error instead of a reply"),
		)
		return "", services.Wrap(services.ErrExternalTool, "assistant", "chat", "model call", err)
	}

	sess.history = append(sess.history, turn, llm.Message{Role: "assistant", Content: reply})
	if over := len(sess.history) - s.historyLimit; over > 0 {
		sess.history = append([]llm.Message(nil), sess.history[over:]...)
	}
	return reply, nil
}

// Clear drops the conversation for userID and reports whether one existed.
func (s *Sessions) Clear(userID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[userID]; !ok {
		return false
	}
	delete(s.sessions, userID)
	return true
}

// Len reports how many users have an open conversation.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Sessions) session(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		sess = &session{}
		s.sessions[userID] = sess
	}
	return sess
}
