package testsupport

import (
	"context"
	"sync"

	"animedb/internal/services/llm"
)

// StubLLM is a scripted stand-in for the LLM client.
type StubLLM struct {
	mu sync.Mutex

	// JSON is returned by CompleteJSON when JSONErr is nil.
	JSON    string
	JSONErr error
	// Reply is returned by Chat when ChatErr is nil.
	Reply   string
	ChatErr error
	// Block makes every call wait for context cancellation.
	Block bool

	UserPrompts []string
	Chats       [][]llm.Message
}

func (s *StubLLM) CompleteJSON(ctx context.Context, _ string, userPrompt string) (string, error) {
	s.mu.Lock()
	s.UserPrompts = append(s.UserPrompts, userPrompt)
	block, content, err := s.Block, s.JSON, s.JSONErr
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return content, err
}

func (s *StubLLM) Chat(ctx context.Context, messages []llm.Message) (string, error) {
	s.mu.Lock()
	s.Chats = append(s.Chats, append([]llm.Message(nil), messages...))
	block, reply, err := s.Block, s.Reply, s.ChatErr
	s.mu.Unlock()
	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return reply, err
}

// Calls reports how many requests of either kind were made.
func (s *StubLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.UserPrompts) + len(s.Chats)
}
