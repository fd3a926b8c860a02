package assistant

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animedb/internal/services"
	"animedb/internal/testsupport"
)

func TestChatPrefixesCatalogContext(t *testing.T) {
	stub := &testsupport.StubLLM{Reply: "Try Demo."}
	sessions := New(stub)

	reply, err := sessions.Chat(context.Background(), "42", "what should I watch?", "Available anime (1): Demo")
	require.NoError(t, err)
	assert.Equal(t, "Try Demo.", reply)

	require.Len(t, stub.Chats, 1)
	msgs := stub.Chats[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Role)
	assert.Equal(t, "Database: Available anime (1): Demo\n\nUser: what should I watch?", msgs[1].Content)
}

func TestChatKeepsHistoryPerUser(t *testing.T) {
	stub := &testsupport.StubLLM{Reply: "ok"}
	sessions := New(stub)
	ctx := context.Background()

	_, err := sessions.Chat(ctx, "a", "first", "")
	require.NoError(t, err)
	_, err = sessions.Chat(ctx, "a", "second", "")
	require.NoError(t, err)
	_, err = sessions.Chat(ctx, "b", "hello", "")
	require.NoError(t, err)

	require.Len(t, stub.Chats, 3)
	assert.Len(t, stub.Chats[1], 4, "system + first turn pair + new message")
	assert.Equal(t, "first", stub.Chats[1][1].Content)
	assert.Len(t, stub.Chats[2], 2, "other users start fresh")
	assert.Equal(t, 2, sessions.Len())
}

func TestChatHistoryLimit(t *testing.T) {
	stub := &testsupport.StubLLM{Reply: "ok"}
	sessions := New(stub, WithHistoryLimit(2))
	ctx := context.Background()
	for i := range 3 {
		_, err := sessions.Chat(ctx, "a", fmt.Sprintf("msg %d", i), "")
		require.NoError(t, err)
	}
	last := stub.Chats[2]
	require.Len(t, last, 4)
	assert.Equal(t, "msg 1", last[1].Content)
}

func TestChatFailureLeavesHistory(t *testing.T) {
	stub := &testsupport.StubLLM{ChatErr: errors.New("quota")}
	sessions := New(stub)
	ctx := context.Background()

	_, err := sessions.Chat(ctx, "a", "hi", "")
	require.ErrorIs(t, err, services.ErrExternalTool)

	stub.ChatErr = nil
	stub.Reply = "hello"
	_, err = sessions.Chat(ctx, "a", "hi again", "")
	require.NoError(t, err)
	assert.Len(t, stub.Chats[1], 2)
}

func TestChatValidation(t *testing.T) {
	_, err := New(&testsupport.StubLLM{}).Chat(context.Background(), "a", "   ", "")
	assert.ErrorIs(t, err, services.ErrValidation)

	_, err = New(nil).Chat(context.Background(), "a", "hi", "")
	assert.ErrorIs(t, err, services.ErrConfiguration)
}

func TestClear(t *testing.T) {
	sessions := New(&testsupport.StubLLM{Reply: "ok"})
	assert.False(t, sessions.Clear("a"))
	_, err := sessions.Chat(context.Background(), "a", "hi", "")
	require.NoError(t, err)
	assert.True(t, sessions.Clear("a"))
	assert.False(t, sessions.Clear("a"))
	assert.Zero(t, sessions.Len())
}
