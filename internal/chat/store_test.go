package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorachio-backend/pkg/api"
)

func TestStoreLifecycle(t *testing.T) {
	store := NewStore()

	first := store.CreateChat()
	second := store.CreateChat()
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "New Chat", first.Title)
	assert.Empty(t, first.Messages)

	chats := store.ListChats()
	require.Len(t, chats, 2)
	assert.Equal(t, first.ID, chats[0].ID)
	assert.Equal(t, second.ID, chats[1].ID)

	got, ok := store.GetChat(first.ID)
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)

	require.NoError(t, store.DeleteChat(first.ID))
	_, ok = store.GetChat(first.ID)
	assert.False(t, ok)
	assert.ErrorIs(t, store.DeleteChat(first.ID), ErrChatNotFound)
	assert.Len(t, store.ListChats(), 1)
}

func TestAppendMessage(t *testing.T) {
	t.Run("assigns identity and timestamp", func(t *testing.T) {
		store := NewStore()
		created := store.CreateChat()

		updated, err := store.AppendMessage(created.ID, Message{Role: api.RoleUser, Content: "halo"})
		require.NoError(t, err)
		require.Len(t, updated.Messages, 1)
		assert.NotEmpty(t, updated.Messages[0].ID)
		assert.False(t, updated.Messages[0].Timestamp.IsZero())
	})

	t.Run("append only, order preserved", func(t *testing.T) {
		store := NewStore()
		created := store.CreateChat()

		ids := []string{}
		for _, content := range []string{"one", "two", "three"} {
			updated, err := store.AppendMessage(created.ID, Message{Role: api.RoleUser, Content: content})
			require.NoError(t, err)

			var got []string
			for _, msg := range updated.Messages {
				got = append(got, msg.ID)
			}
			// ids after N appends extend the ids after N-1 appends
			assert.Equal(t, ids, got[:len(ids)])
			ids = got
		}
		assert.Len(t, ids, 3)
	})

	t.Run("title set once from first user message", func(t *testing.T) {
		store := NewStore()
		created := store.CreateChat()

		long := strings.Repeat("panjang ", 10)
		updated, err := store.AppendMessage(created.ID, Message{Role: api.RoleUser, Content: long})
		require.NoError(t, err)
		assert.Equal(t, string([]rune(long)[:30]), updated.Title)

		updated, err = store.AppendMessage(created.ID, Message{Role: api.RoleAssistant, Content: "balasan"})
		require.NoError(t, err)
		updated, err = store.AppendMessage(created.ID, Message{Role: api.RoleUser, Content: "different"})
		require.NoError(t, err)
		assert.Equal(t, string([]rune(long)[:30]), updated.Title)
	})

	t.Run("assistant first message keeps placeholder title", func(t *testing.T) {
		store := NewStore()
		created := store.CreateChat()

		updated, err := store.AppendMessage(created.ID, Message{Role: api.RoleAssistant, Content: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "New Chat", updated.Title)
	})

	t.Run("unknown chat", func(t *testing.T) {
		store := NewStore()
		_, err := store.AppendMessage("missing", Message{Role: api.RoleUser, Content: "x"})
		assert.ErrorIs(t, err, ErrChatNotFound)
	})
}

func TestStoreHandsOutCopies(t *testing.T) {
	store := NewStore()
	created := store.CreateChat()

	updated, err := store.AppendMessage(created.ID, Message{Role: api.RoleUser, Content: "asli"})
	require.NoError(t, err)

	// mutating the returned copy must not touch committed history
	updated.Messages[0].Content = "diubah"

	got, ok := store.GetChat(created.ID)
	require.True(t, ok)
	assert.Equal(t, "asli", got.Messages[0].Content)
}
