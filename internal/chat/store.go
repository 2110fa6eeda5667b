package chat

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"sorachio-backend/pkg/api"
)

// ErrChatNotFound is returned for operations against a deleted or unknown
// chat id.
var ErrChatNotFound = errors.New("chat not found")

const (
	defaultTitle = "New Chat"
	titleRunes   = 30
)

// Message is one committed turn half. Messages are immutable once appended;
// search text is never folded into the stored content, only the
// HasSearchContent flag records that a turn was augmented.
type Message struct {
	ID               string    `json:"id"`
	Role             string    `json:"role"`
	Content          string    `json:"content"`
	Image            string    `json:"image,omitempty"`
	Timestamp        time.Time `json:"timestamp"`
	HasSearchContent bool      `json:"has_search_content,omitempty"`
}

// Chat is an ordered, append-only message sequence. The store hands out
// copies, so callers can never mutate committed history in place.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Chat) clone() Chat {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return out
}

// Store holds every chat session in process memory. All access goes through
// one mutex; values returned to callers are copies.
type Store struct {
	mu    sync.Mutex
	chats map[string]*Chat
	order []string
}

func NewStore() *Store {
	return &Store{chats: make(map[string]*Chat)}
}

// CreateChat registers an empty chat with a placeholder title and returns a
// copy of it.
func (s *Store) CreateChat() Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	chat := &Chat{
		ID:        uuid.NewString(),
		Title:     defaultTitle,
		Messages:  []Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.chats[chat.ID] = chat
	s.order = append(s.order, chat.ID)
	return chat.clone()
}

func (s *Store) GetChat(chatID string) (Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return Chat{}, false
	}
	return chat.clone(), true
}

// ListChats returns every chat in insertion order.
func (s *Store) ListChats() []Chat {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Chat, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.chats[id].clone())
	}
	return out
}

// DeleteChat removes the chat permanently; there is no tombstone or undo.
func (s *Store) DeleteChat(chatID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.chats[chatID]; !ok {
		return ErrChatNotFound
	}
	delete(s.chats, chatID)
	for i, id := range s.order {
		if id == chatID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// AppendMessage commits a message to the chat. The store owns identity and
// timestamping: a fresh id is assigned and a zero timestamp is filled in.
// The first user message appended to an empty chat sets the title, exactly
// once, from its leading characters. Returns the updated chat.
func (s *Store) AppendMessage(chatID string, msg Message) (Chat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	chat, ok := s.chats[chatID]
	if !ok {
		return Chat{}, ErrChatNotFound
	}

	msg.ID = uuid.NewString()
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	if len(chat.Messages) == 0 && msg.Role == api.RoleUser {
		chat.Title = truncateTitle(msg.Content)
	}

	chat.Messages = append(chat.Messages, msg)
	chat.UpdatedAt = time.Now()
	return chat.clone(), nil
}

func truncateTitle(content string) string {
	runes := []rune(content)
	if len(runes) > titleRunes {
		runes = runes[:titleRunes]
	}
	return string(runes)
}
