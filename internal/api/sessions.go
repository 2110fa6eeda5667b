package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sorachio-backend/internal/chat"
	"sorachio-backend/pkg/api"
)

// SessionService exposes the in-memory chat store and the dispatch
// orchestrator over REST.
type SessionService struct {
	store *chat.Store
	orch  *chat.Orchestrator
}

func NewSessionService(store *chat.Store, orch *chat.Orchestrator) *SessionService {
	return &SessionService{store: store, orch: orch}
}

func (s *SessionService) AddRoutes(r chi.Router) {
	r.Route("/chats", func(r chi.Router) {
		r.Get("/", RestHandler(s.ListChats))
		r.Post("/", RestHandler(s.CreateChat))
		r.Get("/{chat_id}", RestHandler(s.GetChat))
		r.Delete("/{chat_id}", RestHandler(s.DeleteChat))
		r.Post("/{chat_id}/messages", RestHandler(s.SendMessage))
		r.Get("/{chat_id}/status", RestHandler(s.GetStatus))
	})
}

func (s *SessionService) ListChats(r *http.Request) (any, error) {
	return s.store.ListChats(), nil
}

func (s *SessionService) CreateChat(r *http.Request) (any, error) {
	created := s.store.CreateChat()
	return api.CreateChatResponse{ChatID: created.ID}, nil
}

func (s *SessionService) GetChat(r *http.Request) (any, error) {
	chatID, err := URLParam(r, "chat_id")
	if err != nil {
		return nil, err
	}

	found, ok := s.store.GetChat(chatID)
	if !ok {
		return nil, CodedErrorf(http.StatusNotFound, "chat not found")
	}
	return found, nil
}

func (s *SessionService) DeleteChat(r *http.Request) (any, error) {
	chatID, err := URLParam(r, "chat_id")
	if err != nil {
		return nil, err
	}

	if err := s.orch.DeleteChat(chatID); err != nil {
		if errors.Is(err, chat.ErrChatNotFound) {
			return nil, CodedErrorf(http.StatusNotFound, "chat not found")
		}
		return nil, err
	}
	return nil, nil
}

func (s *SessionService) GetStatus(r *http.Request) (any, error) {
	chatID, err := URLParam(r, "chat_id")
	if err != nil {
		return nil, err
	}
	return s.orch.Status(chatID), nil
}

func (s *SessionService) SendMessage(r *http.Request) (any, error) {
	chatID, err := URLParam(r, "chat_id")
	if err != nil {
		return nil, err
	}

	req, err := ParseRequest[api.SendMessageRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Content == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "message content must not be empty")
	}

	_, updated, err := s.orch.SendMessage(r.Context(), chatID, req.Content, req.Image, req.ForceSearch)
	if err != nil {
		var terr *chat.TurnError
		if errors.As(err, &terr) {
			return nil, CodedErrorf(terr.Status, "%s", terr.UserMessage)
		}
		return nil, err
	}

	return updated, nil
}
