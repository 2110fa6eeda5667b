package chat

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"sorachio-backend/internal/gateway"
	"sorachio-backend/internal/imaging"
	"sorachio-backend/pkg/api"
)

// Localized user-facing failure messages. The raw error is logged for
// diagnostics; these are what the end user sees.
const (
	msgGeneric      = "Gagal mengirim pesan. Coba lagi ya!"
	msgMisconfig    = "Server belum dikonfigurasi dengan benar. Silakan hubungi developer."
	msgRateLimited  = "Terlalu banyak request. Tunggu sebentar ya!"
	msgTimeout      = "Request timeout - coba lagi dengan gambar yang lebih kecil atau tanpa gambar"
	msgServerIssue  = "Server sedang bermasalah. Coba lagi dalam beberapa saat."
	msgBadImage     = "Gagal memproses gambar - coba dengan format JPG/PNG yang lebih kecil"
	msgFallbackText = "Maaf, aku lagi error nih. Coba lagi ya!"
)

// Completer is the model-request dependency of the orchestrator, satisfied
// by *gateway.Relay.
type Completer interface {
	Complete(ctx context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error)
}

// TurnError carries a localized, user-facing message alongside the
// underlying cause and the HTTP status to surface.
type TurnError struct {
	UserMessage string
	Status      int
	Err         error
}

func (e *TurnError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

func (e *TurnError) Unwrap() error { return e.Err }

// TurnStatus is the UI-facing view of an in-flight turn.
type TurnStatus struct {
	IsLoading           bool `json:"is_loading"`
	IsSearchingInternet bool `json:"is_searching_internet"`
}

type turnState struct {
	turnMu sync.Mutex // held for the whole turn, serializes turns per chat

	mu        sync.Mutex
	loading   bool
	searching bool
}

func (t *turnState) set(loading, searching bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = loading
	t.searching = searching
}

func (t *turnState) status() TurnStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return TurnStatus{IsLoading: t.loading, IsSearchingInternet: t.searching}
}

// Orchestrator runs one user turn end to end: append the user message,
// decide on augmentation, call the relay, and append the assistant reply.
// Turns are serialized per chat; two concurrent SendMessage calls on the
// same chat never interleave their appends.
type Orchestrator struct {
	store   *Store
	relay   Completer
	decider Decider
	codec   imaging.Codec
	model   string
	timeout time.Duration

	mu    sync.Mutex
	turns map[string]*turnState
}

const (
	defaultTemperature = 0.7
	defaultMaxTokens   = 4000
)

func NewOrchestrator(store *Store, relay Completer, decider Decider, codec imaging.Codec, model string, timeout time.Duration) *Orchestrator {
	return &Orchestrator{
		store:   store,
		relay:   relay,
		decider: decider,
		codec:   codec,
		model:   model,
		timeout: timeout,
		turns:   make(map[string]*turnState),
	}
}

func (o *Orchestrator) turn(chatID string) *turnState {
	o.mu.Lock()
	defer o.mu.Unlock()
	state, ok := o.turns[chatID]
	if !ok {
		state = &turnState{}
		o.turns[chatID] = state
	}
	return state
}

// Status reports the loading flags for a chat. Both are false whenever no
// turn is in flight.
func (o *Orchestrator) Status(chatID string) TurnStatus {
	return o.turn(chatID).status()
}

// DeleteChat removes the chat and forgets its turn state, so the turns map
// does not grow with deleted chats. An in-flight turn on the deleted chat
// fails at its next append and clears its own flags.
func (o *Orchestrator) DeleteChat(chatID string) error {
	if err := o.store.DeleteChat(chatID); err != nil {
		return err
	}
	o.mu.Lock()
	delete(o.turns, chatID)
	o.mu.Unlock()
	return nil
}

// SendMessage runs one turn. On success it returns the appended assistant
// message and the updated chat. On failure no assistant message is appended,
// the user's own message stays committed, and the returned error is a
// *TurnError with a localized message.
func (o *Orchestrator) SendMessage(ctx context.Context, chatID, content, image string, forceSearch bool) (Message, Chat, error) {
	state := o.turn(chatID)
	state.turnMu.Lock()
	defer state.turnMu.Unlock()

	needsSearch := forceSearch || o.decider.Decide(content)

	state.set(true, needsSearch)
	defer state.set(false, false)

	// The user message commits first, carrying the attachment as supplied,
	// and stays committed on every failure path.
	chat, err := o.store.AppendMessage(chatID, Message{
		Role:    api.RoleUser,
		Content: content,
		Image:   image,
	})
	if err != nil {
		return Message{}, Chat{}, &TurnError{UserMessage: msgGeneric, Status: http.StatusNotFound, Err: err}
	}

	imageDataURI, err := o.processImage(image)
	if err != nil {
		slog.Error("image processing failed", "chat_id", chatID, "error", err)
		return Message{}, Chat{}, &TurnError{UserMessage: msgBadImage, Status: http.StatusBadRequest, Err: err}
	}

	history := chat.Messages[:len(chat.Messages)-1]
	request := &api.ChatCompletionRequest{
		Model:       o.model,
		Messages:    AssemblePrompt(SystemPrompt, history, content, nil, imageDataURI),
		Temperature: defaultTemperature,
		MaxTokens:   defaultMaxTokens,
	}
	if needsSearch {
		request.SearchQuery = content
	}

	callCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	slog.Info("dispatching turn", "chat_id", chatID, "search", needsSearch, "has_image", imageDataURI != "")

	completion, err := o.relay.Complete(callCtx, request)
	if err != nil {
		slog.Error("model request failed", "chat_id", chatID, "error", err)
		return Message{}, Chat{}, classifyTurnFailure(err)
	}

	reply := msgFallbackText
	if len(completion.Choices) > 0 && completion.Choices[0].Message.Content != "" {
		reply = completion.Choices[0].Message.Content
	}

	// The flag records the augmentation decision, not whether the search
	// actually produced usable results.
	assistant := Message{
		Role:             api.RoleAssistant,
		Content:          reply,
		HasSearchContent: needsSearch,
	}
	chat, err = o.store.AppendMessage(chatID, assistant)
	if err != nil {
		return Message{}, Chat{}, &TurnError{UserMessage: msgGeneric, Status: http.StatusNotFound, Err: err}
	}

	return chat.Messages[len(chat.Messages)-1], chat, nil
}

func (o *Orchestrator) processImage(image string) (string, error) {
	if image == "" {
		return "", nil
	}
	data, err := imaging.DecodePayload(image)
	if err != nil {
		return "", err
	}
	return o.codec.Encode(data, imaging.DefaultMaxDimension)
}

func classifyTurnFailure(err error) *TurnError {
	if errors.Is(err, context.DeadlineExceeded) {
		return &TurnError{UserMessage: msgTimeout, Status: http.StatusGatewayTimeout, Err: err}
	}

	var gerr *gateway.Error
	if !errors.As(err, &gerr) {
		return &TurnError{UserMessage: msgGeneric, Status: http.StatusInternalServerError, Err: err}
	}

	switch {
	case gerr.Kind == gateway.KindTimeout:
		return &TurnError{UserMessage: msgTimeout, Status: http.StatusGatewayTimeout, Err: err}
	case gerr.Kind == gateway.KindConfig, gerr.Status == http.StatusUnauthorized:
		return &TurnError{UserMessage: msgMisconfig, Status: http.StatusInternalServerError, Err: err}
	case gerr.Status == http.StatusTooManyRequests:
		return &TurnError{UserMessage: msgRateLimited, Status: http.StatusTooManyRequests, Err: err}
	case gerr.Kind == gateway.KindNetwork, gerr.Status >= http.StatusInternalServerError:
		return &TurnError{UserMessage: msgServerIssue, Status: http.StatusBadGateway, Err: err}
	default:
		return &TurnError{UserMessage: msgGeneric, Status: http.StatusInternalServerError, Err: err}
	}
}
