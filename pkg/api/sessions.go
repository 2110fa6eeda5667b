package api

// SendMessageRequest runs one turn against a chat. Image is an optional
// base64-encoded image (a bare payload or a full data URI); ForceSearch
// short-circuits the keyword heuristic.
type SendMessageRequest struct {
	Content     string `json:"content"`
	Image       string `json:"image,omitempty"`
	ForceSearch bool   `json:"force_search,omitempty"`
}

type CreateChatResponse struct {
	ChatID string `json:"chat_id"`
}
