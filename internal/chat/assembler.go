package chat

import (
	"sorachio-backend/internal/search"
	"sorachio-backend/pkg/api"
)

// SystemPrompt is the fixed persona message prepended to every request.
const SystemPrompt = "You are Sorachio, a friendly and helpful AI assistant developed by 1dle Labs, " +
	"a company focused on building personal, conversational AI for both digital apps and robotic companions. " +
	"Designed with a natural and emotionally aware tone, you aim to make interactions smooth, honest, and enjoyable. " +
	"Respond clearly and politely. Avoid exaggeration or repetition. If unsure, admit it calmly. " +
	"When you have access to internet search results, use them to provide accurate and up-to-date information, " +
	"but always cite your sources. Always provide comprehensive and detailed responses. " +
	"Make sure to provide complete information and don't cut off your responses."

// AssemblePrompt builds the ordered role-tagged message list for one turn:
// the system persona first, prior turns reduced to role and text, and the
// current turn last. history must exclude the in-flight user message.
//
// results, when non-nil, means a search was attempted: its formatted block
// (or the no-results note) is appended to the current text. The orchestrator
// always passes nil and lets the relay fold search results in server side;
// the parameter exists for callers that assemble an already-augmented
// prompt themselves. With an image
// attached the current turn becomes a text part plus an image part; search
// text is applied before the split so an image never drops search context.
// Output is deterministic given identical inputs.
func AssemblePrompt(systemPrompt string, history []Message, currentText string, results []api.SearchResult, imageDataURI string) []api.ChatMessage {
	messages := make([]api.ChatMessage, 0, len(history)+2)
	messages = append(messages, api.ChatMessage{
		Role:    api.RoleSystem,
		Content: api.TextContent(systemPrompt),
	})

	for _, msg := range history {
		messages = append(messages, api.ChatMessage{
			Role:    msg.Role,
			Content: api.TextContent(msg.Content),
		})
	}

	text := currentText
	if results != nil {
		text += search.FormatForPrompt(results)
	}

	current := api.ChatMessage{Role: api.RoleUser, Content: api.TextContent(text)}
	if imageDataURI != "" {
		current.Content = api.PartsContent(
			api.ContentPart{Type: "text", Text: text},
			api.ContentPart{Type: "image_url", ImageURL: &api.ImageURL{URL: imageDataURI}},
		)
	}
	return append(messages, current)
}
