package api

import (
	"encoding/json"
	"fmt"
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ImageURL carries an image payload as a data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentPart is one element of a multi-part message content, either a text
// part or an image part.
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// MessageContent is either a plain string or a list of content parts. The
// provider wire format uses a bare JSON string for text-only messages and an
// array of typed parts when an image is attached.
type MessageContent struct {
	Text  string
	Parts []ContentPart
}

func TextContent(text string) MessageContent {
	return MessageContent{Text: text}
}

func PartsContent(parts ...ContentPart) MessageContent {
	return MessageContent{Parts: parts}
}

func (c MessageContent) MarshalJSON() ([]byte, error) {
	if c.Parts != nil {
		return json.Marshal(c.Parts)
	}
	return json.Marshal(c.Text)
}

func (c *MessageContent) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.Parts = nil
		return nil
	}

	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("message content must be a string or a list of content parts")
	}
	c.Text = ""
	c.Parts = parts
	return nil
}

// AppendText adds text to the content, preserving its shape: plain string
// content is concatenated, part-structured content has the text appended to
// its first text part so an attached image is not lost.
func (c *MessageContent) AppendText(text string) {
	if c.Parts == nil {
		c.Text += text
		return
	}
	for i := range c.Parts {
		if c.Parts[i].Type == "text" {
			c.Parts[i].Text += text
			return
		}
	}
	c.Parts = append([]ContentPart{{Type: "text", Text: text}}, c.Parts...)
}

// ChatMessage is one role-tagged message in a completion request.
type ChatMessage struct {
	Role    string         `json:"role"`
	Content MessageContent `json:"content"`
}

// ChatCompletionRequest is the body of POST /api/chat. SearchQuery is a
// relay extension: when set, the relay performs a web search and folds the
// results into the trailing user message before forwarding. It is stripped
// before the request reaches the model provider.
type ChatCompletionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	SearchQuery string        `json:"searchQuery,omitempty"`
}

type CompletionMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Choice struct {
	Message      CompletionMessage `json:"message"`
	FinishReason string            `json:"finish_reason,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the provider's completion envelope. Raw holds
// the provider's response bytes verbatim so the relay endpoint can pass them
// through untouched.
type ChatCompletionResponse struct {
	ID      string   `json:"id,omitempty"`
	Model   string   `json:"model,omitempty"`
	Choices []Choice `json:"choices"`
	Usage   *Usage   `json:"usage,omitempty"`

	Raw []byte `json:"-"`
}

// ErrorResponse is the relay's failure envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details"`
	Status    int    `json:"status,omitempty"`
	Timestamp string `json:"timestamp"`
}
