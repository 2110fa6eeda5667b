package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"sorachio-backend/internal/search"
	"sorachio-backend/pkg/api"
)

// Searcher is the web-search dependency of the relay. It is satisfied by
// *search.Client; tests supply fakes.
type Searcher interface {
	Search(ctx context.Context, query string, count int) ([]api.SearchResult, error)
}

// Relay is the trusted intermediary that holds the model-provider
// credential. It optionally augments the trailing user message with web
// search results, forwards the request to the provider's chat-completions
// endpoint, and classifies failures. It keeps no state between requests.
type Relay struct {
	client   *resty.Client
	searcher Searcher
	apiKey   string
	referer  string
	appTitle string
}

type Config struct {
	BaseURL  string
	APIKey   string
	Referer  string
	AppTitle string
}

func NewRelay(cfg Config, searcher Searcher) *Relay {
	return &Relay{
		client:   resty.New().SetBaseURL(cfg.BaseURL),
		searcher: searcher,
		apiKey:   cfg.APIKey,
		referer:  cfg.Referer,
		appTitle: cfg.AppTitle,
	}
}

// SearchEnabled reports whether a search credential is configured.
func (r *Relay) SearchEnabled() bool {
	return r.searcher != nil
}

// Search exposes the relay-side search provider directly.
func (r *Relay) Search(ctx context.Context, query string, count int) ([]api.SearchResult, error) {
	if r.searcher == nil {
		return nil, errors.New("search provider is not configured")
	}
	return r.searcher.Search(ctx, query, count)
}

type providerError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete performs one attempt against the model provider. A failed search
// degrades to no augmentation and never fails the request. The SearchQuery
// field is stripped before the payload is forwarded.
func (r *Relay) Complete(ctx context.Context, req *api.ChatCompletionRequest) (*api.ChatCompletionResponse, error) {
	if strings.TrimSpace(r.apiKey) == "" {
		return nil, newError(KindConfig, http.StatusInternalServerError,
			"API key not configured. Please set OPENROUTER_API_KEY environment variable.")
	}
	if len(req.Messages) == 0 {
		return nil, newError(KindMalformed, http.StatusBadRequest, "request has no messages")
	}

	upstream := api.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    append([]api.ChatMessage(nil), req.Messages...),
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	if req.SearchQuery != "" {
		r.augment(ctx, &upstream, req.SearchQuery)
	}

	res, err := r.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", "Bearer "+r.apiKey).
		SetHeader("HTTP-Referer", r.referer).
		SetHeader("X-Title", r.appTitle).
		SetBody(&upstream).
		Post("/chat/completions")
	if err != nil {
		if ctx.Err() != nil {
			return nil, newError(KindTimeout, http.StatusGatewayTimeout, "request to model provider was cancelled: %v", ctx.Err())
		}
		return nil, newError(KindNetwork, http.StatusBadGateway, "unable to connect to model provider: %v", err)
	}

	if !res.IsSuccess() {
		detail := res.String()
		var perr providerError
		if jsonErr := json.Unmarshal(res.Body(), &perr); jsonErr == nil && perr.Error.Message != "" {
			detail = perr.Error.Message
		}
		slog.Error("model provider rejected request", "status", res.StatusCode(), "detail", detail)
		return nil, newError(KindUpstream, res.StatusCode(), "%s", detail)
	}

	var completion api.ChatCompletionResponse
	if err := json.Unmarshal(res.Body(), &completion); err != nil {
		return nil, newError(KindUpstream, http.StatusBadGateway, "unreadable response from model provider: %v", err)
	}
	completion.Raw = append([]byte(nil), res.Body()...)

	slog.Info("completion relayed", "model", upstream.Model, "status", res.StatusCode(), "augmented", req.SearchQuery != "")
	return &completion, nil
}

// augment folds web-search results into the trailing user message of the
// outgoing copy. This is the single authoritative augmentation point; the
// client side only marks the request with a query.
func (r *Relay) augment(ctx context.Context, upstream *api.ChatCompletionRequest, query string) {
	if r.searcher == nil {
		slog.Warn("search requested but no search credential is configured")
		return
	}

	results, err := r.searcher.Search(ctx, query, search.MaxResults)
	if err != nil {
		slog.Error("internet search failed, continuing without augmentation", "error", err)
		return
	}

	last := len(upstream.Messages) - 1
	msg := upstream.Messages[last]
	if msg.Role != api.RoleUser {
		return
	}
	// Augment a copy; the caller's message list must keep the raw utterance.
	if msg.Content.Parts != nil {
		msg.Content.Parts = append([]api.ContentPart(nil), msg.Content.Parts...)
	}
	msg.Content.AppendText(search.FormatForPrompt(results))
	upstream.Messages[last] = msg
	slog.Info("internet search completed", "results", len(results))
}
