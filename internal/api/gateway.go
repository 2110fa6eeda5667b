package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"sorachio-backend/internal/gateway"
	"sorachio-backend/pkg/api"
)

// GatewayService exposes the credential-holding relay. Its error envelope
// mirrors the upstream failure class and never leaks the credential.
type GatewayService struct {
	relay *gateway.Relay
}

func NewGatewayService(relay *gateway.Relay) *GatewayService {
	return &GatewayService{relay: relay}
}

func (s *GatewayService) AddRoutes(r chi.Router) {
	r.Post("/api/chat", s.Chat)
	r.Get("/api/search", RestHandler(s.Search))
}

// Chat relays one completion request. On success the provider's envelope is
// passed through verbatim; failures are reported in the gateway error
// envelope with a status mirroring the failure class.
func (s *GatewayService) Chat(w http.ResponseWriter, r *http.Request) {
	var req api.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("error parsing relay request body", "error", err)
		writeGatewayError(w, http.StatusBadRequest, "Internal Server Error", "Invalid JSON in request body", 0)
		return
	}

	completion, err := s.relay.Complete(r.Context(), &req)
	if err != nil {
		gerr := gateway.AsError(err)
		switch gerr.Kind {
		case gateway.KindConfig:
			writeGatewayError(w, gerr.Status, "Server Configuration Error", gerr.Detail, 0)
		case gateway.KindUpstream:
			writeGatewayError(w, gerr.Status, "OpenRouter API Error", gerr.Detail, gerr.Status)
		case gateway.KindMalformed:
			writeGatewayError(w, gerr.Status, "Internal Server Error", gerr.Detail, 0)
		default:
			writeGatewayError(w, gerr.Status, "Internal Server Error", gerr.Detail, 0)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(completion.Raw); err != nil {
		slog.Error("error writing relay response", "error", err)
	}
}

// Search runs a web search through the relay's provider. Exists so clients
// never need the search credential; degrades to 503 when none is configured.
func (s *GatewayService) Search(r *http.Request) (any, error) {
	if !s.relay.SearchEnabled() {
		return nil, CodedErrorf(http.StatusServiceUnavailable, "search provider is not configured")
	}

	req, err := ParseRequestQueryParams[api.SearchRequest](r)
	if err != nil {
		return nil, err
	}
	if req.Query == "" {
		return nil, CodedErrorf(http.StatusBadRequest, "query parameter {q} must not be empty")
	}

	results, err := s.relay.Search(r.Context(), req.Query, req.Count)
	if err != nil {
		slog.Error("search request failed", "error", err)
		return nil, CodedErrorf(http.StatusBadGateway, "search request failed")
	}

	return api.SearchResponse{Results: results}, nil
}

func writeGatewayError(w http.ResponseWriter, httpStatus int, name, details string, upstreamStatus int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	body := api.ErrorResponse{
		Error:     name,
		Details:   details,
		Status:    upstreamStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("error serializing gateway error response", "error", err)
	}
}
