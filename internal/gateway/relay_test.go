package gateway_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sorachio-backend/internal/gateway"
	"sorachio-backend/pkg/api"
)

type fakeSearcher struct {
	results []api.SearchResult
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query string, count int) ([]api.SearchResult, error) {
	f.queries = append(f.queries, query)
	return f.results, f.err
}

func completionBody(content string) string {
	return `{"id":"gen-1","choices":[{"message":{"role":"assistant","content":"` + content + `"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`
}

func newRelay(t *testing.T, upstreamURL, apiKey string, searcher gateway.Searcher) *gateway.Relay {
	t.Helper()
	return gateway.NewRelay(gateway.Config{
		BaseURL:  upstreamURL,
		APIKey:   apiKey,
		Referer:  "https://sorachio.netlify.app",
		AppTitle: "Sorachio Chat App",
	}, searcher)
}

func userRequest(text string) *api.ChatCompletionRequest {
	return &api.ChatCompletionRequest{
		Model:       "test-model",
		Messages:    []api.ChatMessage{{Role: api.RoleUser, Content: api.TextContent(text)}},
		Temperature: 0.7,
		MaxTokens:   4000,
	}
}

func TestRelayComplete(t *testing.T) {
	t.Run("missing credential is a configuration error", func(t *testing.T) {
		relay := newRelay(t, "http://127.0.0.1:0", "", nil)
		_, err := relay.Complete(context.Background(), userRequest("halo"))

		gerr := gateway.AsError(err)
		assert.Equal(t, gateway.KindConfig, gerr.Kind)
		assert.Equal(t, http.StatusInternalServerError, gerr.Status)
	})

	t.Run("empty message list is malformed", func(t *testing.T) {
		relay := newRelay(t, "http://127.0.0.1:0", "sk-test", nil)
		_, err := relay.Complete(context.Background(), &api.ChatCompletionRequest{Model: "m"})

		gerr := gateway.AsError(err)
		assert.Equal(t, gateway.KindMalformed, gerr.Kind)
		assert.Equal(t, http.StatusBadRequest, gerr.Status)
	})

	t.Run("success passes provider envelope through", func(t *testing.T) {
		var gotAuth string
		var gotBody []byte
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotAuth = r.Header.Get("Authorization")
			gotBody, _ = io.ReadAll(r.Body)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(completionBody("Halo juga!")))
		}))
		defer upstream.Close()

		relay := newRelay(t, upstream.URL, "sk-test", nil)
		resp, err := relay.Complete(context.Background(), userRequest("halo"))
		require.NoError(t, err)

		assert.Equal(t, "Bearer sk-test", gotAuth)
		require.Len(t, resp.Choices, 1)
		assert.Equal(t, "Halo juga!", resp.Choices[0].Message.Content)
		require.NotNil(t, resp.Usage)
		assert.Equal(t, 15, resp.Usage.TotalTokens)
		assert.JSONEq(t, completionBody("Halo juga!"), string(resp.Raw))

		// no search was requested, so no searchQuery reaches the provider
		assert.NotContains(t, string(gotBody), "searchQuery")
	})

	t.Run("search query folds results server side", func(t *testing.T) {
		var gotBody []byte
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(completionBody("ok")))
		}))
		defer upstream.Close()

		searcher := &fakeSearcher{results: []api.SearchResult{
			{Title: "Cuaca", URL: "https://bmkg.example", Description: "Hujan ringan"},
		}}
		relay := newRelay(t, upstream.URL, "sk-test", searcher)

		req := userRequest("cuaca hari ini")
		req.SearchQuery = "cuaca hari ini"
		_, err := relay.Complete(context.Background(), req)
		require.NoError(t, err)

		assert.Equal(t, []string{"cuaca hari ini"}, searcher.queries)

		var forwarded api.ChatCompletionRequest
		require.NoError(t, json.Unmarshal(gotBody, &forwarded))
		assert.Empty(t, forwarded.SearchQuery)
		require.Len(t, forwarded.Messages, 1)
		assert.Contains(t, forwarded.Messages[0].Content.Text, "cuaca hari ini")
		assert.Contains(t, forwarded.Messages[0].Content.Text, "Informasi terbaru dari internet:")
		assert.Contains(t, forwarded.Messages[0].Content.Text, "Sumber: https://bmkg.example")

		// the caller's message list keeps the raw utterance
		assert.Equal(t, "cuaca hari ini", req.Messages[0].Content.Text)
	})

	t.Run("failed search degrades to no augmentation", func(t *testing.T) {
		var gotBody []byte
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(completionBody("ok")))
		}))
		defer upstream.Close()

		searcher := &fakeSearcher{err: errors.New("search api returned status 500")}
		relay := newRelay(t, upstream.URL, "sk-test", searcher)

		req := userRequest("berita terbaru")
		req.SearchQuery = "berita terbaru"
		_, err := relay.Complete(context.Background(), req)
		require.NoError(t, err)

		var forwarded api.ChatCompletionRequest
		require.NoError(t, json.Unmarshal(gotBody, &forwarded))
		assert.Equal(t, "berita terbaru", forwarded.Messages[0].Content.Text)
	})

	t.Run("augments the text part when an image is attached", func(t *testing.T) {
		var gotBody []byte
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			_, _ = w.Write([]byte(completionBody("ok")))
		}))
		defer upstream.Close()

		searcher := &fakeSearcher{results: []api.SearchResult{{Title: "T", URL: "https://x.example", Description: "D"}}}
		relay := newRelay(t, upstream.URL, "sk-test", searcher)

		req := &api.ChatCompletionRequest{
			Model: "test-model",
			Messages: []api.ChatMessage{{
				Role: api.RoleUser,
				Content: api.PartsContent(
					api.ContentPart{Type: "text", Text: "gambar apa ini sekarang?"},
					api.ContentPart{Type: "image_url", ImageURL: &api.ImageURL{URL: "data:image/jpeg;base64,abc"}},
				),
			}},
			SearchQuery: "gambar apa ini sekarang?",
		}
		_, err := relay.Complete(context.Background(), req)
		require.NoError(t, err)

		var forwarded api.ChatCompletionRequest
		require.NoError(t, json.Unmarshal(gotBody, &forwarded))
		parts := forwarded.Messages[0].Content.Parts
		require.Len(t, parts, 2)
		assert.Contains(t, parts[0].Text, "Informasi terbaru dari internet:")
		assert.Equal(t, "image_url", parts[1].Type)

		// caller's parts are untouched
		assert.Equal(t, "gambar apa ini sekarang?", req.Messages[0].Content.Parts[0].Text)
	})

	t.Run("provider rejection is an upstream error with parsed detail", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
		}))
		defer upstream.Close()

		relay := newRelay(t, upstream.URL, "sk-bad", nil)
		_, err := relay.Complete(context.Background(), userRequest("halo"))

		gerr := gateway.AsError(err)
		assert.Equal(t, gateway.KindUpstream, gerr.Kind)
		assert.Equal(t, http.StatusUnauthorized, gerr.Status)
		assert.Equal(t, "invalid api key", gerr.Detail)
	})

	t.Run("unreachable provider is a network error", func(t *testing.T) {
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		upstream.Close()

		relay := newRelay(t, upstream.URL, "sk-test", nil)
		_, err := relay.Complete(context.Background(), userRequest("halo"))

		gerr := gateway.AsError(err)
		assert.Equal(t, gateway.KindNetwork, gerr.Kind)
		assert.Equal(t, http.StatusBadGateway, gerr.Status)
	})

	t.Run("expired deadline is a timeout", func(t *testing.T) {
		release := make(chan struct{})
		upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			<-release
		}))
		defer func() {
			close(release)
			upstream.Close()
		}()

		relay := newRelay(t, upstream.URL, "sk-test", nil)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := relay.Complete(ctx, userRequest("halo"))
		gerr := gateway.AsError(err)
		assert.Equal(t, gateway.KindTimeout, gerr.Kind)
	})
}
