package search

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"sorachio-backend/pkg/api"
)

// MaxResults is the provider-side result cap; there is no pagination.
const MaxResults = 5

type braveResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			Snippet     string `json:"snippet"`
		} `json:"results"`
	} `json:"web"`
}

// Client queries the Brave web-search API.
type Client struct {
	client *resty.Client
	token  string
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		client: resty.New().SetBaseURL(baseURL),
		token:  token,
	}
}

// Search runs one web search and normalizes the hits. count is clamped to
// MaxResults; a non-positive count means MaxResults. The success path never
// returns a nil slice.
func (c *Client) Search(ctx context.Context, query string, count int) ([]api.SearchResult, error) {
	if query == "" {
		return nil, fmt.Errorf("search query must not be empty")
	}
	if count <= 0 || count > MaxResults {
		count = MaxResults
	}

	var body braveResponse
	res, err := c.client.R().
		SetContext(ctx).
		SetHeader("Accept", "application/json").
		SetHeader("Accept-Encoding", "gzip").
		SetHeader("X-Subscription-Token", c.token).
		SetQueryParam("q", query).
		SetQueryParam("count", strconv.Itoa(count)).
		SetResult(&body).
		Get("/res/v1/web/search")
	if err != nil {
		return nil, fmt.Errorf("error calling search api: %w", err)
	}
	if !res.IsSuccess() {
		return nil, fmt.Errorf("search api returned status %d: %s", res.StatusCode(), res.String())
	}

	results := make([]api.SearchResult, 0, len(body.Web.Results))
	for _, r := range body.Web.Results {
		results = append(results, api.SearchResult{
			Title:       r.Title,
			URL:         r.URL,
			Description: r.Description,
			Snippet:     r.Snippet,
		})
	}
	if len(results) > count {
		results = results[:count]
	}
	return results, nil
}
