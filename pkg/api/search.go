package api

// SearchResult is one normalized web-search hit.
type SearchResult struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Description string `json:"description"`
	Snippet     string `json:"snippet,omitempty"`
}

// SearchRequest holds the query parameters of GET /api/search.
type SearchRequest struct {
	Query string `schema:"q,required"`
	Count int    `schema:"count"`
}

type SearchResponse struct {
	Results []SearchResult `json:"results"`
}
