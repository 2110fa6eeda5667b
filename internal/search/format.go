package search

import (
	"fmt"
	"strings"

	"sorachio-backend/pkg/api"
)

const (
	preamble      = "\n\nInformasi terbaru dari internet:\n"
	noResultsNote = "\n\nTidak ada hasil pencarian internet yang ditemukan."
)

// FormatForPrompt renders search hits as a numbered block ready to append to
// the trailing user message. A search that came back empty yields a "no
// results" note instead, so the model knows a search was attempted.
func FormatForPrompt(results []api.SearchResult) string {
	if len(results) == 0 {
		return noResultsNote
	}

	var b strings.Builder
	b.WriteString(preamble)
	for i, r := range results {
		fmt.Fprintf(&b, "[%d] %s\n%s\nSumber: %s\n", i+1, r.Title, r.Description, r.URL)
		if i < len(results)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
