package chat

import "strings"

// Decider determines whether a user message warrants a live web search.
// It is a one-method strategy so the keyword heuristic can be replaced by a
// classifier without touching the orchestrator.
type Decider interface {
	Decide(text string) bool
}

// searchKeywords are the bilingual (Indonesian/English) trigger terms.
// Matching is any-of substring: a single hit anywhere in the text triggers
// augmentation. Substring matching trades precision for recall; "now" inside
// an unrelated word is an accepted false positive.
var searchKeywords = []string{
	// Indonesian variations
	"terbaru", "berita", "informasi", "update", "sekarang", "hari ini",
	"kapan", "dimana", "siapa", "harga", "cuaca", "stock", "saham",
	// variations of "carikan" including typos and informal spellings
	"carikan", "cariin", "cari kan", "cari in", "tolong carikan", "tolong cari",
	"kasih tau", "kasih tahu", "info tentang", "info soal",
	// English variations
	"latest", "news", "current", "recent", "today", "now",
	"when", "where", "who", "price", "weather", "find me", "search for",
	"tell me about", "information about", "what is the latest",
}

// KeywordDecider is the default, pure and deterministic implementation.
type KeywordDecider struct {
	keywords []string
}

func NewKeywordDecider() *KeywordDecider {
	return &KeywordDecider{keywords: searchKeywords}
}

func (d *KeywordDecider) Decide(text string) bool {
	if text == "" {
		return false
	}
	normalized := strings.ToLower(text)
	for _, keyword := range d.keywords {
		if strings.Contains(normalized, keyword) {
			return true
		}
	}
	return false
}
