// Package search provides a small, deterministic, concurrency-safe in-memory
// full-text index over questions. It is rebuilt from the newest questions on
// demand and never written to after construction.
//
// Scoring uses Jaccard similarity between the query token set and each
// document's token set: score = |Q ∩ D| / |Q ∪ D|.
package search

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/tbourn/go-devflow-backend/internal/domain"
)

// Document is one indexed unit.
type Document struct {
	ID    string
	Title string
	Body  string
}

// Result is a ranked document with its similarity score.
type Result struct {
	ID      string  `json:"id"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Index is implemented by all search indices.
type Index interface {
	TopK(query string, k int) []Result
	Len() int
}

// ----------------------------------------------------------------------------
// Options

type Option func(*config)

type config struct {
	minRunes     int
	stopwords    map[string]struct{}
	maxDocs      int
	snippetRunes int
}

func defaultConfig() config {
	return config{
		minRunes:     0,
		stopwords:    toSet(DefaultStopwords),
		maxDocs:      0,
		snippetRunes: 160,
	}
}

// DefaultStopwords are ignored unless WithStopwords replaces them.
var DefaultStopwords = []string{
	"a", "an", "and", "are", "as", "at", "be", "by", "can", "do", "for",
	"from", "how", "i", "in", "is", "it", "of", "on", "or", "that", "the",
	"this", "to", "what", "when", "why", "with",
}

// WithMinRunes skips documents whose text is shorter than n runes.
func WithMinRunes(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.minRunes = n
		}
	}
}

// WithStopwords replaces the stop-word list; an empty list disables it.
func WithStopwords(words []string) Option {
	return func(c *config) {
		c.stopwords = toSet(words)
	}
}

// WithMaxDocs caps the number of indexed documents.
func WithMaxDocs(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxDocs = n
		}
	}
}

// WithSnippetRunes sets the length of result snippets.
func WithSnippetRunes(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.snippetRunes = n
		}
	}
}

func toSet(words []string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w != "" {
			m[w] = struct{}{}
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}

// ----------------------------------------------------------------------------
// Implementation

type doc struct {
	id      string
	title   string
	snippet string
	tokens  map[string]struct{}
}

type index struct {
	cfg  config
	docs []doc
}

// New builds an Index from docs. Bodies are treated as markdown.
func New(docs []Document, opts ...Option) Index {
	cfg := defaultConfig()
	for _, o := range opts {
		o(&cfg)
	}
	return buildIndex(docs, cfg)
}

// FromQuestions indexes the title and content of qs.
func FromQuestions(qs []domain.Question, opts ...Option) Index {
	docs := make([]Document, len(qs))
	for i, q := range qs {
		docs[i] = Document{ID: q.ID, Title: q.Title, Body: q.Content}
	}
	return New(docs, opts...)
}

func buildIndex(in []Document, cfg config) *index {
	docs := make([]doc, 0, len(in))
	for _, d := range in {
		body := strings.TrimSpace(normalizeWhitespace(PlainText(d.Body)))
		title := strings.TrimSpace(normalizeWhitespace(d.Title))
		text := strings.TrimSpace(title + " " + body)
		if text == "" {
			continue
		}
		if cfg.minRunes > 0 && utf8.RuneCountInString(text) < cfg.minRunes {
			continue
		}
		toks := tokenize(text, cfg.stopwords)
		if len(toks) == 0 {
			continue
		}
		docs = append(docs, doc{
			id:      d.ID,
			title:   title,
			snippet: clip(body, cfg.snippetRunes),
			tokens:  toks,
		})
		if cfg.maxDocs > 0 && len(docs) >= cfg.maxDocs {
			break
		}
	}
	return &index{cfg: cfg, docs: docs}
}

func (i *index) Len() int { return len(i.docs) }

// TopK returns up to k best-matching documents by Jaccard similarity. Ties
// prefer shorter documents, then lower IDs.
func (i *index) TopK(q string, k int) []Result {
	if len(i.docs) == 0 || strings.TrimSpace(q) == "" {
		return nil
	}
	if k <= 0 {
		k = 10
	}
	qTokens := tokenize(q, i.cfg.stopwords)
	if len(qTokens) == 0 {
		return nil
	}

	type scored struct {
		d     *doc
		score float64
	}
	buf := make([]scored, 0, min(k*4, len(i.docs)))
	for n := range i.docs {
		d := &i.docs[n]
		over := overlap(qTokens, d.tokens)
		if over == 0 {
			continue
		}
		union := float64(len(qTokens) + len(d.tokens) - over)
		buf = append(buf, scored{d: d, score: float64(over) / union})
	}
	if len(buf) == 0 {
		return nil
	}

	sort.SliceStable(buf, func(a, b int) bool {
		if buf[a].score != buf[b].score {
			return buf[a].score > buf[b].score
		}
		if la, lb := len(buf[a].d.tokens), len(buf[b].d.tokens); la != lb {
			return la < lb
		}
		return buf[a].d.id < buf[b].d.id
	})

	k = min(k, len(buf))
	out := make([]Result, k)
	for n := 0; n < k; n++ {
		d := buf[n].d
		out[n] = Result{ID: d.id, Title: d.title, Snippet: d.snippet, Score: buf[n].score}
	}
	return out
}

// ----------------------------------------------------------------------------
// Helpers

var wordRE = regexp.MustCompile(`[\p{L}\p{N}][\p{L}\p{N}+#]*`)

func tokenize(s string, stop map[string]struct{}) map[string]struct{} {
	words := wordRE.FindAllString(strings.ToLower(s), -1)
	if len(words) == 0 {
		return nil
	}
	out := make(map[string]struct{}, len(words))
	for _, w := range words {
		if _, skip := stop[w]; skip {
			continue
		}
		out[w] = struct{}{}
	}
	return out
}

func overlap(a, b map[string]struct{}) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for k := range a {
		if _, ok := b[k]; ok {
			n++
		}
	}
	return n
}

func normalizeWhitespace(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	prevSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' || r == '\r' || r == '\n' {
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
			continue
		}
		prevSpace = false
		b.WriteRune(r)
	}
	return b.String()
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return strings.TrimSpace(string([]rune(s)[:n])) + "…"
}
