package search

import (
	"fmt"
	"sync"
	"testing"

	"github.com/tbourn/go-devflow-backend/internal/domain"
)

func TestOptionsAndDefaults(t *testing.T) {
	def := defaultConfig()
	if def.minRunes != 0 || def.maxDocs != 0 || def.snippetRunes != 160 {
		t.Fatalf("defaultConfig unexpected: %#v", def)
	}
	if _, ok := def.stopwords["the"]; !ok {
		t.Fatalf("default stopwords should contain 'the'")
	}

	cfg := def
	WithMinRunes(10)(&cfg)
	WithMinRunes(-5)(&cfg) // ignored
	if cfg.minRunes != 10 {
		t.Fatalf("WithMinRunes failed: %d", cfg.minRunes)
	}
	WithStopwords([]string{"  Go ", ""})(&cfg)
	if _, ok := cfg.stopwords["go"]; !ok || len(cfg.stopwords) != 1 {
		t.Fatalf("WithStopwords failed: %#v", cfg.stopwords)
	}
	WithStopwords(nil)(&cfg)
	if cfg.stopwords != nil {
		t.Fatalf("empty stopwords should disable filtering")
	}
	WithMaxDocs(2)(&cfg)
	WithMaxDocs(0)(&cfg) // ignored
	WithSnippetRunes(5)(&cfg)
	if cfg.maxDocs != 2 || cfg.snippetRunes != 5 {
		t.Fatalf("unexpected cfg: %#v", cfg)
	}
}

func TestTopK_RanksByJaccard(t *testing.T) {
	idx := New([]Document{
		{ID: "q1", Title: "Goroutine leak in HTTP server", Body: "My server leaks goroutines after each request."},
		{ID: "q2", Title: "React useEffect runs twice", Body: "Why does useEffect run twice in strict mode?"},
		{ID: "q3", Title: "Goroutine scheduling", Body: "How does the Go scheduler pick a goroutine?"},
	})
	if idx.Len() != 3 {
		t.Fatalf("expected 3 docs, got %d", idx.Len())
	}

	got := idx.TopK("goroutine leak", 5)
	if len(got) != 2 {
		t.Fatalf("expected 2 hits, got %+v", got)
	}
	if got[0].ID != "q1" {
		t.Fatalf("expected q1 first, got %+v", got)
	}
	if got[0].Score <= got[1].Score {
		t.Fatalf("scores not descending: %+v", got)
	}
	if got[0].Title != "Goroutine leak in HTTP server" || got[0].Snippet == "" {
		t.Fatalf("unexpected result fields: %+v", got[0])
	}

	if r := idx.TopK("   ", 5); r != nil {
		t.Fatalf("blank query should return nil, got %+v", r)
	}
	if r := idx.TopK("the and of", 5); r != nil {
		t.Fatalf("stop-word-only query should return nil, got %+v", r)
	}
	if r := idx.TopK("kubernetes", 5); r != nil {
		t.Fatalf("no-overlap query should return nil, got %+v", r)
	}
	if r := idx.TopK("goroutine", 1); len(r) != 1 {
		t.Fatalf("k should cap results, got %+v", r)
	}
}

func TestTopK_TieBreakDeterministic(t *testing.T) {
	idx := New([]Document{
		{ID: "b", Title: "alpha beta"},
		{ID: "a", Title: "alpha gamma"},
	}, WithStopwords(nil))
	got := idx.TopK("alpha", 0)
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected ID tie-break, got %+v", got)
	}
}

func TestNew_FiltersAndCaps(t *testing.T) {
	docs := []Document{
		{ID: "empty"},
		{ID: "short", Title: "tiny"},
		{ID: "long1", Title: "a long enough question title"},
		{ID: "long2", Title: "another long enough question title"},
	}
	idx := New(docs, WithMinRunes(10), WithMaxDocs(1))
	if idx.Len() != 1 {
		t.Fatalf("expected 1 doc after filtering, got %d", idx.Len())
	}
}

func TestFromQuestions_SnippetAndMarkdown(t *testing.T) {
	qs := []domain.Question{{
		ID:      "q1",
		Title:   "Parse JSON",
		Content: "Use **encoding/json** and see [docs](https://pkg.go.dev) for details about decoding payloads.",
	}}
	idx := FromQuestions(qs, WithSnippetRunes(20))
	got := idx.TopK("docs json", 1)
	if len(got) != 1 {
		t.Fatalf("expected hit, got %+v", got)
	}
	if got[0].Snippet != "Use encoding/json an…" {
		t.Fatalf("unexpected snippet %q", got[0].Snippet)
	}
}

func TestTopK_ConcurrentReads(t *testing.T) {
	docs := make([]Document, 50)
	for i := range docs {
		docs[i] = Document{ID: fmt.Sprintf("q%02d", i), Title: fmt.Sprintf("question number %d about golang", i)}
	}
	idx := New(docs)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if r := idx.TopK("golang", 3); len(r) != 3 {
				t.Errorf("expected 3 results, got %d", len(r))
			}
		}()
	}
	wg.Wait()
}
