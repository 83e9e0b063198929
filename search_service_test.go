package blaze

import (
	"errors"
	"fmt"
	"testing"
)

func newTestIndex(t *testing.T, docs map[int]string) *InvertedIndex {
	t.Helper()
	idx := NewInvertedIndex()
	for docID, text := range docs {
		tokens := Analyze(text)
		for position, token := range tokens {
			idx.AddTerm(token, docID, position)
		}
		idx.SetDocLength(docID, len(tokens))
		idx.AddDocMeta(DocumentMeta{Id: docID, Path: "", Title: "", Length: len(tokens)})
	}
	return idx
}

// stubReader always returns ErrDocumentNotFound, so previews fall back to the
// unavailable sentinel without needing real files on disk.
type stubReader struct{}

func (stubReader) Read(path string) (string, error) {
	return "", ErrDocumentNotFound
}

func TestSearchService_RanksShorterDocumentHigher(t *testing.T) {
	// Doc A is shorter and "brown" is proportionally more significant to it
	// than to doc B, so BM25 with length normalization should rank A first.
	idx := newTestIndex(t, map[int]string{
		1: "The quick brown fox jumps over the lazy dog.",
		2: "Fast brown foxes leap over sleeping dogs in the park of the city center downtown district today.",
	})
	svc := NewSearchService(idx, stubReader{})

	hits, err := svc.Search("brown")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2", len(hits))
	}
	if hits[0].DocId != 1 {
		t.Errorf("hits[0].DocId = %d, want 1 (shorter doc ranks first)", hits[0].DocId)
	}
	if hits[0].Score < hits[1].Score {
		t.Errorf("hits not in descending score order: %v", hits)
	}
}

func TestSearchService_PhraseQuery(t *testing.T) {
	idx := newTestIndex(t, map[int]string{
		1: "the brown fox ran quickly",
		2: "fox and brown are unrelated words here",
	})
	svc := NewSearchService(idx, stubReader{})

	hits, err := svc.Search(`"brown fox"`)
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	found := false
	for _, h := range hits {
		if h.DocId == 1 {
			found = true
		}
	}
	if !found {
		t.Errorf("expected doc 1 among hits, got %v", hits)
	}
}

func TestSearchService_EmptyQuery(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	hits, err := svc.Search("")
	if err != nil {
		t.Fatalf("Search(\"\") returned error: %v", err)
	}
	if hits != nil {
		t.Errorf("Search(\"\") = %v, want nil", hits)
	}

	hits, err = svc.Search("   ")
	if err != nil {
		t.Fatalf("Search(whitespace) returned error: %v", err)
	}
	if hits != nil {
		t.Errorf("Search(whitespace) = %v, want nil", hits)
	}
}

func TestSearchService_StopwordOnlyQuery(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	hits, err := svc.Search("the and of")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if hits != nil {
		t.Errorf("Search(stopwords only) = %v, want nil", hits)
	}
}

// "and"/"or" lex to operator tokens, not filtered Keywords, so once the
// stopwords are dropped these queries can leave bare operators behind - that
// still must not surface as a parse error.
func TestSearchService_StopwordOnlyQueryWithOperatorWords(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	for _, query := range []string{"the and of", "the a an", "and or"} {
		hits, err := svc.Search(query)
		if err != nil {
			t.Fatalf("Search(%q) returned error: %v", query, err)
		}
		if hits != nil {
			t.Errorf("Search(%q) = %v, want nil", query, hits)
		}
	}
}

func TestSearchService_NoMatchingCandidates(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	hits, err := svc.Search("zebra")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if hits != nil {
		t.Errorf("Search(unseen term) = %v, want nil", hits)
	}
}

func TestSearchService_MalformedQueryWrapsQueryError(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	_, err := svc.Search(`"unterminated`)
	if err == nil {
		t.Fatal("Search returned no error for an unterminated phrase")
	}
	var qErr *QueryError
	if !errors.As(err, &qErr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
	if !errors.Is(err, ErrUnterminatedPhrase) {
		t.Errorf("error does not wrap ErrUnterminatedPhrase: %v", err)
	}
}

func TestSearchService_UnbalancedParensWrapsQueryError(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	_, err := svc.Search("(brown AND fox")
	if err == nil {
		t.Fatal("Search returned no error for unbalanced parens")
	}
	var qErr *QueryError
	if !errors.As(err, &qErr) {
		t.Fatalf("error = %v, want *QueryError", err)
	}
	if !errors.Is(err, ErrUnbalancedParens) {
		t.Errorf("error does not wrap ErrUnbalancedParens: %v", err)
	}
}

func TestSearchService_DuplicateQueryTermsDoNotMultiplyScore(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	single, err := svc.Search("brown")
	if err != nil {
		t.Fatalf("Search(\"brown\") returned error: %v", err)
	}
	repeated, err := svc.Search("brown brown brown")
	if err != nil {
		t.Fatalf("Search(\"brown brown brown\") returned error: %v", err)
	}

	if len(single) != 1 || len(repeated) != 1 {
		t.Fatalf("expected exactly one hit each: single=%v repeated=%v", single, repeated)
	}
	if single[0].Score != repeated[0].Score {
		t.Errorf("repeating a query term changed the score: %v vs %v", single[0].Score, repeated[0].Score)
	}
}

func TestSearchService_PreviewUnavailableWhenReaderFails(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})

	hits, err := svc.Search("brown")
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(hits) != 1 {
		t.Fatalf("len(hits) = %d, want 1", len(hits))
	}
	if hits[0].Preview != previewUnavailable {
		t.Errorf("Preview = %q, want %q", hits[0].Preview, previewUnavailable)
	}
}

func TestSearchService_RankedSuggestionsScoresWholeCorpus(t *testing.T) {
	idx := newTestIndex(t, map[int]string{
		1: "quick brown fox",
		2: "completely unrelated content about something else",
	})
	svc := NewSearchService(idx, stubReader{})

	hits := svc.RankedSuggestions("brown")
	if len(hits) != 2 {
		t.Fatalf("len(hits) = %d, want 2 (whole corpus, ignoring candidacy)", len(hits))
	}
}

// Search must be safe to run concurrently with indexing - scoreBag's
// candidate lookup and BM25 scoring read the same maps Indexer.IndexFile
// writes, and both sides need to hold idx.mu for it.
func TestSearchService_ConcurrentSearchAndIndexing(t *testing.T) {
	idx := newTestIndex(t, map[int]string{1: "quick brown fox"})
	svc := NewSearchService(idx, stubReader{})
	ix := NewIndexer(&PlainTextReader{}, idx)

	dir := t.TempDir()
	paths := make([]string, 0, 20)
	for i := 0; i < 20; i++ {
		paths = append(paths, writeTestFile(t, dir, fmt.Sprintf("doc%d.txt", i), "brown fox in the park"))
	}

	done := make(chan bool, 2)

	go func() {
		for _, p := range paths {
			ix.IndexFile(p)
		}
		done <- true
	}()

	go func() {
		for i := 0; i < 20; i++ {
			svc.Search("brown")
		}
		done <- true
	}()

	<-done
	<-done
}
