package blaze

// ═══════════════════════════════════════════════════════════════════════════════
// SEARCH SERVICE: Query String → Ranked Results
// ═══════════════════════════════════════════════════════════════════════════════
// SearchService ties the whole query path together: lex, parse, walk the
// AST into a term bag, union the candidate documents from the index, and
// score them with BM25. It is stateless beyond its injected dependencies -
// every Search call reads the same way, regardless of call order.
//
// EXAMPLE:
// --------
//
//	svc := NewSearchService(idx, NewMultiReader())
//	hits, err := svc.Search("(machine OR python) AND learning")
// ═══════════════════════════════════════════════════════════════════════════════

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// QueryError wraps a LexError or ParseError surfaced from Search, per spec
// §7's QueryError taxonomy entry.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query error: %v", e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// SearchHit is a single ranked result, per spec §6's SearchHit tuple.
type SearchHit struct {
	DocId   int
	Title   string
	Path    string
	Score   float64
	Preview string
}

// previewUnavailable is the sentinel Preview value when the document can no
// longer be re-read (e.g. it was deleted after indexing).
const previewUnavailable = "[preview unavailable]"

// previewRunes is the number of code points of the re-read document text
// Preview shows before truncating with an ellipsis.
const previewRunes = 150

// SearchService evaluates parsed queries against an InvertedIndex and
// assembles human-facing results, re-reading each hit's source document for
// its preview snippet.
type SearchService struct {
	index  *InvertedIndex
	reader DocumentReader
}

// NewSearchService builds a SearchService over index, re-reading documents
// for previews through reader.
func NewSearchService(index *InvertedIndex, reader DocumentReader) *SearchService {
	return &SearchService{index: index, reader: reader}
}

// Search evaluates query and returns ranked hits.
//
// ALGORITHM (spec §4.7):
//  1. Lex and parse the query. Whitespace-only input is not an error - it
//     returns an empty result list.
//  2. Walk the AST, collecting every TermNode/PhraseNode's raw text
//     regardless of the operators connecting them, and re-tokenize the
//     collected text to get the term bag.
//  3. If the bag is empty, return empty.
//  4. Union candidate DocIds from the postings of every distinct term in
//     the bag. If empty, return empty.
//  5. Score every candidate with BM25 and return only candidates, in BM25
//     order (ties broken by DocId ascending).
func (svc *SearchService) Search(query string) ([]SearchHit, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil
	}

	ast, err := ParseQuery(query)
	if err != nil {
		return nil, &QueryError{Err: err}
	}
	if ast == nil {
		return nil, nil
	}

	bag := svc.termBag(ast)
	if len(bag) == 0 {
		return nil, nil
	}

	slog.Info("search", slog.String("query", query), slog.String("terms", fmt.Sprintf("%v", bag)))

	return svc.scoreBag(bag), nil
}

// RankedSuggestions is the advisory fallback surface spec §4.7 names: it
// scores the entire corpus against query's term bag, ignoring candidacy, so
// a caller always has something to show when Search comes back empty.
func (svc *SearchService) RankedSuggestions(query string) []SearchHit {
	bag := dedupeTerms(Analyze(query))
	if len(bag) == 0 {
		return nil
	}

	hits := make([]SearchHit, 0, len(svc.index.AllDocIDs()))
	for _, docID := range svc.index.AllDocIDs() {
		hits = append(hits, svc.scoreDoc(docID, bag))
	}

	sortHits(hits)
	return hits
}

// termBag walks ast collecting TermNode/PhraseNode text (spec §4.7 step 1),
// joins it, and re-tokenizes through the document analyzer - the same
// pipeline that produced the indexed vocabulary - then de-duplicates so a
// repeated term contributes its BM25 weight only once, per spec §4.6's note
// that query-term multiplicity never multiplies a document's contribution.
func (svc *SearchService) termBag(ast QueryNode) []string {
	fragments := collectTermText(ast)
	joined := strings.Join(fragments, " ")
	return dedupeTerms(Analyze(joined))
}

func dedupeTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// scoreBag implements steps 4-5: union the candidate set from postings,
// score each candidate, and return only candidates in BM25 order. Any
// unexpected fault during scoring is logged and treated as
// InternalScoringError - the call then returns no hits (and no error)
// rather than failing the whole search.
func (svc *SearchService) scoreBag(bag []string) (hits []SearchHit) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("internal scoring error", slog.Any("panic", r))
			hits = nil
		}
	}()

	candidates := svc.index.findCandidateDocuments(bag)
	if len(candidates) == 0 {
		return nil
	}

	hits = make([]SearchHit, 0, len(candidates))
	for docID := range candidates {
		hits = append(hits, svc.scoreDoc(docID, bag))
	}

	sortHits(hits)
	return hits
}

func (svc *SearchService) scoreDoc(docID int, bag []string) SearchHit {
	score := svc.index.calculateBM25Score(docID, bag)
	meta, _ := svc.index.GetDocMeta(docID)

	return SearchHit{
		DocId:   docID,
		Title:   meta.Title,
		Path:    meta.Path,
		Score:   score,
		Preview: svc.preview(meta.Path),
	}
}

// sortHits orders by (-score, docID), the total order spec §5/§8 require.
func sortHits(hits []SearchHit) {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].DocId < hits[j].DocId
	})
}

// preview re-reads path and returns its first 150 runes, with an ellipsis
// if the document was longer, or the unavailable sentinel if the document
// could no longer be read (spec §6).
func (svc *SearchService) preview(path string) string {
	text, err := svc.reader.Read(path)
	if err != nil {
		return previewUnavailable
	}

	runes := []rune(text)
	if len(runes) <= previewRunes {
		return string(runes)
	}
	return string(runes[:previewRunes]) + "..."
}
