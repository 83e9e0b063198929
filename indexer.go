package blaze

// ═══════════════════════════════════════════════════════════════════════════════
// INDEXER: Turning Paths Into Indexed Documents
// ═══════════════════════════════════════════════════════════════════════════════
// The InvertedIndex only knows how to record terms, lengths, and metadata -
// it has no idea what a "file" is. The Indexer is the component that reads a
// path through a DocumentReader, tokenizes what comes back, assigns a DocId,
// and drives the index's per-term/per-document API one call at a time.
//
// EXAMPLE:
// --------
//
//	idx := NewInvertedIndex()
//	ix := NewIndexer(NewMultiReader(), idx)
//	docID, err := ix.IndexFile("docs/readme.txt")
//	// docID == 1, idx now has "readme.txt"'s terms recorded
// ═══════════════════════════════════════════════════════════════════════════════

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
)

// ErrIngest wraps any failure encountered while reading or indexing a single
// file (spec's ReaderError taxonomy, surfaced from IndexFile).
var ErrIngest = errors.New("ingest failed")

// IndexerConfig governs which file extensions IndexDirectory will walk into.
type IndexerConfig struct {
	SupportedExtensions []string
}

// DefaultIndexerConfig returns the full extension set spec §6 names.
func DefaultIndexerConfig() IndexerConfig {
	return IndexerConfig{
		SupportedExtensions: []string{
			"txt", "pdf", "doc", "docx", "ppt", "pptx", "xls", "xlsx", "htm", "html", "xml",
		},
	}
}

// Indexer drives document ingest: read → tokenize → assign DocId → record.
//
// The next-DocId counter is owned here, not by the InvertedIndex, because
// DocId assignment is an ingest-time concern - the index itself only ever
// receives a DocId it's told to use.
type Indexer struct {
	reader    DocumentReader
	index     *InvertedIndex
	nextDocID atomic.Int64
	config    IndexerConfig
}

// NewIndexer creates an Indexer reading documents via reader and recording
// them into index. DocIds start at 1, per spec §4.3.
func NewIndexer(reader DocumentReader, index *InvertedIndex) *Indexer {
	ix := &Indexer{
		reader: reader,
		index:  index,
		config: DefaultIndexerConfig(),
	}
	ix.nextDocID.Store(1)
	return ix
}

// IndexFile reads, tokenizes, and records a single document, returning its
// freshly assigned DocId.
//
// ALGORITHM (spec §4.3):
//  1. Read raw text via the reader.
//  2. Tokenize into an ordered term list.
//  3. Atomically obtain docID = nextDocID++.
//  4. For each (position, term), call index.AddTerm(term, docID, position).
//  5. Call index.SetDocLength(docID, len(tokens)).
//  6. Call index.AddDocMeta with the path's basename as title.
func (ix *Indexer) IndexFile(path string) (int, error) {
	text, err := ix.reader.Read(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrIngest, path, err)
	}

	tokens := Analyze(text)

	docID := int(ix.nextDocID.Add(1) - 1)

	slog.Info("indexing document", slog.String("path", path), slog.Int("doc_id", docID))

	for position, token := range tokens {
		ix.index.AddTerm(token, docID, position)
	}

	ix.index.SetDocLength(docID, len(tokens))
	ix.index.AddDocMeta(DocumentMeta{
		Id:     docID,
		Path:   path,
		Title:  filepath.Base(path),
		Length: len(tokens),
	})

	return docID, nil
}

// IndexDirectory walks root recursively, indexing every file whose
// lowercased extension is in the configured supported set. A failure on a
// single file is logged and skipped - it is never fatal to the walk.
func (ix *Indexer) IndexDirectory(root string) error {
	supported := make(map[string]struct{}, len(ix.config.SupportedExtensions))
	for _, ext := range ix.config.SupportedExtensions {
		supported["."+strings.ToLower(ext)] = struct{}{}
	}

	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			slog.Warn("walk failed", slog.String("path", path), slog.String("error", err.Error()))
			return nil
		}
		if info.IsDir() {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := supported[ext]; !ok {
			return nil
		}

		if _, err := ix.IndexFile(path); err != nil {
			slog.Warn("skipping file", slog.String("path", path), slog.String("error", err.Error()))
		}
		return nil
	})
}
