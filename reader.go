package blaze

// ═══════════════════════════════════════════════════════════════════════════════
// DOCUMENT READING: Turning Files Into Raw Text
// ═══════════════════════════════════════════════════════════════════════════════
// The Indexer never opens a file itself - it asks a DocumentReader for the raw
// text at a path. This keeps format extraction (PDF, DOCX, HTML, ...) an
// external concern the core only depends on through a narrow interface.
//
// WHY AN INTERFACE HERE?
// ----------------------
// Real-world corpora mix plain text, HTML, and office formats. The core only
// needs *a* string back; how that string was produced (byte copy, HTML
// scrape, a PDF extraction library) is none of its business.
// ═══════════════════════════════════════════════════════════════════════════════

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupportedExtension is returned by MultiReader when a path's extension
// has no registered reader.
var ErrUnsupportedExtension = errors.New("unsupported document extension")

// ErrDocumentNotFound is returned when the underlying file does not exist.
var ErrDocumentNotFound = errors.New("document not found")

// DocumentReader yields the plain text content of a document at path.
//
// Implementations fail with a wrapped ErrDocumentNotFound, ErrUnsupportedExtension,
// or their own extraction error - never panic.
type DocumentReader interface {
	Read(path string) (string, error)
}

// PlainTextReader reads a file's bytes as UTF-8 text, unmodified.
//
// This is the fallback reader for extensions the core has no markup-aware
// extraction for (txt, and the office formats the spec treats as an external
// collaborator's concern - pdf, doc, docx, ppt, pptx, xls, xlsx - until a host
// plugs in a real extractor for them).
type PlainTextReader struct{}

func (PlainTextReader) Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

// HTMLReader strips markup from an HTML/XML document, returning its visible
// text content. Grounded on goquery, the same jQuery-style selector library
// the retrieval pack uses elsewhere for document scraping.
type HTMLReader struct{}

func (HTMLReader) Read(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrDocumentNotFound, path)
		}
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return "", fmt.Errorf("parsing html %s: %w", path, err)
	}

	// Script/style content is never part of the visible document body.
	doc.Find("script, style").Remove()

	return doc.Text(), nil
}

// MultiReader dispatches to a concrete DocumentReader based on a path's
// lowercased extension, matching the supported-extension set the indexer's
// directory walk enumerates.
type MultiReader struct {
	byExtension map[string]DocumentReader
	fallback    DocumentReader
}

// NewMultiReader builds the default extension dispatch: HTML/XML documents
// go through HTMLReader, everything else (including the office formats left
// out-of-scope by the spec) falls back to PlainTextReader.
func NewMultiReader() *MultiReader {
	html := HTMLReader{}
	return &MultiReader{
		byExtension: map[string]DocumentReader{
			".html": html,
			".htm":  html,
			".xml":  html,
		},
		fallback: PlainTextReader{},
	}
}

func (r *MultiReader) Read(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if reader, ok := r.byExtension[ext]; ok {
		return reader.Read(path)
	}
	if !isSupportedExtension(ext) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedExtension, ext)
	}
	return r.fallback.Read(path)
}

// supportedExtensions is the full set spec §6 names, independent of which
// concrete reader handles each one.
var supportedExtensions = map[string]struct{}{
	".txt":  {},
	".pdf":  {},
	".doc":  {},
	".docx": {},
	".ppt":  {},
	".pptx": {},
	".xls":  {},
	".xlsx": {},
	".htm":  {},
	".html": {},
	".xml":  {},
}

func isSupportedExtension(ext string) bool {
	_, ok := supportedExtensions[ext]
	return ok
}
