package blaze

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestPlainTextReader_Read(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "plain.txt", "hello world")

	r := PlainTextReader{}
	text, err := r.Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if text != "hello world" {
		t.Errorf("Read = %q, want %q", text, "hello world")
	}
}

func TestPlainTextReader_MissingFile(t *testing.T) {
	r := PlainTextReader{}
	_, err := r.Read(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("Read returned no error for a missing file")
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("error does not wrap ErrDocumentNotFound: %v", err)
	}
}

func TestHTMLReader_StripsMarkupAndScripts(t *testing.T) {
	dir := t.TempDir()
	html := `<html><head><style>body{color:red}</style></head>` +
		`<body><script>alert("x")</script><h1>Title</h1><p>Hello world</p></body></html>`
	path := writeTestFile(t, dir, "page.html", html)

	r := HTMLReader{}
	text, err := r.Read(path)
	if err != nil {
		t.Fatalf("Read returned error: %v", err)
	}
	if strings.Contains(text, "alert") {
		t.Errorf("script content leaked into extracted text: %q", text)
	}
	if strings.Contains(text, "color:red") {
		t.Errorf("style content leaked into extracted text: %q", text)
	}
	if !strings.Contains(text, "Title") || !strings.Contains(text, "Hello world") {
		t.Errorf("visible text missing from extracted text: %q", text)
	}
}

func TestHTMLReader_MissingFile(t *testing.T) {
	r := HTMLReader{}
	_, err := r.Read(filepath.Join(t.TempDir(), "missing.html"))
	if err == nil {
		t.Fatal("Read returned no error for a missing file")
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("error does not wrap ErrDocumentNotFound: %v", err)
	}
}

func TestMultiReader_DispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	txtPath := writeTestFile(t, dir, "doc.txt", "plain text body")
	htmlPath := writeTestFile(t, dir, "doc.html", "<html><body><p>markup body</p></body></html>")

	r := NewMultiReader()

	text, err := r.Read(txtPath)
	if err != nil {
		t.Fatalf("Read(txt) returned error: %v", err)
	}
	if text != "plain text body" {
		t.Errorf("Read(txt) = %q, want %q", text, "plain text body")
	}

	text, err = r.Read(htmlPath)
	if err != nil {
		t.Fatalf("Read(html) returned error: %v", err)
	}
	if !strings.Contains(text, "markup body") {
		t.Errorf("Read(html) = %q, want it to contain %q", text, "markup body")
	}
}

func TestMultiReader_UnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "archive.zip", "binary-ish content")

	r := NewMultiReader()
	_, err := r.Read(path)
	if err == nil {
		t.Fatal("Read returned no error for an unsupported extension")
	}
	if !errors.Is(err, ErrUnsupportedExtension) {
		t.Errorf("error does not wrap ErrUnsupportedExtension: %v", err)
	}
}

func TestMultiReader_OfficeFormatsFallBackToPlainText(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "report.docx", "office body placeholder")

	r := NewMultiReader()
	text, err := r.Read(path)
	if err != nil {
		t.Fatalf("Read(docx) returned error: %v", err)
	}
	if text != "office body placeholder" {
		t.Errorf("Read(docx) = %q, want the raw fallback text", text)
	}
}

func TestMultiReader_MissingFile(t *testing.T) {
	r := NewMultiReader()
	_, err := r.Read(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("Read returned no error for a missing file")
	}
	if !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("error does not wrap ErrDocumentNotFound: %v", err)
	}
}
