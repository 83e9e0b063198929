package blaze

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTestFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile(%s) failed: %v", path, err)
	}
	return path
}

func TestIndexer_IndexFile_AssignsSequentialDocIDs(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.txt", "the quick brown fox")
	pathB := writeTestFile(t, dir, "b.txt", "the lazy dog")

	idx := NewInvertedIndex()
	ix := NewIndexer(&PlainTextReader{}, idx)

	docA, err := ix.IndexFile(pathA)
	if err != nil {
		t.Fatalf("IndexFile(a) returned error: %v", err)
	}
	docB, err := ix.IndexFile(pathB)
	if err != nil {
		t.Fatalf("IndexFile(b) returned error: %v", err)
	}

	if docA != 1 {
		t.Errorf("first DocId = %d, want 1", docA)
	}
	if docB != 2 {
		t.Errorf("second DocId = %d, want 2", docB)
	}
}

func TestIndexer_IndexFile_RecordsMetaAndLength(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "doc.txt", "quick brown fox jumps")

	idx := NewInvertedIndex()
	ix := NewIndexer(&PlainTextReader{}, idx)

	docID, err := ix.IndexFile(path)
	if err != nil {
		t.Fatalf("IndexFile returned error: %v", err)
	}

	meta, exists := idx.GetDocMeta(docID)
	if !exists {
		t.Fatal("GetDocMeta returned exists=false")
	}
	if meta.Path != path {
		t.Errorf("meta.Path = %q, want %q", meta.Path, path)
	}
	if meta.Title != "doc.txt" {
		t.Errorf("meta.Title = %q, want %q", meta.Title, "doc.txt")
	}
	if meta.Length != 4 {
		t.Errorf("meta.Length = %d, want 4", meta.Length)
	}
	if idx.GetDocLength(docID) != 4 {
		t.Errorf("GetDocLength = %d, want 4", idx.GetDocLength(docID))
	}
}

func TestIndexer_IndexFile_MissingFile(t *testing.T) {
	idx := NewInvertedIndex()
	ix := NewIndexer(&PlainTextReader{}, idx)

	_, err := ix.IndexFile(filepath.Join(t.TempDir(), "missing.txt"))
	if err == nil {
		t.Fatal("IndexFile returned no error for a missing file")
	}
}

func TestIndexer_IndexDirectory_SkipsUnsupportedExtensions(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "keep.txt", "quick brown fox")
	writeTestFile(t, dir, "skip.bin", "should not be indexed")

	idx := NewInvertedIndex()
	ix := NewIndexer(&PlainTextReader{}, idx)

	if err := ix.IndexDirectory(dir); err != nil {
		t.Fatalf("IndexDirectory returned error: %v", err)
	}

	if idx.DocumentCount() != 1 {
		t.Errorf("DocumentCount = %d, want 1", idx.DocumentCount())
	}
}

func TestIndexer_IndexDirectory_Recursive(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "nested")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("MkdirAll failed: %v", err)
	}
	writeTestFile(t, dir, "top.txt", "quick brown fox")
	writeTestFile(t, sub, "deep.txt", "lazy sleeping dog")

	idx := NewInvertedIndex()
	ix := NewIndexer(&PlainTextReader{}, idx)

	if err := ix.IndexDirectory(dir); err != nil {
		t.Fatalf("IndexDirectory returned error: %v", err)
	}

	if idx.DocumentCount() != 2 {
		t.Errorf("DocumentCount = %d, want 2", idx.DocumentCount())
	}
}

// A single bad file inside a batch must not abort the whole directory walk.
func TestIndexer_IndexDirectory_NonFatalPerFileFailure(t *testing.T) {
	dir := t.TempDir()
	writeTestFile(t, dir, "good.txt", "quick brown fox")

	idx := NewInvertedIndex()
	ix := NewIndexer(failingReader{}, idx)

	if err := ix.IndexDirectory(dir); err != nil {
		t.Fatalf("IndexDirectory returned error: %v", err)
	}
	if idx.DocumentCount() != 0 {
		t.Errorf("DocumentCount = %d, want 0 (every file failed to read)", idx.DocumentCount())
	}
}

type failingReader struct{}

func (failingReader) Read(path string) (string, error) {
	return "", ErrDocumentNotFound
}
