package uploads

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSaveWritesBytesVerbatim(t *testing.T) {
	store, err := NewStore(filepath.Join(t.TempDir(), "uploads"), false)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	payload := []byte("%PDF-1.4\x00\x01binary\r\npayload")
	ref, err := store.Save("report.pdf", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if ref.FileName != "report.pdf" || ref.Size != int64(len(payload)) {
		t.Fatalf("unexpected ref: %+v", ref)
	}
	got, err := os.ReadFile(ref.Path)
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("saved bytes differ from upload")
	}

	store.Release(ref)
	if _, err := os.Stat(ref.Path); err != nil {
		t.Fatalf("release without deleteAfterUse should keep the file: %v", err)
	}
}

func TestSaveStripsDirectories(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewStore(dir, false)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	ref, err := store.Save("../../escape.pdf", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	if filepath.Dir(ref.Path) != dir || ref.FileName != "escape.pdf" {
		t.Fatalf("file escaped upload dir: %+v", ref)
	}
}

func TestSaveOverwritesSameName(t *testing.T) {
	store, err := NewStore(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	if _, err := store.Save("a.pdf", bytes.NewReader([]byte("first"))); err != nil {
		t.Fatalf("Save error: %v", err)
	}
	ref, err := store.Save("a.pdf", bytes.NewReader([]byte("second")))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	got, _ := os.ReadFile(ref.Path)
	if string(got) != "second" {
		t.Fatalf("expected overwrite, got %q", got)
	}
}

func TestReleaseDeletesWhenConfigured(t *testing.T) {
	store, err := NewStore(t.TempDir(), true)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	ref, err := store.Save("a.pdf", bytes.NewReader([]byte("x")))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	store.Release(ref)
	if _, err := os.Stat(ref.Path); !os.IsNotExist(err) {
		t.Fatalf("expected file to be removed, stat err=%v", err)
	}
	store.Release(ref)
	store.Release(nil)
}

func TestCleanupExpired(t *testing.T) {
	store, err := NewStore(t.TempDir(), false)
	if err != nil {
		t.Fatalf("NewStore error: %v", err)
	}
	oldRef, _ := store.Save("old.pdf", bytes.NewReader([]byte("old")))
	freshRef, _ := store.Save("fresh.pdf", bytes.NewReader([]byte("fresh")))
	past := time.Now().Add(-48 * time.Hour)
	if err := os.Chtimes(oldRef.Path, past, past); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	removed, err := store.cleanupExpired(time.Now(), 24*time.Hour)
	if err != nil {
		t.Fatalf("cleanupExpired error: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	if _, err := os.Stat(oldRef.Path); !os.IsNotExist(err) {
		t.Fatalf("old upload should be gone")
	}
	if _, err := os.Stat(freshRef.Path); err != nil {
		t.Fatalf("fresh upload should stay: %v", err)
	}
}
