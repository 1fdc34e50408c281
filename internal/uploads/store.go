package uploads

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"docnotes/internal/models"
)

const DefaultCleanupInterval = time.Hour

// Store keeps uploaded documents under a single directory, keyed by their
// uploaded file name. Same-named uploads overwrite each other.
type Store struct {
	dir            string
	deleteAfterUse bool
}

// NewStore creates the upload directory if needed.
func NewStore(dir string, deleteAfterUse bool) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("upload directory required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &Store{dir: dir, deleteAfterUse: deleteAfterUse}, nil
}

// Save copies r verbatim into the upload directory under the base name of filename.
func (s *Store) Save(filename string, r io.Reader) (*models.DocumentRef, error) {
	name := filepath.Base(filepath.Clean("/" + filename))
	if name == "/" || name == "." {
		return nil, errors.New("invalid file name")
	}
	dest := filepath.Join(s.dir, name)
	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(dest)
		return nil, fmt.Errorf("write %s: %w", dest, err)
	}
	return &models.DocumentRef{
		FileName: name,
		Path:     dest,
		Size:     n,
		SavedAt:  time.Now(),
	}, nil
}

// Release runs once a request is done with its document. Files are kept
// unless the store was configured to delete them after use.
func (s *Store) Release(ref *models.DocumentRef) {
	if ref == nil || !s.deleteAfterUse {
		return
	}
	if err := os.Remove(ref.Path); err != nil && !os.IsNotExist(err) {
		log.Printf("remove upload %s failed: %v", ref.Path, err)
	}
}

// StartCleaner sweeps uploads older than ttl every interval until ctx ends.
// A non-positive ttl disables the sweeper.
func (s *Store) StartCleaner(ctx context.Context, interval, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	go s.cleanupLoop(ctx, interval, ttl)
}

func (s *Store) cleanupLoop(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := s.cleanupExpired(now, ttl); err != nil {
				log.Printf("cleanup uploads error: %v", err)
			}
		}
	}
}

func (s *Store) cleanupExpired(now time.Time, ttl time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}
	removed := 0
	cutoff := now.Add(-ttl)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove upload %s failed: %v", path, err)
			continue
		}
		removed++
	}
	return removed, nil
}
