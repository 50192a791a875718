// Package blobstore implements the Blob Store:
// content-addressed file storage laid out per tenant and calendar month,
// with streaming reads and best-effort deletes.
package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// Sentinel errors surfaced by the blob store.
var (
	ErrNotFound     = errors.New("blobstore: file not found")
	ErrInvalidTenant = errors.New("blobstore: tenant required")
)

// Store persists file bytes under {root}/{tenant}/{YYYY}/{MM}/{file_id}.{ext},
// with file_id an opaque, collision-resistant identifier never derived from
// user input, preventing path traversal from an attacker-controlled
// filename.
type Store struct {
	root string

	// locks serializes concurrent writers to the same file_id path. A
	// single logical file is only ever written once (content-addressed by
	// a fresh UUID per upload), but flock guards the rare case of a
	// retried ingestion reusing a file_id.
	mu    sync.Mutex
	locks map[string]*flock.Flock
}

// New builds a Store rooted at root, creating it if necessary.
func New(root string) (*Store, error) {
	if root == "" {
		return nil, fmt.Errorf("blobstore: root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("blobstore: creating root: %w", err)
	}
	return &Store{root: root, locks: make(map[string]*flock.Flock)}, nil
}

// Stats reports how many files and bytes a tenant owns.
type Stats struct {
	Count      int
	TotalBytes int64
}

// Ping checks that the root directory is still accessible, for the health
// endpoint.
func (s *Store) Ping(ctx context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

func sanitizeExt(ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	ext = strings.ToLower(ext)
	var b strings.Builder
	for _, r := range ext {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return "bin"
	}
	return b.String()
}

func (s *Store) pathFor(tenantID string, year, month int, fileID, ext string) string {
	return filepath.Join(s.root, tenantID, fmt.Sprintf("%04d", year), fmt.Sprintf("%02d", month), fileID+"."+ext)
}

// Put writes bytes under a freshly generated file_id and returns it. The
// on-disk path never incorporates caller-supplied strings besides the
// sanitized extension, so a malicious file_name cannot escape the tenant
// directory.
func (s *Store) Put(ctx context.Context, tenantID string, data []byte, ext string) (fileID string, err error) {
	if tenantID == "" {
		return "", ErrInvalidTenant
	}
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	fileID = uuid.NewString()
	cleanExt := sanitizeExt(ext)
	now := time.Now().UTC()
	path := s.pathFor(tenantID, now.Year(), int(now.Month()), fileID, cleanExt)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("blobstore: creating tenant dir: %w", err)
	}

	lock := s.lockFor(path)
	if err := lock.Lock(); err != nil {
		return "", fmt.Errorf("blobstore: locking %s: %w", path, err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("blobstore: writing %s: %w", path, err)
	}
	return fileID, nil
}

func (s *Store) lockFor(path string) *flock.Flock {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[path]; ok {
		return l
	}
	l := flock.New(path + ".lock")
	s.locks[path] = l
	return l
}

// find locates the on-disk path for (tenantID, fileID) by scanning the
// tenant's year/month directories; file_id is a UUID so collisions across
// months are not a concern.
func (s *Store) find(tenantID, fileID string) (string, error) {
	tenantRoot := filepath.Join(s.root, tenantID)
	years, err := os.ReadDir(tenantRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("blobstore: reading tenant dir: %w", err)
	}
	for _, y := range years {
		if !y.IsDir() {
			continue
		}
		monthRoot := filepath.Join(tenantRoot, y.Name())
		months, err := os.ReadDir(monthRoot)
		if err != nil {
			continue
		}
		for _, m := range months {
			if !m.IsDir() {
				continue
			}
			dayDir := filepath.Join(monthRoot, m.Name())
			entries, err := os.ReadDir(dayDir)
			if err != nil {
				continue
			}
			for _, e := range entries {
				if strings.HasPrefix(e.Name(), fileID+".") {
					return filepath.Join(dayDir, e.Name()), nil
				}
			}
		}
	}
	return "", ErrNotFound
}

// Get opens a stream over the file's bytes and returns its MIME type,
// guessed from the stored extension. Reads are scoped to tenantID; the
// admin-override case (cross-tenant download) is the caller's
// responsibility to authorize and audit-log before calling Get with the
// owning tenant's ID.
func (s *Store) Get(ctx context.Context, tenantID, fileID string) (io.ReadCloser, string, error) {
	if tenantID == "" {
		return nil, "", ErrInvalidTenant
	}
	path, err := s.find(tenantID, fileID)
	if err != nil {
		return nil, "", err
	}
	select {
	case <-ctx.Done():
		return nil, "", ctx.Err()
	default:
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("blobstore: opening %s: %w", path, err)
	}
	return f, mimeFromExt(filepath.Ext(path)), nil
}

// Delete best-effort removes a file. A missing file is not an error: the
// enclosing resource deletion must still succeed.
func (s *Store) Delete(ctx context.Context, tenantID, fileID string) error {
	if tenantID == "" {
		return ErrInvalidTenant
	}
	path, err := s.find(tenantID, fileID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil
		}
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blobstore: removing %s: %w", path, err)
	}
	_ = os.Remove(path + ".lock")
	return nil
}

// StatsFor walks a tenant's directory tree and totals file count and size.
func (s *Store) StatsFor(ctx context.Context, tenantID string) (Stats, error) {
	if tenantID == "" {
		return Stats{}, ErrInvalidTenant
	}
	tenantRoot := filepath.Join(s.root, tenantID)
	var stats Stats
	err := filepath.WalkDir(tenantRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return filepath.SkipDir
			}
			return err
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		stats.Count++
		stats.TotalBytes += info.Size()
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return Stats{}, fmt.Errorf("blobstore: walking tenant dir: %w", err)
	}
	return stats, nil
}

func mimeFromExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "pdf":
		return "application/pdf"
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "webp":
		return "image/webp"
	case "gif":
		return "image/gif"
	case "csv":
		return "text/csv"
	case "md":
		return "text/markdown"
	case "txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
