// Package storage saves uploaded images under a folder and hands back a
// reference path ("/uploads/<folder>/<file>") that is stored on floorplans
// and devices. Files live on the local disk or in an S3-compatible bucket.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/home-manager/backend/internal/models"
)

// Store defines the interface for file storage.
type Store interface {
	Save(ctx context.Context, folder, name string, r io.Reader) (*models.FileInfo, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, *models.FileInfo, error)
	Exists(ctx context.Context, ref string) bool
	Delete(ctx context.Context, ref string) error
	List(ctx context.Context, folder string, limit int) ([]*models.FileInfo, error)
}

// LocalStore implements Store using the local filesystem.
type LocalStore struct {
	mu        sync.RWMutex
	uploadDir string
	now       func() time.Time
}

// NewLocalStore creates a new LocalStore.
func NewLocalStore(uploadDir string) (*LocalStore, error) {
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		return nil, fmt.Errorf("creating upload directory: %w", err)
	}

	return &LocalStore{
		uploadDir: uploadDir,
		now:       time.Now,
	}, nil
}

// Dir returns the root upload directory.
func (s *LocalStore) Dir() string { return s.uploadDir }

// Save writes r to <uploadDir>/<folder>/<unix-ms>-<name>.
func (s *LocalStore) Save(ctx context.Context, folder, name string, r io.Reader) (*models.FileInfo, error) {
	if err := checkFolder(folder); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.uploadDir, folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating folder: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	file := FileName(name, now)
	path := filepath.Join(dir, file)
	if _, err := os.Stat(path); err == nil {
		// Same name saved twice within a millisecond.
		file = fmt.Sprintf("%d-%s-%s", now.UnixMilli(), uuid.New().String()[:8], SanitizeName(name))
		path = filepath.Join(dir, file)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, readerWithContext(ctx, r))
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("writing file: %w", err)
	}

	return &models.FileInfo{
		Path:       Ref(folder, file),
		Folder:     folder,
		Name:       file,
		Size:       size,
		UploadedAt: now,
	}, nil
}

// Open returns the content of a stored file.
func (s *LocalStore) Open(_ context.Context, ref string) (io.ReadCloser, *models.FileInfo, error) {
	path, folder, file, err := s.resolve(ref)
	if err != nil {
		return nil, nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("%s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("opening file: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("stat file: %w", err)
	}
	return f, fileInfo(folder, file, st.Size(), st.ModTime()), nil
}

// Exists reports whether ref names a stored file.
func (s *LocalStore) Exists(_ context.Context, ref string) bool {
	path, _, _, err := s.resolve(ref)
	if err != nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, err := os.Stat(path)
	return err == nil && st.Mode().IsRegular()
}

// Delete removes a file from storage.
func (s *LocalStore) Delete(_ context.Context, ref string) error {
	path, _, _, err := s.resolve(ref)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%s: %w", ref, ErrNotFound)
		}
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// List returns the most recent files of a folder.
func (s *LocalStore) List(_ context.Context, folder string, limit int) ([]*models.FileInfo, error) {
	if err := checkFolder(folder); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(filepath.Join(s.uploadDir, folder))
	if os.IsNotExist(err) {
		return []*models.FileInfo{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading folder: %w", err)
	}

	list := make([]*models.FileInfo, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		st, err := e.Info()
		if err != nil {
			continue
		}
		list = append(list, fileInfo(folder, e.Name(), st.Size(), st.ModTime()))
	}

	sortNewestFirst(list)
	if limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	return list, nil
}

func (s *LocalStore) resolve(ref string) (path, folder, file string, err error) {
	folder, file, err = ParseRef(ref)
	if err != nil {
		return "", "", "", err
	}
	return filepath.Join(s.uploadDir, folder, file), folder, file, nil
}

// fileInfo prefers the upload time encoded in the file name over modTime.
func fileInfo(folder, file string, size int64, modTime time.Time) *models.FileInfo {
	uploaded := modTime
	if ms, _, ok := strings.Cut(file, "-"); ok {
		var n int64
		if _, err := fmt.Sscanf(ms, "%d", &n); err == nil && n > 0 {
			uploaded = time.UnixMilli(n)
		}
	}
	return &models.FileInfo{
		Path:       Ref(folder, file),
		Folder:     folder,
		Name:       file,
		Size:       size,
		UploadedAt: uploaded,
	}
}

func sortNewestFirst(list []*models.FileInfo) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].UploadedAt.Equal(list[j].UploadedAt) {
			return list[i].Name > list[j].Name
		}
		return list[i].UploadedAt.After(list[j].UploadedAt)
	})
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

func readerWithContext(ctx context.Context, r io.Reader) io.Reader {
	return ctxReader{ctx: ctx, r: r}
}
