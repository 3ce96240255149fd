// mock_storage.go - Mock storage implementation for testing
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/home-manager/backend/internal/models"
	"github.com/home-manager/backend/internal/storage"
)

// MockStorage implements storage.Store in memory
type MockStorage struct {
	files    map[string]*models.FileInfo
	fileData map[string][]byte
	mu       sync.RWMutex

	// SaveErr, when set, is returned by Save.
	SaveErr error
}

// NewMockStorage creates a new empty mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		files:    make(map[string]*models.FileInfo),
		fileData: make(map[string][]byte),
	}
}

func (m *MockStorage) Save(ctx context.Context, folder, name string, r io.Reader) (*models.FileInfo, error) {
	if m.SaveErr != nil {
		return nil, m.SaveErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	file := fmt.Sprintf("%d-%s", nextTestSeq(), storage.SanitizeName(name))
	return m.AddFile(folder, file, data), nil
}

func (m *MockStorage) Open(ctx context.Context, ref string) (io.ReadCloser, *models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.files[ref]
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", ref, storage.ErrNotFound)
	}
	return io.NopCloser(bytes.NewReader(m.fileData[ref])), info, nil
}

func (m *MockStorage) Exists(ctx context.Context, ref string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.files[ref]
	return ok
}

func (m *MockStorage) Delete(ctx context.Context, ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.files[ref]; !exists {
		return fmt.Errorf("%s: %w", ref, storage.ErrNotFound)
	}
	delete(m.files, ref)
	delete(m.fileData, ref)
	return nil
}

func (m *MockStorage) List(ctx context.Context, folder string, limit int) ([]*models.FileInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	files := make([]*models.FileInfo, 0)
	for _, file := range m.files {
		if file.Folder == folder {
			files = append(files, file)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}
	return files, nil
}

// Ensure MockStorage implements storage.Store
var _ storage.Store = (*MockStorage)(nil)

// Test Helper Methods

// AddFile adds a file directly to the mock and returns its info
func (m *MockStorage) AddFile(folder, file string, data []byte) *models.FileInfo {
	m.mu.Lock()
	defer m.mu.Unlock()

	info := &models.FileInfo{
		Path:       storage.Ref(folder, file),
		Folder:     folder,
		Name:       file,
		Size:       int64(len(data)),
		UploadedAt: time.Now(),
	}
	m.files[info.Path] = info
	m.fileData[info.Path] = data
	return info
}

// GetFileData returns the file content
func (m *MockStorage) GetFileData(ref string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.fileData[ref]
	return data, ok
}

// GetFileCount returns the number of stored files
func (m *MockStorage) GetFileCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.files)
}

var (
	testSeq   int64
	testSeqMu sync.Mutex
)

func nextTestSeq() int64 {
	testSeqMu.Lock()
	defer testSeqMu.Unlock()
	testSeq++
	return testSeq
}
