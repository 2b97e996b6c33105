package kvstore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	recordFileMode = 0644
	recordDirMode  = 0755
)

// FileStore keeps one JSON file per key under <baseDir>/state/.
type FileStore struct {
	dir string
}

// NewFileStore creates a file-backed store rooted at <baseDir>/state.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{dir: filepath.Join(baseDir, "state")}
}

// Get reads the record for key. A missing file reports absence, not an error.
func (s *FileStore) Get(key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.pathFor(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read record %s: %w", key, err)
	}
	return data, true, nil
}

// Set writes the record via a temp file and rename so readers never observe
// a partially written record.
func (s *FileStore) Set(key string, value []byte) error {
	if err := os.MkdirAll(s.dir, recordDirMode); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.dir, "record-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(value); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmpFile.Chmod(recordFileMode); err != nil {
		_ = tmpFile.Close()
		return fmt.Errorf("chmod temp record: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp record: %w", err)
	}

	if err := os.Rename(tmpPath, s.pathFor(key)); err != nil {
		return fmt.Errorf("replace record %s: %w", key, err)
	}
	return nil
}

// Delete removes the record for key. Deleting an absent key is not an error.
func (s *FileStore) Delete(key string) error {
	if err := os.Remove(s.pathFor(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete record %s: %w", key, err)
	}
	return nil
}

func (s *FileStore) pathFor(key string) string {
	return filepath.Join(s.dir, sanitizeKey(key)+".json")
}

func sanitizeKey(key string) string {
	key = strings.TrimSpace(key)
	replacer := strings.NewReplacer("/", "_", "\\", "_", "..", "_")
	return replacer.Replace(key)
}
