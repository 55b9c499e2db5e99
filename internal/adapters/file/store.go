package file

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/lobster/pkg/domain"
)

const ext = ".json"

// File name prefixes. url.QueryEscape always escapes '!', so no escaped key
// can start with one.
const (
	tmpPrefix    = "!tmp-"
	hashedPrefix = "!h-"
)

// maxEscapedName bounds escaped key names; longer keys are stored under a
// hash with the key recorded inside the file.
const maxEscapedName = 200

// DefaultDir is used when no directory is configured.
var DefaultDir = filepath.Join(".lobster", "state")

// Store implements ports.SnapshotStore using the local filesystem.
// Each key is one JSON file; keys are query-escaped into file names, so
// separators such as ':' '/' and '#' are safe. Keys whose escaped form is too
// long for a file name are stored as hashedRecord under a SHA-256 name.
type Store struct {
	BasePath string
}

// New creates a new Store with the given base path.
// If basePath is empty, it defaults to DefaultDir.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = DefaultDir
	}
	return &Store{BasePath: basePath}
}

// hashedRecord is the file content for long keys.
type hashedRecord struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// path returns the file for key and whether it uses the hashed layout.
func (s *Store) path(key string) (string, bool) {
	name := url.QueryEscape(key)
	if len(name) <= maxEscapedName {
		return filepath.Join(s.BasePath, name+ext), false
	}
	sum := sha256.Sum256([]byte(key))
	return filepath.Join(s.BasePath, hashedPrefix+hex.EncodeToString(sum[:])+ext), true
}

// Save replaces the snapshot for key atomically.
// It writes to a temporary file in the same directory, syncs it, and renames
// it over the destination, so concurrent readers never observe a partial file.
func (s *Store) Save(ctx context.Context, key string, value any) error {
	if key == "" {
		return fmt.Errorf("snapshot key cannot be empty")
	}

	dest, hashed := s.path(key)
	if hashed {
		value = hashedRecord{Key: key, Value: value}
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode snapshot %q: %w", key, err)
	}

	if err := os.MkdirAll(s.BasePath, 0o755); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}

	tmpFile, err := os.CreateTemp(s.BasePath, tmpPrefix+"*"+ext)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // no-op once renamed
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		// Windows refuses to rename over an existing file.
		if _, statErr := os.Stat(dest); statErr == nil {
			if rmErr := os.Remove(dest); rmErr != nil {
				return fmt.Errorf("failed to replace snapshot file: %w", rmErr)
			}
			err = os.Rename(tmpPath, dest)
		}
		if err != nil {
			return fmt.Errorf("failed to rename temp file to snapshot: %w", err)
		}
	}
	return nil
}

// Load reads the snapshot for key.
func (s *Store) Load(ctx context.Context, key string) (any, error) {
	if key == "" {
		return nil, fmt.Errorf("snapshot key cannot be empty")
	}

	path, hashed := s.path(key)
	value, err := readSnapshot(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to load snapshot %q: %w", key, err)
	}
	if !hashed {
		return value, nil
	}

	stored, inner, err := unwrapHashed(value)
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot %q: %w", key, err)
	}
	if stored != key {
		return nil, domain.ErrSnapshotNotFound
	}
	return inner, nil
}

func readSnapshot(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	value, err := domain.DecodeJSON(data)
	if err != nil {
		return nil, fmt.Errorf("corrupt snapshot file: %w", err)
	}
	return value, nil
}

func unwrapHashed(value any) (string, any, error) {
	rec, ok := value.(map[string]any)
	if !ok {
		return "", nil, fmt.Errorf("hashed snapshot is not an object")
	}
	key, ok := rec["key"].(string)
	if !ok {
		return "", nil, fmt.Errorf("hashed snapshot has no key")
	}
	return key, rec["value"], nil
}

// Delete removes the snapshot file.
func (s *Store) Delete(ctx context.Context, key string) error {
	if key == "" {
		return fmt.Errorf("snapshot key cannot be empty")
	}

	path, _ := s.path(key)
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete snapshot file: %w", err)
	}
	return nil
}

// List returns all stored keys, sorted.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}

	keys := []string{}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ext || strings.HasPrefix(name, tmpPrefix) {
			continue
		}
		if strings.HasPrefix(name, hashedPrefix) {
			value, err := readSnapshot(filepath.Join(s.BasePath, name))
			if err != nil {
				continue
			}
			if key, _, err := unwrapHashed(value); err == nil {
				keys = append(keys, key)
			}
			continue
		}
		key, err := url.QueryUnescape(strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys, nil
}
