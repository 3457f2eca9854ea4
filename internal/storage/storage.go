package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"

	"github.com/nikbrunner/whiskers-bm/internal/model"
)

// ErrCorrupt is returned when a store exists but can't be decoded. Callers
// must abort rather than continue with an empty store, or the next save would
// discard the user's data.
var ErrCorrupt = errors.New("bookmark store is corrupt")

// Storage defines the interface for persisting bookmarks.
type Storage interface {
	Load() (*model.Store, error)
	Save(store *model.Store) error
}

// JSONStorage implements Storage using a JSON file.
type JSONStorage struct {
	path string
}

// NewJSONStorage creates a new JSONStorage with the given file path.
func NewJSONStorage(path string) *JSONStorage {
	return &JSONStorage{path: path}
}

// Path returns the storage file path.
func (s *JSONStorage) Path() string {
	return s.path
}

// Load reads the store from the JSON file.
// Returns an empty store if the file doesn't exist.
func (s *JSONStorage) Load() (*model.Store, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewStore(), nil
		}
		return nil, err
	}

	store, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, s.path, err)
	}

	return normalize(store, s.path)
}

// Decode parses the on-disk JSON layout. It accepts exactly one object with
// no unknown fields.
func Decode(data []byte) (*model.Store, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("expected a JSON object")
	}

	var store model.Store
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&store); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after store object")
	}
	return &store, nil
}

// Save writes the store to the JSON file, sorted by id.
// Creates the directory if it doesn't exist. The file is replaced atomically.
func (s *JSONStorage) Save(store *model.Store) error {
	// Ensure directory exists
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := Encode(store)
	if err != nil {
		return err
	}

	return atomic.WriteFile(s.path, bytes.NewReader(data))
}

// Encode sorts the store by id and renders the on-disk JSON layout.
func Encode(store *model.Store) ([]byte, error) {
	store.SortByID()
	fillSlices(store)

	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// normalize rejects duplicate ids, ensures slices are not nil and drops
// group references to missing bookmarks.
func normalize(store *model.Store, path string) (*model.Store, error) {
	if err := store.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	fillSlices(store)
	store.Repair()
	return store, nil
}

func fillSlices(store *model.Store) {
	if store.Bookmarks == nil {
		store.Bookmarks = []model.Bookmark{}
	}
	if store.Groups == nil {
		store.Groups = []model.Group{}
	}
	for i := range store.Groups {
		if store.Groups[i].BookmarkIDs == nil {
			store.Groups[i].BookmarkIDs = []uint64{}
		}
	}
}

// OpenStorage opens the backend named by the config.
func OpenStorage(cfg Config, dir string) (Storage, error) {
	switch cfg.Backend {
	case BackendSQLite:
		return NewSQLiteStorage(filepath.Join(dir, SQLiteFileName))
	case BackendJSON, "":
		return NewJSONStorage(filepath.Join(dir, StoreFileName)), nil
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", ErrConfigInvalid, cfg.Backend)
	}
}
