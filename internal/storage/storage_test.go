package storage_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gotest.tools/v3/assert"
	"gotest.tools/v3/golden"

	"github.com/nikbrunner/whiskers-bm/internal/model"
	"github.com/nikbrunner/whiskers-bm/internal/storage"
)

func stringPtr(s string) *string { return &s }

// sampleStore is deliberately unsorted to exercise the sort-on-save layout.
func sampleStore() *model.Store {
	return &model.Store{
		Bookmarks: []model.Bookmark{
			{ID: 1, Name: "GitLab", URL: "https://gitlab.com"},
			{ID: 0, Name: "GitHub", URL: "https://github.com", IconPath: stringPtr("/tmp/favicons/0.png")},
		},
		Groups: []model.Group{
			{ID: 2, Name: "Empty", BookmarkIDs: nil, IconPath: stringPtr("/icons/star.svg"), TintIcon: true},
			{ID: 0, Name: "Dev", BookmarkIDs: []uint64{1, 0}},
		},
	}
}

func TestJSONStorage_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bookmarks.json")

	s := storage.NewJSONStorage(configPath)
	if err := s.Save(sampleStore()); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("store file was not created")
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	want := sampleStore()
	want.SortByID()
	want.Groups[1].BookmarkIDs = []uint64{}
	if diff := cmp.Diff(want, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestJSONStorage_Layout(t *testing.T) {
	data, err := storage.Encode(sampleStore())
	assert.NilError(t, err)
	golden.Assert(t, string(data), "store.golden")
}

func TestJSONStorage_SaveLoadIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bookmarks.json")
	s := storage.NewJSONStorage(configPath)

	assert.NilError(t, s.Save(sampleStore()))
	first, err := os.ReadFile(configPath)
	assert.NilError(t, err)

	loaded, err := s.Load()
	assert.NilError(t, err)
	assert.NilError(t, s.Save(loaded))

	second, err := os.ReadFile(configPath)
	assert.NilError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestJSONStorage_LoadNonexistent(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "nonexistent.json")

	s := storage.NewJSONStorage(configPath)
	store, err := s.Load()

	if err != nil {
		t.Fatalf("expected no error for missing file, got: %v", err)
	}

	// Should return empty store
	if len(store.Groups) != 0 || len(store.Bookmarks) != 0 {
		t.Error("expected empty store for missing file")
	}
}

func TestJSONStorage_LoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "not json", content: "bookmarks: []"},
		{name: "empty file", content: ""},
		{name: "wrong shape", content: `{"bookmarks": "GitHub"}`},
		{name: "top level array", content: `[]`},
		{name: "null", content: `null`},
		{name: "unknown field", content: `{"bookmarks": [], "folders": []}`},
		{name: "negative id", content: `{"bookmarks": [{"id": -1, "name": "a", "url": "b"}]}`},
		{name: "trailing data", content: `{"bookmarks": []} {}`},
		{name: "duplicate ids", content: `{"bookmarks": [{"id": 1, "name": "a", "url": "b"}, {"id": 1, "name": "c", "url": "d"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "bookmarks.json")
			if err := os.WriteFile(configPath, []byte(tt.content), 0644); err != nil {
				t.Fatalf("failed to write fixture: %v", err)
			}

			store, err := storage.NewJSONStorage(configPath).Load()
			if !errors.Is(err, storage.ErrCorrupt) {
				t.Fatalf("expected ErrCorrupt, got %v", err)
			}
			if store != nil {
				t.Error("expected no store for corrupt file")
			}
		})
	}
}

func TestJSONStorage_LoadRepairsDanglingReferences(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bookmarks.json")
	content := `{
		"bookmarks": [{"id": 0, "name": "GitHub", "url": "https://github.com", "iconPath": null}],
		"groups": [{"id": 0, "name": "Dev", "bookmarkIds": [0, 3], "iconPath": null, "tintIcon": false}]
	}`
	assert.NilError(t, os.WriteFile(configPath, []byte(content), 0644))

	store, err := storage.NewJSONStorage(configPath).Load()
	assert.NilError(t, err)
	assert.DeepEqual(t, store.Groups[0].BookmarkIDs, []uint64{0})
}

func TestJSONStorage_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	// Nested directory that doesn't exist
	configPath := filepath.Join(tmpDir, "nested", "dir", "bookmarks.json")

	s := storage.NewJSONStorage(configPath)

	if err := s.Save(model.NewStore()); err != nil {
		t.Fatalf("failed to save with nested dir: %v", err)
	}

	// Verify file was created
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Fatal("store file was not created in nested directory")
	}
}

func TestJSONStorage_SaveSortsByID(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bookmarks.json")

	store := &model.Store{
		Bookmarks: []model.Bookmark{
			{ID: 3, Name: "Third", URL: "https://3.com"},
			{ID: 1, Name: "First", URL: "https://1.com"},
			{ID: 2, Name: "Second", URL: "https://2.com"},
		},
	}

	s := storage.NewJSONStorage(configPath)
	if err := s.Save(store); err != nil {
		t.Fatalf("failed to save: %v", err)
	}

	loaded, err := s.Load()
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}

	expectedNames := []string{"First", "Second", "Third"}
	for i, name := range expectedNames {
		if loaded.Bookmarks[i].Name != name {
			t.Errorf("expected %q at position %d, got %q", name, i, loaded.Bookmarks[i].Name)
		}
	}
}

func TestOpenStorage(t *testing.T) {
	dir := t.TempDir()

	s, err := storage.OpenStorage(storage.Config{Backend: storage.BackendJSON}, dir)
	assert.NilError(t, err)
	js, ok := s.(*storage.JSONStorage)
	assert.Assert(t, ok, "expected JSON storage, got %T", s)
	assert.Equal(t, js.Path(), filepath.Join(dir, storage.StoreFileName))

	s, err = storage.OpenStorage(storage.Config{Backend: storage.BackendSQLite}, dir)
	assert.NilError(t, err)
	sq, ok := s.(*storage.SQLiteStorage)
	assert.Assert(t, ok, "expected SQLite storage, got %T", s)
	defer sq.Close()

	_, err = storage.OpenStorage(storage.Config{Backend: "csv"}, dir)
	assert.ErrorIs(t, err, storage.ErrConfigInvalid)
}
