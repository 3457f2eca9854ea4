package importer

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/nikbrunner/whiskers-bm/internal/model"
)

// Older releases kept bookmarks either in a single YAML file or in a pair of
// JSON arrays (bookmarks.json + groups.json). Neither had icons.

type legacyBookmark struct {
	ID   uint64 `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

type legacyGroup struct {
	ID        uint64   `yaml:"id" json:"id"`
	Name      string   `yaml:"name" json:"name"`
	Bookmarks []uint64 `yaml:"bookmarks" json:"bookmarks"`
}

type legacyFile struct {
	Bookmarks []legacyBookmark `yaml:"bookmarks"`
	Groups    []legacyGroup    `yaml:"groups"`
}

// ParseLegacyYAML reads the bookmarks.yml layout.
func ParseLegacyYAML(r io.Reader) (Batch, error) {
	var file legacyFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil && err != io.EOF {
		return Batch{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}
	return fromLegacy(file.Bookmarks, file.Groups), nil
}

// ParseLegacyJSON reads the split bookmarks.json/groups.json layout. groups
// may be nil when the file doesn't exist.
func ParseLegacyJSON(bookmarks, groups io.Reader) (Batch, error) {
	var bs []legacyBookmark
	if err := json.NewDecoder(bookmarks).Decode(&bs); err != nil {
		return Batch{}, fmt.Errorf("%w: bookmarks: %v", ErrUnreadable, err)
	}

	var gs []legacyGroup
	if groups != nil {
		if err := json.NewDecoder(groups).Decode(&gs); err != nil {
			return Batch{}, fmt.Errorf("%w: groups: %v", ErrUnreadable, err)
		}
	}
	return fromLegacy(bs, gs), nil
}

func fromLegacy(bs []legacyBookmark, gs []legacyGroup) Batch {
	batch := Batch{
		Bookmarks: make([]model.Bookmark, 0, len(bs)),
		Groups:    make([]model.Group, 0, len(gs)),
	}
	for _, b := range bs {
		batch.Bookmarks = append(batch.Bookmarks, model.NewBookmark(model.NewBookmarkParams{
			ID:   b.ID,
			Name: b.Name,
			URL:  b.URL,
		}))
	}
	for _, g := range gs {
		batch.Groups = append(batch.Groups, model.NewGroup(model.NewGroupParams{
			ID:          g.ID,
			Name:        g.Name,
			BookmarkIDs: g.Bookmarks,
		}))
	}
	return batch
}
