// Package importer reads bookmarks from browser exports and older store
// layouts into a Batch that can be merged into the current store.
package importer

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/nikbrunner/whiskers-bm/internal/model"
	"github.com/nikbrunner/whiskers-bm/internal/storage"
)

var (
	ErrUnknownFormat = errors.New("unknown import format")
	ErrUnreadable    = errors.New("import file is unreadable")
)

// LegacyGroupsFile sits next to a legacy bookmarks.json.
const LegacyGroupsFile = "groups.json"

// Batch is a set of imported records whose ids are only meaningful within
// the batch.
type Batch struct {
	Groups    []model.Group
	Bookmarks []model.Bookmark
}

// Into merges the batch into store. See model.Store.ImportMerge.
func (b Batch) Into(store *model.Store) (added, skipped int) {
	return store.ImportMerge(b.Groups, b.Bookmarks)
}

// ParseFile picks a parser from the file extension (and, for .json, the
// content).
func ParseFile(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, err
	}
	defer func() { _ = f.Close() }()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".html", ".htm":
		return ParseHTML(f)
	case ".yml", ".yaml":
		return ParseLegacyYAML(f)
	case ".json":
		return parseJSONFile(path, f)
	default:
		return Batch{}, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(path))
	}
}

// parseJSONFile handles both a current store file (an object) and a legacy
// bookmarks.json (an array).
func parseJSONFile(path string, f io.Reader) (Batch, error) {
	br := bufio.NewReader(f)
	first, err := firstNonSpace(br)
	if err != nil {
		return Batch{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
	}

	switch first {
	case '{':
		data, err := io.ReadAll(br)
		if err != nil {
			return Batch{}, err
		}
		store, err := storage.Decode(data)
		if err != nil {
			return Batch{}, fmt.Errorf("%w: %v", ErrUnreadable, err)
		}
		return Batch{Groups: store.Groups, Bookmarks: store.Bookmarks}, nil

	case '[':
		groups, err := os.Open(filepath.Join(filepath.Dir(path), LegacyGroupsFile))
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return ParseLegacyJSON(br, nil)
			}
			return Batch{}, err
		}
		defer func() { _ = groups.Close() }()
		return ParseLegacyJSON(br, groups)

	default:
		return Batch{}, fmt.Errorf("%w: %s", ErrUnknownFormat, filepath.Base(path))
	}
}

// firstNonSpace peeks at the first significant byte without consuming it.
func firstNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}
