package model

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
)

var (
	ErrBookmarkNotFound = errors.New("bookmark not found")
	ErrGroupNotFound    = errors.New("group not found")
	ErrDuplicateID      = errors.New("duplicate id")
)

// Store holds all bookmarks and groups.
type Store struct {
	Bookmarks []Bookmark `json:"bookmarks"`
	Groups    []Group    `json:"groups"`
}

// NewStore creates an empty Store with initialized slices.
func NewStore() *Store {
	return &Store{
		Bookmarks: []Bookmark{},
		Groups:    []Group{},
	}
}

// NextBookmarkID returns the highest bookmark id plus one, or 0 for an empty
// collection. Deleting the highest bookmark frees its id for reuse.
func (s *Store) NextBookmarkID() uint64 {
	ids := make([]uint64, len(s.Bookmarks))
	for i, b := range s.Bookmarks {
		ids[i] = b.ID
	}
	return nextID(ids)
}

// NextGroupID returns the highest group id plus one, or 0 for an empty collection.
func (s *Store) NextGroupID() uint64 {
	ids := make([]uint64, len(s.Groups))
	for i, g := range s.Groups {
		ids[i] = g.ID
	}
	return nextID(ids)
}

// nextID is max+1. When the maximum is math.MaxUint64 it falls back to the
// lowest unused id instead of wrapping onto 0.
func nextID(ids []uint64) uint64 {
	if len(ids) == 0 {
		return 0
	}
	highest := slices.Max(ids)
	if highest < math.MaxUint64 {
		return highest + 1
	}

	used := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		used[id] = true
	}
	var id uint64
	for used[id] {
		id++
	}
	return id
}

// CreateBookmark allocates an id and returns a new bookmark without an icon.
// The bookmark is not added to the store; use AddBookmark.
func (s *Store) CreateBookmark(name, url string) Bookmark {
	return NewBookmark(NewBookmarkParams{
		ID:   s.NextBookmarkID(),
		Name: name,
		URL:  url,
	})
}

// CreateGroup allocates an id and returns a new group with no icon and
// tinting off. Unknown bookmark ids are dropped. The group is not added to the
// store; use AddGroup.
func (s *Store) CreateGroup(name string, bookmarkIDs []uint64) Group {
	return NewGroup(NewGroupParams{
		ID:          s.NextGroupID(),
		Name:        name,
		BookmarkIDs: s.members(bookmarkIDs),
	})
}

// AddBookmark appends a bookmark to the store.
func (s *Store) AddBookmark(b Bookmark) {
	s.Bookmarks = append(s.Bookmarks, b)
}

// AddGroup appends a group to the store, dropping references to bookmarks
// that don't exist.
func (s *Store) AddGroup(g Group) {
	g.BookmarkIDs = s.members(g.BookmarkIDs)
	s.Groups = append(s.Groups, g)
}

// GetBookmarkByID finds a bookmark by ID, returns nil if not found.
func (s *Store) GetBookmarkByID(id uint64) *Bookmark {
	for i := range s.Bookmarks {
		if s.Bookmarks[i].ID == id {
			return &s.Bookmarks[i]
		}
	}
	return nil
}

// GetGroupByID finds a group by ID, returns nil if not found.
func (s *Store) GetGroupByID(id uint64) *Group {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i]
		}
	}
	return nil
}

func (s *Store) bookmarkByURL(url string) *Bookmark {
	for i := range s.Bookmarks {
		if s.Bookmarks[i].URL == url {
			return &s.Bookmarks[i]
		}
	}
	return nil
}

// UpdateBookmarkParams holds the replacement fields for a bookmark.
type UpdateBookmarkParams struct {
	Name     string
	URL      string
	IconPath *string
}

// UpdateBookmark replaces the fields of the bookmark with the given id.
func (s *Store) UpdateBookmark(id uint64, params UpdateBookmarkParams) error {
	b := s.GetBookmarkByID(id)
	if b == nil {
		return fmt.Errorf("%w: %d", ErrBookmarkNotFound, id)
	}
	b.Name = params.Name
	b.URL = params.URL
	b.IconPath = params.IconPath
	return nil
}

// UpdateGroupParams holds the replacement fields for a group.
type UpdateGroupParams struct {
	Name        string
	BookmarkIDs []uint64
	IconPath    *string
	TintIcon    bool
}

// UpdateGroup replaces the fields of the group with the given id.
// Unknown bookmark ids are dropped from the membership list.
func (s *Store) UpdateGroup(id uint64, params UpdateGroupParams) error {
	g := s.GetGroupByID(id)
	if g == nil {
		return fmt.Errorf("%w: %d", ErrGroupNotFound, id)
	}
	g.Name = params.Name
	g.BookmarkIDs = s.members(params.BookmarkIDs)
	g.IconPath = params.IconPath
	g.TintIcon = params.TintIcon
	return nil
}

// DeleteBookmark removes the bookmark and every group reference to it.
func (s *Store) DeleteBookmark(id uint64) error {
	idx := -1
	for i := range s.Bookmarks {
		if s.Bookmarks[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: %d", ErrBookmarkNotFound, id)
	}

	s.Bookmarks = append(s.Bookmarks[:idx], s.Bookmarks[idx+1:]...)
	for i := range s.Groups {
		s.Groups[i].BookmarkIDs = without(s.Groups[i].BookmarkIDs, id)
	}
	return nil
}

// DeleteGroup removes the group only; its bookmarks are untouched.
func (s *Store) DeleteGroup(id uint64) error {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			s.Groups = append(s.Groups[:i], s.Groups[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %d", ErrGroupNotFound, id)
}

// GroupBookmarks returns the group's bookmarks in membership order.
func (s *Store) GroupBookmarks(g Group) []Bookmark {
	result := make([]Bookmark, 0, len(g.BookmarkIDs))
	for _, id := range g.BookmarkIDs {
		if b := s.GetBookmarkByID(id); b != nil {
			result = append(result, *b)
		}
	}
	return result
}

// SortByID sorts both collections by ascending id.
func (s *Store) SortByID() {
	sort.SliceStable(s.Bookmarks, func(i, j int) bool {
		return s.Bookmarks[i].ID < s.Bookmarks[j].ID
	})
	sort.SliceStable(s.Groups, func(i, j int) bool {
		return s.Groups[i].ID < s.Groups[j].ID
	})
}

// Validate checks that ids are unique within each collection.
func (s *Store) Validate() error {
	seen := make(map[uint64]bool, len(s.Bookmarks))
	for _, b := range s.Bookmarks {
		if seen[b.ID] {
			return fmt.Errorf("%w: bookmark %d", ErrDuplicateID, b.ID)
		}
		seen[b.ID] = true
	}

	seen = make(map[uint64]bool, len(s.Groups))
	for _, g := range s.Groups {
		if seen[g.ID] {
			return fmt.Errorf("%w: group %d", ErrDuplicateID, g.ID)
		}
		seen[g.ID] = true
	}
	return nil
}

// Repair drops group references to missing bookmarks and returns how many
// were removed.
func (s *Store) Repair() int {
	removed := 0
	for i := range s.Groups {
		before := len(s.Groups[i].BookmarkIDs)
		s.Groups[i].BookmarkIDs = s.members(s.Groups[i].BookmarkIDs)
		removed += before - len(s.Groups[i].BookmarkIDs)
	}
	return removed
}

// members filters ids down to existing bookmarks, keeping first occurrences
// in order.
func (s *Store) members(ids []uint64) []uint64 {
	result := make([]uint64, 0, len(ids))
	seen := make(map[uint64]bool, len(ids))
	for _, id := range ids {
		if seen[id] || s.GetBookmarkByID(id) == nil {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

func without(ids []uint64, id uint64) []uint64 {
	result := make([]uint64, 0, len(ids))
	for _, v := range ids {
		if v != id {
			result = append(result, v)
		}
	}
	return result
}
