package model

// Group is a named, ordered list of bookmark references.
// A bookmark may belong to any number of groups; groups don't own bookmarks.
type Group struct {
	ID          uint64   `json:"id"`
	Name        string   `json:"name"`
	BookmarkIDs []uint64 `json:"bookmarkIds"`
	IconPath    *string  `json:"iconPath"`
	TintIcon    bool     `json:"tintIcon"`
}

// NewGroupParams holds parameters for creating a new Group.
type NewGroupParams struct {
	ID          uint64
	Name        string
	BookmarkIDs []uint64
	IconPath    *string
	TintIcon    bool
}

// NewGroup creates a fully formed Group from params.
func NewGroup(params NewGroupParams) Group {
	ids := params.BookmarkIDs
	if ids == nil {
		ids = []uint64{}
	}

	return Group{
		ID:          params.ID,
		Name:        params.Name,
		BookmarkIDs: ids,
		IconPath:    params.IconPath,
		TintIcon:    params.TintIcon,
	}
}

// Contains reports whether the group references the bookmark id.
func (g Group) Contains(bookmarkID uint64) bool {
	for _, id := range g.BookmarkIDs {
		if id == bookmarkID {
			return true
		}
	}
	return false
}

// HasIcon reports whether the group has a custom icon.
func (g Group) HasIcon() bool {
	return g.IconPath != nil && *g.IconPath != ""
}
