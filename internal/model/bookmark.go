package model

// Bookmark represents a saved URL.
type Bookmark struct {
	ID       uint64  `json:"id"`
	Name     string  `json:"name"`
	URL      string  `json:"url"`
	IconPath *string `json:"iconPath"` // nil = default icon
}

// NewBookmarkParams holds parameters for creating a new Bookmark.
type NewBookmarkParams struct {
	ID       uint64
	Name     string
	URL      string
	IconPath *string
}

// NewBookmark creates a fully formed Bookmark from params.
func NewBookmark(params NewBookmarkParams) Bookmark {
	return Bookmark{
		ID:       params.ID,
		Name:     params.Name,
		URL:      params.URL,
		IconPath: params.IconPath,
	}
}

// HasIcon reports whether the bookmark has a cached favicon.
func (b Bookmark) HasIcon() bool {
	return b.IconPath != nil && *b.IconPath != ""
}
