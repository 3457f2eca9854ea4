package results

import "strconv"

// Action names carried by extension and form actions. The dispatcher
// switches on the same values.
const (
	ActionCreateBookmark = "create-bookmark"
	ActionCreateGroup    = "create-group"
	ActionEditBookmark   = "edit-bookmark"
	ActionEditGroup      = "edit-group"
	ActionDeleteBookmark = "delete-bookmark"
	ActionDeleteGroup    = "delete-group"
	ActionOpenGroup      = "open-group"
)

// Form field ids.
const (
	FieldName     = "name"
	FieldURL      = "url"
	FieldUseIcon  = "use-icon"
	FieldIconPath = "icon-path"
	FieldTintIcon = "tint-icon"

	// BookmarkFieldPrefix precedes the bookmark id in group membership toggles.
	BookmarkFieldPrefix = "bookmark-"
)

// BookmarkFieldID returns the membership toggle id for a bookmark.
func BookmarkFieldID(id uint64) string {
	return BookmarkFieldPrefix + strconv.FormatUint(id, 10)
}

// FormatID renders an entity id as an action argument.
func FormatID(id uint64) string {
	return strconv.FormatUint(id, 10)
}
