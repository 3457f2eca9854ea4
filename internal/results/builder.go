// Package results turns a routed query into the ordered result items the
// host displays.
package results

import (
	"fmt"

	"github.com/nikbrunner/whiskers-bm/internal/host"
	"github.com/nikbrunner/whiskers-bm/internal/icons"
	"github.com/nikbrunner/whiskers-bm/internal/model"
	"github.com/nikbrunner/whiskers-bm/internal/query"
	"github.com/nikbrunner/whiskers-bm/internal/search"
)

// Options configures a Builder.
type Options struct {
	Matcher search.Matcher // defaults to search.Fuzzy
	Icons   icons.Set

	// CopyURL turns bookmark results into copy actions and hides groups
	// from plain search.
	CopyURL bool
}

// Builder produces results for one loaded store.
type Builder struct {
	store   *model.Store
	matcher search.Matcher
	icons   icons.Set
	copyURL bool
}

// New creates a Builder over store.
func New(store *model.Store, opts Options) *Builder {
	matcher := opts.Matcher
	if matcher == nil {
		matcher = search.Fuzzy{}
	}
	return &Builder{
		store:   store,
		matcher: matcher,
		icons:   opts.Icons,
		copyURL: opts.CopyURL,
	}
}

// Build routes raw and returns the results for its mode. Groups always come
// before bookmarks, each in store order.
func (b *Builder) Build(raw string) []host.Result {
	return b.BuildRouted(query.Route(raw))
}

// BuildRouted returns the results for an already routed query.
func (b *Builder) BuildRouted(q query.Routed) []host.Result {
	switch q.Mode {
	case query.ModeDefault:
		return b.creation()
	case query.ModeSearch:
		return b.search(q.Remainder)
	case query.ModeEdit:
		if q.Remainder == "" {
			return []host.Result{}
		}
		return b.edit(q.Remainder)
	case query.ModeDelete:
		if q.Remainder == "" {
			return []host.Result{}
		}
		return b.delete(q.Remainder)
	}
	return []host.Result{}
}

func (b *Builder) creation() []host.Result {
	bookmarkForm := host.Form{
		Title:         "Create Bookmark",
		Action:        ActionCreateBookmark,
		PrimaryButton: "Create Bookmark",
		Fields: []host.Field{
			host.Input(FieldName, "Name", "", "The bookmark name"),
			host.Input(FieldURL, "Url", "", "The bookmark url"),
			host.Toggle(FieldUseIcon, "Use favicon", true, "Fetch the site's icon"),
		},
	}

	groupFields := []host.Field{
		host.Input(FieldName, "Name", "", "The group name"),
		host.Input(FieldIconPath, "Icon", "", "Optional path to an icon file"),
		host.Toggle(FieldTintIcon, "Tint icon", false, "Tint the icon with the theme colour"),
	}
	groupFields = append(groupFields, b.membershipFields(model.Group{})...)

	groupForm := host.Form{
		Title:         "Create Group",
		Action:        ActionCreateGroup,
		PrimaryButton: "Create Group",
		Fields:        groupFields,
	}

	return []host.Result{
		{Label: "Create Bookmark", Icon: b.icons.Path(icons.Plus), TintIcon: true, Action: host.ShowForm(bookmarkForm)},
		{Label: "Create Group", Icon: b.icons.Path(icons.Plus), TintIcon: true, Action: host.ShowForm(groupForm)},
	}
}

func (b *Builder) search(needle string) []host.Result {
	results := []host.Result{}

	if !b.copyURL {
		for _, g := range b.matchingGroups(needle) {
			icon, tint := b.groupIcon(g)
			results = append(results, host.Result{
				Label:    "Open " + g.Name,
				Icon:     icon,
				TintIcon: tint,
				Action:   host.Extension(ActionOpenGroup, FormatID(g.ID)),
			})
		}
	}

	for _, bm := range b.matchingBookmarks(needle) {
		icon, tint := b.bookmarkIcon(bm)
		r := host.Result{Icon: icon, TintIcon: tint}
		if b.copyURL {
			r.Label = "Copy " + bm.URL
			r.Action = host.Copy(bm.URL)
		} else {
			r.Label = "Open " + bm.Name
			r.Action = host.OpenURL(bm.URL)
		}
		results = append(results, r)
	}

	return results
}

func (b *Builder) edit(needle string) []host.Result {
	results := []host.Result{}
	pencil := b.icons.Path(icons.Pencil)

	for _, g := range b.matchingGroups(needle) {
		iconPath := ""
		if g.IconPath != nil {
			iconPath = *g.IconPath
		}
		fields := []host.Field{
			host.Input(FieldName, "Name", g.Name, "The group name"),
			host.Input(FieldIconPath, "Icon", iconPath, "Optional path to an icon file"),
			host.Toggle(FieldTintIcon, "Tint icon", g.TintIcon, "Tint the icon with the theme colour"),
		}
		fields = append(fields, b.membershipFields(g)...)

		title := fmt.Sprintf("Edit %s Group", g.Name)
		results = append(results, host.Result{
			Label:    title,
			Icon:     pencil,
			TintIcon: true,
			Action: host.ShowForm(host.Form{
				Title:         title,
				Action:        ActionEditGroup,
				Args:          []string{FormatID(g.ID)},
				PrimaryButton: "Save",
				Fields:        fields,
			}),
		})
	}

	for _, bm := range b.matchingBookmarks(needle) {
		title := "Edit " + bm.Name
		results = append(results, host.Result{
			Label:    title,
			Icon:     pencil,
			TintIcon: true,
			Action: host.ShowForm(host.Form{
				Title:         title,
				Action:        ActionEditBookmark,
				Args:          []string{FormatID(bm.ID)},
				PrimaryButton: "Save",
				Fields: []host.Field{
					host.Input(FieldName, "Name", bm.Name, "The bookmark name"),
					host.Input(FieldURL, "Url", bm.URL, "The bookmark url"),
					host.Toggle(FieldUseIcon, "Use favicon", bm.HasIcon(), "Fetch the site's icon"),
				},
			}),
		})
	}

	return results
}

func (b *Builder) delete(needle string) []host.Result {
	results := []host.Result{}
	trash := b.icons.Path(icons.Trash)

	for _, g := range b.matchingGroups(needle) {
		results = append(results, host.Result{
			Label:    fmt.Sprintf("Delete %s Group", g.Name),
			Icon:     trash,
			TintIcon: true,
			Action:   host.Extension(ActionDeleteGroup, FormatID(g.ID)),
		})
	}

	for _, bm := range b.matchingBookmarks(needle) {
		results = append(results, host.Result{
			Label:    "Delete " + bm.Name,
			Icon:     trash,
			TintIcon: true,
			Action:   host.Extension(ActionDeleteBookmark, FormatID(bm.ID)),
		})
	}

	return results
}

// membershipFields returns one toggle per bookmark, on when g contains it.
func (b *Builder) membershipFields(g model.Group) []host.Field {
	fields := make([]host.Field, 0, len(b.store.Bookmarks))
	for _, bm := range b.store.Bookmarks {
		fields = append(fields, host.Toggle(
			BookmarkFieldID(bm.ID),
			bm.Name,
			g.Contains(bm.ID),
			"Toggle if you want to add the bookmark to the group",
		))
	}
	return fields
}

// Groups match on name only.
func (b *Builder) matchingGroups(needle string) []model.Group {
	var out []model.Group
	for _, g := range b.store.Groups {
		if b.matcher.Matches(g.Name, needle) {
			out = append(out, g)
		}
	}
	return out
}

// Bookmarks match on name or url.
func (b *Builder) matchingBookmarks(needle string) []model.Bookmark {
	var out []model.Bookmark
	for _, bm := range b.store.Bookmarks {
		if search.MatchesAny(b.matcher, needle, bm.Name, bm.URL) {
			out = append(out, bm)
		}
	}
	return out
}

func (b *Builder) bookmarkIcon(bm model.Bookmark) (string, bool) {
	if bm.HasIcon() {
		return *bm.IconPath, false
	}
	return b.icons.Path(icons.Bookmark), true
}

func (b *Builder) groupIcon(g model.Group) (string, bool) {
	if g.HasIcon() {
		return *g.IconPath, g.TintIcon
	}
	return b.icons.Path(icons.Folder), true
}
