// Package actions performs the store mutations and side effects behind the
// action names emitted in results.
package actions

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/nikbrunner/whiskers-bm/internal/host"
	"github.com/nikbrunner/whiskers-bm/internal/model"
	"github.com/nikbrunner/whiskers-bm/internal/results"
	"github.com/nikbrunner/whiskers-bm/internal/storage"
)

// ErrInvalidInput is returned, after notifying the user, when a submitted
// form or argument list can't be applied. The store is not touched.
var ErrInvalidInput = errors.New("invalid input")

const notifyTitle = "Bookmarks"

// Opener hands a URL to the OS. Open must not wait for the browser.
type Opener interface {
	Open(url string) error
}

// Notifier shows desktop notifications.
type Notifier interface {
	Notify(title, body string) error
}

// Favicons fetches and caches bookmark icons.
type Favicons interface {
	Fetch(ctx context.Context, id uint64, pageURL string) (string, error)
	Remove(id uint64) error
}

// Options holds the dispatcher's collaborators. Nil collaborators are
// replaced with no-ops.
type Options struct {
	Opener    Opener
	Notifier  Notifier
	Favicons  Favicons
	OpenDelay time.Duration
	Logger    zerolog.Logger
}

// Dispatcher applies run-action requests to a loaded store.
type Dispatcher struct {
	store     *model.Store
	storage   storage.Storage
	opener    Opener
	notifier  Notifier
	favicons  Favicons
	openDelay time.Duration
	log       zerolog.Logger
}

// New creates a Dispatcher over store, persisting through st.
func New(store *model.Store, st storage.Storage, opts Options) *Dispatcher {
	d := &Dispatcher{
		store:     store,
		storage:   st,
		opener:    opts.Opener,
		notifier:  opts.Notifier,
		favicons:  opts.Favicons,
		openDelay: opts.OpenDelay,
		log:       opts.Logger,
	}
	if d.opener == nil {
		d.opener = nopOpener{}
	}
	if d.notifier == nil {
		d.notifier = nopNotifier{}
	}
	return d
}

// Dispatch runs the named action. Unknown names are ignored.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, args []string, form host.FormValues) error {
	switch name {
	case results.ActionCreateBookmark:
		return d.createBookmark(ctx, form)
	case results.ActionEditBookmark:
		return d.editBookmark(ctx, args, form)
	case results.ActionDeleteBookmark:
		return d.deleteBookmark(args)
	case results.ActionCreateGroup:
		return d.createGroup(form)
	case results.ActionEditGroup:
		return d.editGroup(args, form)
	case results.ActionDeleteGroup:
		return d.deleteGroup(args)
	case results.ActionOpenGroup:
		return d.openGroup(ctx, args)
	default:
		d.log.Debug().Str("action", name).Msg("Ignoring unknown action")
		return nil
	}
}

func (d *Dispatcher) createBookmark(ctx context.Context, form host.FormValues) error {
	name, url, err := d.bookmarkFields(form)
	if err != nil {
		return err
	}

	b := d.store.CreateBookmark(name, url)
	if form.Toggled(results.FieldUseIcon) {
		b.IconPath = d.fetchFavicon(ctx, b.ID, url)
	}
	d.store.AddBookmark(b)

	if err := d.save(); err != nil {
		return err
	}
	d.log.Info().Uint64("id", b.ID).Str("url", url).Msg("Bookmark created")
	d.notify("Bookmark created")
	return nil
}

func (d *Dispatcher) editBookmark(ctx context.Context, args []string, form host.FormValues) error {
	id, err := d.targetID(args)
	if err != nil {
		return err
	}
	name, url, err := d.bookmarkFields(form)
	if err != nil {
		return err
	}

	existing := d.store.GetBookmarkByID(id)
	if existing == nil {
		return fmt.Errorf("edit bookmark %d: %w", id, model.ErrBookmarkNotFound)
	}

	iconPath := existing.IconPath
	dropIcon := false
	switch {
	case !form.Toggled(results.FieldUseIcon):
		dropIcon = existing.HasIcon()
		iconPath = nil
	case !existing.HasIcon() || existing.URL != url:
		iconPath = d.fetchFavicon(ctx, id, url)
		// A failed refetch leaves the old site's icon on disk.
		dropIcon = iconPath == nil && existing.HasIcon()
	}

	if err := d.store.UpdateBookmark(id, model.UpdateBookmarkParams{Name: name, URL: url, IconPath: iconPath}); err != nil {
		return fmt.Errorf("edit bookmark %d: %w", id, err)
	}

	if err := d.save(); err != nil {
		return err
	}
	if dropIcon {
		d.removeFavicon(id)
	}
	d.log.Info().Uint64("id", id).Msg("Bookmark updated")
	d.notify("Bookmark updated")
	return nil
}

func (d *Dispatcher) deleteBookmark(args []string) error {
	id, err := d.targetID(args)
	if err != nil {
		return err
	}

	existing := d.store.GetBookmarkByID(id)
	hadIcon := existing != nil && existing.HasIcon()

	if err := d.store.DeleteBookmark(id); err != nil {
		return fmt.Errorf("delete bookmark %d: %w", id, err)
	}
	if err := d.save(); err != nil {
		return err
	}
	if hadIcon {
		d.removeFavicon(id)
	}
	d.log.Info().Uint64("id", id).Msg("Bookmark deleted")
	d.notify("Bookmark deleted")
	return nil
}

func (d *Dispatcher) createGroup(form host.FormValues) error {
	name, err := d.groupName(form)
	if err != nil {
		return err
	}

	g := d.store.CreateGroup(name, form.ToggledIDs(results.BookmarkFieldPrefix))
	g.IconPath = optionalPath(form.Optional(results.FieldIconPath))
	g.TintIcon = form.Toggled(results.FieldTintIcon)
	d.store.AddGroup(g)

	if err := d.save(); err != nil {
		return err
	}
	d.log.Info().Uint64("id", g.ID).Int("bookmarks", len(g.BookmarkIDs)).Msg("Group created")
	d.notify("Group created")
	return nil
}

func (d *Dispatcher) editGroup(args []string, form host.FormValues) error {
	id, err := d.targetID(args)
	if err != nil {
		return err
	}
	name, err := d.groupName(form)
	if err != nil {
		return err
	}

	g := d.store.GetGroupByID(id)
	if g == nil {
		return fmt.Errorf("edit group %d: %w", id, model.ErrGroupNotFound)
	}

	params := model.UpdateGroupParams{
		Name:        name,
		BookmarkIDs: keepOrder(g.BookmarkIDs, form.ToggledIDs(results.BookmarkFieldPrefix)),
		IconPath:    optionalPath(form.Optional(results.FieldIconPath)),
		TintIcon:    form.Toggled(results.FieldTintIcon),
	}
	if err := d.store.UpdateGroup(id, params); err != nil {
		return fmt.Errorf("edit group %d: %w", id, err)
	}

	if err := d.save(); err != nil {
		return err
	}
	d.log.Info().Uint64("id", id).Msg("Group updated")
	d.notify("Group updated")
	return nil
}

func (d *Dispatcher) deleteGroup(args []string) error {
	id, err := d.targetID(args)
	if err != nil {
		return err
	}
	if err := d.store.DeleteGroup(id); err != nil {
		return fmt.Errorf("delete group %d: %w", id, err)
	}
	if err := d.save(); err != nil {
		return err
	}
	d.log.Info().Uint64("id", id).Msg("Group deleted")
	d.notify("Group deleted")
	return nil
}

// openGroup hands every member URL to the opener, in membership order, at
// most one per openDelay. Opens are best effort: failures are logged and
// never reported back.
func (d *Dispatcher) openGroup(ctx context.Context, args []string) error {
	id, err := d.targetID(args)
	if err != nil {
		return err
	}
	g := d.store.GetGroupByID(id)
	if g == nil {
		return fmt.Errorf("open group %d: %w", id, model.ErrGroupNotFound)
	}

	limit := rate.Inf
	if d.openDelay > 0 {
		limit = rate.Every(d.openDelay)
	}
	limiter := rate.NewLimiter(limit, 1)

	for _, b := range d.store.GroupBookmarks(*g) {
		if err := limiter.Wait(ctx); err != nil {
			return err
		}
		if err := d.opener.Open(b.URL); err != nil {
			d.log.Debug().Err(err).Str("url", b.URL).Msg("Open failed")
		}
	}
	d.log.Info().Uint64("id", id).Int("bookmarks", len(g.BookmarkIDs)).Msg("Group opened")
	return nil
}

func (d *Dispatcher) bookmarkFields(form host.FormValues) (name, url string, err error) {
	name, err = form.String(results.FieldName)
	if err != nil {
		return "", "", d.incomplete(err)
	}
	url, err = form.String(results.FieldURL)
	if err != nil {
		return "", "", d.incomplete(err)
	}

	name, url = strings.TrimSpace(name), strings.TrimSpace(url)
	if name == "" || url == "" {
		return "", "", d.invalid("Fields must not be empty")
	}
	return name, url, nil
}

func (d *Dispatcher) groupName(form host.FormValues) (string, error) {
	name, err := form.String(results.FieldName)
	if err != nil {
		return "", d.incomplete(err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", d.invalid("Can't have empty group name")
	}
	return name, nil
}

func (d *Dispatcher) targetID(args []string) (uint64, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("%w: missing id argument", ErrInvalidInput)
	}
	id, err := strconv.ParseUint(strings.TrimSpace(args[0]), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: id %q: %v", ErrInvalidInput, args[0], err)
	}
	return id, nil
}

func (d *Dispatcher) invalid(msg string) error {
	d.notify(msg)
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// incomplete reports a form that lacks a field its definition declares.
// Nothing has been mutated at this point.
func (d *Dispatcher) incomplete(err error) error {
	d.log.Warn().Err(err).Msg("Incomplete form")
	d.notify("The form is missing a field, nothing was changed")
	return err
}

// fetchFavicon returns the cached icon path, or nil when fetching failed.
func (d *Dispatcher) fetchFavicon(ctx context.Context, id uint64, url string) *string {
	if d.favicons == nil {
		return nil
	}
	path, err := d.favicons.Fetch(ctx, id, url)
	if err != nil {
		d.log.Warn().Err(err).Str("url", url).Msg("Favicon fetch failed")
		d.notify("Couldn't fetch the favicon, using the default icon")
		return nil
	}
	return &path
}

func (d *Dispatcher) removeFavicon(id uint64) {
	if d.favicons == nil {
		return
	}
	if err := d.favicons.Remove(id); err != nil {
		d.log.Debug().Err(err).Uint64("id", id).Msg("Favicon cleanup failed")
	}
}

func (d *Dispatcher) save() error {
	if err := d.storage.Save(d.store); err != nil {
		return fmt.Errorf("save store: %w", err)
	}
	return nil
}

func (d *Dispatcher) notify(body string) {
	if err := d.notifier.Notify(notifyTitle, body); err != nil {
		d.log.Debug().Err(err).Str("body", body).Msg("Notification failed")
	}
}

// keepOrder returns selected with ids already in current kept in their
// current order, followed by the newly selected ones.
func keepOrder(current, selected []uint64) []uint64 {
	chosen := make(map[uint64]bool, len(selected))
	for _, id := range selected {
		chosen[id] = true
	}

	out := make([]uint64, 0, len(selected))
	for _, id := range current {
		if chosen[id] {
			out = append(out, id)
			delete(chosen, id)
		}
	}
	for _, id := range selected {
		if chosen[id] {
			out = append(out, id)
		}
	}
	return out
}

func optionalPath(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type nopOpener struct{}

func (nopOpener) Open(string) error { return nil }

type nopNotifier struct{}

func (nopNotifier) Notify(string, string) error { return nil }
