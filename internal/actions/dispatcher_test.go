package actions_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nikbrunner/whiskers-bm/internal/actions"
	"github.com/nikbrunner/whiskers-bm/internal/host"
	"github.com/nikbrunner/whiskers-bm/internal/model"
	"github.com/nikbrunner/whiskers-bm/internal/results"
	"github.com/nikbrunner/whiskers-bm/internal/storage"
)

func stringPtr(s string) *string { return &s }

type memStorage struct {
	saves int
	err   error
}

func (m *memStorage) Load() (*model.Store, error) { return model.NewStore(), nil }

func (m *memStorage) Save(*model.Store) error {
	if m.err != nil {
		return m.err
	}
	m.saves++
	return nil
}

type recordingOpener struct {
	urls  []string
	times []time.Time
	err   error
}

func (r *recordingOpener) Open(url string) error {
	r.urls = append(r.urls, url)
	r.times = append(r.times, time.Now())
	return r.err
}

type recordingNotifier struct {
	bodies []string
}

func (r *recordingNotifier) Notify(title, body string) error {
	r.bodies = append(r.bodies, body)
	return nil
}

type fakeFavicons struct {
	fetched []string
	removed []uint64
	err     error
}

func (f *fakeFavicons) Fetch(_ context.Context, id uint64, pageURL string) (string, error) {
	f.fetched = append(f.fetched, pageURL)
	if f.err != nil {
		return "", f.err
	}
	return filepath.Join("/fav", results.FormatID(id)+".png"), nil
}

func (f *fakeFavicons) Remove(id uint64) error {
	f.removed = append(f.removed, id)
	return nil
}

type fixture struct {
	store    *model.Store
	storage  *memStorage
	opener   *recordingOpener
	notifier *recordingNotifier
	favicons *fakeFavicons
	d        *actions.Dispatcher
}

func newFixture(store *model.Store) *fixture {
	f := &fixture{
		store:    store,
		storage:  &memStorage{},
		opener:   &recordingOpener{},
		notifier: &recordingNotifier{},
		favicons: &fakeFavicons{},
	}
	f.d = actions.New(store, f.storage, actions.Options{
		Opener:   f.opener,
		Notifier: f.notifier,
		Favicons: f.favicons,
	})
	return f
}

func (f *fixture) run(t *testing.T, name string, args []string, form host.FormValues) error {
	t.Helper()
	return f.d.Dispatch(context.Background(), name, args, form)
}

func sampleStore() *model.Store {
	return &model.Store{
		Bookmarks: []model.Bookmark{
			{ID: 0, Name: "GitHub", URL: "https://github.com", IconPath: stringPtr("/fav/0.png")},
			{ID: 1, Name: "GitLab", URL: "https://gitlab.com"},
			{ID: 2, Name: "Go", URL: "https://go.dev"},
		},
		Groups: []model.Group{
			{ID: 0, Name: "Dev", BookmarkIDs: []uint64{2, 0}},
			{ID: 1, Name: "Forges", BookmarkIDs: []uint64{0, 1}},
		},
	}
}

func TestDispatch_DeleteEndToEnd(t *testing.T) {
	store := &model.Store{
		Bookmarks: []model.Bookmark{{ID: 0, Name: "GitHub", URL: "https://github.com"}},
		Groups:    []model.Group{{ID: 0, Name: "Dev", BookmarkIDs: []uint64{0}}},
	}
	f := newFixture(store)

	action := results.New(store, results.Options{}).Build("delete git")[0].Action.Extension
	if err := f.run(t, action.Action, action.Args, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.Bookmarks) != 0 {
		t.Errorf("expected bookmark removed, got %+v", store.Bookmarks)
	}
	if diff := cmp.Diff([]uint64{}, store.Groups[0].BookmarkIDs); diff != "" {
		t.Errorf("group ids mismatch (-want +got):\n%s", diff)
	}
	if f.storage.saves != 1 {
		t.Errorf("expected 1 save, got %d", f.storage.saves)
	}
}

func TestDispatch_CreateBookmark(t *testing.T) {
	f := newFixture(sampleStore())

	form := host.FormValues{"name": "  Go Docs ", "url": "https://go.dev/doc", "use-icon": "true"}
	if err := f.run(t, results.ActionCreateBookmark, nil, form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := f.store.GetBookmarkByID(3)
	if got == nil {
		t.Fatal("expected bookmark with id 3")
	}
	want := model.Bookmark{ID: 3, Name: "Go Docs", URL: "https://go.dev/doc", IconPath: stringPtr("/fav/3.png")}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("bookmark mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Bookmark created"}, f.notifier.bodies); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_CreateBookmarkIntoEmptyStore(t *testing.T) {
	f := newFixture(model.NewStore())

	form := host.FormValues{"name": "GitHub", "url": "https://github.com", "use-icon": "false"}
	if err := f.run(t, results.ActionCreateBookmark, nil, form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.store.Bookmarks) != 1 || f.store.Bookmarks[0].ID != 0 {
		t.Fatalf("expected a single bookmark with id 0, got %+v", f.store.Bookmarks)
	}
	if f.store.Bookmarks[0].IconPath != nil {
		t.Errorf("expected no icon, got %q", *f.store.Bookmarks[0].IconPath)
	}
	if len(f.favicons.fetched) != 0 {
		t.Errorf("expected no favicon fetch, got %v", f.favicons.fetched)
	}
}

func TestDispatch_CreateBookmarkFaviconFailure(t *testing.T) {
	f := newFixture(model.NewStore())
	f.favicons.err = errors.New("network down")

	form := host.FormValues{"name": "GitHub", "url": "https://github.com", "use-icon": "true"}
	if err := f.run(t, results.ActionCreateBookmark, nil, form); err != nil {
		t.Fatalf("expected favicon failure to be non-fatal, got %v", err)
	}

	if len(f.store.Bookmarks) != 1 || f.store.Bookmarks[0].IconPath != nil {
		t.Errorf("expected bookmark without icon, got %+v", f.store.Bookmarks)
	}
	if len(f.notifier.bodies) != 2 || f.notifier.bodies[1] != "Bookmark created" {
		t.Errorf("expected failure then success notification, got %v", f.notifier.bodies)
	}
}

func TestDispatch_InvalidInput(t *testing.T) {
	tests := []struct {
		name   string
		action string
		args   []string
		form   host.FormValues
	}{
		{"empty bookmark name", results.ActionCreateBookmark, nil, host.FormValues{"name": "  ", "url": "https://x.dev"}},
		{"empty bookmark url", results.ActionCreateBookmark, nil, host.FormValues{"name": "X", "url": ""}},
		{"empty group name", results.ActionCreateGroup, nil, host.FormValues{"name": "", "bookmark-0": "true"}},
		{"edit without id", results.ActionEditBookmark, nil, host.FormValues{"name": "X", "url": "https://x.dev"}},
		{"edit with bad id", results.ActionEditGroup, []string{"abc"}, host.FormValues{"name": "X"}},
		{"edit group empty name", results.ActionEditGroup, []string{"0"}, host.FormValues{"name": " "}},
		{"delete negative id", results.ActionDeleteBookmark, []string{"-1"}, nil},
		{"open without id", results.ActionOpenGroup, []string{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(sampleStore())

			err := f.run(t, tt.action, tt.args, tt.form)
			if !errors.Is(err, actions.ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			if diff := cmp.Diff(sampleStore(), f.store); diff != "" {
				t.Errorf("store mutated (-want +got):\n%s", diff)
			}
			if f.storage.saves != 0 {
				t.Errorf("expected no save, got %d", f.storage.saves)
			}
		})
	}
}

func TestDispatch_InvalidFormNotifies(t *testing.T) {
	f := newFixture(sampleStore())
	_ = f.run(t, results.ActionCreateBookmark, nil, host.FormValues{"name": "", "url": ""})
	if diff := cmp.Diff([]string{"Fields must not be empty"}, f.notifier.bodies); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_MissingField(t *testing.T) {
	f := newFixture(sampleStore())
	err := f.run(t, results.ActionCreateBookmark, nil, host.FormValues{"name": "X"})
	if !errors.Is(err, host.ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
	if f.storage.saves != 0 {
		t.Errorf("expected no save, got %d", f.storage.saves)
	}
	if len(f.notifier.bodies) != 1 {
		t.Errorf("expected one notification, got %v", f.notifier.bodies)
	}

	g := newFixture(sampleStore())
	err = g.run(t, results.ActionCreateGroup, nil, host.FormValues{"tint-icon": "true"})
	if !errors.Is(err, host.ErrMissingField) {
		t.Errorf("expected ErrMissingField for group form, got %v", err)
	}
	if len(g.notifier.bodies) != 1 || len(g.store.Groups) != len(sampleStore().Groups) {
		t.Errorf("expected a notification and no new group, got %v", g.notifier.bodies)
	}
}

func TestDispatch_EditBookmark(t *testing.T) {
	t.Run("keeps icon when url unchanged", func(t *testing.T) {
		f := newFixture(sampleStore())
		form := host.FormValues{"name": "Hub", "url": "https://github.com", "use-icon": "true"}
		if err := f.run(t, results.ActionEditBookmark, []string{"0"}, form); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := model.Bookmark{ID: 0, Name: "Hub", URL: "https://github.com", IconPath: stringPtr("/fav/0.png")}
		if diff := cmp.Diff(want, *f.store.GetBookmarkByID(0)); diff != "" {
			t.Errorf("bookmark mismatch (-want +got):\n%s", diff)
		}
		if len(f.favicons.fetched) != 0 {
			t.Errorf("expected no refetch, got %v", f.favicons.fetched)
		}
	})

	t.Run("refetches when url changes", func(t *testing.T) {
		f := newFixture(sampleStore())
		form := host.FormValues{"name": "GitHub", "url": "https://github.com/me", "use-icon": "true"}
		if err := f.run(t, results.ActionEditBookmark, []string{"0"}, form); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if diff := cmp.Diff([]string{"https://github.com/me"}, f.favicons.fetched); diff != "" {
			t.Errorf("fetches mismatch (-want +got):\n%s", diff)
		}
		if len(f.favicons.removed) != 0 {
			t.Errorf("expected the refreshed icon to be kept, removed %v", f.favicons.removed)
		}
	})

	t.Run("failed refetch drops the stale icon", func(t *testing.T) {
		f := newFixture(sampleStore())
		f.favicons.err = errors.New("status 500")
		form := host.FormValues{"name": "GitHub", "url": "https://github.com/me", "use-icon": "true"}
		if err := f.run(t, results.ActionEditBookmark, []string{"0"}, form); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.store.GetBookmarkByID(0).IconPath != nil {
			t.Error("expected icon cleared after failed refetch")
		}
		if diff := cmp.Diff([]uint64{0}, f.favicons.removed); diff != "" {
			t.Errorf("removed mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("use-icon off clears icon", func(t *testing.T) {
		f := newFixture(sampleStore())
		form := host.FormValues{"name": "GitHub", "url": "https://github.com", "use-icon": "false"}
		if err := f.run(t, results.ActionEditBookmark, []string{"0"}, form); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.store.GetBookmarkByID(0).IconPath != nil {
			t.Error("expected icon cleared")
		}
		if diff := cmp.Diff([]uint64{0}, f.favicons.removed); diff != "" {
			t.Errorf("removed mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		f := newFixture(sampleStore())
		form := host.FormValues{"name": "X", "url": "https://x.dev"}
		err := f.run(t, results.ActionEditBookmark, []string{"42"}, form)
		if !errors.Is(err, model.ErrBookmarkNotFound) {
			t.Errorf("expected ErrBookmarkNotFound, got %v", err)
		}
		if f.storage.saves != 0 {
			t.Errorf("expected no save, got %d", f.storage.saves)
		}
	})
}

func TestDispatch_DeleteBookmarkCascades(t *testing.T) {
	f := newFixture(sampleStore())

	if err := f.run(t, results.ActionDeleteBookmark, []string{"0"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, g := range f.store.Groups {
		if g.Contains(0) {
			t.Errorf("group %s still references bookmark 0", g.Name)
		}
	}
	if diff := cmp.Diff([]uint64{2}, f.store.Groups[0].BookmarkIDs); diff != "" {
		t.Errorf("Dev ids mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]uint64{0}, f.favicons.removed); diff != "" {
		t.Errorf("expected cached favicon removed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Bookmark deleted"}, f.notifier.bodies); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_DeleteMissing(t *testing.T) {
	f := newFixture(sampleStore())

	if err := f.run(t, results.ActionDeleteBookmark, []string{"9"}, nil); !errors.Is(err, model.ErrBookmarkNotFound) {
		t.Errorf("expected ErrBookmarkNotFound, got %v", err)
	}
	if err := f.run(t, results.ActionDeleteGroup, []string{"9"}, nil); !errors.Is(err, model.ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
	if f.storage.saves != 0 {
		t.Errorf("expected no save, got %d", f.storage.saves)
	}
}

func TestDispatch_CreateGroup(t *testing.T) {
	f := newFixture(sampleStore())

	form := host.FormValues{
		"name":       "Mixed",
		"icon-path":  " /icons/star.svg ",
		"tint-icon":  "true",
		"bookmark-2": "true",
		"bookmark-0": "true",
		"bookmark-1": "false",
		"bookmark-7": "true",
	}
	if err := f.run(t, results.ActionCreateGroup, nil, form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := f.store.GetGroupByID(2)
	if got == nil {
		t.Fatal("expected group with id 2")
	}
	want := model.Group{ID: 2, Name: "Mixed", BookmarkIDs: []uint64{0, 2}, IconPath: stringPtr("/icons/star.svg"), TintIcon: true}
	if diff := cmp.Diff(want, *got); diff != "" {
		t.Errorf("group mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_EditGroup(t *testing.T) {
	f := newFixture(sampleStore())

	// Dev is [2, 0]; untick 0, tick 1.
	form := host.FormValues{
		"name":       "Development",
		"bookmark-0": "false",
		"bookmark-1": "true",
		"bookmark-2": "true",
	}
	if err := f.run(t, results.ActionEditGroup, []string{"0"}, form); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := model.Group{ID: 0, Name: "Development", BookmarkIDs: []uint64{2, 1}}
	if diff := cmp.Diff(want, *f.store.GetGroupByID(0)); diff != "" {
		t.Errorf("group mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Group updated"}, f.notifier.bodies); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestDispatch_EditMissingGroup(t *testing.T) {
	f := newFixture(sampleStore())
	err := f.run(t, results.ActionEditGroup, []string{"5"}, host.FormValues{"name": "X"})
	if !errors.Is(err, model.ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestDispatch_DeleteGroupKeepsBookmarks(t *testing.T) {
	f := newFixture(sampleStore())

	if err := f.run(t, results.ActionDeleteGroup, []string{"0"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(f.store.Groups) != 1 || f.store.Groups[0].ID != 1 {
		t.Errorf("expected only Forges left, got %+v", f.store.Groups)
	}
	if len(f.store.Bookmarks) != 3 {
		t.Errorf("expected bookmarks untouched, got %d", len(f.store.Bookmarks))
	}
}

func TestDispatch_OpenGroup(t *testing.T) {
	f := newFixture(sampleStore())

	if err := f.run(t, results.ActionOpenGroup, []string{"0"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"https://go.dev", "https://github.com"}
	if diff := cmp.Diff(want, f.opener.urls); diff != "" {
		t.Errorf("opened urls mismatch (-want +got):\n%s", diff)
	}
	if f.storage.saves != 0 {
		t.Errorf("expected open to be read-only, got %d saves", f.storage.saves)
	}
}

func TestDispatch_OpenGroupPaced(t *testing.T) {
	store := sampleStore()
	opener := &recordingOpener{}
	delay := 40 * time.Millisecond
	d := actions.New(store, &memStorage{}, actions.Options{Opener: opener, OpenDelay: delay})

	if err := d.Dispatch(context.Background(), results.ActionOpenGroup, []string{"1"}, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(opener.times) != 2 {
		t.Fatalf("expected 2 opens, got %d", len(opener.times))
	}
	// Allow some slack for timer granularity.
	if gap := opener.times[1].Sub(opener.times[0]); gap < delay-10*time.Millisecond {
		t.Errorf("expected opens at least %v apart, got %v", delay, gap)
	}
}

func TestDispatch_OpenGroupIgnoresOpenErrors(t *testing.T) {
	f := newFixture(sampleStore())
	f.opener.err = errors.New("no browser")

	if err := f.run(t, results.ActionOpenGroup, []string{"1"}, nil); err != nil {
		t.Fatalf("expected open failures to be unobserved, got %v", err)
	}
	if len(f.opener.urls) != 2 {
		t.Errorf("expected every url attempted, got %v", f.opener.urls)
	}
}

func TestDispatch_OpenGroupCancelled(t *testing.T) {
	store := sampleStore()
	opener := &recordingOpener{}
	d := actions.New(store, &memStorage{}, actions.Options{Opener: opener, OpenDelay: time.Hour})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := d.Dispatch(ctx, results.ActionOpenGroup, []string{"1"}, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestDispatch_OpenMissingGroup(t *testing.T) {
	f := newFixture(sampleStore())
	if err := f.run(t, results.ActionOpenGroup, []string{"8"}, nil); !errors.Is(err, model.ErrGroupNotFound) {
		t.Errorf("expected ErrGroupNotFound, got %v", err)
	}
}

func TestDispatch_UnknownAction(t *testing.T) {
	f := newFixture(sampleStore())
	if err := f.run(t, "launch-rockets", []string{"1"}, nil); err != nil {
		t.Errorf("expected unknown action to be ignored, got %v", err)
	}
	if f.storage.saves != 0 || len(f.notifier.bodies) != 0 {
		t.Error("expected no side effects")
	}
}

func TestDispatch_SaveFailure(t *testing.T) {
	f := newFixture(sampleStore())
	f.storage.err = errors.New("disk full")

	err := f.run(t, results.ActionDeleteGroup, []string{"0"}, nil)
	if err == nil {
		t.Fatal("expected save error")
	}
	if len(f.notifier.bodies) != 0 {
		t.Errorf("expected no success notification, got %v", f.notifier.bodies)
	}
}

func TestDispatch_PersistsThroughJSONStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bookmarks.json")
	st := storage.NewJSONStorage(path)
	if err := st.Save(sampleStore()); err != nil {
		t.Fatalf("seed: %v", err)
	}

	store, err := st.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d := actions.New(store, st, actions.Options{})
	if err := d.Dispatch(context.Background(), results.ActionDeleteBookmark, []string{"2"}, nil); err != nil {
		t.Fatalf("dispatch: %v", err)
	}

	reloaded, err := st.Load()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if reloaded.GetBookmarkByID(2) != nil {
		t.Error("expected bookmark 2 deleted on disk")
	}
	if diff := cmp.Diff([]uint64{0}, reloaded.GetGroupByID(0).BookmarkIDs); diff != "" {
		t.Errorf("Dev ids mismatch (-want +got):\n%s", diff)
	}
}
