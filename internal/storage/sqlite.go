package storage

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/nikbrunner/whiskers-bm/internal/model"
)

// migrations[i] moves the schema from user_version i to i+1.
var migrations = []string{
	`
	CREATE TABLE bookmarks (
		id INTEGER PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		icon_path TEXT
	);

	CREATE TABLE bookmark_groups (
		id INTEGER PRIMARY KEY NOT NULL,
		name TEXT NOT NULL,
		icon_path TEXT,
		tint_icon INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE group_members (
		group_id INTEGER NOT NULL REFERENCES bookmark_groups(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		bookmark_id INTEGER NOT NULL REFERENCES bookmarks(id) ON DELETE CASCADE,
		PRIMARY KEY (group_id, position)
	);

	CREATE INDEX group_members_bookmark ON group_members(bookmark_id);
	`,
}

// SQLiteStorage keeps the store in a SQLite database. Group membership lives
// in its own table, so the foreign keys repeat the cascading delete.
type SQLiteStorage struct {
	db   *sql.DB
	path string
}

// NewSQLiteStorage opens (or creates) the database at path and brings its
// schema up to date. A file that isn't a database yields ErrCorrupt.
func NewSQLiteStorage(path string) (*SQLiteStorage, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	params := url.Values{}
	for _, p := range []string{"foreign_keys(1)", "journal_mode(WAL)", "synchronous(NORMAL)", "busy_timeout(5000)"} {
		params.Add("_pragma", p)
	}
	db, err := sql.Open("sqlite", path+"?"+params.Encode())
	if err != nil {
		return nil, err
	}

	s := &SQLiteStorage{db: db, path: path}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return s, nil
}

func (s *SQLiteStorage) Path() string {
	return s.path
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) migrate() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	for v := version; v < len(migrations); v++ {
		tx, err := s.db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[v]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", v+1, err)
		}
		// PRAGMA doesn't take bind parameters.
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}

// Load reads every row into a fresh store, groups with their members in
// saved order.
func (s *SQLiteStorage) Load() (*model.Store, error) {
	store := model.NewStore()

	bookmarks, err := s.loadBookmarks()
	if err != nil {
		return nil, fmt.Errorf("load bookmarks: %w", err)
	}
	store.Bookmarks = bookmarks

	groups, err := s.loadGroups()
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}
	store.Groups = groups

	if err := s.loadMembers(store.Groups); err != nil {
		return nil, fmt.Errorf("load group members: %w", err)
	}

	return normalize(store, s.path)
}

func (s *SQLiteStorage) loadBookmarks() ([]model.Bookmark, error) {
	rows, err := s.db.Query(`SELECT id, name, url, icon_path FROM bookmarks ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bookmarks := []model.Bookmark{}
	for rows.Next() {
		var (
			id       int64
			name     string
			link     string
			iconPath sql.NullString
		)
		if err := rows.Scan(&id, &name, &link, &iconPath); err != nil {
			return nil, err
		}
		bookmarks = append(bookmarks, model.NewBookmark(model.NewBookmarkParams{
			ID:       uint64(id),
			Name:     name,
			URL:      link,
			IconPath: nullable(iconPath),
		}))
	}
	return bookmarks, rows.Err()
}

func (s *SQLiteStorage) loadGroups() ([]model.Group, error) {
	rows, err := s.db.Query(`SELECT id, name, icon_path, tint_icon FROM bookmark_groups ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []model.Group{}
	for rows.Next() {
		var (
			id       int64
			name     string
			iconPath sql.NullString
			tint     bool
		)
		if err := rows.Scan(&id, &name, &iconPath, &tint); err != nil {
			return nil, err
		}
		groups = append(groups, model.NewGroup(model.NewGroupParams{
			ID:       uint64(id),
			Name:     name,
			IconPath: nullable(iconPath),
			TintIcon: tint,
		}))
	}
	return groups, rows.Err()
}

func (s *SQLiteStorage) loadMembers(groups []model.Group) error {
	byID := make(map[uint64]*model.Group, len(groups))
	for i := range groups {
		byID[groups[i].ID] = &groups[i]
	}

	rows, err := s.db.Query(`SELECT group_id, bookmark_id FROM group_members ORDER BY group_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var groupID, bookmarkID int64
		if err := rows.Scan(&groupID, &bookmarkID); err != nil {
			return err
		}
		if g, ok := byID[uint64(groupID)]; ok {
			g.BookmarkIDs = append(g.BookmarkIDs, uint64(bookmarkID))
		}
	}
	return rows.Err()
}

// Save replaces the database contents in one transaction.
func (s *SQLiteStorage) Save(store *model.Store) error {
	store.SortByID()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Children first; the foreign keys would cascade anyway.
	for _, table := range []string{"group_members", "bookmark_groups", "bookmarks"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return err
		}
	}

	insertBookmark, err := tx.Prepare(`INSERT INTO bookmarks (id, name, url, icon_path) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertBookmark.Close()

	for _, b := range store.Bookmarks {
		if _, err := insertBookmark.Exec(int64(b.ID), b.Name, b.URL, b.IconPath); err != nil {
			return fmt.Errorf("bookmark %d: %w", b.ID, err)
		}
	}

	insertGroup, err := tx.Prepare(`INSERT INTO bookmark_groups (id, name, icon_path, tint_icon) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertGroup.Close()

	insertMember, err := tx.Prepare(`INSERT INTO group_members (group_id, position, bookmark_id) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer insertMember.Close()

	for _, g := range store.Groups {
		if _, err := insertGroup.Exec(int64(g.ID), g.Name, g.IconPath, g.TintIcon); err != nil {
			return fmt.Errorf("group %d: %w", g.ID, err)
		}
		for pos, bookmarkID := range g.BookmarkIDs {
			if _, err := insertMember.Exec(int64(g.ID), pos, int64(bookmarkID)); err != nil {
				return fmt.Errorf("group %d member %d: %w", g.ID, bookmarkID, err)
			}
		}
	}

	return tx.Commit()
}

func nullable(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
