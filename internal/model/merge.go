package model

// ImportMerge merges imported groups and bookmarks into the store.
//
// Imported ids are local to the import: every new bookmark receives the next
// free id, and group memberships are remapped accordingly. Bookmarks whose URL
// already exists are skipped and their group memberships point at the existing
// bookmark instead. Groups are matched by name; an existing group gains the
// imported members it doesn't already have.
func (s *Store) ImportMerge(groups []Group, bookmarks []Bookmark) (added, skipped int) {
	idMap := make(map[uint64]uint64, len(bookmarks))

	for _, b := range bookmarks {
		if existing := s.bookmarkByURL(b.URL); existing != nil {
			idMap[b.ID] = existing.ID
			skipped++
			continue
		}

		newID := s.NextBookmarkID()
		idMap[b.ID] = newID
		b.ID = newID
		s.AddBookmark(b)
		added++
	}

	for _, g := range groups {
		remapped := make([]uint64, 0, len(g.BookmarkIDs))
		for _, id := range g.BookmarkIDs {
			if mapped, ok := idMap[id]; ok {
				remapped = append(remapped, mapped)
			}
		}

		if existing := s.groupByName(g.Name); existing != nil {
			existing.BookmarkIDs = s.members(append(existing.BookmarkIDs, remapped...))
			continue
		}

		g.ID = s.NextGroupID()
		g.BookmarkIDs = remapped
		s.AddGroup(g)
	}

	return added, skipped
}

func (s *Store) groupByName(name string) *Group {
	for i := range s.Groups {
		if s.Groups[i].Name == name {
			return &s.Groups[i]
		}
	}
	return nil
}
