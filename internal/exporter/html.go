package exporter

import (
	"fmt"
	"html"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nikbrunner/whiskers-bm/internal/model"
)

// DefaultExportPath returns the default export file path.
// Format: ~/Downloads/bookmarks-export-YYYY-MM-DD.html
func DefaultExportPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	filename := fmt.Sprintf("bookmarks-export-%s.html", time.Now().Format("2006-01-02"))
	return filepath.Join(home, "Downloads", filename), nil
}

// ExportHTML exports the store to Netscape bookmark HTML format. Each group
// becomes a folder holding its members in membership order; bookmarks that
// belong to no group follow at the top level.
func ExportHTML(store *model.Store) string {
	var b strings.Builder

	// Header
	b.WriteString("<!DOCTYPE NETSCAPE-Bookmark-file-1>\n")
	b.WriteString("<META HTTP-EQUIV=\"Content-Type\" CONTENT=\"text/html; charset=UTF-8\">\n")
	b.WriteString("<TITLE>Bookmarks</TITLE>\n")
	b.WriteString("<H1>Bookmarks</H1>\n")
	b.WriteString("<DL><p>\n")

	grouped := make(map[uint64]bool)
	for _, g := range store.Groups {
		fmt.Fprintf(&b, "    <DT><H3>%s</H3>\n", html.EscapeString(g.Name))
		b.WriteString("    <DL><p>\n")
		for _, bm := range store.GroupBookmarks(g) {
			writeBookmark(&b, bm, 2)
			grouped[bm.ID] = true
		}
		b.WriteString("    </DL><p>\n")
	}

	for _, bm := range store.Bookmarks {
		if !grouped[bm.ID] {
			writeBookmark(&b, bm, 1)
		}
	}

	// Footer
	b.WriteString("</DL><p>\n")

	return b.String()
}

// WriteFile exports store to path, creating parent directories.
func WriteFile(store *model.Store, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(ExportHTML(store)), 0644)
}

func writeBookmark(b *strings.Builder, bm model.Bookmark, indent int) {
	fmt.Fprintf(b,
		"%s<DT><A HREF=\"%s\">%s</A>\n",
		strings.Repeat("    ", indent),
		html.EscapeString(bm.URL),
		html.EscapeString(bm.Name),
	)
}
