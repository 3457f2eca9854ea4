package importer

import (
	"io"
	"strings"

	"golang.org/x/net/html"

	"github.com/nikbrunner/whiskers-bm/internal/model"
)

// folderSeparator joins nested folder names into a flat group name.
const folderSeparator = " / "

// ParseHTML parses Netscape bookmark HTML. Every folder becomes a group
// holding the bookmarks directly inside it; nested folders are flattened to
// "Parent / Child" names. Ids are local to the returned batch.
func ParseHTML(r io.Reader) (Batch, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Batch{}, err
	}

	batch := Batch{Groups: []model.Group{}, Bookmarks: []model.Bookmark{}}

	// Indexes into batch.Groups; empty = root
	var folderStack []int
	pendingFolder := -1 // group waiting to be pushed on next DL

	var parse func(*html.Node)
	parse = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch strings.ToLower(n.Data) {
			case "h3":
				name := textContent(n)
				if name != "" {
					if len(folderStack) > 0 {
						parent := batch.Groups[folderStack[len(folderStack)-1]]
						name = parent.Name + folderSeparator + name
					}
					batch.Groups = append(batch.Groups, model.NewGroup(model.NewGroupParams{
						ID:   uint64(len(batch.Groups)),
						Name: name,
					}))
					pendingFolder = len(batch.Groups) - 1
				}
				return

			case "a":
				href := strings.TrimSpace(attr(n, "href"))
				if href == "" {
					return
				}

				name := textContent(n)
				if name == "" {
					name = href
				}

				b := model.NewBookmark(model.NewBookmarkParams{
					ID:   uint64(len(batch.Bookmarks)),
					Name: name,
					URL:  href,
				})
				batch.Bookmarks = append(batch.Bookmarks, b)

				if len(folderStack) > 0 {
					g := &batch.Groups[folderStack[len(folderStack)-1]]
					g.BookmarkIDs = append(g.BookmarkIDs, b.ID)
				}
				return

			case "dl":
				pushedFolder := false
				if pendingFolder >= 0 {
					folderStack = append(folderStack, pendingFolder)
					pendingFolder = -1
					pushedFolder = true
				}

				for c := range n.ChildNodes() {
					parse(c)
				}

				if pushedFolder {
					folderStack = folderStack[:len(folderStack)-1]
				}
				return
			}
		}

		for c := range n.ChildNodes() {
			parse(c)
		}
	}

	parse(doc)
	return batch, nil
}

func textContent(n *html.Node) string {
	var text strings.Builder
	for d := range n.Descendants() {
		if d.Type == html.TextNode {
			text.WriteString(d.Data)
		}
	}
	return strings.TrimSpace(text.String())
}

// attr looks up an attribute by case-insensitive key.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}
