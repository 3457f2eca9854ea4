// Package icons resolves the extension's bundled SVG icons.
package icons

import (
	"os"
	"path/filepath"
)

// Name identifies a bundled icon.
type Name string

const (
	Bookmark Name = "bookmark"
	Folder   Name = "folder"
	Plus     Name = "plus"
	Pencil   Name = "pencil"
	Trash    Name = "trash"
)

// Set resolves icon names against a directory of <name>.svg files.
type Set struct {
	dir string
}

// New returns a Set rooted at dir. An empty dir yields empty paths, which the
// host treats as "use the default icon".
func New(dir string) Set {
	return Set{dir: dir}
}

// DefaultDir is the icons directory shipped next to the executable.
func DefaultDir() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	return filepath.Join(filepath.Dir(exe), "icons")
}

// Path returns the file path for name.
func (s Set) Path(name Name) string {
	if s.dir == "" {
		return ""
	}
	return filepath.Join(s.dir, string(name)+".svg")
}
