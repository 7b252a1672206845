package posts

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
)

// File is a source document eligible for parsing.
type File struct {
	FS   fs.FS  // File system holding the document
	Name string // Slash-separated path within FS
}

// ReadFile reads the contents of the document.
func (f File) ReadFile() ([]byte, error) {
	return fs.ReadFile(f.FS, f.Name)
}

// A Source lists the documents an Index is built from.
type Source interface {
	// Files returns the eligible documents in a deterministic order.
	Files() ([]File, error)
}

// fsSource is a Source reading the top level of a folder in an fs.FS.
type fsSource struct {
	fsys fs.FS
	dir  string
}

// FS returns a Source for the documents directly inside dir of fsys.
// Use it with an embed.FS to serve a bundle compiled into the binary.
func FS(fsys fs.FS, dir string) Source {
	return fsSource{fsys: fsys, dir: path.Clean(dir)}
}

// Dir returns a Source for the documents directly inside the given directory.
func Dir(dir string) Source {
	return FS(os.DirFS(dir), ".")
}

// Files implements Source. Entries are returned in name order. Subfolders,
// hidden files, and files not ending in ".org" are skipped.
func (s fsSource) Files() ([]File, error) {
	entries, err := fs.ReadDir(s.fsys, s.dir)
	if err != nil {
		return nil, fmt.Errorf("Files: %w", err)
	}
	var files []File
	for _, entry := range entries {
		name := path.Join(s.dir, entry.Name())
		if !s.eligible(entry, name) {
			continue
		}
		files = append(files, File{FS: s.fsys, Name: name})
	}
	return files, nil
}

// eligible reports whether entry is a visible regular file with the source extension.
// Symbolic links are followed.
func (s fsSource) eligible(entry fs.DirEntry, name string) bool {
	if strings.HasPrefix(entry.Name(), ".") || path.Ext(entry.Name()) != Ext {
		return false
	}
	if entry.Type()&fs.ModeSymlink != 0 {
		fi, err := fs.Stat(s.fsys, name)
		return err == nil && fi.Mode().IsRegular()
	}
	return entry.Type().IsRegular()
}

// multiSource concatenates the files of several sources.
type multiSource []Source

// Multi returns a Source listing the files of each of srcs in turn. Documents
// from different sources may share a slug; Load keeps the one that sorts later.
func Multi(srcs ...Source) Source {
	return multiSource(srcs)
}

// Files implements Source.
func (m multiSource) Files() ([]File, error) {
	var files []File
	for _, src := range m {
		f, err := src.Files()
		if err != nil {
			return nil, err
		}
		files = append(files, f...)
	}
	return files, nil
}
