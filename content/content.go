// Package content holds the posts and static assets compiled into the binaries.
package content

import (
	"embed"
	"io/fs"

	"github.com/ancientlore/orgblog/posts"
)

//go:embed posts static orgblog.toml
var bundle embed.FS

// Posts returns a Source for the bundled org documents.
func Posts() posts.Source {
	return posts.FS(bundle, "posts")
}

// ConfigFile is the name of the bundled site configuration within FS.
const ConfigFile = "orgblog.toml"

// FS returns the whole bundle.
func FS() fs.FS {
	return bundle
}

// Static returns the bundled static assets.
func Static() fs.FS {
	sub, err := fs.Sub(bundle, "static")
	if err != nil {
		// "static" is a valid path, so fs.Sub cannot fail.
		panic(err)
	}
	return sub
}
