package site

import (
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"slices"
	texttemplate "text/template"
	"time"

	"github.com/ancientlore/orgblog/posts"
)

//go:embed templates
var defaultTemplates embed.FS

// data is what is passed to the HTML templates.
type data struct {
	Site  *Config       // site settings
	Title string        // page title, empty for the home page
	Intro template.HTML // rendered intro Markdown, home page only
	Posts []*posts.Post // all posts, oldest first, home page only
	Post  *posts.Post   // current post
	Prev  *posts.Post   // post published before Post, if any
	Next  *posts.Post   // post published after Post, if any
}

// reverse returns the posts in reverse order, leaving p unchanged.
func reverse(p []*posts.Post) []*posts.Post {
	r := slices.Clone(p)
	slices.Reverse(r)
	return r
}

// formatDate formats a publication date for display.
func formatDate(t time.Time) string {
	return t.Format("January 2, 2006")
}

// loadTemplates parses the built-in HTML templates and then any "*.html" files in
// custom, whose definitions replace the built-in ones. custom may be nil.
func loadTemplates(custom fs.FS) (*template.Template, error) {
	funcMap := template.FuncMap{
		"reverse": reverse,
		"date":    formatDate,
		"now":     time.Now,
	}
	tpl, err := template.New("orgblog").Funcs(funcMap).ParseFS(defaultTemplates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("loadTemplates: %w", err)
	}
	if custom == nil {
		return tpl, nil
	}
	matches, err := fs.Glob(custom, "*.html")
	if err != nil {
		return nil, fmt.Errorf("loadTemplates: %w", err)
	}
	if len(matches) == 0 {
		return tpl, nil
	}
	tpl, err = tpl.ParseFS(custom, "*.html")
	if err != nil {
		return nil, fmt.Errorf("loadTemplates: %w", err)
	}
	return tpl, nil
}

// loadSitemapTemplate parses "sitemap.txt" from custom if present, or the built-in one.
// The template receives the list of absolute page URLs.
func loadSitemapTemplate(custom fs.FS) (*texttemplate.Template, error) {
	var (
		fsys    fs.FS = defaultTemplates
		pattern       = "templates/sitemap.txt"
	)
	if custom != nil {
		_, err := fs.Stat(custom, "sitemap.txt")
		if err == nil {
			fsys, pattern = custom, "sitemap.txt"
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loadSitemapTemplate: %w", err)
		}
	}
	tpl, err := texttemplate.New(path.Base(pattern)).ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("loadSitemapTemplate: %w", err)
	}
	return tpl, nil
}
