/*
Package posts loads org-mode documents into an immutable, date-ordered index of blog posts.

Documents are discovered through a Source (a directory, an embedded bundle, or several of them),
parsed concurrently, and frozen into an Index that any number of goroutines may read without
locking. An Index is never modified after Load returns.

Each document is a file ending in ".org". The slug of a post is the file name without that
extension, so "posts/hello-world.org" is served as "hello-world". Metadata comes from
keyword lines:

	#+TITLE: Hello World
	#+DATE: <2024-03-15 Fri>

	* A heading
	Some *body* text.

Several TITLE lines are joined with a single space. A missing or unparsable DATE leaves the
post undated; undated posts sort before all dated ones.
*/
package posts

import (
	"html/template"
	"time"
)

// Ext is the extension of source documents.
const Ext = ".org"

// DateLayout is the layout of the DATE keyword, for example "<2024-03-15 Fri>".
const DateLayout = "<2006-01-02 Mon>"

// Post is a parsed document. A Post is immutable.
type Post struct {
	slug  string
	name  string
	title string
	date  time.Time
	html  template.HTML
}

// Slug returns the unique identifier of the post.
func (p *Post) Slug() string {
	return p.slug
}

// Name returns the path of the source document within its Source.
func (p *Post) Name() string {
	return p.name
}

// Title returns the title, or "" if the document declares none.
func (p *Post) Title() string {
	return p.title
}

// Date returns the publication date, or the zero time if the post is undated.
func (p *Post) Date() time.Time {
	return p.date
}

// HasDate reports whether the post has a publication date.
func (p *Post) HasDate() bool {
	return !p.date.IsZero()
}

// OrgDate returns the date in DateLayout, or "" if the post is undated.
func (p *Post) OrgDate() string {
	if !p.HasDate() {
		return ""
	}
	return p.date.Format(DateLayout)
}

// HTML returns the rendered body.
func (p *Post) HTML() template.HTML {
	return p.html
}
