/*
Package site serves a posts.Index as a web site.

Routes:

	GET /              List of posts, newest first
	GET /post/{slug}   A single post, or the 404 page
	GET /sitemap.txt   Absolute URLs of all pages, one per line
	GET /static/*      Static assets, if a static file system is configured
	GET /favicon.ico   Redirect to /static/favicon.ico when it exists

Pages are rendered from html/template templates named "index", "post" and "notfound",
which share "header" and "footer". Built-in templates are used unless a template folder
supplies "*.html" files redefining them. A "sitemap.txt" file in the same folder
replaces the sitemap template (a text/template receiving a []string of URLs).

Templates receive the site Config, the page title, and, depending on the page, the
posts, the current post and its neighbours. Helper functions:

	reverse([]*posts.Post) []*posts.Post
		Reverse the list
	date(time.Time) string
		Format a date like "March 15, 2024"
	now() time.Time
		Current time

Rendered pages are cached with groupcache and static files with cachefs.
*/
package site

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"net/url"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/ancientlore/cachefs"
	"github.com/ancientlore/orgblog/posts"
	"github.com/ancientlore/orgblog/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/golang/groupcache"
	"github.com/google/uuid"
	"github.com/russross/blackfriday/v2"
)

const (
	indexPath   = "/"
	postPrefix  = "/post/"
	sitemapPath = "/sitemap.txt"
	staticPath  = "/static/"
	faviconPath = "/favicon.ico"
)

// errNoPost is returned when rendering a post that is not in the index.
var errNoPost = errors.New("no such post")

// Options configures a Site. The zero value is usable.
type Options struct {
	Config     *Config // Site settings; DefaultConfig() if nil
	Templates  fs.FS   // Folder with custom templates, or nil
	Static     fs.FS   // Static assets served under /static/, or nil
	CacheBytes int64   // Size of the rendered page cache and of the static file cache
}

// Site renders and serves the posts of an index.
type Site struct {
	posts      *posts.Index
	cfg        *Config
	tpl        *template.Template
	sitemapTpl *texttemplate.Template
	intro      template.HTML
	static     fs.FS
	cacheBytes int64
	pages      *groupcache.Group
	notFound   []byte
	modTime    time.Time
}

// New creates a Site for the posts in ix. Templates are parsed and the 404 page
// is rendered up front, so template errors surface here rather than per request.
func New(ix *posts.Index, opts *Options) (*Site, error) {
	if opts == nil {
		opts = &Options{}
	}
	s := Site{
		posts:      ix,
		cfg:        opts.Config,
		static:     opts.Static,
		cacheBytes: opts.CacheBytes,
		modTime:    time.Now(),
	}
	if s.cfg == nil {
		s.cfg = DefaultConfig()
	}
	var err error
	s.tpl, err = loadTemplates(opts.Templates)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	s.sitemapTpl, err = loadSitemapTemplate(opts.Templates)
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	if s.cfg.Intro != "" {
		s.intro = template.HTML(blackfriday.Run([]byte(s.cfg.Intro), blackfriday.WithExtensions(blackfriday.CommonExtensions|blackfriday.Footnotes)))
	}
	var buf bytes.Buffer
	err = s.tpl.ExecuteTemplate(&buf, "notfound", data{Site: s.cfg, Title: "Not Found"})
	if err != nil {
		return nil, fmt.Errorf("New: %w", err)
	}
	s.notFound = buf.Bytes()
	s.initPageCache(s.cacheBytes)
	return &s, nil
}

// Handler returns the http.Handler serving the site, including compression,
// CORS, and the configured response headers.
func (s *Site) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.GetHead)
	r.Use(cors.Handler(s.corsOptions()))
	r.Use(gziphandler.GzipHandler)
	r.Use(func(h http.Handler) http.Handler {
		return web.ExpiresHandler(h, time.Duration(s.cfg.Expires), time.Duration(s.cfg.StaticExpires), staticPath)
	})
	r.Use(func(h http.Handler) http.Handler {
		return web.HeaderHandler(h, s.cfg.Headers)
	})

	r.Get(indexPath, s.index)
	r.Get(postPrefix+"{slug}", s.post)
	r.Get(sitemapPath, s.sitemap)
	if s.static != nil {
		cached := cachefs.New(s.static, &cachefs.Config{
			GroupName:   "static-" + uuid.NewString(),
			SizeInBytes: s.cacheBytes,
		})
		files := http.StripPrefix(staticPath, http.FileServer(http.FS(cached)))
		r.Handle(staticPath+"*", web.ErrorHandler(files, s.errorPage))
		r.Get(faviconPath, s.favicon)
	}
	r.NotFound(s.notFoundHandler)
	return r
}

// corsOptions allows simple cross-origin reads of the site.
func (s *Site) corsOptions() cors.Options {
	origins := s.cfg.CORS.Origins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Accept-Encoding", "Authorization", "Content-Type", "Origin"},
	}
}

// index is an http.HandlerFunc that renders the list of posts.
func (s *Site) index(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, indexPath, "text/html; charset=utf-8")
}

// post is an http.HandlerFunc that renders a single post.
func (s *Site) post(w http.ResponseWriter, r *http.Request) {
	slug := chi.URLParam(r, "slug")
	if _, ok := s.posts.Get(slug); !ok {
		s.notFoundHandler(w, r)
		return
	}
	s.serve(w, r, postPrefix+slug, "text/html; charset=utf-8")
}

// sitemap is an http.HandlerFunc that renders the site map.
func (s *Site) sitemap(w http.ResponseWriter, r *http.Request) {
	s.serve(w, r, sitemapPath, "text/plain; charset=utf-8")
}

// favicon redirects to the icon in the static files, if there is one.
func (s *Site) favicon(w http.ResponseWriter, r *http.Request) {
	_, err := fs.Stat(s.static, faviconPath[1:])
	if errors.Is(err, fs.ErrNotExist) {
		s.notFoundHandler(w, r)
		return
	} else if err != nil {
		log.Printf("favicon: %s", err)
		s.serverError(w, r)
		return
	}
	http.Redirect(w, r, staticPath+faviconPath[1:], http.StatusPermanentRedirect)
}

// serve writes the cached rendering of the page at key.
func (s *Site) serve(w http.ResponseWriter, r *http.Request, key, contentType string) {
	b, err := s.cachedRender(r.Context(), key)
	if err != nil {
		log.Printf("serve: %s", err)
		s.serverError(w, r)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	http.ServeContent(w, r, "", s.modTime, bytes.NewReader(b))
}

// notFoundHandler renders the 404 page.
func (s *Site) notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, err := w.Write(s.notFound)
	if err != nil {
		log.Printf("notFound: %s", err)
	}
}

// serverError responds with a plain 500 error.
func (s *Site) serverError(w http.ResponseWriter, r *http.Request) {
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

// errorPage supplies the 404 page for static file errors.
func (s *Site) errorPage(statusCode int) ([]byte, bool) {
	if statusCode == http.StatusNotFound {
		return s.notFound, true
	}
	return nil, false
}

// render executes the template for the page at key.
func (s *Site) render(key string) ([]byte, error) {
	var (
		buf bytes.Buffer
		err error
	)
	switch {
	case key == indexPath:
		err = s.tpl.ExecuteTemplate(&buf, "index", data{
			Site:  s.cfg,
			Intro: s.intro,
			Posts: s.posts.List(),
		})
	case key == sitemapPath:
		err = s.sitemapTpl.Execute(&buf, s.urls())
	case strings.HasPrefix(key, postPrefix):
		slug := strings.TrimPrefix(key, postPrefix)
		p, ok := s.posts.Get(slug)
		if !ok {
			return nil, fmt.Errorf("render %q: %w", key, errNoPost)
		}
		err = s.tpl.ExecuteTemplate(&buf, "post", data{
			Site:  s.cfg,
			Title: p.Title(),
			Post:  p,
			Prev:  s.posts.Prev(slug),
			Next:  s.posts.Next(slug),
		})
	default:
		return nil, fmt.Errorf("render %q: unknown page", key)
	}
	if err != nil {
		return nil, fmt.Errorf("render %q: %w", key, err)
	}
	return buf.Bytes(), nil
}

// urls returns the absolute URLs of the home page and of every post, newest first.
func (s *Site) urls() []string {
	base := strings.TrimSuffix(s.cfg.BaseURL, "/")
	list := s.posts.List()
	urls := make([]string, 0, len(list)+1)
	urls = append(urls, base+indexPath)
	for i := len(list) - 1; i >= 0; i-- {
		urls = append(urls, base+postPrefix+url.PathEscape(list[i].Slug()))
	}
	return urls
}
