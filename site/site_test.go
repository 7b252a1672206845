package site

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/ancientlore/orgblog/posts"
	"github.com/google/go-cmp/cmp"
)

var testPosts = fstest.MapFS{
	"new-year.org": {Data: []byte("#+TITLE: New Year\n#+DATE: <2024-01-01 Mon>\n\nFresh *start*.\n")},
	"summer.org":   {Data: []byte("#+TITLE: Summer\n#+DATE: <2024-06-01 Sat>\n\nIt is /warm/.\n")},
	"long.org":     {Data: []byte("#+TITLE: Long\n\n" + strings.Repeat("A long paragraph of text. ", 200) + "\n")},
}

var testStatic = fstest.MapFS{
	"style.css": {Data: []byte("body { color: black; }\n")},
}

func newTestSite(t *testing.T, opts *Options) http.Handler {
	t.Helper()
	ix, err := posts.Load(context.Background(), posts.FS(testPosts, "."), &posts.Options{Strict: true, Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}
	s, err := New(ix, opts)
	if err != nil {
		t.Fatal(err)
	}
	return s.Handler()
}

func get(h http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		r.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func TestIndex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Title = "Test Blog"
	cfg.Intro = "Posts about *things*."
	h := newTestSite(t, &Options{Config: cfg})

	w := get(h, http.MethodGet, "/", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 but got %d", w.Code)
	}
	body := w.Body.String()
	for _, s := range []string{"<title>Test Blog</title>", "<em>things</em>", `href="/post/summer"`, "June 1, 2024"} {
		if !strings.Contains(body, s) {
			t.Errorf("Expected %q in index page", s)
		}
	}
	// newest first; the undated post sorts oldest
	summer, newYear, long := strings.Index(body, "Summer"), strings.Index(body, "New Year"), strings.Index(body, ">Long<")
	if !(summer < newYear && newYear < long) {
		t.Errorf("Expected Summer, New Year, Long order but got positions %d, %d, %d", summer, newYear, long)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("Unexpected content type %q", ct)
	}
	if w.Header().Get("Last-Modified") == "" {
		t.Error("Expected Last-Modified header")
	}
}

func TestPost(t *testing.T) {
	h := newTestSite(t, nil)

	w := get(h, http.MethodGet, "/post/new-year", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 but got %d", w.Code)
	}
	body := w.Body.String()
	for _, s := range []string{"<h1>New Year</h1>", "<strong>start</strong>", `rel="next" href="/post/summer"`, `rel="prev" href="/post/long"`, "January 1, 2024"} {
		if !strings.Contains(body, s) {
			t.Errorf("Expected %q in post page", s)
		}
	}

	again := get(h, http.MethodGet, "/post/new-year", nil)
	if again.Body.String() != body {
		t.Error("Expected identical cached page")
	}
}

func TestNotFound(t *testing.T) {
	h := newTestSite(t, &Options{Static: testStatic})
	for _, target := range []string{"/post/nonexistent-slug", "/nope", "/post/", "/static/missing.css"} {
		w := get(h, http.MethodGet, target, nil)
		if w.Code != http.StatusNotFound {
			t.Errorf("%s: expected 404 but got %d", target, w.Code)
			continue
		}
		if !strings.Contains(w.Body.String(), "<h1>Not Found</h1>") {
			t.Errorf("%s: expected the 404 page, got %q", target, w.Body.String())
		}
	}
}

func TestStatic(t *testing.T) {
	h := newTestSite(t, &Options{Static: testStatic, CacheBytes: 1 << 20})
	w := get(h, http.MethodGet, "/static/style.css", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 but got %d", w.Code)
	}
	if w.Body.String() != "body { color: black; }\n" {
		t.Errorf("Unexpected body %q", w.Body.String())
	}

	h = newTestSite(t, nil)
	if w = get(h, http.MethodGet, "/static/style.css", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without static files but got %d", w.Code)
	}
}

func TestFavicon(t *testing.T) {
	h := newTestSite(t, &Options{Static: testStatic})
	if w := get(h, http.MethodGet, "/favicon.ico", nil); w.Code != http.StatusNotFound {
		t.Errorf("Expected 404 without an icon but got %d", w.Code)
	}

	static := fstest.MapFS{"favicon.ico": {Data: []byte{0, 0, 1, 0}}}
	h = newTestSite(t, &Options{Static: static})
	w := get(h, http.MethodGet, "/favicon.ico", nil)
	if w.Code != http.StatusPermanentRedirect {
		t.Fatalf("Expected 308 but got %d", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "/static/favicon.ico" {
		t.Errorf("Unexpected location %q", loc)
	}
}

func TestSitemap(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "https://example.com/"
	h := newTestSite(t, &Options{Config: cfg})
	w := get(h, http.MethodGet, "/sitemap.txt", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 but got %d", w.Code)
	}
	want := []string{
		"https://example.com/",
		"https://example.com/post/summer",
		"https://example.com/post/new-year",
		"https://example.com/post/long",
	}
	if diff := cmp.Diff(want, strings.Fields(w.Body.String())); diff != "" {
		t.Errorf("Unexpected sitemap (-want +got):\n%s", diff)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/plain; charset=utf-8" {
		t.Errorf("Unexpected content type %q", ct)
	}
}

func TestGzip(t *testing.T) {
	h := newTestSite(t, nil)
	w := get(h, http.MethodGet, "/post/long", map[string]string{"Accept-Encoding": "gzip"})
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200 but got %d", w.Code)
	}
	if ce := w.Header().Get("Content-Encoding"); ce != "gzip" {
		t.Fatalf("Expected gzip encoding but got %q", ce)
	}
	zr, err := gzip.NewReader(w.Body)
	if err != nil {
		t.Fatal(err)
	}
	b, err := io.ReadAll(zr)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(b, []byte("A long paragraph of text.")) {
		t.Error("Expected the post body after decompression")
	}
}

func TestHead(t *testing.T) {
	h := newTestSite(t, nil)
	w := get(h, http.MethodHead, "/", nil)
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200 but got %d", w.Code)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Expected no body for HEAD, got %d bytes", w.Body.Len())
	}
}

func TestHeaders(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Headers = map[string]string{"X-Frame-Options": "DENY"}
	cfg.Expires = Duration(time.Minute)
	h := newTestSite(t, &Options{Config: cfg})
	w := get(h, http.MethodGet, "/", map[string]string{"Origin": "https://elsewhere.example"})
	if v := w.Header().Get("X-Frame-Options"); v != "DENY" {
		t.Errorf("Expected configured header, got %q", v)
	}
	if w.Header().Get("Expires") == "" {
		t.Error("Expected Expires header")
	}
	if v := w.Header().Get("Access-Control-Allow-Origin"); v != "*" {
		t.Errorf("Expected CORS header *, got %q", v)
	}
}

func TestCustomTemplates(t *testing.T) {
	custom := fstest.MapFS{
		"index.html":  {Data: []byte(`{{define "index"}}custom index with {{len .Posts}} posts{{end}}`)},
		"sitemap.txt": {Data: []byte(`{{len .}} urls`)},
	}
	h := newTestSite(t, &Options{Templates: custom})
	if w := get(h, http.MethodGet, "/", nil); w.Body.String() != "custom index with 3 posts" {
		t.Errorf("Unexpected index %q", w.Body.String())
	}
	if w := get(h, http.MethodGet, "/sitemap.txt", nil); w.Body.String() != "4 urls" {
		t.Errorf("Unexpected sitemap %q", w.Body.String())
	}
	// untouched templates keep the built-in definitions
	if w := get(h, http.MethodGet, "/post/summer", nil); !strings.Contains(w.Body.String(), "<em>warm</em>") {
		t.Errorf("Unexpected post %q", w.Body.String())
	}
}

func TestBadTemplates(t *testing.T) {
	ix, err := posts.Load(context.Background(), posts.FS(testPosts, "."), &posts.Options{Logger: log.New(io.Discard, "", 0)})
	if err != nil {
		t.Fatal(err)
	}
	custom := fstest.MapFS{"index.html": {Data: []byte(`{{define "index"}}{{.Nope`)}}
	if _, err = New(ix, &Options{Templates: custom}); err == nil {
		t.Error("Expected a template error")
	}
}
