/*
orgblog serves a folder of org-mode documents as a blog.

Each "*.org" file in the posts folder becomes a post at /post/{slug}, where the slug is
the file name without the extension. The title and publication date come from the
#+TITLE and #+DATE keywords; dates are written like <2024-03-15 Fri>. The home page lists
the posts newest first.

All documents are parsed once at startup. A document that cannot be parsed is logged
and skipped, unless -strict is given, in which case the server does not start.

Flags may also be given as environment variables, like ORGBLOG_PORT=9000.
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ancientlore/orgblog/content"
	"github.com/ancientlore/orgblog/posts"
	"github.com/ancientlore/orgblog/site"
	"github.com/facebookgo/flagenv"
	"github.com/golang/groupcache"
)

// main is where it all begins.
func main() {
	// Setup flags
	var (
		fPort              = flag.Int("port", 8080, "Port to listen on.")
		fReadTimeout       = flag.Duration("readtimeout", 10*time.Second, "HTTP server read timeout.")
		fReadHeaderTimeout = flag.Duration("readheadertimeout", 5*time.Second, "HTTP server read header timeout.")
		fWriteTimeout      = flag.Duration("writetimeout", 30*time.Second, "HTTP server write timeout.")
		fPosts             = flag.String("posts", "", "Folder of org documents. Uses the bundled posts if empty.")
		fEmbedded          = flag.Bool("embedded", false, "Serve the bundled posts along with the posts folder.")
		fStatic            = flag.String("static", "", "Folder of static files served under /static/. Uses the bundled files if empty.")
		fConfig            = flag.String("config", "", "Site configuration file. Uses the bundled configuration if empty.")
		fTemplates         = flag.String("templates", "", "Folder of templates overriding the built-in ones.")
		fStrict            = flag.Bool("strict", false, "Refuse to start if any document fails to load.")
		fCacheBytes        = flag.Int64("cachebytes", 10*1024*1024, "Size of the page and static file caches.")
	)
	flagenv.Prefix = "ORGBLOG_"
	flag.Parse()
	flagenv.Parse()

	// Setup groupcache with no peers
	groupcache.RegisterPeerPicker(func() groupcache.PeerPicker { return groupcache.NoPeers{} })

	// Read site configuration
	cfg, err := loadConfig(*fConfig)
	if err != nil {
		log.Print(err)
		os.Exit(1)
	}
	log.Printf("Loaded configuration for %q", cfg.Title)

	// Load posts
	var src posts.Source
	switch {
	case *fPosts == "":
		src = content.Posts()
	case *fEmbedded:
		src = posts.Multi(content.Posts(), posts.Dir(*fPosts))
	default:
		src = posts.Dir(*fPosts)
	}
	ix, err := posts.Load(context.Background(), src, &posts.Options{Strict: *fStrict})
	if err != nil {
		log.Printf("Cannot load posts: %s", err)
		os.Exit(2)
	}

	// Create the site
	opts := site.Options{
		Config:     cfg,
		Static:     content.Static(),
		CacheBytes: *fCacheBytes,
	}
	if *fStatic != "" {
		opts.Static = os.DirFS(*fStatic)
	}
	if *fTemplates != "" {
		opts.Templates = os.DirFS(*fTemplates)
	}
	s, err := site.New(ix, &opts)
	if err != nil {
		log.Printf("Cannot create site: %s", err)
		os.Exit(3)
	}
	log.Print("Created handlers")

	// Create HTTP server
	var srv = http.Server{
		Addr:              fmt.Sprintf(":%d", *fPort),
		Handler:           s.Handler(),
		ReadTimeout:       *fReadTimeout,
		WriteTimeout:      *fWriteTimeout,
		ReadHeaderTimeout: *fReadHeaderTimeout,
	}

	// Create signal handler for graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)

		// interrupt signal sent from terminal
		signal.Notify(sigint, os.Interrupt)
		// sigterm signal sent from kubernetes
		signal.Notify(sigint, syscall.SIGTERM)

		<-sigint

		// We received an interrupt signal, shut down.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			// Error from closing listeners, or context timeout:
			log.Printf("HTTP server Shutdown: %v", err)
		}
	}()

	// Listen for requests
	log.Printf("Listening for requests on port %d", *fPort)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Printf("HTTP server: %v", err)
		os.Exit(4)
	}
	log.Print("Goodbye.")
}

// loadConfig reads the site configuration from the named file, or the bundled one.
func loadConfig(name string) (*site.Config, error) {
	var (
		fsys fs.FS = content.FS()
		base       = content.ConfigFile
	)
	if name != "" {
		fsys, base = os.DirFS(filepath.Dir(name)), filepath.Base(name)
		if _, err := os.Stat(name); err != nil {
			return nil, fmt.Errorf("Cannot read config file: %w", err)
		}
	}
	return site.LoadConfig(fsys, base)
}
