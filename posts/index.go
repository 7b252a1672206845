package posts

import (
	"context"
	"fmt"
	"log"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/sync/errgroup"
)

// Options controls how Load builds an Index. The zero value is usable.
type Options struct {
	// Strict makes any unreadable or unparsable document, or any duplicate slug,
	// fail the whole load. Otherwise such problems are logged, kept in
	// Index.Warnings, and the index is built from the remaining documents.
	Strict bool

	// Parser parses the documents. If nil, the default Parser is used.
	Parser *Parser

	// Logger receives warnings and a summary. If nil, the standard logger is used.
	Logger *log.Logger
}

// Index is the immutable, date-ordered set of posts keyed by slug.
// It is safe for concurrent use and should be shared by pointer.
type Index struct {
	posts    *orderedmap.OrderedMap[string, *Post]
	warnings []error
}

// result is the outcome of loading one file.
type result struct {
	post *Post
	err  error
}

// Load discovers the documents of src and parses them concurrently, one goroutine
// per document. The resulting posts are sorted by date, undated posts first, and
// indexed by slug. Posts sharing a slug are resolved in favor of the one that sorts
// later, which is reported as a *DuplicateSlugError.
func Load(ctx context.Context, src Source, opts *Options) (*Index, error) {
	if opts == nil {
		opts = &Options{}
	}
	parser := opts.Parser
	if parser == nil {
		parser = defaultParser
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	files, err := src.Files()
	if err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	results := make([]result, len(files))
	g, gctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := loadFile(parser, f)
			if err != nil {
				if opts.Strict {
					return err
				}
				results[i].err = err
				return nil
			}
			results[i].post = p
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("Load: %w", err)
	}

	var (
		loaded   = make([]*Post, 0, len(results))
		warnings []error
	)
	for _, r := range results {
		if r.err != nil {
			logger.Printf("Load: skipping document: %s", r.err)
			warnings = append(warnings, r.err)
			continue
		}
		loaded = append(loaded, r.post)
	}

	ix, dups := newIndex(loaded)
	for _, dup := range dups {
		if opts.Strict {
			return nil, fmt.Errorf("Load: %w", dup)
		}
		logger.Printf("Load: %s", dup)
		warnings = append(warnings, dup)
	}
	ix.warnings = warnings
	logger.Printf("Loaded %d posts from %d documents (%d warnings)", ix.Len(), len(files), len(warnings))
	return ix, nil
}

// loadFile reads and parses a single document.
func loadFile(parser *Parser, f File) (*Post, error) {
	b, err := f.ReadFile()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.Name, err)
	}
	return parser.Parse(f.Name, b)
}

// newIndex sorts posts by date and indexes them by slug. The sort is stable, so
// posts with equal dates keep their source order. On a slug collision the earlier
// entry is removed, so the surviving post sits at its own position in date order.
func newIndex(posts []*Post) (*Index, []*DuplicateSlugError) {
	slices.SortStableFunc(posts, func(a, b *Post) int {
		return a.date.Compare(b.date)
	})
	var (
		m    = orderedmap.New[string, *Post]()
		dups []*DuplicateSlugError
	)
	for _, p := range posts {
		if old, ok := m.Delete(p.slug); ok {
			dups = append(dups, &DuplicateSlugError{Slug: p.slug, Kept: p.name, Dropped: old.name})
		}
		m.Set(p.slug, p)
	}
	return &Index{posts: m}, dups
}

// Get returns the post with the given slug. The second result is false if
// there is no such post.
func (ix *Index) Get(slug string) (*Post, bool) {
	return ix.posts.Get(slug)
}

// List returns all posts ordered by date, oldest first. Undated posts come first.
// The caller may modify the returned slice.
func (ix *Index) List() []*Post {
	list := make([]*Post, 0, ix.posts.Len())
	for pair := ix.posts.Oldest(); pair != nil; pair = pair.Next() {
		list = append(list, pair.Value)
	}
	return list
}

// Len returns the number of posts.
func (ix *Index) Len() int {
	return ix.posts.Len()
}

// Prev returns the post published before the one with the given slug, or nil.
func (ix *Index) Prev(slug string) *Post {
	pair := ix.posts.GetPair(slug)
	if pair == nil || pair.Prev() == nil {
		return nil
	}
	return pair.Prev().Value
}

// Next returns the post published after the one with the given slug, or nil.
func (ix *Index) Next(slug string) *Post {
	pair := ix.posts.GetPair(slug)
	if pair == nil || pair.Next() == nil {
		return nil
	}
	return pair.Next().Value
}

// Warnings returns the problems a lenient Load skipped over: unreadable or
// unparsable documents and duplicate slugs.
func (ix *Index) Warnings() []error {
	return slices.Clone(ix.warnings)
}
