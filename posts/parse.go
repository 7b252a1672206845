package posts

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"path"
	"strings"
	"time"

	"github.com/niklasfasching/go-org/org"
)

// Parser turns org-mode text into Posts. A Parser is safe for concurrent use.
type Parser struct {
	conf *org.Configuration
}

// defaultParser is used by Parse and by Load when no Parser is given.
var defaultParser = NewParser(nil)

// NewParser returns a Parser that sends org warnings to logger,
// or to the standard logger if logger is nil.
func NewParser(logger *log.Logger) *Parser {
	if logger == nil {
		logger = log.Default()
	}
	conf := org.New()
	conf.Log = logger
	// Includes would read outside of the Source the document came from.
	conf.ReadFile = func(name string) ([]byte, error) {
		return nil, &fs.PathError{Op: "include", Path: name, Err: fs.ErrPermission}
	}
	settings := make(map[string]string, len(conf.DefaultSettings))
	for k, v := range conf.DefaultSettings {
		settings[k] = v
	}
	// The title is rendered by the page template, not in the body.
	opts := setOption(settings["OPTIONS"], "title", "nil")
	settings["OPTIONS"] = setOption(opts, "toc", "nil")
	conf.DefaultSettings = settings
	return &Parser{conf: conf}
}

// Parse parses text with the default Parser. See Parser.Parse.
func Parse(name string, text []byte) (*Post, error) {
	return defaultParser.Parse(name, text)
}

// Parse parses the org document text read from name. The slug is the last element
// of name without the ".org" suffix. Missing or malformed TITLE and DATE keywords
// leave the title empty and the post undated; only a failure to build or render the
// document tree results in a *ParseError.
func (p *Parser) Parse(name string, text []byte) (*Post, error) {
	slug := Slug(name)
	if slug == "" {
		return nil, &ParseError{Name: name, Err: ErrInvalidSlug}
	}
	doc := p.conf.Parse(bytes.NewReader(text), name)
	if doc.Error != nil {
		return nil, &ParseError{Name: name, Err: doc.Error}
	}
	html, err := doc.Write(org.NewHTMLWriter())
	if err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}
	post := Post{
		slug: slug,
		name: name,
		html: template.HTML(html),
	}
	post.title, _ = keyword(doc.Nodes, "title")
	if s, ok := keyword(doc.Nodes, "date"); ok {
		post.date, _ = parseDate(s)
	}
	return &post, nil
}

// Slug returns the slug for the source path name: the final path element
// with a trailing ".org" removed.
func Slug(name string) string {
	return strings.TrimSuffix(path.Base(name), Ext)
}

// keyword returns the values of all keywords named key, compared case-insensitively,
// joined in document order by a single space. Keywords inside sections count too.
func keyword(nodes []org.Node, key string) (string, bool) {
	var (
		values []string
		walk   func([]org.Node)
	)
	walk = func(nodes []org.Node) {
		for _, n := range nodes {
			switch n := n.(type) {
			case org.Keyword:
				if strings.EqualFold(n.Key, key) {
					values = append(values, strings.TrimSpace(n.Value))
				}
			case *org.Keyword:
				if strings.EqualFold(n.Key, key) {
					values = append(values, strings.TrimSpace(n.Value))
				}
			case org.Headline:
				walk(n.Children)
			case *org.Headline:
				walk(n.Children)
			}
		}
	}
	walk(nodes)
	if len(values) == 0 {
		return "", false
	}
	return strings.Join(values, " "), true
}

// parseDate parses an org date such as "<2024-03-15 Fri>". The weekday must
// match the date.
func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parseDate: %w", err)
	}
	if !strings.EqualFold(t.Format(DateLayout), s) {
		return time.Time{}, fmt.Errorf("parseDate: weekday does not match %s", t.Format("2006-01-02"))
	}
	return t, nil
}

// setOption sets key to value in an org OPTIONS line such as "toc:t title:t".
func setOption(options, key, value string) string {
	fields := strings.Fields(options)
	for i, f := range fields {
		if strings.HasPrefix(f, key+":") {
			fields[i] = key + ":" + value
			return strings.Join(fields, " ")
		}
	}
	return strings.Join(append(fields, key+":"+value), " ")
}
