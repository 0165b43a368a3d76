package blog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"gopkg.in/yaml.v3"

	"confidante-backend/internal/types"
)

//go:embed posts/*.md
var embeddedPosts embed.FS

var ErrNotFound = errors.New("blog: post not found")

const frontMatterDelim = "---"

type frontMatter struct {
	Title    string `yaml:"title"`
	Category string `yaml:"category"`
	ReadTime string `yaml:"read_time"`
	Image    string `yaml:"image"`
	Excerpt  string `yaml:"excerpt"`
	Order    int    `yaml:"order"`
}

// Post is a rendered article. HTML is produced once at load time.
type Post struct {
	types.PostSummary
	HTML  string
	order int
}

// Catalog holds every post in publication order. It is read-only after
// construction.
type Catalog struct {
	posts  []Post
	bySlug map[string]int
}

// DefaultCatalog renders the articles built into the binary.
func DefaultCatalog() (*Catalog, error) {
	sub, err := fs.Sub(embeddedPosts, "posts")
	if err != nil {
		return nil, err
	}
	return LoadCatalog(sub)
}

// LoadCatalog renders every .md file at the root of fsys. The file name
// without extension is the slug.
func LoadCatalog(fsys fs.FS) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read posts: %w", err)
	}

	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)

	c := &Catalog{bySlug: make(map[string]int)}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".md" {
			continue
		}
		raw, err := fs.ReadFile(fsys, e.Name())
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		post, err := parsePost(md, strings.TrimSuffix(e.Name(), ".md"), raw)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		c.posts = append(c.posts, post)
	}

	sort.SliceStable(c.posts, func(i, j int) bool {
		if c.posts[i].order != c.posts[j].order {
			return c.posts[i].order < c.posts[j].order
		}
		return c.posts[i].Slug < c.posts[j].Slug
	})
	for i, p := range c.posts {
		c.bySlug[p.Slug] = i
	}
	return c, nil
}

func parsePost(md goldmark.Markdown, slug string, raw []byte) (Post, error) {
	meta, body, err := splitFrontMatter(raw)
	if err != nil {
		return Post{}, err
	}

	var fm frontMatter
	if err := yaml.Unmarshal(meta, &fm); err != nil {
		return Post{}, fmt.Errorf("front matter: %w", err)
	}
	if strings.TrimSpace(fm.Title) == "" {
		return Post{}, fmt.Errorf("front matter: title is required")
	}

	var buf bytes.Buffer
	if err := md.Convert(body, &buf); err != nil {
		return Post{}, fmt.Errorf("render: %w", err)
	}

	return Post{
		PostSummary: types.PostSummary{
			Slug:     slug,
			Title:    fm.Title,
			Category: fm.Category,
			ReadTime: fm.ReadTime,
			Excerpt:  fm.Excerpt,
			Image:    fm.Image,
		},
		HTML:  buf.String(),
		order: fm.Order,
	}, nil
}

// splitFrontMatter separates a leading "---" delimited YAML block from the
// markdown body.
func splitFrontMatter(raw []byte) (meta, body []byte, err error) {
	text := strings.ReplaceAll(string(raw), "\r\n", "\n")
	if !strings.HasPrefix(text, frontMatterDelim+"\n") {
		return nil, nil, fmt.Errorf("missing front matter")
	}
	rest := text[len(frontMatterDelim)+1:]
	end := strings.Index(rest, "\n"+frontMatterDelim+"\n")
	if end < 0 {
		return nil, nil, fmt.Errorf("unterminated front matter")
	}
	return []byte(rest[:end]), []byte(rest[end+len(frontMatterDelim)+2:]), nil
}

// List returns the post summaries in publication order.
func (c *Catalog) List() []types.PostSummary {
	out := make([]types.PostSummary, len(c.posts))
	for i, p := range c.posts {
		out[i] = p.PostSummary
	}
	return out
}

func (c *Catalog) Get(slug string) (Post, error) {
	i, ok := c.bySlug[slug]
	if !ok {
		return Post{}, ErrNotFound
	}
	return c.posts[i], nil
}
