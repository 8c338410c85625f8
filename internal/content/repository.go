package content

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"go.abhg.dev/goldmark/frontmatter"
)

// frontMatter is the YAML header of a content file.
type frontMatter struct {
	Title       string   `yaml:"title"`
	Description string   `yaml:"description"`
	Image       string   `yaml:"image"`
	Date        string   `yaml:"date"`
	Author      string   `yaml:"author"`
	Tags        []string `yaml:"tags"`
}

// Repository reads markdown content from disk and caches parsed documents
// until Invalidate is called (the watcher does this on file changes).
type Repository struct {
	root string
	md   goldmark.Markdown

	mu   sync.RWMutex
	docs map[string]*Document
}

// NewRepository creates a Repository rooted at dir.
func NewRepository(dir string) (*Repository, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("content: empty content dir")
	}
	return &Repository{
		root: dir,
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, &frontmatter.Extender{}),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		docs: make(map[string]*Document),
	}, nil
}

// Root returns the content root directory.
func (r *Repository) Root() string { return r.root }

// ListByType returns the metadata of every document of a type, newest first.
func (r *Repository) ListByType(t Type) ([]Meta, error) {
	dir := filepath.Join(r.root, dirFor(t))
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Meta{}, nil
		}
		return nil, fmt.Errorf("content: read dir %s: %w", dir, err)
	}

	metas := make([]Meta, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		slug := strings.TrimSuffix(entry.Name(), ".md")
		doc, errGet := r.GetBySlug(t, slug)
		if errGet != nil {
			return nil, errGet
		}
		metas = append(metas, doc.Meta)
	}

	sort.SliceStable(metas, func(i, j int) bool {
		return metas[i].publishedAt().After(metas[j].publishedAt())
	})
	return metas, nil
}

// GetBySlug returns one fully parsed document.
func (r *Repository) GetBySlug(t Type, slug string) (*Document, error) {
	key := string(t) + "/" + slug

	r.mu.RLock()
	doc, ok := r.docs[key]
	r.mu.RUnlock()
	if ok {
		return doc, nil
	}

	path := filepath.Join(r.root, dirFor(t), slug+".md")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("content: %s %q not found: %w", t, slug, err)
	}

	doc, err = r.parse(t, slug, raw)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.docs[key] = doc
	r.mu.Unlock()
	return doc, nil
}

// Invalidate drops all cached documents.
func (r *Repository) Invalidate() {
	r.mu.Lock()
	r.docs = make(map[string]*Document)
	r.mu.Unlock()
}

// parse renders a markdown file and extracts frontmatter and headings.
func (r *Repository) parse(t Type, slug string, raw []byte) (*Document, error) {
	pctx := parser.NewContext()
	node := r.md.Parser().Parse(text.NewReader(raw), parser.WithContext(pctx))

	var buf bytes.Buffer
	if err := r.md.Renderer().Render(&buf, raw, node); err != nil {
		return nil, fmt.Errorf("content: render %s/%s: %w", t, slug, err)
	}

	var fm frontMatter
	if data := frontmatter.Get(pctx); data != nil {
		if err := data.Decode(&fm); err != nil {
			return nil, fmt.Errorf("content: frontmatter %s/%s: %w", t, slug, err)
		}
	}

	meta := Meta{
		ID:          slug,
		Slug:        slug,
		Type:        t,
		Title:       fm.Title,
		Description: fm.Description,
		Image:       fm.Image,
		Date:        fm.Date,
		Author:      fm.Author,
		Tags:        fm.Tags,
	}
	if meta.Title == "" {
		meta.Title = slug
	}

	return &Document{
		Meta:     meta,
		Markdown: markdownBody(raw),
		HTML:     buf.String(),
		Headings: extractHeadings(node, raw),
		Raw:      string(raw),
	}, nil
}

// markdownBody strips the frontmatter block from the raw file.
func markdownBody(raw []byte) string {
	s := string(raw)
	if !strings.HasPrefix(s, "---") {
		return s
	}
	rest := s[3:]
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return s
	}
	body := rest[idx+len("\n---"):]
	if nl := strings.IndexByte(body, '\n'); nl >= 0 {
		body = body[nl+1:]
	}
	return strings.TrimLeft(body, "\n")
}

// extractHeadings walks the AST collecting the document outline.
func extractHeadings(node ast.Node, raw []byte) []Heading {
	headings := make([]Heading, 0, 8)
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}

		id := ""
		if attr, found := heading.AttributeString("id"); found {
			if b, isBytes := attr.([]byte); isBytes {
				id = string(b)
			}
		}
		headings = append(headings, Heading{
			Level: heading.Level,
			Text:  nodeText(heading, raw),
			ID:    id,
		})
		return ast.WalkSkipChildren, nil
	})
	return headings
}

// nodeText flattens the text content of a node.
func nodeText(node ast.Node, raw []byte) string {
	var sb strings.Builder
	for child := node.FirstChild(); child != nil; child = child.NextSibling() {
		switch n := child.(type) {
		case *ast.Text:
			sb.Write(n.Segment.Value(raw))
		case *ast.String:
			sb.Write(n.Value)
		default:
			sb.WriteString(nodeText(child, raw))
		}
	}
	return sb.String()
}
