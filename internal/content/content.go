// Package content loads markdown documents with YAML frontmatter from the
// content root and serves parsed metadata, rendered HTML and heading lists.
package content

import (
	"fmt"
	"strings"
	"time"
)

// Type identifies a content collection.
type Type string

// Content collections.
const (
	// TypeBlog holds blog posts.
	TypeBlog Type = "blog"
	// TypeProject holds project writeups.
	TypeProject Type = "project"
	// TypeAboutMe holds the "about me" cards.
	TypeAboutMe Type = "aboutme"
)

// ParseType validates a content type string.
func ParseType(raw string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(raw))) {
	case TypeBlog:
		return TypeBlog, nil
	case TypeProject:
		return TypeProject, nil
	case TypeAboutMe:
		return TypeAboutMe, nil
	default:
		return "", fmt.Errorf("content: unknown type %q", raw)
	}
}

// dirFor maps a content type to its directory under the content root.
func dirFor(t Type) string {
	switch t {
	case TypeBlog:
		return "blogs"
	case TypeProject:
		return "projects"
	case TypeAboutMe:
		return "aboutme"
	default:
		return string(t)
	}
}

// Meta is the frontmatter-derived metadata of one document.
type Meta struct {
	ID          string   `json:"id"`
	Slug        string   `json:"slug"`
	Type        Type     `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Image       string   `json:"image"`
	Date        string   `json:"date,omitempty"`
	Author      string   `json:"author,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// publishedAt parses the frontmatter date for sorting; zero when absent or
// unparseable.
func (m Meta) publishedAt() time.Time {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "January 2, 2006"} {
		if ts, err := time.Parse(layout, m.Date); err == nil {
			return ts
		}
	}
	return time.Time{}
}

// Heading is one entry of a document outline.
type Heading struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
	ID    string `json:"id"`
}

// Document is a fully parsed content file.
type Document struct {
	Meta     Meta      `json:"frontmatter"`
	Markdown string    `json:"markdown_content"`
	HTML     string    `json:"html_content"`
	Headings []Heading `json:"headings"`
	Raw      string    `json:"raw_content"`
}

// Page slices a sorted list for cursor pagination. The cursor is the index of
// the first item of the page; nextCursor is nil on the last page.
func Page(items []Meta, cursor, limit int) ([]Meta, *int) {
	if cursor < 0 {
		cursor = 0
	}
	if limit <= 0 {
		limit = 9
	}
	if cursor >= len(items) {
		return []Meta{}, nil
	}
	end := cursor + limit
	if end >= len(items) {
		return items[cursor:], nil
	}
	next := end
	return items[cursor:end], &next
}
