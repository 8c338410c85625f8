package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeContentFile(t *testing.T, root, dir, slug, body string) {
	t.Helper()
	full := filepath.Join(root, dir)
	if errMkdir := os.MkdirAll(full, 0o755); errMkdir != nil {
		t.Fatalf("mkdir %s: %v", full, errMkdir)
	}
	if errWrite := os.WriteFile(filepath.Join(full, slug+".md"), []byte(body), 0o644); errWrite != nil {
		t.Fatalf("write %s: %v", slug, errWrite)
	}
}

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	root := t.TempDir()

	writeContentFile(t, root, "blogs", "first-post", `---
title: First Post
description: The earliest entry
date: "2024-01-10"
tags:
  - go
  - testing
---

# Introduction

Hello world.

## Details

More text here.
`)
	writeContentFile(t, root, "blogs", "second-post", `---
title: Second Post
description: A newer entry
date: "2024-03-05"
---

Body of the second post.
`)
	writeContentFile(t, root, "projects", "side-project", `---
title: Side Project
description: A weekend build
tags:
  - go
---

Project writeup.
`)

	repo, errNew := NewRepository(root)
	if errNew != nil {
		t.Fatalf("new repository: %v", errNew)
	}
	return repo
}

func TestListByTypeSortsNewestFirst(t *testing.T) {
	repo := newTestRepository(t)

	metas, errList := repo.ListByType(TypeBlog)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(metas) != 2 {
		t.Fatalf("expected 2 blogs, got %d", len(metas))
	}
	if metas[0].Slug != "second-post" || metas[1].Slug != "first-post" {
		t.Fatalf("expected newest first, got %q then %q", metas[0].Slug, metas[1].Slug)
	}
	if metas[0].Title != "Second Post" {
		t.Fatalf("unexpected title %q", metas[0].Title)
	}
}

func TestListByTypeMissingDirIsEmpty(t *testing.T) {
	repo := newTestRepository(t)

	metas, errList := repo.ListByType(TypeAboutMe)
	if errList != nil {
		t.Fatalf("list: %v", errList)
	}
	if len(metas) != 0 {
		t.Fatalf("expected no aboutme entries, got %d", len(metas))
	}
}

func TestGetBySlugRendersDocument(t *testing.T) {
	repo := newTestRepository(t)

	doc, errGet := repo.GetBySlug(TypeBlog, "first-post")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if doc.Meta.Title != "First Post" {
		t.Fatalf("unexpected title %q", doc.Meta.Title)
	}
	if len(doc.Meta.Tags) != 2 {
		t.Fatalf("unexpected tags %v", doc.Meta.Tags)
	}
	if !strings.Contains(doc.HTML, "<h1") || !strings.Contains(doc.HTML, "Hello world.") {
		t.Fatalf("unexpected html: %s", doc.HTML)
	}
	if strings.Contains(doc.Markdown, "title: First Post") {
		t.Fatal("markdown body must not include frontmatter")
	}
	if !strings.HasPrefix(doc.Raw, "---") {
		t.Fatal("raw content must include frontmatter")
	}
}

func TestGetBySlugExtractsHeadings(t *testing.T) {
	repo := newTestRepository(t)

	doc, errGet := repo.GetBySlug(TypeBlog, "first-post")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}
	if len(doc.Headings) != 2 {
		t.Fatalf("expected 2 headings, got %+v", doc.Headings)
	}
	if doc.Headings[0].Level != 1 || doc.Headings[0].Text != "Introduction" {
		t.Fatalf("unexpected first heading %+v", doc.Headings[0])
	}
	if doc.Headings[1].ID == "" {
		t.Fatal("expected auto heading id")
	}
}

func TestGetBySlugUnknownIsNotFound(t *testing.T) {
	repo := newTestRepository(t)

	if _, errGet := repo.GetBySlug(TypeBlog, "missing"); errGet == nil {
		t.Fatal("expected error for unknown slug")
	}
}

func TestInvalidateDropsCache(t *testing.T) {
	repo := newTestRepository(t)

	doc, errGet := repo.GetBySlug(TypeBlog, "first-post")
	if errGet != nil {
		t.Fatalf("get: %v", errGet)
	}

	writeContentFile(t, repo.Root(), "blogs", "first-post", `---
title: Rewritten
---

Changed.
`)

	cached, _ := repo.GetBySlug(TypeBlog, "first-post")
	if cached.Meta.Title != doc.Meta.Title {
		t.Fatal("expected cached document before invalidation")
	}

	repo.Invalidate()

	fresh, errFresh := repo.GetBySlug(TypeBlog, "first-post")
	if errFresh != nil {
		t.Fatalf("get after invalidate: %v", errFresh)
	}
	if fresh.Meta.Title != "Rewritten" {
		t.Fatalf("expected reparsed document, got title %q", fresh.Meta.Title)
	}
}

func TestPageCursorPagination(t *testing.T) {
	items := make([]Meta, 5)
	for i := range items {
		items[i] = Meta{Slug: string(rune('a' + i))}
	}

	page, next := Page(items, 0, 2)
	if len(page) != 2 || next == nil || *next != 2 {
		t.Fatalf("unexpected first page: %d items, next %v", len(page), next)
	}

	page, next = Page(items, *next, 2)
	if len(page) != 2 || next == nil || *next != 4 {
		t.Fatalf("unexpected second page: %d items, next %v", len(page), next)
	}

	page, next = Page(items, *next, 2)
	if len(page) != 1 || next != nil {
		t.Fatalf("unexpected last page: %d items, next %v", len(page), next)
	}

	page, next = Page(items, 99, 2)
	if len(page) != 0 || next != nil {
		t.Fatalf("unexpected overflow page: %d items, next %v", len(page), next)
	}
}

func TestParseTypeValidation(t *testing.T) {
	for _, raw := range []string{"blog", "Project", " ABOUTME "} {
		if _, errParse := ParseType(raw); errParse != nil {
			t.Fatalf("ParseType(%q): %v", raw, errParse)
		}
	}
	if _, errParse := ParseType("podcast"); errParse == nil {
		t.Fatal("expected error for unknown type")
	}
}
