package assistant

import (
	"fmt"
	"strings"

	"github.com/Criztiandev/criztiandev-blogs/internal/content"
)

// BlogPreamble builds the system turn for a chat scoped to one blog post.
func BlogPreamble(title, body string) string {
	var sb strings.Builder
	sb.WriteString("You are an experienced blog writer with a semi-casual style. ")
	sb.WriteString("Use layman's terms for complex words, give easy examples and use cases, and keep a non-biased point of view. ")
	sb.WriteString("You're helping the user understand a blog post")
	if title != "" {
		fmt.Fprintf(&sb, " titled %q", title)
	}
	sb.WriteString(". Here is the blog content for context:\n\n")
	sb.WriteString(body)
	sb.WriteString("\n\nAnswer questions about this blog post, provide summaries, explain concepts, ")
	sb.WriteString("and help the user understand the content better. Be concise and helpful. ")
	sb.WriteString("Do not go out of scope of the content and the topic.")
	return sb.String()
}

// PortfolioPreamble builds the system turn for the site-wide assistant from
// the content repository: about cards in full, projects and blogs as
// summaries only, to keep the context small.
func PortfolioPreamble(repo *content.Repository) (string, error) {
	about, err := aboutSection(repo)
	if err != nil {
		return "", err
	}
	projects, err := listSection(repo, content.TypeProject, "/projects/")
	if err != nil {
		return "", err
	}
	blogs, err := listSection(repo, content.TypeBlog, "/blogs/")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# ABOUT THE AUTHOR\n\n")
	sb.WriteString(about)
	sb.WriteString("\n\n---\n\n# PROJECTS\n\n")
	sb.WriteString(projects)
	sb.WriteString("\n\n---\n\n# BLOG POSTS\n\n")
	sb.WriteString(blogs)
	sb.WriteString("\n\n---\n\n# YOUR ROLE\n\n")
	sb.WriteString("You are Polar, the portfolio assistant. Answer questions about the portfolio data above only ")
	sb.WriteString("(projects, blogs, skills, experience). Politely redirect off-topic questions. ")
	sb.WriteString("When asked about projects using a specific technology, search the Tech fields and list every match with its link. ")
	sb.WriteString("For detailed blog discussions, point the user to the blog page and its chat. ")
	sb.WriteString("Be conversational, helpful, and concise.")
	return sb.String(), nil
}

// aboutSection concatenates every about card body.
func aboutSection(repo *content.Repository) (string, error) {
	metas, err := repo.ListByType(content.TypeAboutMe)
	if err != nil {
		return "", err
	}
	parts := make([]string, 0, len(metas))
	for _, meta := range metas {
		doc, errGet := repo.GetBySlug(content.TypeAboutMe, meta.Slug)
		if errGet != nil {
			return "", errGet
		}
		parts = append(parts, strings.TrimSpace(doc.Markdown))
	}
	if len(parts) == 0 {
		return "(no about content)", nil
	}
	return strings.Join(parts, "\n\n"), nil
}

// listSection renders one summary line per document.
func listSection(repo *content.Repository, t content.Type, linkPrefix string) (string, error) {
	metas, err := repo.ListByType(t)
	if err != nil {
		return "", err
	}
	if len(metas) == 0 {
		return "(none)", nil
	}
	var sb strings.Builder
	for _, meta := range metas {
		fmt.Fprintf(&sb, "- %s: %s", meta.Title, meta.Description)
		if len(meta.Tags) > 0 {
			fmt.Fprintf(&sb, " (Tech: %s)", strings.Join(meta.Tags, ", "))
		}
		fmt.Fprintf(&sb, " [%s%s]\n", linkPrefix, meta.Slug)
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}
