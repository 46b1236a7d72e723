package application

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	fences "github.com/stefanfritsch/goldmark-fences"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/dfryer1193/artblog/blog/content"
	"github.com/dfryer1193/artblog/blog/domain"
)

const (
	maxLength        = 200
	defaultCodeStyle = "onedark"
)

// MarkdownProcessingResult contains the results of processing a post body
type MarkdownProcessingResult struct {
	Title       string
	Snippet     string
	HTMLContent []byte
}

type relativeLinkTransformer struct {
	domain string
}

// Transform rewrites relative image sources to the mirrored image route and
// relative post links to their public post page.
func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		link, linkOk := n.(*ast.Link)
		img, imgOk := n.(*ast.Image)
		if !linkOk && !imgOk {
			return ast.WalkContinue, nil
		}

		dest := ""
		if linkOk {
			dest = string(link.Destination)
		} else if imgOk {
			dest = string(img.Destination)
		}

		if !isRelativeLink(dest) || strings.HasPrefix(dest, "#") {
			return ast.WalkContinue, nil
		}

		destFile := path.Base(dest)
		if imgOk {
			img.Destination = []byte(t.domain + "/images/" + destFile)
			return ast.WalkContinue, nil
		}

		if strings.HasSuffix(destFile, ".md") || strings.HasSuffix(destFile, ".mdx") {
			slug := strings.TrimSuffix(strings.TrimSuffix(destFile, ".mdx"), ".md")
			link.Destination = []byte(t.domain + "/blog/posts/" + slug + "/")
		}

		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if dest == "" {
		return false
	}

	// Absolute path check
	if strings.HasPrefix(dest, "/") {
		if strings.HasPrefix(dest, "//") {
			return false
		}
		return true
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	if strings.Contains(dest, ":") {
		return false
	}

	return true
}

// anchorIDs generates heading ids the same way the table of contents does, so
// outline links resolve against the rendered page. Repeats are not suffixed.
type anchorIDs struct{}

func (anchorIDs) Generate(value []byte, kind ast.NodeKind) []byte {
	id := content.AnchorID(content.HeadingText(string(value)))
	if id == "" {
		return []byte("heading")
	}
	return []byte(id)
}

func (anchorIDs) Put(value []byte) {}

// MarkdownRenderer defines the interface for converting post bodies to HTML.
type MarkdownRenderer interface {
	Render(postID string, markdown []byte) (*MarkdownProcessingResult, error)
}

type MarkdownRendererImpl struct {
	renderer goldmark.Markdown
}

// NewMarkdownRenderer builds a renderer whose relative links resolve against siteURL.
// An empty codeStyle selects the default chroma style.
func NewMarkdownRenderer(siteURL string, codeStyle string) MarkdownRenderer {
	if codeStyle == "" {
		codeStyle = defaultCodeStyle
	}

	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Footnote,
			highlighting.NewHighlighting(
				highlighting.WithStyle(codeStyle),
				highlighting.WithFormatOptions(chromahtml.TabWidth(2)),
			),
			&fences.Extender{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{domain: strings.TrimSuffix(siteURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
			html.WithXHTML(),
			html.WithUnsafe(),
		),
	)

	return &MarkdownRendererImpl{
		renderer: renderer,
	}
}

// Render normalizes markdown and converts it to HTML. Conversion failures are
// returned as *domain.RenderError.
func (r *MarkdownRendererImpl) Render(postID string, markdown []byte) (*MarkdownProcessingResult, error) {
	body := []byte(content.Normalize(string(markdown)))
	title := extractPostTitle(body)
	snippet := extractSnippet(body)

	var buf bytes.Buffer
	ctx := parser.NewContext(parser.WithIDs(anchorIDs{}))
	if err := r.renderer.Convert(body, &buf, parser.WithContext(ctx)); err != nil {
		return nil, &domain.RenderError{PostID: postID, Err: fmt.Errorf("failed to convert markdown to HTML: %w", err)}
	}

	return &MarkdownProcessingResult{
		Title:       title,
		Snippet:     snippet,
		HTMLContent: buf.Bytes(),
	}, nil
}

// extractPostTitle returns the text of a leading level one heading, or "".
func extractPostTitle(markdown []byte) string {
	lines := strings.SplitN(string(markdown), "\n", 2)
	if len(lines) == 0 {
		return ""
	}

	firstLine := strings.TrimSpace(lines[0])
	title, found := strings.CutPrefix(firstLine, "# ")
	if !found {
		return ""
	}

	return strings.TrimSpace(title)
}

func extractSnippet(markdown []byte) string {
	lines := strings.Split(string(markdown), "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip headings before we find content
		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Stop at code blocks, rules, lists, tables, fenced divs and MDX components
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, ":::") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") ||
			strings.HasPrefix(trimmed, "<") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	if len(snippet) > maxLength {
		snippet = snippet[:maxLength]
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}
