package application

import (
	"errors"
	"strings"
	"testing"

	"github.com/dfryer1193/artblog/blog/domain"
)

const testSiteURL = "https://art.example.com"

func TestExtractPostTitle(t *testing.T) {
	tests := []struct {
		name     string
		markdown []byte
		expected string
	}{
		{
			name:     "Valid title",
			markdown: []byte("# My Blog Post\nSome content"),
			expected: "My Blog Post",
		},
		{
			name:     "Title with extra spaces",
			markdown: []byte("#   Title with spaces   \nContent"),
			expected: "Title with spaces",
		},
		{
			name:     "No title",
			markdown: []byte("Some content without title"),
			expected: "",
		},
		{
			name:     "Empty markdown",
			markdown: []byte(""),
			expected: "",
		},
		{
			name:     "Second level heading is not a title",
			markdown: []byte("## Section\nContent"),
			expected: "",
		},
		{
			name:     "Hash without space",
			markdown: []byte("#NoSpace\nContent"),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractPostTitle(tt.markdown)
			if result != tt.expected {
				t.Errorf("extractPostTitle() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestExtractSnippet(t *testing.T) {
	tests := []struct {
		name     string
		markdown []byte
		expected string
	}{
		{
			name:     "First paragraph after title",
			markdown: []byte("# Title\nThis is the first paragraph\n\nMore content"),
			expected: "This is the first paragraph",
		},
		{
			name:     "Multi-line first paragraph",
			markdown: []byte("# Title\nFirst line of paragraph.\nSecond line of paragraph.\n\nSecond paragraph"),
			expected: "First line of paragraph. Second line of paragraph.",
		},
		{
			name:     "Multiple headings",
			markdown: []byte("# Title\n## Subtitle\nFirst paragraph content"),
			expected: "First paragraph content",
		},
		{
			name:     "Stop at code block",
			markdown: []byte("# Title\nFirst paragraph\n```\ncode\n```"),
			expected: "First paragraph",
		},
		{
			name:     "Skip leading component",
			markdown: []byte("<CodePlayground />\n\nThe sketch above draws circles."),
			expected: "The sketch above draws circles.",
		},
		{
			name:     "Stop at fenced div",
			markdown: []byte("Intro text\n::: {.gallery}\nimg\n:::"),
			expected: "Intro text",
		},
		{
			name:     "Truncate long paragraph",
			markdown: []byte("# Title\nThis is a very long paragraph that exceeds the maximum length limit and should be truncated at a word boundary to ensure that the snippet looks clean and professional without cutting words in the middle which would look unprofessional."),
			expected: "This is a very long paragraph that exceeds the maximum length limit and should be truncated at a word boundary to ensure that the snippet looks clean and professional without cutting words in the...",
		},
		{
			name:     "Only title, no content",
			markdown: []byte("# Title"),
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractSnippet(tt.markdown)
			if result != tt.expected {
				t.Errorf("extractSnippet() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestMarkdownRendererImpl_Render(t *testing.T) {
	renderer := NewMarkdownRenderer(testSiteURL, "")

	tests := []struct {
		name           string
		markdown       string
		expectedTitle  string
		expectedSnip   string
		expectedInHTML []string
		notInHTML      []string
	}{
		{
			name:          "Basic markdown rendering",
			markdown:      "# Hello World\nThis is a test paragraph.\n\nSome **bold** text",
			expectedTitle: "Hello World",
			expectedSnip:  "This is a test paragraph.",
			expectedInHTML: []string{
				"<strong>bold</strong>",
			},
		},
		{
			name:         "Header and imports are stripped",
			markdown:     "---\ntitle: \"x\"\n---\n\nimport Foo from \"./foo\"\n\nHello",
			expectedSnip: "Hello",
			expectedInHTML: []string{
				"<p>Hello</p>",
			},
			notInHTML: []string{
				"import Foo",
				"title:",
			},
		},
		{
			name:     "Heading ids match the table of contents",
			markdown: "## The *Wild* Part\n\n### Notes & Sketches",
			expectedInHTML: []string{
				`id="the-wild-part"`,
				`id="notes-sketches"`,
			},
		},
		{
			name:     "Repeated headings share an id",
			markdown: "## Notes\n\n## Notes",
			expectedInHTML: []string{
				`<h2 id="notes">Notes</h2>`,
			},
			notInHTML: []string{
				`id="notes-1"`,
			},
		},
		{
			name:     "Code is highlighted",
			markdown: "```go\nfunc main() {}\n```",
			expectedInHTML: []string{
				"<pre",
				"func",
			},
		},
		{
			name:     "GFM table",
			markdown: "| Col1 | Col2 |\n|------|------|\n| A    | B    |",
			expectedInHTML: []string{
				"<table>",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderer.Render("post", []byte(tt.markdown))
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}

			if result.Title != tt.expectedTitle {
				t.Errorf("Title = %q, want %q", result.Title, tt.expectedTitle)
			}
			if result.Snippet != tt.expectedSnip {
				t.Errorf("Snippet = %q, want %q", result.Snippet, tt.expectedSnip)
			}

			html := string(result.HTMLContent)
			for _, expected := range tt.expectedInHTML {
				if !strings.Contains(html, expected) {
					t.Errorf("Expected HTML to contain %q, got:\n%s", expected, html)
				}
			}
			for _, notExpected := range tt.notInHTML {
				if strings.Contains(html, notExpected) {
					t.Errorf("Expected HTML NOT to contain %q, got:\n%s", notExpected, html)
				}
			}
		})
	}
}

func TestNewMarkdownRenderer(t *testing.T) {
	renderer := NewMarkdownRenderer(testSiteURL, "monokai")
	if renderer == nil {
		t.Fatal("NewMarkdownRenderer returned nil")
	}

	impl, ok := renderer.(*MarkdownRendererImpl)
	if !ok {
		t.Fatal("NewMarkdownRenderer did not return *MarkdownRendererImpl")
	}

	if impl.renderer == nil {
		t.Error("renderer is nil")
	}
}

func TestIsRelativeLink(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected bool
	}{
		{name: "Absolute HTTPS URL", url: "https://example.com/page", expected: false},
		{name: "Protocol-relative URL", url: "//example.com/page", expected: false},
		{name: "Mailto link", url: "mailto:user@example.com", expected: false},
		{name: "Data URI", url: "data:image/png;base64,iVBOR...", expected: false},
		{name: "Absolute path", url: "/about/contact", expected: true},
		{name: "Relative path with ./", url: "./images/photo.jpg", expected: true},
		{name: "Relative path with ../", url: "../docs/readme.md", expected: true},
		{name: "Simple filename", url: "image.png", expected: true},
		{name: "Empty string", url: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := isRelativeLink(tt.url)
			if result != tt.expected {
				t.Errorf("isRelativeLink(%q) = %v, want %v", tt.url, result, tt.expected)
			}
		})
	}
}

func TestRelativeLinkTransformer(t *testing.T) {
	renderer := NewMarkdownRenderer(testSiteURL+"/", "")

	tests := []struct {
		name           string
		markdown       string
		expectedInHTML []string
		notInHTML      []string
	}{
		{
			name:     "Relative image points at mirrored images",
			markdown: "![Sketch](../images/sketch.png)",
			expectedInHTML: []string{
				`src="https://art.example.com/images/sketch.png"`,
			},
		},
		{
			name:     "Link to another post file",
			markdown: "[Earlier](./field-notes.mdx) and [later](later.md)",
			expectedInHTML: []string{
				`href="https://art.example.com/blog/posts/field-notes/"`,
				`href="https://art.example.com/blog/posts/later/"`,
			},
		},
		{
			name:     "Site paths and anchors left alone",
			markdown: "[About](/about/) and [Jump](#notes)",
			expectedInHTML: []string{
				`href="/about/"`,
				`href="#notes"`,
			},
		},
		{
			name:     "External links left alone",
			markdown: "[Docs](https://example.com/a.md)",
			expectedInHTML: []string{
				`href="https://example.com/a.md"`,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := renderer.Render("post", []byte(tt.markdown))
			if err != nil {
				t.Fatalf("Render failed: %v", err)
			}

			html := string(result.HTMLContent)
			for _, expected := range tt.expectedInHTML {
				if !strings.Contains(html, expected) {
					t.Errorf("Expected HTML to contain %q, got:\n%s", expected, html)
				}
			}
			for _, notExpected := range tt.notInHTML {
				if strings.Contains(html, notExpected) {
					t.Errorf("Expected HTML NOT to contain %q, got:\n%s", notExpected, html)
				}
			}
		})
	}
}

func TestRenderErrorType(t *testing.T) {
	err := error(&domain.RenderError{PostID: "x", Err: errors.New("boom")})
	var renderErr *domain.RenderError
	if !errors.As(err, &renderErr) {
		t.Fatal("expected errors.As to find RenderError")
	}
	if renderErr.PostID != "x" {
		t.Errorf("PostID = %q, want %q", renderErr.PostID, "x")
	}
}
