package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/artblog/api"
	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/persistence"
	"github.com/dfryer1193/artblog/blog/query"
	"github.com/dfryer1193/artblog/shared/db/sqlite"
)

func newTestPosts(t *testing.T) *application.PostService {
	t.Helper()

	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "mcp.db")})
	require.NoError(t, database.Connect())
	t.Cleanup(func() { database.Close() })

	repo := persistence.NewPostRepository(database.DB())
	for _, p := range []*domain.Post{
		{ID: "kiln-notes", Title: "Kiln Notes", PubDate: "2024-03-01", Tags: []string{"process", "ceramics"}, Body: "## Loading\nShelves.\n\n## Firing\nCone 6."},
		{ID: "glaze-chemistry", Title: "Glaze Chemistry", PubDate: "2023-02-10", Tags: []string{"ceramics", "research"}, Body: "Silica."},
		{ID: "unfinished", Title: "Unfinished", PubDate: "2024-04-01", Tags: []string{"process"}, Draft: true},
	} {
		require.NoError(t, repo.UpsertPost(context.Background(), p))
	}

	return application.NewPostService(repo, application.NewMarkdownRenderer("https://art.example.com", "onedark"), nil)
}

func callRequest(name string, args any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Request: mcp.Request{Method: "tools/call"},
		Params:  mcp.CallToolParams{Name: name, Arguments: args},
	}
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.Len(t, result.Content, 1)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", result.Content[0])
	return text.Text
}

func TestNewServer(t *testing.T) {
	require.NotNil(t, NewServer(newTestPosts(t)))
}

func TestSearchHandler(t *testing.T) {
	handler := searchHandler(newTestPosts(t))

	tests := []struct {
		name string
		args SearchRequest
		want []string
	}{
		{name: "everything published", args: SearchRequest{}, want: []string{"kiln-notes", "glaze-chemistry"}},
		{name: "by year", args: SearchRequest{Year: "2023"}, want: []string{"glaze-chemistry"}},
		{name: "by category", args: SearchRequest{Category: "Process"}, want: []string{"kiln-notes"}},
		{name: "by text", args: SearchRequest{Query: "silica"}, want: []string{"glaze-chemistry"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handler(context.Background(), callRequest("search_posts", tt.args), tt.args)
			require.NoError(t, err)
			assert.False(t, result.IsError)

			var list api.PostList
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &list))
			got := make([]string, 0, len(list.Posts))
			for _, p := range list.Posts {
				got = append(got, p.Slug)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetPostHandler(t *testing.T) {
	handler := getPostHandler(newTestPosts(t))

	args := GetPostRequest{Slug: "kiln-notes"}
	result, err := handler(context.Background(), callRequest("get_post", args), args)
	require.NoError(t, err)
	require.False(t, result.IsError)

	var detail api.PostDetail
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &detail))
	assert.Equal(t, "Kiln Notes", detail.Title)
	assert.Contains(t, detail.HTML, "Cone 6.")
	require.Len(t, detail.Related, 1)
	assert.Equal(t, "glaze-chemistry", detail.Related[0].Slug)

	for _, slug := range []string{"unfinished", "missing", ""} {
		args := GetPostRequest{Slug: slug}
		result, err := handler(context.Background(), callRequest("get_post", args), args)
		require.NoError(t, err)
		assert.True(t, result.IsError, slug)
	}
}

func TestListTagsHandler(t *testing.T) {
	handler := listTagsHandler(newTestPosts(t))

	result, err := handler(context.Background(), callRequest("list_tags", nil), ListTagsRequest{})
	require.NoError(t, err)

	var tags []query.TagCount
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &tags))
	assert.Equal(t, []query.TagCount{
		{Tag: "ceramics", Count: 2},
		{Tag: "process", Count: 1},
		{Tag: "research", Count: 1},
	}, tags)
}
