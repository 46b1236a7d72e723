// Package mcp exposes the published posts as MCP tools.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/dfryer1193/artblog/api"
	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/query"
)

const Version = "0.1.0"

type SearchRequest struct {
	Query    string `json:"query"`
	Tag      string `json:"tag"`
	Year     string `json:"year"`
	Category string `json:"category"`
}

type GetPostRequest struct {
	Slug string `json:"slug"`
}

type ListTagsRequest struct{}

// NewServer creates an MCP server with the search_posts, get_post and list_tags tools.
func NewServer(posts *application.PostService) *server.MCPServer {
	s := server.NewMCPServer(
		"artblog",
		Version,
		server.WithToolCapabilities(false),
	)

	searchTool := mcp.NewTool("search_posts",
		mcp.WithDescription("Search the published blog posts. All filters are optional and combine."),
		mcp.WithString("query", mcp.Description("Free text matched against title, description, tags and body")),
		mcp.WithString("tag", mcp.Description("Exact tag the posts must carry")),
		mcp.WithString("year", mcp.Description("Four digit publication year")),
		mcp.WithString("category", mcp.Description("Category label, e.g. 'Process' or 'Theory'")),
	)
	s.AddTool(searchTool, mcp.NewTypedToolHandler(searchHandler(posts)))

	getTool := mcp.NewTool("get_post",
		mcp.WithDescription("Get a published post with its rendered body, table of contents and related posts"),
		mcp.WithString("slug",
			mcp.Required(),
			mcp.Description("The post slug as it appears in /blog/posts/<slug>/"),
		),
	)
	s.AddTool(getTool, mcp.NewTypedToolHandler(getPostHandler(posts)))

	tagsTool := mcp.NewTool("list_tags",
		mcp.WithDescription("List the tags of published posts with their counts, most used first"),
	)
	s.AddTool(tagsTool, mcp.NewTypedToolHandler(listTagsHandler(posts)))

	return s
}

// ServeStdio runs the server over stdin and stdout until the client disconnects.
func ServeStdio(posts *application.PostService) error {
	return server.ServeStdio(NewServer(posts))
}

func searchHandler(posts *application.PostService) func(context.Context, mcp.CallToolRequest, SearchRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args SearchRequest) (*mcp.CallToolResult, error) {
		result, err := posts.List(ctx, query.Criteria{
			Query:    args.Query,
			Tag:      args.Tag,
			Year:     args.Year,
			Category: args.Category,
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to search posts: %v", err)), nil
		}
		return jsonResult(api.FromListResult(result))
	}
}

func getPostHandler(posts *application.PostService) func(context.Context, mcp.CallToolRequest, GetPostRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, args GetPostRequest) (*mcp.CallToolResult, error) {
		if args.Slug == "" {
			return mcp.NewToolResultError("slug is required"), nil
		}

		view, err := posts.Get(ctx, args.Slug)
		if errors.Is(err, domain.ErrNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("post %s not found", args.Slug)), nil
		}
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to get post: %v", err)), nil
		}
		return jsonResult(api.FromView(view))
	}
}

func listTagsHandler(posts *application.PostService) func(context.Context, mcp.CallToolRequest, ListTagsRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, _ mcp.CallToolRequest, _ ListTagsRequest) (*mcp.CallToolResult, error) {
		tags, err := posts.Tags(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to list tags: %v", err)), nil
		}
		return jsonResult(tags)
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	out, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(out)), nil
}
