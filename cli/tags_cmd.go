package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfryer1193/artblog/blog/query"
)

// TagsCmd counts tags over every post, drafts included.
type TagsCmd struct {
	Blog *Blog
}

func TagsCommand(blog *Blog, args ...string) (*TagsCmd, error) {
	flagset := newFlagSet(blog.Stdout, "blog tags")
	if err := flagset.Parse(args); err != nil {
		return nil, err
	}
	if flagset.NArg() > 0 {
		flagset.Usage()
		return nil, fmt.Errorf("unexpected arguments: %s: %w", strings.Join(flagset.Args(), " "), ErrUsage)
	}
	return &TagsCmd{Blog: blog}, nil
}

func (cmd *TagsCmd) Run(ctx context.Context) error {
	posts, err := cmd.Blog.Admin.List(ctx, cmd.Blog.Session)
	if err != nil {
		return err
	}

	counts := query.TagCounts(posts)
	if len(counts) == 0 {
		fmt.Fprintln(cmd.Blog.Stdout, "No tags found.")
		return nil
	}
	for _, tc := range counts {
		fmt.Fprintf(cmd.Blog.Stdout, "  %s (%d)\n", tc.Tag, tc.Count)
	}
	return nil
}
