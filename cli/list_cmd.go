package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfryer1193/artblog/blog/domain"
)

type ListCmd struct {
	Blog   *Blog
	Drafts bool
	Tag    string
}

func ListCommand(blog *Blog, args ...string) (*ListCmd, error) {
	cmd := ListCmd{Blog: blog}
	flagset := newFlagSet(blog.Stdout, "blog list [-drafts] [-tag t]")
	flagset.BoolVar(&cmd.Drafts, "drafts", false, "only show drafts")
	flagset.StringVar(&cmd.Tag, "tag", "", "only show posts with this tag")
	if err := flagset.Parse(args); err != nil {
		return nil, err
	}
	if flagset.NArg() > 0 {
		flagset.Usage()
		return nil, fmt.Errorf("unexpected arguments: %s: %w", strings.Join(flagset.Args(), " "), ErrUsage)
	}
	return &cmd, nil
}

func (cmd *ListCmd) Run(ctx context.Context) error {
	posts, err := cmd.Blog.Admin.List(ctx, cmd.Blog.Session)
	if err != nil {
		return err
	}

	shown := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if cmd.Drafts && !p.Draft {
			continue
		}
		if cmd.Tag != "" && !p.HasTag(cmd.Tag) {
			continue
		}
		shown = append(shown, p)
	}

	if len(shown) == 0 {
		fmt.Fprintln(cmd.Blog.Stdout, "No posts found.")
		return nil
	}

	for _, p := range shown {
		marker := ""
		if p.Draft {
			marker = " [DRAFT]"
		}
		pub := p.PubDate
		if pub == "" {
			pub = "?"
		}
		fmt.Fprintf(cmd.Blog.Stdout, "  %s  %s%s\n", pub, p.Title, marker)
		if len(p.Tags) > 0 {
			fmt.Fprintf(cmd.Blog.Stdout, "          tags: %s\n", strings.Join(p.Tags, ", "))
		}
		fmt.Fprintf(cmd.Blog.Stdout, "          slug: %s\n", p.ID)
	}
	return nil
}
