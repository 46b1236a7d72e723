package cli

import (
	"context"
	"fmt"
)

// DraftCmd publishes or unpublishes a post.
type DraftCmd struct {
	Blog  *Blog
	Slug  string
	Draft bool
}

func DraftCommand(blog *Blog, draft bool, args ...string) (*DraftCmd, error) {
	name := "publish"
	if draft {
		name = "unpublish"
	}
	flagset := newFlagSet(blog.Stdout, "blog "+name+" <slug>")
	positional, flags := splitArgs(args)
	if err := flagset.Parse(flags); err != nil {
		return nil, err
	}
	slug, err := requireSlug(flagset, append(positional, flagset.Args()...))
	if err != nil {
		return nil, err
	}
	return &DraftCmd{Blog: blog, Slug: slug, Draft: draft}, nil
}

func (cmd *DraftCmd) Run(ctx context.Context) error {
	post, err := cmd.Blog.Admin.Get(ctx, cmd.Blog.Session, cmd.Slug)
	if err != nil {
		return err
	}

	if post.Draft == cmd.Draft {
		state := "published"
		if post.Draft {
			state = "a draft"
		}
		fmt.Fprintf(cmd.Blog.Stdout, "%s is already %s.\n", post.Title, state)
		return nil
	}

	post, err = cmd.Blog.Admin.ToggleDraft(ctx, cmd.Blog.Session, cmd.Slug)
	if err != nil {
		return err
	}
	if post.Draft {
		fmt.Fprintf(cmd.Blog.Stdout, "Unpublished: %s\n", post.Title)
	} else {
		fmt.Fprintf(cmd.Blog.Stdout, "Published: %s\n", post.Title)
	}
	return nil
}

