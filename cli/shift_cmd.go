package cli

import (
	"context"
	"fmt"
	"strconv"
)

type ShiftCmd struct {
	Blog *Blog
	Slug string
	Days int
}

func ShiftCommand(blog *Blog, args ...string) (*ShiftCmd, error) {
	flagset := newFlagSet(blog.Stdout, "blog shift <slug> <+1|-1>")
	positional, flags := splitArgs(args)
	if err := flagset.Parse(flags); err != nil {
		return nil, err
	}
	positional = append(positional, flagset.Args()...)
	if len(positional) != 2 {
		flagset.Usage()
		return nil, fmt.Errorf("expected a slug and +1 or -1: %w", ErrUsage)
	}

	days, err := strconv.Atoi(positional[1])
	if err != nil {
		return nil, fmt.Errorf("invalid day offset %q: %w", positional[1], ErrUsage)
	}
	return &ShiftCmd{Blog: blog, Slug: positional[0], Days: days}, nil
}

func (cmd *ShiftCmd) Run(ctx context.Context) error {
	post, err := cmd.Blog.Admin.ShiftDate(ctx, cmd.Blog.Session, cmd.Slug, cmd.Days)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Blog.Stdout, "Moved %s to %s\n", post.Title, post.PubDate)
	return nil
}
