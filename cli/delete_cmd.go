package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

type DeleteCmd struct {
	Blog *Blog
	Slug string
	Yes  bool
}

func DeleteCommand(blog *Blog, args ...string) (*DeleteCmd, error) {
	cmd := DeleteCmd{Blog: blog}
	flagset := newFlagSet(blog.Stdout, "blog delete <slug> [-yes]")
	flagset.BoolVar(&cmd.Yes, "yes", false, "do not ask for confirmation")
	positional, flags := splitArgs(args)
	if err := flagset.Parse(flags); err != nil {
		return nil, err
	}
	slug, err := requireSlug(flagset, append(positional, flagset.Args()...))
	if err != nil {
		return nil, err
	}
	cmd.Slug = slug
	return &cmd, nil
}

func (cmd *DeleteCmd) Run(ctx context.Context) error {
	post, err := cmd.Blog.Admin.Get(ctx, cmd.Blog.Session, cmd.Slug)
	if err != nil {
		return err
	}

	if !cmd.Yes {
		fmt.Fprintf(cmd.Blog.Stdout, "Are you sure you want to delete %q? [y/N]: ", post.Title)
		answer, err := bufio.NewReader(cmd.Blog.Stdin).ReadString('\n')
		if err != nil && answer == "" {
			return fmt.Errorf("failed to read confirmation: %w", err)
		}
		switch strings.ToLower(strings.TrimSpace(answer)) {
		case "y", "yes":
		default:
			fmt.Fprintln(cmd.Blog.Stdout, "Aborted.")
			return nil
		}
	}

	if err := cmd.Blog.Admin.Delete(ctx, cmd.Blog.Session, cmd.Slug); err != nil {
		return err
	}
	fmt.Fprintf(cmd.Blog.Stdout, "Deleted: %s\n", post.Title)
	return nil
}
