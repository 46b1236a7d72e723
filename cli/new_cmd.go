package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/dfryer1193/artblog/blog/application"
)

type NewCmd struct {
	Blog   *Blog
	Title  string
	Tags   []string
	NoEdit bool
}

func NewCommand(blog *Blog, args ...string) (*NewCmd, error) {
	cmd := NewCmd{Blog: blog}
	var tags string
	positional, flags := splitArgs(args)
	flagset := newFlagSet(blog.Stdout, "blog new <title> [-tags a,b] [-no-edit]")
	flagset.StringVar(&tags, "tags", "", "comma separated tags")
	flagset.BoolVar(&cmd.NoEdit, "no-edit", false, "do not open the new post in the editor")
	if err := flagset.Parse(flags); err != nil {
		return nil, err
	}
	positional = append(positional, flagset.Args()...)
	if len(positional) == 0 {
		flagset.Usage()
		return nil, fmt.Errorf("title is required: %w", ErrUsage)
	}
	cmd.Title = strings.Join(positional, " ")
	cmd.Tags = application.ParseTags(tags)
	return &cmd, nil
}

func (cmd *NewCmd) Run(ctx context.Context) error {
	post, err := cmd.Blog.Admin.Create(ctx, cmd.Blog.Session, application.PostInput{
		Title: cmd.Title,
		Tags:  cmd.Tags,
		Body:  "# " + cmd.Title + "\n\nWrite your post here.",
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Blog.Stdout, "Created: %s (%s)\n", post.ID, post.PubDate)

	if cmd.NoEdit {
		return nil
	}
	return editPost(ctx, cmd.Blog, post)
}
