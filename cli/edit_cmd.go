package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/frontmatter"
)

type EditCmd struct {
	Blog *Blog
	Slug string
}

func EditCommand(blog *Blog, args ...string) (*EditCmd, error) {
	flagset := newFlagSet(blog.Stdout, "blog edit <slug>")
	positional, flags := splitArgs(args)
	if err := flagset.Parse(flags); err != nil {
		return nil, err
	}
	slug, err := requireSlug(flagset, append(positional, flagset.Args()...))
	if err != nil {
		return nil, err
	}
	return &EditCmd{Blog: blog, Slug: slug}, nil
}

func (cmd *EditCmd) Run(ctx context.Context) error {
	post, err := cmd.Blog.Admin.Get(ctx, cmd.Blog.Session, cmd.Slug)
	if err != nil {
		return err
	}
	return editPost(ctx, cmd.Blog, post)
}

// editPost opens the post file in place for a local checkout. Otherwise the post
// is edited in a temporary file and written back through the admin service.
func editPost(ctx context.Context, blog *Blog, post *domain.Post) error {
	if blog.LocalDir != "" && post.Path != "" {
		return blog.Edit(filepath.Join(blog.LocalDir, filepath.FromSlash(post.Path)))
	}

	tmp, err := os.CreateTemp("", post.ID+"-*.md")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	original := frontmatter.Format(post)
	if _, err := tmp.WriteString(original); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := blog.Edit(tmp.Name()); err != nil {
		return fmt.Errorf("editor failed: %w", err)
	}

	edited, err := os.ReadFile(tmp.Name())
	if err != nil {
		return fmt.Errorf("failed to read edited file: %w", err)
	}
	if string(edited) == original {
		fmt.Fprintln(blog.Stdout, "No changes.")
		return nil
	}

	p := frontmatter.Parse(post.ID, string(edited))
	updated, err := blog.Admin.Update(ctx, blog.Session, post.ID, application.PostInput{
		Title:       p.Title,
		Description: p.Description,
		PubDate:     p.PubDate,
		Tags:        p.Tags,
		Draft:       &p.Draft,
		Body:        p.Body,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(blog.Stdout, "Updated: %s\n", updated.Title)
	return nil
}
