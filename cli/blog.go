// Package cli implements the blog command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/dfryer1193/artblog/blog/application"
	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/mcp"
)

const usage = `Usage:
  blog new <title> [-tags a,b] [-no-edit]
  blog list [-drafts] [-tag t]
  blog edit <slug>
  blog publish <slug>
  blog unpublish <slug>
  blog delete <slug> [-yes]
  blog shift <slug> <+1|-1>
  blog tags
  blog mcp`

// EditFunc opens path in an editor and returns once the editor exits.
type EditFunc func(path string) error

// Blog is what every command runs against.
type Blog struct {
	Admin   *application.AdminService
	Posts   *application.PostService
	Session *session.Session
	// LocalDir is the checkout root for the local backend. When set, edit opens
	// post files in place.
	LocalDir string
	Edit     EditFunc
	Stdin    io.Reader
	Stdout   io.Writer
}

var ErrUsage = errors.New("usage")

// Run dispatches args to a command.
func Run(ctx context.Context, blog *Blog, args []string) error {
	if blog.Stdout == nil {
		blog.Stdout = os.Stdout
	}
	if blog.Stdin == nil {
		blog.Stdin = os.Stdin
	}
	if blog.Edit == nil {
		blog.Edit = SystemEditor
	}

	if len(args) == 0 {
		fmt.Fprintln(blog.Stdout, usage)
		return ErrUsage
	}

	command, args := args[0], args[1:]
	switch command {
	case "new":
		cmd, err := NewCommand(blog, args...)
		if err != nil {
			return err
		}
		return cmd.Run(ctx)
	case "list":
		cmd, err := ListCommand(blog, args...)
		if err != nil {
			return err
		}
		return cmd.Run(ctx)
	case "edit":
		cmd, err := EditCommand(blog, args...)
		if err != nil {
			return err
		}
		return cmd.Run(ctx)
	case "publish", "unpublish":
		cmd, err := DraftCommand(blog, command == "unpublish", args...)
		if err != nil {
			return err
		}
		return cmd.Run(ctx)
	case "delete":
		cmd, err := DeleteCommand(blog, args...)
		if err != nil {
			return err
		}
		return cmd.Run(ctx)
	case "shift":
		cmd, err := ShiftCommand(blog, args...)
		if err != nil {
			return err
		}
		return cmd.Run(ctx)
	case "tags":
		cmd, err := TagsCommand(blog, args...)
		if err != nil {
			return err
		}
		return cmd.Run(ctx)
	case "mcp":
		if blog.Posts == nil {
			return fmt.Errorf("mcp: no post reader configured")
		}
		return mcp.ServeStdio(blog.Posts)
	default:
		fmt.Fprintln(blog.Stdout, usage)
		return fmt.Errorf("unknown command %q: %w", command, ErrUsage)
	}
}

// SystemEditor runs $EDITOR, falling back to vim, attached to the terminal.
func SystemEditor(path string) error {
	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	cmd := exec.Command(editor, path)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
