package application

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dfryer1193/artblog/blog/content"
	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/query"
	"github.com/dfryer1193/artblog/blog/session"
)

// StoreFactory resolves the post store an authoring session writes to. For the
// hosted file backend it builds a client scoped to the session's credential.
type StoreFactory func(ctx context.Context, sess *session.Session) (domain.PostStore, error)

// StaticStore is a StoreFactory for backends that do not act with the session's credential.
func StaticStore(store domain.PostStore) StoreFactory {
	return func(context.Context, *session.Session) (domain.PostStore, error) {
		return store, nil
	}
}

// PostInput is the editable part of a post.
type PostInput struct {
	Title       string
	Description string
	PubDate     string
	// Tags may hold comma separated lists; they are split and trimmed.
	Tags []string
	// Draft defaults to true on create and to the current state on update.
	Draft *bool
	Body  string
}

// AdminService implements the authoring operations. Every operation validates its
// input before touching a store and is applied whole or not at all.
type AdminService struct {
	stores  StoreFactory
	replica domain.PostRepository
	now     func() time.Time
}

// NewAdminService creates an AdminService. replica may be nil when the store is
// itself the read store.
func NewAdminService(stores StoreFactory, replica domain.PostRepository) *AdminService {
	return &AdminService{
		stores:  stores,
		replica: replica,
		now:     time.Now,
	}
}

// ParseTags splits a comma separated tag list, dropping empty entries.
func ParseTags(raw ...string) []string {
	tags := make([]string, 0)
	for _, r := range raw {
		for _, t := range strings.Split(r, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

func validateInput(in PostInput) error {
	var verr domain.ValidationError
	if strings.TrimSpace(in.Title) == "" {
		verr.Add("title", "Title is required.")
	} else if content.Slugify(in.Title) == "" {
		verr.Add("title", "Title must contain at least one letter or digit.")
	}
	if in.PubDate != "" {
		if _, err := time.Parse(domain.DateLayout, in.PubDate); err != nil {
			verr.Add("pubDate", "Publication date must be YYYY-MM-DD.")
		}
	}
	return verr.Err()
}

func (s *AdminService) store(ctx context.Context, sess *session.Session) (domain.PostStore, error) {
	if sess == nil {
		return nil, fmt.Errorf("no session: %w", session.ErrUnauthorized)
	}
	store, err := s.stores(ctx, sess)
	if err != nil {
		return nil, fmt.Errorf("failed to open post store: %w", err)
	}
	return store, nil
}

// List returns every post, drafts included, newest first.
func (s *AdminService) List(ctx context.Context, sess *session.Session) ([]*domain.Post, error) {
	store, err := s.store(ctx, sess)
	if err != nil {
		return nil, err
	}

	posts, err := store.ListPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	query.SortByDate(posts)
	return posts, nil
}

// Get returns a post for editing, drafts included.
func (s *AdminService) Get(ctx context.Context, sess *session.Session, id string) (*domain.Post, error) {
	store, err := s.store(ctx, sess)
	if err != nil {
		return nil, err
	}
	return store.GetPost(ctx, id)
}

// Create adds a post whose slug is derived from its title. The slug must be free.
func (s *AdminService) Create(ctx context.Context, sess *session.Session, in PostInput) (*domain.Post, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	store, err := s.store(ctx, sess)
	if err != nil {
		return nil, err
	}

	p := &domain.Post{
		ID:          content.Slugify(in.Title),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		PubDate:     in.PubDate,
		Tags:        ParseTags(in.Tags...),
		Draft:       true,
		Body:        strings.TrimSpace(in.Body),
	}
	if p.PubDate == "" {
		p.PubDate = s.now().Format(domain.DateLayout)
	}
	if in.Draft != nil {
		p.Draft = *in.Draft
	}

	if err := store.CreatePost(ctx, p, commitMessage("create", p)); err != nil {
		return nil, fmt.Errorf("failed to create post %s: %w", p.ID, err)
	}
	s.applied(ctx, p)
	return p, nil
}

// Update replaces the editable fields of an existing post. The slug never changes.
func (s *AdminService) Update(ctx context.Context, sess *session.Session, id string, in PostInput) (*domain.Post, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	store, err := s.store(ctx, sess)
	if err != nil {
		return nil, err
	}

	p, err := store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Title = strings.TrimSpace(in.Title)
	p.Description = strings.TrimSpace(in.Description)
	p.Tags = ParseTags(in.Tags...)
	p.Body = strings.TrimSpace(in.Body)
	if in.PubDate != "" {
		p.PubDate = in.PubDate
	}
	if in.Draft != nil {
		p.Draft = *in.Draft
	}

	if err := store.UpdatePost(ctx, p, commitMessage("update", p)); err != nil {
		return nil, fmt.Errorf("failed to update post %s: %w", id, err)
	}
	s.applied(ctx, p)
	return p, nil
}

// Delete removes a post from the store and the read replica.
func (s *AdminService) Delete(ctx context.Context, sess *session.Session, id string) error {
	store, err := s.store(ctx, sess)
	if err != nil {
		return err
	}

	p, err := store.GetPost(ctx, id)
	if err != nil {
		return err
	}

	if err := store.DeletePost(ctx, p, commitMessage("delete", p)); err != nil {
		return fmt.Errorf("failed to delete post %s: %w", id, err)
	}
	if s.replica == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Str("postID", id).Msg("Skipping replica removal after cancellation")
		return nil
	}
	if err := s.replica.DeletePost(ctx, id); err != nil {
		log.Error().Err(err).Str("postID", id).Msg("Failed to remove post from replica")
	}
	return nil
}

// ToggleDraft publishes a draft or unpublishes a published post.
func (s *AdminService) ToggleDraft(ctx context.Context, sess *session.Session, id string) (*domain.Post, error) {
	store, err := s.store(ctx, sess)
	if err != nil {
		return nil, err
	}

	p, err := store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	p.Draft = !p.Draft
	action := "publish"
	if p.Draft {
		action = "unpublish"
	}

	if err := store.UpdatePost(ctx, p, commitMessage(action, p)); err != nil {
		return nil, fmt.Errorf("failed to %s post %s: %w", action, id, err)
	}
	s.applied(ctx, p)
	return p, nil
}

// ShiftDate moves a post's publication date one day forward or back.
func (s *AdminService) ShiftDate(ctx context.Context, sess *session.Session, id string, days int) (*domain.Post, error) {
	if days != 1 && days != -1 {
		var verr domain.ValidationError
		verr.Add("days", "Date can only be shifted by one day.")
		return nil, verr.Err()
	}
	store, err := s.store(ctx, sess)
	if err != nil {
		return nil, err
	}

	p, err := store.GetPost(ctx, id)
	if err != nil {
		return nil, err
	}

	t, ok := p.PubTime()
	if !ok {
		var verr domain.ValidationError
		verr.Add("pubDate", fmt.Sprintf("Post %s has no valid publication date.", id))
		return nil, verr.Err()
	}
	p.PubDate = t.AddDate(0, 0, days).Format(domain.DateLayout)

	if err := store.UpdatePost(ctx, p, commitMessage("reorder", p)); err != nil {
		return nil, fmt.Errorf("failed to shift date of post %s: %w", id, err)
	}
	s.applied(ctx, p)
	return p, nil
}

// applied mirrors a successful write into the read replica. The write has
// already landed, so a cancelled context or a replica failure is only logged.
func (s *AdminService) applied(ctx context.Context, p *domain.Post) {
	if s.replica == nil {
		return
	}
	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Str("postID", p.ID).Msg("Skipping replica update after cancellation")
		return
	}

	p.UpdatedAt = s.now().UTC()
	if err := s.replica.UpsertPost(ctx, p); err != nil {
		log.Error().Err(err).Str("postID", p.ID).Msg("Failed to update replica after write")
	}
}

func commitMessage(action string, p *domain.Post) string {
	name := p.ID + ".md"
	if p.Path != "" {
		name = path.Base(p.Path)
	}
	return "blog: " + action + " " + name
}
