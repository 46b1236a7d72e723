package application

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfryer1193/artblog/blog/domain"
	"github.com/dfryer1193/artblog/blog/persistence"
	"github.com/dfryer1193/artblog/blog/session"
	"github.com/dfryer1193/artblog/shared/db/sqlite"
)

var testSession = &session.Session{ID: "s1", Token: "token"}

func newTestReplica(t *testing.T) *persistence.SQLitePostRepository {
	t.Helper()
	database := sqlite.NewSQLiteDB(&sqlite.SQLiteConfig{Path: filepath.Join(t.TempDir(), "replica.db")})
	require.NoError(t, database.Connect())
	t.Cleanup(func() { database.Close() })
	return persistence.NewPostRepository(database.DB())
}

func newTestAdminService(t *testing.T, posts ...*domain.Post) (*AdminService, *fakeStore, *persistence.SQLitePostRepository) {
	t.Helper()
	store := newFakeStore(posts...)
	replica := newTestReplica(t)
	svc := NewAdminService(StaticStore(store), replica)
	svc.now = func() time.Time { return time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC) }
	return svc, store, replica
}

func boolPtr(b bool) *bool { return &b }

func TestParseTags(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{name: "nothing", in: nil, want: []string{}},
		{name: "comma list", in: []string{"art, process ,,clay"}, want: []string{"art", "process", "clay"}},
		{name: "separate entries", in: []string{"art", " ", "famu"}, want: []string{"art", "famu"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseTags(tt.in...))
		})
	}
}

func TestAdminService_CreateValidation(t *testing.T) {
	svc, store, _ := newTestAdminService(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		in      PostInput
		wantMsg string
	}{
		{name: "empty title", in: PostInput{Title: "  "}, wantMsg: "Title is required."},
		{name: "title without slug", in: PostInput{Title: "!!!"}, wantMsg: "Title must contain at least one letter or digit."},
		{name: "bad date", in: PostInput{Title: "Ok", PubDate: "May 5"}, wantMsg: "Publication date must be YYYY-MM-DD."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, testSession, tt.in)
			require.ErrorIs(t, err, domain.ErrInvalid)
			assert.EqualError(t, err, tt.wantMsg)
		})
	}
	assert.Zero(t, store.calls(), "validation happens before any store call")
}

func TestAdminService_Create(t *testing.T) {
	svc, store, replica := newTestAdminService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, testSession, PostInput{
		Title: "First Light!",
		Tags:  []string{"process, clay"},
		Body:  "  Hello.  \n",
	})
	require.NoError(t, err)
	assert.Equal(t, "first-light", p.ID)
	assert.Equal(t, "2024-05-06", p.PubDate, "date defaults to today")
	assert.True(t, p.Draft, "new posts are drafts by default")
	assert.Equal(t, []string{"process", "clay"}, p.Tags)
	assert.Equal(t, "Hello.", p.Body)
	assert.Equal(t, []string{"blog: create first-light.md"}, store.messages)

	mirrored, err := replica.GetPost(ctx, "first-light")
	require.NoError(t, err)
	assert.Equal(t, "First Light!", mirrored.Title)

	_, err = svc.Create(ctx, testSession, PostInput{Title: "first light"})
	assert.ErrorIs(t, err, domain.ErrConflict)

	published, err := svc.Create(ctx, testSession, PostInput{Title: "Live", PubDate: "2024-01-01", Draft: boolPtr(false)})
	require.NoError(t, err)
	assert.False(t, published.Draft)
	assert.Equal(t, "2024-01-01", published.PubDate)
}

func TestAdminService_NoSession(t *testing.T) {
	svc, _, _ := newTestAdminService(t)

	_, err := svc.Create(context.Background(), nil, PostInput{Title: "x"})
	assert.ErrorIs(t, err, session.ErrUnauthorized)
}

func TestAdminService_Update(t *testing.T) {
	existing := &domain.Post{
		ID:      "kiln",
		Title:   "Kiln",
		PubDate: "2024-02-02",
		Tags:    []string{"old"},
		Draft:   true,
		Path:    "src/content/posts/kiln.mdx",
		Extra:   []domain.Field{{Key: "cover", Value: "kiln.png"}},
		Body:    "old",
	}
	svc, store, replica := newTestAdminService(t, existing)
	ctx := context.Background()

	p, err := svc.Update(ctx, testSession, "kiln", PostInput{Title: "Kiln Notes", Tags: []string{"new"}, Body: "new"})
	require.NoError(t, err)
	assert.Equal(t, "kiln", p.ID, "slug never changes")
	assert.Equal(t, "Kiln Notes", p.Title)
	assert.Equal(t, "2024-02-02", p.PubDate, "empty date keeps the existing one")
	assert.True(t, p.Draft, "draft state is kept when not given")
	assert.Equal(t, []string{"new"}, p.Tags)
	assert.Equal(t, existing.Extra, p.Extra)
	assert.Equal(t, []string{"blog: update kiln.mdx"}, store.messages)

	mirrored, err := replica.GetPost(ctx, "kiln")
	require.NoError(t, err)
	assert.Equal(t, "new", mirrored.Body)

	_, err = svc.Update(ctx, testSession, "missing", PostInput{Title: "x"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Update(ctx, testSession, "kiln", PostInput{})
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestAdminService_Delete(t *testing.T) {
	svc, store, replica := newTestAdminService(t, &domain.Post{ID: "gone", Title: "Gone", PubDate: "2024-01-01"})
	ctx := context.Background()
	require.NoError(t, replica.UpsertPost(ctx, &domain.Post{ID: "gone", Title: "Gone"}))

	require.NoError(t, svc.Delete(ctx, testSession, "gone"))
	assert.Equal(t, []string{"blog: delete gone.md"}, store.messages)

	_, err := replica.GetPost(ctx, "gone")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, testSession, "gone"), domain.ErrNotFound)
}

func TestAdminService_CancelledAfterWrite(t *testing.T) {
	svc, store, replica := newTestAdminService(t, &domain.Post{ID: "kept", Title: "Kept", PubDate: "2024-01-01"})
	require.NoError(t, replica.UpsertPost(context.Background(), &domain.Post{ID: "kept", Title: "Kept"}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store.afterWrite = cancel

	p, err := svc.Create(ctx, testSession, PostInput{Title: "Late"})
	require.NoError(t, err, "the store accepted the write")
	assert.Equal(t, "late", p.ID)
	_, err = replica.GetPost(context.Background(), "late")
	assert.ErrorIs(t, err, domain.ErrNotFound, "replica is not touched after cancellation")

	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()
	store.afterWrite = cancel

	require.NoError(t, svc.Delete(ctx, testSession, "kept"))
	assert.Equal(t, []string{"blog: create late.md", "blog: delete kept.md"}, store.messages)
}

func TestAdminService_ToggleDraft(t *testing.T) {
	svc, store, _ := newTestAdminService(t, &domain.Post{ID: "p", Title: "P", PubDate: "2024-01-01", Draft: true})
	ctx := context.Background()

	p, err := svc.ToggleDraft(ctx, testSession, "p")
	require.NoError(t, err)
	assert.False(t, p.Draft)

	p, err = svc.ToggleDraft(ctx, testSession, "p")
	require.NoError(t, err)
	assert.True(t, p.Draft)

	assert.Equal(t, []string{"blog: publish p.md", "blog: unpublish p.md"}, store.messages)
}

func TestAdminService_ShiftDate(t *testing.T) {
	svc, store, _ := newTestAdminService(t,
		&domain.Post{ID: "p", Title: "P", PubDate: "2024-03-01"},
		&domain.Post{ID: "undated", Title: "U", PubDate: "someday"},
	)
	ctx := context.Background()

	p, err := svc.ShiftDate(ctx, testSession, "p", -1)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", p.PubDate)

	p, err = svc.ShiftDate(ctx, testSession, "p", 1)
	require.NoError(t, err)
	assert.Equal(t, "2024-03-01", p.PubDate)
	assert.Equal(t, []string{"blog: reorder p.md", "blog: reorder p.md"}, store.messages)

	_, err = svc.ShiftDate(ctx, testSession, "p", 2)
	assert.ErrorIs(t, err, domain.ErrInvalid)

	_, err = svc.ShiftDate(ctx, testSession, "undated", 1)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestAdminService_List(t *testing.T) {
	svc, _, _ := newTestAdminService(t,
		&domain.Post{ID: "a", Title: "A", PubDate: "2023-01-01"},
		&domain.Post{ID: "b", Title: "B", PubDate: "2024-01-01", Draft: true},
	)

	posts, err := svc.List(context.Background(), testSession)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(posts), "drafts are listed for authors")
}

func TestAdminService_StoreFailure(t *testing.T) {
	svc, store, _ := newTestAdminService(t, &domain.Post{ID: "p", Title: "P", PubDate: "2024-01-01"})
	boom := errors.New("transport failure")
	store.failWith = boom

	_, err := svc.ToggleDraft(context.Background(), testSession, "p")
	assert.ErrorIs(t, err, boom)
}

func TestAdminService_StoreFactoryGetsSession(t *testing.T) {
	var got *session.Session
	store := newFakeStore()
	svc := NewAdminService(func(_ context.Context, sess *session.Session) (domain.PostStore, error) {
		got = sess
		return store, nil
	}, nil)

	_, err := svc.List(context.Background(), testSession)
	require.NoError(t, err)
	assert.Same(t, testSession, got)
}
