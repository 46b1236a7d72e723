package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dfryer1193/artblog/blog/domain"
)

// DefaultMongoCollection holds one document per post, keyed by slug.
const DefaultMongoCollection = "posts"

var _ domain.PostStore = (*MongoPostStore)(nil)

// MongoPostStore keeps posts as documents in a hosted MongoDB collection.
type MongoPostStore struct {
	coll *mongo.Collection
}

func NewMongoPostStore(coll *mongo.Collection) *MongoPostStore {
	return &MongoPostStore{coll: coll}
}

// ConnectMongo opens a client and pings the primary.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

func (s *MongoPostStore) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	opts := options.Find().SetSort(bson.D{{Key: "pub_date", Value: -1}, {Key: "_id", Value: 1}})
	cursor, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode posts: %w", err)
	}

	posts := make([]*domain.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toDomain())
	}
	return posts, nil
}

func (s *MongoPostStore) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	var doc postDocument
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("post %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return doc.toDomain(), nil
}

func (s *MongoPostStore) CreatePost(ctx context.Context, p *domain.Post, _ string) error {
	if err := validatePost(p); err != nil {
		return err
	}

	now := time.Now().UTC()
	p.CreatedAt, p.UpdatedAt = now, now

	_, err := s.coll.InsertOne(ctx, newPostDocument(p))
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("post %s already exists: %w", p.ID, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", err)
	}
	return nil
}

// UpdatePost replaces the stored document. Document stores carry no version, so the
// last write wins.
func (s *MongoPostStore) UpdatePost(ctx context.Context, p *domain.Post, _ string) error {
	if err := validatePost(p); err != nil {
		return err
	}

	existing, err := s.GetPost(ctx, p.ID)
	if err != nil {
		return err
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()

	res, err := s.coll.ReplaceOne(ctx, bson.M{"_id": p.ID}, newPostDocument(p))
	if err != nil {
		return fmt.Errorf("failed to replace post: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("post %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *MongoPostStore) DeletePost(ctx context.Context, p *domain.Post, _ string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": p.ID})
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post %s: %w", p.ID, domain.ErrNotFound)
	}
	return nil
}

// postDocument is the stored shape of a post.
type postDocument struct {
	ID          string       `bson:"_id"`
	Title       string       `bson:"title"`
	Description string       `bson:"description"`
	PubDate     string       `bson:"pub_date"`
	Tags        []string     `bson:"tags"`
	Draft       bool         `bson:"draft"`
	Content     string       `bson:"content"`
	Extra       []extraField `bson:"extra,omitempty"`
	UpdatedAt   time.Time    `bson:"updated_at"`
	CreatedAt   time.Time    `bson:"created_at"`
}

func newPostDocument(p *domain.Post) postDocument {
	return postDocument{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		PubDate:     p.PubDate,
		Tags:        nonNilTags(p.Tags),
		Draft:       p.Draft,
		Content:     p.Body,
		Extra:       toExtraFields(p.Extra),
		UpdatedAt:   p.UpdatedAt,
		CreatedAt:   p.CreatedAt,
	}
}

func (d *postDocument) toDomain() *domain.Post {
	return &domain.Post{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		PubDate:     d.PubDate,
		Tags:        nonNilTags(d.Tags),
		Draft:       d.Draft,
		Body:        d.Content,
		Extra:       fromExtraFields(d.Extra),
		UpdatedAt:   d.UpdatedAt,
		CreatedAt:   d.CreatedAt,
	}
}
