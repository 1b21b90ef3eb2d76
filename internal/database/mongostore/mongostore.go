// Package mongostore implements database.CredentialStore on a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/subgen/internal/config"
	"github.com/jon4hz/subgen/internal/database"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var _ database.CredentialStore = (*Store)(nil)

// userDocument mirrors the documents stored in the users collection.
type userDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Username  string        `bson:"username"`
	Email     string        `bson:"email,omitempty"`
	Password  string        `bson:"password"`
	CreatedAt time.Time     `bson:"created_at"`
}

// Store is a credential store backed by a mongo collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// New connects to mongo and makes sure the unique indexes exist.
func New(ctx context.Context, cfg *config.DatabaseConfig) (*Store, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	s := &Store{
		client:     client,
		collection: client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	log.Debug("connected to mongo", "database", cfg.MongoDatabase, "collection", cfg.MongoCollection)
	return s, nil
}

// ensureIndexes creates a unique index on username and a sparse unique index
// on email, so documents without an email never collide.
func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetSparse(true),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create mongo indexes: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*database.User, error) {
	return s.findOne(ctx, bson.D{{Key: "username", Value: username}})
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*database.User, error) {
	return s.findOne(ctx, bson.D{{Key: "email", Value: email}})
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (*database.User, error) {
	var doc userDocument
	if err := s.collection.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, database.ErrUserNotFound
		}
		log.Error("failed to find user", "error", err)
		return nil, err
	}
	return toUser(&doc), nil
}

func (s *Store) CreateUser(ctx context.Context, user *database.User) error {
	doc := userDocument{
		Username:  user.Username,
		Password:  user.PasswordHash,
		CreatedAt: time.Now().UTC(),
	}
	if user.Email != nil {
		doc.Email = *user.Email
	}

	if _, err := s.collection.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return database.ErrDuplicateKey
		}
		log.Error("failed to create user", "error", err)
		return err
	}
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	count, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		log.Error("failed to count users", "error", err)
		return 0, err
	}
	return count, nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func toUser(doc *userDocument) *database.User {
	user := &database.User{
		Username:     doc.Username,
		PasswordHash: doc.Password,
	}
	user.CreatedAt = doc.CreatedAt
	if doc.Email != "" {
		email := doc.Email
		user.Email = &email
	}
	return user
}
