package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"atlas/config"
)

// ErrNotFound is returned by JSONStore.Read when no blob exists under the
// given name. Callers treat it as "use the zero value".
var ErrNotFound = errors.New("store: not found")

// JSONStore persists small named JSON documents (alert configs, throttle
// logs, history). Writes replace the whole document; there is no partial
// update, which keeps the file backend a plain marshal-and-rename.
type JSONStore interface {
	Read(ctx context.Context, name string, into interface{}) error
	Write(ctx context.Context, name string, value interface{}) error
	Ping(ctx context.Context) error
	Backend() string
	Close(ctx context.Context) error
}

// NewJSONStore builds the store selected by STORE_BACKEND. Unknown values
// fall back to the file backend so a typo never loses data silently to a
// broken connection.
func NewJSONStore(cfg *config.Config) (JSONStore, error) {
	switch strings.ToLower(cfg.Store.Backend) {
	case "redis":
		return NewRedisStore(cfg)
	case "mongo", "mongodb":
		return NewMongoStore(cfg)
	case "", "file":
		return NewFileStore(cfg.Store.DataRoot)
	default:
		log.Printf("Unknown store backend %q, using file store", cfg.Store.Backend)
		return NewFileStore(cfg.Store.DataRoot)
	}
}

// FileStore keeps each document as <dataRoot>/<name>.json.

type FileStore struct {
	root string
}

func NewFileStore(root string) (*FileStore, error) {
	if root == "" {
		root = "data"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data root %s: %w", root, err)
	}
	return &FileStore{root: root}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.root, name+".json")
}

func (s *FileStore) Read(_ context.Context, name string, into interface{}) error {
	data, err := os.ReadFile(s.path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Write(_ context.Context, name string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	// Write to a temp file first so a crash mid-write never truncates the
	// previous document.
	tmp := s.path(name) + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	if err := os.Rename(tmp, s.path(name)); err != nil {
		return fmt.Errorf("failed to replace %s: %w", name, err)
	}
	return nil
}

func (s *FileStore) Ping(_ context.Context) error {
	_, err := os.Stat(s.root)
	return err
}

func (s *FileStore) Backend() string { return "file" }

func (s *FileStore) Close(_ context.Context) error { return nil }

// RedisStore keeps each document as a string value under
// "<namespace>:<name>".

type RedisStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisStore(cfg *config.Config) (*RedisStore, error) {
	opts := &redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	if cfg.Redis.UseTLS {
		opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Address, err)
	}
	log.Printf("Connected to Redis at %s", cfg.Redis.Address)

	namespace := cfg.Store.Namespace
	if namespace == "" {
		namespace = "atlas"
	}
	return &RedisStore{client: client, namespace: namespace}, nil
}

func (s *RedisStore) key(name string) string {
	return s.namespace + ":" + name
}

func (s *RedisStore) Read(ctx context.Context, name string, into interface{}) error {
	data, err := s.client.Get(ctx, s.key(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, into); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Write(ctx context.Context, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	if err := s.client.Set(ctx, s.key(name), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Backend() string { return "redis" }

func (s *RedisStore) Close(_ context.Context) error {
	return s.client.Close()
}

// MongoStore keeps each document as {_id: name, value: <raw json>} in a
// single collection.

type MongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

type mongoBlob struct {
	ID    string `bson:"_id"`
	Value []byte `bson:"value"`
}

func NewMongoStore(cfg *config.Config) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoDB.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}
	log.Printf("Connected to MongoDB database %s", cfg.MongoDB.Database)

	collection := client.Database(cfg.MongoDB.Database).Collection("blobs")
	return &MongoStore{client: client, collection: collection}, nil
}

func (s *MongoStore) Read(ctx context.Context, name string, into interface{}) error {
	var blob mongoBlob
	err := s.collection.FindOne(ctx, bson.M{"_id": name}).Decode(&blob)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(blob.Value, into); err != nil {
		return fmt.Errorf("failed to decode %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Write(ctx context.Context, name string, value interface{}) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", name, err)
	}
	_, err = s.collection.ReplaceOne(ctx,
		bson.M{"_id": name},
		mongoBlob{ID: name, Value: data},
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *MongoStore) Backend() string { return "mongodb" }

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
