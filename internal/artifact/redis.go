package artifact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aliskhannn/watermarker/internal/model"
)

const defaultRedisPrefix = "watermarker:artifact:"

// RedisOptions holds connection settings for the redis store.
type RedisOptions struct {
	Addr     string
	Username string
	Password string
	DB       int
	Prefix   string
	TTL      time.Duration
}

// Redis stores artifacts in redis hashes that expire after the configured TTL,
// so several service replicas can serve each other's downloads.
type Redis struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis connects to redis and verifies the connection.
func NewRedis(ctx context.Context, opts RedisOptions) (*Redis, error) {
	if opts.Addr == "" {
		return nil, errors.New("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Username: opts.Username,
		Password: opts.Password,
		DB:       opts.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	return &Redis{client: client, prefix: prefix, ttl: opts.TTL}, nil
}

func (r *Redis) key(id string) string {
	return r.prefix + id
}

// Put stores payload under a new id.
func (r *Redis) Put(ctx context.Context, payload []byte, kind model.Kind, filename string) (model.Artifact, error) {
	a := newArtifact(payload, kind, filename, time.Now())
	key := r.key(a.ID)

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, map[string]interface{}{
			"kind":       string(a.Kind),
			"filename":   a.Filename,
			"digest":     a.Digest,
			"created_at": a.CreatedAt.Format(time.RFC3339Nano),
			"payload":    a.Payload,
		})
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return model.Artifact{}, fmt.Errorf("put: failed to store artifact: %w", err)
	}

	return a, nil
}

// Get returns the artifact stored under id.
func (r *Redis) Get(ctx context.Context, id string) (model.Artifact, error) {
	fields, err := r.client.HGetAll(ctx, r.key(id)).Result()
	if err != nil {
		return model.Artifact{}, fmt.Errorf("get: failed to read artifact: %w", err)
	}
	if len(fields) == 0 {
		return model.Artifact{}, ErrNotFound
	}

	createdAt, err := time.Parse(time.RFC3339Nano, fields["created_at"])
	if err != nil {
		return model.Artifact{}, fmt.Errorf("get: malformed artifact %s: %w", id, err)
	}

	payload := []byte(fields["payload"])

	return model.Artifact{
		ID:        id,
		Kind:      model.Kind(fields["kind"]),
		Filename:  fields["filename"],
		Size:      len(payload),
		Digest:    fields["digest"],
		CreatedAt: createdAt,
		Payload:   payload,
	}, nil
}

// Close closes the redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}
