package trip

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/zora-digital/tripweaver/config"
)

// RedisArtifacts is an ArtifactStore backed by Redis. It implements the same
// semantics as MemoryArtifacts with a TTL on every artifact; entries simply
// expire instead of being swept.
type RedisArtifacts struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisArtifacts connects to Redis and verifies the connection.
func NewRedisArtifacts(ctx context.Context, cfg config.RedisConfig) (*RedisArtifacts, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisArtifacts{client: client, ttl: cfg.TTL}, nil
}

func artifactKey(jobID string) string {
	return "trip:artifact:" + jobID
}

func (r *RedisArtifacts) Put(ctx context.Context, art Artifact) error {
	payload, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	ok, err := r.client.SetNX(ctx, artifactKey(art.JobID), payload, r.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis setnx: %w", err)
	}
	if !ok {
		return NewError(KindPipeline, "artifact for job %s already stored", art.JobID)
	}
	return nil
}

func (r *RedisArtifacts) Get(ctx context.Context, jobID string) (Artifact, bool, error) {
	payload, err := r.client.Get(ctx, artifactKey(jobID)).Bytes()
	if err == redis.Nil {
		return Artifact{}, false, nil
	}
	if err != nil {
		return Artifact{}, false, fmt.Errorf("redis get: %w", err)
	}
	var art Artifact
	if err := json.Unmarshal(payload, &art); err != nil {
		return Artifact{}, false, fmt.Errorf("unmarshal artifact: %w", err)
	}
	return art, true, nil
}

func (r *RedisArtifacts) PutPDF(ctx context.Context, jobID string, pdf []byte) error {
	art, ok, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if !ok {
		return NewError(KindNotFound, "no artifact for job %s", jobID)
	}
	art.PDF = pdf
	payload, err := json.Marshal(art)
	if err != nil {
		return fmt.Errorf("marshal artifact: %w", err)
	}
	ttl, err := r.client.TTL(ctx, artifactKey(jobID)).Result()
	if err != nil || ttl <= 0 {
		ttl = r.ttl
	}
	if err := r.client.Set(ctx, artifactKey(jobID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *RedisArtifacts) Delete(ctx context.Context, jobID string) error {
	if err := r.client.Del(ctx, artifactKey(jobID)).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Close releases the underlying connection pool.
func (r *RedisArtifacts) Close() error {
	return r.client.Close()
}
