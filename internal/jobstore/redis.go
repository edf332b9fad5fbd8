package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/captionforge/captionforge/pkg/models"
	"github.com/redis/go-redis/v9"
)

// Redis is the ephemeral generation store. Records expire after the
// configured TTL unless mirrored to durable storage on completion.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis creates the ephemeral store and verifies connectivity.
func NewRedis(host string, port int, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Redis{client: client, ttl: ttl}, nil
}

// Close closes the Redis connection
func (r *Redis) Close() error {
	return r.client.Close()
}

func generationKey(id string) string {
	return fmt.Sprintf("generation:%s", id)
}

// Put writes the job record with the store's TTL.
func (r *Redis) Put(ctx context.Context, job *models.GenerationJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal generation: %w", err)
	}

	return r.client.Set(ctx, generationKey(job.ID), data, r.ttl).Err()
}

// Get retrieves a job record. Returns models.ErrNotFound on a miss.
func (r *Redis) Get(ctx context.Context, id string) (*models.GenerationJob, error) {
	data, err := r.client.Get(ctx, generationKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get generation from store: %w", err)
	}

	var job models.GenerationJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal generation: %w", err)
	}

	return &job, nil
}

