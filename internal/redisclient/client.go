package redisclient

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"bakery-erp/internal/models"

	"github.com/go-redis/redis/v8"
)

const lastSyncReportKey = "sync:inventory:last_report"

type Client struct {
	rdb *redis.Client
}

// NewClient creates a new Redis client
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient returns the underlying Redis client
func (c *Client) GetClient() *redis.Client {
	return c.rdb
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// CacheSyncReport stores the latest sync report with a TTL.
func (c *Client) CacheSyncReport(ctx context.Context, report *models.SyncReport, ttl time.Duration) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to marshal sync report: %w", err)
	}
	return c.rdb.Set(ctx, lastSyncReportKey, data, ttl).Err()
}

// GetLastSyncReport retrieves the cached latest sync report. Returns
// (nil, nil) when no report is cached.
func (c *Client) GetLastSyncReport(ctx context.Context) (*models.SyncReport, error) {
	data, err := c.rdb.Get(ctx, lastSyncReportKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var report models.SyncReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("failed to unmarshal sync report: %w", err)
	}
	return &report, nil
}

// CacheInventorySnapshot stores a category count snapshot for dashboards.
func (c *Client) CacheInventorySnapshot(ctx context.Context, counts map[string]int, ttl time.Duration) error {
	data, err := json.Marshal(counts)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, "inventory:category_counts", data, ttl).Err()
}

// AcquireLock acquires a distributed lock
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (bool, error) {
	return c.rdb.SetNX(ctx, fmt.Sprintf("lock:%s", lockKey), "1", ttl).Result()
}

// ReleaseLock releases a distributed lock
func (c *Client) ReleaseLock(ctx context.Context, lockKey string) error {
	return c.rdb.Del(ctx, fmt.Sprintf("lock:%s", lockKey)).Err()
}
