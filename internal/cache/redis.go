package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/redis/go-redis/v9"

	"retailense/internal/analytics"
)

const keyPrefix = "retailense:report:"

// Redis shares reports between processes serving the same dataset. Failures
// are logged and treated as misses; the dashboard recomputes.
type Redis struct {
	client  *redis.Client
	logger  *slog.Logger
	written atomic.Int64
}

func NewRedis(client *redis.Client, logger *slog.Logger) *Redis {
	return &Redis{client: client, logger: logger}
}

func (s *Redis) Get(ctx context.Context, key string) (*analytics.Report, bool) {
	if s.client == nil {
		return nil, false
	}

	data, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("failed to get report from cache", "error", err, "key", key)
		}
		return nil, false
	}

	var report analytics.Report
	if err := json.Unmarshal(data, &report); err != nil {
		s.logger.Warn("failed to unmarshal cached report", "error", err, "key", key)
		return nil, false
	}
	return &report, true
}

func (s *Redis) Set(ctx context.Context, key string, report *analytics.Report) error {
	if s.client == nil {
		return nil
	}

	data, err := json.Marshal(report)
	if err != nil {
		return err
	}

	// SetNX with no expiry: the first computed report for a key wins.
	ok, err := s.client.SetNX(ctx, keyPrefix+key, data, 0).Result()
	if err != nil {
		s.logger.Warn("failed to set report in cache", "error", err, "key", key)
		return err
	}
	if ok {
		s.written.Add(1)
	}
	return nil
}

// Len counts the entries this process has written.
func (s *Redis) Len() int {
	return int(s.written.Load())
}
