package report

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/chriscorrea/spamsift/internal/eval"
)

// DefaultRedisPrefix namespaces every key RedisSink writes.
const DefaultRedisPrefix = "spamsift:results"

// RedisSink records each run in Redis:
//
//	<prefix>:<run>:accuracies  list of per-trial accuracies
//	<prefix>:<run>:summary     hash with mean, min, max, stddev, trials, finished
//	<prefix>:runs              list of run IDs, newest first
type RedisSink struct {
	client *redis.Client
	prefix string
	runID  string
}

// NewRedisSink connects to the Redis server at url and checks it is reachable.
func NewRedisSink(ctx context.Context, url, prefix string) (*RedisSink, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisSink{
		client: client,
		prefix: prefix,
		runID:  uuid.NewString(),
	}, nil
}

// RunID identifies the run this sink writes.
func (rs *RedisSink) RunID() string {
	return rs.runID
}

func (rs *RedisSink) key(parts ...string) string {
	k := rs.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (rs *RedisSink) Write(ctx context.Context, s eval.Summary) error {
	accKey := rs.key(rs.runID, "accuracies")
	sumKey := rs.key(rs.runID, "summary")

	values := make([]interface{}, len(s.Accuracies))
	for i, a := range s.Accuracies {
		values[i] = formatFloat(a)
	}

	_, err := rs.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, accKey)
		if len(values) > 0 {
			pipe.RPush(ctx, accKey, values...)
		}
		pipe.HSet(ctx, sumKey, map[string]interface{}{
			"mean":     formatFloat(s.Mean),
			"min":      formatFloat(s.Min),
			"max":      formatFloat(s.Max),
			"stddev":   formatFloat(s.StdDev),
			"trials":   len(s.Accuracies),
			"finished": time.Now().UTC().Format(time.RFC3339),
		})
		pipe.LPush(ctx, rs.key("runs"), rs.runID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write results to redis: %w", err)
	}

	slog.Info("Results written to redis", "run", rs.runID, "key", accKey)
	return nil
}

// Close releases the redis connection.
func (rs *RedisSink) Close() error {
	return rs.client.Close()
}
