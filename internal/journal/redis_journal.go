package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

const keyPrefix = "ingest:journal:"

// RedisJournal stores one key per in-flight ingestion. A TTL keeps forgotten
// entries from accumulating forever; 0 disables expiry.
type RedisJournal struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewRedisJournal(client *redisv9.Client, ttl time.Duration) *RedisJournal {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisJournal{client: client, ttl: ttl}
}

func (j *RedisJournal) Begin(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshal journal entry failed: %w", err)
	}
	if err := j.client.Set(ctx, j.key(entry.ID), payload, j.ttl).Err(); err != nil {
		return fmt.Errorf("redis set journal entry failed: %w", err)
	}
	return nil
}

func (j *RedisJournal) Commit(ctx context.Context, id string) error {
	if err := j.client.Del(ctx, j.key(id)).Err(); err != nil {
		return fmt.Errorf("redis delete journal entry failed: %w", err)
	}
	return nil
}

// Pending returns every uncommitted entry, oldest first.
func (j *RedisJournal) Pending(ctx context.Context) ([]Entry, error) {
	var keys []string
	iter := j.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan journal failed: %w", err)
	}
	if len(keys) == 0 {
		return []Entry{}, nil
	}

	values, err := j.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget journal failed: %w", err)
	}
	entries := make([]Entry, 0, len(values))
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			// expired between SCAN and MGET
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("unmarshal journal entry %s failed: %w", keys[i], err)
		}
		entries = append(entries, e)
	}
	sortEntries(entries)
	return entries, nil
}

func (j *RedisJournal) key(id string) string {
	return keyPrefix + id
}
