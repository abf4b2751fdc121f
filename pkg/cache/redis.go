package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"scanteate/pkg/session"
)

var _ session.Cache = (*Redis)(nil)

// Redis keeps each record under "session:<id>" and the ids of a user in the
// set "session:user:<userID>" so a user's entries can be dropped together.
type Redis struct {
	client   *redis.Client
	prefix   string
	indexTTL time.Duration
}

// NewRedis takes maxTTL, the longest ttl Set will be called with; the user
// index is kept alive at least that long.
func NewRedis(client *redis.Client, maxTTL time.Duration) *Redis {
	return &Redis{
		client:   client,
		prefix:   "session:",
		indexTTL: maxTTL,
	}
}

func (r *Redis) key(id string) string {
	return r.prefix + id
}

func (r *Redis) userKey(userID int64) string {
	return r.prefix + "user:" + strconv.FormatInt(userID, 10)
}

func (r *Redis) Get(ctx context.Context, id string) (*session.Record, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var rec session.Record
	if err := json.Unmarshal(val, &rec); err != nil {
		return nil, fmt.Errorf("session cache: failed to unmarshal: %w", err)
	}
	return &rec, nil
}

func (r *Redis) Set(ctx context.Context, rec *session.Record, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(session.Record{Session: rec.Session, Principal: rec.Principal})
	if err != nil {
		return fmt.Errorf("session cache: failed to marshal: %w", err)
	}

	userKey := r.userKey(rec.Principal.ID)
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(rec.Session.ID), data, ttl)
	pipe.SAdd(ctx, userKey, rec.Session.ID)
	pipe.Expire(ctx, userKey, max(ttl, r.indexTTL))
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

func (r *Redis) DeleteUser(ctx context.Context, userID int64) error {
	userKey := r.userKey(userID)

	ids, err := r.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}
	keys = append(keys, userKey)

	return r.client.Del(ctx, keys...).Err()
}
