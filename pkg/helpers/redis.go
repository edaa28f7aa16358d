package helpers

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient initializes a redis client.
func NewRedisClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// SessionKey is the redis hash key holding a user's login session.
func SessionKey(userID int64) string {
	return "user:session:" + strconv.FormatInt(userID, 10)
}

// PutSession writes the session hash with a TTL.
func PutSession(ctx context.Context, rdb *redis.Client, userID int64, fields map[string]any, ttl time.Duration) error {
	key := SessionKey(userID)
	pipe := rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// GetSession returns the session hash, empty when none exists.
func GetSession(ctx context.Context, rdb *redis.Client, userID int64) (map[string]string, error) {
	return rdb.HGetAll(ctx, SessionKey(userID)).Result()
}

// DropSession removes the session hash.
func DropSession(ctx context.Context, rdb *redis.Client, userID int64) error {
	return rdb.Del(ctx, SessionKey(userID)).Err()
}
