package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"session-auth/backend/internal/session/domain"
)

// ErrUnavailable wraps every Redis transport failure.
var ErrUnavailable = errors.New("session store unavailable")

// deleteSessionScript removes the session hash and its user index entry in one step.
// Returns 1 only for the caller that found the hash present.
const deleteSessionScript = `
local uid = redis.call("HGET", KEYS[1], "user_id")
if not uid then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. uid, ARGV[2])
return 1
`

var deleteSessionLua = redis.NewScript(deleteSessionScript)

// RedisRepository stores each session as a hash at <prefix>:s:<id> with a PX TTL matching
// ExpiresAt, and indexes ids per user in the set <prefix>:u:<userID>.
type RedisRepository struct {
	redis  redis.UniversalClient
	prefix string
}

// NewRedisRepository returns a session repository backed by the given Redis client.
func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = "sess"
	}
	return &RedisRepository{redis: client, prefix: prefix}
}

func (r *RedisRepository) sessionKey(id string) string {
	return r.prefix + ":s:" + id
}

func (r *RedisRepository) userKeyPrefix() string {
	return r.prefix + ":u:"
}

func (r *RedisRepository) userKey(userID string) string {
	return r.userKeyPrefix() + userID
}

// Create stores the session and adds it to the user's index. An empty ID is assigned before write.
func (r *RedisRepository) Create(ctx context.Context, s *domain.Session) error {
	if s.ID == "" {
		s.ID = NewID()
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	key := r.sessionKey(s.ID)
	userKey := r.userKey(s.UserID)

	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key,
			"user_id", s.UserID,
			"refresh_token_hash", s.RefreshTokenHash,
			"expires_at", strconv.FormatInt(s.ExpiresAt.UnixMilli(), 10),
			"created_at", strconv.FormatInt(s.CreatedAt.UnixMilli(), 10),
		)
		pipe.PExpire(ctx, key, ttl)
		pipe.SAdd(ctx, userKey, s.ID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// ListActiveByUser returns the user's sessions with ExpiresAt >= now. Index entries whose
// hash has already expired in Redis are pruned.
func (r *RedisRepository) ListActiveByUser(ctx context.Context, userID string, now time.Time) ([]*domain.Session, error) {
	userKey := r.userKey(userID)
	ids, err := r.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = r.redis.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, r.sessionKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var (
		out   []*domain.Session
		stale []any
	)
	for i, cmd := range cmds {
		fields := cmd.Val()
		if len(fields) == 0 {
			stale = append(stale, ids[i])
			continue
		}
		s, err := decodeSession(ids[i], fields)
		if err != nil {
			stale = append(stale, ids[i])
			continue
		}
		if s.Active(now) {
			out = append(out, s)
		}
	}
	if len(stale) > 0 {
		if err := r.redis.SRem(ctx, userKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	return out, nil
}

// DeleteByID removes the session atomically; only one concurrent caller observes true.
func (r *RedisRepository) DeleteByID(ctx context.Context, id string) (bool, error) {
	n, err := deleteSessionLua.Run(ctx, r.redis, []string{r.sessionKey(id)}, r.userKeyPrefix(), id).Int64()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return n == 1, nil
}

// DeleteAllByUser removes every session of the user together with the index set.
func (r *RedisRepository) DeleteAllByUser(ctx context.Context, userID string) (int64, error) {
	userKey := r.userKey(userID)
	ids, err := r.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	keys := make([]string, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, r.sessionKey(id))
	}

	var del *redis.IntCmd
	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(keys) > 0 {
			del = pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if del == nil {
		return 0, nil
	}
	return del.Val(), nil
}

// DeleteExpired walks every user index and deletes sessions whose ExpiresAt is before now.
// Index entries whose hash Redis already expired are pruned but not counted, since Redis removed
// those sessions itself. Returns the number of sessions this call deleted.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	var removed int64
	iter := r.redis.Scan(ctx, 0, r.userKeyPrefix()+"*", 100).Iterator()
	for iter.Next(ctx) {
		userKey := iter.Val()
		ids, err := r.redis.SMembers(ctx, userKey).Result()
		if err != nil {
			return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		for _, id := range ids {
			fields, err := r.redis.HGetAll(ctx, r.sessionKey(id)).Result()
			if err != nil {
				return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
			}
			if len(fields) == 0 {
				if err := r.redis.SRem(ctx, userKey, id).Err(); err != nil {
					return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
				}
				continue
			}
			s, err := decodeSession(id, fields)
			if err == nil && s.Active(now) {
				continue
			}
			ok, err := r.DeleteByID(ctx, id)
			if err != nil {
				return removed, err
			}
			if ok {
				removed++
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return removed, nil
}

func decodeSession(id string, fields map[string]string) (*domain.Session, error) {
	expiresAt, err := strconv.ParseInt(fields["expires_at"], 10, 64)
	if err != nil {
		return nil, err
	}
	createdAt, err := strconv.ParseInt(fields["created_at"], 10, 64)
	if err != nil {
		return nil, err
	}
	return &domain.Session{
		ID:               id,
		UserID:           fields["user_id"],
		RefreshTokenHash: fields["refresh_token_hash"],
		ExpiresAt:        time.UnixMilli(expiresAt).UTC(),
		CreatedAt:        time.UnixMilli(createdAt).UTC(),
	}, nil
}
