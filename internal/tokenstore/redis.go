package tokenstore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Domenick1991/leadbooking/config"
	"github.com/Domenick1991/leadbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

// consumeScript atomically reads and deletes the binding so that no two
// concurrent consumes can both observe it.
var consumeScript = redis.NewScript(`
local v = redis.call("GET", KEYS[1])
if v then
    redis.call("DEL", KEYS[1])
end
return v
`)

// RedisStore backs the token store with redis for multi-instance
// deployments. Expiry uses redis' native TTL, so no sweeping is needed.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(cfg config.RedisConfig) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
	}
}

func (s *RedisStore) Issue(ctx context.Context, slots domain.SlotSet, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	token, err := newToken()
	if err != nil {
		return "", err
	}

	now := time.Now()
	payload, err := json.Marshal(entry{
		Slots:     slots.Strings(),
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	})
	if err != nil {
		return "", err
	}
	if err := s.client.Set(ctx, tokenKey(token), payload, ttl).Err(); err != nil {
		return "", err
	}
	return token, nil
}

func (s *RedisStore) Peek(ctx context.Context, token string) (domain.SlotSet, bool, error) {
	data, err := s.client.Get(ctx, tokenKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, err
	}
	return parseEntrySlots(e), true, nil
}

func (s *RedisStore) Consume(ctx context.Context, token string, chosen time.Time) (bool, error) {
	res, err := consumeScript.Run(ctx, s.client, []string{tokenKey(token)}).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}

	data, ok := res.(string)
	if !ok {
		return false, nil
	}
	var e entry
	if err := json.Unmarshal([]byte(data), &e); err != nil {
		return false, err
	}
	if !time.Now().Before(e.ExpiresAt) {
		return false, nil
	}
	return parseEntrySlots(e).Contains(chosen.UTC()), nil
}

func (s *RedisStore) Revoke(ctx context.Context, token string) error {
	return s.client.Del(ctx, tokenKey(token)).Err()
}

func (s *RedisStore) Close() error { return s.client.Close() }

func tokenKey(token string) string {
	return "booking:token:" + token
}

var _ Store = (*RedisStore)(nil)
