package repository

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	KeyPrefix   string
	DialTimeout time.Duration
}

// RedisStore keeps each board in a sorted set.
//
// Keys:
//   - {prefix}board:{name} -> sorted set of member/score
//   - {prefix}boards       -> set of board names
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}
	return NewRedisStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) boardKey(board string) string { return s.prefix + "board:" + board }
func (s *RedisStore) boardsKey() string            { return s.prefix + "boards" }

func (s *RedisStore) Load(ctx context.Context, board string) ([]Entry, error) {
	zs, err := s.client.ZRangeWithScores(ctx, s.boardKey(board), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load board %q from redis: %w", board, err)
	}
	entries := make([]Entry, 0, len(zs))
	for _, z := range zs {
		member, ok := z.Member.(string)
		if !ok {
			return nil, fmt.Errorf("%w: board %q has non-string member %v", ErrCorrupt, board, z.Member)
		}
		entries = append(entries, Entry{Member: member, Score: z.Score})
	}
	return entries, nil
}

// Save replaces the sorted set in one MULTI/EXEC transaction.
func (s *RedisStore) Save(ctx context.Context, board string, entries []Entry) error {
	if len(entries) == 0 {
		return s.Delete(ctx, board)
	}
	zs := make([]redis.Z, len(entries))
	for i, e := range entries {
		zs[i] = redis.Z{Score: e.Score, Member: e.Member}
	}
	key := s.boardKey(board)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.ZAdd(ctx, key, zs...)
		pipe.SAdd(ctx, s.boardsKey(), board)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save board %q to redis: %w", board, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, board string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.boardKey(board))
		pipe.SRem(ctx, s.boardsKey(), board)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete board %q from redis: %w", board, err)
	}
	return nil
}

func (s *RedisStore) Boards(ctx context.Context) ([]string, error) {
	names, err := s.client.SMembers(ctx, s.boardsKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list boards in redis: %w", err)
	}
	slices.Sort(names)
	return names, nil
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
