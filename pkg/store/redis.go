package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/mindmap/pkg/mindmap"
)

// RedisStore keeps each map as a JSON string under <prefix>map:<id> and
// indexes IDs by creation time in the sorted set <prefix>index.
type RedisStore struct {
	client *redis.Client
	prefix string
	owned  bool
}

// NewRedisStore wraps an existing client. Close does not close the client.
func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

// DialRedisStore connects to addr and verifies the connection.
func DialRedisStore(ctx context.Context, addr string, db int, prefix string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, DB: db})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%w: redis %s: %v", ErrUnavailable, addr, err)
	}
	return &RedisStore{client: client, prefix: prefix, owned: true}, nil
}

func (s *RedisStore) key(id string) string { return s.prefix + "map:" + id }
func (s *RedisStore) index() string        { return s.prefix + "index" }

func (s *RedisStore) Create(ctx context.Context, m *mindmap.MindMap) error {
	created := prepareCreate(*m)
	data, err := json.Marshal(created)
	if err != nil {
		return fmt.Errorf("marshal map: %w", err)
	}
	ok, err := s.client.SetNX(ctx, s.key(created.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrExists
	}
	score := float64(created.CreatedAt.UnixNano())
	if err := s.client.ZAdd(ctx, s.index(), redis.Z{Score: score, Member: created.ID}).Err(); err != nil {
		return err
	}
	*m = created
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (mindmap.MindMap, error) {
	data, err := s.client.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return mindmap.MindMap{}, ErrNotFound
	}
	if err != nil {
		return mindmap.MindMap{}, err
	}
	return mindmap.Unmarshal(data, mindmap.FormatJSON)
}

func (s *RedisStore) Update(ctx context.Context, m *mindmap.MindMap) error {
	old, err := s.Get(ctx, m.ID)
	if err != nil {
		return err
	}
	prepareUpdate(m)
	m.CreatedAt = old.CreatedAt
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal map: %w", err)
	}
	ok, err := s.client.SetXX(ctx, s.key(m.ID), data, 0).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, s.key(id))
		pipe.ZRem(ctx, s.index(), id)
		return nil
	})
	if err != nil {
		return err
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, skip, limit int) ([]mindmap.MindMap, error) {
	if skip < 0 {
		skip = 0
	}
	stop := int64(-1)
	if limit > 0 {
		stop = int64(skip + limit - 1)
	}
	ids, err := s.client.ZRange(ctx, s.index(), int64(skip), stop).Result()
	if err != nil {
		return nil, err
	}
	out := []mindmap.MindMap{}
	if len(ids) == 0 {
		return out, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// indexed but deleted concurrently
			continue
		}
		m, err := mindmap.Unmarshal([]byte(str), mindmap.FormatJSON)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}

// Close closes the client if the store dialed it.
func (s *RedisStore) Close() error {
	if s.owned {
		return s.client.Close()
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
