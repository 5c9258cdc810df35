// Package session keeps the set of live login sessions. A token is only
// honoured while its session exists, so logout takes effect before expiry.
package session

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

type Session struct {
	ID       string    `json:"id"`
	UserID   string    `json:"userId"`
	Username string    `json:"username"`
	Role     string    `json:"role"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Store tracks which session ids are still live.
type Store interface {
	Create(ctx context.Context, s Session, ttl time.Duration) error
	Exists(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
}

type redisStore struct {
	rdb redis.Cmdable
}

// NewRedis keeps sessions under "session:<id>" keys that expire with the token.
func NewRedis(rdb redis.Cmdable) Store {
	return &redisStore{rdb: rdb}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *redisStore) Create(ctx context.Context, sess Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, sessionKey(sess.ID), data, ttl).Err()
}

func (s *redisStore) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, sessionKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *redisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, sessionKey(id)).Err()
}

type entry struct {
	session Session
	expires time.Time
}

// Memory is an in-process Store for single-instance deployments and tests.
type Memory struct {
	mu       sync.Mutex
	sessions map[string]entry
	now      func() time.Time
}

func NewMemory() *Memory {
	return &Memory{sessions: make(map[string]entry), now: time.Now}
}

func (m *Memory) Create(_ context.Context, s Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for id, e := range m.sessions {
		if !e.expires.After(now) {
			delete(m.sessions, id)
		}
	}
	m.sessions[s.ID] = entry{session: s, expires: now.Add(ttl)}
	return nil
}

func (m *Memory) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[id]
	return ok && e.expires.After(m.now()), nil
}

func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
