// Package redis guarda las claves Idempotency-Key de las salidas de inventario.
package redis

import (
	"context"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/jhoicas/inventario-ledger/internal/application/inventory"
	"github.com/jhoicas/inventario-ledger/pkg/config"
)

const keyPrefix = "idempotency:"

var (
	_ inventory.IdempotencyStore = (*Store)(nil)
	_ inventory.IdempotencyStore = (*MemoryStore)(nil)
)

// Store reserva claves con SETNX; la clave expira sola al cumplirse el TTL.
type Store struct {
	client *goredis.Client
}

// NewStore envuelve un cliente go-redis ya conectado.
func NewStore(client *goredis.Client) *Store {
	return &Store{client: client}
}

// Reserve devuelve false si la clave ya existía.
func (s *Store) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return ok, nil
}

// Release borra la clave para permitir reintentos.
func (s *Store) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// MemoryStore TTL store en proceso; se usa cuando Redis no está configurado o no responde.
type MemoryStore struct {
	mu    sync.Mutex
	keys  map[string]time.Time
	clock func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{keys: map[string]time.Time{}, clock: time.Now}
}

func (m *MemoryStore) Reserve(_ context.Context, key string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock()
	m.cleanupLocked(now)
	if _, ok := m.keys[key]; ok {
		return false, nil
	}
	m.keys[key] = now.Add(ttl)
	return true, nil
}

func (m *MemoryStore) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *MemoryStore) cleanupLocked(now time.Time) {
	for k, exp := range m.keys {
		if !now.Before(exp) {
			delete(m.keys, k)
		}
	}
}

// NewClient construye el cliente desde la configuración. Addr vacío = nil.
func NewClient(cfg config.RedisConfig) *goredis.Client {
	if cfg.Addr == "" {
		return nil
	}
	return goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// NewIdempotencyStore intenta Redis y cae al store en memoria si el cliente es nil o no responde al ping.
func NewIdempotencyStore(ctx context.Context, client *goredis.Client) inventory.IdempotencyStore {
	if client != nil {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err == nil {
			return NewStore(client)
		}
	}
	return NewMemoryStore()
}
