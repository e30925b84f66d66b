// Package redis guarda claves de idempotencia de POST /api/orders en Redis.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/b2b-stock-api/internal/application/ports"
)

const (
	keyPrefix     = "idem:orders:"
	markerPending = "p"
	markerDone    = "d"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// Client subconjunto de *redis.Client usado por el store.
type Client interface {
	SetNX(ctx context.Context, key string, value any, expiration time.Duration) *redis.BoolCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// IdempotencyStore implementa ports.IdempotencyStore con SETNX: la primera petición reserva
// la clave con un marcador pendiente y al terminar la reemplaza por la respuesta.
type IdempotencyStore struct {
	rdb Client
	ttl time.Duration
}

// NewClient abre el cliente Redis.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// NewIdempotencyStore construye el store. ttl acota cuánto se recuerda cada clave.
func NewIdempotencyStore(rdb Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl}
}

func (s *IdempotencyStore) key(k string) string { return keyPrefix + k }

// Begin reserva la clave o devuelve la respuesta ya registrada.
func (s *IdempotencyStore) Begin(ctx context.Context, key string) ([]byte, bool, error) {
	ok, err := s.rdb.SetNX(ctx, s.key(key), markerPending, s.ttl).Result()
	if err != nil {
		return nil, false, fmt.Errorf("idempotency setnx: %w", err)
	}
	if ok {
		return nil, true, nil
	}

	val, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expiró entre SETNX y GET: se trata como en curso; el cliente reintenta.
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("idempotency get: %w", err)
	}
	if len(val) == 0 || string(val[:1]) != markerDone {
		return nil, false, nil
	}
	return val[1:], false, nil
}

// Complete registra la respuesta final para la clave.
func (s *IdempotencyStore) Complete(ctx context.Context, key string, response []byte) error {
	val := append([]byte(markerDone), response...)
	if err := s.rdb.Set(ctx, s.key(key), val, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency set: %w", err)
	}
	return nil
}

// Abort libera la clave para que un reintento pueda ejecutar la operación.
func (s *IdempotencyStore) Abort(ctx context.Context, key string) error {
	if err := s.rdb.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("idempotency del: %w", err)
	}
	return nil
}
