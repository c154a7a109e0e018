package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/radieske/prediction-market-platform-poc/internal/market-service/dto"
)

// SnapshotCache guarda o último snapshot público de cada mercado no Redis
// Client: cliente Redis
// TTL: tempo de expiração dos snapshots
type SnapshotCache struct {
	Client *redis.Client
	TTL    time.Duration
}

func NewSnapshotCache(c *redis.Client, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{Client: c, TTL: ttl}
}

// key gera a chave Redis do snapshot atual de um mercado
func key(marketID string) string { return "market:current:" + marketID }

// Get retorna o snapshot em cache, ou nil se expirou/não existe
func (s *SnapshotCache) Get(ctx context.Context, marketID string) (*dto.MarketResponse, error) {
	b, err := s.Client.Get(ctx, key(marketID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var snap dto.MarketResponse
	if err := json.Unmarshal(b, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// Set armazena o snapshot com TTL definido
func (s *SnapshotCache) Set(ctx context.Context, snap dto.MarketResponse) error {
	b, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	return s.Client.Set(ctx, key(snap.MarketID), b, s.TTL).Err()
}
