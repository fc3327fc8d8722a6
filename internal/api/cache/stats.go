package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// StatsTTL é curto de propósito: o placar muda a cada aposta concluída
const StatsTTL = 30 * time.Second

type Stats struct{ R *redis.Client }

func New(r *redis.Client) *Stats { return &Stats{R: r} }

// chave por casal + usuário: o fold é relativo a quem pergunta
func keyStats(coupleID, userID string) string {
	return "stats:couple:" + coupleID + ":user:" + userID
}

func (c *Stats) Get(ctx context.Context, coupleID, userID string, dst any) (bool, error) {
	b, err := c.R.Get(ctx, keyStats(coupleID, userID)).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, json.Unmarshal(b, dst)
}

func (c *Stats) Set(ctx context.Context, coupleID, userID string, v any) error {
	b, _ := json.Marshal(v)
	return c.R.Set(ctx, keyStats(coupleID, userID), b, StatsTTL).Err()
}

// Invalidate derruba o cache dos dois lados do casal após uma conclusão
func (c *Stats) Invalidate(ctx context.Context, coupleID string, userIDs ...string) error {
	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, keyStats(coupleID, id))
	}
	if len(keys) == 0 {
		return nil
	}
	return c.R.Del(ctx, keys...).Err()
}
