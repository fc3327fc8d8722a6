package notifier

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/duobet/couple-bets-platform/pkg/contracts/events"
)

// Relay consome eventos bet_changed do Kafka e repassa pro canal Redis
// Pub/Sub que alimenta o realtime-service. Mensagem indecifrável vai pra
// DLQ; falha de publish reencaixa com retry curto antes de desistir.
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Relay struct {
	Log     *zap.Logger
	Reader  *kafka.Reader
	Redis   *redis.Client
	Channel string
	DLQ     *kafka.Writer // opcional

	OnConsumed  func()       // métricas (counter++)
	OnBroadcast func()       // métricas
	OnError     func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e repasse das mensagens Kafka
func (rl *Relay) Run(ctx context.Context) error {
	for {
		m, err := rl.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			rl.Log.Warn("kafka read failed", zap.Error(err))
			if rl.OnError != nil {
				rl.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if rl.OnConsumed != nil {
			rl.OnConsumed()
		}

		var ev events.BetChanged
		if err := json.Unmarshal(m.Value, &ev); err != nil || ev.BetID == "" || ev.CoupleID == "" {
			rl.Log.Warn("invalid bet_changed message", zap.Error(err))
			if rl.OnError != nil {
				rl.OnError("decode")
			}
			rl.toDLQ(ctx, m)
			continue
		}

		// repassa o payload original: o hub filtra por casal/status
		if err := rl.publish(ctx, m.Value); err != nil {
			rl.Log.Error("redis publish failed", zap.String("betId", ev.BetID), zap.Error(err))
			if rl.OnError != nil {
				rl.OnError("publish")
			}
			rl.toDLQ(ctx, m)
			continue
		}
		if rl.OnBroadcast != nil {
			rl.OnBroadcast()
		}
	}
}

// publish tenta até 3 vezes com backoff linear curto
func (rl *Relay) publish(ctx context.Context, payload []byte) error {
	var err error
	for i := 0; i < 3; i++ {
		if err = rl.Redis.Publish(ctx, rl.Channel, payload).Err(); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(200*(i+1)) * time.Millisecond):
		}
	}
	return err
}

func (rl *Relay) toDLQ(ctx context.Context, m kafka.Message) {
	if rl.DLQ == nil {
		return
	}
	msg := kafka.Message{Key: m.Key, Value: m.Value, Time: time.Now()}
	if err := rl.DLQ.WriteMessages(ctx, msg); err != nil {
		rl.Log.Error("dlq write failed", zap.Error(err))
	}
}
