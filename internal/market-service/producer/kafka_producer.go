package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

// KafkaPublisher publica os eventos de ciclo de vida do mercado, um writer por tópico
type KafkaPublisher struct {
	Created     *kafka.Writer
	Predictions *kafka.Writer
	Resolved    *kafka.Writer
	Fees        *kafka.Writer
	Claims      *kafka.Writer
}

func NewKafkaPublisher(created, predictions, resolved, fees, claims *kafka.Writer) *KafkaPublisher {
	return &KafkaPublisher{
		Created:     created,
		Predictions: predictions,
		Resolved:    resolved,
		Fees:        fees,
		Claims:      claims,
	}
}

func (p *KafkaPublisher) PublishMarketCreated(ctx context.Context, e events.MarketCreated) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Created, e.MarketID, e)
}

func (p *KafkaPublisher) PublishPredictionMade(ctx context.Context, e events.PredictionMade) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Predictions, e.MarketID, e)
}

func (p *KafkaPublisher) PublishMarketResolved(ctx context.Context, e events.MarketResolved) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Resolved, e.MarketID, e)
}

func (p *KafkaPublisher) PublishFeesDistributed(ctx context.Context, e events.FeesDistributed) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Fees, e.MarketID, e)
}

func (p *KafkaPublisher) PublishRewardClaimed(ctx context.Context, e events.RewardClaimed) error {
	e.TsUnixMs = time.Now().UnixMilli()
	return write(ctx, p.Claims, e.MarketID, e)
}

// a chave é o marketId pra manter a ordenação por mercado na partição
func write(ctx context.Context, w *kafka.Writer, key string, e any) error {
	b, _ := json.Marshal(e)
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: b})
}
