package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-market-platform-poc/internal/stats-worker/aggregator"
	"github.com/radieske/prediction-market-platform-poc/internal/stats-worker/repository"
	"github.com/radieske/prediction-market-platform-poc/pkg/contracts/events"
)

// Processor consome eventos de resolução de mercado e atualiza os placares
// Callbacks de métricas podem ser usadas para monitoramento de cada etapa
type Processor struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Repo   *repository.PostgresRepo

	OnConsumed func()       // métricas (counter++)
	OnSettled  func()       // métricas
	OnSkipped  func()       // métricas: mercado já liquidado
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo e liquidação
func (p *Processor) Run(ctx context.Context) error {
	for {
		m, err := p.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			p.Log.Warn("kafka read failed", zap.Error(err))
			if p.OnError != nil {
				p.OnError("read")
			}
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if p.OnConsumed != nil {
			p.OnConsumed()
		}

		var ev events.MarketResolved
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			p.Log.Warn("invalid message", zap.Error(err))
			if p.OnError != nil {
				p.OnError("decode")
			}
			continue
		}

		if err := p.settle(ctx, ev.MarketID); err != nil {
			p.Log.Warn("settle failed", zap.String("marketId", ev.MarketID), zap.Error(err))
			if p.OnError != nil {
				p.OnError("settle")
			}
		}
	}
}

func (p *Processor) settle(ctx context.Context, marketID string) error {
	mkt, parts, err := p.Repo.LoadResolvedMarket(ctx, marketID)
	if err != nil {
		return err
	}

	sts, err := aggregator.SettleMarket(mkt, parts)
	if err != nil {
		return err
	}

	applied, err := p.Repo.ApplySettlements(ctx, marketID, sts)
	if err != nil {
		return err
	}
	if !applied {
		p.Log.Debug("market already settled", zap.String("marketId", marketID))
		if p.OnSkipped != nil {
			p.OnSkipped()
		}
		return nil
	}

	p.Log.Info("market settled",
		zap.String("marketId", marketID),
		zap.Int("participants", len(sts)))
	if p.OnSettled != nil {
		p.OnSettled()
	}
	return nil
}
