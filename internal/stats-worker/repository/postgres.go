package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
	"github.com/radieske/prediction-market-platform-poc/internal/stats-worker/aggregator"
)

// PostgresRepo persiste os placares agregados por usuário
// DB: conexão com o banco de dados
type PostgresRepo struct {
	DB *sql.DB
}

// NewPostgresRepo retorna uma instância de repositório Postgres
func NewPostgresRepo(db *sql.DB) *PostgresRepo {
	return &PostgresRepo{DB: db}
}

// LoadResolvedMarket carrega o mercado e seus participantes para liquidação
func (r *PostgresRepo) LoadResolvedMarket(ctx context.Context, marketID string) (*engine.Market, []engine.Participant, error) {
	var (
		m          engine.Market
		cBps, pBps int
		status     string
		outcome    sql.NullString
	)
	err := r.DB.QueryRowContext(ctx, `
		SELECT id, creator, match_id, entry_fee_cents, creator_fee_bps, platform_fee_bps,
		       status, outcome, total_pool_cents, home_count, draw_count, away_count
		FROM markets WHERE id = $1`, marketID).
		Scan(&m.ID, &m.Creator, &m.MatchID, &m.EntryFeeCents, &cBps, &pBps,
			&status, &outcome, &m.TotalPoolCents, &m.HomeCount, &m.DrawCount, &m.AwayCount)
	if err != nil {
		return nil, nil, fmt.Errorf("load market %s: %w", marketID, err)
	}

	m.Fees = engine.FeeSchedule{CreatorBps: uint16(cBps), PlatformBps: uint16(pBps)}
	if m.Status, err = engine.ParseStatus(status); err != nil {
		return nil, nil, fmt.Errorf("market %s: %w", marketID, err)
	}
	if outcome.Valid {
		if m.Outcome, err = engine.ParseOutcome(outcome.String); err != nil {
			return nil, nil, fmt.Errorf("market %s: %w", marketID, err)
		}
	}

	rows, err := r.DB.QueryContext(ctx,
		`SELECT user_id, prediction FROM participants WHERE market_id = $1`, marketID)
	if err != nil {
		return nil, nil, fmt.Errorf("load participants %s: %w", marketID, err)
	}
	defer rows.Close()

	var parts []engine.Participant
	for rows.Next() {
		var (
			p    engine.Participant
			pred string
		)
		if err := rows.Scan(&p.UserID, &pred); err != nil {
			return nil, nil, err
		}
		if p.Prediction, err = engine.ParseOutcome(pred); err != nil {
			return nil, nil, fmt.Errorf("participant %s/%s: %w", marketID, p.UserID, err)
		}
		p.MarketID = marketID
		parts = append(parts, p)
	}
	return &m, parts, rows.Err()
}

// ApplySettlements incorpora os settlements de um mercado aos placares, em uma
// única transação. O marcador em stats_processed garante idempotência: um
// mercado já liquidado retorna (false, nil) sem tocar nos placares
func (r *PostgresRepo) ApplySettlements(ctx context.Context, marketID string, sts []aggregator.Settlement) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO stats_processed(market_id) VALUES($1) ON CONFLICT (market_id) DO NOTHING`,
		marketID)
	if err != nil {
		return false, fmt.Errorf("mark processed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	for _, st := range sts {
		stats, err := lockUserStats(ctx, tx, st.UserID)
		if err != nil {
			return false, err
		}
		stats.Apply(st)
		if err := upsertUserStats(ctx, tx, stats); err != nil {
			return false, err
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit: %w", err)
	}
	return true, nil
}

func lockUserStats(ctx context.Context, tx *sql.Tx, userID string) (*aggregator.UserStats, error) {
	s := &aggregator.UserStats{UserID: userID}
	err := tx.QueryRowContext(ctx, `
		SELECT markets_entered, wins, losses, total_staked_cents, total_reward_cents,
		       current_streak, best_streak
		FROM user_stats WHERE user_id = $1 FOR UPDATE`, userID).
		Scan(&s.MarketsEntered, &s.Wins, &s.Losses, &s.TotalStakedCents,
			&s.TotalRewardCents, &s.CurrentStreak, &s.BestStreak)
	if err == sql.ErrNoRows {
		return s, nil
	} else if err != nil {
		return nil, fmt.Errorf("lock user_stats %s: %w", userID, err)
	}
	return s, nil
}

func upsertUserStats(ctx context.Context, tx *sql.Tx, s *aggregator.UserStats) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO user_stats
		  (user_id, markets_entered, wins, losses, total_staked_cents, total_reward_cents, current_streak, best_streak)
		VALUES
		  ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (user_id) DO UPDATE SET
		  markets_entered    = EXCLUDED.markets_entered,
		  wins               = EXCLUDED.wins,
		  losses             = EXCLUDED.losses,
		  total_staked_cents = EXCLUDED.total_staked_cents,
		  total_reward_cents = EXCLUDED.total_reward_cents,
		  current_streak     = EXCLUDED.current_streak,
		  best_streak        = EXCLUDED.best_streak`,
		s.UserID, s.MarketsEntered, s.Wins, s.Losses,
		s.TotalStakedCents, s.TotalRewardCents, s.CurrentStreak, s.BestStreak)
	if err != nil {
		return fmt.Errorf("upsert user_stats %s: %w", s.UserID, err)
	}
	return nil
}
