package registry

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
)

// Postgres mantém a fábrica e o índice de mercados por partida
type Postgres struct {
	db         *sql.DB
	authority  string
	ceilingBps uint16
}

func NewPostgres(db *sql.DB, authority string, ceilingBps uint16) *Postgres {
	return &Postgres{db: db, authority: authority, ceilingBps: ceilingBps}
}

// EnsureFactory provisiona a linha da fábrica na subida do serviço; idempotente
func (p *Postgres) EnsureFactory(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO factory(authority, fee_ceiling_bps, market_count)
		VALUES($1, $2, 0)
		ON CONFLICT (authority) DO NOTHING`,
		p.authority, p.ceilingBps)
	if err != nil {
		return fmt.Errorf("ensure factory: %w", err)
	}
	return nil
}

// CreateMarketRecord registra um novo mercado: valida o teto de taxas, trava a
// fábrica, rejeita partida duplicada e emite os identificadores
func (p *Postgres) CreateMarketRecord(ctx context.Context, creator, matchID string, fs engine.FeeSchedule, entryFeeCents int64, kickoff, end time.Time, public bool) (Record, error) {
	if err := ValidateSchedule(fs, p.ceilingBps); err != nil {
		return Record{}, err
	}

	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return Record{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var count int64
	err = tx.QueryRowContext(ctx,
		`SELECT market_count FROM factory WHERE authority = $1 FOR UPDATE`,
		p.authority).Scan(&count)
	if err == sql.ErrNoRows {
		return Record{}, ErrFactoryNotFound
	} else if err != nil {
		return Record{}, fmt.Errorf("lock factory: %w", err)
	}

	next, err := nextCount(count)
	if err != nil {
		return Record{}, err
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM market_registry WHERE match_id = $1)`,
		matchID).Scan(&exists)
	if err != nil {
		return Record{}, fmt.Errorf("check match: %w", err)
	}
	if exists {
		return Record{}, ErrDuplicateMatchID
	}

	rec := Record{MarketID: uuid.NewString(), RegistryID: uuid.NewString()}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO market_registry(id, authority, market_id, match_id, creator, entry_fee_cents, kickoff_at, end_at, is_public)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9)`,
		rec.RegistryID, p.authority, rec.MarketID, matchID, creator, entryFeeCents, kickoff, end, public)
	if err != nil {
		return Record{}, fmt.Errorf("insert registry record: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE factory SET market_count = $1 WHERE authority = $2`,
		next, p.authority)
	if err != nil {
		return Record{}, fmt.Errorf("bump market count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Record{}, fmt.Errorf("commit: %w", err)
	}
	return rec, nil
}

// MarketCount retorna quantos mercados a fábrica já emitiu
func (p *Postgres) MarketCount(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.QueryRowContext(ctx,
		`SELECT market_count FROM factory WHERE authority = $1`,
		p.authority).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, ErrFactoryNotFound
	} else if err != nil {
		return 0, err
	}
	return count, nil
}
