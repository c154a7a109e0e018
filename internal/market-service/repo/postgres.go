package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
)

// Postgres é o substrato transacional do motor de liquidação: cada operação é
// uma transação única (SELECT ... FOR UPDATE na linha do mercado) que aplica a
// transferência e a contabilidade juntas — commit total ou nada.
type Postgres struct {
	db              *sql.DB
	platformAccount string
}

// NewPostgres recebe a conta de plataforma explicitamente (nada de estado global)
func NewPostgres(db *sql.DB, platformAccount string) *Postgres {
	return &Postgres{db: db, platformAccount: platformAccount}
}

var (
	ErrMarketNotFound    = errors.New("market not found")
	ErrAccountNotFound   = errors.New("account not found")
	ErrNotParticipant    = errors.New("participant not found")
	ErrAlreadyJoined     = errors.New("user already joined this market")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// GetOrCreateAccount retorna o saldo do usuário, criando a conta se não existir
func (p *Postgres) GetOrCreateAccount(ctx context.Context, userID string) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM accounts WHERE user_id=$1`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO accounts(user_id, balance_cents, version) VALUES($1,0,1)`, userID); err != nil {
			return 0, err
		}
		balance = 0
	} else if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// Deposit credita saldo na conta e registra a operação no ledger
func (p *Postgres) Deposit(ctx context.Context, userID string, amount int64, externalRef string) (int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO accounts(user_id, balance_cents, version) VALUES($1,$2,1)
		ON CONFLICT (user_id) DO UPDATE
		SET balance_cents = accounts.balance_cents + EXCLUDED.balance_cents,
		    version = accounts.version + 1`,
		userID, amount); err != nil {
		return 0, err
	}

	if err = insertLedger(ctx, tx, "", userID, "DEPOSIT", amount, "deposit:"+externalRef); err != nil {
		return 0, err
	}

	var newBalance int64
	if err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM accounts WHERE user_id=$1`, userID).Scan(&newBalance); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	return newBalance, nil
}

// CreateMarket persiste um mercado recém-validado pelo motor
func (p *Postgres) CreateMarket(ctx context.Context, m *engine.Market) error {
	var outcome any
	if m.Outcome.Valid() {
		outcome = m.Outcome.String()
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO markets
		  (id, registry_id, creator, match_id, entry_fee_cents, kickoff_at, end_at, is_public,
		   creator_fee_bps, platform_fee_bps, status, outcome, total_pool_cents, escrow_cents,
		   participant_count, home_count, draw_count, away_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`,
		m.ID, m.RegistryID, m.Creator, m.MatchID, m.EntryFeeCents, m.Kickoff, m.End, m.Public,
		int32(m.Fees.CreatorBps), int32(m.Fees.PlatformBps), m.Status.String(), outcome,
		m.TotalPoolCents, m.EscrowCents, m.ParticipantCount, m.HomeCount, m.DrawCount, m.AwayCount,
		m.CreatedAt,
	)
	return err
}

// GetMarket carrega o estado atual de um mercado (sem lock)
func (p *Postgres) GetMarket(ctx context.Context, marketID string) (*engine.Market, error) {
	return scanMarket(p.db.QueryRowContext(ctx, selectMarket+` WHERE id=$1`, marketID))
}

// GetParticipant carrega a predição de um usuário em um mercado (sem lock)
func (p *Postgres) GetParticipant(ctx context.Context, marketID, userID string) (*engine.Participant, error) {
	return scanParticipant(p.db.QueryRowContext(ctx,
		selectParticipant+` WHERE market_id=$1 AND user_id=$2`, marketID, userID))
}

// Join debita a taxa de entrada do usuário, cria o Participant e atualiza
// pool/escrow/contadores — tudo na mesma transação. Joins concorrentes do
// mesmo usuário serializam no lock do mercado; só um compromete.
func (p *Postgres) Join(ctx context.Context, marketID, userID string, prediction engine.Outcome, now time.Time) (*engine.Market, *engine.Participant, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	m, err := lockMarket(ctx, tx, marketID)
	if err != nil {
		return nil, nil, err
	}

	var exists bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE market_id=$1 AND user_id=$2)`,
		marketID, userID).Scan(&exists); err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrAlreadyJoined
	}

	var balance int64
	err = tx.QueryRowContext(ctx, `SELECT balance_cents FROM accounts WHERE user_id=$1 FOR UPDATE`, userID).Scan(&balance)
	if err == sql.ErrNoRows {
		return nil, nil, ErrAccountNotFound
	} else if err != nil {
		return nil, nil, err
	}
	if balance < m.EntryFeeCents {
		return nil, nil, ErrInsufficientFunds
	}

	part, err := m.Join(userID, prediction, now)
	if err != nil {
		return nil, nil, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents - $1, version = version + 1 WHERE user_id=$2`,
		m.EntryFeeCents, userID); err != nil {
		return nil, nil, err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO participants(market_id, user_id, prediction, joined_at, has_withdrawn)
		VALUES($1,$2,$3,$4,false)`,
		marketID, userID, part.Prediction.String(), part.JoinedAt); err != nil {
		return nil, nil, err
	}
	if err = updateMarketAccounting(ctx, tx, m); err != nil {
		return nil, nil, err
	}
	if err = insertLedger(ctx, tx, marketID, userID, "STAKE", m.EntryFeeCents, "stake:"+userID); err != nil {
		return nil, nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, nil, err
	}
	return m, part, nil
}

// Resolve fixa o resultado e move as taxas do escrow para as contas do criador
// e da plataforma na mesma transação. O lock do mercado é o ponto único de
// sincronização: resolves concorrentes após o prazo rendem exatamente um sucesso.
func (p *Postgres) Resolve(ctx context.Context, marketID, resolver string, outcome engine.Outcome, policy engine.ResolvePolicy, now time.Time) (*engine.Market, engine.FeeBreakdown, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, engine.FeeBreakdown{}, err
	}
	defer tx.Rollback()

	m, err := lockMarket(ctx, tx, marketID)
	if err != nil {
		return nil, engine.FeeBreakdown{}, err
	}

	var isParticipant bool
	if err = tx.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM participants WHERE market_id=$1 AND user_id=$2)`,
		marketID, resolver).Scan(&isParticipant); err != nil {
		return nil, engine.FeeBreakdown{}, err
	}

	fees, err := m.Resolve(resolver, isParticipant, policy, outcome, now)
	if err != nil {
		return nil, engine.FeeBreakdown{}, err
	}

	if fees.CreatorCents > 0 {
		if err = creditAccount(ctx, tx, m.Creator, fees.CreatorCents); err != nil {
			return nil, engine.FeeBreakdown{}, err
		}
		if err = insertLedger(ctx, tx, marketID, m.Creator, "FEE_CREATOR", fees.CreatorCents, "creator fee"); err != nil {
			return nil, engine.FeeBreakdown{}, err
		}
	}
	if fees.PlatformCents > 0 {
		if err = creditAccount(ctx, tx, p.platformAccount, fees.PlatformCents); err != nil {
			return nil, engine.FeeBreakdown{}, err
		}
		if err = insertLedger(ctx, tx, marketID, p.platformAccount, "FEE_PLATFORM", fees.PlatformCents, "platform fee"); err != nil {
			return nil, engine.FeeBreakdown{}, err
		}
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE markets SET status=$1, outcome=$2, escrow_cents=$3 WHERE id=$4`,
		m.Status.String(), m.Outcome.String(), m.EscrowCents, marketID); err != nil {
		return nil, engine.FeeBreakdown{}, err
	}

	if err = tx.Commit(); err != nil {
		return nil, engine.FeeBreakdown{}, err
	}
	return m, fees, nil
}

// Withdraw paga o prêmio de um vencedor uma única vez: a marcação de
// has_withdrawn, o débito do escrow e o crédito do usuário comprometem juntos
func (p *Postgres) Withdraw(ctx context.Context, marketID, userID string) (*engine.Market, int64, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, 0, err
	}
	defer tx.Rollback()

	m, err := lockMarket(ctx, tx, marketID)
	if err != nil {
		return nil, 0, err
	}

	part, err := scanParticipant(tx.QueryRowContext(ctx,
		selectParticipant+` WHERE market_id=$1 AND user_id=$2 FOR UPDATE`, marketID, userID))
	if err != nil {
		return nil, 0, err
	}

	reward, err := m.Withdraw(part)
	if err != nil {
		return nil, 0, err
	}

	if _, err = tx.ExecContext(ctx,
		`UPDATE participants SET has_withdrawn=true WHERE market_id=$1 AND user_id=$2`,
		marketID, userID); err != nil {
		return nil, 0, err
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE markets SET escrow_cents=$1 WHERE id=$2`, m.EscrowCents, marketID); err != nil {
		return nil, 0, err
	}
	if err = creditAccount(ctx, tx, userID, reward); err != nil {
		return nil, 0, err
	}
	if err = insertLedger(ctx, tx, marketID, userID, "REWARD", reward, "reward:"+userID); err != nil {
		return nil, 0, err
	}

	if err = tx.Commit(); err != nil {
		return nil, 0, err
	}
	return m, reward, nil
}

const selectMarket = `
	SELECT id, registry_id, creator, match_id, entry_fee_cents, kickoff_at, end_at, is_public,
	       creator_fee_bps, platform_fee_bps, status, outcome, total_pool_cents, escrow_cents,
	       participant_count, home_count, draw_count, away_count, created_at
	FROM markets`

const selectParticipant = `
	SELECT market_id, user_id, prediction, joined_at, has_withdrawn
	FROM participants`

type rowScanner interface {
	Scan(dest ...any) error
}

func lockMarket(ctx context.Context, tx *sql.Tx, marketID string) (*engine.Market, error) {
	return scanMarket(tx.QueryRowContext(ctx, selectMarket+` WHERE id=$1 FOR UPDATE`, marketID))
}

func scanMarket(row rowScanner) (*engine.Market, error) {
	var (
		m          engine.Market
		status     string
		outcome    sql.NullString
		cBps, pBps int32
	)
	err := row.Scan(&m.ID, &m.RegistryID, &m.Creator, &m.MatchID, &m.EntryFeeCents,
		&m.Kickoff, &m.End, &m.Public, &cBps, &pBps, &status, &outcome,
		&m.TotalPoolCents, &m.EscrowCents, &m.ParticipantCount,
		&m.HomeCount, &m.DrawCount, &m.AwayCount, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrMarketNotFound
	} else if err != nil {
		return nil, err
	}

	m.Fees = engine.FeeSchedule{CreatorBps: uint16(cBps), PlatformBps: uint16(pBps)}
	if m.Status, err = engine.ParseStatus(status); err != nil {
		return nil, fmt.Errorf("market %s: %w", m.ID, err)
	}
	if outcome.Valid {
		if m.Outcome, err = engine.ParseOutcome(outcome.String); err != nil {
			return nil, fmt.Errorf("market %s: %w", m.ID, err)
		}
	}
	return &m, nil
}

func scanParticipant(row rowScanner) (*engine.Participant, error) {
	var (
		p    engine.Participant
		pred string
	)
	err := row.Scan(&p.MarketID, &p.UserID, &pred, &p.JoinedAt, &p.HasWithdrawn)
	if err == sql.ErrNoRows {
		return nil, ErrNotParticipant
	} else if err != nil {
		return nil, err
	}
	if p.Prediction, err = engine.ParseOutcome(pred); err != nil {
		return nil, fmt.Errorf("participant %s/%s: %w", p.MarketID, p.UserID, err)
	}
	return &p, nil
}

// updateMarketAccounting persiste os agregados mutáveis depois de um join
func updateMarketAccounting(ctx context.Context, tx *sql.Tx, m *engine.Market) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE markets
		SET total_pool_cents = $1, escrow_cents = $2, participant_count = $3,
		    home_count = $4, draw_count = $5, away_count = $6
		WHERE id = $7`,
		m.TotalPoolCents, m.EscrowCents, m.ParticipantCount,
		m.HomeCount, m.DrawCount, m.AwayCount, m.ID)
	return err
}

func creditAccount(ctx context.Context, tx *sql.Tx, userID string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO accounts(user_id, balance_cents, version) VALUES($1,$2,1)
		ON CONFLICT (user_id) DO UPDATE
		SET balance_cents = accounts.balance_cents + EXCLUDED.balance_cents,
		    version = accounts.version + 1`,
		userID, amount)
	return err
}

func insertLedger(ctx context.Context, tx *sql.Tx, marketID, accountID, opType string, amount int64, description string) error {
	var mkt any
	if marketID != "" {
		mkt = marketID
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO market_ledger(id, market_id, account_id, operation_type, amount_cents, description)
		VALUES($1,$2,$3,$4,$5,$6)`,
		uuid.NewString(), mkt, accountID, opType, amount, description)
	return err
}
