package engine

import "time"

// MaxMatchIDLen limita o match_id para registros de tamanho fixo no banco
const MaxMatchIDLen = 64

// Market é a raiz do agregado: escrow + máquina de estados de um evento.
// EscrowCents é o recurso compartilhado: só Join (crédito), Resolve (débito de
// taxas) e Withdraw (débito de prêmio) podem mutá-lo.
type Market struct {
	ID         string
	RegistryID string
	Creator    string
	MatchID    string

	EntryFeeCents int64
	Kickoff       time.Time
	End           time.Time
	Public        bool
	Fees          FeeSchedule

	Status  Status
	Outcome Outcome // OutcomeNone até a resolução

	TotalPoolCents   int64
	EscrowCents      int64
	ParticipantCount int64
	HomeCount        int64
	DrawCount        int64
	AwayCount        int64

	CreatedAt time.Time
}

// Participant é a predição única de um usuário contra um mercado.
// HasWithdrawn é monotônico: vai de false para true exatamente uma vez.
type Participant struct {
	MarketID     string
	UserID       string
	Prediction   Outcome
	JoinedAt     time.Time
	HasWithdrawn bool
}

// ValidateNewMarket aplica as pré-condições de criação sem construir nada
func ValidateNewMarket(matchID string, entryFeeCents int64, kickoff, end time.Time, fs FeeSchedule, now time.Time) error {
	if matchID == "" {
		return ErrEmptyMatchID
	}
	if len(matchID) > MaxMatchIDLen {
		return ErrMatchIDTooLong
	}
	if entryFeeCents <= 0 {
		return ErrZeroEntryFee
	}
	if !kickoff.After(now) {
		return ErrKickoffNotFuture
	}
	if !end.After(kickoff) {
		return ErrEndBeforeKickoff
	}
	return fs.Validate()
}

// NewMarket cria um mercado OPEN com pool e contadores zerados.
// Falha de validação não cria estado parcial algum.
func NewMarket(id, registryID, creator, matchID string, entryFeeCents int64, kickoff, end time.Time, public bool, fs FeeSchedule, now time.Time) (*Market, error) {
	if err := ValidateNewMarket(matchID, entryFeeCents, kickoff, end, fs, now); err != nil {
		return nil, err
	}
	return &Market{
		ID:            id,
		RegistryID:    registryID,
		Creator:       creator,
		MatchID:       matchID,
		EntryFeeCents: entryFeeCents,
		Kickoff:       kickoff,
		End:           end,
		Public:        public,
		Fees:          fs,
		Status:        StatusOpen,
		Outcome:       OutcomeNone,
		CreatedAt:     now,
	}, nil
}

// Join registra a predição de um usuário e credita a taxa de entrada no escrow.
// Unicidade por (market, user) é garantida pelo substrato transacional; aqui
// ficam as pré-condições de estado e a contabilidade com soma verificada.
// Em qualquer erro o mercado permanece intocado.
func (m *Market) Join(userID string, prediction Outcome, now time.Time) (*Participant, error) {
	if m.Status != StatusOpen {
		return nil, ErrMarketNotOpen
	}
	if !now.Before(m.Kickoff) {
		return nil, ErrMarketStarted
	}
	if !prediction.Valid() {
		return nil, ErrInvalidPrediction
	}

	pool, err := checkedAdd(m.TotalPoolCents, m.EntryFeeCents)
	if err != nil {
		return nil, err
	}
	escrow, err := checkedAdd(m.EscrowCents, m.EntryFeeCents)
	if err != nil {
		return nil, err
	}
	count, err := checkedAdd(m.ParticipantCount, 1)
	if err != nil {
		return nil, err
	}

	home, draw, away := m.HomeCount, m.DrawCount, m.AwayCount
	switch prediction {
	case OutcomeHome:
		if home, err = checkedAdd(home, 1); err != nil {
			return nil, err
		}
	case OutcomeDraw:
		if draw, err = checkedAdd(draw, 1); err != nil {
			return nil, err
		}
	case OutcomeAway:
		if away, err = checkedAdd(away, 1); err != nil {
			return nil, err
		}
	}

	m.TotalPoolCents = pool
	m.EscrowCents = escrow
	m.ParticipantCount = count
	m.HomeCount, m.DrawCount, m.AwayCount = home, draw, away

	return &Participant{
		MarketID:   m.ID,
		UserID:     userID,
		Prediction: prediction,
		JoinedAt:   now,
	}, nil
}

// Resolve fixa o resultado e debita as taxas do escrow (convenção eager: as
// taxas saem na resolução; withdraw recalcula a mesma tabela só para o rateio).
// Exatamente uma chamada pode ter sucesso por mercado; as demais falham com
// ErrAlreadyResolved sem tocar em status/outcome.
func (m *Market) Resolve(resolver string, isParticipant bool, policy ResolvePolicy, outcome Outcome, now time.Time) (FeeBreakdown, error) {
	if m.Status == StatusResolved {
		return FeeBreakdown{}, ErrAlreadyResolved
	}
	if now.Before(m.End) {
		return FeeBreakdown{}, ErrMarketNotEnded
	}
	if err := policy.Authorize(m, resolver, isParticipant); err != nil {
		return FeeBreakdown{}, err
	}
	if !outcome.Valid() {
		return FeeBreakdown{}, ErrInvalidPrediction
	}

	fees, err := ComputeFees(m.TotalPoolCents, m.Fees)
	if err != nil {
		return FeeBreakdown{}, err
	}
	if fees.TotalCents > m.EscrowCents {
		return FeeBreakdown{}, ErrInsufficientEscrow
	}

	m.Status = StatusResolved
	m.Outcome = outcome
	m.EscrowCents -= fees.TotalCents

	return fees, nil
}

// WinnerCount conta os participantes cuja predição bate com o outcome dado
func (m *Market) WinnerCount(o Outcome) int64 {
	switch o {
	case OutcomeHome:
		return m.HomeCount
	case OutcomeDraw:
		return m.DrawCount
	case OutcomeAway:
		return m.AwayCount
	default:
		return 0
	}
}

// Withdraw paga o prêmio de um vencedor exatamente uma vez. Recalcula as taxas
// com a mesma tabela da resolução (o pool permanece bruto, o escrow já está
// líquido) e debita reward = floor(prize / winners) do escrow. O resto da
// divisão fica retido.
func (m *Market) Withdraw(p *Participant) (int64, error) {
	if m.Status != StatusResolved {
		return 0, ErrMarketNotResolved
	}
	if p.HasWithdrawn {
		return 0, ErrAlreadyWithdrawn
	}
	if p.Prediction != m.Outcome {
		return 0, ErrNotAWinner
	}

	winners := m.WinnerCount(m.Outcome)
	if winners == 0 {
		return 0, ErrNoWinners
	}

	fees, err := ComputeFees(m.TotalPoolCents, m.Fees)
	if err != nil {
		return 0, err
	}
	reward, _, err := RewardPerWinner(fees.PrizeCents, winners)
	if err != nil {
		return 0, err
	}
	if reward > m.EscrowCents {
		return 0, ErrInsufficientEscrow
	}

	m.EscrowCents -= reward
	p.HasWithdrawn = true

	return reward, nil
}
