package aggregator

import (
	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
)

// UserStats é o placar acumulado de um participante ao longo dos mercados
type UserStats struct {
	UserID           string
	MarketsEntered   int64
	Wins             int64
	Losses           int64
	TotalStakedCents int64
	TotalRewardCents int64
	CurrentStreak    int64 // positivo = vitórias seguidas, negativo = derrotas seguidas
	BestStreak       int64
}

// Settlement é o resultado de um participante em um mercado resolvido
type Settlement struct {
	MarketID    string
	UserID      string
	Won         bool
	StakeCents  int64
	RewardCents int64
}

// Apply incorpora um settlement ao placar do usuário. A sequência vira 1 (ou -1)
// quando o resultado quebra a direção atual
func (s *UserStats) Apply(st Settlement) {
	s.MarketsEntered++
	s.TotalStakedCents += st.StakeCents

	if st.Won {
		s.Wins++
		s.TotalRewardCents += st.RewardCents
		if s.CurrentStreak >= 0 {
			s.CurrentStreak++
		} else {
			s.CurrentStreak = 1
		}
		if s.CurrentStreak > s.BestStreak {
			s.BestStreak = s.CurrentStreak
		}
	} else {
		s.Losses++
		if s.CurrentStreak <= 0 {
			s.CurrentStreak--
		} else {
			s.CurrentStreak = -1
		}
	}
}

// SettleMarket produz um settlement por participante de um mercado resolvido.
// Vencedores recebem a recompensa por vencedor; perdedores, zero
func SettleMarket(m *engine.Market, parts []engine.Participant) ([]Settlement, error) {
	fees, err := engine.ComputeFees(m.TotalPoolCents, m.Fees)
	if err != nil {
		return nil, err
	}

	winners := m.WinnerCount(m.Outcome)
	var reward int64
	if winners > 0 {
		reward, _, err = engine.RewardPerWinner(fees.PrizeCents, winners)
		if err != nil {
			return nil, err
		}
	}

	out := make([]Settlement, 0, len(parts))
	for _, p := range parts {
		st := Settlement{
			MarketID:   m.ID,
			UserID:     p.UserID,
			StakeCents: m.EntryFeeCents,
		}
		if p.Prediction == m.Outcome {
			st.Won = true
			st.RewardCents = reward
		}
		out = append(out, st)
	}
	return out, nil
}
