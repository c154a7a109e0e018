package engine

// FeeSchedule é fixado na criação do mercado; a soma não pode passar de 100%
type FeeSchedule struct {
	CreatorBps  uint16
	PlatformBps uint16
}

func (f FeeSchedule) TotalBps() uint32 {
	return uint32(f.CreatorBps) + uint32(f.PlatformBps)
}

func (f FeeSchedule) Validate() error {
	if f.TotalBps() > 10_000 {
		return ErrFeeScheduleTooHigh
	}
	return nil
}

// FeeBreakdown é o resultado do cálculo de taxas sobre o pool bruto
type FeeBreakdown struct {
	CreatorCents  int64
	PlatformCents int64
	TotalCents    int64
	PrizeCents    int64 // pool − taxas; distribuído entre os vencedores
}

// ComputeFees calcula floor(pool × bps / 10000) para cada taxa a partir do pool
// bruto. A mesma tabela é usada em resolve() e withdraw(); as taxas saem do
// escrow uma única vez, na resolução.
func ComputeFees(poolCents int64, fs FeeSchedule) (FeeBreakdown, error) {
	creator, err := checkedMulBps(poolCents, fs.CreatorBps)
	if err != nil {
		return FeeBreakdown{}, err
	}
	platform, err := checkedMulBps(poolCents, fs.PlatformBps)
	if err != nil {
		return FeeBreakdown{}, err
	}
	total, err := checkedAdd(creator, platform)
	if err != nil {
		return FeeBreakdown{}, err
	}
	prize, err := checkedSub(poolCents, total)
	if err != nil {
		return FeeBreakdown{}, err
	}
	return FeeBreakdown{
		CreatorCents:  creator,
		PlatformCents: platform,
		TotalCents:    total,
		PrizeCents:    prize,
	}, nil
}

// RewardPerWinner divide o prêmio igualmente; o resto da divisão inteira fica
// retido no escrow e nunca é distribuído
func RewardPerWinner(prizeCents, winnerCount int64) (reward, remainder int64, err error) {
	if winnerCount <= 0 {
		return 0, 0, ErrNoWinners
	}
	reward = prizeCents / winnerCount
	remainder = prizeCents % winnerCount
	return reward, remainder, nil
}
