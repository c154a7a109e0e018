package registry

import (
	"errors"
	"math"

	"github.com/radieske/prediction-market-platform-poc/internal/market-service/engine"
)

var (
	ErrFeeAboveCeiling  = errors.New("fee schedule above registry ceiling")
	ErrDuplicateMatchID = errors.New("match already has a market")
	ErrRegistryFull     = errors.New("registry market counter exhausted")
	ErrFactoryNotFound  = errors.New("factory not provisioned")
)

// Record identifica um mercado recém registrado
type Record struct {
	MarketID   string
	RegistryID string
}

// ValidateSchedule aplica o teto global de taxas da fábrica, mais restrito
// que o limite de 100% do motor
func ValidateSchedule(fs engine.FeeSchedule, ceilingBps uint16) error {
	if err := fs.Validate(); err != nil {
		return err
	}
	if fs.TotalBps() > uint32(ceilingBps) {
		return ErrFeeAboveCeiling
	}
	return nil
}

// nextCount incrementa o contador de mercados da fábrica com verificação de estouro
func nextCount(current int64) (int64, error) {
	if current == math.MaxInt64 {
		return 0, ErrRegistryFull
	}
	return current + 1, nil
}
