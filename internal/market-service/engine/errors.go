package engine

import "errors"

// Erros de validação (entrada malformada, rejeitada antes de qualquer mutação)
var (
	ErrEmptyMatchID       = errors.New("match id cannot be empty")
	ErrMatchIDTooLong     = errors.New("match id too long (max 64 bytes)")
	ErrZeroEntryFee       = errors.New("entry fee must be greater than zero")
	ErrKickoffNotFuture   = errors.New("kickoff time must be in the future")
	ErrEndBeforeKickoff   = errors.New("end time must be after kickoff time")
	ErrFeeScheduleTooHigh = errors.New("fee schedule exceeds 10000 bps")
	ErrInvalidPrediction  = errors.New("invalid prediction")
	ErrInvalidStatus      = errors.New("invalid market status")
)

// Erros de estado/tempo do ciclo de vida
var (
	ErrMarketNotOpen     = errors.New("market is not open for joining")
	ErrMarketStarted     = errors.New("market has already started")
	ErrAlreadyResolved   = errors.New("market is already resolved")
	ErrMarketNotEnded    = errors.New("market has not ended yet")
	ErrMarketNotResolved = errors.New("market is not resolved yet")
)

// Erros de liquidação
var (
	ErrAlreadyWithdrawn = errors.New("rewards already withdrawn")
	ErrNotAWinner       = errors.New("participant is not a winner")
	ErrNoWinners        = errors.New("no winners in this market")
)

// Autorização
var ErrUnauthorizedResolver = errors.New("resolver not authorized for this market")

// Aritmética: qualquer soma/multiplicação que estouraria aborta a operação inteira
var ErrOverflow = errors.New("arithmetic overflow")

// Fundos: o escrow nunca deveria ficar abaixo do necessário se a conservação do
// pool vale; se acontecer é falha de integridade, não caso de retry
var ErrInsufficientEscrow = errors.New("insufficient escrow balance")
