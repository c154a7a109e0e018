package topics

const (
	// Ciclo de vida do mercado
	MarketCreated  = "market_created"
	PredictionMade = "prediction_made"
	MarketResolved = "market_resolved"

	// Liquidação
	FeesDistributed = "fees_distributed"
	RewardClaimed   = "reward_claimed"
)
