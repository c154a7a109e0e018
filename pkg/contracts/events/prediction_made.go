package events

type PredictionMade struct {
	MarketID         string `json:"market_id"`
	UserID           string `json:"user_id"`
	Prediction       string `json:"prediction"` // "HOME" | "DRAW" | "AWAY"
	StakeCents       int64  `json:"stake_cents"`
	PoolCents        int64  `json:"pool_cents"` // pool após a entrada
	ParticipantCount int64  `json:"participant_count"`
	TsUnixMs         int64  `json:"ts_unix_ms"`
}
