package events

type RewardClaimed struct {
	MarketID    string `json:"market_id"`
	UserID      string `json:"user_id"`
	AmountCents int64  `json:"amount_cents"`
	TsUnixMs    int64  `json:"ts_unix_ms"`
}
