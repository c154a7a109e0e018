package dto

// MarketResponse é o snapshot público de um mercado; também é o payload
// guardado no cache Redis
type MarketResponse struct {
	MarketID         string `json:"market_id"`
	Creator          string `json:"creator"`
	MatchID          string `json:"match_id"`
	EntryFeeCents    int64  `json:"entry_fee_cents"`
	KickoffUnix      int64  `json:"kickoff_unix"`
	EndUnix          int64  `json:"end_unix"`
	Public           bool   `json:"public"`
	Status           string `json:"status"`
	Outcome          string `json:"outcome,omitempty"`
	TotalPoolCents   int64  `json:"total_pool_cents"`
	ParticipantCount int64  `json:"participant_count"`
	HomeCount        int64  `json:"home_count"`
	DrawCount        int64  `json:"draw_count"`
	AwayCount        int64  `json:"away_count"`
	CreatorFeeBps    uint16 `json:"creator_fee_bps"`
	PlatformFeeBps   uint16 `json:"platform_fee_bps"`
}

type JoinResponse struct {
	MarketID         string `json:"market_id"`
	UserID           string `json:"userId"`
	Prediction       string `json:"prediction"`
	PoolCents        int64  `json:"pool_cents"`
	ParticipantCount int64  `json:"participant_count"`
}

type ResolveResponse struct {
	MarketID         string `json:"market_id"`
	Outcome          string `json:"outcome"`
	WinnerCount      int64  `json:"winner_count"`
	CreatorFeeCents  int64  `json:"creator_fee_cents"`
	PlatformFeeCents int64  `json:"platform_fee_cents"`
	PrizePoolCents   int64  `json:"prize_pool_cents"`
}

type WithdrawResponse struct {
	MarketID    string `json:"market_id"`
	UserID      string `json:"userId"`
	RewardCents int64  `json:"reward_cents"`
	Status      string `json:"status"` // "PAID"
}

type AccountResponse struct {
	UserID       string `json:"userId"`
	BalanceCents int64  `json:"balance_cents"`
}
