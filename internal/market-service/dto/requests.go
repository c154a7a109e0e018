package dto

type CreateMarketRequest struct {
	CreatorID      string `json:"creatorId"`
	MatchID        string `json:"match_id"` // ex: "EPL-2026-042"
	EntryFeeCents  int64  `json:"entry_fee_cents"`
	KickoffUnix    int64  `json:"kickoff_unix"`
	EndUnix        int64  `json:"end_unix"`
	Public         bool   `json:"public"`
	CreatorFeeBps  uint16 `json:"creator_fee_bps"`
	PlatformFeeBps uint16 `json:"platform_fee_bps"`
}

type JoinRequest struct {
	UserID     string `json:"userId"`
	Prediction string `json:"prediction"` // "home" | "draw" | "away"
}

type ResolveRequest struct {
	ResolverID string `json:"resolverId"`
	Outcome    string `json:"outcome"` // "home" | "draw" | "away"
}

type WithdrawRequest struct {
	UserID string `json:"userId"`
}

type DepositRequest struct {
	UserID      string `json:"userId"`
	AmountCents int64  `json:"amount_cents"`
	ExternalRef string `json:"external_ref,omitempty"` // opcional p/ rastreio
}
