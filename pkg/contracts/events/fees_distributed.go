package events

type FeesDistributed struct {
	MarketID         string `json:"market_id"`
	Creator          string `json:"creator"`
	CreatorFeeCents  int64  `json:"creator_fee_cents"`
	PlatformFeeCents int64  `json:"platform_fee_cents"`
	TsUnixMs         int64  `json:"ts_unix_ms"`
}
