package events

// Evento publicado no tópico "market_created" quando o registry emite um novo mercado
type MarketCreated struct {
	MarketID       string `json:"market_id"`
	Creator        string `json:"creator"`
	MatchID        string `json:"match_id"`
	EntryFeeCents  int64  `json:"entry_fee_cents"`
	KickoffUnix    int64  `json:"kickoff_unix"`
	EndUnix        int64  `json:"end_unix"`
	Public         bool   `json:"public"`
	CreatorFeeBps  uint16 `json:"creator_fee_bps"`
	PlatformFeeBps uint16 `json:"platform_fee_bps"`
	TsUnixMs       int64  `json:"ts_unix_ms"`
}
