package events

// Evento publicado no tópico "market_resolved"; consumido pelo stats-worker
type MarketResolved struct {
	MarketID       string `json:"market_id"`
	Resolver       string `json:"resolver"`
	Outcome        string `json:"outcome"` // "HOME" | "DRAW" | "AWAY"
	WinnerCount    int64  `json:"winner_count"`
	TotalPoolCents int64  `json:"total_pool_cents"`
	TsUnixMs       int64  `json:"ts_unix_ms"`
}
