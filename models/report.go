package models

// ReportRow is one profitable item in the overlap report.
type ReportRow struct {
	Name         string `json:"name"`
	ItemType     string `json:"item_type"`
	Quantity     int64  `json:"quantity"`
	MaxSellOrder int64  `json:"max_sellOrder"`
	MinBuyOrder  int64  `json:"min_buyOrder"`
	TotalSpend   int64  `json:"total_spend"`
	TotalIncome  int64  `json:"total_income"`
	TotalProfit  int64  `json:"total_profit"`
}

// ClaimHolding is the amount a claim holds across one side of the market.
type ClaimHolding struct {
	ClaimEntityID string `json:"claim_entity_id"`
	ClaimName     string `json:"claim_name"`
	Amount        int64  `json:"amount"`
	Rank          int    `json:"rank"`
}
