package processor

// Overlap is the most profitable stretch of matching a demand curve
// against a supply curve unit by unit.
type Overlap struct {
	Quantity     int
	MinBuyOrder  int64
	MaxSellOrder int64
	TotalSpend   int64
	TotalIncome  int64
	TotalProfit  int64
}

// ProfitOverlap pairs the i-th buy price with the i-th sell price and finds
// the last index where buying from the sell side and selling into the buy
// side does not lose money. Sums run over indices 0..Quantity inclusive.
func ProfitOverlap(buy, sell []int64) (Overlap, error) {
	n := len(buy)
	if len(sell) < n {
		n = len(sell)
	}

	last := -1
	for i := 0; i < n; i++ {
		if buy[i]-sell[i] >= 0 {
			last = i
		}
	}
	if last < 0 {
		return Overlap{}, &NoProfitableTradeError{Depth: n}
	}

	ov := Overlap{
		Quantity:     last,
		MinBuyOrder:  buy[last],
		MaxSellOrder: sell[last],
	}
	for i := 0; i <= last; i++ {
		ov.TotalIncome += buy[i]
		ov.TotalSpend += sell[i]
	}
	ov.TotalProfit = ov.TotalIncome - ov.TotalSpend
	return ov, nil
}
