package processor

import (
	"sort"

	"bitcraftsd/models"
)

// OtherMarketsLabel names the bucket holding everything outside the top N.
const OtherMarketsLabel = "All Other Markets"

// HoldingsMetric selects what is summed per claim.
type HoldingsMetric int

const (
	// CoinsInBuyOrders sums the coins escrowed by buy orders.
	CoinsInBuyOrders HoldingsMetric = iota
	// GoodsInSellOrders sums the units listed by sell orders.
	GoodsInSellOrders
)

func (m HoldingsMetric) String() string {
	switch m {
	case CoinsInBuyOrders:
		return "coins_in_buy_orders"
	case GoodsInSellOrders:
		return "goods_in_sell_orders"
	default:
		return "unknown"
	}
}

// Label is the axis label used for charts of this metric.
func (m HoldingsMetric) Label() string {
	if m == GoodsInSellOrders {
		return "Total Goods in Sell Orders"
	}
	return "Total Ħ in Buy Orders"
}

// HoldingsRanking is every claim ranked by amount, the top N of them and
// the sum of the rest.
type HoldingsRanking struct {
	Metric HoldingsMetric
	Ranked []models.ClaimHolding
	Top    []models.ClaimHolding
	Other  int64
	Total  int64
}

// HoldingRecords reads every raw record of one side for RankHoldings.
// Unlike curve normalisation it keeps records of any quantity and parses
// only the field the metric sums: storedCoins for coins (absent is 0) or
// quantity for goods. Records are not sorted.
func HoldingRecords(metric HoldingsMetric, raw []models.RawOrder) ([]models.Order, error) {
	out := make([]models.Order, 0, len(raw))
	for i, r := range raw {
		o := models.Order{
			RegionName:    r.RegionName,
			ClaimEntityID: string(r.ClaimEntityID),
			ClaimName:     r.ClaimName,
		}
		switch metric {
		case CoinsInBuyOrders:
			coins, err := storedCoins(r)
			if err != nil {
				return nil, malformed(i, "storedCoins", r.StoredCoins, err)
			}
			o.StoredCoins = coins
		default:
			qty, err := models.ParseWholeNumber(r.Quantity)
			if err != nil {
				return nil, malformed(i, "quantity", r.Quantity, err)
			}
			o.Quantity = qty
		}
		out = append(out, o)
	}
	return out, nil
}

type claimKey struct {
	id   string
	name string
}

// RankHoldings groups orders by claim and ranks claims by the metric,
// largest first. Ties keep the order claims first appeared in.
func RankHoldings(orders []models.Order, metric HoldingsMetric, topN int) HoldingsRanking {
	index := make(map[claimKey]int)
	holdings := make([]models.ClaimHolding, 0)
	for _, o := range orders {
		amount := o.Quantity
		if metric == CoinsInBuyOrders {
			amount = o.StoredCoins
		}
		key := claimKey{id: o.ClaimEntityID, name: o.ClaimName}
		i, ok := index[key]
		if !ok {
			i = len(holdings)
			index[key] = i
			holdings = append(holdings, models.ClaimHolding{ClaimEntityID: o.ClaimEntityID, ClaimName: o.ClaimName})
		}
		holdings[i].Amount += amount
	}

	sort.SliceStable(holdings, func(a, b int) bool { return holdings[a].Amount > holdings[b].Amount })

	ranking := HoldingsRanking{Metric: metric, Ranked: holdings}
	for i := range holdings {
		holdings[i].Rank = i + 1
		ranking.Total += holdings[i].Amount
	}

	if topN < 0 {
		topN = 0
	}
	if topN > len(holdings) {
		topN = len(holdings)
	}
	ranking.Top = holdings[:topN]
	for _, h := range holdings[topN:] {
		ranking.Other += h.Amount
	}
	return ranking
}

// Bars returns the top claims followed by the "All Other Markets" bucket.
func (r HoldingsRanking) Bars() ([]string, []int64) {
	names := make([]string, 0, len(r.Top)+1)
	values := make([]int64, 0, len(r.Top)+1)
	for _, h := range r.Top {
		names = append(names, h.ClaimName)
		values = append(values, h.Amount)
	}
	names = append(names, OtherMarketsLabel)
	values = append(values, r.Other)
	return names, values
}
