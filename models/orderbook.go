package models

import "math"

// Side identifies which half of an item's market an order belongs to.
type Side int

const (
	SideBuy Side = iota
	SideSell
)

func (s Side) String() string {
	switch s {
	case SideBuy:
		return "buy"
	case SideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// Order is one normalised price tier of an order book.
type Order struct {
	PriceThreshold int64  `json:"priceThreshold"`
	Quantity       int64  `json:"quantity"`
	RegionName     string `json:"regionName"`
	ClaimEntityID  string `json:"claimEntityId"`
	ClaimName      string `json:"claimName"`
	StoredCoins    int64  `json:"storedCoins"`
}

// OrderSequence is either a present, non-empty list of tiers sorted by the
// side's priority, or the explicit "no orders" variant. The zero value is an
// empty buy sequence.
type OrderSequence struct {
	side    Side
	present bool
	orders  []Order
}

// PresentOrders wraps sorted tiers. An empty slice yields NoOrders.
func PresentOrders(side Side, orders []Order) OrderSequence {
	if len(orders) == 0 {
		return NoOrders(side)
	}
	cp := make([]Order, len(orders))
	copy(cp, orders)
	return OrderSequence{side: side, present: true, orders: cp}
}

// NoOrders is the sentinel for a side with nothing to build a curve from.
func NoOrders(side Side) OrderSequence {
	return OrderSequence{side: side}
}

func (s OrderSequence) Side() Side { return s.side }

func (s OrderSequence) IsEmpty() bool { return !s.present }

func (s OrderSequence) Len() int { return len(s.orders) }

// At returns the tier at position i in priority order.
func (s OrderSequence) At(i int) Order { return s.orders[i] }

// Orders returns a copy of the tiers in priority order.
func (s OrderSequence) Orders() []Order {
	cp := make([]Order, len(s.orders))
	copy(cp, s.orders)
	return cp
}

// TotalQuantity sums the quantity of every tier, saturating at
// math.MaxInt64.
func (s OrderSequence) TotalQuantity() int64 {
	var total int64
	for _, o := range s.orders {
		if o.Quantity <= 0 {
			continue
		}
		if o.Quantity > math.MaxInt64-total {
			return math.MaxInt64
		}
		total += o.Quantity
	}
	return total
}

// Curve maps cumulative traded units to the cumulative price of those units.
// Q[i] == i and PTot[0] == 0; PTot is non-decreasing.
type Curve struct {
	Side Side    `json:"side"`
	Q    []int64 `json:"q"`
	PTot []int64 `json:"p_tot"`
}

// TotalQuantity is the deepest unit on the curve.
func (c Curve) TotalQuantity() int64 {
	if len(c.Q) == 0 {
		return 0
	}
	return c.Q[len(c.Q)-1]
}

// AveragePrice is the transaction-averaged price of the first i units.
// Depth zero has no average and yields NaN.
func (c Curve) AveragePrice(i int) float64 {
	if i <= 0 || i >= len(c.PTot) {
		return math.NaN()
	}
	return float64(c.PTot[i]) / float64(i)
}

// AveragePrices returns AveragePrice for depths 1..TotalQuantity.
func (c Curve) AveragePrices() []float64 {
	if len(c.PTot) < 2 {
		return nil
	}
	out := make([]float64, len(c.PTot)-1)
	for i := 1; i < len(c.PTot); i++ {
		out[i-1] = float64(c.PTot[i]) / float64(i)
	}
	return out
}

// UnitPrices returns the price paid for each unit in trade-priority order.
// Index 0 is the zero-depth point and is always 0.
func (c Curve) UnitPrices() []int64 {
	if len(c.PTot) == 0 {
		return nil
	}
	out := make([]int64, len(c.PTot))
	for i := 1; i < len(c.PTot); i++ {
		out[i] = c.PTot[i] - c.PTot[i-1]
	}
	return out
}

// CurveScope says which slice of the order book a curve was built from.
type CurveScope int

const (
	ScopeGlobal CurveScope = iota
	ScopeRegion
	ScopeClaim
)

func (s CurveScope) String() string {
	switch s {
	case ScopeGlobal:
		return "global"
	case ScopeRegion:
		return "region"
	case ScopeClaim:
		return "claim"
	default:
		return "unknown"
	}
}

// NamedCurve is a curve with the label it is plotted and stored under.
type NamedCurve struct {
	Label string
	Scope CurveScope
	Curve Curve
}
