package processor

import (
	"fmt"
	"sort"

	"bitcraftsd/logger"
	"bitcraftsd/models"
)

// ReportBuilder turns market snapshots into overlap report rows.
type ReportBuilder struct {
	Log      *logger.Log
	MaxDepth int64
}

// BuildReportRow builds a row without logging.
func BuildReportRow(snapshot *models.MarketSnapshot, filter OrderPredicate) (models.ReportRow, error) {
	return ReportBuilder{}.Build(snapshot, filter)
}

// Build normalises both sides of the snapshot, keeps the tiers accepted by
// filter, and overlaps the per-unit demand and supply prices. The unit
// price arrays start at the zero-depth point, so Quantity is the number of
// units traded.
func (b ReportBuilder) Build(snapshot *models.MarketSnapshot, filter OrderPredicate) (models.ReportRow, error) {
	normalizer := OrderNormalizer{Log: b.Log}
	buys, err := normalizer.Normalize(models.SideBuy, snapshot.BuyOrders)
	if err != nil {
		return models.ReportRow{}, fmt.Errorf("%s buy orders: %w", snapshot.Name, err)
	}
	sells, err := normalizer.Normalize(models.SideSell, snapshot.SellOrders)
	if err != nil {
		return models.ReportRow{}, fmt.Errorf("%s sell orders: %w", snapshot.Name, err)
	}

	buys = Segment(buys, filter)
	sells = Segment(sells, filter)
	if buys.IsEmpty() || sells.IsEmpty() {
		return models.ReportRow{}, fmt.Errorf("%s: %w", snapshot.Name, ErrOneSidedMarket)
	}

	builder := CurveBuilder{Log: b.Log, MaxDepth: b.MaxDepth}
	demand, err := builder.Build(buys)
	if err != nil {
		return models.ReportRow{}, fmt.Errorf("%s demand curve: %w", snapshot.Name, err)
	}
	supply, err := builder.Build(sells)
	if err != nil {
		return models.ReportRow{}, fmt.Errorf("%s supply curve: %w", snapshot.Name, err)
	}

	ov, err := ProfitOverlap(demand.UnitPrices(), supply.UnitPrices())
	if err != nil {
		return models.ReportRow{}, fmt.Errorf("%s: %w", snapshot.Name, err)
	}

	if b.Log != nil {
		b.Log.WithComponent("report").WithFields(logger.Fields{
			"item":         snapshot.Name,
			"quantity":     ov.Quantity,
			"total_profit": ov.TotalProfit,
		}).Debug("computed profit overlap")
	}

	return models.ReportRow{
		Name:         snapshot.Name,
		ItemType:     snapshot.Category,
		Quantity:     int64(ov.Quantity),
		MaxSellOrder: ov.MaxSellOrder,
		MinBuyOrder:  ov.MinBuyOrder,
		TotalSpend:   ov.TotalSpend,
		TotalIncome:  ov.TotalIncome,
		TotalProfit:  ov.TotalProfit,
	}, nil
}

// FinalizeReport keeps strictly profitable rows, most profitable first.
func FinalizeReport(rows []models.ReportRow) []models.ReportRow {
	out := make([]models.ReportRow, 0, len(rows))
	for _, r := range rows {
		if r.TotalProfit > 0 {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].TotalProfit > out[b].TotalProfit })
	return out
}
