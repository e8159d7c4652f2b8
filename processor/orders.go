package processor

import (
	"encoding/json"
	"errors"
	"sort"

	"bitcraftsd/logger"
	"bitcraftsd/models"
)

// OrderNormalizer turns raw API order records into sorted order sequences.
type OrderNormalizer struct {
	Log *logger.Log
}

// NormalizeOrders normalises without logging dropped tiers.
func NormalizeOrders(side models.Side, raw []models.RawOrder) (models.OrderSequence, error) {
	return OrderNormalizer{}.Normalize(side, raw)
}

// Normalize coerces price and quantity to integers and sorts the tiers by
// price, descending for buys and ascending for sells. Tiers with no
// quantity are dropped. A malformed storedCoins value reads as 0.
func (n OrderNormalizer) Normalize(side models.Side, raw []models.RawOrder) (models.OrderSequence, error) {
	if len(raw) == 0 {
		return models.NoOrders(side), nil
	}

	orders := make([]models.Order, 0, len(raw))
	dropped := 0
	for i, r := range raw {
		price, err := models.ParseWholeNumber(r.PriceThreshold)
		if err != nil {
			return models.NoOrders(side), malformed(i, "priceThreshold", r.PriceThreshold, err)
		}
		if price < 0 {
			return models.NoOrders(side), malformed(i, "priceThreshold", r.PriceThreshold, errors.New("negative price"))
		}
		qty, err := models.ParseWholeNumber(r.Quantity)
		if err != nil {
			return models.NoOrders(side), malformed(i, "quantity", r.Quantity, err)
		}

		coins, err := storedCoins(r)
		if err != nil {
			// A bad value reads as 0.
			if n.Log != nil {
				n.Log.WithComponent("orders").WithError(err).WithFields(logger.Fields{
					"side":  side.String(),
					"index": i,
				}).Debug("ignoring malformed storedCoins")
			}
			coins = 0
		}

		if qty <= 0 {
			dropped++
			continue
		}

		orders = append(orders, models.Order{
			PriceThreshold: price,
			Quantity:       qty,
			RegionName:     r.RegionName,
			ClaimEntityID:  string(r.ClaimEntityID),
			ClaimName:      r.ClaimName,
			StoredCoins:    coins,
		})
	}

	if dropped > 0 && n.Log != nil {
		n.Log.WithComponent("orders").WithFields(logger.Fields{
			"side":    side.String(),
			"dropped": dropped,
			"kept":    len(orders),
		}).Debug("dropped order tiers without quantity")
	}

	if side == models.SideBuy {
		sort.SliceStable(orders, func(a, b int) bool { return orders[a].PriceThreshold > orders[b].PriceThreshold })
	} else {
		sort.SliceStable(orders, func(a, b int) bool { return orders[a].PriceThreshold < orders[b].PriceThreshold })
	}

	return models.PresentOrders(side, orders), nil
}

// storedCoins reads the escrowed coins of a record. Absent means 0.
func storedCoins(r models.RawOrder) (int64, error) {
	if len(r.StoredCoins) == 0 {
		return 0, nil
	}
	coins, err := models.ParseWholeNumber(r.StoredCoins)
	if errors.Is(err, models.ErrMissingNumber) {
		return 0, nil
	}
	return coins, err
}

func malformed(index int, field string, raw json.RawMessage, err error) *MalformedOrderError {
	return &MalformedOrderError{Index: index, Field: field, Raw: string(raw), Err: err}
}
