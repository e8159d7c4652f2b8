// Package pipeline runs the curve viewer, the overlap report and the market
// comparison against a market data source.
package pipeline

import (
	"context"
	"errors"
	"time"

	"bitcraftsd/config"
	"bitcraftsd/logger"
	"bitcraftsd/models"
	"bitcraftsd/reader/bitjita"
)

// MarketSource is the part of the bitjita client the pipelines use.
type MarketSource interface {
	GetMarket(ctx context.Context, category, itemID string) (*models.MarketSnapshot, error)
	ListMarketItems(ctx context.Context) ([]models.ListedItem, error)
}

var _ MarketSource = (*bitjita.Client)(nil)

// marketWalk visits every listed market one request at a time. Failed
// requests are logged, cooled down and recorded as skipped.
type marketWalk struct {
	source    MarketSource
	cooldown  time.Duration
	watchlist *config.Watchlist
	log       *logger.Entry

	// requireBothSides drops listings flagged as one-sided.
	requireBothSides bool

	skipped []string
	visited int
}

func (w *marketWalk) run(ctx context.Context, visit func(models.ListedItem, *models.MarketSnapshot) error) error {
	items, err := w.source.ListMarketItems(ctx)
	if err != nil {
		return err
	}

	total := len(items)
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if i%10 == 0 {
			w.log.WithFields(logger.Fields{
				"done":    i,
				"total":   total,
				"percent": percent(i, total),
			}).Info("market walk progress")
		}

		if w.requireBothSides && (!item.HasBuyOrders || !item.HasSellOrders) {
			continue
		}
		category, ok := models.CategoryForItemType(item.ItemType)
		if !ok {
			w.log.WithFields(logger.Fields{"item": item.Name, "item_type": item.ItemType}).Debug("skipping unknown item type")
			continue
		}
		id := string(item.ID)
		if !w.watchlist.Contains(category, id) {
			continue
		}

		snap, err := w.source.GetMarket(ctx, category, id)
		if err != nil {
			var reqErr *bitjita.MarketRequestError
			if !errors.As(err, &reqErr) {
				return err
			}
			w.log.WithError(err).WithFields(logger.Fields{"item": item.Name, "category": category}).Error("error querying bitjita")
			w.skipped = append(w.skipped, item.Name)
			logger.IncrementItemsSkipped()
			if err := sleepCtx(ctx, w.cooldown); err != nil {
				return err
			}
			continue
		}
		logger.IncrementItemsFetched()
		w.visited++

		if err := visit(item, snap); err != nil {
			return err
		}
	}

	w.log.WithFields(logger.Fields{"done": total, "total": total, "percent": 100.0}).Info("market walk complete")
	if len(w.skipped) > 0 {
		w.log.WithFields(logger.Fields{"skipped": w.skipped}).Warn("some items could not be fetched")
	}
	return nil
}

func percent(done, total int) float64 {
	if total == 0 {
		return 100
	}
	return float64(int(10000*float64(done)/float64(total))) / 100
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
