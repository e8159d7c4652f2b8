package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitcraftsd/config"
	"bitcraftsd/logger"
	"bitcraftsd/models"
	"bitcraftsd/processor"
)

// CompareResult ranks claims by what they hold on each side of the market.
type CompareResult struct {
	Buy       processor.HoldingsRanking
	Sell      processor.HoldingsRanking
	Skipped   []string
	Processed int
}

// CompareRunner aggregates every order in the world market by claim.
type CompareRunner struct {
	source    MarketSource
	topN      int
	cooldown  time.Duration
	watchlist *config.Watchlist
	log       *logger.Log
}

func NewCompareRunner(source MarketSource, cfg *config.Config, watchlist *config.Watchlist, log *logger.Log) *CompareRunner {
	return &CompareRunner{
		source:    source,
		topN:      cfg.Report.TopN,
		cooldown:  cfg.Source.Bitjita.Cooldown,
		watchlist: watchlist,
		log:       log,
	}
}

func (c *CompareRunner) Run(ctx context.Context) (*CompareResult, error) {
	log := c.log.WithComponent("compare")
	walk := &marketWalk{
		source:    c.source,
		cooldown:  c.cooldown,
		watchlist: c.watchlist,
		log:       log,
	}

	var buys, sells []models.Order
	err := walk.run(ctx, func(item models.ListedItem, snap *models.MarketSnapshot) error {
		b, err := processor.HoldingRecords(processor.CoinsInBuyOrders, snap.BuyOrders)
		if err != nil {
			return fmt.Errorf("%s buy orders: %w", item.Name, err)
		}
		s, err := processor.HoldingRecords(processor.GoodsInSellOrders, snap.SellOrders)
		if err != nil {
			return fmt.Errorf("%s sell orders: %w", item.Name, err)
		}
		buys = append(buys, b...)
		sells = append(sells, s...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &CompareResult{
		Buy:       processor.RankHoldings(buys, processor.CoinsInBuyOrders, c.topN),
		Sell:      processor.RankHoldings(sells, processor.GoodsInSellOrders, c.topN),
		Skipped:   walk.skipped,
		Processed: walk.visited,
	}
	log.Infof("Buy Order Ranking\n%s", rankingTable(res.Buy))
	log.Infof("Sell Order Ranking\n%s", rankingTable(res.Sell))
	return res, nil
}

func rankingTable(r processor.HoldingsRanking) string {
	var b strings.Builder
	for _, h := range r.Ranked {
		fmt.Fprintf(&b, "%4d  %s\n", h.Rank, h.ClaimName)
	}
	return strings.TrimRight(b.String(), "\n")
}
