package pipeline

import (
	"context"
	"errors"
	"time"

	"bitcraftsd/config"
	"bitcraftsd/logger"
	"bitcraftsd/models"
	"bitcraftsd/processor"
)

// ReportResult is the outcome of one overlap report run.
type ReportResult struct {
	Rows      []models.ReportRow
	Skipped   []string
	Processed int
}

// ReportRunner computes the profit overlap of every listed item.
type ReportRunner struct {
	source    MarketSource
	region    string
	maxDepth  int64
	cooldown  time.Duration
	watchlist *config.Watchlist
	log       *logger.Log
}

func NewReportRunner(source MarketSource, cfg *config.Config, watchlist *config.Watchlist, log *logger.Log) *ReportRunner {
	return &ReportRunner{
		source:    source,
		region:    cfg.Report.Region,
		maxDepth:  cfg.Curve.MaxDepth,
		cooldown:  cfg.Source.Bitjita.Cooldown,
		watchlist: watchlist,
		log:       log,
	}
}

// Run walks the market listing and returns the profitable rows, most
// profitable first.
func (r *ReportRunner) Run(ctx context.Context) (*ReportResult, error) {
	log := r.log.WithComponent("report")
	var filter processor.OrderPredicate
	if r.region != "" {
		filter = processor.InRegion(r.region)
		log.WithFields(logger.Fields{"region": r.region}).Info("trimming orders to region")
	}

	builder := processor.ReportBuilder{Log: r.log, MaxDepth: r.maxDepth}
	walk := &marketWalk{
		source:           r.source,
		cooldown:         r.cooldown,
		watchlist:        r.watchlist,
		log:              log,
		requireBothSides: true,
	}

	var rows []models.ReportRow
	var oversized []string
	err := walk.run(ctx, func(item models.ListedItem, snap *models.MarketSnapshot) error {
		if snap.Name == "" {
			snap.Name = item.Name
		}
		row, err := builder.Build(snap, filter)
		var noTrade *processor.NoProfitableTradeError
		var tooDeep *processor.CurveTooDeepError
		switch {
		case errors.Is(err, processor.ErrOneSidedMarket), errors.As(err, &noTrade):
			log.WithFields(logger.Fields{"item": snap.Name}).WithError(err).Debug("no overlap")
			return nil
		case errors.As(err, &tooDeep):
			log.WithFields(logger.Fields{"item": snap.Name}).WithError(err).Warn("skipping item with oversized order book")
			oversized = append(oversized, snap.Name)
			logger.IncrementItemsSkipped()
			return nil
		case err != nil:
			return err
		}
		rows = append(rows, row)
		return nil
	})
	if err != nil {
		return nil, err
	}

	final := processor.FinalizeReport(rows)
	log.WithFields(logger.Fields{
		"visited":    walk.visited,
		"candidates": len(rows),
		"profitable": len(final),
		"skipped":    len(walk.skipped) + len(oversized),
	}).Info("report complete")

	skipped := append(append([]string{}, walk.skipped...), oversized...)
	return &ReportResult{Rows: final, Skipped: skipped, Processed: walk.visited}, nil
}
