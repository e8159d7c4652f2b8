package main

import (
	"context"
	"flag"
	"os"

	"bitcraftsd/chart"
	"bitcraftsd/config"
	"bitcraftsd/internal/app"
	"bitcraftsd/internal/pipeline"
	"bitcraftsd/logger"
	"bitcraftsd/reader/bitjita"
)

func main() {
	log := logger.GetLogger()
	app.LoadEnv(log)

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	chartPath := flag.String("chart", "world_markets.png", "Path of the market size chart")
	flag.Parse()

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	rt, err := app.Setup(ctx, log, "compare", *configPath)
	if err != nil {
		log.WithError(err).Error("Failed to start")
		os.Exit(1)
	}

	log.Info("===== BitCraft World Market Compare Starting =====")
	if err := run(ctx, rt, *chartPath); err != nil {
		log.WithError(err).Error("market compare failed")
		rt.Finish(ctx)
		os.Exit(1)
	}
	rt.Finish(ctx)
	log.Info("=== BitCraft World Market Compare Shutting Down ===")
}

func run(ctx context.Context, rt *app.Runtime, chartPath string) error {
	cfg := rt.Config

	client := bitjita.NewClient(cfg.Source.Bitjita, rt.Log)
	res, err := pipeline.NewCompareRunner(client, cfg, rt.Watchlist, rt.Log).Run(ctx)
	if err != nil {
		return err
	}

	entry := rt.Log.WithComponent("main")
	entry.WithFields(logger.Fields{
		"claims_buying":  len(res.Buy.Ranked),
		"claims_selling": len(res.Sell.Ranked),
		"coins_total":    res.Buy.Total,
		"goods_total":    res.Sell.Total,
	}).Info("market comparison complete")
	rt.Log.LogMetric("compare", "coins_in_buy_orders", res.Buy.Total, "gauge", nil)
	rt.Log.LogMetric("compare", "goods_in_sell_orders", res.Sell.Total, "gauge", nil)

	if cfg.Chart.Enabled {
		if err := chart.SaveMarketSizes(chartPath, chart.SizeFromConfig(cfg.Chart), res.Buy, res.Sell); err != nil {
			return err
		}
		entry.WithFields(logger.Fields{"path": chartPath}).Info("chart written")
		rt.Publish(ctx, "chart", chartPath)
	}
	return nil
}
