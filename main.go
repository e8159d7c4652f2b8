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
	"bitcraftsd/models"
	"bitcraftsd/reader/bitjita"
	"bitcraftsd/writer"
)

func main() {
	log := logger.GetLogger()
	app.LoadEnv(log)

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	flag.Parse()

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	rt, err := app.Setup(ctx, log, "viewer", *configPath)
	if err != nil {
		log.WithError(err).Error("Failed to start")
		os.Exit(1)
	}

	log.Info("===== BitCraft Supply-Demand Starting =====")
	if err := run(ctx, rt); err != nil {
		log.WithError(err).Error("supply-demand viewer failed")
		rt.Finish(ctx)
		os.Exit(1)
	}
	rt.Finish(ctx)
	log.Info("=== BitCraft Supply-Demand Shutting Down ===")
}

func run(ctx context.Context, rt *app.Runtime) error {
	cfg := rt.Config
	if err := cfg.RequireTarget(); err != nil {
		return err
	}

	client := bitjita.NewClient(cfg.Source.Bitjita, rt.Log)
	set, err := pipeline.NewCurveViewer(client, cfg, rt.Log).Run(ctx)
	if err != nil {
		return err
	}

	if cfg.Chart.Enabled {
		if err := chart.SaveSupplyDemand(cfg.Chart.Output, chart.SizeFromConfig(cfg.Chart), set.Title(), set.Demand, set.Supply); err != nil {
			return err
		}
		rt.Log.WithComponent("main").WithFields(logger.Fields{"path": cfg.Chart.Output}).Info("chart written")
		rt.Publish(ctx, "chart", cfg.Chart.Output)
	}

	if cfg.Report.CurveOutput != "" {
		curves := append(append([]models.NamedCurve{}, set.Demand...), set.Supply...)
		data, err := writer.EncodeCurvesParquet(set.Item.Name, curves, rt.RunID, cfg.Report.Compression)
		if err != nil {
			return err
		}
		if err := writer.WriteFile(cfg.Report.CurveOutput, data); err != nil {
			return err
		}
		logger.IncrementRowsWritten(len(curves))
		rt.Log.WithComponent("main").WithFields(logger.Fields{"path": cfg.Report.CurveOutput, "curves": len(curves)}).Info("curve points written")
		rt.Publish(ctx, "curves", cfg.Report.CurveOutput)
	}
	return nil
}
