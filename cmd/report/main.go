package main

import (
	"context"
	"flag"
	"os"

	"bitcraftsd/config"
	"bitcraftsd/internal/app"
	"bitcraftsd/internal/pipeline"
	"bitcraftsd/logger"
	"bitcraftsd/reader/bitjita"
	"bitcraftsd/writer"
)

func main() {
	log := logger.GetLogger()
	app.LoadEnv(log)

	configPath := flag.String("config", config.DefaultConfigPath, "Path to configuration file")
	output := flag.String("output", "", "Override report.output")
	flag.Parse()

	ctx, cancel := app.SignalContext(log)
	defer cancel()

	rt, err := app.Setup(ctx, log, "report", *configPath)
	if err != nil {
		log.WithError(err).Error("Failed to start")
		os.Exit(1)
	}
	if *output != "" {
		rt.Config.Report.Output = *output
	}

	log.Info("===== BitCraft Supply-Demand Report Generator Starting =====")
	if err := run(ctx, rt); err != nil {
		log.WithError(err).Error("report generation failed")
		rt.Finish(ctx)
		os.Exit(1)
	}
	rt.Finish(ctx)
	log.Info("=== BitCraft Supply-Demand Report Generator Shutting Down ===")
}

func run(ctx context.Context, rt *app.Runtime) error {
	cfg := rt.Config
	entry := rt.Log.WithComponent("main")

	client := bitjita.NewClient(cfg.Source.Bitjita, rt.Log)
	res, err := pipeline.NewReportRunner(client, cfg, rt.Watchlist, rt.Log).Run(ctx)
	if err != nil {
		return err
	}

	if err := writer.WriteReportCSVFile(cfg.Report.Output, res.Rows); err != nil {
		return err
	}
	logger.IncrementRowsWritten(len(res.Rows))
	logger.LogDataFlowEntry(entry, "report", cfg.Report.Output, len(res.Rows), "report_rows")
	entry.WithFields(logger.Fields{"path": cfg.Report.Output, "rows": len(res.Rows)}).Info("report written")
	rt.Publish(ctx, "report", cfg.Report.Output)

	if cfg.Report.ParquetOutput != "" {
		data, err := writer.EncodeReportParquet(res.Rows, rt.RunID, rt.Started, cfg.Report.Compression)
		if err != nil {
			return err
		}
		if err := writer.WriteFile(cfg.Report.ParquetOutput, data); err != nil {
			return err
		}
		entry.WithFields(logger.Fields{"path": cfg.Report.ParquetOutput, "bytes": len(data)}).Info("parquet report written")
		rt.Publish(ctx, "report", cfg.Report.ParquetOutput)
	}

	if len(res.Skipped) > 0 {
		entry.WithFields(logger.Fields{"items": res.Skipped}).Warn("items skipped")
	}
	return nil
}
