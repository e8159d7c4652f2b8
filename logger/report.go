package logger

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

var (
	errorsLogged int64
	warnsLogged  int64
	itemsFetched int64
	itemsSkipped int64
	rowsWritten  int64
)

func recordWarn() {
	atomic.AddInt64(&warnsLogged, 1)
}

func recordError() {
	atomic.AddInt64(&errorsLogged, 1)
}

func IncrementItemsFetched() {
	atomic.AddInt64(&itemsFetched, 1)
}

func IncrementItemsSkipped() {
	atomic.AddInt64(&itemsSkipped, 1)
}

func IncrementRowsWritten(n int) {
	atomic.AddInt64(&rowsWritten, int64(n))
}

// RunStats is a point-in-time copy of the run counters.
type RunStats struct {
	ItemsFetched int64
	ItemsSkipped int64
	RowsWritten  int64
	Warnings     int64
	Errors       int64
}

func Stats() RunStats {
	return RunStats{
		ItemsFetched: atomic.LoadInt64(&itemsFetched),
		ItemsSkipped: atomic.LoadInt64(&itemsSkipped),
		RowsWritten:  atomic.LoadInt64(&rowsWritten),
		Warnings:     atomic.LoadInt64(&warnsLogged),
		Errors:       atomic.LoadInt64(&errorsLogged),
	}
}

// LogRunReport logs the run counters once at the end of a command and
// publishes them to CloudWatch when enabled.
func LogRunReport(ctx context.Context, log *Log, command string, started time.Time) {
	stats := Stats()
	elapsed := time.Since(started)

	log.WithComponent("report").WithFields(Fields{
		"command":       command,
		"items_fetched": stats.ItemsFetched,
		"items_skipped": stats.ItemsSkipped,
		"rows_written":  stats.RowsWritten,
		"warnings":      stats.Warnings,
		"errors":        stats.Errors,
		"elapsed":       elapsed.Round(time.Millisecond).String(),
	}).Info("run report")

	dims := []cwtypes.Dimension{{Name: aws.String("command"), Value: aws.String(command)}}
	publishMetrics(ctx, []cwtypes.MetricDatum{
		{MetricName: aws.String("ItemsFetched"), Dimensions: dims, Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(stats.ItemsFetched))},
		{MetricName: aws.String("ItemsSkipped"), Dimensions: dims, Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(stats.ItemsSkipped))},
		{MetricName: aws.String("RowsWritten"), Dimensions: dims, Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(stats.RowsWritten))},
		{MetricName: aws.String("Errors"), Dimensions: dims, Unit: cwtypes.StandardUnitCount, Value: aws.Float64(float64(stats.Errors))},
		{MetricName: aws.String("RunSeconds"), Dimensions: dims, Unit: cwtypes.StandardUnitSeconds, Value: aws.Float64(elapsed.Seconds())},
	})
}
