package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// Fields type alias for logrus.Fields to maintain compatibility
type Fields map[string]interface{}

// Log wraps logrus.Logger with additional functionality
type Log struct {
	*logrus.Logger
}

// Entry wraps logrus.Entry with additional functionality
type Entry struct {
	*logrus.Entry
}

var globalLogger *Log

func init() {
	globalLogger = Logger()
}

// Logger builds a fresh logger. Commands bootstrap with GetLogger and then
// pass the configured *Log explicitly to every component.
func Logger() *Log {
	l := &Log{Logger: logrus.New()}
	l.SetReportCaller(true)
	l.AddHook(&callerHook{})

	lvl, err := parseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	l.SetLevel(lvl)
	formatter, _ := newFormatter("text")
	l.SetFormatter(formatter)
	return l
}

func GetLogger() *Log {
	return globalLogger
}

func callerPrettyfier(f *runtime.Frame) (string, string) {
	return "", fmt.Sprintf("%s:%d", filepath.Base(f.File), f.Line)
}

// parseLevel treats an empty level as info.
func parseLevel(level string) (logrus.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		return logrus.InfoLevel, nil
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return logrus.InfoLevel, fmt.Errorf("invalid log level '%s'", level)
	}
	return lvl, nil
}

func newFormatter(format string) (logrus.Formatter, error) {
	switch format {
	case "json":
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
			CallerPrettyfier: callerPrettyfier,
		}, nil
	case "text", "":
		return &logrus.TextFormatter{
			FullTimestamp:    true,
			TimestampFormat:  time.RFC3339,
			CallerPrettyfier: callerPrettyfier,
		}, nil
	default:
		return nil, fmt.Errorf("invalid log format '%s'", format)
	}
}

// openOutput resolves stdout, stderr or a file path. Files are teed to
// stdout and rotated by lumberjack when maxAge is positive.
func openOutput(output string, maxAge int) (io.Writer, error) {
	switch output {
	case "stdout", "":
		return os.Stdout, nil
	case "stderr":
		return os.Stderr, nil
	}
	if maxAge > 0 {
		return io.MultiWriter(os.Stdout, &lumberjack.Logger{
			Filename: output,
			MaxAge:   maxAge,
			MaxSize:  100,
			Compress: true,
		}), nil
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o666)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", output, err)
	}
	return io.MultiWriter(os.Stdout, f), nil
}

// Configure applies the logging section. LOG_LEVEL wins over level.
func (l *Log) Configure(level string, format string, output string, maxAge int) error {
	if env := os.Getenv("LOG_LEVEL"); env != "" {
		level = env
	}
	lvl, err := parseLevel(level)
	if err != nil {
		return err
	}
	formatter, err := newFormatter(format)
	if err != nil {
		return err
	}
	w, err := openOutput(output, maxAge)
	if err != nil {
		return err
	}

	l.SetLevel(lvl)
	l.SetFormatter(formatter)
	l.SetOutput(w)
	l.SetReportCaller(true)
	return nil
}

func (l *Log) WithComponent(component string) *Entry {
	return &Entry{Entry: l.Logger.WithField("component", component)}
}

func (l *Log) WithFields(fields Fields) *Entry {
	return &Entry{Entry: l.Logger.WithFields(logrus.Fields(fields))}
}

func (l *Log) WithError(err error) *Entry {
	return &Entry{Entry: l.Logger.WithError(err)}
}

func (e *Entry) WithComponent(component string) *Entry {
	return &Entry{Entry: e.Entry.WithField("component", component)}
}

func (e *Entry) WithFields(fields Fields) *Entry {
	return &Entry{Entry: e.Entry.WithFields(logrus.Fields(fields))}
}

func (e *Entry) WithError(err error) *Entry {
	return &Entry{Entry: e.Entry.WithError(err)}
}

// Warn and Error feed the run report counters.
func (e *Entry) Warn(args ...interface{}) {
	recordWarn()
	e.Entry.Warn(args...)
}

func (e *Entry) Error(args ...interface{}) {
	recordError()
	e.Entry.Error(args...)
}

// LogMetric is the logger-level shorthand for Entry.LogMetric.
func (l *Log) LogMetric(component string, metric string, value interface{}, metricType string, fields Fields) {
	l.WithComponent(component).LogMetric(component, metric, value, metricType, fields)
}

// LogMetric logs a metric at debug level and publishes numeric values to
// CloudWatch when the client has been initialised.
func (e *Entry) LogMetric(component string, metric string, value interface{}, metricType string, fields Fields) {
	if metricType == "" {
		metricType = "counter"
	}
	line := Fields{"metric": metric, "value": value, "metric_type": metricType}
	for k, v := range fields {
		line[k] = v
	}
	e.WithComponent(component).WithFields(line).Debug("metric")

	if datum, ok := metricDatum(component, metric, value, metricType, fields); ok {
		publishMetrics(context.Background(), []cwtypes.MetricDatum{datum})
	}
}

// metricDatum converts a numeric metric into a CloudWatch datum. String
// fields become dimensions next to the component.
func metricDatum(component, metric string, value interface{}, metricType string, fields Fields) (cwtypes.MetricDatum, bool) {
	val, ok := asFloat(value)
	if !ok {
		return cwtypes.MetricDatum{}, false
	}

	unit := cwtypes.StandardUnitCount
	if metricType == "duration_ms" {
		unit = cwtypes.StandardUnitMilliseconds
	}

	dims := []cwtypes.Dimension{{Name: aws.String("component"), Value: aws.String(component)}}
	for k, v := range fields {
		if s, isString := v.(string); isString {
			dims = append(dims, cwtypes.Dimension{Name: aws.String(k), Value: aws.String(s)})
		}
	}

	return cwtypes.MetricDatum{
		MetricName: aws.String(metric),
		Dimensions: dims,
		Unit:       unit,
		Value:      aws.Float64(val),
	}, true
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}

// LogPerformanceEntry records how long an operation took.
func LogPerformanceEntry(entry *Entry, component string, operation string, duration time.Duration, fields Fields) {
	line := Fields{
		"duration_ms": float64(duration.Nanoseconds()) / 1e6,
		"operation":   operation,
	}
	for k, v := range fields {
		line[k] = v
	}
	entry.WithFields(line).WithComponent(component).Debug("performance metric")
}

// LogDataFlowEntry records records moving between two stages.
func LogDataFlowEntry(entry *Entry, source string, destination string, recordCount int, dataType string) {
	entry.WithFields(Fields{
		"source":       source,
		"destination":  destination,
		"record_count": recordCount,
		"data_type":    dataType,
		"flow_type":    "data_flow",
	}).Debug("data flow metric")
}
