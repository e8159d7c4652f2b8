package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App     AppConfig     `yaml:"app"`
	Source  SourceConfig  `yaml:"source"`
	Target  TargetConfig  `yaml:"target"`
	Focus   FocusConfig   `yaml:"focus"`
	Report  ReportConfig  `yaml:"report"`
	Curve   CurveConfig   `yaml:"curve"`
	Chart   ChartConfig   `yaml:"chart"`
	Storage StorageConfig `yaml:"storage"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

type AppConfig struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
}

type SourceConfig struct {
	Bitjita BitjitaConfig `yaml:"bitjita"`
}

type BitjitaConfig struct {
	URL       string          `yaml:"url"`
	Timeout   time.Duration   `yaml:"timeout"`
	UserAgent string          `yaml:"user_agent"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	// Cooldown is the pause after a failed item request in batch mode.
	Cooldown time.Duration `yaml:"cooldown"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size"`
}

// TargetConfig names the single item inspected by the curve viewer.
type TargetConfig struct {
	ItemType string `yaml:"item_type"`
	ItemID   string `yaml:"item_id"`
}

// FocusConfig names the region and claim highlighted on the curve chart.
type FocusConfig struct {
	Region    string `yaml:"region"`
	ClaimID   string `yaml:"claim_id"`
	ClaimName string `yaml:"claim_name"`
}

type ReportConfig struct {
	// Region trims both order sides to one region before the overlap is computed.
	// Empty means the global market.
	Region        string `yaml:"region"`
	Output        string `yaml:"output"`
	ParquetOutput string `yaml:"parquet_output"`
	CurveOutput   string `yaml:"curve_output"`
	// Compression is the parquet codec: snappy, gzip or none.
	Compression string `yaml:"compression"`
	TopN        int    `yaml:"top_n"`
	Watchlist   string `yaml:"watchlist"`
}

// CurveConfig bounds curve construction.
type CurveConfig struct {
	// MaxDepth is the most units one curve may expand to. Zero disables
	// the limit.
	MaxDepth int64 `yaml:"max_depth"`
}

type ChartConfig struct {
	Enabled bool   `yaml:"enabled"`
	Output  string `yaml:"output"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
}

type StorageConfig struct {
	S3 S3Config `yaml:"s3"`
}

type S3Config struct {
	Enabled         bool   `yaml:"enabled"`
	Bucket          string `yaml:"bucket"`
	Region          string `yaml:"region"`
	Endpoint        string `yaml:"endpoint"`
	PathStyle       bool   `yaml:"path_style"`
	Prefix          string `yaml:"prefix"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type MetricsConfig struct {
	CloudWatch CloudWatchConfig `yaml:"cloudwatch"`
}

type CloudWatchConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Region    string `yaml:"region"`
	Namespace string `yaml:"namespace"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
	MaxAge int    `yaml:"max_age"`
}

const (
	DefaultBitjitaURL = "https://bitjita.com/api"
	DefaultUserAgent  = "bitcraftsd/1.0"
	DefaultTimeout    = 30 * time.Second
	DefaultCooldown   = 10 * time.Second
	DefaultRPS        = 10
	DefaultReportPath = "report.csv"
	DefaultChartPath  = "bitcraft-sd.png"
	DefaultTopN       = 10
	// DefaultMaxCurveDepth keeps the two int64 slices of a curve near 160 MB.
	DefaultMaxCurveDepth = 10_000_000
)

// Default returns a configuration with every optional field populated.
func Default() Config {
	return Config{
		App: AppConfig{Name: "bitcraftsd", Version: "dev"},
		Source: SourceConfig{Bitjita: BitjitaConfig{
			URL:       DefaultBitjitaURL,
			Timeout:   DefaultTimeout,
			UserAgent: DefaultUserAgent,
			RateLimit: RateLimitConfig{RequestsPerSecond: DefaultRPS, BurstSize: 1},
			Cooldown:  DefaultCooldown,
		}},
		Report: ReportConfig{Output: DefaultReportPath, Compression: "snappy", TopN: DefaultTopN},
		Curve:  CurveConfig{MaxDepth: DefaultMaxCurveDepth},
		Chart:  ChartConfig{Output: DefaultChartPath, Width: 10, Height: 6},
		Metrics: MetricsConfig{CloudWatch: CloudWatchConfig{
			Namespace: "BitcraftSD",
		}},
		Logging: LoggingConfig{Level: "info", Format: "text", Output: "stdout"},
	}
}

func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnvOverrides(&config)

	config.Source.Bitjita.URL = strings.TrimRight(strings.TrimSpace(config.Source.Bitjita.URL), "/")
	config.Target.ItemType = strings.ToLower(strings.TrimSpace(config.Target.ItemType))
	config.Target.ItemID = strings.TrimSpace(config.Target.ItemID)
	config.Storage.S3.Bucket = strings.TrimSpace(config.Storage.S3.Bucket)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *Config) {
	if v := os.Getenv("BITJITA_BASE_URL"); v != "" {
		config.Source.Bitjita.URL = v
	}
	if v := os.Getenv("TARGET_ITEM_TYPE"); v != "" {
		config.Target.ItemType = v
	}
	if v := os.Getenv("TARGET_ITEM_ID"); v != "" {
		config.Target.ItemID = v
	}

	// Override S3 settings from environment variables if available
	if config.Storage.S3.Enabled {
		if v := os.Getenv("AWS_ACCESS_KEY_ID"); v != "" {
			config.Storage.S3.AccessKeyID = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_SECRET_ACCESS_KEY"); v != "" {
			config.Storage.S3.SecretAccessKey = strings.TrimSpace(v)
		}
		if v := os.Getenv("AWS_REGION"); v != "" {
			config.Storage.S3.Region = strings.TrimSpace(v)
		}
		if v := os.Getenv("S3_BUCKET"); v != "" {
			config.Storage.S3.Bucket = strings.TrimSpace(v)
		}
	}
}

func validateConfig(cfg *Config) error {
	if cfg.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}

	if cfg.Source.Bitjita.URL == "" {
		return fmt.Errorf("source.bitjita.url is required")
	}
	if !strings.HasPrefix(cfg.Source.Bitjita.URL, "http://") && !strings.HasPrefix(cfg.Source.Bitjita.URL, "https://") {
		return fmt.Errorf("source.bitjita.url '%s' must be an http(s) address", cfg.Source.Bitjita.URL)
	}
	if cfg.Source.Bitjita.Timeout <= 0 {
		return fmt.Errorf("source.bitjita.timeout must be greater than 0")
	}
	if cfg.Source.Bitjita.RateLimit.RequestsPerSecond <= 0 {
		return fmt.Errorf("source.bitjita.rate_limit.requests_per_second must be greater than 0")
	}
	if cfg.Source.Bitjita.RateLimit.BurstSize <= 0 {
		return fmt.Errorf("source.bitjita.rate_limit.burst_size must be greater than 0")
	}
	if cfg.Source.Bitjita.Cooldown < 0 {
		return fmt.Errorf("source.bitjita.cooldown must not be negative")
	}

	switch cfg.Target.ItemType {
	case "", "item", "cargo":
	default:
		return fmt.Errorf("target.item_type '%s' must be 'item' or 'cargo'", cfg.Target.ItemType)
	}

	switch cfg.Report.Compression {
	case "", "snappy", "gzip", "none":
	default:
		return fmt.Errorf("report.compression '%s' must be snappy, gzip or none", cfg.Report.Compression)
	}

	if cfg.Report.TopN < 0 {
		return fmt.Errorf("report.top_n must not be negative")
	}
	if cfg.Curve.MaxDepth < 0 {
		return fmt.Errorf("curve.max_depth must not be negative")
	}

	if cfg.Chart.Enabled {
		if cfg.Chart.Output == "" {
			return fmt.Errorf("chart.output is required when charts are enabled")
		}
		if cfg.Chart.Width <= 0 || cfg.Chart.Height <= 0 {
			return fmt.Errorf("chart.width and chart.height must be greater than 0")
		}
	}

	if cfg.Storage.S3.Enabled {
		if cfg.Storage.S3.Bucket == "" {
			return fmt.Errorf("storage.s3.bucket is required when S3 is enabled")
		}
		if cfg.Storage.S3.Region == "" {
			return fmt.Errorf("storage.s3.region is required when S3 is enabled")
		}
		if !isValidS3Bucket(cfg.Storage.S3.Bucket) {
			return fmt.Errorf("storage.s3.bucket '%s' is invalid", cfg.Storage.S3.Bucket)
		}
	}

	if cfg.Metrics.CloudWatch.Enabled && cfg.Metrics.CloudWatch.Namespace == "" {
		return fmt.Errorf("metrics.cloudwatch.namespace is required when CloudWatch is enabled")
	}

	return nil
}

// RequireTarget reports whether the single-item target section is complete.
func (c *Config) RequireTarget() error {
	if c.Target.ItemType == "" || c.Target.ItemID == "" {
		return fmt.Errorf("target.item_type and target.item_id are required")
	}
	return nil
}

var s3BucketRegexp = regexp.MustCompile(`^[a-z0-9][a-z0-9.-]{1,61}[a-z0-9]$`)

func isValidS3Bucket(name string) bool {
	if len(name) < 3 || len(name) > 63 {
		return false
	}
	if strings.Contains(name, "..") || strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".") {
		return false
	}
	return s3BucketRegexp.MatchString(name)
}
