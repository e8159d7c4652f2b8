package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "bitcraftsd/config"
	"bitcraftsd/logger"
)

// objectPutter is the subset of the S3 client used by the uploader.
type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader copies the files of one run to S3. Every object of the run
// shares the same run id.
type Uploader struct {
	client  objectPutter
	bucket  string
	prefix  string
	version string
	runID   string
	started time.Time
	log     *logger.Log
}

// NewUploader configures the AWS SDK from the storage section.
func NewUploader(ctx context.Context, cfg *appconfig.Config, log *logger.Log) (*Uploader, error) {
	s3cfg := cfg.Storage.S3

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(s3cfg.Region),
	}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		log.WithComponent("s3_uploader").WithError(err).Warn("failed to load AWS configuration")
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	creds, err := awsConfig.Credentials.Retrieve(ctx)
	if err != nil || !creds.HasKeys() {
		return nil, fmt.Errorf("aws credentials not found")
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if s3cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.Endpoint)
		}
		o.UsePathStyle = s3cfg.PathStyle
	})

	u := newUploader(client, s3cfg.Bucket, s3cfg.Prefix, cfg.App.Version, log)
	log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket":     s3cfg.Bucket,
		"region":     s3cfg.Region,
		"endpoint":   s3cfg.Endpoint,
		"path_style": s3cfg.PathStyle,
		"run_id":     u.runID,
	}).Info("s3 uploader initialized")
	return u, nil
}

func newUploader(client objectPutter, bucket, prefix, version string, log *logger.Log) *Uploader {
	return &Uploader{
		client:  client,
		bucket:  bucket,
		prefix:  strings.Trim(prefix, "/"),
		version: version,
		runID:   uuid.New().String(),
		started: time.Now().UTC(),
		log:     log,
	}
}

func (u *Uploader) RunID() string { return u.runID }

// ObjectKey builds {prefix}/{kind}/{date}/{run_id}_{file}.
func (u *Uploader) ObjectKey(kind, file string) string {
	parts := make([]string, 0, 4)
	if u.prefix != "" {
		parts = append(parts, u.prefix)
	}
	parts = append(parts, kind, u.started.Format("2006-01-02"), u.runID+"_"+filepath.Base(file))
	return path.Join(parts...)
}

// UploadFile uploads a local file and returns its object key.
func (u *Uploader) UploadFile(ctx context.Context, kind, file string) (string, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return u.Upload(ctx, kind, file, data)
}

// Upload stores data under the key for kind and file.
func (u *Uploader) Upload(ctx context.Context, kind, file string, data []byte) (string, error) {
	key := u.ObjectKey(kind, file)
	log := u.log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"operation": "upload_to_s3",
		"key":       key,
		"data_size": len(data),
	})
	log.Info("uploading to S3")

	start := time.Now()
	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType(file)),
		Metadata: map[string]string{
			"run-id":             u.runID,
			"kind":               kind,
			"bitcraftsd-version": u.version,
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3 bucket %s: %w", u.bucket, err)
	}

	logger.LogPerformanceEntry(log, "s3_uploader", "put_object", time.Since(start), nil)
	log.Info("successfully uploaded to S3")
	return key, nil
}

func contentType(file string) string {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".csv":
		return "text/csv"
	case ".png":
		return "image/png"
	case ".svg":
		return "image/svg+xml"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
