package logger

import (
	"context"
	"os"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// metricPublisher is the subset of the CloudWatch client used here.
type metricPublisher interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

var (
	cwMu        sync.RWMutex
	cwClient    metricPublisher
	cwNamespace = "BitcraftSD"
)

// InitCloudWatch initialises the CloudWatch client using the provided region and
// namespace. If region is empty it falls back to the AWS_REGION environment
// variable. When the client cannot be created the function logs a warning and
// metrics publishing remains disabled.
func InitCloudWatch(ctx context.Context, log *Log, region, namespace string) {
	entry := log.WithComponent("cloudwatch")

	if region == "" {
		region = os.Getenv("AWS_REGION")
	}

	opts := []func(*config.LoadOptions) error{}
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		entry.WithError(err).Warn("failed to load AWS configuration; CloudWatch metrics disabled")
		return
	}

	setMetricPublisher(cloudwatch.NewFromConfig(cfg), namespace)

	entry.WithFields(Fields{"region": region, "namespace": namespace}).Info("initialized CloudWatch client")
}

func setMetricPublisher(p metricPublisher, namespace string) {
	cwMu.Lock()
	defer cwMu.Unlock()
	cwClient = p
	if namespace != "" {
		cwNamespace = namespace
	}
}

// publishMetrics sends the provided metric data to CloudWatch when the client
// has been initialised.
func publishMetrics(ctx context.Context, data []cwtypes.MetricDatum) {
	cwMu.RLock()
	client, namespace := cwClient, cwNamespace
	cwMu.RUnlock()

	if client == nil || len(data) == 0 {
		return
	}

	log := GetLogger().WithComponent("cloudwatch")
	if _, err := client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(namespace),
		MetricData: data,
	}); err != nil {
		log.WithError(err).Warn("failed to publish CloudWatch metrics")
		return
	}

	names := make([]string, 0, len(data))
	for _, datum := range data {
		if datum.MetricName != nil {
			names = append(names, *datum.MetricName)
		}
	}

	log.WithField("metrics", strings.Join(names, ",")).Debug("published metrics to CloudWatch")
}
