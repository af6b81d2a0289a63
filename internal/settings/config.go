package settings

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/skyhook-io/snapshot-exporter/internal/domain"
	"gopkg.in/yaml.v2"
)

const (
	DefaultRegion             = "us-west-2"
	DefaultPort               = 9040
	DefaultWorkers            = 4
	DefaultQueueDepth         = 64
	DefaultKindsPath          = "kinds.yaml"
	DefaultSubscriptionPrefix = "snapshot-exporter"

	DefaultSubmitTimeout   = 30 * time.Second
	DefaultRetentionWindow = 48 * time.Hour
	DefaultSweepInterval   = 1 * time.Hour
)

type Config struct {
	AccountNumber string
	Region        string
	IsDebug       bool
	AwsEndpoint   string

	DatabaseName  string
	BucketName    string
	BucketPrefix  string
	ExportRoleArn string
	KmsKeyID      string
	TopicArn      string
	CrawlerName   string

	SubscriptionPrefix string

	Port       int
	Workers    int
	QueueDepth int

	SubmitTimeout   time.Duration
	RetentionWindow time.Duration
	SweepInterval   time.Duration

	kindsPath string
	kinds     []domain.NotificationKind
}

type ConfigError struct {
	Field string
	Base  error
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration for %s: %v", e.Field, e.Base)
}

type kindsFile struct {
	Kinds []domain.NotificationKind `yaml:"kinds"`
}

// Validate loads the configured notification kinds and checks every required
// identity. It must pass before any subscription is created; a failure here
// is fatal to startup.
func (config *Config) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"db-name", config.DatabaseName},
		{"bucket", config.BucketName},
		{"export-role", config.ExportRoleArn},
		{"kms-key", config.KmsKeyID},
		{"topic-arn", config.TopicArn},
	}

	for _, r := range required {
		if r.value == "" {
			return ConfigError{Field: r.field, Base: fmt.Errorf("must not be empty")}
		}
	}

	file, err := os.Open(config.kindsPath)
	if err != nil {
		return ConfigError{Field: "kinds", Base: err}
	}
	defer file.Close()

	var parsed kindsFile
	err = yaml.NewDecoder(file).Decode(&parsed)
	if err != nil {
		return ConfigError{Field: "kinds", Base: err}
	}

	err = domain.ValidateKinds(parsed.Kinds)
	if err != nil {
		return ConfigError{Field: "kinds", Base: err}
	}

	config.kinds = parsed.Kinds
	logger.Infof("Loaded %d notification kinds from %s", len(parsed.Kinds), config.kindsPath)

	return nil
}

// Kinds returns the validated notification kinds. Empty until Validate has
// been called.
func (config *Config) Kinds() []domain.NotificationKind {
	return config.kinds
}

// SetKinds installs an already-validated kind set, bypassing the yaml file.
func (config *Config) SetKinds(kinds []domain.NotificationKind) {
	config.kinds = kinds
}

func (config *Config) Destination() string {
	if config.BucketPrefix == "" {
		return "s3://" + config.BucketName
	}

	return "s3://" + config.BucketName + "/" + config.BucketPrefix
}

func DefaultConfig() *Config {
	return &Config{
		Region:             DefaultRegion,
		Port:               DefaultPort,
		Workers:            DefaultWorkers,
		QueueDepth:         DefaultQueueDepth,
		SubscriptionPrefix: DefaultSubscriptionPrefix,
		SubmitTimeout:      DefaultSubmitTimeout,
		RetentionWindow:    DefaultRetentionWindow,
		SweepInterval:      DefaultSweepInterval,
		kindsPath:          DefaultKindsPath,
	}
}

func FromFlags(name string, args []string) (*Config, string, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)

	var buf bytes.Buffer
	flags.SetOutput(&buf)

	var cfg Config
	flags.StringVar(&cfg.AccountNumber, "account-number", "", "Account number for building snapshot ARNs (resolved via STS when empty)")
	flags.StringVar(&cfg.Region, "region", DefaultRegion, "Region of the database and bucket")
	flags.BoolVar(&cfg.IsDebug, "debug", false, "Enable debug logging")
	flags.StringVar(&cfg.AwsEndpoint, "aws-endpoint", "", "Endpoint URL override for AWS services (local testing)")

	flags.StringVar(&cfg.DatabaseName, "db-name", "", "Database instance whose snapshots are exported")
	flags.StringVar(&cfg.BucketName, "bucket", "", "Bucket receiving exported snapshots")
	flags.StringVar(&cfg.BucketPrefix, "bucket-prefix", "", "Key prefix for exported snapshots")
	flags.StringVar(&cfg.ExportRoleArn, "export-role", "", "Role assumed by the export task")
	flags.StringVar(&cfg.KmsKeyID, "kms-key", "", "Key used to encrypt exported data")
	flags.StringVar(&cfg.TopicArn, "topic-arn", "", "Topic that event subscriptions publish to")
	flags.StringVar(&cfg.CrawlerName, "crawler", "", "Crawler to signal after a successful export (optional)")
	flags.StringVar(&cfg.SubscriptionPrefix, "subscription-prefix", DefaultSubscriptionPrefix, "Name prefix for created event subscriptions")

	flags.IntVar(&cfg.Port, "port", DefaultPort, "Port for the notification endpoint")
	flags.IntVar(&cfg.Workers, "workers", DefaultWorkers, "Number of concurrent notification workers")
	flags.IntVar(&cfg.QueueDepth, "queue-depth", DefaultQueueDepth, "Buffered notifications before ingest blocks")

	flags.DurationVar(&cfg.SubmitTimeout, "submit-timeout", DefaultSubmitTimeout, "Bound on a single export submission")
	flags.DurationVar(&cfg.RetentionWindow, "retention-window", DefaultRetentionWindow, "How long snapshot records are kept for dedup")
	flags.DurationVar(&cfg.SweepInterval, "sweep-interval", DefaultSweepInterval, "How often expired snapshot records are evicted")

	flags.StringVar(&cfg.kindsPath, "kinds", DefaultKindsPath, "Path to yaml file of configured notification kinds")

	err := flags.Parse(args)
	if err != nil {
		return nil, buf.String(), err
	}

	return &cfg, buf.String(), err
}
