package service

import (
	"context"
	"errors"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/glue/types"
	"github.com/skyhook-io/snapshot-exporter/internal/settings"
)

const signalTimeout = 30 * time.Second

type GlueApi interface {
	StartCrawler(ctx context.Context, params *glue.StartCrawlerInput, optFns ...func(*glue.Options)) (*glue.StartCrawlerOutput, error)
}

// CatalogService asks the crawler to re-scan the export destination so new
// partitions become queryable. Signaling is fire-and-forget: the crawler's
// scan is idempotent and a missed signal is recovered by the next export.
type CatalogService struct {
	cfg  *settings.Config
	glue GlueApi
}

func NewCatalogService(cfg *settings.Config, glueApi GlueApi) *CatalogService {
	return &CatalogService{
		cfg:  cfg,
		glue: glueApi,
	}
}

func (service *CatalogService) Signal(ctx context.Context, sourceARN string) {
	if service.cfg.CrawlerName == "" {
		logger.Debugf("No crawler configured, skipping catalog refresh for %s", sourceARN)
		return
	}

	// detached from the worker's context so a completed export always
	// produces a signal attempt
	go func() {
		signalCtx, cancel := context.WithTimeout(context.Background(), signalTimeout)
		defer cancel()

		_, err := service.glue.StartCrawler(signalCtx, &glue.StartCrawlerInput{
			Name: aws.String(service.cfg.CrawlerName),
		})

		var running *types.CrawlerRunningException
		if errors.As(err, &running) {
			logger.Infof("Crawler %s is already running", service.cfg.CrawlerName)
			return
		}

		if err != nil {
			logger.Errorf("Unable to signal crawler %s after export of %s: %v",
				service.cfg.CrawlerName, sourceARN, err)
			return
		}

		logger.Infof("Signaled crawler %s after export of %s", service.cfg.CrawlerName, sourceARN)
	}()
}
