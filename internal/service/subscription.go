package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/skyhook-io/snapshot-exporter/internal/domain"
	"github.com/skyhook-io/snapshot-exporter/internal/settings"
)

type SubscriptionApi interface {
	CreateEventSubscription(ctx context.Context, params *rds.CreateEventSubscriptionInput, optFns ...func(*rds.Options)) (*rds.CreateEventSubscriptionOutput, error)
	DescribeEventSubscriptions(ctx context.Context, params *rds.DescribeEventSubscriptionsInput, optFns ...func(*rds.Options)) (*rds.DescribeEventSubscriptionsOutput, error)
}

// SubscriptionService creates the minimal event subscription topology for
// the configured notification kinds. Subscriptions are billed resources, so
// only the routed set is created and existing ones are left alone.
type SubscriptionService struct {
	cfg *settings.Config
	rds SubscriptionApi
}

func NewSubscriptionService(cfg *settings.Config, rdsApi SubscriptionApi) *SubscriptionService {
	return &SubscriptionService{
		cfg: cfg,
		rds: rdsApi,
	}
}

func (service *SubscriptionService) Ensure(ctx context.Context) error {
	kinds := service.cfg.Kinds()

	if !domain.ContainsBackupCopy(kinds) {
		logger.Warn("No backup copy completion kind is configured; " +
			"backup service snapshots will not be noticed or exported")
	}

	for _, spec := range domain.Route(kinds) {
		name := fmt.Sprintf("%s-%s-%s", service.cfg.SubscriptionPrefix, spec.SourceType, spec.Category)

		exists, err := service.exists(ctx, name)
		if err != nil {
			subscribeErr := SubscribeError{Name: name, Base: err}
			logger.Error(subscribeErr)
			return subscribeErr
		}

		if exists {
			logger.Infof("Event subscription %s already exists", name)
			continue
		}

		_, err = service.rds.CreateEventSubscription(ctx, &rds.CreateEventSubscriptionInput{
			SubscriptionName: aws.String(name),
			SnsTopicArn:      aws.String(service.cfg.TopicArn),
			SourceType:       aws.String(spec.SourceType),
			EventCategories:  []string{spec.Category},
			Enabled:          aws.Bool(true),
		})
		if err != nil {
			subscribeErr := SubscribeError{Name: name, Base: err}
			logger.Error(subscribeErr)
			return subscribeErr
		}

		logger.Infof("Created event subscription %s for %s %s events",
			name, spec.SourceType, spec.Category)
	}

	return nil
}

func (service *SubscriptionService) exists(ctx context.Context, name string) (bool, error) {
	_, err := service.rds.DescribeEventSubscriptions(ctx, &rds.DescribeEventSubscriptionsInput{
		SubscriptionName: aws.String(name),
	})

	var notFound *types.SubscriptionNotFoundFault
	if errors.As(err, &notFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}
