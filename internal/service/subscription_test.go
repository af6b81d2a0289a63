package service_test

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/skyhook-io/snapshot-exporter/internal/domain"
	"github.com/skyhook-io/snapshot-exporter/internal/service"
	"github.com/stretchr/testify/assert"
)

type fakeSubscriptionApi struct {
	existing map[string]bool
	created  []*rds.CreateEventSubscriptionInput
}

func (f *fakeSubscriptionApi) CreateEventSubscription(_ context.Context, params *rds.CreateEventSubscriptionInput, _ ...func(*rds.Options)) (*rds.CreateEventSubscriptionOutput, error) {
	f.created = append(f.created, params)
	return &rds.CreateEventSubscriptionOutput{}, nil
}

func (f *fakeSubscriptionApi) DescribeEventSubscriptions(_ context.Context, params *rds.DescribeEventSubscriptionsInput, _ ...func(*rds.Options)) (*rds.DescribeEventSubscriptionsOutput, error) {
	if f.existing[aws.ToString(params.SubscriptionName)] {
		return &rds.DescribeEventSubscriptionsOutput{}, nil
	}

	return nil, &types.SubscriptionNotFoundFault{}
}

func TestEnsureCreatesRoutedSubscriptions(t *testing.T) {
	api := &fakeSubscriptionApi{}
	cfg := testConfig(allKinds()...)
	cfg.TopicArn = "arn:aws:sns:us-west-2:271828182845:orders-db-snapshots"

	svc := service.NewSubscriptionService(cfg, api)
	err := svc.Ensure(context.Background())

	assert.NoError(t, err)
	assert.Len(t, api.created, 2)

	first := api.created[0]
	assert.Equal(t, "snapshot-exporter-db-snapshot-creation", aws.ToString(first.SubscriptionName))
	assert.Equal(t, domain.SourceTypeSnapshot, aws.ToString(first.SourceType))
	assert.Equal(t, []string{domain.CategoryCreation}, first.EventCategories)
	assert.Equal(t, cfg.TopicArn, aws.ToString(first.SnsTopicArn))

	second := api.created[1]
	assert.Equal(t, "snapshot-exporter-db-snapshot-notification", aws.ToString(second.SubscriptionName))
	assert.Equal(t, []string{domain.CategoryNotification}, second.EventCategories)
}

func TestEnsureSkipsExistingSubscriptions(t *testing.T) {
	api := &fakeSubscriptionApi{
		existing: map[string]bool{
			"snapshot-exporter-db-snapshot-creation": true,
		},
	}
	cfg := testConfig(allKinds()...)
	cfg.TopicArn = "arn:aws:sns:us-west-2:271828182845:orders-db-snapshots"

	err := service.NewSubscriptionService(cfg, api).Ensure(context.Background())

	assert.NoError(t, err)
	assert.Len(t, api.created, 1)
	assert.Equal(t, "snapshot-exporter-db-snapshot-notification",
		aws.ToString(api.created[0].SubscriptionName))
}

func TestEnsureClusterKindSubscribesBackupCategory(t *testing.T) {
	api := &fakeSubscriptionApi{}
	cfg := testConfig(domain.NotificationKind{
		EventID:      domain.AutomatedClusterSnapshotCreated,
		SnapshotType: domain.SnapshotAutomated,
	})
	cfg.TopicArn = "arn:aws:sns:us-west-2:271828182845:orders-db-snapshots"

	err := service.NewSubscriptionService(cfg, api).Ensure(context.Background())

	assert.NoError(t, err)
	assert.Len(t, api.created, 1)
	assert.Equal(t, domain.SourceTypeClusterSnapshot, aws.ToString(api.created[0].SourceType))
	assert.Equal(t, []string{domain.CategoryBackup}, api.created[0].EventCategories)
}
