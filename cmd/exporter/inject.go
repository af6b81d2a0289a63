//go:build wireinject
// +build wireinject

package main

import (
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/google/wire"
	"github.com/skyhook-io/snapshot-exporter/internal/http"
	"github.com/skyhook-io/snapshot-exporter/internal/service"
	"github.com/skyhook-io/snapshot-exporter/internal/settings"
)

var api = wire.NewSet(
	http.NewChiMux,
	http.NewSnsHandler,
	wire.Bind(new(http.NotificationSink), new(*service.Engine)),
	wire.Bind(new(http.SnsApi), new(*sns.Client)),
)

var services = wire.NewSet(
	service.NewRegistry,
	service.NewEngine,
	service.NewExportService,
	service.NewCatalogService,
	service.NewSubscriptionService,
	wire.Bind(new(service.Exporter), new(*service.ExportService)),
	wire.Bind(new(service.Catalog), new(*service.CatalogService)),
	wire.Bind(new(service.RdsApi), new(*rds.Client)),
	wire.Bind(new(service.SubscriptionApi), new(*rds.Client)),
	wire.Bind(new(service.GlueApi), new(*glue.Client)),
	wire.Bind(new(service.StsApi), new(*sts.Client)),
)

func InjectApp(cfg *settings.Config) (*App, error) {
	wire.Build(
		NewApp,
		api,
		services,
		NewAwsConfig,
		NewRdsClient,
		NewGlueClient,
		NewSnsClient,
		NewStsClient,
	)
	return nil, nil
}
