package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/glue"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/skyhook-io/snapshot-exporter/internal/settings"
)

func endpointResolver(cfg *settings.Config) aws.EndpointResolverWithOptionsFunc {
	return func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               cfg.AwsEndpoint,
			HostnameImmutable: true,
		}, nil
	}
}

func NewAwsConfig(cfg *settings.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	if cfg.AwsEndpoint != "" {
		opts = append(opts, config.WithEndpointResolverWithOptions(endpointResolver(cfg)))
	}

	return config.LoadDefaultConfig(context.Background(), opts...)
}

func NewRdsClient(awsConfig aws.Config) *rds.Client {
	return rds.NewFromConfig(awsConfig)
}

func NewGlueClient(awsConfig aws.Config) *glue.Client {
	return glue.NewFromConfig(awsConfig)
}

func NewSnsClient(awsConfig aws.Config) *sns.Client {
	return sns.NewFromConfig(awsConfig)
}

func NewStsClient(awsConfig aws.Config) *sts.Client {
	return sts.NewFromConfig(awsConfig)
}
