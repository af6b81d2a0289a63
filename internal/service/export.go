package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/rds/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/skyhook-io/snapshot-exporter/internal/domain"
	"github.com/skyhook-io/snapshot-exporter/internal/settings"
)

type RdsApi interface {
	StartExportTask(ctx context.Context, params *rds.StartExportTaskInput, optFns ...func(*rds.Options)) (*rds.StartExportTaskOutput, error)
	DescribeDBSnapshots(ctx context.Context, params *rds.DescribeDBSnapshotsInput, optFns ...func(*rds.Options)) (*rds.DescribeDBSnapshotsOutput, error)
}

type StsApi interface {
	GetCallerIdentity(ctx context.Context, params *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// ExportService builds and submits snapshot export tasks against the
// provider API.
type ExportService struct {
	cfg *settings.Config
	rds RdsApi
	sts StsApi

	mu      sync.Mutex
	account string
}

func NewExportService(cfg *settings.Config, rdsApi RdsApi, stsApi StsApi) *ExportService {
	return &ExportService{
		cfg: cfg,
		rds: rdsApi,
		sts: stsApi,
	}
}

func (service *ExportService) accountNumber(ctx context.Context) (string, error) {
	service.mu.Lock()
	defer service.mu.Unlock()

	if service.account != "" {
		return service.account, nil
	}

	if service.cfg.AccountNumber != "" {
		service.account = service.cfg.AccountNumber
		return service.account, nil
	}

	output, err := service.sts.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", IdentityError{Base: err}
	}

	service.account = aws.ToString(output.Account)
	return service.account, nil
}

// CanonicalARN reconstructs the snapshot ARN for notifications that only
// carry a source identifier.
func (service *ExportService) CanonicalARN(ctx context.Context, sourceID string, kind domain.ResourceKind) (string, error) {
	account, err := service.accountNumber(ctx)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("arn:aws:rds:%s:%s:%s:%s", service.cfg.Region, account, kind, sourceID), nil
}

// LookupBackupSource resolves which database instance a backup service
// snapshot was taken from.
func (service *ExportService) LookupBackupSource(ctx context.Context, sourceARN string) (BackupSource, error) {
	snapshotID := domain.SnapshotIDFromARN(sourceARN)
	if snapshotID == "" {
		return BackupSource{}, DescribeError{
			SnapshotID: sourceARN,
			Base:       fmt.Errorf("no snapshot identifier in ARN"),
		}
	}

	output, err := service.rds.DescribeDBSnapshots(ctx, &rds.DescribeDBSnapshotsInput{
		DBSnapshotIdentifier: aws.String(snapshotID),
	})
	if err != nil {
		return BackupSource{}, DescribeError{SnapshotID: snapshotID, Base: err}
	}

	if len(output.DBSnapshots) == 0 {
		return BackupSource{}, DescribeError{
			SnapshotID: snapshotID,
			Base:       fmt.Errorf("snapshot not found"),
		}
	}

	snapshot := output.DBSnapshots[0]
	return BackupSource{
		Instance: aws.ToString(snapshot.DBInstanceIdentifier),
		Created:  aws.ToTime(snapshot.SnapshotCreateTime),
	}, nil
}

func (service *ExportService) BuildRequest(sourceARN string, kind domain.ResourceKind, taskID string) domain.ExportRequest {
	return domain.ExportRequest{
		SourceARN:    sourceARN,
		ResourceKind: kind,
		TaskID:       taskID,
		Bucket:       service.cfg.BucketName,
		Prefix:       service.cfg.BucketPrefix,
		RoleARN:      service.cfg.ExportRoleArn,
		KMSKeyID:     service.cfg.KmsKeyID,
	}
}

// Submit starts the export task. A task that already exists counts as
// success so redeliveries never double-export; anything else, including a
// timed-out call, is reported as rejected so the caller can roll back.
func (service *ExportService) Submit(ctx context.Context, request domain.ExportRequest) (SubmitStatus, error) {
	input := rds.StartExportTaskInput{
		ExportTaskIdentifier: aws.String(request.TaskID),
		SourceArn:            aws.String(request.SourceARN),
		S3BucketName:         aws.String(request.Bucket),
		IamRoleArn:           aws.String(request.RoleARN),
		KmsKeyId:             aws.String(request.KMSKeyID),
	}

	if request.Prefix != "" {
		input.S3Prefix = aws.String(request.Prefix)
	}

	_, err := service.rds.StartExportTask(ctx, &input)

	var exists *types.ExportTaskAlreadyExistsFault
	if errors.As(err, &exists) {
		return SubmitAlreadyInProgress, nil
	}

	if err != nil {
		return SubmitRejected, SubmitError{
			SourceARN: request.SourceARN,
			TaskID:    request.TaskID,
			Base:      err,
		}
	}

	return SubmitAccepted, nil
}
