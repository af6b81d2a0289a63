package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reactivex/rxgo/v2"
	"github.com/skyhook-io/snapshot-exporter/internal/domain"
	"github.com/skyhook-io/snapshot-exporter/internal/settings"
)

type SubmitStatus int

const (
	SubmitAccepted SubmitStatus = iota
	SubmitAlreadyInProgress
	SubmitRejected
)

// BackupSource describes the database a backup service snapshot was taken
// from. Backup copy notifications do not carry the database name, so it has
// to be looked up.
type BackupSource struct {
	Instance string
	Created  time.Time
}

type Exporter interface {
	CanonicalARN(ctx context.Context, sourceID string, kind domain.ResourceKind) (string, error)
	LookupBackupSource(ctx context.Context, sourceARN string) (BackupSource, error)
	BuildRequest(sourceARN string, kind domain.ResourceKind, taskID string) domain.ExportRequest
	Submit(ctx context.Context, request domain.ExportRequest) (SubmitStatus, error)
}

type Catalog interface {
	Signal(ctx context.Context, sourceARN string)
}

type Outcome int

const (
	OutcomeTriggered Outcome = iota
	OutcomeDuplicate
	OutcomeIgnored
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeTriggered:
		return "triggered"
	case OutcomeDuplicate:
		return "duplicate-suppressed"
	case OutcomeIgnored:
		return "ignored"
	}

	return "failed"
}

// Engine decides, for every arriving notification, whether an export should
// fire. Notifications flow through a pooled pipeline; the registry keeps the
// at-most-one-export guarantee per snapshot.
type Engine struct {
	cfg      *settings.Config
	resolver *domain.Resolver
	filter   domain.SourceFilter
	registry *Registry
	exporter Exporter
	catalog  Catalog

	ch       chan rxgo.Item
	disposed rxgo.Disposed
}

func NewEngine(cfg *settings.Config, registry *Registry, exporter Exporter, catalog Catalog) *Engine {
	return &Engine{
		cfg:      cfg,
		resolver: domain.NewResolver(cfg.Kinds()),
		filter:   domain.NewSourceFilter(cfg.DatabaseName),
		registry: registry,
		exporter: exporter,
		catalog:  catalog,
	}
}

// Start spins up the worker pipeline. Enqueue feeds it; Stop drains it.
func (e *Engine) Start(ctx context.Context) {
	e.ch = make(chan rxgo.Item, e.cfg.QueueDepth)

	e.disposed = rxgo.FromChannel(e.ch).
		Map(func(_ context.Context, i interface{}) (interface{}, error) {
			notification := i.(domain.SnapshotNotification)
			return e.Process(ctx, notification), nil
		}, rxgo.WithPool(e.cfg.Workers)).
		ForEach(
			func(i interface{}) {},
			func(err error) {
				logger.Errorf("Notification pipeline error: %v", err)
			},
			func() {
				logger.Info("Notification pipeline drained")
			},
		)
}

func (e *Engine) Enqueue(notification domain.SnapshotNotification) error {
	if e.ch == nil {
		return fmt.Errorf("engine has not been started")
	}

	e.ch <- rxgo.Item{V: notification}
	return nil
}

func (e *Engine) Stop() {
	if e.ch == nil {
		return
	}

	close(e.ch)
	<-e.disposed
}

// Process runs the dedup and trigger policy for one notification.
func (e *Engine) Process(ctx context.Context, n domain.SnapshotNotification) Outcome {
	resolution, err := e.resolver.Resolve(n.EventID)
	if err != nil {
		logger.Warnf("Dropping notification %s: %v", n.MessageID, err)
		return OutcomeIgnored
	}

	if !e.filter.Matches(resolution.SnapshotType, n.SourceID) {
		logger.Infof("Ignoring %s notification for source %s: not a %s snapshot of %s",
			n.EventID, n.SourceID, resolution.SnapshotType, e.cfg.DatabaseName)
		return OutcomeIgnored
	}

	arn := n.SourceARN
	if arn == "" {
		arn, err = e.exporter.CanonicalARN(ctx, n.SourceID, resolution.ResourceKind)
		if err != nil {
			logger.Errorf("Unable to derive canonical identity for %s: %v", n.SourceID, err)
			return OutcomeFailed
		}
	}

	claim, outcome := e.registry.Claim(arn, n.EventID)
	switch outcome {
	case ClaimDuplicate:
		logger.Infof("Suppressed duplicate notification %s for %s: export already triggered",
			n.MessageID, arn)
		return OutcomeDuplicate
	case ClaimInFlight:
		logger.Infof("Suppressed notification %s for %s: export submission in flight",
			n.MessageID, arn)
		return OutcomeDuplicate
	}

	base := n.SourceID
	switch resolution.SnapshotType {
	case domain.SnapshotAutomated:
		base = strings.TrimPrefix(n.SourceID, "rds:")
	case domain.SnapshotBackup:
		source, err := e.exporter.LookupBackupSource(ctx, arn)
		if err != nil {
			claim.Rollback()
			logger.Errorf("Unable to identify source of backup snapshot %s: %v", arn, err)
			return OutcomeFailed
		}

		if source.Instance != e.cfg.DatabaseName {
			claim.Abandon()
			logger.Infof("Ignoring backup snapshot %s: belongs to %s, not %s",
				arn, source.Instance, e.cfg.DatabaseName)
			return OutcomeIgnored
		}

		base = source.Instance + "-" + source.Created.Format("2006-01-02")
	}

	request := e.exporter.BuildRequest(arn, resolution.ResourceKind, domain.TaskIdentifier(base, n.MessageID))

	submitCtx, cancel := context.WithTimeout(ctx, e.cfg.SubmitTimeout)
	defer cancel()

	status, err := e.exporter.Submit(submitCtx, request)
	if err != nil || status == SubmitRejected {
		claim.Rollback()
		logger.Errorf("Export of %s was not accepted, will retry on redelivery: %v", arn, err)
		return OutcomeFailed
	}

	claim.Commit()

	if status == SubmitAlreadyInProgress {
		logger.Infof("Export of %s is already in progress at the collaborator", arn)
	} else {
		logger.Infof("Export task %s started for %s", request.TaskID, arn)
	}

	e.catalog.Signal(ctx, arn)

	return OutcomeTriggered
}
