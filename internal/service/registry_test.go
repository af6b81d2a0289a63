package service_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/skyhook-io/snapshot-exporter/internal/domain"
	"github.com/skyhook-io/snapshot-exporter/internal/service"
	"github.com/stretchr/testify/assert"
)

const testArn = "arn:aws:rds:us-west-2:271828182845:snapshot:rds:orders-2022-06-12-09-15"

func TestClaimFirstNotificationWins(t *testing.T) {
	registry := service.NewRegistry()

	claim, outcome := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)
	assert.Equal(t, service.ClaimAccepted, outcome)
	assert.NotNil(t, claim)

	record, ok := registry.Record(testArn)
	assert.True(t, ok)
	assert.Equal(t, service.StatePending, record.State)
	assert.Equal(t, domain.AutomatedInstanceSnapshotCreated, record.FirstSeenEventID)
}

func TestClaimWhileInFlightIsSuppressed(t *testing.T) {
	registry := service.NewRegistry()

	claim, _ := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)

	_, outcome := registry.Claim(testArn, domain.BackupCopyFinished)
	assert.Equal(t, service.ClaimInFlight, outcome)

	claim.Commit()
}

func TestClaimAfterCommitIsDuplicate(t *testing.T) {
	registry := service.NewRegistry()

	claim, _ := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)
	claim.Commit()

	_, outcome := registry.Claim(testArn, domain.BackupCopyFinished)
	assert.Equal(t, service.ClaimDuplicate, outcome)

	record, _ := registry.Record(testArn)
	assert.Equal(t, service.StateTriggered, record.State)
	assert.False(t, record.TriggeredAt.IsZero())
}

func TestRollbackAllowsRetry(t *testing.T) {
	registry := service.NewRegistry()

	claim, _ := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)
	claim.Rollback()

	record, _ := registry.Record(testArn)
	assert.Equal(t, service.StatePending, record.State)

	retry, outcome := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)
	assert.Equal(t, service.ClaimAccepted, outcome)
	retry.Commit()
}

func TestAbandonRemovesRecord(t *testing.T) {
	registry := service.NewRegistry()

	claim, _ := registry.Claim(testArn, domain.BackupCopyFinished)
	claim.Abandon()

	_, ok := registry.Record(testArn)
	assert.False(t, ok)
	assert.Equal(t, 0, registry.Len())
}

func TestClaimsForDistinctSnapshotsAreIndependent(t *testing.T) {
	registry := service.NewRegistry()

	var wg sync.WaitGroup
	accepted := make([]service.ClaimOutcome, 100)

	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			arn := fmt.Sprintf("arn:aws:rds:us-west-2:271828182845:snapshot:snap-%d", i)
			claim, outcome := registry.Claim(arn, domain.ManualSnapshotCreated)
			accepted[i] = outcome
			claim.Commit()
		}(i)
	}

	wg.Wait()

	for i, outcome := range accepted {
		assert.Equal(t, service.ClaimAccepted, outcome, "snapshot %d", i)
	}

	assert.Equal(t, 100, registry.Len())
}

func TestConcurrentClaimsForSameSnapshotAcceptExactlyOne(t *testing.T) {
	registry := service.NewRegistry()

	var wg sync.WaitGroup
	outcomes := make([]service.ClaimOutcome, 50)

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			claim, outcome := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)
			outcomes[i] = outcome
			if outcome == service.ClaimAccepted {
				claim.Commit()
			}
		}(i)
	}

	wg.Wait()

	winners := 0
	for _, outcome := range outcomes {
		if outcome == service.ClaimAccepted {
			winners++
		}
	}

	assert.Equal(t, 1, winners)
}

func TestSweepEvictsExpiredRecords(t *testing.T) {
	registry := service.NewRegistry()

	triggered, _ := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)
	triggered.Commit()

	pending, _ := registry.Claim(testArn+"-pending", domain.ManualSnapshotCreated)
	pending.Rollback()

	// nothing is old enough yet
	assert.Equal(t, 0, registry.Sweep(time.Now().Add(-time.Hour)))
	assert.Equal(t, 2, registry.Len())

	// everything is past the cutoff
	assert.Equal(t, 2, registry.Sweep(time.Now().Add(time.Hour)))
	assert.Equal(t, 0, registry.Len())
}

func TestSweepSkipsInFlightRecords(t *testing.T) {
	registry := service.NewRegistry()

	claim, _ := registry.Claim(testArn, domain.AutomatedInstanceSnapshotCreated)

	assert.Equal(t, 0, registry.Sweep(time.Now().Add(time.Hour)))

	claim.Commit()
	assert.Equal(t, 1, registry.Sweep(time.Now().Add(time.Hour)))
}
