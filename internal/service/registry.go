package service

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/skyhook-io/snapshot-exporter/internal/domain"
)

const shardCount = 32

type RecordState int

const (
	StatePending RecordState = iota + 1
	StateTriggered
)

func (s RecordState) String() string {
	switch s {
	case StatePending:
		return "PENDING"
	case StateTriggered:
		return "EXPORT_TRIGGERED"
	}

	return "UNSEEN"
}

// SnapshotRecord is the process-lifetime dedup state for one snapshot,
// keyed by its source ARN.
type SnapshotRecord struct {
	SourceARN        string
	FirstSeenEventID domain.EventID
	State            RecordState
	FirstSeenAt      time.Time
	TriggeredAt      time.Time

	inflight bool
}

type shard struct {
	mu      sync.Mutex
	records map[string]*SnapshotRecord
}

// Registry holds snapshot records sharded by ARN hash so notifications for
// distinct snapshots never contend on the same lock.
type Registry struct {
	shards [shardCount]*shard
}

func NewRegistry() *Registry {
	registry := Registry{}
	for i := range registry.shards {
		registry.shards[i] = &shard{records: make(map[string]*SnapshotRecord)}
	}

	return &registry
}

func (r *Registry) shardFor(arn string) *shard {
	h := fnv.New32a()
	h.Write([]byte(arn))
	return r.shards[h.Sum32()%shardCount]
}

type ClaimOutcome int

const (
	// ClaimAccepted means the caller holds the exclusive right to submit an
	// export for this snapshot until Commit, Rollback or Abandon.
	ClaimAccepted ClaimOutcome = iota
	// ClaimDuplicate means an export was already triggered for this snapshot.
	ClaimDuplicate
	// ClaimInFlight means another worker currently holds the claim.
	ClaimInFlight
)

// Claim is the per-snapshot critical section around the PENDING to
// EXPORT_TRIGGERED transition. The shard lock is not held while the caller
// talks to the export collaborator; the inflight flag keeps the transition
// mutually exclusive instead.
type Claim struct {
	registry *Registry
	arn      string
	fresh    bool
}

func (r *Registry) Claim(arn string, eventID domain.EventID) (*Claim, ClaimOutcome) {
	s := r.shardFor(arn)
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[arn]
	if !ok {
		s.records[arn] = &SnapshotRecord{
			SourceARN:        arn,
			FirstSeenEventID: eventID,
			State:            StatePending,
			FirstSeenAt:      time.Now(),
			inflight:         true,
		}

		return &Claim{registry: r, arn: arn, fresh: true}, ClaimAccepted
	}

	if record.State == StateTriggered {
		return nil, ClaimDuplicate
	}

	if record.inflight {
		return nil, ClaimInFlight
	}

	record.inflight = true
	return &Claim{registry: r, arn: arn}, ClaimAccepted
}

// Commit marks the export as triggered. This is the only place a record
// enters EXPORT_TRIGGERED, and the state is absorbing from here on.
func (c *Claim) Commit() {
	s := c.registry.shardFor(c.arn)
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[c.arn]
	record.State = StateTriggered
	record.TriggeredAt = time.Now()
	record.inflight = false
}

// Rollback returns the record to PENDING so a redelivered notification can
// attempt the export again.
func (c *Claim) Rollback() {
	s := c.registry.shardFor(c.arn)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[c.arn].inflight = false
}

// Abandon removes the record entirely. Used when the snapshot turns out not
// to belong to the configured database at all.
func (c *Claim) Abandon() {
	s := c.registry.shardFor(c.arn)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, c.arn)
}

// Record returns a copy of the stored state for observability and tests.
func (r *Registry) Record(arn string) (SnapshotRecord, bool) {
	s := r.shardFor(arn)
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[arn]
	if !ok {
		return SnapshotRecord{}, false
	}

	return *record, true
}

func (r *Registry) Len() int {
	total := 0
	for _, s := range r.shards {
		s.mu.Lock()
		total += len(s.records)
		s.mu.Unlock()
	}

	return total
}

// Sweep evicts records last touched before the cutoff. Redelivery past the
// retention window is assumed impossible, so dropping the record cannot
// reopen the exactly-once guarantee. In-flight records are never evicted.
func (r *Registry) Sweep(cutoff time.Time) int {
	evicted := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for arn, record := range s.records {
			if record.inflight {
				continue
			}

			reference := record.FirstSeenAt
			if record.State == StateTriggered {
				reference = record.TriggeredAt
			}

			if reference.Before(cutoff) {
				delete(s.records, arn)
				evicted++
			}
		}
		s.mu.Unlock()
	}

	return evicted
}
