package domain

import "fmt"

// RDS event identifiers for the snapshot lifecycle notifications this
// service understands. The provider sends them as the fragment of the
// "Event ID" link in the event message.
const (
	AutomatedClusterSnapshotCreated  = EventID("RDS-EVENT-0169")
	AutomatedInstanceSnapshotCreated = EventID("RDS-EVENT-0091")
	ManualSnapshotCreated            = EventID("RDS-EVENT-0042")
	BackupCopyFinished               = EventID("RDS-EVENT-0060")
)

type EventID string

type SnapshotType string

const (
	SnapshotAutomated = SnapshotType("AUTOMATED")
	SnapshotBackup    = SnapshotType("BACKUP")
	SnapshotManual    = SnapshotType("MANUAL")
)

// ResourceKind selects the parameter shape of the export API: instance
// snapshots and cluster snapshots are exported through different ARN kinds.
type ResourceKind string

const (
	KindSnapshot        = ResourceKind("snapshot")
	KindClusterSnapshot = ResourceKind("cluster-snapshot")
)

// NotificationKind is one configured (event id, expected snapshot type) pair.
type NotificationKind struct {
	EventID      EventID      `yaml:"eventId"`
	SnapshotType SnapshotType `yaml:"snapshotType"`
}

type eventTraits struct {
	snapshotType SnapshotType
	resourceKind ResourceKind
}

// eventTable is the single source of truth for how each recognized event id
// classifies. Adding a new notification kind is a row here, not a branch.
var eventTable = map[EventID]eventTraits{
	AutomatedClusterSnapshotCreated:  {SnapshotAutomated, KindClusterSnapshot},
	AutomatedInstanceSnapshotCreated: {SnapshotAutomated, KindSnapshot},
	ManualSnapshotCreated:            {SnapshotManual, KindSnapshot},
	BackupCopyFinished:               {SnapshotBackup, KindSnapshot},
}

// ValidateKinds checks every configured pair against the event table. A pair
// whose snapshot type contradicts the table is a deployment mistake and must
// stop the process before any subscription is created.
func ValidateKinds(kinds []NotificationKind) error {
	if len(kinds) == 0 {
		return fmt.Errorf("no notification kinds are configured")
	}

	for _, kind := range kinds {
		traits, ok := eventTable[kind.EventID]
		if !ok {
			return fmt.Errorf("event id %s is not a recognized snapshot lifecycle event", kind.EventID)
		}

		if traits.snapshotType != kind.SnapshotType {
			return fmt.Errorf("event id %s carries snapshot type %s, not %s",
				kind.EventID, traits.snapshotType, kind.SnapshotType)
		}
	}

	return nil
}
