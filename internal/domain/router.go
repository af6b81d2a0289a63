package domain

// SubscriptionSpec names one upstream event subscription: which resource type
// it watches and which event category it asks for.
type SubscriptionSpec struct {
	SourceType string
	Category   string
}

const (
	SourceTypeSnapshot        = "db-snapshot"
	SourceTypeClusterSnapshot = "db-cluster-snapshot"

	CategoryCreation     = "creation"
	CategoryBackup       = "backup"
	CategoryNotification = "notification"
)

// Route derives the minimal subscription topology for the configured kinds.
// Automated cluster snapshot events arrive under the cluster backup category,
// backup copy completions under the snapshot notification category, and every
// other creation-class event under the snapshot creation category. Kinds that
// collapse to the same spec yield it once, in first-seen order.
func Route(kinds []NotificationKind) []SubscriptionSpec {
	var specs []SubscriptionSpec
	seen := make(map[SubscriptionSpec]bool)

	for _, kind := range kinds {
		var spec SubscriptionSpec
		switch kind.EventID {
		case AutomatedClusterSnapshotCreated:
			spec = SubscriptionSpec{SourceType: SourceTypeClusterSnapshot, Category: CategoryBackup}
		case BackupCopyFinished:
			spec = SubscriptionSpec{SourceType: SourceTypeSnapshot, Category: CategoryNotification}
		default:
			spec = SubscriptionSpec{SourceType: SourceTypeSnapshot, Category: CategoryCreation}
		}

		if seen[spec] {
			continue
		}

		seen[spec] = true
		specs = append(specs, spec)
	}

	return specs
}

// ContainsBackupCopy reports whether any configured kind is the backup copy
// completion event. Callers use it to warn, rather than silently proceed,
// when no notification-category subscription will exist.
func ContainsBackupCopy(kinds []NotificationKind) bool {
	for _, kind := range kinds {
		if kind.EventID == BackupCopyFinished {
			return true
		}
	}

	return false
}
