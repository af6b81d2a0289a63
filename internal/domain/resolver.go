package domain

// Resolution classifies a recognized event: where the snapshot came from and
// which export parameter shape its resource needs.
type Resolution struct {
	SnapshotType SnapshotType
	ResourceKind ResourceKind
}

type UnrecognizedEventError struct {
	EventID EventID
}

func (e UnrecognizedEventError) Error() string {
	return "event id " + string(e.EventID) + " is not in the configured notification kinds"
}

// Resolver maps configured event ids to their classification. Only ids that
// were configured resolve; everything else is rejected so that stray traffic
// never creates dedup state.
type Resolver struct {
	configured map[EventID]Resolution
}

// NewResolver builds a resolver from validated kinds. Call ValidateKinds
// first; an unvalidated kind set panics here rather than misclassifying.
func NewResolver(kinds []NotificationKind) *Resolver {
	configured := make(map[EventID]Resolution, len(kinds))
	for _, kind := range kinds {
		traits, ok := eventTable[kind.EventID]
		if !ok {
			panic("resolver built from unvalidated kind " + string(kind.EventID))
		}

		configured[kind.EventID] = Resolution{
			SnapshotType: traits.snapshotType,
			ResourceKind: traits.resourceKind,
		}
	}

	return &Resolver{configured: configured}
}

func (r *Resolver) Resolve(eventID EventID) (Resolution, error) {
	resolution, ok := r.configured[eventID]
	if !ok {
		return Resolution{}, UnrecognizedEventError{EventID: eventID}
	}

	return resolution, nil
}
