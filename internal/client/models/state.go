package models

// State is the lifecycle position of a cached record relative to the
// remote store.
type State int

const (
	Unsynced State = iota
	Pending
	Active
	PendingDeletion
	Deleted
	StaleActive
)

var stateNames = map[State]string{
	Unsynced:        "unsynced",
	Pending:         "pending",
	Active:          "active",
	PendingDeletion: "pending_deletion",
	Deleted:         "deleted",
	StaleActive:     "stale_active",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}
