package syncer

import "time"

type EventKind int

const (
	SyncStarted EventKind = iota
	SyncSucceeded
	SyncFailed
	StatusRefreshed
	ConnectivityChanged
)

func (k EventKind) String() string {
	switch k {
	case SyncStarted:
		return "sync_started"
	case SyncSucceeded:
		return "sync_succeeded"
	case SyncFailed:
		return "sync_failed"
	case StatusRefreshed:
		return "status_refreshed"
	case ConnectivityChanged:
		return "connectivity_changed"
	default:
		return "unknown"
	}
}

// Event describes one step of the coordinator's life. Only the fields
// relevant to Kind are set.
type Event struct {
	Kind EventKind
	Time time.Time

	// SyncSucceeded
	Inserted int

	// SyncFailed. Folder is empty when the failure happened before any
	// folder was listed.
	Folder string
	Err    error

	// ConnectivityChanged and StatusRefreshed
	Online bool

	// StatusRefreshed
	Status Status
}

// Status is a snapshot of the sync state.
type Status struct {
	Online   bool
	LastSync time.Time
	Entries  int
	Items    int
}

// Observer receives coordinator events. Implementations must not block.
type Observer interface {
	OnSyncEvent(Event)
}

type ObserverFunc func(Event)

func (f ObserverFunc) OnSyncEvent(e Event) { f(e) }

type nopObserver struct{}

func (nopObserver) OnSyncEvent(Event) {}

// Observers fans every event out to each of obs.
type Observers []Observer

func (o Observers) OnSyncEvent(e Event) {
	for _, obs := range o {
		obs.OnSyncEvent(e)
	}
}
