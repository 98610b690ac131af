// Package reporter tracks the live phase/progress/status of a sync cycle
// for anything watching it (the local API's WebSocket hub, the CLI).
//
// This is deliberately an injected capability rather than a package-level
// singleton: a process-wide mutex-guarded static would make it impossible
// to run two independent engines (e.g. in tests) without them clobbering
// each other's state. Callers construct one Reporter and pass it down to
// the engine and driver that need it.
package reporter

import "sync"

// Phase names one leg of a sync cycle.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseListing      Phase = "listing"
	PhaseDeleteServer Phase = "delete_server"
	PhaseDeleteLocal  Phase = "delete_local"
	PhaseDownload     Phase = "download"
	PhaseUpload       Phase = "upload"
)

// StatusKind is the coarse-grained state surfaced to a UI.
type StatusKind string

const (
	StatusIdle    StatusKind = "idle"
	StatusSyncing StatusKind = "syncing"
	StatusSynced  StatusKind = "synced"
	StatusWarning StatusKind = "warning"
	StatusError   StatusKind = "error"
)

// Status is a StatusKind plus the message that accompanies Warning/Error.
type Status struct {
	Kind    StatusKind
	Message string
}

// Progress is a point-in-time phase/current/total snapshot.
type Progress struct {
	Phase   Phase
	Current uint64
	Total   uint64
}

// Snapshot is the full state a reader cares about at one instant.
type Snapshot struct {
	Status   Status
	Progress Progress
}

// Reporter is single-writer (the engine/executor running a cycle),
// many-reader (anything polling or subscribing to Snapshot). Reads never
// block on writes and vice versa beyond a brief mutex hold.
type Reporter struct {
	mu       sync.RWMutex
	status   Status
	progress Progress
	subs     []chan Snapshot
}

// New returns a Reporter in the idle state.
func New() *Reporter {
	return &Reporter{status: Status{Kind: StatusIdle}}
}

// SetStatus updates the coarse status and notifies subscribers.
func (r *Reporter) SetStatus(status Status) {
	r.mu.Lock()
	r.status = status
	snap := Snapshot{Status: r.status, Progress: r.progress}
	subs := append([]chan Snapshot(nil), r.subs...)
	r.mu.Unlock()
	notify(subs, snap)
}

// SetProgress updates the phase/current/total and notifies subscribers.
func (r *Reporter) SetProgress(p Progress) {
	r.mu.Lock()
	r.progress = p
	snap := Snapshot{Status: r.status, Progress: r.progress}
	subs := append([]chan Snapshot(nil), r.subs...)
	r.mu.Unlock()
	notify(subs, snap)
}

// Snapshot returns the current status and progress without blocking on
// any in-flight write for longer than the mutex hold.
func (r *Reporter) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return Snapshot{Status: r.status, Progress: r.progress}
}

// Subscribe registers a channel that receives every snapshot taken after a
// SetStatus/SetProgress call. The channel is buffered and never blocks the
// writer; a slow subscriber just misses intermediate snapshots.
func (r *Reporter) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 16)
	r.mu.Lock()
	r.subs = append(r.subs, ch)
	r.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel previously returned by Subscribe.
func (r *Reporter) Unsubscribe(ch <-chan Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, sub := range r.subs {
		if sub == ch {
			close(sub)
			r.subs = append(r.subs[:i], r.subs[i+1:]...)
			return
		}
	}
}

func notify(subs []chan Snapshot, snap Snapshot) {
	for _, ch := range subs {
		select {
		case ch <- snap:
		default:
		}
	}
}
