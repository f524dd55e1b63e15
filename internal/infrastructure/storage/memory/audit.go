package memory

import (
	"context"
	"sync"

	"atelier/internal/domain/audit"
)

// AuditRecorder keeps journal entries in memory.
type AuditRecorder struct {
	mu      sync.Mutex
	entries []audit.Entry
}

var _ audit.Recorder = (*AuditRecorder)(nil)

// NewAuditRecorder creates an empty recorder.
func NewAuditRecorder() *AuditRecorder {
	return &AuditRecorder{}
}

// Record implements audit.Recorder.
func (r *AuditRecorder) Record(ctx context.Context, entry audit.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return nil
}

// Entries returns a copy of the recorded entries.
func (r *AuditRecorder) Entries() []audit.Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]audit.Entry(nil), r.entries...)
}

// EntriesFor returns entries with the given action.
func (r *AuditRecorder) EntriesFor(action audit.Action) []audit.Entry {
	var out []audit.Entry
	for _, e := range r.Entries() {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}
