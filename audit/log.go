package audit

import (
	"github.com/vocdoni/tallycore/log"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/types"
)

// Log appends immutable entries to the storage-backed audit trail and
// mirrors every entry to the structured logger, so operators tailing logs
// see the same history the storage layer retains.
type Log struct {
	store *storage.Storage
}

// NewLog wraps store with the audit-append API.
func NewLog(store *storage.Storage) *Log {
	return &Log{store: store}
}

// Append records one state-changing call's outcome. It never returns an
// error to the caller's control flow: a failure to persist the audit entry
// itself is logged but does not unwind the operation that triggered it,
// since the caller's own storage write already went through its own error
// path.
func (l *Log) Append(entry types.AuditEntry) {
	if err := l.store.AppendAudit(&entry); err != nil {
		log.Errorw(err, "failed to append audit entry")
		return
	}
	if entry.Status == types.AuditStatusFailed {
		log.Warnw("audit: operation failed",
			"election_id", entry.ElectionID.String(),
			"operation", entry.Operation,
			"actor", entry.Actor,
			"details", entry.Details,
		)
		return
	}
	log.Infow("audit: operation succeeded",
		"election_id", entry.ElectionID.String(),
		"operation", entry.Operation,
		"actor", entry.Actor,
	)
}

// List returns every audit entry recorded for electionID, in insertion
// order.
func (l *Log) List(electionID types.ElectionID) ([]types.AuditEntry, error) {
	var entries []types.AuditEntry
	err := l.store.ListAuditLog(electionID, func(e *types.AuditEntry) bool {
		entries = append(entries, *e)
		return true
	})
	return entries, err
}
