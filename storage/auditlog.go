package storage

import (
	"encoding/binary"

	"github.com/google/uuid"

	"github.com/vocdoni/tallycore/types"
)

// auditKey orders entries by election then by timestamp (so ListAuditLog
// naturally returns them in insertion order), with a UUID suffix to keep
// entries sharing a timestamp distinct. The storage layer never exposes an
// update or delete for this prefix: Append is the only write.
func auditKey(electionID types.ElectionID, timestampNano int64) []byte {
	key := make([]byte, 0, types.ElectionIDSize+8+16)
	key = append(key, electionID.Bytes()...)
	var tsBuf [8]byte
	binary.BigEndian.PutUint64(tsBuf[:], uint64(timestampNano))
	key = append(key, tsBuf[:]...)
	id := uuid.New()
	key = append(key, id[:]...)
	return key
}

// AppendAudit appends entry to the audit log. There is deliberately no
// UpdateAudit or DeleteAudit: entries are immutable once written.
func (s *Storage) AppendAudit(entry *types.AuditEntry) error {
	key := auditKey(entry.ElectionID, entry.Timestamp.UnixNano())
	return setArtifact(s.db, auditPrefix, key, entry, false)
}

// ListAuditLog invokes callback for every audit entry of electionID, in
// insertion order.
func (s *Storage) ListAuditLog(electionID types.ElectionID, callback func(*types.AuditEntry) bool) error {
	prefix := append(append([]byte{}, auditPrefix...), electionID.Bytes()...)
	return iterateArtifacts[types.AuditEntry](s.db, prefix, func(_ []byte, e *types.AuditEntry) bool {
		return callback(e)
	})
}
