package types

import "time"

// TallyingSession is the one-to-one, run-once coordination record for
// decrypting a single election's aggregated ciphertext.
type TallyingSession struct {
	ElectionID        ElectionID            `json:"election_id" cbor:"election_id"`
	State             SessionState          `json:"state" cbor:"state"`
	Aggregated        *AggregatedCiphertext `json:"aggregated,omitempty" cbor:"aggregated,omitempty"`
	RequiredTrustees  int                   `json:"required_trustees" cbor:"required_trustees"`
	CompletedTrustees int                   `json:"completed_trustees" cbor:"completed_trustees"`
	StartedAt         time.Time             `json:"started_at" cbor:"started_at"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty" cbor:"completed_at,omitempty"`
	ErrorMessage      string                `json:"error_message,omitempty" cbor:"error_message,omitempty"`
}

// ElectionResult is the output of finalization: the recovered tally plus the
// integrity digest that the verifier recomputes and compares against.
type ElectionResult struct {
	ElectionID       ElectionID `json:"election_id" cbor:"election_id"`
	Tally            []int64    `json:"tally" cbor:"tally"`
	TotalVotes       int64      `json:"total_votes" cbor:"total_votes"`
	VerificationHash string     `json:"verification_hash" cbor:"verification_hash"`
	BlockchainTxHash string     `json:"blockchain_tx_hash,omitempty" cbor:"blockchain_tx_hash,omitempty"`
	IsVerified       bool       `json:"is_verified" cbor:"is_verified"`
	ParticipatingIdx []int      `json:"participating_trustee_indices" cbor:"participating_trustee_indices"`
}

// AuditEntry is an append-only record of one state-changing call, successful
// or failed. Entries are never mutated after insertion.
type AuditEntry struct {
	ElectionID ElectionID  `json:"election_id" cbor:"election_id"`
	Operation  string      `json:"operation" cbor:"operation"`
	Actor      string      `json:"actor" cbor:"actor"`
	Details    string      `json:"details,omitempty" cbor:"details,omitempty"`
	Status     AuditStatus `json:"status" cbor:"status"`
	Timestamp  time.Time   `json:"timestamp" cbor:"timestamp"`
}
