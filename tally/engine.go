// Package tally implements the tallying-session state machine: aggregating
// accepted ballots into one ciphertext per candidate, collecting trustee
// partial decryptions, finalizing the combined tally, and recording every
// transition to the audit log.
package tally

import (
	"fmt"
	"sync"
	"time"

	"github.com/vocdoni/tallycore/audit"
	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/types"
)

// Engine coordinates per-election tallying sessions. All state transitions
// of a single session are serialized through a per-election lock; partial
// decryption submissions from distinct trustees take a shared lock and rely
// on the storage layer's uniqueness constraint for correctness.
type Engine struct {
	store *storage.Storage
	audit *audit.Log

	locksMu sync.Mutex
	locks   map[types.ElectionID]*sync.RWMutex
}

// NewEngine constructs an Engine over store, appending every transition to
// auditLog.
func NewEngine(store *storage.Storage, auditLog *audit.Log) *Engine {
	return &Engine{
		store: store,
		audit: auditLog,
		locks: make(map[types.ElectionID]*sync.RWMutex),
	}
}

func (e *Engine) lockFor(id types.ElectionID) *sync.RWMutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()
	l, ok := e.locks[id]
	if !ok {
		l = &sync.RWMutex{}
		e.locks[id] = l
	}
	return l
}

func (e *Engine) logSuccess(electionID types.ElectionID, operation, actor, details string) {
	e.audit.Append(types.AuditEntry{
		ElectionID: electionID,
		Operation:  operation,
		Actor:      actor,
		Details:    details,
		Status:     types.AuditStatusSuccess,
		Timestamp:  time.Now().UTC(),
	})
}

func (e *Engine) logFailure(electionID types.ElectionID, operation, actor string, err error) {
	e.audit.Append(types.AuditEntry{
		ElectionID: electionID,
		Operation:  operation,
		Actor:      actor,
		Details:    err.Error(),
		Status:     types.AuditStatusFailed,
		Timestamp:  time.Now().UTC(),
	})
}

// CreateElection generates a fresh Paillier keypair of the given bit-length,
// persists the election in pending state, and returns the private key so
// the caller can run the threshold share-issuance ceremony. The private key
// must not be persisted whole: once shares are issued and sealed, the
// caller must zero it.
func (e *Engine) CreateElection(title string, candidates []types.Candidate, bits int) (*types.Election, *paillier.PrivateKey, error) {
	pub, priv, err := paillier.GenerateKeyPair(bits)
	if err != nil {
		return nil, nil, fmt.Errorf("tally: key generation: %w", err)
	}

	election := &types.Election{
		ID:         types.NewElectionID(),
		Title:      title,
		Candidates: candidates,
		PublicKey: types.PaillierPublicKey{
			N: types.NewBigInt(pub.N),
			G: types.NewBigInt(pub.G),
		},
		State:     types.ElectionStatePending,
		CreatedAt: time.Now().UTC(),
	}
	if err := e.store.SetElection(election); err != nil {
		return nil, nil, err
	}
	e.logSuccess(election.ID, "create_election", "operator", title)
	return election, priv, nil
}

// ActivateElection transitions an election from pending to active, opening
// it to ballot submission.
func (e *Engine) ActivateElection(electionID types.ElectionID) error {
	election, err := e.store.Election(electionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if election.State != types.ElectionStatePending {
		err := fmt.Errorf("%w: election is %q, expected %q", ErrState, election.State, types.ElectionStatePending)
		e.logFailure(electionID, "activate_election", "operator", err)
		return err
	}
	election.State = types.ElectionStateActive
	if err := e.store.UpdateElection(election); err != nil {
		return err
	}
	e.logSuccess(electionID, "activate_election", "operator", "")
	return nil
}

// RegisterTrustee records a trustee's public commitment and sealed share at
// ceremony time.
func (e *Engine) RegisterTrustee(electionID types.ElectionID, trusteeID string, index int, commitment, encryptedShare []byte) error {
	t := &types.Trustee{
		TrusteeID:        trusteeID,
		ElectionID:       electionID,
		Index:            index,
		PublicCommitment: new(types.BigInt).SetBytes(commitment),
		EncryptedShare:   encryptedShare,
		Status:           types.TrusteeStatusPending,
	}
	if err := e.store.SetTrustee(t); err != nil {
		e.logFailure(electionID, "register_trustee", trusteeID, err)
		return err
	}
	e.logSuccess(electionID, "register_trustee", trusteeID, fmt.Sprintf("index=%d", index))
	return nil
}

// ActivateTrustee marks a pending trustee active once its share-issuance
// ceremony step is confirmed, allowing it to submit partial decryptions.
func (e *Engine) ActivateTrustee(electionID types.ElectionID, index int) error {
	t, err := e.store.Trustee(electionID, index)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	t.Status = types.TrusteeStatusActive
	if err := e.store.UpdateTrustee(t); err != nil {
		return err
	}
	e.logSuccess(electionID, "activate_trustee", t.TrusteeID, fmt.Sprintf("index=%d", index))
	return nil
}

// RevokeTrustee marks a trustee revoked, excluding it from future partial
// decryption submissions.
func (e *Engine) RevokeTrustee(electionID types.ElectionID, index int) error {
	t, err := e.store.Trustee(electionID, index)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	t.Status = types.TrusteeStatusRevoked
	if err := e.store.UpdateTrustee(t); err != nil {
		return err
	}
	e.logSuccess(electionID, "revoke_trustee", t.TrusteeID, fmt.Sprintf("index=%d", index))
	return nil
}
