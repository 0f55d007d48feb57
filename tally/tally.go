package tally

import (
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/vocdoni/tallycore/audit"
	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/crypto/threshold"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/types"
)

// SubmitBallot accepts one voter's encrypted ballot for an active election.
// Nonce uniqueness is enforced by the storage layer and doubles as the
// replay guard against resubmission.
func (e *Engine) SubmitBallot(electionID types.ElectionID, ciphertexts []*big.Int, nonce []byte) (*types.EncryptedBallot, error) {
	election, err := e.store.Election(electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if election.State != types.ElectionStateActive {
		err := fmt.Errorf("%w: election is %q, expected %q", ErrState, election.State, types.ElectionStateActive)
		e.logFailure(electionID, "submit_ballot", "voter", err)
		return nil, err
	}
	if len(ciphertexts) != election.CandidateCount() {
		err := fmt.Errorf("%w: ballot carries %d ciphertexts, election has %d candidates", ErrState, len(ciphertexts), election.CandidateCount())
		e.logFailure(electionID, "submit_ballot", "voter", err)
		return nil, err
	}

	values := make([]*types.BigInt, len(ciphertexts))
	for i, c := range ciphertexts {
		values[i] = types.NewBigInt(c)
	}
	ballot := &types.EncryptedBallot{
		VoteID:      types.HexBytes(nonce),
		ElectionID:  electionID,
		Ciphertexts: values,
		Nonce:       types.HexBytes(nonce),
	}
	if err := e.store.SetBallot(ballot); err != nil {
		if err == storage.ErrKeyAlreadyExists {
			err = fmt.Errorf("%w: ballot nonce already used", ErrDuplicate)
		}
		e.logFailure(electionID, "submit_ballot", "voter", err)
		return nil, err
	}
	e.logSuccess(electionID, "submit_ballot", "voter", ballot.VoteID.Hex())
	return ballot, nil
}

// StartTally opens a tallying session for electionID, requiring the
// election to be active with at least one accepted ballot and no existing
// session. The session begins in the initiated state.
func (e *Engine) StartTally(electionID types.ElectionID, requiredTrustees int) (*types.TallyingSession, error) {
	lock := e.lockFor(electionID)
	lock.Lock()
	defer lock.Unlock()

	election, err := e.store.Election(electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if election.State != types.ElectionStateActive {
		err := fmt.Errorf("%w: election is %q, expected %q", ErrState, election.State, types.ElectionStateActive)
		e.logFailure(electionID, "start_tally", "operator", err)
		return nil, err
	}
	count, err := e.store.CountBallots(electionID)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		err := fmt.Errorf("%w: election has no accepted ballots", ErrState)
		e.logFailure(electionID, "start_tally", "operator", err)
		return nil, err
	}

	session := &types.TallyingSession{
		ElectionID:       electionID,
		State:            types.SessionStateInitiated,
		RequiredTrustees: requiredTrustees,
		StartedAt:        time.Now().UTC(),
	}
	if err := e.store.SetSession(session); err != nil {
		if err == storage.ErrKeyAlreadyExists {
			err = fmt.Errorf("%w: a tallying session already exists for this election", ErrConflict)
		}
		e.logFailure(electionID, "start_tally", "operator", err)
		return nil, err
	}
	e.logSuccess(electionID, "start_tally", "operator", fmt.Sprintf("ballots=%d required_trustees=%d", count, requiredTrustees))
	return session, nil
}

// Aggregate computes the per-candidate product of every accepted ballot's
// ciphertext, marks those ballots tallied, and transitions the election into
// the tallying state and the session into decrypting. On any internal
// failure the session is moved to failed rather than left half-mutated.
func (e *Engine) Aggregate(electionID types.ElectionID, pub *paillier.PublicKey) (*types.TallyingSession, error) {
	lock := e.lockFor(electionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.Session(electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if session.State != types.SessionStateInitiated {
		err := fmt.Errorf("%w: session is %q, expected %q", ErrState, session.State, types.SessionStateInitiated)
		e.logFailure(electionID, "aggregate", "operator", err)
		return nil, err
	}
	session.State = types.SessionStateAggregating
	if err := e.store.UpdateSession(session); err != nil {
		return nil, err
	}

	election, err := e.store.Election(electionID)
	if err != nil {
		return nil, e.fail(electionID, session, fmt.Errorf("%w: %v", ErrNotFound, err))
	}

	perCandidate := make([][]*paillier.Ciphertext, election.CandidateCount())
	ballotCount := 0
	if err := e.store.ListBallots(electionID, func(b *types.EncryptedBallot) bool {
		for j, v := range b.Ciphertexts {
			perCandidate[j] = append(perCandidate[j], &paillier.Ciphertext{C: v.MathBigInt()})
		}
		ballotCount++
		return true
	}); err != nil {
		return nil, e.fail(electionID, session, err)
	}

	aggregated := &types.AggregatedCiphertext{
		ElectionID:  electionID,
		Values:      make([]*types.BigInt, election.CandidateCount()),
		BallotCount: ballotCount,
	}
	for j, cs := range perCandidate {
		sum, err := pub.Aggregate(cs)
		if err != nil {
			return nil, e.fail(electionID, session, fmt.Errorf("aggregating candidate %d: %w", j, err))
		}
		aggregated.Values[j] = types.NewBigInt(sum.C)
	}

	if err := e.store.MarkBallotsTallied(electionID); err != nil {
		return nil, e.fail(electionID, session, err)
	}

	election.State = types.ElectionStateTallying
	if err := e.store.UpdateElection(election); err != nil {
		return nil, e.fail(electionID, session, err)
	}

	session.Aggregated = aggregated
	session.State = types.SessionStateDecrypting
	if err := e.store.UpdateSession(session); err != nil {
		return nil, err
	}
	e.logSuccess(electionID, "aggregate", "operator", fmt.Sprintf("ballots=%d", ballotCount))
	return session, nil
}

// fail transitions session to failed with the given cause and returns the
// original error to the caller, so an Aggregate/Finalize failure both marks
// the session terminal and still surfaces the triggering error.
func (e *Engine) fail(electionID types.ElectionID, session *types.TallyingSession, cause error) error {
	session.State = types.SessionStateFailed
	session.ErrorMessage = cause.Error()
	_ = e.store.UpdateSession(session)
	e.logFailure(electionID, "fail", "system", cause)
	return cause
}

// Fail transitions an in-flight tallying session (and its election) to the
// failed state for reason. It is valid to call from any non-terminal
// session state.
func (e *Engine) Fail(electionID types.ElectionID, reason string) error {
	lock := e.lockFor(electionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.Session(electionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if session.State == types.SessionStateCompleted || session.State == types.SessionStateFailed {
		return fmt.Errorf("%w: session is already %q", ErrState, session.State)
	}
	session.State = types.SessionStateFailed
	session.ErrorMessage = reason
	if err := e.store.UpdateSession(session); err != nil {
		return err
	}
	if election, err := e.store.Election(electionID); err == nil {
		election.State = types.ElectionStateFailed
		_ = e.store.UpdateElection(election)
	}
	e.logFailure(electionID, "fail", "operator", fmt.Errorf("%s", reason))
	return nil
}

// ResetSession is the operator recovery path for a failed session: it
// deletes the session record and returns the election to the active state
// so a fresh StartTally can run. Only failed sessions can be reset.
func (e *Engine) ResetSession(electionID types.ElectionID) error {
	lock := e.lockFor(electionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.Session(electionID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if session.State != types.SessionStateFailed {
		err := fmt.Errorf("%w: session is %q, only failed sessions can be reset", ErrState, session.State)
		e.logFailure(electionID, "reset_session", "operator", err)
		return err
	}
	if err := e.store.DeleteSession(electionID); err != nil {
		return err
	}
	if election, err := e.store.Election(electionID); err == nil && election.State != types.ElectionStateActive {
		election.State = types.ElectionStateActive
		if err := e.store.UpdateElection(election); err != nil {
			return err
		}
	}
	e.logSuccess(electionID, "reset_session", "operator", "")
	return nil
}

// SubmitPartial records one trustee's partial decryption of the aggregated
// ciphertext, verifying each per-candidate Chaum-Pedersen proof before
// counting it toward the threshold. Distinct trustees may call this
// concurrently; the storage layer's uniqueness constraint serializes
// conflicting submissions from the same trustee.
func (e *Engine) SubmitPartial(pp *threshold.PublicParams, electionID types.ElectionID, trusteeIndex int, values []*big.Int, proofs []*types.ChaumPedersenProof) (*types.TallyingSession, error) {
	lock := e.lockFor(electionID)
	lock.RLock()
	session, err := e.store.Session(electionID)
	lock.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if session.State != types.SessionStateDecrypting {
		err := fmt.Errorf("%w: session is %q, expected %q", ErrState, session.State, types.SessionStateDecrypting)
		e.logFailure(electionID, "submit_partial", fmt.Sprintf("trustee-%d", trusteeIndex), err)
		return nil, err
	}

	trustee, err := e.store.Trustee(electionID, trusteeIndex)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if trustee.Status != types.TrusteeStatusActive {
		err := fmt.Errorf("%w: trustee %d is %q, not active", ErrState, trusteeIndex, trustee.Status)
		e.logFailure(electionID, "submit_partial", trustee.TrusteeID, err)
		return nil, err
	}
	if len(values) != len(proofs) || len(values) != len(session.Aggregated.Values) {
		err := fmt.Errorf("%w: expected %d (value, proof) pairs, got %d values and %d proofs",
			ErrState, len(session.Aggregated.Values), len(values), len(proofs))
		e.logFailure(electionID, "submit_partial", trustee.TrusteeID, err)
		return nil, err
	}

	verified := true
	for j, c := range session.Aggregated.Values {
		if !threshold.VerifyPartial(pp, trusteeIndex, c.MathBigInt(), values[j], proofs[j]) {
			verified = false
			break
		}
	}

	wrapped := make([]*types.BigInt, len(values))
	for i, v := range values {
		wrapped[i] = types.NewBigInt(v)
	}
	partial := &types.PartialDecryption{
		ElectionID:   electionID,
		TrusteeIndex: trusteeIndex,
		Values:       wrapped,
		Proofs:       proofs,
		Verified:     verified,
	}
	if err := e.store.SetPartialDecryption(partial); err != nil {
		if err == storage.ErrKeyAlreadyExists {
			err = fmt.Errorf("%w: trustee %d already submitted for this election", ErrDuplicate, trusteeIndex)
		}
		e.logFailure(electionID, "submit_partial", trustee.TrusteeID, err)
		return nil, err
	}

	if !verified {
		e.logFailure(electionID, "submit_partial", trustee.TrusteeID, fmt.Errorf("proof verification failed for trustee %d", trusteeIndex))
		return session, nil
	}

	lock.Lock()
	session, err = e.store.Session(electionID)
	if err != nil {
		lock.Unlock()
		return nil, err
	}
	session.CompletedTrustees++
	err = e.store.UpdateSession(session)
	lock.Unlock()
	if err != nil {
		return nil, err
	}
	e.logSuccess(electionID, "submit_partial", trustee.TrusteeID, fmt.Sprintf("completed=%d/%d", session.CompletedTrustees, session.RequiredTrustees))
	return session, nil
}

// Finalize recombines the first RequiredTrustees verified partial
// decryptions into the final tally, checks each candidate's recovered count
// does not exceed the number of ballots aggregated, computes the
// verification hash, persists the immutable ElectionResult, and transitions
// the session and election to completed.
func (e *Engine) Finalize(pp *threshold.PublicParams, electionID types.ElectionID) (*types.ElectionResult, error) {
	lock := e.lockFor(electionID)
	lock.Lock()
	defer lock.Unlock()

	session, err := e.store.Session(electionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	if session.State != types.SessionStateDecrypting {
		err := fmt.Errorf("%w: session is %q, expected %q", ErrState, session.State, types.SessionStateDecrypting)
		e.logFailure(electionID, "finalize", "operator", err)
		return nil, err
	}
	if session.CompletedTrustees < session.RequiredTrustees {
		err := fmt.Errorf("%w: have %d verified trustees, need %d", ErrTooFewTrustees, session.CompletedTrustees, session.RequiredTrustees)
		e.logFailure(electionID, "finalize", "operator", err)
		return nil, err
	}
	session.State = types.SessionStateFinalizing
	if err := e.store.UpdateSession(session); err != nil {
		return nil, err
	}

	var verified []*types.PartialDecryption
	if err := e.store.ListPartialDecryptions(electionID, func(p *types.PartialDecryption) bool {
		if p.Verified {
			verified = append(verified, p)
		}
		return true
	}); err != nil {
		return nil, e.fail(electionID, session, err)
	}
	sort.Slice(verified, func(i, j int) bool { return verified[i].TrusteeIndex < verified[j].TrusteeIndex })
	if len(verified) < session.RequiredTrustees {
		return nil, e.fail(electionID, session, fmt.Errorf("%w: have %d verified trustees, need %d", ErrTooFewTrustees, len(verified), session.RequiredTrustees))
	}
	chosen := verified[:session.RequiredTrustees]

	numBallots := session.Aggregated.BallotCount
	tally := make([]int64, len(session.Aggregated.Values))
	indices := make([]int, len(chosen))
	for i, p := range chosen {
		indices[i] = p.TrusteeIndex
	}
	for j := range session.Aggregated.Values {
		shares := make([]threshold.Share, len(chosen))
		for i, p := range chosen {
			shares[i] = threshold.Share{Index: p.TrusteeIndex, Decryption: p.Values[j].MathBigInt()}
		}
		m, err := pp.Combine(shares)
		if err != nil {
			return nil, e.fail(electionID, session, fmt.Errorf("combining candidate %d: %w", j, err))
		}
		if !m.IsInt64() || m.Int64() < 0 || m.Int64() > int64(numBallots) {
			return nil, e.fail(electionID, session, fmt.Errorf("%w: candidate %d recovered count %s exceeds %d ballots", ErrOverflowTally, j, m.String(), numBallots))
		}
		tally[j] = m.Int64()
	}

	cVals := make([]*big.Int, len(session.Aggregated.Values))
	for i, v := range session.Aggregated.Values {
		cVals[i] = v.MathBigInt()
	}
	_, hash, err := audit.CanonicalDigest(electionID, pp.PublicKey.N, cVals, tally, indices)
	if err != nil {
		return nil, e.fail(electionID, session, err)
	}

	var total int64
	for _, t := range tally {
		total += t
	}
	result := &types.ElectionResult{
		ElectionID:       electionID,
		Tally:            tally,
		TotalVotes:       total,
		VerificationHash: hash,
		ParticipatingIdx: indices,
	}
	if err := e.store.SetResult(result); err != nil {
		return nil, e.fail(electionID, session, err)
	}

	now := time.Now().UTC()
	session.State = types.SessionStateCompleted
	session.CompletedAt = &now
	if err := e.store.UpdateSession(session); err != nil {
		return nil, err
	}
	if election, err := e.store.Election(electionID); err == nil {
		election.State = types.ElectionStateCompleted
		_ = e.store.UpdateElection(election)
	}
	e.logSuccess(electionID, "finalize", "operator", fmt.Sprintf("total_votes=%d hash=%s", total, hash))
	return result, nil
}
