package api

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/types"
)

// startTallyRequest is the body of POST /elections/{electionId}/tally/start.
type startTallyRequest struct {
	RequiredTrustees int `json:"required_trustees"`
}

// startTally opens the tallying session for an election.
// POST /elections/{electionId}/tally/start
func (a *API) startTally(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &startTallyRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.RequiredTrustees <= 0 {
		ErrMalformedBody.With("required_trustees must be positive").Write(w)
		return
	}
	session, err := a.engine.StartTally(electionID, req.RequiredTrustees)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, session)
}

// aggregate computes the per-candidate product of every accepted ballot's
// ciphertext and transitions the session into the decrypting state.
// POST /elections/{electionId}/tally/aggregate
func (a *API) aggregate(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	election, err := a.storage.Election(electionID)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	pub := &paillier.PublicKey{N: election.PublicKey.N.MathBigInt(), G: election.PublicKey.G.MathBigInt()}

	session, err := a.engine.Aggregate(electionID, pub)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, session)
}

// submitPartialRequest is the body of POST /elections/{electionId}/tally/partials.
type submitPartialRequest struct {
	TrusteeIndex int                         `json:"trustee_index"`
	Values       []*types.BigInt             `json:"values"`
	Proofs       []*types.ChaumPedersenProof `json:"proofs"`
}

// submitPartial records one trustee's partial decryption of the aggregated
// ciphertext, verifying its Chaum-Pedersen proof per candidate.
// POST /elections/{electionId}/tally/partials
func (a *API) submitPartial(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &submitPartialRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if len(req.Values) != len(req.Proofs) {
		ErrMalformedBody.With("values and proofs must have the same length").Write(w)
		return
	}

	pp, err := a.engine.PublicParams(electionID)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}

	values := make([]*big.Int, len(req.Values))
	for i, v := range req.Values {
		values[i] = v.MathBigInt()
	}
	session, err := a.engine.SubmitPartial(pp, electionID, req.TrusteeIndex, values, req.Proofs)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, session)
}

// finalize recombines verified partial decryptions into the final tally and
// persists the immutable ElectionResult.
// POST /elections/{electionId}/tally/finalize
func (a *API) finalize(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	pp, err := a.engine.PublicParams(electionID)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	result, err := a.engine.Finalize(pp, electionID)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, result)
}

// resetTally deletes a failed tallying session so the operator can restart
// tallying for the election once the failure cause is fixed.
// POST /elections/{electionId}/tally/reset
func (a *API) resetTally(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	if err := a.engine.ResetSession(electionID); err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// getSession fetches the tallying session state for an election.
// GET /elections/{electionId}/tally/session
func (a *API) getSession(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	session, err := a.storage.Session(electionID)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, session)
}
