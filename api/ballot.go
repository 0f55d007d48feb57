package api

import (
	"encoding/json"
	"math/big"
	"net/http"

	"github.com/vocdoni/tallycore/types"
)

// submitBallotRequest is the body of POST /elections/{electionId}/ballots.
type submitBallotRequest struct {
	Ciphertexts []*types.BigInt `json:"ciphertexts"`
	Nonce       types.HexBytes  `json:"nonce"`
}

// submitBallot accepts one voter's encrypted ballot for an active election.
// POST /elections/{electionId}/ballots
func (a *API) submitBallot(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &submitBallotRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if len(req.Ciphertexts) == 0 || len(req.Nonce) == 0 {
		ErrMalformedBody.With("ballot requires ciphertexts and a nonce").Write(w)
		return
	}

	values := make([]*big.Int, len(req.Ciphertexts))
	for i, c := range req.Ciphertexts {
		values[i] = c.MathBigInt()
	}
	ballot, err := a.engine.SubmitBallot(electionID, values, req.Nonce.Bytes())
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, ballot)
}
