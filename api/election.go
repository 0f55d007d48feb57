package api

import (
	"encoding/json"
	"net/http"

	"github.com/vocdoni/tallycore/types"
)

// createElectionRequest is the body of POST /elections.
type createElectionRequest struct {
	Title      string            `json:"title"`
	Candidates []types.Candidate `json:"candidates"`
	KeyBits    int               `json:"key_bits"`
}

// createElectionResponse returns the created election together with the
// one-time Paillier ceremony secret. The operator is the trusted dealer for
// key issuance: it must pass CeremonySecret straight into the
// POST .../trustees call and must not retain it afterward. tallycore itself
// never persists it.
type createElectionResponse struct {
	Election       *types.Election `json:"election"`
	CeremonySecret ceremonySecret  `json:"ceremony_secret"`
}

// ceremonySecret carries the raw (lambda, mu) Paillier private key
// components across the create/issue HTTP round trip.
type ceremonySecret struct {
	Lambda *types.BigInt `json:"lambda"`
	Mu     *types.BigInt `json:"mu"`
}

// createElection creates a new election and its Paillier keypair.
// POST /elections
func (a *API) createElection(w http.ResponseWriter, r *http.Request) {
	req := &createElectionRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if len(req.Candidates) == 0 {
		ErrMalformedBody.With("election must have at least one candidate").Write(w)
		return
	}

	election, priv, err := a.engine.CreateElection(req.Title, req.Candidates, req.KeyBits)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}

	httpWriteJSON(w, createElectionResponse{
		Election: election,
		CeremonySecret: ceremonySecret{
			Lambda: types.NewBigInt(priv.Lambda),
			Mu:     types.NewBigInt(priv.Mu),
		},
	})
}

// getElection fetches a single election by ID.
// GET /elections/{electionId}
func (a *API) getElection(w http.ResponseWriter, r *http.Request) {
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
	httpWriteJSON(w, election)
}

// activateElection opens an election to ballot submission.
// POST /elections/{electionId}/activate
func (a *API) activateElection(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	if err := a.engine.ActivateElection(electionID); err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}
