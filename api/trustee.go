package api

import (
	"encoding/json"
	"net/http"

	"github.com/vocdoni/tallycore/crypto/paillier"
	"github.com/vocdoni/tallycore/types"
)

// issueTrusteesRequest is the body of POST /elections/{electionId}/trustees.
// CeremonySecret must be the value returned by POST /elections for the same
// election. Credential seals each trustee's share at rest and must be
// supplied again by the operator whenever a share needs opening.
type issueTrusteesRequest struct {
	CeremonySecret ceremonySecret `json:"ceremony_secret"`
	TrusteeIDs     []string       `json:"trustee_ids"`
	Threshold      int            `json:"threshold"`
	Credential     types.HexBytes `json:"credential"`
}

type issueTrusteesResponse struct {
	PublicParams *types.ThresholdParams `json:"public_params"`
}

// issueTrustees runs the trusted-dealer key-issuance ceremony: it splits the
// election's Paillier private key into Shamir shares, seals and registers
// one per trustee, and persists the resulting threshold public parameters.
// POST /elections/{electionId}/trustees
func (a *API) issueTrustees(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	req := &issueTrusteesRequest{}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		ErrMalformedBody.Withf("could not decode request body: %v", err).Write(w)
		return
	}
	if req.CeremonySecret.Lambda == nil || req.CeremonySecret.Mu == nil {
		ErrMalformedBody.With("missing ceremony_secret").Write(w)
		return
	}
	if len(req.TrusteeIDs) == 0 || req.Threshold <= 0 || req.Threshold > len(req.TrusteeIDs) {
		ErrMalformedBody.With("trustee_ids and threshold are inconsistent").Write(w)
		return
	}

	election, err := a.storage.Election(electionID)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	priv := &paillier.PrivateKey{
		PublicKey: paillier.PublicKey{
			N: election.PublicKey.N.MathBigInt(),
			G: election.PublicKey.G.MathBigInt(),
		},
		Lambda: req.CeremonySecret.Lambda.MathBigInt(),
		Mu:     req.CeremonySecret.Mu.MathBigInt(),
	}

	pp, err := a.engine.IssueKeyShares(electionID, priv, req.TrusteeIDs, req.Threshold, req.Credential.Bytes())
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}

	httpWriteJSON(w, issueTrusteesResponse{PublicParams: pp.ToStoredParams(electionID)})
}

// activateTrustee marks a pending trustee active once its share-issuance
// ceremony step is confirmed, allowing it to submit partial decryptions.
// POST /elections/{electionId}/trustees/{trusteeIndex}/activate
func (a *API) activateTrustee(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	index, err := parseTrusteeIndex(r)
	if err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if err := a.engine.ActivateTrustee(electionID, index); err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}

// revokeTrustee marks a trustee revoked, excluding it from future partial
// decryption submissions.
// POST /elections/{electionId}/trustees/{trusteeIndex}/revoke
func (a *API) revokeTrustee(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	index, err := parseTrusteeIndex(r)
	if err != nil {
		ErrMalformedBody.WithErr(err).Write(w)
		return
	}
	if err := a.engine.RevokeTrustee(electionID, index); err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteOK(w)
}
