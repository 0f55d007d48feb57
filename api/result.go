package api

import (
	"errors"
	"net/http"

	"github.com/vocdoni/tallycore/storage"
)

// getResult fetches the finalized election result.
// GET /elections/{electionId}/result
func (a *API) getResult(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	result, err := a.storage.Result(electionID)
	if err != nil {
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, result)
}

// verifyResult re-derives the tally and verification hash from the
// persisted aggregated ciphertext and verified partial decryptions, and
// reports whether they match the stored ElectionResult.
// GET /elections/{electionId}/result/verify
func (a *API) verifyResult(w http.ResponseWriter, r *http.Request) {
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
	outcome, err := a.verifier.VerifyResult(electionID, pp)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, outcome)
}

// publishResultResponse reports the external transaction reference the
// result's verification hash was anchored under.
type publishResultResponse struct {
	TxHash string `json:"tx_hash"`
}

// publishResult anchors the finalized result's verification hash on chain,
// via the configured web3.Publisher, and records the resulting transaction
// hash alongside the result.
// POST /elections/{electionId}/result/publish
func (a *API) publishResult(w http.ResponseWriter, r *http.Request) {
	if a.publisher == nil {
		ErrPublisherUnavailable.Write(w)
		return
	}
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	result, err := a.storage.Result(electionID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			ErrNotFinalized.WithErr(err).Write(w)
			return
		}
		classifyEngineError(err).WithErr(err).Write(w)
		return
	}

	var digest [32]byte
	if err := decodeHexDigest(result.VerificationHash, &digest); err != nil {
		ErrGenericInternalServerError.Withf("stored verification hash is malformed: %v", err).Write(w)
		return
	}
	txHash, err := a.publisher.Publish(r.Context(), digest)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	if err := a.storage.SetResultBlockchainTxHash(electionID, txHash); err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, publishResultResponse{TxHash: txHash})
}
