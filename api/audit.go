package api

import "net/http"

// listAuditLog returns every audit entry recorded for an election, in
// insertion order.
// GET /elections/{electionId}/audit
func (a *API) listAuditLog(w http.ResponseWriter, r *http.Request) {
	electionID, err := parseElectionID(r)
	if err != nil {
		ErrMalformedElectionID.WithErr(err).Write(w)
		return
	}
	entries, err := a.auditLog.List(electionID)
	if err != nil {
		ErrGenericInternalServerError.WithErr(err).Write(w)
		return
	}
	httpWriteJSON(w, entries)
}
