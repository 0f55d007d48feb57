package api

const (
	// PingEndpoint is the endpoint for checking the API status
	PingEndpoint = "/ping"

	// ElectionsEndpoint creates a new election
	ElectionsEndpoint = "/elections"
	// ElectionIDParam names the election ID path parameter shared by every
	// election-scoped route below
	ElectionIDParam = "electionId"
	// ElectionEndpoint fetches a single election
	ElectionEndpoint = "/elections/{" + ElectionIDParam + "}"
	// ActivateElectionEndpoint opens an election to ballot submission
	ActivateElectionEndpoint = "/elections/{" + ElectionIDParam + "}/activate"

	// TrusteesEndpoint runs the key-issuance ceremony for an election
	TrusteesEndpoint = "/elections/{" + ElectionIDParam + "}/trustees"
	// TrusteeIndexParam names the trustee index path parameter
	TrusteeIndexParam = "trusteeIndex"
	// ActivateTrusteeEndpoint marks a pending trustee active
	ActivateTrusteeEndpoint = "/elections/{" + ElectionIDParam + "}/trustees/{" + TrusteeIndexParam + "}/activate"
	// RevokeTrusteeEndpoint marks a trustee revoked
	RevokeTrusteeEndpoint = "/elections/{" + ElectionIDParam + "}/trustees/{" + TrusteeIndexParam + "}/revoke"

	// BallotsEndpoint submits one encrypted ballot to an active election
	BallotsEndpoint = "/elections/{" + ElectionIDParam + "}/ballots"

	// StartTallyEndpoint opens the tallying session for an election
	StartTallyEndpoint = "/elections/{" + ElectionIDParam + "}/tally/start"
	// AggregateEndpoint aggregates accepted ballots into per-candidate ciphertexts
	AggregateEndpoint = "/elections/{" + ElectionIDParam + "}/tally/aggregate"
	// PartialsEndpoint submits one trustee's partial decryption
	PartialsEndpoint = "/elections/{" + ElectionIDParam + "}/tally/partials"
	// FinalizeEndpoint recombines verified partials into the final result
	FinalizeEndpoint = "/elections/{" + ElectionIDParam + "}/tally/finalize"
	// ResetTallyEndpoint deletes a failed tallying session so tallying can
	// be restarted by the operator
	ResetTallyEndpoint = "/elections/{" + ElectionIDParam + "}/tally/reset"
	// SessionEndpoint fetches the tallying session state
	SessionEndpoint = "/elections/{" + ElectionIDParam + "}/tally/session"

	// ResultEndpoint fetches the finalized election result
	ResultEndpoint = "/elections/{" + ElectionIDParam + "}/result"
	// VerifyResultEndpoint recomputes and compares the verification hash
	VerifyResultEndpoint = "/elections/{" + ElectionIDParam + "}/result/verify"
	// PublishResultEndpoint anchors the finalized result's digest on chain
	PublishResultEndpoint = "/elections/{" + ElectionIDParam + "}/result/publish"

	// AuditLogEndpoint lists the audit trail recorded for an election
	AuditLogEndpoint = "/elections/{" + ElectionIDParam + "}/audit"
)
