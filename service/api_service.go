// Package service wires the storage, tallying engine, audit components and
// optional blockchain publisher into a running HTTP API server.
package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/vocdoni/tallycore/api"
	"github.com/vocdoni/tallycore/audit"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/tally"
	"github.com/vocdoni/tallycore/web3"
)

// APIService represents a service that manages the HTTP API server.
type APIService struct {
	storage   *storage.Storage
	engine    *tally.Engine
	auditLog  *audit.Log
	verifier  *audit.Verifier
	publisher web3.Publisher
	api       *api.API
	mu        sync.Mutex
	cancel    context.CancelFunc
	host      string
	port      int
}

// NewAPI creates a new APIService instance over an already-opened storage
// instance. The tallying engine, audit log and verifier are derived from
// store; publisher may be nil, in which case on-chain publication is
// disabled.
func NewAPI(store *storage.Storage, host string, port int, publisher web3.Publisher) *APIService {
	auditLog := audit.NewLog(store)
	return &APIService{
		storage:   store,
		engine:    tally.NewEngine(store, auditLog),
		auditLog:  auditLog,
		verifier:  audit.NewVerifier(store),
		publisher: publisher,
		host:      host,
		port:      port,
	}
}

// Start begins the API server. It returns an error if the service
// is already running or if it fails to start.
func (as *APIService) Start(ctx context.Context) error {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		return fmt.Errorf("service already running")
	}

	_, as.cancel = context.WithCancel(ctx)

	var err error
	as.api, err = api.New(&api.APIConfig{
		Host:      as.host,
		Port:      as.port,
		Storage:   as.storage,
		Engine:    as.engine,
		AuditLog:  as.auditLog,
		Verifier:  as.verifier,
		Publisher: as.publisher,
	})
	if err != nil {
		as.cancel = nil
		return fmt.Errorf("failed to start API server: %w", err)
	}

	return nil
}

// Stop cancels the service context and closes the storage. It does not shut
// down the HTTP listener started by api.New, which keeps serving until the
// process exits.
func (as *APIService) Stop() {
	as.mu.Lock()
	defer as.mu.Unlock()

	if as.cancel != nil {
		as.cancel()
		as.cancel = nil
	}
	as.storage.Close()
}

// HostPort returns the host and port of the API server.
func (as *APIService) HostPort() (string, int) {
	return as.host, as.port
}
