package api

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/vocdoni/tallycore/audit"
	"github.com/vocdoni/tallycore/log"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/tally"
	"github.com/vocdoni/tallycore/web3"
)

// APIConfig type represents the configuration for the API HTTP server. It
// includes the host, port and the already-wired engine and storage the HTTP
// layer sits in front of. Publisher is optional: when nil, the publish
// endpoint responds with ErrPublisherUnavailable instead of anchoring on
// chain.
type APIConfig struct {
	Host      string
	Port      int
	Storage   *storage.Storage
	Engine    *tally.Engine
	AuditLog  *audit.Log
	Verifier  *audit.Verifier
	Publisher web3.Publisher
}

// API type represents the election-tallying HTTP server.
type API struct {
	router    *chi.Mux
	storage   *storage.Storage
	engine    *tally.Engine
	auditLog  *audit.Log
	verifier  *audit.Verifier
	publisher web3.Publisher
}

// New creates a new API instance with the given configuration and starts the
// HTTP server.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Storage == nil || conf.Engine == nil || conf.AuditLog == nil || conf.Verifier == nil {
		return nil, fmt.Errorf("missing storage, engine, audit log or verifier instance")
	}
	a := &API{
		storage:   conf.Storage,
		engine:    conf.Engine,
		auditLog:  conf.AuditLog,
		verifier:  conf.Verifier,
		publisher: conf.Publisher,
	}

	a.initRouter()
	go func() {
		log.Infow("Starting API server", "host", conf.Host, "port", conf.Port)
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", conf.Host, conf.Port), a.router); err != nil {
			log.Fatalf("failed to start the API server: %v", err)
		}
	}()
	return a, nil
}

// Router returns the chi router for testing purposes
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers registers all the HTTP handlers for the API endpoints.
func (a *API) registerHandlers() {
	// The following endpoints are registered:
	// - GET /ping: No parameters
	// - POST /elections: creates an election
	// - GET /elections/{electionId}: fetches an election
	// - POST /elections/{electionId}/activate: opens ballot submission
	// - POST /elections/{electionId}/trustees: runs the key-issuance ceremony
	// - POST /elections/{electionId}/trustees/{trusteeIndex}/activate
	// - POST /elections/{electionId}/trustees/{trusteeIndex}/revoke
	// - POST /elections/{electionId}/ballots: submits an encrypted ballot
	// - POST /elections/{electionId}/tally/start
	// - POST /elections/{electionId}/tally/aggregate
	// - POST /elections/{electionId}/tally/partials
	// - POST /elections/{electionId}/tally/finalize
	// - POST /elections/{electionId}/tally/reset
	// - GET  /elections/{electionId}/tally/session
	// - GET  /elections/{electionId}/result
	// - GET  /elections/{electionId}/result/verify
	// - POST /elections/{electionId}/result/publish
	// - GET  /elections/{electionId}/audit
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})

	log.Infow("register handler", "endpoint", ElectionsEndpoint, "method", "POST")
	a.router.Post(ElectionsEndpoint, a.createElection)
	log.Infow("register handler", "endpoint", ElectionEndpoint, "method", "GET")
	a.router.Get(ElectionEndpoint, a.getElection)
	log.Infow("register handler", "endpoint", ActivateElectionEndpoint, "method", "POST")
	a.router.Post(ActivateElectionEndpoint, a.activateElection)

	log.Infow("register handler", "endpoint", TrusteesEndpoint, "method", "POST")
	a.router.Post(TrusteesEndpoint, a.issueTrustees)
	log.Infow("register handler", "endpoint", ActivateTrusteeEndpoint, "method", "POST")
	a.router.Post(ActivateTrusteeEndpoint, a.activateTrustee)
	log.Infow("register handler", "endpoint", RevokeTrusteeEndpoint, "method", "POST")
	a.router.Post(RevokeTrusteeEndpoint, a.revokeTrustee)

	log.Infow("register handler", "endpoint", BallotsEndpoint, "method", "POST")
	a.router.Post(BallotsEndpoint, a.submitBallot)

	log.Infow("register handler", "endpoint", StartTallyEndpoint, "method", "POST")
	a.router.Post(StartTallyEndpoint, a.startTally)
	log.Infow("register handler", "endpoint", AggregateEndpoint, "method", "POST")
	a.router.Post(AggregateEndpoint, a.aggregate)
	log.Infow("register handler", "endpoint", PartialsEndpoint, "method", "POST")
	a.router.Post(PartialsEndpoint, a.submitPartial)
	log.Infow("register handler", "endpoint", FinalizeEndpoint, "method", "POST")
	a.router.Post(FinalizeEndpoint, a.finalize)
	log.Infow("register handler", "endpoint", ResetTallyEndpoint, "method", "POST")
	a.router.Post(ResetTallyEndpoint, a.resetTally)
	log.Infow("register handler", "endpoint", SessionEndpoint, "method", "GET")
	a.router.Get(SessionEndpoint, a.getSession)

	log.Infow("register handler", "endpoint", ResultEndpoint, "method", "GET")
	a.router.Get(ResultEndpoint, a.getResult)
	log.Infow("register handler", "endpoint", VerifyResultEndpoint, "method", "GET")
	a.router.Get(VerifyResultEndpoint, a.verifyResult)
	log.Infow("register handler", "endpoint", PublishResultEndpoint, "method", "POST")
	a.router.Post(PublishResultEndpoint, a.publishResult)

	log.Infow("register handler", "endpoint", AuditLogEndpoint, "method", "GET")
	a.router.Get(AuditLogEndpoint, a.listAuditLog)
}

// bufPool is a pool of bytes.Buffer to reduce logger allocations.
var bufPool = sync.Pool{
	New: func() interface{} {
		return new(bytes.Buffer)
	},
}

// initRouter creates the router with all the routes and middleware.
func (a *API) initRouter() {
	logHandler := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Only log request bodies at debug level, and never for ping.
			if log.Level() != log.LogLevelDebug || r.URL.Path == PingEndpoint {
				next.ServeHTTP(w, r)
				return
			}

			buf := bufPool.Get().(*bytes.Buffer)
			buf.Reset()

			bodyBytes, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, "unable to read request body", http.StatusInternalServerError)
				bufPool.Put(buf)
				return
			}
			buf.Write(bodyBytes)

			log.Debugw("api request",
				"method", r.Method,
				"url", r.URL.String(),
				"body", strings.ReplaceAll(buf.String(), "\"", ""),
			)

			r.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			bufPool.Put(buf)

			next.ServeHTTP(w, r)
		})
	}

	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	a.router.Use(logHandler)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))

	a.registerHandlers()
}
