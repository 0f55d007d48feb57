package service

import (
	"context"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/storage/db"
	"github.com/vocdoni/tallycore/storage/db/memdb"
)

func TestAPIService(t *testing.T) {
	c := qt.New(t)

	kv, err := memdb.New(db.Options{})
	c.Assert(err, qt.IsNil)
	store := storage.New(kv)

	// Create API service with a random available port; no blockchain
	// publisher configured.
	apiService := NewAPI(store, "127.0.0.1", 0, nil)

	ctx := context.Background()

	err = apiService.Start(ctx)
	c.Assert(err, qt.IsNil)

	// Give the service time to start.
	time.Sleep(100 * time.Millisecond)

	// Test stopping and restarting.
	apiService.Stop()

	kv2, err := memdb.New(db.Options{})
	c.Assert(err, qt.IsNil)
	apiService = NewAPI(storage.New(kv2), "127.0.0.1", 0, nil)
	err = apiService.Start(ctx)
	c.Assert(err, qt.IsNil)
	defer apiService.Stop()

	// Test starting an already running service.
	err = apiService.Start(ctx)
	c.Assert(err, qt.ErrorMatches, "service already running")
}
