// Command tallycore runs the tallying HTTP API: it loads configuration,
// opens the storage backend, wires the tallying engine and audit components,
// optionally enables on-chain result publication, and serves the API until
// it receives a termination signal.
package main

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/vocdoni/tallycore/config"
	"github.com/vocdoni/tallycore/log"
	"github.com/vocdoni/tallycore/service"
	"github.com/vocdoni/tallycore/storage"
	"github.com/vocdoni/tallycore/storage/db"
	"github.com/vocdoni/tallycore/storage/db/memdb"
	"github.com/vocdoni/tallycore/storage/db/pebbledb"
	"github.com/vocdoni/tallycore/util"
	"github.com/vocdoni/tallycore/web3"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}

	log.Init(cfg.Log.Level, cfg.Log.Output, nil)
	log.Infow("starting tallycore", "backend", cfg.Storage.Backend, "api", fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port))

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	store, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("failed to open storage: %v", err)
	}

	publisher, err := buildPublisher(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to configure blockchain publisher: %v", err)
	}

	apiService := service.NewAPI(store, cfg.API.Host, cfg.API.Port, publisher)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := apiService.Start(ctx); err != nil {
		log.Fatalf("failed to start API server: %v", err)
	}
	defer apiService.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	log.Infow("received signal, shutting down", "signal", sig.String())
}

// openStorage opens the configured storage backend under cfg.Datadir.
func openStorage(cfg *config.Config) (*storage.Storage, error) {
	switch cfg.Storage.Backend {
	case "memdb":
		d, err := memdb.New(db.Options{})
		if err != nil {
			return nil, err
		}
		return storage.New(d), nil
	case "pebble":
		d, err := pebbledb.New(db.Options{Path: filepath.Join(cfg.Datadir, "db")})
		if err != nil {
			return nil, err
		}
		return storage.New(d), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// buildPublisher returns an EthereumPublisher when a signing key is
// configured, or nil when on-chain publication is disabled.
func buildPublisher(ctx context.Context, cfg *config.Config) (web3.Publisher, error) {
	if cfg.Web3.PrivKey == "" {
		log.Infow("blockchain publication disabled: no web3.privkey configured")
		return nil, nil
	}
	key, err := parsePrivateKey(cfg.Web3.PrivKey)
	if err != nil {
		return nil, fmt.Errorf("parsing web3 private key: %w", err)
	}
	pub, err := web3.NewEthereumPublisher(ctx, cfg.Web3.RPC, key, common.HexToAddress(cfg.Web3.AnchorAddress))
	if err != nil {
		return nil, err
	}
	log.Infow("blockchain publication enabled", "rpc", cfg.Web3.RPC, "anchor", cfg.Web3.AnchorAddress)
	return pub, nil
}

func parsePrivateKey(hexKey string) (*ecdsa.PrivateKey, error) {
	return crypto.HexToECDSA(util.TrimHex(hexKey))
}
