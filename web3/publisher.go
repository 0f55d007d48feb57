// Package web3 anchors finalized election results on an EVM chain so that
// anyone can independently confirm the verification hash an operator
// published matches what the tallying engine actually computed, without
// trusting the operator's own API.
package web3

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/vocdoni/tallycore/log"
)

// Publisher anchors a result digest externally and returns an opaque
// reference (a transaction hash, for EthereumPublisher) the caller can
// persist alongside the ElectionResult.
type Publisher interface {
	Publish(ctx context.Context, digest [32]byte) (string, error)
}

// EthereumPublisher publishes a result digest as the data payload of a
// zero-value transaction to AnchorAddress, signed by Signer. It does not
// wait for the transaction to be mined: the caller gets the hash back
// immediately and the election result is not blocked on chain confirmation.
type EthereumPublisher struct {
	client        *ethclient.Client
	signer        *ecdsa.PrivateKey
	from          common.Address
	anchorAddress common.Address
	chainID       *big.Int
}

// NewEthereumPublisher dials rpcURL and derives the sending address from
// signerKey. anchorAddress receives every anchoring transaction; it can be
// any address the operator controls or a purpose-built logging contract.
func NewEthereumPublisher(ctx context.Context, rpcURL string, signerKey *ecdsa.PrivateKey, anchorAddress common.Address) (*EthereumPublisher, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("web3: dial %s: %w", rpcURL, err)
	}
	chainID, err := client.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("web3: fetch chain id: %w", err)
	}
	from := crypto.PubkeyToAddress(signerKey.PublicKey)
	return &EthereumPublisher{
		client:        client,
		signer:        signerKey,
		from:          from,
		anchorAddress: anchorAddress,
		chainID:       chainID,
	}, nil
}

// Publish signs and broadcasts a transaction carrying digest as calldata,
// returning its hash once the node has accepted it into the mempool.
func (p *EthereumPublisher) Publish(ctx context.Context, digest [32]byte) (string, error) {
	nonce, err := p.client.PendingNonceAt(ctx, p.from)
	if err != nil {
		return "", fmt.Errorf("web3: pending nonce: %w", err)
	}
	tipCap, err := p.client.SuggestGasTipCap(ctx)
	if err != nil {
		return "", fmt.Errorf("web3: suggest gas tip: %w", err)
	}
	head, err := p.client.HeaderByNumber(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("web3: fetch head header: %w", err)
	}
	feeCap := new(big.Int).Add(tipCap, new(big.Int).Mul(head.BaseFee, big.NewInt(2)))
	gas, err := p.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  p.from,
		To:    &p.anchorAddress,
		Value: big.NewInt(0),
		Data:  digest[:],
	})
	if err != nil {
		return "", fmt.Errorf("web3: estimate gas: %w", err)
	}

	tx := types.NewTx(&types.DynamicFeeTx{
		ChainID:   p.chainID,
		Nonce:     nonce,
		GasTipCap: tipCap,
		GasFeeCap: feeCap,
		Gas:       gas,
		To:        &p.anchorAddress,
		Value:     big.NewInt(0),
		Data:      digest[:],
	})

	signed, err := types.SignTx(tx, types.NewLondonSigner(p.chainID), p.signer)
	if err != nil {
		return "", fmt.Errorf("web3: sign transaction: %w", err)
	}
	sendCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := p.client.SendTransaction(sendCtx, signed); err != nil {
		return "", fmt.Errorf("web3: broadcast transaction: %w", err)
	}
	log.Infow("web3: published result digest", "tx_hash", signed.Hash().Hex())
	return signed.Hash().Hex(), nil
}

// Close releases the underlying RPC connection.
func (p *EthereumPublisher) Close() {
	p.client.Close()
}
