package chain

import (
	"crypto/ecdsa"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
)

// SignedTx is a fully built, signed chain transaction. Hash is
// computed locally before submission so a confirmation waiter can be
// registered ahead of the RPC call.
type SignedTx struct {
	From      string          `json:"from"`
	Nonce     uint64          `json:"nonce"`
	Payload   json.RawMessage `json:"payload"`
	Hash      string          `json:"hash"`
	Signature string          `json:"signature"`
}

type txPayload struct {
	Call  string            `json:"call"`
	Args  map[string]string `json:"args"`
	Nonce uint64            `json:"nonce"`
}

// Signer holds the service's single signing identity. It is an
// injected dependency, never a package singleton, and only the chain
// sync worker may use it. The nonce counter makes transaction order
// explicit; callers must not sign concurrently from multiple
// goroutines expecting external ordering.
type Signer struct {
	key     *ecdsa.PrivateKey
	address string

	mu    sync.Mutex
	nonce uint64
}

func NewSigner(hexKey string) (*Signer, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(hexKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid signer key: %w", err)
	}
	return &Signer{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey).Hex(),
	}, nil
}

func (s *Signer) Address() string {
	return s.address
}

// Sign serializes the call, assigns the next nonce and signs the
// keccak hash of the payload.
func (s *Signer) Sign(call string, args map[string]string) (SignedTx, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(txPayload{Call: call, Args: args, Nonce: s.nonce})
	if err != nil {
		return SignedTx{}, fmt.Errorf("failed to encode %s payload: %w", call, err)
	}

	hash := crypto.Keccak256(payload)
	sig, err := crypto.Sign(hash, s.key)
	if err != nil {
		return SignedTx{}, fmt.Errorf("failed to sign %s: %w", call, err)
	}

	tx := SignedTx{
		From:      s.address,
		Nonce:     s.nonce,
		Payload:   payload,
		Hash:      "0x" + hex.EncodeToString(hash),
		Signature: "0x" + hex.EncodeToString(sig),
	}
	s.nonce++
	return tx, nil
}
