package bridge

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var ErrInvalidProof = errors.New("invalid proof length")

// Verifier authenticates a payload relayed from another chain.
type Verifier interface {
	VerifyMessage(payload []byte, proof []byte) (bool, error)
}

var _ Verifier = &GatewayVerifier{}

// GatewayVerifier accepts payloads signed by a single gateway key. The proof
// is a 65 byte [R || S || V] secp256k1 signature over keccak256(payload).
type GatewayVerifier struct {
	Gateway common.Address
}

func NewGatewayVerifier(gateway string) (*GatewayVerifier, error) {
	if !common.IsHexAddress(gateway) {
		return nil, errors.New("invalid gateway address")
	}
	return &GatewayVerifier{Gateway: common.HexToAddress(gateway)}, nil
}

func (v *GatewayVerifier) VerifyMessage(payload []byte, proof []byte) (bool, error) {
	if len(proof) != crypto.SignatureLength {
		return false, ErrInvalidProof
	}
	hash := crypto.Keccak256(payload)
	pub, err := crypto.SigToPub(hash, proof)
	if err != nil {
		return false, nil
	}
	return crypto.PubkeyToAddress(*pub) == v.Gateway, nil
}

// Sign produces a proof accepted by a GatewayVerifier for the key's address.
func Sign(payload []byte, key []byte) ([]byte, error) {
	priv, err := crypto.ToECDSA(key)
	if err != nil {
		return nil, err
	}
	return crypto.Sign(crypto.Keccak256(payload), priv)
}
