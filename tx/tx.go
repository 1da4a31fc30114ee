package tx

import (
	"encoding/json"
	"fmt"

	"github.com/cometbft/cometbft/crypto/ed25519"
)

type LedgerTx struct {
	Version     uint8        `json:"version"`
	Type        LedgerTxType `json:"type"`
	Nonce       uint64       `json:"nonce"`
	PubKey      []byte       `json:"pubKey"`
	Tx          any          `json:"tx"`
	Attestation *Attestation `json:"attestation,omitempty"`
	Sig         [][]byte     `json:"sig"`
}

// Attestation carries a cross-chain proof for the bridge gate.
type Attestation struct {
	Payload []byte `json:"payload"`
	Proof   []byte `json:"proof"`
}

type CreateProposalTx struct {
	Description string `json:"description"`
}

type VoteTx struct {
	ProposalId uint64 `json:"proposalId"`
	Vote       bool   `json:"vote"`
}

type ledgerTxTmpl[Tx any] struct {
	Version     uint8        `json:"version"`
	Type        LedgerTxType `json:"type"`
	Nonce       uint64       `json:"nonce"`
	PubKey      []byte       `json:"pubKey"`
	Tx          Tx           `json:"tx"`
	Attestation *Attestation `json:"attestation,omitempty"`
	Sig         [][]byte     `json:"sig"`
}

// SigData is the byte string signed by the sender. ext binds the signature to a chain.
func (tx *LedgerTx) SigData(ext []byte) (dat []byte, err error) {
	ntx := *tx
	ntx.Sig = [][]byte{ext}
	dat, err = json.Marshal(ntx)
	return
}

func (tx *LedgerTx) Sender() (addr string, err error) {
	if len(tx.PubKey) != ed25519.PubKeySize {
		err = ErrTxPubKeyInvalid
		return
	}
	addr = ed25519.PubKey(tx.PubKey).Address().String()
	return
}

func (tx *LedgerTx) VerifySig(chainId string) (err error) {
	if len(tx.Sig) != 1 {
		return ErrTxSigInvalid
	}
	if len(tx.PubKey) != ed25519.PubKeySize {
		return ErrTxPubKeyInvalid
	}
	dat, err := tx.SigData([]byte(chainId))
	if err != nil {
		return err
	}
	if !ed25519.PubKey(tx.PubKey).VerifySignature(dat, tx.Sig[0]) {
		return ErrTxSigInvalid
	}
	return nil
}

func parseLedgerTxType(dat []byte) LedgerTxType {
	var tx struct {
		Type LedgerTxType `json:"type"`
	}
	err := json.Unmarshal(dat, &tx)
	if err != nil {
		return LedgerTxTypeUnknown
	}
	return tx.Type
}

func unmarshalLedgerTx[Tx any](dat []byte) (btx *LedgerTx, err error) {
	var txt ledgerTxTmpl[Tx]
	err = json.Unmarshal(dat, &txt)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrInvalidTx, err)
		return
	}
	if txt.Version > LedgerTxVersion1 {
		err = ErrUnsupportedTxVersion
		return
	}
	btx = new(LedgerTx)
	btx.Version = txt.Version
	btx.Type = txt.Type
	btx.Nonce = txt.Nonce
	btx.PubKey = txt.PubKey
	btx.Tx = &txt.Tx
	btx.Attestation = txt.Attestation
	btx.Sig = txt.Sig
	return
}

func UnmarshalLedgerTx(dat []byte) (btx *LedgerTx, err error) {
	tp := parseLedgerTxType(dat)
	switch tp {
	case LedgerTxTypeCreateProposal:
		return unmarshalLedgerTx[CreateProposalTx](dat)
	case LedgerTxTypeVote:
		return unmarshalLedgerTx[VoteTx](dat)
	default:
		err = ErrUnsupportedTxType
	}
	return
}

func MarshalLedgerTx(btx *LedgerTx) (dat []byte, err error) {
	return json.Marshal(btx)
}
