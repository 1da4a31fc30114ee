package tx

import (
	"errors"
)

type LedgerTxType uint8

const (
	LedgerTxTypeUnknown        LedgerTxType = 0
	LedgerTxTypeCreateProposal LedgerTxType = 1
	LedgerTxTypeVote           LedgerTxType = 2
)

func (t LedgerTxType) String() string {
	switch t {
	case LedgerTxTypeCreateProposal:
		return "create_proposal"
	case LedgerTxTypeVote:
		return "vote"
	default:
		return "unknown"
	}
}

const (
	LedgerTxVersion0 uint8 = 0
	LedgerTxVersion1 uint8 = 1
)

// Envelope errors share the ledger codespace, above the ledger error kinds.
const (
	CodeInvalidTx            uint32 = 10
	CodeUnsupportedTxType    uint32 = 11
	CodeSigInvalid           uint32 = 12
	CodeNonceInvalid         uint32 = 13
	CodeUnsupportedTxVersion uint32 = 14
)

var (
	ErrInvalidTx            = errors.New("invalid tx")
	ErrUnsupportedTxType    = errors.New("unsupported tx type")
	ErrUnsupportedTxVersion = errors.New("unsupported tx version")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxPubKeyInvalid      = errors.New("public key invalid")
)

// Code maps an envelope error to its response code.
func Code(err error) uint32 {
	switch {
	case errors.Is(err, ErrUnsupportedTxType):
		return CodeUnsupportedTxType
	case errors.Is(err, ErrUnsupportedTxVersion):
		return CodeUnsupportedTxVersion
	case errors.Is(err, ErrTxSigInvalid), errors.Is(err, ErrTxPubKeyInvalid):
		return CodeSigInvalid
	case errors.Is(err, ErrTxNonceInvalid):
		return CodeNonceInvalid
	default:
		return CodeInvalidTx
	}
}
