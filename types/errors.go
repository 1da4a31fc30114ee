package types

import (
	"errors"
	"fmt"
)

const Codespace = "ledger"

type ErrorKind uint32

const (
	KindStorageFailure           ErrorKind = 1
	KindNotRegistered            ErrorKind = 2
	KindProposalNotActive        ErrorKind = 3
	KindAlreadyVoted             ErrorKind = 4
	KindAxelarVerificationFailed ErrorKind = 5
	KindNotFound                 ErrorKind = 6
)

func (k ErrorKind) String() string {
	switch k {
	case KindStorageFailure:
		return "storage failure"
	case KindNotRegistered:
		return "not registered in registry"
	case KindProposalNotActive:
		return "proposal is not active"
	case KindAlreadyVoted:
		return "already voted on this proposal"
	case KindAxelarVerificationFailed:
		return "axelar verification failed"
	case KindNotFound:
		return "not found"
	default:
		return fmt.Sprintf("unknown error kind %d", uint32(k))
	}
}

// LedgerError is the error set surfaced by ledger operations. Two LedgerErrors
// match under errors.Is when their kinds are equal.
type LedgerError struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *LedgerError) Error() string {
	msg := e.Kind.String()
	if e.Msg != "" {
		msg = msg + ": " + e.Msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *LedgerError) Unwrap() error {
	return e.Err
}

func (e *LedgerError) Is(target error) bool {
	t, ok := target.(*LedgerError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func (e *LedgerError) Code() uint32 {
	return uint32(e.Kind)
}

var (
	ErrStorageFailure           = &LedgerError{Kind: KindStorageFailure}
	ErrNotRegistered            = &LedgerError{Kind: KindNotRegistered}
	ErrProposalNotActive        = &LedgerError{Kind: KindProposalNotActive}
	ErrAlreadyVoted             = &LedgerError{Kind: KindAlreadyVoted}
	ErrAxelarVerificationFailed = &LedgerError{Kind: KindAxelarVerificationFailed}
	ErrNotFound                 = &LedgerError{Kind: KindNotFound}
)

// StorageFailure converts an error from the backing store. It is the only
// place store errors enter the ledger's error set.
func StorageFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	var le *LedgerError
	if errors.As(err, &le) {
		return err
	}
	return &LedgerError{Kind: KindStorageFailure, Msg: op, Err: err}
}

func ProposalNotFound(id uint64) error {
	return &LedgerError{Kind: KindNotFound, Msg: fmt.Sprintf("proposal %d", id)}
}

// ErrorCode maps err to an ABCI response code. Errors outside the ledger set
// report ok=false.
func ErrorCode(err error) (code uint32, ok bool) {
	var le *LedgerError
	if errors.As(err, &le) {
		return le.Code(), true
	}
	return 0, false
}
