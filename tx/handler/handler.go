package handler

import (
	"context"
	"errors"

	"github.com/calehh/gov-ledger/state"
	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

type TxHandler interface {
	Check(ctx context.Context, st *state.State, btx *tx.LedgerTx) (res *abcitypes.ResponseCheckTx, err error)
	Process(ctx context.Context, st *state.State, btx *tx.LedgerTx) (res *abcitypes.ExecTxResult, err error)
}

var ErrUnmatchedTxType = errors.New("unmatched tx type")

// ErrorCode maps an error raised while handling a tx to its response code.
func ErrorCode(err error) uint32 {
	if code, ok := types.ErrorCode(err); ok {
		return code
	}
	return tx.Code(err)
}

// IsFatal reports whether err must abort the block instead of failing the tx.
func IsFatal(err error) bool {
	return errors.Is(err, types.ErrStorageFailure)
}

func checkResult(err error) *abcitypes.ResponseCheckTx {
	res := &abcitypes.ResponseCheckTx{Code: 0}
	if err != nil {
		res.Code = ErrorCode(err)
		res.Codespace = types.Codespace
		res.Log = err.Error()
	}
	return res
}

func execFailure(err error) *abcitypes.ExecTxResult {
	return &abcitypes.ExecTxResult{
		Code:      ErrorCode(err),
		Codespace: types.Codespace,
		Log:       err.Error(),
	}
}

// failAndConsumeNonce records a ledger failure of an executed tx. The nonce is
// still consumed so the same signed bytes can not be included again later.
func failAndConsumeNonce(st *state.State, sender string, cause error) (*abcitypes.ExecTxResult, error) {
	if err := st.IncNonce(sender); err != nil {
		return nil, err
	}
	return execFailure(cause), nil
}
