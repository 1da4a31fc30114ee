package app

import (
	"context"
	"errors"

	"github.com/calehh/gov-ledger/state"
	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/tx/handler"
	"github.com/calehh/gov-ledger/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
)

var ErrNoPendingState = errors.New("no finalized block to commit")

func checkTxFailure(err error) *abcitypes.ResponseCheckTx {
	return &abcitypes.ResponseCheckTx{
		Code:      handler.ErrorCode(err),
		Codespace: types.Codespace,
		Log:       err.Error(),
	}
}

func execTxFailure(err error) *abcitypes.ExecTxResult {
	return &abcitypes.ExecTxResult{
		Code:      handler.ErrorCode(err),
		Codespace: types.Codespace,
		Log:       err.Error(),
	}
}

// parseTx decodes stx and checks its signature and nonce against st.
func (app *LedgerApp) parseTx(st *state.State, stx []byte, allowNonceGap bool) (btx *tx.LedgerTx, h handler.TxHandler, sender string, err error) {
	btx, err = tx.UnmarshalLedgerTx(stx)
	if err != nil {
		return
	}
	h, ok := app.txHdlrs[btx.Type]
	if !ok {
		err = tx.ErrUnsupportedTxType
		return
	}
	sender, err = st.Verify(btx, allowNonceGap)
	return
}

func (app *LedgerApp) CheckTx(ctx context.Context, check *abcitypes.RequestCheckTx) (*abcitypes.ResponseCheckTx, error) {
	st, err := app.db.Snapshot()
	if err != nil {
		app.logger.Error("CheckTx snapshot fail", "err", err)
		return checkTxFailure(err), nil
	}
	btx, h, sender, err := app.parseTx(st, check.Tx, true)
	if err != nil {
		app.logger.Info("CheckTx parse tx fail", "err", err)
		return checkTxFailure(err), nil
	}
	if err = app.admit(ctx, btx, sender); err != nil {
		app.logger.Info("CheckTx admission fail", "sender", sender, "err", err)
		return checkTxFailure(err), nil
	}
	return h.Check(ctx, st, btx)
}

// PrepareProposal keeps the txs that still apply on top of each other and
// pass the admission gates, within the block byte limit.
func (app *LedgerApp) PrepareProposal(ctx context.Context, proposal *abcitypes.RequestPrepareProposal) (*abcitypes.ResponsePrepareProposal, error) {
	st := app.db.NewState()
	st.SetHeight(uint64(proposal.Height))
	txs := make([][]byte, 0, len(proposal.Txs))
	var size int64
	for _, stx := range proposal.Txs {
		if proposal.MaxTxBytes > 0 && size+int64(len(stx)) > proposal.MaxTxBytes {
			break
		}
		stTmp := st.Clone()
		btx, h, sender, err := app.parseTx(stTmp, stx, false)
		if err != nil {
			app.logger.Info("PrepareProposal drop tx", "err", err)
			continue
		}
		if err = app.admit(ctx, btx, sender); err != nil {
			app.logger.Info("PrepareProposal drop tx", "sender", sender, "err", err)
			continue
		}
		res, err := h.Process(ctx, stTmp, btx)
		if err != nil {
			app.logger.Error("PrepareProposal process tx fail", "err", err)
			return nil, err
		}
		if res.Code != abcitypes.CodeTypeOK {
			app.logger.Info("PrepareProposal drop tx", "sender", sender, "code", res.Code, "log", res.Log)
			continue
		}
		st = stTmp
		txs = append(txs, stx)
		size += int64(len(stx))
	}
	return &abcitypes.ResponsePrepareProposal{Txs: txs}, nil
}

// ProcessProposal rejects blocks carrying txs that can not be decoded or are
// not properly signed in order. Ledger failures are recorded at execution.
func (app *LedgerApp) ProcessProposal(ctx context.Context, proposal *abcitypes.RequestProcessProposal) (*abcitypes.ResponseProcessProposal, error) {
	st := app.db.NewState()
	st.SetHeight(uint64(proposal.Height))
	for _, stx := range proposal.Txs {
		btx, h, _, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Info("ProcessProposal reject", "height", proposal.Height, "err", err)
			return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_REJECT}, nil
		}
		if _, err = h.Process(ctx, st, btx); err != nil {
			app.logger.Error("ProcessProposal process tx fail", "err", err)
			return nil, err
		}
	}
	return &abcitypes.ResponseProcessProposal{Status: abcitypes.ResponseProcessProposal_ACCEPT}, nil
}

func (app *LedgerApp) FinalizeBlock(ctx context.Context, req *abcitypes.RequestFinalizeBlock) (*abcitypes.ResponseFinalizeBlock, error) {
	st := app.db.NewState()
	st.SetHeight(uint64(req.Height))
	results := make([]*abcitypes.ExecTxResult, len(req.Txs))
	for i, stx := range req.Txs {
		btx, h, _, err := app.parseTx(st, stx, false)
		if err != nil {
			app.logger.Info("FinalizeBlock parse tx fail", "height", req.Height, "index", i, "err", err)
			if handler.IsFatal(err) {
				return nil, err
			}
			results[i] = execTxFailure(err)
			continue
		}
		res, err := h.Process(ctx, st, btx)
		if err != nil {
			app.logger.Error("FinalizeBlock process tx fail", "height", req.Height, "index", i, "err", err)
			return nil, err
		}
		results[i] = res
	}
	hash, err := st.Update()
	if err != nil {
		app.logger.Error("FinalizeBlock update state fail", "height", req.Height, "err", err)
		return nil, err
	}
	app.st = st
	app.logger.Debug("block finalized", "height", req.Height, "txs", len(req.Txs), "hash", hash.Hex())
	return &abcitypes.ResponseFinalizeBlock{
		TxResults: results,
		AppHash:   hash.Bytes(),
	}, nil
}

func (app *LedgerApp) Commit(ctx context.Context, commit *abcitypes.RequestCommit) (*abcitypes.ResponseCommit, error) {
	if app.st == nil {
		return nil, ErrNoPendingState
	}
	_, err := app.db.SetState(app.st)
	if err != nil {
		app.logger.Error("Commit apply state fail", "err", err)
		return nil, err
	}
	app.st = nil
	return &abcitypes.ResponseCommit{}, nil
}
