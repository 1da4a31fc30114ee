package handler

import (
	"context"
	"encoding/binary"

	"github.com/calehh/gov-ledger/state"
	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type CreateProposalTxHandler struct {
	logger cmtlog.Logger
}

func NewCreateProposalTxHandler(logger cmtlog.Logger) (h *CreateProposalTxHandler) {
	logger = logger.With("module", "proposalTx")
	h = &CreateProposalTxHandler{
		logger: logger,
	}
	return
}

func (h *CreateProposalTxHandler) Check(ctx context.Context, st *state.State, btx *tx.LedgerTx) (res *abcitypes.ResponseCheckTx, err error) {
	stx, ok := btx.Tx.(*tx.CreateProposalTx)
	if !ok {
		return checkResult(ErrUnmatchedTxType), nil
	}
	sender, err := btx.Sender()
	if err != nil {
		return checkResult(err), nil
	}
	_, _, err1 := st.CreateProposal(sender, stx.Description, true)
	if err1 != nil {
		h.logger.Info("CheckTx CreateProposalTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *CreateProposalTxHandler) Process(ctx context.Context, st *state.State, btx *tx.LedgerTx) (res *abcitypes.ExecTxResult, err error) {
	stx, ok := btx.Tx.(*tx.CreateProposalTx)
	if !ok {
		return execFailure(ErrUnmatchedTxType), nil
	}
	sender, err := btx.Sender()
	if err != nil {
		return execFailure(err), nil
	}
	id, event, err := st.CreateProposal(sender, stx.Description, false)
	if err != nil {
		if IsFatal(err) {
			return nil, err
		}
		return failAndConsumeNonce(st, sender, err)
	}
	if err = st.IncNonce(sender); err != nil {
		return nil, err
	}
	h.logger.Info("proposal created", "id", id, "creator", sender)
	res = &abcitypes.ExecTxResult{
		Data:   binary.BigEndian.AppendUint64(nil, id),
		Events: []abcitypes.Event{types.EncodeEventCreateProposal(event)},
	}
	return
}
