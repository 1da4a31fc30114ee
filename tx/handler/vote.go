package handler

import (
	"context"

	"github.com/calehh/gov-ledger/state"
	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

type VoteTxHandler struct {
	logger cmtlog.Logger
}

func NewVoteTxHandler(logger cmtlog.Logger) (h *VoteTxHandler) {
	logger = logger.With("module", "voteTx")
	h = &VoteTxHandler{
		logger: logger,
	}
	return
}

func (h *VoteTxHandler) Check(ctx context.Context, st *state.State, btx *tx.LedgerTx) (res *abcitypes.ResponseCheckTx, err error) {
	stx, ok := btx.Tx.(*tx.VoteTx)
	if !ok {
		return checkResult(ErrUnmatchedTxType), nil
	}
	sender, err := btx.Sender()
	if err != nil {
		return checkResult(err), nil
	}
	_, err1 := st.Vote(sender, stx.ProposalId, stx.Vote, true)
	if err1 != nil {
		h.logger.Info("CheckTx VoteTx fail", "err", err1)
	}
	return checkResult(err1), nil
}

func (h *VoteTxHandler) Process(ctx context.Context, st *state.State, btx *tx.LedgerTx) (res *abcitypes.ExecTxResult, err error) {
	stx, ok := btx.Tx.(*tx.VoteTx)
	if !ok {
		return execFailure(ErrUnmatchedTxType), nil
	}
	sender, err := btx.Sender()
	if err != nil {
		return execFailure(err), nil
	}
	event, err := st.Vote(sender, stx.ProposalId, stx.Vote, false)
	if err != nil {
		if IsFatal(err) {
			return nil, err
		}
		h.logger.Info("vote rejected", "proposal", stx.ProposalId, "voter", sender, "err", err)
		return failAndConsumeNonce(st, sender, err)
	}
	if err = st.IncNonce(sender); err != nil {
		return nil, err
	}
	res = &abcitypes.ExecTxResult{
		Events: []abcitypes.Event{types.EncodeEventVote(event)},
	}
	return
}
