package app

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/calehh/gov-ledger/state"
	"github.com/calehh/gov-ledger/tx/handler"
	"github.com/calehh/gov-ledger/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const CodeUnknownPath uint32 = 404

type Querier interface {
	Query(ctx context.Context, st *state.State, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error)
}

// Query answers from the last committed version only.
func (app *LedgerApp) Query(ctx context.Context, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	path := req.Path
	if !strings.HasSuffix(path, "/") {
		path += "/"
	}
	q, ok := app.queriers[path]
	if !ok {
		res = &abcitypes.ResponseQuery{}
		res.Code = CodeUnknownPath
		res.Log = "unknown query path " + req.Path
		return
	}
	st, err := app.db.Snapshot()
	if err != nil {
		app.logger.Error("Query snapshot fail", "path", path, "err", err)
		return queryFailure(err), nil
	}
	res, err = q.Query(ctx, st, req)
	if err != nil {
		return
	}
	res.Height = int64(st.Header().Height)
	return
}

func queryFailure(err error) *abcitypes.ResponseQuery {
	return &abcitypes.ResponseQuery{
		Code:      handler.ErrorCode(err),
		Codespace: types.Codespace,
		Log:       err.Error(),
	}
}

type ConfigQuerier struct {
	logger cmtlog.Logger
}

func NewConfigQuerier(logger cmtlog.Logger) (q *ConfigQuerier) {
	q = &ConfigQuerier{
		logger: logger,
	}
	return
}

func (q *ConfigQuerier) Query(ctx context.Context, st *state.State, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	cfg, err := st.Config()
	if err != nil {
		q.logger.Info("query config fail", "err", err)
		return queryFailure(err), nil
	}
	res = &abcitypes.ResponseQuery{}
	res.Value, err = json.Marshal(cfg)
	return
}

type ProposalQuerier struct {
	logger cmtlog.Logger
}

func NewProposalQuerier(logger cmtlog.Logger) (q *ProposalQuerier) {
	q = &ProposalQuerier{
		logger: logger,
	}
	return
}

func (q *ProposalQuerier) Query(ctx context.Context, st *state.State, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	var msg types.QueryProposalMsg
	if err = json.Unmarshal(req.Data, &msg); err != nil {
		q.logger.Info("decode proposal query fail", "err", err)
		return queryFailure(err), nil
	}
	view, err := st.GetProposal(msg.ProposalId)
	if err != nil {
		return queryFailure(err), nil
	}
	res = &abcitypes.ResponseQuery{}
	res.Value, err = json.Marshal(view)
	return
}

type ProposalsQuerier struct {
	logger cmtlog.Logger
}

func NewProposalsQuerier(logger cmtlog.Logger) (q *ProposalsQuerier) {
	q = &ProposalsQuerier{
		logger: logger,
	}
	return
}

func (q *ProposalsQuerier) Query(ctx context.Context, st *state.State, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	var msg types.QueryListProposalsMsg
	if len(req.Data) > 0 {
		if err = json.Unmarshal(req.Data, &msg); err != nil {
			q.logger.Info("decode proposals query fail", "err", err)
			return queryFailure(err), nil
		}
	}
	views, err := st.ListProposals(msg.StartAfter, msg.Limit)
	if err != nil {
		q.logger.Error("list proposals fail", "err", err)
		return queryFailure(err), nil
	}
	res = &abcitypes.ResponseQuery{}
	res.Value, err = json.Marshal(views)
	return
}

type NonceQuerier struct {
	logger cmtlog.Logger
}

func NewNonceQuerier(logger cmtlog.Logger) (q *NonceQuerier) {
	q = &NonceQuerier{
		logger: logger,
	}
	return
}

// Query expects the sender address string as data and returns its next nonce.
func (q *NonceQuerier) Query(ctx context.Context, st *state.State, req *abcitypes.RequestQuery) (res *abcitypes.ResponseQuery, err error) {
	nonce, err := st.Nonce(string(req.Data))
	if err != nil {
		q.logger.Error("query nonce fail", "err", err)
		return queryFailure(err), nil
	}
	res = &abcitypes.ResponseQuery{}
	res.Value, err = json.Marshal(nonce)
	return
}
