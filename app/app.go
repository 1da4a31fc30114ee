package app

import (
	"context"

	"github.com/calehh/gov-ledger/bridge"
	"github.com/calehh/gov-ledger/config"
	"github.com/calehh/gov-ledger/registry"
	"github.com/calehh/gov-ledger/state"
	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/tx/handler"
	"github.com/calehh/gov-ledger/types"
	abcitypes "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
)

const AppVersion uint64 = 1

var _ abcitypes.Application = &LedgerApp{}

type LedgerApp struct {
	cfg    *config.LedgerAppConfig
	logger cmtlog.Logger

	db       *state.StateDB
	txHdlrs  map[tx.LedgerTxType]handler.TxHandler
	queriers map[string]Querier

	oracle   registry.Oracle
	verifier bridge.Verifier

	st *state.State
}

func NewLedgerApp(cfg *config.LedgerAppConfig, logger cmtlog.Logger) (app *LedgerApp, err error) {
	db, err := state.NewStateDB(cfg.DataDir(), logger)
	if err != nil {
		return nil, err
	}
	app = NewLedgerAppWithDB(cfg, db, logger)
	if cfg.RegistryUrl != "" {
		app.oracle, err = registry.NewHTTPOracle(cfg.RegistryUrl, cfg.RegistryTimeout, logger)
		if err != nil {
			return nil, err
		}
	}
	if cfg.BridgeGateway != "" {
		app.verifier, err = bridge.NewGatewayVerifier(cfg.BridgeGateway)
		if err != nil {
			return nil, err
		}
	}
	return
}

func NewLedgerAppWithDB(cfg *config.LedgerAppConfig, db *state.StateDB, logger cmtlog.Logger) (app *LedgerApp) {
	logger = logger.With("module", "app")
	app = &LedgerApp{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		txHdlrs:  make(map[tx.LedgerTxType]handler.TxHandler),
		queriers: make(map[string]Querier),
	}
	app.registerTxHandler()
	app.registerQuerier()
	return
}

// SetOracle enables the registry admission gate.
func (app *LedgerApp) SetOracle(o registry.Oracle) {
	app.oracle = o
}

// SetVerifier enables the cross-chain attestation gate.
func (app *LedgerApp) SetVerifier(v bridge.Verifier) {
	app.verifier = v
}

func (app *LedgerApp) Stop() {
	err := app.db.Close()
	if err != nil {
		app.logger.Error("close db fail", "err", err)
	}
	app.logger.Info("ledger app stopped")
}

func (app *LedgerApp) registerTxHandler() {
	app.txHdlrs = map[tx.LedgerTxType]handler.TxHandler{
		tx.LedgerTxTypeCreateProposal: handler.NewCreateProposalTxHandler(app.logger),
		tx.LedgerTxTypeVote:           handler.NewVoteTxHandler(app.logger),
	}
}

func (app *LedgerApp) registerQuerier() {
	app.queriers["/config/"] = NewConfigQuerier(app.logger)
	app.queriers["/proposal/"] = NewProposalQuerier(app.logger)
	app.queriers["/proposals/"] = NewProposalsQuerier(app.logger)
	app.queriers["/nonce/"] = NewNonceQuerier(app.logger)
}

func (app *LedgerApp) InitChain(_ context.Context, chain *abcitypes.RequestInitChain) (res *abcitypes.ResponseInitChain, err error) {
	gs, err := types.ParseGenesisState(chain.AppStateBytes)
	if err != nil {
		app.logger.Error("InitChain parse app state fail", "err", err)
		return nil, err
	}
	// Height stays 0 until the first block commits, so a replayed InitChain
	// is reported to CometBFT as not having run yet.
	st := app.db.NewState()
	st.SetChainId(chain.ChainId)
	st.SetHeight(0)
	_, event, err := st.Initialize(gs.Owner, gs.RegistryAddress)
	if err != nil {
		app.logger.Error("InitChain initialize fail", "err", err)
		return nil, err
	}
	_, err = st.Update()
	if err != nil {
		app.logger.Error("InitChain update state fail", "err", err)
		return nil, err
	}
	h, err := app.db.SetState(st)
	if err != nil {
		app.logger.Error("InitChain apply state fail", "err", err)
		return nil, err
	}
	ev := types.EncodeEventInstantiate(event)
	attrs := make([]any, 0, 2*len(ev.Attributes))
	for _, a := range ev.Attributes {
		attrs = append(attrs, a.Key, a.Value)
	}
	app.logger.Info("ledger initialized", attrs...)
	return &abcitypes.ResponseInitChain{
		AppHash: h.Bytes(),
	}, nil
}

func (app *LedgerApp) Info(ctx context.Context, info *abcitypes.RequestInfo) (*abcitypes.ResponseInfo, error) {
	header := app.db.Header()
	return &abcitypes.ResponseInfo{
		Data:             types.ModuleName,
		AppVersion:       AppVersion,
		LastBlockHeight:  int64(header.Height),
		LastBlockAppHash: header.Hash,
	}, nil
}

func (app *LedgerApp) ExtendVote(_ context.Context, extend *abcitypes.RequestExtendVote) (*abcitypes.ResponseExtendVote, error) {
	return &abcitypes.ResponseExtendVote{}, nil
}

func (app *LedgerApp) VerifyVoteExtension(_ context.Context, verify *abcitypes.RequestVerifyVoteExtension) (*abcitypes.ResponseVerifyVoteExtension, error) {
	return &abcitypes.ResponseVerifyVoteExtension{Status: abcitypes.ResponseVerifyVoteExtension_ACCEPT}, nil
}

func (app *LedgerApp) ApplySnapshotChunk(context.Context, *abcitypes.RequestApplySnapshotChunk) (*abcitypes.ResponseApplySnapshotChunk, error) {
	return &abcitypes.ResponseApplySnapshotChunk{}, nil
}

func (app *LedgerApp) ListSnapshots(context.Context, *abcitypes.RequestListSnapshots) (*abcitypes.ResponseListSnapshots, error) {
	return &abcitypes.ResponseListSnapshots{}, nil
}

func (app *LedgerApp) LoadSnapshotChunk(context.Context, *abcitypes.RequestLoadSnapshotChunk) (*abcitypes.ResponseLoadSnapshotChunk, error) {
	return &abcitypes.ResponseLoadSnapshotChunk{}, nil
}

func (app *LedgerApp) OfferSnapshot(context.Context, *abcitypes.RequestOfferSnapshot) (*abcitypes.ResponseOfferSnapshot, error) {
	return &abcitypes.ResponseOfferSnapshot{}, nil
}
