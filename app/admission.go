package app

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/types"
)

// admit runs the gates that depend on services outside the chain. Their
// answers may differ between nodes, so they only guard the mempool and the
// block proposer and never run while a block is executed.
func (app *LedgerApp) admit(ctx context.Context, btx *tx.LedgerTx, sender string) error {
	if app.oracle != nil {
		ok, err := app.oracle.IsRegistered(ctx, sender)
		if err != nil {
			app.logger.Error("registry lookup fail", "sender", sender, "err", err)
			return &types.LedgerError{Kind: types.KindNotRegistered, Msg: sender, Err: err}
		}
		if !ok {
			return &types.LedgerError{Kind: types.KindNotRegistered, Msg: sender}
		}
	}
	if app.verifier != nil {
		att := btx.Attestation
		if att == nil {
			return &types.LedgerError{Kind: types.KindAxelarVerificationFailed, Msg: "missing attestation"}
		}
		body, err := json.Marshal(btx.Tx)
		if err != nil {
			return err
		}
		if !bytes.Equal(body, att.Payload) {
			return &types.LedgerError{Kind: types.KindAxelarVerificationFailed, Msg: "payload does not match tx"}
		}
		ok, err := app.verifier.VerifyMessage(att.Payload, att.Proof)
		if err != nil {
			return &types.LedgerError{Kind: types.KindAxelarVerificationFailed, Err: err}
		}
		if !ok {
			return types.ErrAxelarVerificationFailed
		}
	}
	return nil
}
