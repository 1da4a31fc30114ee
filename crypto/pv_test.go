package crypto

import (
	"path/filepath"
	"testing"

	"github.com/calehh/gov-ledger/tx"
	"github.com/cometbft/cometbft/crypto/ed25519"
	"github.com/cometbft/cometbft/privval"
	"github.com/stretchr/testify/require"
)

func TestLoadFilePVAndSignTx(t *testing.T) {
	dir := t.TempDir()
	keyFile := filepath.Join(dir, "priv_validator_key.json")
	filePV := privval.NewFilePV(ed25519.GenPrivKey(), keyFile, filepath.Join(dir, "priv_validator_state.json"))
	filePV.Save()

	pv, err := LoadFilePV(keyFile)
	require.NoError(t, err)
	require.Equal(t, filePV.Key.PubKey.Bytes(), pv.PublicKey())
	require.Equal(t, filePV.Key.Address.String(), pv.Address())

	btx := &tx.LedgerTx{
		Version: tx.LedgerTxVersion1,
		Type:    tx.LedgerTxTypeCreateProposal,
		Tx:      &tx.CreateProposalTx{Description: "signed"},
	}
	require.NoError(t, pv.SignTx(btx, "chain"))
	require.NoError(t, btx.VerifySig("chain"))
	sender, err := btx.Sender()
	require.NoError(t, err)
	require.Equal(t, pv.Address(), sender)

	_, err = LoadFilePV(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
}
