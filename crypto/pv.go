package crypto

import (
	"fmt"
	"os"

	"github.com/calehh/gov-ledger/tx"
	"github.com/cometbft/cometbft/crypto"
	cmtjson "github.com/cometbft/cometbft/libs/json"
	"github.com/cometbft/cometbft/privval"
)

type PV struct {
	privateKey crypto.PrivKey
	publicKey  crypto.PubKey
}

func NewPV(privKey crypto.PrivKey) *PV {
	return &PV{
		privateKey: privKey,
		publicKey:  privKey.PubKey(),
	}
}

func LoadFilePV(keyFilePath string) (*PV, error) {
	keyJSONBytes, err := os.ReadFile(keyFilePath)
	if err != nil {
		return nil, err
	}
	pvKey := privval.FilePVKey{}
	err = cmtjson.Unmarshal(keyJSONBytes, &pvKey)
	if err != nil {
		return nil, fmt.Errorf("error reading PrivValidator key from %v: %w", keyFilePath, err)
	}

	return &PV{
		privateKey: pvKey.PrivKey,
		publicKey:  pvKey.PubKey,
	}, nil
}

func (k *PV) PublicKey() []byte {
	return k.publicKey.Bytes()
}

func (k *PV) Address() string {
	return k.publicKey.Address().String()
}

func (k *PV) Sign(data []byte) ([]byte, error) {
	return k.privateKey.Sign(data)
}

// SignTx fills in the public key and signs btx for chainId.
func (k *PV) SignTx(btx *tx.LedgerTx, chainId string) (err error) {
	btx.PubKey = k.PublicKey()
	btx.Sig = nil
	dat, err := btx.SigData([]byte(chainId))
	if err != nil {
		return err
	}
	sig, err := k.Sign(dat)
	if err != nil {
		return err
	}
	btx.Sig = [][]byte{sig}
	return nil
}
