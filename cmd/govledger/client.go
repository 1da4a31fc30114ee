package main

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/calehh/gov-ledger/bridge"
	"github.com/calehh/gov-ledger/crypto"
	"github.com/calehh/gov-ledger/tx"
	"github.com/cometbft/cometbft/rpc/client/http"
)

type txArguments struct {
	Url       string
	Skey      string
	Nonce     uint64
	NoSend    bool
	AttestKey string
}

func abciQuery(ctx context.Context, cli *http.HTTP, path string, data []byte) ([]byte, error) {
	res, err := cli.ABCIQuery(ctx, path, data)
	if err != nil {
		return nil, err
	}
	if res.Response.Code != 0 {
		return nil, fmt.Errorf("query %s failed code:%d log:%s", path, res.Response.Code, res.Response.Log)
	}
	return res.Response.Value, nil
}

func queryNonce(ctx context.Context, cli *http.HTTP, address string) (nonce uint64, err error) {
	dat, err := abciQuery(ctx, cli, "/nonce/", []byte(address))
	if err != nil {
		return 0, err
	}
	err = json.Unmarshal(dat, &nonce)
	return
}

// sendTx signs btx with the key file and broadcasts it, or prints the
// signature when NoSend is set.
func sendTx(args *txArguments, btx *tx.LedgerTx) error {
	cli, err := http.New(args.Url, "/websocket")
	if err != nil {
		return fmt.Errorf("new client err:%w", err)
	}
	ctx := context.Background()
	gres, err := cli.Genesis(ctx)
	if err != nil {
		return fmt.Errorf("get chain genesis err:%w", err)
	}
	chainId := gres.Genesis.ChainID
	pv, err := crypto.LoadFilePV(args.Skey)
	if err != nil {
		return err
	}
	btx.Version = tx.LedgerTxVersion1
	btx.Nonce = args.Nonce
	if btx.Nonce == 0 {
		btx.Nonce, err = queryNonce(ctx, cli, pv.Address())
		if err != nil {
			return fmt.Errorf("query nonce err:%w", err)
		}
	}
	if args.AttestKey != "" {
		key, err := hex.DecodeString(args.AttestKey)
		if err != nil {
			return fmt.Errorf("invalid attest key:%w", err)
		}
		payload, err := json.Marshal(btx.Tx)
		if err != nil {
			return err
		}
		proof, err := bridge.Sign(payload, key)
		if err != nil {
			return fmt.Errorf("attest tx err:%w", err)
		}
		btx.Attestation = &tx.Attestation{Payload: payload, Proof: proof}
	}
	if err = pv.SignTx(btx, chainId); err != nil {
		return fmt.Errorf("sign tx err:%w", err)
	}
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address())
	if args.NoSend {
		dat, err := btx.SigData([]byte(chainId))
		if err != nil {
			return err
		}
		fmt.Println("data signed:", hex.EncodeToString(dat))
		fmt.Println("transaction signatures:")
		for _, sig := range btx.Sig {
			fmt.Println(hex.EncodeToString(sig))
		}
		return nil
	}
	dat, err := tx.MarshalLedgerTx(btx)
	if err != nil {
		return fmt.Errorf("encode tx err:%w", err)
	}
	res, err := cli.BroadcastTxSync(ctx, dat)
	if err != nil {
		return fmt.Errorf("broadcast tx err:%w", err)
	}
	dat, _ = json.Marshal(res)
	fmt.Printf("%v\n", string(dat))
	return nil
}
