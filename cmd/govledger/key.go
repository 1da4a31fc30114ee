package main

import (
	"encoding/hex"
	"fmt"

	"github.com/calehh/gov-ledger/crypto"
	"github.com/spf13/cobra"
)

type keyArguments struct {
	Skey string
}

var keyArgs keyArguments

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Print the public key and address of a key file",
	Args:  cobra.ExactArgs(0),
	RunE:  keyRun,
}

func init() {
	skeyFlag(keyCmd, &keyArgs.Skey)
}

func keyRun(cmd *cobra.Command, args []string) error {
	pv, err := crypto.LoadFilePV(keyArgs.Skey)
	if err != nil {
		return err
	}
	fmt.Println("pubkey:", hex.EncodeToString(pv.PublicKey()))
	fmt.Println("address:", pv.Address())
	return nil
}
