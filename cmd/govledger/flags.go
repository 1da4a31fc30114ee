package main

import "github.com/spf13/cobra"

func urlFlag(cmd *cobra.Command, url *string) {
	cmd.Flags().StringVarP(url, "url", "u", "http://127.0.0.1:26657", "govledger node rpc url")
}

func skeyFlag(cmd *cobra.Command, skey *string) {
	cmd.Flags().StringVarP(skey, "skeyPath", "s", "./config/priv_validator_key.json", "private key path")
}

// txFlags registers the flags shared by every command that signs a tx.
func txFlags(cmd *cobra.Command, args *txArguments) {
	urlFlag(cmd, &args.Url)
	skeyFlag(cmd, &args.Skey)
	cmd.Flags().Uint64VarP(&args.Nonce, "nonce", "n", 0, "account nonce, queried from the node when 0")
	cmd.Flags().BoolVarP(&args.NoSend, "nosend", "", false, "not send transaction but print signature")
	cmd.Flags().StringVarP(&args.AttestKey, "attest-key", "", "", "hex secp256k1 gateway key used to attach a cross-chain attestation")
}
