package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/calehh/gov-ledger/types"
	"github.com/cometbft/cometbft/rpc/client/http"
	"github.com/spf13/cobra"
)

type queryArguments struct {
	Url        string
	Id         uint64
	StartAfter uint64
	Limit      uint32
	Address    string
}

var queryArgs queryArguments

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Show a proposal by id",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		msg, _ := json.Marshal(types.QueryProposalMsg{ProposalId: queryArgs.Id})
		return runQuery(queryArgs.Url, "/proposal/", msg)
	},
}

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List proposals in id order",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		var msg types.QueryListProposalsMsg
		if cmd.Flags().Changed("start-after") {
			msg.StartAfter = &queryArgs.StartAfter
		}
		if cmd.Flags().Changed("limit") {
			msg.Limit = &queryArgs.Limit
		}
		dat, _ := json.Marshal(msg)
		return runQuery(queryArgs.Url, "/proposals/", dat)
	},
}

var ledgerConfigCmd = &cobra.Command{
	Use:   "ledger-config",
	Short: "Show the ledger configuration",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(queryArgs.Url, "/config/", nil)
	},
}

var nonceCmd = &cobra.Command{
	Use:   "nonce",
	Short: "Show the next tx nonce of an address",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runQuery(queryArgs.Url, "/nonce/", []byte(queryArgs.Address))
	},
}

func init() {
	for _, cmd := range []*cobra.Command{proposalCmd, proposalsCmd, ledgerConfigCmd, nonceCmd} {
		urlFlag(cmd, &queryArgs.Url)
	}
	proposalCmd.Flags().Uint64VarP(&queryArgs.Id, "id", "i", 0, "proposal id")
	_ = proposalCmd.MarkFlagRequired("id")
	proposalsCmd.Flags().Uint64VarP(&queryArgs.StartAfter, "start-after", "", 0, "list proposals after this id")
	proposalsCmd.Flags().Uint32VarP(&queryArgs.Limit, "limit", "l", 0, "maximum number of proposals")
	nonceCmd.Flags().StringVarP(&queryArgs.Address, "address", "a", "", "account address")
	_ = nonceCmd.MarkFlagRequired("address")
}

func runQuery(url string, path string, data []byte) error {
	cli, err := http.New(url, "/websocket")
	if err != nil {
		return fmt.Errorf("new client err:%w", err)
	}
	dat, err := abciQuery(context.Background(), cli, path, data)
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err = json.Indent(&out, dat, "", "  "); err != nil {
		fmt.Println(string(dat))
		return nil
	}
	fmt.Println(out.String())
	return nil
}
