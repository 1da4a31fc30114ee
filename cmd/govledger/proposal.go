package main

import (
	"errors"

	"github.com/calehh/gov-ledger/tx"
	"github.com/spf13/cobra"
)

type createProposalArguments struct {
	txArguments
	Description string
}

var createProposalArgs createProposalArguments

var createProposalCmd = &cobra.Command{
	Use:   "create-proposal",
	Short: "Submit a new governance proposal",
	Args:  cobra.ExactArgs(0),
	RunE:  createProposalRun,
}

func init() {
	txFlags(createProposalCmd, &createProposalArgs.txArguments)
	createProposalCmd.Flags().StringVarP(&createProposalArgs.Description, "description", "d", "", "proposal description")
}

func createProposalRun(cmd *cobra.Command, args []string) error {
	btx := &tx.LedgerTx{
		Type: tx.LedgerTxTypeCreateProposal,
		Tx: &tx.CreateProposalTx{
			Description: createProposalArgs.Description,
		},
	}
	return sendTx(&createProposalArgs.txArguments, btx)
}

type voteArguments struct {
	txArguments
	Proposal uint64
	Yes      bool
	No       bool
}

var voteArgs voteArguments

var voteCmd = &cobra.Command{
	Use:   "vote",
	Short: "Cast a yes or no vote on a proposal",
	Args:  cobra.ExactArgs(0),
	RunE:  voteRun,
}

func init() {
	txFlags(voteCmd, &voteArgs.txArguments)
	voteCmd.Flags().Uint64VarP(&voteArgs.Proposal, "proposal", "p", 0, "proposal id")
	voteCmd.Flags().BoolVarP(&voteArgs.Yes, "yes", "", false, "vote yes")
	voteCmd.Flags().BoolVarP(&voteArgs.No, "no", "", false, "vote no")
	voteCmd.MarkFlagsMutuallyExclusive("yes", "no")
	voteCmd.MarkFlagsOneRequired("yes", "no")
	_ = voteCmd.MarkFlagRequired("proposal")
}

func voteRun(cmd *cobra.Command, args []string) error {
	if voteArgs.Yes == voteArgs.No {
		return errors.New("exactly one of --yes or --no is required")
	}
	btx := &tx.LedgerTx{
		Type: tx.LedgerTxTypeVote,
		Tx: &tx.VoteTx{
			ProposalId: voteArgs.Proposal,
			Vote:       voteArgs.Yes,
		},
	}
	return sendTx(&voteArgs.txArguments, btx)
}
