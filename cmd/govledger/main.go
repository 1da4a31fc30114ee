package main

import (
	"fmt"
	"os"
)

func main() {
	clCmd.AddCommand(initCmd)
	clCmd.AddCommand(versionCmd)
	clCmd.AddCommand(createProposalCmd)
	clCmd.AddCommand(voteCmd)
	clCmd.AddCommand(proposalCmd)
	clCmd.AddCommand(proposalsCmd)
	clCmd.AddCommand(ledgerConfigCmd)
	clCmd.AddCommand(nonceCmd)
	clCmd.AddCommand(keyCmd)
	if err := clCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
