package types

type QueryProposalMsg struct {
	ProposalId uint64 `json:"proposal_id"`
}

type QueryListProposalsMsg struct {
	StartAfter *uint64 `json:"start_after,omitempty"`
	Limit      *uint32 `json:"limit,omitempty"`
}
