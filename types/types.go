package types

import (
	"fmt"
	"strconv"

	abci "github.com/cometbft/cometbft/abci/types"
)

const (
	EventInstantiateType    = "instantiate"
	EventCreateProposalType = "create_proposal"
	EventVoteType           = "vote"
)

type EventInstantiate struct {
	Owner    string `json:"owner"`
	Registry string `json:"registry"`
}

func EncodeEventInstantiate(event *EventInstantiate) abci.Event {
	return abci.Event{
		Type: EventInstantiateType,
		Attributes: []abci.EventAttribute{
			{Key: "method", Value: EventInstantiateType, Index: false},
			{Key: "owner", Value: event.Owner, Index: true},
			{Key: "registry", Value: event.Registry, Index: false},
		},
	}
}

type EventCreateProposal struct {
	ProposalId  uint64 `json:"proposalId"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
}

func EncodeEventCreateProposal(event *EventCreateProposal) abci.Event {
	return abci.Event{
		Type: EventCreateProposalType,
		Attributes: []abci.EventAttribute{
			{Key: "method", Value: EventCreateProposalType, Index: false},
			{Key: "proposal_id", Value: fmt.Sprintf("%v", event.ProposalId), Index: true},
			{Key: "creator", Value: event.Creator, Index: true},
			{Key: "description", Value: event.Description, Index: false},
		},
	}
}

func DecodeEventCreateProposal(originEvent abci.Event) *EventCreateProposal {
	if originEvent.Type != EventCreateProposalType {
		return nil
	}
	event := &EventCreateProposal{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal_id":
			id, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalId = id
		case "creator":
			event.Creator = v.Value
		case "description":
			event.Description = v.Value
		}
	}
	return event
}

type EventVote struct {
	ProposalId uint64 `json:"proposalId"`
	Voter      string `json:"voter"`
	Yes        bool   `json:"yes"`
}

func EncodeEventVote(event *EventVote) abci.Event {
	return abci.Event{
		Type: EventVoteType,
		Attributes: []abci.EventAttribute{
			{Key: "method", Value: EventVoteType, Index: false},
			{Key: "proposal_id", Value: fmt.Sprintf("%v", event.ProposalId), Index: true},
			{Key: "voter", Value: event.Voter, Index: true},
			{Key: "vote", Value: VoteString(event.Yes), Index: false},
		},
	}
}

func DecodeEventVote(originEvent abci.Event) *EventVote {
	if originEvent.Type != EventVoteType {
		return nil
	}
	event := &EventVote{}
	for _, v := range originEvent.Attributes {
		switch v.Key {
		case "proposal_id":
			id, err := strconv.ParseUint(v.Value, 10, 64)
			if err != nil {
				return nil
			}
			event.ProposalId = id
		case "voter":
			event.Voter = v.Value
		case "vote":
			switch v.Value {
			case "yes":
				event.Yes = true
			case "no":
				event.Yes = false
			default:
				return nil
			}
		}
	}
	return event
}
