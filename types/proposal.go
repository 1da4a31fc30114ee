package types

type Config struct {
	RegistryAddress string `json:"registry_address"`
}

// Proposal is the stored form. The id is the table key and is not repeated here.
type Proposal struct {
	Creator     string   `json:"creator"`
	Description string   `json:"description"`
	YesVotes    uint64   `json:"yes_votes"`
	NoVotes     uint64   `json:"no_votes"`
	Voters      []string `json:"voters"`
	Active      bool     `json:"active"`
}

// ProposalView is what queries return; the voter set is not exposed.
type ProposalView struct {
	Id          uint64 `json:"id"`
	Creator     string `json:"creator"`
	Description string `json:"description"`
	YesVotes    uint64 `json:"yes_votes"`
	NoVotes     uint64 `json:"no_votes"`
	Active      bool   `json:"active"`
}

func NewProposal(creator, description string) *Proposal {
	return &Proposal{
		Creator:     creator,
		Description: description,
		Voters:      []string{},
		Active:      true,
	}
}

func (p *Proposal) HasVoted(voter string) bool {
	for _, v := range p.Voters {
		if v == voter {
			return true
		}
	}
	return false
}

func (p *Proposal) AddVote(voter string, yes bool) {
	if yes {
		p.YesVotes += 1
	} else {
		p.NoVotes += 1
	}
	p.Voters = append(p.Voters, voter)
}

func (p *Proposal) View(id uint64) ProposalView {
	return ProposalView{
		Id:          id,
		Creator:     p.Creator,
		Description: p.Description,
		YesVotes:    p.YesVotes,
		NoVotes:     p.NoVotes,
		Active:      p.Active,
	}
}

func (p *Proposal) Clone() *Proposal {
	n := *p
	n.Voters = make([]string, len(p.Voters))
	copy(n.Voters, p.Voters)
	return &n
}

func VoteString(yes bool) string {
	if yes {
		return "yes"
	}
	return "no"
}
