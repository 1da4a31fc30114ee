package indexer

// sqlite models

type Height struct {
	Id     uint64 `gorm:"primary_key" json:"id"`
	Height uint64 `json:"height"`
}

type Proposal struct {
	Id              uint64 `gorm:"primary_key" json:"id"`
	Creator         string `gorm:"index" json:"creator"`
	Description     string `json:"description"`
	YesVotes        uint64 `json:"yes_votes"`
	NoVotes         uint64 `json:"no_votes"`
	Height          uint64 `json:"height"`
	CreateTimestamp int64  `json:"create_timestamp"`
}

type Vote struct {
	Id       uint64 `gorm:"primary_key" json:"id"`
	Proposal uint64 `gorm:"index" json:"proposal"`
	Voter    string `json:"voter"`
	Yes      bool   `json:"yes"`
	Height   uint64 `json:"height"`
}
