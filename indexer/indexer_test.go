package indexer

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/calehh/gov-ledger/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/gin-gonic/gin"
	"github.com/jinzhu/gorm"
	"github.com/stretchr/testify/require"
)

func newTestIndexer(t *testing.T, dbPath string) *ChainIndexer {
	t.Helper()
	db, err := gorm.Open("sqlite3", dbPath)
	require.NoError(t, err)
	c, err := newChainIndexer(cmtlog.NewNopLogger(), db, "http://127.0.0.1:26657")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func proposalResult(id uint64, creator, description string) *abci.ExecTxResult {
	return &abci.ExecTxResult{Events: []abci.Event{types.EncodeEventCreateProposal(&types.EventCreateProposal{
		ProposalId:  id,
		Creator:     creator,
		Description: description,
	})}}
}

func voteResult(id uint64, voter string, yes bool) *abci.ExecTxResult {
	return &abci.ExecTxResult{Events: []abci.Event{types.EncodeEventVote(&types.EventVote{
		ProposalId: id,
		Voter:      voter,
		Yes:        yes,
	})}}
}

func indexSample(t *testing.T, c *ChainIndexer) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, c.indexBlock(ctx, 1, []*abci.ExecTxResult{
		proposalResult(1, "alice", "Fund X"),
		proposalResult(2, "bob", "Fund Y"),
	}))
	require.NoError(t, c.indexBlock(ctx, 2, []*abci.ExecTxResult{
		voteResult(1, "bob", true),
		voteResult(1, "carol", false),
		{Code: uint32(types.KindAlreadyVoted), Log: "already voted"},
		voteResult(2, "alice", true),
	}))
}

func TestIndexBlock(t *testing.T) {
	c := newTestIndexer(t, filepath.Join(t.TempDir(), "indexer.db"))
	indexSample(t, c)

	p, err := c.getProposalById(1)
	require.NoError(t, err)
	require.Equal(t, "alice", p.Creator)
	require.Equal(t, "Fund X", p.Description)
	require.Equal(t, uint64(1), p.YesVotes)
	require.Equal(t, uint64(1), p.NoVotes)
	require.Equal(t, uint64(1), p.Height)

	votes, total, err := c.getVotesByProposal(1, 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(2), total)
	require.Equal(t, "bob", votes[0].Voter)
	require.True(t, votes[0].Yes)
	require.Equal(t, uint64(2), votes[0].Height)

	// replaying a block does not count votes twice
	require.NoError(t, c.indexBlock(context.Background(), 2, []*abci.ExecTxResult{voteResult(1, "bob", true)}))
	p, err = c.getProposalById(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), p.YesVotes)

	proposals, total, err := c.getProposalsByCreator("bob", 0, 10)
	require.NoError(t, err)
	require.Equal(t, uint64(1), total)
	require.Equal(t, uint64(2), proposals[0].Id)
}

func TestIndexerResumesAfterLastHeight(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "indexer.db")
	c := newTestIndexer(t, dbPath)
	require.Equal(t, int64(1), c.Height)
	indexSample(t, c)
	require.NoError(t, c.Close())

	db, err := gorm.Open("sqlite3", dbPath)
	require.NoError(t, err)
	c, err = newChainIndexer(cmtlog.NewNopLogger(), db, "http://127.0.0.1:26657")
	require.NoError(t, err)
	defer c.Close()
	require.Equal(t, int64(3), c.Height)
}

func post(t *testing.T, s *Service, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	dat, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(dat))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func TestService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c := newTestIndexer(t, filepath.Join(t.TempDir(), "indexer.db"))
	indexSample(t, c)
	s := NewService("127.0.0.1:0", c)

	w := post(t, s, "/getProposals", GetProposalsReq{})
	require.Equal(t, http.StatusOK, w.Code)
	var proposals GetProposalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposals))
	require.Equal(t, uint64(2), proposals.Total)
	require.Len(t, proposals.Proposals, 2)
	require.Equal(t, uint64(2), proposals.Proposals[0].Proposal.Id)
	require.Len(t, proposals.Proposals[1].Votes, 2)

	w = post(t, s, "/getProposals", GetProposalsReq{Creator: "alice"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &proposals))
	require.Equal(t, uint64(1), proposals.Total)
	require.Equal(t, "alice", proposals.Proposals[0].Proposal.Creator)

	w = post(t, s, "/getProposals", GetProposalsReq{ProposalId: 9})
	require.Equal(t, http.StatusNotFound, w.Code)

	w = post(t, s, "/getVotes", GetVotesReq{ProposalId: 1, PageSize: 1, Page: 1})
	require.Equal(t, http.StatusOK, w.Code)
	var votes GetVotesResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &votes))
	require.Equal(t, uint64(2), votes.Total)
	require.Len(t, votes.Votes, 1)
	require.Equal(t, "carol", votes.Votes[0].Voter)

	w = post(t, s, "/getVotes", GetVotesReq{})
	require.Equal(t, http.StatusBadRequest, w.Code)
}
