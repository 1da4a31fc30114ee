package state

import (
	"testing"

	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/types"
	"github.com/cometbft/cometbft/crypto/ed25519"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const testChainId = "test-chain"

func newTestDB(t *testing.T, ldb dbm.DB) *StateDB {
	t.Helper()
	db, err := OpenStateDB(ldb, cmtlog.NewNopLogger())
	require.NoError(t, err)
	return db
}

func commit(t *testing.T, db *StateDB, st *State) common.Hash {
	t.Helper()
	wh, err := st.Update()
	require.NoError(t, err)
	h, err := db.SetState(st)
	require.NoError(t, err)
	require.Equal(t, wh, h)
	return h
}

func initLedger(t *testing.T, db *StateDB, registry string) {
	t.Helper()
	st := db.NewState()
	st.SetChainId(testChainId)
	cfg, event, err := st.Initialize("owner", registry)
	require.NoError(t, err)
	require.Equal(t, registry, cfg.RegistryAddress)
	require.Equal(t, "owner", event.Owner)
	require.Equal(t, registry, event.Registry)
	commit(t, db, st)
}

func TestInitialize(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st, err := db.Snapshot()
	require.NoError(t, err)
	cfg, err := st.Config()
	require.NoError(t, err)
	require.Equal(t, "reg1", cfg.RegistryAddress)
	require.Equal(t, uint64(0), st.ProposalCount())
	require.Equal(t, testChainId, st.ChainId())

	views, err := st.ListProposals(nil, nil)
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestConfigBeforeInitialize(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	st, err := db.Snapshot()
	require.NoError(t, err)
	_, err = st.Config()
	require.ErrorIs(t, err, ErrNotInitialized)
}

func TestCreateProposal(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	id, event, err := st.CreateProposal("alice", "Fund X", false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Equal(t, &types.EventCreateProposal{ProposalId: 1, Creator: "alice", Description: "Fund X"}, event)
	commit(t, db, st)

	st, err = db.Snapshot()
	require.NoError(t, err)
	view, err := st.GetProposal(1)
	require.NoError(t, err)
	require.Equal(t, &types.ProposalView{
		Id:          1,
		Creator:     "alice",
		Description: "Fund X",
		Active:      true,
	}, view)
}

func TestCreateProposalSequentialIds(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	for i := uint64(1); i <= 3; i++ {
		id, _, err := st.CreateProposal("alice", "", false)
		require.NoError(t, err)
		require.Equal(t, i, id)
	}
	commit(t, db, st)

	st = db.NewState()
	id, _, err := st.CreateProposal("bob", "next block", false)
	require.NoError(t, err)
	require.Equal(t, uint64(4), id)
	commit(t, db, st)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	views, err := snap.ListProposals(nil, nil)
	require.NoError(t, err)
	require.Len(t, views, 4)
	for i, v := range views {
		require.Equal(t, uint64(i+1), v.Id)
	}
	view, err := snap.GetProposal(2)
	require.NoError(t, err)
	require.Equal(t, "", view.Description)
}

func TestCreateProposalCheckOnly(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st, err := db.Snapshot()
	require.NoError(t, err)
	id, event, err := st.CreateProposal("alice", "dry run", true)
	require.NoError(t, err)
	require.Equal(t, uint64(1), id)
	require.Nil(t, event)
	require.Equal(t, uint64(0), st.ProposalCount())

	_, _, err = st.CreateProposal("alice", "dry run", false)
	require.ErrorIs(t, err, ErrReadOnlyState)
}

func TestVote(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	_, _, err := st.CreateProposal("alice", "Fund X", false)
	require.NoError(t, err)
	commit(t, db, st)

	st = db.NewState()
	event, err := st.Vote("bob", 1, true, false)
	require.NoError(t, err)
	require.Equal(t, &types.EventVote{ProposalId: 1, Voter: "bob", Yes: true}, event)
	_, err = st.Vote("carol", 1, false, false)
	require.NoError(t, err)
	commit(t, db, st)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	view, err := snap.GetProposal(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), view.YesVotes)
	require.Equal(t, uint64(1), view.NoVotes)
	require.True(t, view.Active)
}

func TestVoteTwiceRejected(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	_, _, err := st.CreateProposal("alice", "Fund X", false)
	require.NoError(t, err)
	_, err = st.Vote("bob", 1, true, false)
	require.NoError(t, err)
	commit(t, db, st)

	st = db.NewState()
	event, err := st.Vote("bob", 1, false, false)
	require.ErrorIs(t, err, types.ErrAlreadyVoted)
	require.Nil(t, event)
	_, err = st.Vote("bob", 1, true, true)
	require.ErrorIs(t, err, types.ErrAlreadyVoted)
	commit(t, db, st)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	view, err := snap.GetProposal(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), view.YesVotes)
	require.Equal(t, uint64(0), view.NoVotes)
}

func TestVoteUnknownProposal(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	_, err := st.Vote("bob", 99, true, false)
	require.ErrorIs(t, err, types.ErrNotFound)
	_, err = st.Vote("bob", 0, true, false)
	require.ErrorIs(t, err, types.ErrNotFound)
	require.Equal(t, uint64(0), st.ProposalCount())
}

func TestVoteInactiveProposal(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	closed := types.NewProposal("alice", "closed")
	closed.Active = false
	require.NoError(t, st.SetProposal(1, closed))
	commit(t, db, st)

	st = db.NewState()
	_, err := st.Vote("bob", 1, true, false)
	require.ErrorIs(t, err, types.ErrProposalNotActive)
	// not active is reported before already voted
	closed.AddVote("carol", true)
	require.NoError(t, st.SetProposal(1, closed))
	_, err = st.Vote("carol", 1, true, false)
	require.ErrorIs(t, err, types.ErrProposalNotActive)
}

func TestTallyMatchesVoters(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	_, _, err := st.CreateProposal("alice", "tally", false)
	require.NoError(t, err)
	voters := []string{"v1", "v2", "v3", "v4", "v5"}
	for i, v := range voters {
		_, err = st.Vote(v, 1, i%2 == 0, false)
		require.NoError(t, err)
		_, err = st.Vote(v, 1, true, false)
		require.ErrorIs(t, err, types.ErrAlreadyVoted)
	}
	commit(t, db, st)

	p, err := db.State().getProposal(1)
	require.NoError(t, err)
	require.Equal(t, uint64(len(p.Voters)), p.YesVotes+p.NoVotes)
	require.Equal(t, uint64(3), p.YesVotes)
	require.Equal(t, uint64(2), p.NoVotes)
	require.ElementsMatch(t, voters, p.Voters)
}

func TestGetProposalNotFound(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st, err := db.Snapshot()
	require.NoError(t, err)
	view, err := st.GetProposal(1)
	require.ErrorIs(t, err, types.ErrNotFound)
	require.Nil(t, view)
}

func TestQueriesAreIdempotent(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")
	st := db.NewState()
	_, _, err := st.CreateProposal("alice", "a", false)
	require.NoError(t, err)
	commit(t, db, st)

	before := db.Header()
	snap, err := db.Snapshot()
	require.NoError(t, err)
	v1, err := snap.GetProposal(1)
	require.NoError(t, err)
	v2, err := snap.GetProposal(1)
	require.NoError(t, err)
	require.Equal(t, v1, v2)
	l1, err := snap.ListProposals(nil, nil)
	require.NoError(t, err)
	l2, err := snap.ListProposals(nil, nil)
	require.NoError(t, err)
	require.Equal(t, l1, l2)
	require.Equal(t, before, db.Header())
}

func TestListProposalsPaging(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")
	st := db.NewState()
	for i := 0; i < 5; i++ {
		_, _, err := st.CreateProposal("alice", "p", false)
		require.NoError(t, err)
	}
	commit(t, db, st)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	u64 := func(v uint64) *uint64 { return &v }
	u32 := func(v uint32) *uint32 { return &v }

	views, err := snap.ListProposals(u64(2), u32(2))
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, uint64(3), views[0].Id)
	require.Equal(t, uint64(4), views[1].Id)

	views, err = snap.ListProposals(u64(4), nil)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, uint64(5), views[0].Id)

	views, err = snap.ListProposals(u64(5), nil)
	require.NoError(t, err)
	require.Empty(t, views)

	views, err = snap.ListProposals(u64(0), nil)
	require.NoError(t, err)
	require.Len(t, views, 5)

	views, err = snap.ListProposals(nil, u32(0))
	require.NoError(t, err)
	require.Empty(t, views)
}

func TestListProposalsLimit(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")
	st := db.NewState()
	total := DefaultListLimit*3 + 15
	for i := 0; i < total; i++ {
		_, _, err := st.CreateProposal("alice", "p", false)
		require.NoError(t, err)
	}
	commit(t, db, st)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	views, err := snap.ListProposals(nil, nil)
	require.NoError(t, err)
	require.Len(t, views, DefaultListLimit)

	// an explicit limit is taken as is
	limit := uint32(1000)
	views, err = snap.ListProposals(nil, &limit)
	require.NoError(t, err)
	require.Len(t, views, total)
	require.Equal(t, uint64(total), views[total-1].Id)

	after := uint64(total - 2)
	views, err = snap.ListProposals(&after, &limit)
	require.NoError(t, err)
	require.Len(t, views, 2)
	require.Equal(t, uint64(total-1), views[0].Id)
}

func TestSnapshotIgnoresUncommittedBlock(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	_, _, err := st.CreateProposal("alice", "pending", false)
	require.NoError(t, err)
	_, err = st.Update()
	require.NoError(t, err)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	_, err = snap.GetProposal(1)
	require.ErrorIs(t, err, types.ErrNotFound)

	_, err = db.SetState(st)
	require.NoError(t, err)
	snap, err = db.Snapshot()
	require.NoError(t, err)
	view, err := snap.GetProposal(1)
	require.NoError(t, err)
	require.Equal(t, "pending", view.Description)
}

func TestSnapshotBeforeFirstCommit(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	st := db.NewState()
	st.SetChainId(testChainId)
	_, _, err := st.Initialize("owner", "reg1")
	require.NoError(t, err)
	_, _, err = st.CreateProposal("alice", "pending", false)
	require.NoError(t, err)
	require.NoError(t, st.IncNonce("alice"))
	_, err = st.Update()
	require.NoError(t, err)

	snap, err := db.Snapshot()
	require.NoError(t, err)
	_, err = snap.Config()
	require.ErrorIs(t, err, ErrNotInitialized)
	_, err = snap.GetProposal(1)
	require.ErrorIs(t, err, types.ErrNotFound)
	nonce, err := snap.Nonce("alice")
	require.NoError(t, err)
	require.Equal(t, uint64(0), nonce)
	require.ErrorIs(t, snap.IncNonce("alice"), ErrReadOnlyState)
}

func TestReopenKeepsState(t *testing.T) {
	ldb := dbm.NewMemDB()
	db := newTestDB(t, ldb)
	initLedger(t, db, "reg1")
	st := db.NewState()
	_, _, err := st.CreateProposal("alice", "persisted", false)
	require.NoError(t, err)
	_, err = st.Vote("bob", 1, false, false)
	require.NoError(t, err)
	require.NoError(t, st.IncNonce("bob"))
	hash := commit(t, db, st)
	header := db.Header()

	reopened := newTestDB(t, ldb)
	require.Equal(t, header, reopened.Header())
	require.Equal(t, hash, reopened.State().Hash())

	snap, err := reopened.Snapshot()
	require.NoError(t, err)
	view, err := snap.GetProposal(1)
	require.NoError(t, err)
	require.Equal(t, uint64(1), view.NoVotes)
	nonce, err := snap.Nonce("bob")
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)

	st = reopened.NewState()
	require.Equal(t, header.Height+1, st.Header().Height)
	id, _, err := st.CreateProposal("carol", "after restart", false)
	require.NoError(t, err)
	require.Equal(t, uint64(2), id)
}

func TestCloneIsolatesWrites(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	st := db.NewState()
	_, _, err := st.CreateProposal("alice", "base", false)
	require.NoError(t, err)

	tmp := st.Clone()
	_, err = tmp.Vote("bob", 1, true, false)
	require.NoError(t, err)
	_, _, err = tmp.CreateProposal("bob", "tmp", false)
	require.NoError(t, err)

	require.Equal(t, uint64(1), st.ProposalCount())
	view, err := st.GetProposal(1)
	require.NoError(t, err)
	require.Equal(t, uint64(0), view.YesVotes)
}

func TestVerify(t *testing.T) {
	db := newTestDB(t, dbm.NewMemDB())
	initLedger(t, db, "reg1")

	priv := ed25519.GenPrivKey()
	btx := &tx.LedgerTx{
		Version: tx.LedgerTxVersion1,
		Type:    tx.LedgerTxTypeCreateProposal,
		Nonce:   0,
		PubKey:  priv.PubKey().Bytes(),
		Tx:      &tx.CreateProposalTx{Description: "signed"},
	}
	sign := func() {
		btx.Sig = nil
		dat, err := btx.SigData([]byte(testChainId))
		require.NoError(t, err)
		sig, err := priv.Sign(dat)
		require.NoError(t, err)
		btx.Sig = [][]byte{sig}
	}
	sign()

	st := db.NewState()
	sender, err := st.Verify(btx, false)
	require.NoError(t, err)
	require.Equal(t, priv.PubKey().Address().String(), sender)

	require.NoError(t, st.IncNonce(sender))
	_, err = st.Verify(btx, false)
	require.ErrorIs(t, err, tx.ErrTxNonceInvalid)

	btx.Nonce = 3
	sign()
	_, err = st.Verify(btx, false)
	require.ErrorIs(t, err, tx.ErrTxNonceInvalid)
	_, err = st.Verify(btx, true)
	require.NoError(t, err)

	btx.Nonce = 1
	_, err = st.Verify(btx, false)
	require.ErrorIs(t, err, tx.ErrTxSigInvalid)
}
