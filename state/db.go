package state

import (
	"sync"

	"github.com/calehh/gov-ledger/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	dbm "github.com/cosmos/iavl/db"
	"github.com/ethereum/go-ethereum/common"
)

type StateDB struct {
	mtx sync.RWMutex

	dir    string
	logger cmtlog.Logger
	db     *iavl.MutableTree

	state *State
}

func NewStateDB(dir string, logger cmtlog.Logger) (db *StateDB, err error) {
	ldb, err := dbm.NewDB("ledger", "goleveldb", dir)
	if err != nil {
		return nil, err
	}
	db, err = OpenStateDB(ldb, logger)
	if err != nil {
		return nil, err
	}
	db.dir = dir
	return
}

// OpenStateDB loads the latest version stored in ldb.
func OpenStateDB(ldb dbm.DB, logger cmtlog.Logger) (db *StateDB, err error) {
	logger = logger.With("module", "ledgerdb")
	tdb := iavl.NewMutableTree(ldb, 128, true, newTreeLogger(logger))
	version, err := tdb.Load()
	if err != nil {
		return nil, types.StorageFailure("load tree", err)
	}
	logger.Info("load db success", "version", version)
	st := newState(tdb, logger)
	st.dbVer = version
	err = st.load()
	if err != nil {
		logger.Error("from ledgerdb load fail", "err", err)
		return nil, err
	}
	db = &StateDB{
		logger: logger,
		db:     tdb,
		state:  st,
	}
	return
}

func (db *StateDB) Close() (err error) {
	err = db.db.Close()
	return
}

func (db *StateDB) Header() (header *StateHeader) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	header = db.state.Header().Clone()
	return
}

func (db *StateDB) State() *State {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	return db.state
}

func (db *StateDB) NewState() (st *State) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	st = db.state.nextState()
	return
}

// SetState persists st as a new tree version and makes it the committed state.
func (db *StateDB) SetState(st *State) (hash common.Hash, err error) {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	hash, err = st.save()
	if err != nil {
		return
	}
	db.state = st
	return
}

// Snapshot returns a read-only State over the last committed version. It
// never observes writes of a block that is not committed yet.
func (db *StateDB) Snapshot() (st *State, err error) {
	db.mtx.RLock()
	defer db.mtx.RUnlock()
	var store kvStore = emptyStore{}
	ver := db.state.dbVer
	if ver > 0 {
		itree, err := db.db.GetImmutable(ver)
		if err != nil {
			return nil, types.StorageFailure("load version", err)
		}
		store = itree
	}
	st = &State{
		logger:        db.logger,
		store:         store,
		dbVer:         ver,
		header:        db.state.header.Clone(),
		proposalCount: db.state.proposalCount,
	}
	return
}

// emptyStore is the committed view before any version was saved.
type emptyStore struct{}

func (emptyStore) Get([]byte) ([]byte, error) { return nil, nil }
