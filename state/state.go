package state

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/calehh/gov-ledger/tx"
	"github.com/calehh/gov-ledger/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	"github.com/cosmos/iavl"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/syndtr/goleveldb/leveldb"
)

const DefaultListLimit = 30

var (
	KeyState         = []byte("s")
	KeyConfig        = []byte("c")
	KeyProposalIndex = []byte("pi")
	KeyProposalBody  = []byte("p")
	KeyNonce         = []byte("n")
)

var (
	ErrReadOnlyState  = errors.New("state is read only")
	ErrNotInitialized = errors.New("ledger not initialized")
)

func proposalKey(id uint64) []byte {
	key := make([]byte, len(KeyProposalBody)+8)
	copy(key, KeyProposalBody)
	binary.BigEndian.PutUint64(key[len(KeyProposalBody):], id)
	return key
}

func nonceKey(addr string) []byte {
	return append(append([]byte{}, KeyNonce...), addr...)
}

// kvStore is the read side shared by the working tree and committed versions.
type kvStore interface {
	Get(key []byte) ([]byte, error)
}

// State is the ledger context. Writes are cached until Update flushes them
// into the working tree; a snapshot State has no tree and rejects writes.
type State struct {
	logger cmtlog.Logger
	db     *iavl.MutableTree
	store  kvStore
	dbVer  int64

	header        *StateHeader
	proposalCount uint64

	modConfig    *types.Config
	modCount     bool
	modProposals map[uint64]*types.Proposal
	modNonces    map[string]uint64
}

func newState(db *iavl.MutableTree, logger cmtlog.Logger) *State {
	return &State{
		logger:       logger,
		db:           db,
		store:        db,
		dbVer:        0,
		header:       new(StateHeader),
		modProposals: make(map[uint64]*types.Proposal),
		modNonces:    make(map[string]uint64),
	}
}

func (s *State) nextState() *State {
	n := &State{
		logger:        s.logger,
		db:            s.db,
		store:         s.db,
		dbVer:         s.dbVer,
		proposalCount: s.proposalCount,
		modProposals:  make(map[uint64]*types.Proposal),
		modNonces:     make(map[string]uint64),
	}
	n.header = s.header.Clone()
	if s.header.GetHash() != nil {
		n.header.Height = s.header.Height + 1
	}
	return n
}

// Clone copies the pending writes so a tx can be tried without touching s.
func (s *State) Clone() *State {
	n := &State{
		logger:        s.logger,
		db:            s.db,
		store:         s.store,
		dbVer:         s.dbVer,
		header:        s.header.Clone(),
		proposalCount: s.proposalCount,
		modCount:      s.modCount,
		modProposals:  make(map[uint64]*types.Proposal, len(s.modProposals)),
		modNonces:     make(map[string]uint64, len(s.modNonces)),
	}
	if s.modConfig != nil {
		cfg := *s.modConfig
		n.modConfig = &cfg
	}
	for id, p := range s.modProposals {
		n.modProposals[id] = p.Clone()
	}
	for addr, nonce := range s.modNonces {
		n.modNonces[addr] = nonce
	}
	return n
}

func (s *State) readOnly() bool {
	return s.db == nil
}

func (s *State) get(key []byte) ([]byte, error) {
	val, err := s.store.Get(key)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, nil
		}
		return nil, types.StorageFailure(fmt.Sprintf("get %x", key), err)
	}
	return val, nil
}

func (s *State) load() (err error) {
	val, err := s.get(KeyProposalIndex)
	if err != nil {
		return err
	}
	if len(val) == 8 {
		s.proposalCount = binary.BigEndian.Uint64(val)
	}
	val, err = s.get(KeyState)
	if err != nil {
		return err
	}
	if val != nil {
		err = s.header.Unmarshal(val)
		if err != nil {
			return types.StorageFailure("decode header", err)
		}
		h := s.db.Hash()
		if h != nil {
			s.calcHash(h, true)
		}
	}
	return
}

func (s *State) calcHash(rootHash []byte, update bool) (h common.Hash) {
	h = crypto.Keccak256Hash(rootHash)
	if update {
		s.header.RootHash = append(s.header.RootHash[:0], rootHash...)
		s.header.Hash = append(s.header.Hash[:0], h[:]...)
	}
	return
}

// Update writes the cached changes into the working tree and returns the
// resulting application hash.
func (s *State) Update() (h common.Hash, err error) {
	if s.readOnly() {
		return h, ErrReadOnlyState
	}
	var hash []byte
	defer func() {
		if hash == nil {
			s.db.Rollback()
		}
	}()
	set := func(key, val []byte) error {
		_, err := s.db.Set(key, val)
		return types.StorageFailure(fmt.Sprintf("set %x", key), err)
	}

	if err = set(KeyState, s.header.Marshal()); err != nil {
		return
	}
	if s.modConfig != nil {
		var val []byte
		val, err = json.Marshal(s.modConfig)
		if err != nil {
			return
		}
		if err = set(KeyConfig, val); err != nil {
			return
		}
	}
	if s.modCount {
		val := make([]byte, 8)
		binary.BigEndian.PutUint64(val, s.proposalCount)
		if err = set(KeyProposalIndex, val); err != nil {
			return
		}
	}

	ids := make([]uint64, 0, len(s.modProposals))
	for id := range s.modProposals {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return ids[i] < ids[j]
	})
	for _, id := range ids {
		var val []byte
		val, err = json.Marshal(s.modProposals[id])
		if err != nil {
			return
		}
		if err = set(proposalKey(id), val); err != nil {
			return
		}
	}

	addrs := make([]string, 0, len(s.modNonces))
	for addr := range s.modNonces {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	for _, addr := range addrs {
		var val []byte
		val, err = rlp.EncodeToBytes(s.modNonces[addr])
		if err != nil {
			return
		}
		if err = set(nonceKey(addr), val); err != nil {
			return
		}
	}

	hash = s.db.WorkingHash()
	h = s.calcHash(hash, false)
	s.modConfig = nil
	s.modCount = false
	s.modProposals = make(map[uint64]*types.Proposal)
	s.modNonces = make(map[string]uint64)
	return
}

func (s *State) save() (h common.Hash, err error) {
	hash, ver, err := s.db.SaveVersion()
	if err != nil {
		return h, types.StorageFailure("save version", err)
	}

	s.dbVer = ver
	h = s.calcHash(hash, true)

	return
}

func (s *State) Header() *StateHeader {
	return s.header
}

func (s *State) Hash() (h common.Hash) {
	if s.header.Hash != nil {
		copy(h[:], s.header.Hash)
	}
	return
}

func (s *State) ChainId() string {
	return s.header.ChainId
}

func (s *State) SetChainId(chainId string) {
	s.header.ChainId = chainId
}

// SetHeight records the block height the state is built for.
func (s *State) SetHeight(height uint64) {
	s.header.Height = height
}

func (s *State) ProposalCount() uint64 {
	return s.proposalCount
}

func (s *State) Config() (cfg *types.Config, err error) {
	if s.modConfig != nil {
		c := *s.modConfig
		return &c, nil
	}
	val, err := s.get(KeyConfig)
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, ErrNotInitialized
	}
	cfg = new(types.Config)
	if err = json.Unmarshal(val, cfg); err != nil {
		return nil, types.StorageFailure("decode config", err)
	}
	return
}

func (s *State) getProposal(id uint64) (proposal *types.Proposal, err error) {
	if p, ok := s.modProposals[id]; ok {
		return p.Clone(), nil
	}
	if id == 0 || id > s.proposalCount {
		return nil, nil
	}
	val, err := s.get(proposalKey(id))
	if err != nil {
		return nil, err
	}
	if val == nil {
		return nil, nil
	}
	proposal = new(types.Proposal)
	if err = json.Unmarshal(val, proposal); err != nil {
		return nil, types.StorageFailure(fmt.Sprintf("decode proposal %d", id), err)
	}
	return
}

// SetProposal stores p under id as is. Ledger operations never call it; it
// exists to seed state that no operation can reach yet, such as an inactive
// proposal.
func (s *State) SetProposal(id uint64, p *types.Proposal) error {
	if s.readOnly() {
		return ErrReadOnlyState
	}
	s.modProposals[id] = p.Clone()
	if id > s.proposalCount {
		s.proposalCount = id
		s.modCount = true
	}
	return nil
}

func (s *State) Initialize(caller string, registryAddress string) (cfg *types.Config, event *types.EventInstantiate, err error) {
	if s.readOnly() {
		return nil, nil, ErrReadOnlyState
	}
	s.logger.Debug("apply initialize", "owner", caller, "registry", registryAddress)
	cfg = &types.Config{RegistryAddress: registryAddress}
	c := *cfg
	s.modConfig = &c
	s.proposalCount = 0
	s.modCount = true
	event = &types.EventInstantiate{
		Owner:    caller,
		Registry: registryAddress,
	}
	return
}

func (s *State) CreateProposal(caller string, description string, checkOnly bool) (id uint64, event *types.EventCreateProposal, err error) {
	if checkOnly {
		return s.proposalCount + 1, nil, nil
	}
	if s.readOnly() {
		return 0, nil, ErrReadOnlyState
	}
	s.logger.Debug("apply create proposal", "creator", caller, "height", s.header.Height)
	s.proposalCount += 1
	s.modCount = true
	id = s.proposalCount
	s.modProposals[id] = types.NewProposal(caller, description)
	event = &types.EventCreateProposal{
		ProposalId:  id,
		Creator:     caller,
		Description: description,
	}
	return
}

func (s *State) Vote(caller string, id uint64, yes bool, checkOnly bool) (event *types.EventVote, err error) {
	proposal, err := s.getProposal(id)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, types.ProposalNotFound(id)
	}
	if !proposal.Active {
		return nil, types.ErrProposalNotActive
	}
	if proposal.HasVoted(caller) {
		return nil, types.ErrAlreadyVoted
	}
	if checkOnly {
		return nil, nil
	}
	if s.readOnly() {
		return nil, ErrReadOnlyState
	}
	s.logger.Debug("apply vote", "voter", caller, "proposal", id, "height", s.header.Height)
	proposal.AddVote(caller, yes)
	s.modProposals[id] = proposal
	event = &types.EventVote{
		ProposalId: id,
		Voter:      caller,
		Yes:        yes,
	}
	return
}

func (s *State) GetProposal(id uint64) (view *types.ProposalView, err error) {
	proposal, err := s.getProposal(id)
	if err != nil {
		return nil, err
	}
	if proposal == nil {
		return nil, types.ProposalNotFound(id)
	}
	v := proposal.View(id)
	return &v, nil
}

// ListProposals returns proposals in ascending id order, resuming strictly
// after startAfter when it is set.
func (s *State) ListProposals(startAfter *uint64, limit *uint32) (views []types.ProposalView, err error) {
	n := uint64(DefaultListLimit)
	if limit != nil {
		n = uint64(*limit)
	}
	start := uint64(1)
	if startAfter != nil {
		if *startAfter >= s.proposalCount {
			return []types.ProposalView{}, nil
		}
		start = *startAfter + 1
	}
	views = make([]types.ProposalView, 0, min(n, s.proposalCount-start+1))
	for id := start; id <= s.proposalCount && uint64(len(views)) < n; id++ {
		proposal, err := s.getProposal(id)
		if err != nil {
			return nil, err
		}
		if proposal == nil {
			continue
		}
		views = append(views, proposal.View(id))
	}
	return views, nil
}

func (s *State) Nonce(addr string) (nonce uint64, err error) {
	if n, ok := s.modNonces[addr]; ok {
		return n, nil
	}
	val, err := s.get(nonceKey(addr))
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, nil
	}
	if err = rlp.DecodeBytes(val, &nonce); err != nil {
		return 0, types.StorageFailure("decode nonce", err)
	}
	return
}

func (s *State) IncNonce(addr string) error {
	if s.readOnly() {
		return ErrReadOnlyState
	}
	nonce, err := s.Nonce(addr)
	if err != nil {
		return err
	}
	s.modNonces[addr] = nonce + 1
	return nil
}

// Verify checks the envelope signature and nonce and returns the sender
// address. allowNonceGap admits future nonces for mempool ordering.
func (s *State) Verify(btx *tx.LedgerTx, allowNonceGap bool) (sender string, err error) {
	sender, err = btx.Sender()
	if err != nil {
		return "", err
	}
	nonce, err := s.Nonce(sender)
	if err != nil {
		return "", err
	}
	if !(nonce == btx.Nonce || (allowNonceGap && nonce < btx.Nonce)) {
		return "", tx.ErrTxNonceInvalid
	}
	if err = btx.VerifySig(s.header.ChainId); err != nil {
		return "", err
	}
	return sender, nil
}
