package indexer

import (
	"context"
	"errors"
	"time"

	"github.com/calehh/gov-ledger/types"
	abci "github.com/cometbft/cometbft/abci/types"
	cmtlog "github.com/cometbft/cometbft/libs/log"
	comethttp "github.com/cometbft/cometbft/rpc/client/http"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/sqlite"
)

// ChainIndexer follows committed blocks over RPC and mirrors ledger events
// into sqlite.
type ChainIndexer struct {
	logger        cmtlog.Logger
	Url           string
	Height        int64
	db            *gorm.DB
	cli           *comethttp.HTTP
	eventHandlers map[string]eventHandler
}

func NewChainIndexer(logger cmtlog.Logger, dbPath string, chainUrl string) (*ChainIndexer, error) {
	logger.Info("NewChainIndexer", "dbPath", dbPath, "url", chainUrl)
	db, err := gorm.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	c, err := newChainIndexer(logger, db, chainUrl)
	if err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func newChainIndexer(logger cmtlog.Logger, db *gorm.DB, chainUrl string) (*ChainIndexer, error) {
	if err := db.AutoMigrate(&Proposal{}, &Vote{}, &Height{}).Error; err != nil {
		return nil, err
	}
	h := Height{Id: 1}
	if err := db.First(&h).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	cli, err := comethttp.New(chainUrl, "/websocket")
	if err != nil {
		return nil, err
	}
	c := &ChainIndexer{
		logger: logger.With("module", "indexer"),
		Url:    chainUrl,
		Height: int64(h.Height + 1),
		db:     db,
		cli:    cli,
	}
	c.eventHandlers = map[string]eventHandler{
		types.EventCreateProposalType: c.handleEventCreateProposal,
		types.EventVoteType:           c.handleEventVote,
	}
	return c, nil
}

func (c *ChainIndexer) Close() error {
	return c.db.Close()
}

type eventHandler func(ctx context.Context, event abci.Event, height int64) error

// handleEvent dispatches on the event type. The last block is replayed after
// a restart, so handlers skip proposals and votes that are already stored.
func (c *ChainIndexer) handleEvent(ctx context.Context, event abci.Event, height int64) error {
	if h, ok := c.eventHandlers[event.Type]; ok {
		return h(ctx, event, height)
	}
	return nil
}

func (c *ChainIndexer) handleEventCreateProposal(ctx context.Context, event abci.Event, height int64) error {
	ev := types.DecodeEventCreateProposal(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	err := c.db.Where("id = ?", ev.ProposalId).First(&Proposal{}).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	proposal := Proposal{
		Id:              ev.ProposalId,
		Creator:         ev.Creator,
		Description:     ev.Description,
		Height:          uint64(height),
		CreateTimestamp: time.Now().Unix(),
	}
	if err := c.db.Create(&proposal).Error; err != nil {
		c.logger.Error("save proposal fail", "err", err)
		return err
	}
	return nil
}

func (c *ChainIndexer) handleEventVote(ctx context.Context, event abci.Event, height int64) error {
	ev := types.DecodeEventVote(event)
	if ev == nil {
		c.logger.Error("decode event fail", "event", event)
		return nil
	}
	err := c.db.Where("proposal = ? AND voter = ?", ev.ProposalId, ev.Voter).First(&Vote{}).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return c.db.Transaction(func(tx *gorm.DB) error {
		vote := Vote{
			Proposal: ev.ProposalId,
			Voter:    ev.Voter,
			Yes:      ev.Yes,
			Height:   uint64(height),
		}
		if err := tx.Create(&vote).Error; err != nil {
			c.logger.Error("save vote fail", "err", err)
			return err
		}
		column := "no_votes"
		if ev.Yes {
			column = "yes_votes"
		}
		return tx.Model(&Proposal{}).Where("id = ?", ev.ProposalId).
			UpdateColumn(column, gorm.Expr(column+" + ?", 1)).Error
	})
}

// indexBlock applies the events of one block and records it as indexed.
func (c *ChainIndexer) indexBlock(ctx context.Context, height int64, results []*abci.ExecTxResult) error {
	for _, res := range results {
		if res == nil || res.IsErr() {
			continue
		}
		for _, event := range res.Events {
			if err := c.handleEvent(ctx, event, height); err != nil {
				return err
			}
		}
	}
	return c.db.Save(&Height{
		Id:     1,
		Height: uint64(height),
	}).Error
}

func (c *ChainIndexer) reconnect() {
	if c.cli.IsRunning() {
		return
	}
	cli, err := comethttp.New(c.Url, "/websocket")
	if err != nil {
		c.logger.Error("reconnect fail", "err", err)
		return
	}
	c.cli = cli
}

func (c *ChainIndexer) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b, err := c.cli.Status(ctx)
			if err != nil {
				c.logger.Error("get status fail", "err", err)
				c.reconnect()
				continue
			}
			for b.SyncInfo.LatestBlockHeight >= c.Height {
				if ctx.Err() != nil {
					return
				}
				c.logger.Debug("indexer syncing", "height", c.Height)
				res, err := c.cli.BlockResults(ctx, &c.Height)
				if err != nil {
					c.logger.Error("get block results fail", "height", c.Height, "err", err)
					c.reconnect()
					break
				}
				if err = c.indexBlock(ctx, c.Height, res.TxsResults); err != nil {
					c.logger.Error("index block fail", "height", c.Height, "err", err)
					break
				}
				c.Height++
			}
		}
	}
}

func (c *ChainIndexer) getProposals(page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getProposalById(proposalId uint64) (Proposal, error) {
	var proposal Proposal
	err := c.db.Where("id = ?", proposalId).First(&proposal).Error
	if err != nil {
		return Proposal{}, err
	}
	return proposal, nil
}

func (c *ChainIndexer) getProposalsByCreator(creator string, page int, pageSize int) ([]Proposal, uint64, error) {
	var proposals []Proposal
	err := c.db.Where("creator = ?", creator).Order("id desc").Offset(page * pageSize).Limit(pageSize).Find(&proposals).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Proposal{}).Where("creator = ?", creator).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return proposals, total, nil
}

func (c *ChainIndexer) getVotesByProposal(proposal uint64, page int, pageSize int) ([]Vote, uint64, error) {
	var votes []Vote
	err := c.db.Where("proposal = ?", proposal).Order("id asc").Offset(page * pageSize).Limit(pageSize).Find(&votes).Error
	if err != nil {
		return nil, 0, err
	}
	var total uint64
	err = c.db.Model(&Vote{}).Where("proposal = ?", proposal).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}
	return votes, total, nil
}
