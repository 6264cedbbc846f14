// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package compound implements the compound emission extension of a
// vote-escrow protocol. It claims a user's gauge and Merkl emissions into its
// custody, then splits them between the user's locks, third-party bribe pools
// and a plain transfer back to the user, following the user's stored
// configuration.
package compound

import (
	"fmt"
	"sync"

	"github.com/luxfi/database"
	"github.com/luxfi/database/versiondb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/log"

	"github.com/parsdao/compound/ve"
)

// Host bundles the collaborators the extension calls into.
type Host struct {
	Token        ve.Token
	VotingEscrow ve.VotingEscrow
	Voter        ve.Voter
	Bribes       ve.Bribes
	Rewards      ve.RewardSource
	Access       ve.AccessControl
	Journal      ve.Journal
	Logs         ve.LogSink
}

func (h *Host) verify(cfg *Config) error {
	switch {
	case h.Token == nil, h.VotingEscrow == nil, h.Voter == nil, h.Bribes == nil,
		h.Rewards == nil, h.Access == nil, h.Journal == nil, h.Logs == nil:
		return fmt.Errorf("%w: incomplete host", ErrInvalidConfig)
	case h.Token.Address() != cfg.Token:
		return fmt.Errorf("%w: token %s, configured %s", ErrInvalidConfig, h.Token.Address().Hex(), cfg.Token.Hex())
	case h.Voter.Address() != cfg.Voter:
		return fmt.Errorf("%w: voter %s, configured %s", ErrInvalidConfig, h.Voter.Address().Hex(), cfg.Voter.Hex())
	case h.VotingEscrow.Address() != cfg.VotingEscrow:
		return fmt.Errorf("%w: voting escrow %s, configured %s", ErrInvalidConfig, h.VotingEscrow.Address().Hex(), cfg.VotingEscrow.Hex())
	}
	return nil
}

// Extension is the compound emission state machine. Every exported mutating
// method is one atomic unit of work.
type Extension struct {
	// mu serialises units of work
	mu sync.RWMutex

	address common.Address
	config  *Config
	db      database.Database
	host    Host
	log     log.Logger
}

// NewExtension opens the extension over db. The default create-lock config
// is seeded from cfg the first time db is used.
func NewExtension(cfg *Config, db database.Database, host Host, logger log.Logger) (*Extension, error) {
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	if err := host.verify(cfg); err != nil {
		return nil, err
	}

	e := &Extension{
		address: ContractAddress,
		config:  cfg,
		db:      db,
		host:    host,
		log:     logger,
	}

	store := NewStore(db)
	if _, ok, err := store.DefaultCreateLockConfig(); err != nil {
		return nil, err
	} else if !ok {
		seed := cfg.defaultCreateLockConfig()
		if err := store.PutDefaultCreateLockConfig(seed); err != nil {
			return nil, err
		}
		logger.Info("seeded default create lock config",
			"lockDuration", seed.LockDuration,
			"withPermanentLock", seed.WithPermanentLock,
		)
	}
	return e, nil
}

// Address returns the custody address of the extension.
func (e *Extension) Address() common.Address {
	return e.address
}

// Config returns the configuration the extension was opened with.
func (e *Extension) Config() *Config {
	return e.config
}

// txn is one unit of work: store writes go to a version overlay and events
// are buffered until commit.
type txn struct {
	e      *Extension
	store  *Store
	events emitter
}

// update runs fn as one unit of work. On failure the store overlay is
// discarded and the host state is reverted to the snapshot taken before fn.
func (e *Extension) update(fn func(tx *txn) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	vdb := versiondb.New(e.db)
	snapshot := e.host.Journal.Snapshot()
	tx := &txn{
		e:      e,
		store:  NewStore(vdb),
		events: emitter{address: e.address},
	}

	if err := fn(tx); err != nil {
		vdb.Abort()
		e.host.Journal.RevertToSnapshot(snapshot)
		return err
	}
	if err := vdb.Commit(); err != nil {
		e.host.Journal.RevertToSnapshot(snapshot)
		return fmt.Errorf("failed to commit: %w", err)
	}
	for _, l := range tx.events.logs {
		e.host.Logs.AddLog(l)
	}
	return nil
}

// view runs fn against the committed store.
func (e *Extension) view(fn func(store *Store) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(NewStore(e.db))
}

func (e *Extension) hasRole(role common.Hash, account common.Address) bool {
	return e.host.Access.HasRole(role, account)
}

// resolvedCreateLockConfig returns the user's custom config if set, the
// default otherwise.
func resolvedCreateLockConfig(store *Store, rec *UserRecord) (CreateLockConfig, error) {
	if rec.IsCustomConfig {
		return rec.CreateLockConfig, nil
	}
	cfg, ok, err := store.DefaultCreateLockConfig()
	if err != nil {
		return CreateLockConfig{}, err
	}
	if !ok {
		return DefaultCreateLockConfig(), nil
	}
	return cfg, nil
}
