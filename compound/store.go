// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/database"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/rlp"
	"github.com/zeebo/blake3"
)

// Storage key prefixes
var (
	userPrefix          = []byte("user")
	defaultConfigPrefix = []byte("dclc")
)

// UserRecord is the persisted compound configuration of one user.
type UserRecord struct {
	ToLocksPercentage      *uint256.Int
	ToBribePoolsPercentage *uint256.Int
	TargetLocks            []TargetLock
	TargetBribePools       []TargetPool
	CreateLockConfig       CreateLockConfig
	IsCustomConfig         bool
}

func newUserRecord() *UserRecord {
	return &UserRecord{
		ToLocksPercentage:      new(uint256.Int),
		ToBribePoolsPercentage: new(uint256.Int),
	}
}

// makeStorageKey creates a storage key from prefix and identifier
func makeStorageKey(prefix []byte, id []byte) []byte {
	h := blake3.New()
	h.Write(prefix)
	h.Write(id)
	var key common.Hash
	h.Digest().Read(key[:])
	return key[:]
}

// Store persists user compound configurations and the default create-lock
// config in a key-value database.
type Store struct {
	db database.Database
}

// NewStore returns a store over db.
func NewStore(db database.Database) *Store {
	return &Store{db: db}
}

// User returns the record of user, or an empty record if none was written.
func (s *Store) User(user common.Address) (*UserRecord, error) {
	raw, err := s.db.Get(makeStorageKey(userPrefix, user.Bytes()))
	if errors.Is(err, database.ErrNotFound) {
		return newUserRecord(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user %s: %w", user.Hex(), err)
	}
	rec := new(UserRecord)
	if err := rlp.DecodeBytes(raw, rec); err != nil {
		return nil, fmt.Errorf("failed to decode user %s: %w", user.Hex(), err)
	}
	if rec.ToLocksPercentage == nil {
		rec.ToLocksPercentage = new(uint256.Int)
	}
	if rec.ToBribePoolsPercentage == nil {
		rec.ToBribePoolsPercentage = new(uint256.Int)
	}
	return rec, nil
}

// PutUser writes the record of user.
func (s *Store) PutUser(user common.Address, rec *UserRecord) error {
	raw, err := rlp.EncodeToBytes(rec)
	if err != nil {
		return fmt.Errorf("failed to encode user %s: %w", user.Hex(), err)
	}
	return s.db.Put(makeStorageKey(userPrefix, user.Bytes()), raw)
}

// DefaultCreateLockConfig returns the stored default create-lock config.
// The boolean is false if none was written yet.
func (s *Store) DefaultCreateLockConfig() (CreateLockConfig, bool, error) {
	raw, err := s.db.Get(makeStorageKey(defaultConfigPrefix, nil))
	if errors.Is(err, database.ErrNotFound) {
		return CreateLockConfig{}, false, nil
	}
	if err != nil {
		return CreateLockConfig{}, false, fmt.Errorf("failed to read default create lock config: %w", err)
	}
	var cfg CreateLockConfig
	if err := rlp.DecodeBytes(raw, &cfg); err != nil {
		return CreateLockConfig{}, false, fmt.Errorf("failed to decode default create lock config: %w", err)
	}
	return cfg, true, nil
}

// PutDefaultCreateLockConfig writes the default create-lock config.
func (s *Store) PutDefaultCreateLockConfig(cfg CreateLockConfig) error {
	raw, err := rlp.EncodeToBytes(&cfg)
	if err != nil {
		return fmt.Errorf("failed to encode default create lock config: %w", err)
	}
	return s.db.Put(makeStorageKey(defaultConfigPrefix, nil), raw)
}
