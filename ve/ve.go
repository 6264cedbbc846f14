// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package ve defines the contracts of the vote-escrow collaborators that the
// compound emission extension calls into: the reward token, the voting
// escrow lock registry, the voter gauge registry, bribe pools, the gauge and
// Merkl reward source, role-based access control and the host journal.
package ve

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// Week is the epoch length in seconds.
const Week uint64 = 7 * 24 * 60 * 60

// EpochStart returns the start of the epoch containing timestamp.
func EpochStart(timestamp uint64) uint64 {
	return timestamp / Week * Week
}

// Errors raised by collaborators
var (
	ErrInvalidMerklDataUser  = errors.New("invalid merkl data user")
	ErrInsufficientBalance   = errors.New("insufficient balance")
	ErrInsufficientAllowance = errors.New("insufficient allowance")
	ErrLockNotFound          = errors.New("lock not found")
	ErrNotLockOwner          = errors.New("caller is not lock owner")
	ErrGaugeNotFound         = errors.New("gauge not found")
	ErrGaugeKilled           = errors.New("gauge is killed")
	ErrZeroAmount            = errors.New("zero amount")
	ErrInvalidLockParams     = errors.New("invalid lock params")
)

// Token is the fungible reward token.
type Token interface {
	Address() common.Address
	BalanceOf(owner common.Address) *uint256.Int
	Transfer(from, to common.Address, amount *uint256.Int) error
	Approve(owner, spender common.Address, amount *uint256.Int) error
	TransferFrom(spender, from, to common.Address, amount *uint256.Int) error
}

// CreateLockParams describes a new lock minted by the voting escrow.
type CreateLockParams struct {
	Amount                  *uint256.Int
	Duration                uint64
	Owner                   common.Address
	WithPermanentLock       bool
	ShouldBoosted           bool
	ManagedTokenIDForAttach uint64
}

// VotingEscrow is the lock (NFT) registry. Deposits and creations pull the
// funding amount from `from` through the token allowance.
type VotingEscrow interface {
	Address() common.Address
	OwnerOf(lockID uint64) (common.Address, error)
	DepositFor(from common.Address, lockID uint64, amount *uint256.Int) error
	CreateLockFor(from common.Address, params CreateLockParams) (uint64, error)
}

// GaugeState is the voter's view of a gauge.
type GaugeState struct {
	IsGauge       bool
	IsAlive       bool
	Pool          common.Address
	ExternalBribe common.Address
}

// Voter is the gauge registry.
type Voter interface {
	Address() common.Address
	PoolToGauge(pool common.Address) common.Address
	IsAlive(gauge common.Address) bool
	GaugeState(gauge common.Address) GaugeState
}

// Bribes accepts reward notifications on external bribe contracts for the
// current epoch. The amount is pulled from `from` through the allowance.
type Bribes interface {
	NotifyRewardAmount(bribe, from, token common.Address, amount *uint256.Int) error
}

// MerklParams is the Merkl distributor claim payload.
type MerklParams struct {
	Users   []common.Address
	Tokens  []common.Address
	Amounts []*uint256.Int
	Proofs  [][]common.Hash
}

// RewardSource claims gauge and Merkl rewards earned by target and delivers
// them to recipient, returning the amount delivered. Every Merkl user must be
// target, otherwise ErrInvalidMerklDataUser is returned.
type RewardSource interface {
	ClaimRewardsFor(target common.Address, gauges []common.Address, merkl MerklParams, recipient common.Address) (*uint256.Int, error)
}

// AccessControl answers role membership.
type AccessControl interface {
	HasRole(role common.Hash, account common.Address) bool
}

// Journal lets a caller revert collaborator state to a snapshot, the way the
// EVM state database does for a reverted call.
type Journal interface {
	Snapshot() int
	RevertToSnapshot(id int)
}

// LogSink receives emitted event logs.
type LogSink interface {
	AddLog(log *types.Log)
}

// CheckMerklUsers returns ErrInvalidMerklDataUser unless every Merkl user is target.
func CheckMerklUsers(target common.Address, merkl MerklParams) error {
	for _, user := range merkl.Users {
		if user != target {
			return ErrInvalidMerklDataUser
		}
	}
	return nil
}
