// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"errors"

	"github.com/holiman/uint256"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/ve"
)

var (
	ErrInvalidCreateLockConfig       = errors.New("invalid create lock config")
	ErrInvalidCompoundEmissionParams = errors.New("invalid compound emission params")
	ErrAnotherUserTargetLocks        = errors.New("target lock belongs to another user")
	ErrTargetPoolGaugeIsKilled       = errors.New("target pool gauge is killed")
	ErrAccessDenied                  = errors.New("access denied")
	ErrInvalidConfig                 = errors.New("invalid compound emission config")
)

// Roles checked against the host access control.
var (
	AdministratorRole = common.BytesToHash(crypto.Keccak256([]byte("COMPOUND_EMISSION_EXTENSION_ADMINISTRATOR_ROLE")))
	KeeperRole        = common.BytesToHash(crypto.Keccak256([]byte("COMPOUND_KEEPER_ROLE")))
)

// DefaultLockDuration is the lock duration of the factory default create-lock
// config, 182 days.
const DefaultLockDuration uint64 = 182 * 24 * 60 * 60

// CreateLockConfig parameterises the locks the extension creates on behalf
// of a user.
type CreateLockConfig struct {
	ShouldBoosted           bool   `json:"shouldBoosted"`
	WithPermanentLock       bool   `json:"withPermanentLock"`
	LockDuration            uint64 `json:"lockDuration"`
	ManagedTokenIDForAttach uint64 `json:"managedTokenIdForAttach"`
}

// DefaultCreateLockConfig returns the factory default create-lock config.
func DefaultCreateLockConfig() CreateLockConfig {
	return CreateLockConfig{LockDuration: DefaultLockDuration}
}

// Valid reports whether a lock can be created with c.
func (c CreateLockConfig) Valid() bool {
	return c.WithPermanentLock || c.LockDuration > 0
}

// TargetLock routes Percentage of the to-locks share into LockID. A zero id
// asks for a new lock.
type TargetLock struct {
	LockID     uint64
	Percentage *uint256.Int
}

// TargetPool routes Percentage of the to-bribes share into the external bribe
// of Pool's gauge.
type TargetPool struct {
	Pool       common.Address
	Percentage *uint256.Int
}

// UpdateParams is a partial update of a user's compound configuration. Only
// the subsets whose flag is set are written.
type UpdateParams struct {
	ShouldUpdateGeneralPercentages bool
	ShouldUpdateTargetLocks        bool
	ShouldUpdateTargetBribePools   bool

	ToLocksPercentage      *uint256.Int
	ToBribePoolsPercentage *uint256.Int
	TargetLocks            []TargetLock
	TargetBribePools       []TargetPool
}

// ClaimParams selects the rewards claimed for Target.
type ClaimParams struct {
	Target common.Address
	Gauges []common.Address
	Merkl  ve.MerklParams
}

// UserInfo is the full compound configuration of a user.
type UserInfo struct {
	ToLocksPercentage        *uint256.Int
	ToBribePoolsPercentage   *uint256.Int
	TargetLocks              []TargetLock
	TargetBribePools         []TargetPool
	CreateLockConfig         CreateLockConfig
	IsCreateLockCustomConfig bool
}

// LockAllocation is one lock funded by a distribution.
type LockAllocation struct {
	LockID  uint64
	Amount  *uint256.Int
	Created bool
}

// PoolAllocation is one bribe pool entry of a distribution. When the pool's
// gauge was killed the amount went into the new lock LockID instead.
type PoolAllocation struct {
	Pool       common.Address
	Amount     *uint256.Int
	Redirected bool
	LockID     uint64
}

// DistributionResult accounts for one claimed amount:
// Passthrough + sum(Locks) + sum(Pools) == Gross.
type DistributionResult struct {
	Target       common.Address
	Gross        *uint256.Int
	ToLocks      *uint256.Int
	ToBribePools *uint256.Int
	Passthrough  *uint256.Int
	Locks        []LockAllocation
	Pools        []PoolAllocation
}

func cloneTargetLocks(in []TargetLock) []TargetLock {
	if len(in) == 0 {
		return nil
	}
	out := make([]TargetLock, len(in))
	for i, t := range in {
		out[i] = TargetLock{LockID: t.LockID, Percentage: orZero(t.Percentage).Clone()}
	}
	return out
}

func cloneTargetPools(in []TargetPool) []TargetPool {
	if len(in) == 0 {
		return nil
	}
	out := make([]TargetPool, len(in))
	for i, t := range in {
		out[i] = TargetPool{Pool: t.Pool, Percentage: orZero(t.Percentage).Clone()}
	}
	return out
}

func orZero(v *uint256.Int) *uint256.Int {
	if v == nil {
		return new(uint256.Int)
	}
	return v
}
