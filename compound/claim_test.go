// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"math/big"
	"testing"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/compound/ve"
	"github.com/parsdao/compound/ve/vetest"
)

// requireConserved checks passthrough + locks + pools == gross.
func requireConserved(t *testing.T, res DistributionResult) {
	t.Helper()
	total := res.Passthrough.Clone()
	for _, l := range res.Locks {
		total.Add(total, l.Amount)
	}
	for _, p := range res.Pools {
		total.Add(total, p.Amount)
	}
	require.Equal(t, res.Gross.Dec(), total.Dec())
}

func TestClaimToExistingLock(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	before := f.lockAmount(lock)

	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("0.5"),
		TargetLocks:                    []TargetLock{{lock, pct("1")}},
	})
	logs := len(f.chain.Logs())

	res, err := f.ext.CompoundEmissionClaim(user1, f.reward(user1, 100))
	require.NoError(t, err)
	requireConserved(t, res)

	require.Equal(t, "100", res.Gross.Dec())
	require.Equal(t, "50", res.Passthrough.Dec())
	require.Equal(t, []LockAllocation{{LockID: lock, Amount: amt(50)}}, res.Locks)
	require.Empty(t, res.Pools)

	require.Equal(t, new(uint256.Int).Add(before, amt(50)).Dec(), f.lockAmount(lock).Dec())
	require.Equal(t, "50", f.chain.Balance(user1).Dec())
	require.True(t, f.chain.Balance(f.ext.Address()).IsZero())

	newLogs := f.chain.Logs()[logs:]
	require.Equal(t, []string{EventCompoundEmissionToTargetLock}, eventNames(t, newLogs))
	args, err := ExtensionABI.UnpackEvent(EventCompoundEmissionToTargetLock, newLogs[0])
	require.NoError(t, err)
	require.Equal(t, new(big.Int).SetUint64(lock).String(), args[0].(*big.Int).String())
	require.Equal(t, "50", args[1].(*big.Int).String())
}

func TestClaimCreatesLocksForZeroIDs(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	before := f.lockAmount(lock)
	require.NoError(t, f.ext.SetCreateLockConfig(user1, CreateLockConfig{LockDuration: 52 * ve.Week, ShouldBoosted: true}))

	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("1"),
		TargetLocks:                    []TargetLock{{0, pct("0.6")}, {lock, pct("0.2")}, {lock, pct("0.2")}},
	})
	logs := len(f.chain.Logs())

	res, err := f.ext.CompoundEmissionClaim(user1, f.reward(user1, 100))
	require.NoError(t, err)
	requireConserved(t, res)
	require.True(t, res.Passthrough.IsZero())
	require.Len(t, res.Locks, 3)

	created := res.Locks[0]
	require.True(t, created.Created)
	require.Equal(t, "60", created.Amount.Dec())
	require.Equal(t, LockAllocation{LockID: lock, Amount: amt(20)}, res.Locks[1])
	require.Equal(t, LockAllocation{LockID: lock, Amount: amt(20)}, res.Locks[2])

	newLock, ok := f.chain.Lock(created.LockID)
	require.True(t, ok)
	require.Equal(t, user1, newLock.Owner)
	require.Equal(t, "60", newLock.Amount.Dec())
	require.True(t, newLock.Boosted)
	require.False(t, newLock.Permanent)
	require.Equal(t, f.ext.Address(), newLock.CreatedFrom)
	require.Equal(t, new(uint256.Int).Add(before, amt(40)).Dec(), f.lockAmount(lock).Dec())

	// The zero entry now points at the lock it created.
	info := f.userInfo(user1)
	require.Equal(t, []uint64{created.LockID, lock, lock}, []uint64{
		info.TargetLocks[0].LockID, info.TargetLocks[1].LockID, info.TargetLocks[2].LockID,
	})

	require.Equal(t, []string{
		EventCreateLockFromCompoundEmission,
		EventCompoundEmissionToTargetLock,
		EventCompoundEmissionToTargetLock,
	}, eventNames(t, f.chain.Logs()[logs:]))

	// A second claim deposits into the created lock instead of minting again.
	count := f.chain.LockCount()
	res, err = f.ext.CompoundEmissionClaim(user1, f.reward(user1, 100))
	require.NoError(t, err)
	require.Equal(t, count, f.chain.LockCount())
	require.False(t, res.Locks[0].Created)
	require.Equal(t, "120", f.lockAmount(created.LockID).Dec())
}

func TestClaimEachZeroEntryCreatesItsOwnLock(t *testing.T) {
	f := newFixture(t)
	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("1"),
		TargetLocks:                    []TargetLock{{0, pct("0.5")}, {0, pct("0.5")}},
	})

	res, err := f.ext.CompoundEmissionClaim(user1, f.reward(user1, 10))
	require.NoError(t, err)
	require.Len(t, res.Locks, 2)
	require.NotEqual(t, res.Locks[0].LockID, res.Locks[1].LockID)
	require.Equal(t, []uint64{res.Locks[0].LockID, res.Locks[1].LockID}, f.chain.LocksOf(user1))

	info := f.userInfo(user1)
	require.Equal(t, res.Locks[0].LockID, info.TargetLocks[0].LockID)
	require.Equal(t, res.Locks[1].LockID, info.TargetLocks[1].LockID)
}

func TestClaimRedirectsKilledGaugeShareIntoLock(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	before := f.lockAmount(lock)

	f.configure(user1, fullConfig("0.6", "0.4",
		[]TargetLock{{lock, pct("1")}},
		[]TargetPool{{pool1, pct("0.6")}, {pool2, pct("0.4")}},
	))
	f.chain.KillGauge(pool1)
	logs := len(f.chain.Logs())

	res, err := f.ext.CompoundEmissionClaim(user1, f.reward(user1, 200))
	require.NoError(t, err)
	requireConserved(t, res)

	require.True(t, res.Passthrough.IsZero())
	require.Equal(t, "120", res.ToLocks.Dec())
	require.Equal(t, "80", res.ToBribePools.Dec())
	require.Equal(t, new(uint256.Int).Add(before, amt(120)).Dec(), f.lockAmount(lock).Dec())

	require.Len(t, res.Pools, 2)
	redirected := res.Pools[0]
	require.True(t, redirected.Redirected)
	require.Equal(t, pool1, redirected.Pool)
	require.Equal(t, "48", redirected.Amount.Dec())
	newLock, ok := f.chain.Lock(redirected.LockID)
	require.True(t, ok)
	require.Equal(t, user1, newLock.Owner)
	require.Equal(t, "48", newLock.Amount.Dec())

	require.Equal(t, PoolAllocation{Pool: pool2, Amount: amt(32)}, res.Pools[1])
	bribe2 := f.chain.BribeOf(pool2)
	require.Equal(t, "32", f.chain.Balance(bribe2).Dec())
	require.True(t, f.chain.Balance(f.chain.BribeOf(pool1)).IsZero())
	epoch := ve.EpochStart(f.chain.Now())
	require.Equal(t, "32", f.chain.BribeReward(bribe2, vetest.TokenAddress, epoch).Dec())

	require.True(t, f.chain.Balance(user1).IsZero())
	require.True(t, f.chain.Balance(f.ext.Address()).IsZero())

	require.Equal(t, []string{
		EventCompoundEmissionToTargetLock,
		EventCreateLockFromCompoundEmissionForBribePools,
		EventCompoundEmissionToBribePool,
	}, eventNames(t, f.chain.Logs()[logs:]))
}

func TestClaimWithoutConfigPassesThrough(t *testing.T) {
	for _, gross := range []uint64{1, 7, 100, 1e18} {
		f := newFixture(t)
		res, err := f.ext.CompoundEmissionClaim(user1, f.reward(user1, gross))
		require.NoError(t, err)
		requireConserved(t, res)
		require.Equal(t, res.Gross.Dec(), res.Passthrough.Dec())
		require.Equal(t, amt(gross).Dec(), f.chain.Balance(user1).Dec())
		require.Empty(t, f.chain.Logs())
	}
}

func TestClaimFoldsDustIntoPassthrough(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	f.configure(user1, fullConfig("0.333333333333333333", "0.333333333333333333",
		[]TargetLock{{lock, pct("0.5")}, {lock, pct("0.5")}},
		[]TargetPool{{pool1, pct("0.3")}, {pool2, pct("0.7")}},
	))

	for _, gross := range []uint64{1, 2, 3, 11, 101, 999_999, 1e18 + 7} {
		res, err := f.ext.CompoundEmissionClaim(user1, f.reward(user1, gross))
		require.NoError(t, err)
		requireConserved(t, res)
		require.True(t, f.chain.Balance(f.ext.Address()).IsZero(), "gross %d", gross)
	}
}

func TestClaimStaleLockCreatesNewLock(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("1"),
		TargetLocks:                    []TargetLock{{lock, pct("1")}},
	})

	// Move the lock without notifying the extension.
	f.chain.SetLockChangeHook(nil)
	require.NoError(t, f.chain.TransferLock(user1, user2, lock))
	foreignBefore := f.lockAmount(lock)

	res, err := f.ext.CompoundEmissionClaim(user1, f.reward(user1, 10))
	require.NoError(t, err)
	require.Len(t, res.Locks, 1)
	require.True(t, res.Locks[0].Created)
	require.Equal(t, foreignBefore.Dec(), f.lockAmount(lock).Dec())

	l, ok := f.chain.Lock(res.Locks[0].LockID)
	require.True(t, ok)
	require.Equal(t, user1, l.Owner)
	require.Equal(t, res.Locks[0].LockID, f.userInfo(user1).TargetLocks[0].LockID)
}

func TestClaimAccess(t *testing.T) {
	f := newFixture(t)
	p := f.reward(user1, 100)

	_, err := f.ext.CompoundEmissionClaim(user2, p)
	require.ErrorIs(t, err, ErrAccessDenied)

	_, err = f.ext.CompoundEmissionClaim(admin, p)
	require.ErrorIs(t, err, ErrAccessDenied)

	res, err := f.ext.CompoundEmissionClaim(keeper, p)
	require.NoError(t, err)
	require.Equal(t, "100", res.Gross.Dec())
	require.Equal(t, "100", f.chain.Balance(user1).Dec())

	// Nothing left to claim.
	res, err = f.ext.CompoundEmissionClaim(user1, p)
	require.NoError(t, err)
	require.True(t, res.Gross.IsZero())
}

func TestClaimMerkl(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("0.25"),
		TargetLocks:                    []TargetLock{{lock, pct("1")}},
	})
	f.chain.AddMerklReward(user1, amt(400))

	bad := ClaimParams{
		Target: user1,
		Merkl: ve.MerklParams{
			Users:   []common.Address{user2},
			Tokens:  []common.Address{vetest.TokenAddress},
			Amounts: []*uint256.Int{amt(400)},
			Proofs:  [][]common.Hash{{}},
		},
	}
	_, err := f.ext.CompoundEmissionClaim(user1, bad)
	require.ErrorIs(t, err, ve.ErrInvalidMerklDataUser)

	good := bad
	good.Merkl.Users = []common.Address{user1}
	good.Gauges = []common.Address{f.gauge2}
	f.chain.AddGaugeReward(f.gauge2, user1, amt(100))

	res, err := f.ext.CompoundEmissionClaim(user1, good)
	require.NoError(t, err)
	requireConserved(t, res)
	require.Equal(t, "500", res.Gross.Dec())
	require.Equal(t, "125", res.ToLocks.Dec())
	require.Equal(t, "375", f.chain.Balance(user1).Dec())
}

func TestClaimFailureRevertsEverything(t *testing.T) {
	f := newFixture(t)
	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("1"),
		TargetLocks:                    []TargetLock{{0, pct("1")}},
	})
	// A managed lock that does not exist makes lock creation fail after the
	// rewards were already pulled into custody.
	require.NoError(t, f.ext.SetCreateLockConfig(user1, CreateLockConfig{LockDuration: ve.Week, ManagedTokenIDForAttach: 42}))
	logs := len(f.chain.Logs())
	p := f.reward(user1, 100)
	gaugeBalance := f.chain.Balance(f.gauge1)

	_, err := f.ext.CompoundEmissionClaim(user1, p)
	require.ErrorIs(t, err, vetest.ErrUnknownManagedToken)

	require.Equal(t, gaugeBalance.Dec(), f.chain.Balance(f.gauge1).Dec())
	require.True(t, f.chain.Balance(f.ext.Address()).IsZero())
	require.Zero(t, f.chain.LockCount())
	require.Equal(t, uint64(0), f.userInfo(user1).TargetLocks[0].LockID)
	require.Len(t, f.chain.Logs(), logs)

	// The reward is still claimable once the config is fixed.
	require.NoError(t, f.ext.SetCreateLockConfig(user1, CreateLockConfig{LockDuration: ve.Week}))
	res, err := f.ext.CompoundEmissionClaim(user1, p)
	require.NoError(t, err)
	require.Equal(t, "100", res.Gross.Dec())
}

func TestClaimBatch(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("0.5"),
		TargetLocks:                    []TargetLock{{lock, pct("1")}},
	})
	f.configure(user2, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetBribePools:   true,
		ToBribePoolsPercentage:         pct("1"),
		TargetBribePools:               []TargetPool{{pool2, pct("1")}},
	})

	_, err := f.ext.CompoundEmissionClaimBatch(user1, nil)
	require.ErrorIs(t, err, ErrAccessDenied)

	results, err := f.ext.CompoundEmissionClaimBatch(keeper, nil)
	require.NoError(t, err)
	require.Empty(t, results)

	batchesBefore := testutil.ToFloat64(ClaimsTotal.WithLabelValues("batch", "success"))
	results, err = f.ext.CompoundEmissionClaimBatch(keeper, []ClaimParams{
		f.reward(user1, 200),
		f.reward(user2, 60),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, batchesBefore+1, testutil.ToFloat64(ClaimsTotal.WithLabelValues("batch", "success")))

	require.Equal(t, "100", results[0].Passthrough.Dec())
	require.Equal(t, "100", f.chain.Balance(user1).Dec())
	require.Equal(t, "60", f.chain.Balance(f.chain.BribeOf(pool2)).Dec())
	require.True(t, f.chain.Balance(user2).IsZero())
}

func TestClaimBatchIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	lock := f.lockFor(user1)
	f.configure(user1, UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ToLocksPercentage:              pct("1"),
		TargetLocks:                    []TargetLock{{lock, pct("1")}},
	})
	before := f.lockAmount(lock)
	logs := len(f.chain.Logs())

	ok := f.reward(user1, 100)
	bad := f.reward(user2, 100)
	bad.Merkl = ve.MerklParams{Users: []common.Address{user1}}

	_, err := f.ext.CompoundEmissionClaimBatch(keeper, []ClaimParams{ok, bad})
	require.ErrorIs(t, err, ve.ErrInvalidMerklDataUser)

	require.Equal(t, before.Dec(), f.lockAmount(lock).Dec())
	require.True(t, f.chain.Balance(f.ext.Address()).IsZero())
	require.Len(t, f.chain.Logs(), logs)

	results, err := f.ext.CompoundEmissionClaimBatch(keeper, []ClaimParams{ok})
	require.NoError(t, err)
	require.Equal(t, "100", results[0].Gross.Dec())
	require.Equal(t, new(uint256.Int).Add(before, amt(100)).Dec(), f.lockAmount(lock).Dec())
}
