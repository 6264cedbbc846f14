// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package vetest provides an in-memory vote-escrow chain implementing every
// contract of package ve. It backs the tests of the compound extension.
package vetest

import (
	"errors"
	"fmt"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/luxfi/crypto"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"

	"github.com/parsdao/compound/ve"
)

// Well-known collaborator addresses
var (
	TokenAddress        = common.HexToAddress("0x00000000000000000000000000000000000a0001")
	VotingEscrowAddress = common.HexToAddress("0x00000000000000000000000000000000000a0002")
	VoterAddress        = common.HexToAddress("0x00000000000000000000000000000000000a0003")
	MerklAddress        = common.HexToAddress("0x00000000000000000000000000000000000a0004")
)

var (
	ErrUnknownBribe        = errors.New("unknown bribe")
	ErrGaugeExists         = errors.New("gauge already exists for pool")
	ErrInvalidMerklParams  = errors.New("invalid merkl params")
	ErrMerklClaimExceeded  = errors.New("merkl claim exceeds pending amount")
	ErrSelfMerge           = errors.New("cannot merge lock into itself")
	ErrUnknownSnapshot     = errors.New("unknown snapshot")
	ErrUnknownManagedToken = errors.New("unknown managed lock")
)

// LockChangeHook is invoked by the voting escrow after a lock leaves its
// owner, either through a transfer (to == 0) or a merge into another lock.
type LockChangeHook func(caller, user common.Address, from, to uint64) error

type snapshot struct {
	state *state
	logs  int
}

// Chain is an in-memory vote-escrow deployment: reward token, voting
// escrow, voter with gauges and bribes, gauge and Merkl reward source, role
// registry, journal and log sink. It is not safe for concurrent use.
type Chain struct {
	clock clockwork.Clock

	state     *state
	snapshots []snapshot
	logs      []*types.Log

	hook LockChangeHook

	token  *token
	escrow *escrow
	voter  *voter
}

var (
	_ ve.Bribes        = (*Chain)(nil)
	_ ve.RewardSource  = (*Chain)(nil)
	_ ve.AccessControl = (*Chain)(nil)
	_ ve.Journal       = (*Chain)(nil)
	_ ve.LogSink       = (*Chain)(nil)
	_ ve.Token         = (*token)(nil)
	_ ve.VotingEscrow  = (*escrow)(nil)
	_ ve.Voter         = (*voter)(nil)
)

// NewChain returns an empty chain reading time from clock.
func NewChain(clock clockwork.Clock) *Chain {
	c := &Chain{
		clock: clock,
		state: newState(),
	}
	c.token = &token{c}
	c.escrow = &escrow{c}
	c.voter = &voter{c}
	return c
}

func (c *Chain) Token() ve.Token               { return c.token }
func (c *Chain) VotingEscrow() ve.VotingEscrow { return c.escrow }
func (c *Chain) Voter() ve.Voter               { return c.voter }
func (c *Chain) Clock() clockwork.Clock        { return c.clock }

// SetLockChangeHook installs the callback fired on lock transfer and merge.
func (c *Chain) SetLockChangeHook(hook LockChangeHook) {
	c.hook = hook
}

// Now returns the current block timestamp.
func (c *Chain) Now() uint64 {
	return uint64(c.clock.Now().Unix())
}

// Journal

func (c *Chain) Snapshot() int {
	c.snapshots = append(c.snapshots, snapshot{state: c.state.clone(), logs: len(c.logs)})
	return len(c.snapshots) - 1
}

func (c *Chain) RevertToSnapshot(id int) {
	if id < 0 || id >= len(c.snapshots) {
		panic(fmt.Errorf("%w: %d", ErrUnknownSnapshot, id))
	}
	snap := c.snapshots[id]
	c.state = snap.state
	c.logs = c.logs[:snap.logs]
	c.snapshots = c.snapshots[:id]
}

// atomic runs fn and reverts every state change if it fails.
func (c *Chain) atomic(fn func() error) error {
	id := c.Snapshot()
	if err := fn(); err != nil {
		c.RevertToSnapshot(id)
		return err
	}
	c.snapshots = c.snapshots[:id]
	return nil
}

// Logs

func (c *Chain) AddLog(log *types.Log) {
	log.Index = uint(len(c.logs))
	c.logs = append(c.logs, log)
}

// Logs returns the logs emitted so far.
func (c *Chain) Logs() []*types.Log {
	return c.logs
}

// Roles

func (c *Chain) HasRole(role common.Hash, account common.Address) bool {
	return c.state.roles[role][account]
}

func (c *Chain) GrantRole(role common.Hash, account common.Address) {
	members, ok := c.state.roles[role]
	if !ok {
		members = make(map[common.Address]bool)
		c.state.roles[role] = members
	}
	members[account] = true
}

func (c *Chain) RevokeRole(role common.Hash, account common.Address) {
	delete(c.state.roles[role], account)
}

// Balances

// Mint credits amount of the reward token to addr.
func (c *Chain) Mint(addr common.Address, amount *uint256.Int) {
	bal := c.state.balance(addr)
	c.state.balances[addr] = new(uint256.Int).Add(bal, amount)
}

// Balance returns the reward token balance of addr.
func (c *Chain) Balance(addr common.Address) *uint256.Int {
	return c.state.balance(addr).Clone()
}

// Allowance returns how much spender may pull from owner.
func (c *Chain) Allowance(owner, spender common.Address) *uint256.Int {
	if a, ok := c.state.allowances[allowanceKey{owner, spender}]; ok {
		return a.Clone()
	}
	return new(uint256.Int)
}

func (c *Chain) move(from, to common.Address, amount *uint256.Int) error {
	bal := c.state.balance(from)
	if bal.Lt(amount) {
		return fmt.Errorf("%w: %s has %s, needs %s", ve.ErrInsufficientBalance, from.Hex(), bal.Dec(), amount.Dec())
	}
	c.state.balances[from] = new(uint256.Int).Sub(bal, amount)
	c.state.balances[to] = new(uint256.Int).Add(c.state.balance(to), amount)
	return nil
}

func (c *Chain) spend(spender, owner common.Address, amount *uint256.Int) error {
	key := allowanceKey{owner, spender}
	allowance, ok := c.state.allowances[key]
	if !ok || allowance.Lt(amount) {
		return fmt.Errorf("%w: %s for %s", ve.ErrInsufficientAllowance, spender.Hex(), owner.Hex())
	}
	if allowance.Eq(maxAllowance) {
		return nil
	}
	c.state.allowances[key] = new(uint256.Int).Sub(allowance, amount)
	return nil
}

var maxAllowance = new(uint256.Int).SetAllOne()

// Locks

// Lock returns a copy of the lock with the given id.
func (c *Chain) Lock(id uint64) (Lock, bool) {
	l, ok := c.state.locks[id]
	if !ok {
		return Lock{}, false
	}
	return *l.clone(), true
}

// LockCount returns the number of locks ever created.
func (c *Chain) LockCount() uint64 {
	return c.state.nextLockID
}

// LocksOf returns the ids of the live locks owned by owner, ascending.
func (c *Chain) LocksOf(owner common.Address) []uint64 {
	var ids []uint64
	for id := uint64(1); id <= c.state.nextLockID; id++ {
		if l, ok := c.state.locks[id]; ok && l.Owner == owner {
			ids = append(ids, id)
		}
	}
	return ids
}

// CreateLock mints and funds a lock for owner out of owner's own balance.
func (c *Chain) CreateLock(owner common.Address, amount *uint256.Int, duration uint64) (uint64, error) {
	var id uint64
	err := c.atomic(func() error {
		if err := c.token.Approve(owner, VotingEscrowAddress, amount); err != nil {
			return err
		}
		var err error
		id, err = c.escrow.CreateLockFor(owner, ve.CreateLockParams{
			Amount:   amount,
			Duration: duration,
			Owner:    owner,
		})
		return err
	})
	return id, err
}

// TransferLock moves a lock from its owner to another account and notifies
// the hook with to == 0.
func (c *Chain) TransferLock(caller, to common.Address, id uint64) error {
	return c.atomic(func() error {
		l, ok := c.state.locks[id]
		if !ok {
			return fmt.Errorf("%w: %d", ve.ErrLockNotFound, id)
		}
		if l.Owner != caller {
			return fmt.Errorf("%w: %d", ve.ErrNotLockOwner, id)
		}
		from := l.Owner
		l.Owner = to
		return c.notify(from, id, 0)
	})
}

// Merge folds lock from into lock to. Both must be owned by caller.
func (c *Chain) Merge(caller common.Address, from, to uint64) error {
	if from == to {
		return ErrSelfMerge
	}
	return c.atomic(func() error {
		src, ok := c.state.locks[from]
		if !ok {
			return fmt.Errorf("%w: %d", ve.ErrLockNotFound, from)
		}
		dst, ok := c.state.locks[to]
		if !ok {
			return fmt.Errorf("%w: %d", ve.ErrLockNotFound, to)
		}
		if src.Owner != caller || dst.Owner != caller {
			return ve.ErrNotLockOwner
		}
		dst.Amount = new(uint256.Int).Add(dst.Amount, src.Amount)
		if src.End > dst.End {
			dst.End = src.End
		}
		delete(c.state.locks, from)
		return c.notify(caller, from, to)
	})
}

func (c *Chain) notify(user common.Address, from, to uint64) error {
	if c.hook == nil {
		return nil
	}
	return c.hook(VotingEscrowAddress, user, from, to)
}

// Gauges

// CreateGauge registers a live gauge and external bribe for pool.
func (c *Chain) CreateGauge(pool common.Address) (common.Address, error) {
	if _, ok := c.state.poolGauges[pool]; ok {
		return common.Address{}, fmt.Errorf("%w: %s", ErrGaugeExists, pool.Hex())
	}
	g := common.BytesToAddress(crypto.Keccak256(pool.Bytes(), []byte("gauge")))
	bribe := common.BytesToAddress(crypto.Keccak256(pool.Bytes(), []byte("bribe")))
	c.state.poolGauges[pool] = g
	c.state.gauges[g] = &gauge{pool: pool, bribe: bribe, alive: true}
	c.state.bribes[bribe] = g
	return g, nil
}

// KillGauge marks the gauge of pool as killed.
func (c *Chain) KillGauge(pool common.Address) {
	if g, ok := c.state.gauges[c.state.poolGauges[pool]]; ok {
		g.alive = false
	}
}

// ReviveGauge marks the gauge of pool as alive again.
func (c *Chain) ReviveGauge(pool common.Address) {
	if g, ok := c.state.gauges[c.state.poolGauges[pool]]; ok {
		g.alive = true
	}
}

// BribeOf returns the external bribe of pool's gauge.
func (c *Chain) BribeOf(pool common.Address) common.Address {
	if g, ok := c.state.gauges[c.state.poolGauges[pool]]; ok {
		return g.bribe
	}
	return common.Address{}
}

// Bribes

func (c *Chain) NotifyRewardAmount(bribe, from, tokenAddr common.Address, amount *uint256.Int) error {
	if _, ok := c.state.bribes[bribe]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownBribe, bribe.Hex())
	}
	if amount == nil || amount.IsZero() {
		return ve.ErrZeroAmount
	}
	if err := c.spend(bribe, from, amount); err != nil {
		return err
	}
	if err := c.move(from, bribe, amount); err != nil {
		return err
	}
	key := bribeRewardKey{bribe: bribe, token: tokenAddr, epoch: ve.EpochStart(c.Now())}
	prev, ok := c.state.bribeRewards[key]
	if !ok {
		prev = new(uint256.Int)
	}
	c.state.bribeRewards[key] = new(uint256.Int).Add(prev, amount)
	return nil
}

// BribeReward returns the rewards notified to bribe for token in the epoch
// starting at epoch.
func (c *Chain) BribeReward(bribe, tokenAddr common.Address, epoch uint64) *uint256.Int {
	if r, ok := c.state.bribeRewards[bribeRewardKey{bribe, tokenAddr, epoch}]; ok {
		return r.Clone()
	}
	return new(uint256.Int)
}

// Rewards

// AddGaugeReward funds a pending gauge reward for user.
func (c *Chain) AddGaugeReward(gaugeAddr, user common.Address, amount *uint256.Int) {
	c.Mint(gaugeAddr, amount)
	key := gaugeRewardKey{gaugeAddr, user}
	prev, ok := c.state.gaugeRewards[key]
	if !ok {
		prev = new(uint256.Int)
	}
	c.state.gaugeRewards[key] = new(uint256.Int).Add(prev, amount)
}

// AddMerklReward funds a pending Merkl reward for user.
func (c *Chain) AddMerklReward(user common.Address, amount *uint256.Int) {
	c.Mint(MerklAddress, amount)
	prev, ok := c.state.merklRewards[user]
	if !ok {
		prev = new(uint256.Int)
	}
	c.state.merklRewards[user] = new(uint256.Int).Add(prev, amount)
}

func (c *Chain) ClaimRewardsFor(target common.Address, gauges []common.Address, merkl ve.MerklParams, recipient common.Address) (*uint256.Int, error) {
	if err := ve.CheckMerklUsers(target, merkl); err != nil {
		return nil, err
	}
	n := len(merkl.Users)
	if len(merkl.Tokens) != n || len(merkl.Amounts) != n {
		return nil, ErrInvalidMerklParams
	}

	claimed := new(uint256.Int)
	err := c.atomic(func() error {
		for _, g := range gauges {
			if _, ok := c.state.gauges[g]; !ok {
				return fmt.Errorf("%w: %s", ve.ErrGaugeNotFound, g.Hex())
			}
			key := gaugeRewardKey{g, target}
			pending, ok := c.state.gaugeRewards[key]
			if !ok || pending.IsZero() {
				continue
			}
			if err := c.move(g, recipient, pending); err != nil {
				return err
			}
			claimed.Add(claimed, pending)
			delete(c.state.gaugeRewards, key)
		}
		for i := range merkl.Users {
			if merkl.Tokens[i] != TokenAddress {
				continue
			}
			amount := merkl.Amounts[i]
			if amount == nil || amount.IsZero() {
				continue
			}
			pending, ok := c.state.merklRewards[target]
			if !ok || pending.Lt(amount) {
				return fmt.Errorf("%w: %s", ErrMerklClaimExceeded, amount.Dec())
			}
			if err := c.move(MerklAddress, recipient, amount); err != nil {
				return err
			}
			claimed.Add(claimed, amount)
			c.state.merklRewards[target] = new(uint256.Int).Sub(pending, amount)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}
