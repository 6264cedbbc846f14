// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vetest

import (
	"maps"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
)

// Lock is a voting escrow position.
type Lock struct {
	ID          uint64
	Owner       common.Address
	Amount      *uint256.Int
	End         uint64
	Permanent   bool
	Boosted     bool
	ManagedID   uint64
	CreatedFrom common.Address
}

func (l *Lock) clone() *Lock {
	cp := *l
	cp.Amount = l.Amount.Clone()
	return &cp
}

type gauge struct {
	pool  common.Address
	bribe common.Address
	alive bool
}

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

type gaugeRewardKey struct {
	gauge common.Address
	user  common.Address
}

type bribeRewardKey struct {
	bribe common.Address
	token common.Address
	epoch uint64
}

// state is everything a snapshot captures.
type state struct {
	balances     map[common.Address]*uint256.Int
	allowances   map[allowanceKey]*uint256.Int
	locks        map[uint64]*Lock
	nextLockID   uint64
	poolGauges   map[common.Address]common.Address
	gauges       map[common.Address]*gauge
	bribes       map[common.Address]common.Address
	roles        map[common.Hash]map[common.Address]bool
	gaugeRewards map[gaugeRewardKey]*uint256.Int
	merklRewards map[common.Address]*uint256.Int
	bribeRewards map[bribeRewardKey]*uint256.Int
}

func newState() *state {
	return &state{
		balances:     make(map[common.Address]*uint256.Int),
		allowances:   make(map[allowanceKey]*uint256.Int),
		locks:        make(map[uint64]*Lock),
		poolGauges:   make(map[common.Address]common.Address),
		gauges:       make(map[common.Address]*gauge),
		bribes:       make(map[common.Address]common.Address),
		roles:        make(map[common.Hash]map[common.Address]bool),
		gaugeRewards: make(map[gaugeRewardKey]*uint256.Int),
		merklRewards: make(map[common.Address]*uint256.Int),
		bribeRewards: make(map[bribeRewardKey]*uint256.Int),
	}
}

func cloneAmounts[K comparable](m map[K]*uint256.Int) map[K]*uint256.Int {
	out := make(map[K]*uint256.Int, len(m))
	for k, v := range m {
		out[k] = v.Clone()
	}
	return out
}

func (s *state) clone() *state {
	cp := &state{
		balances:     cloneAmounts(s.balances),
		allowances:   cloneAmounts(s.allowances),
		locks:        make(map[uint64]*Lock, len(s.locks)),
		nextLockID:   s.nextLockID,
		poolGauges:   maps.Clone(s.poolGauges),
		gauges:       make(map[common.Address]*gauge, len(s.gauges)),
		bribes:       maps.Clone(s.bribes),
		roles:        make(map[common.Hash]map[common.Address]bool, len(s.roles)),
		gaugeRewards: cloneAmounts(s.gaugeRewards),
		merklRewards: cloneAmounts(s.merklRewards),
		bribeRewards: cloneAmounts(s.bribeRewards),
	}
	for id, l := range s.locks {
		cp.locks[id] = l.clone()
	}
	for addr, g := range s.gauges {
		gc := *g
		cp.gauges[addr] = &gc
	}
	for role, members := range s.roles {
		cp.roles[role] = maps.Clone(members)
	}
	return cp
}

func (s *state) balance(addr common.Address) *uint256.Int {
	if b, ok := s.balances[addr]; ok {
		return b
	}
	return new(uint256.Int)
}
