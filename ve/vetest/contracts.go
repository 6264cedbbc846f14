// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package vetest

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/ve"
)

type token struct{ c *Chain }

func (*token) Address() common.Address { return TokenAddress }

func (t *token) BalanceOf(owner common.Address) *uint256.Int {
	return t.c.Balance(owner)
}

func (t *token) Transfer(from, to common.Address, amount *uint256.Int) error {
	return t.c.move(from, to, amount)
}

func (t *token) Approve(owner, spender common.Address, amount *uint256.Int) error {
	t.c.state.allowances[allowanceKey{owner, spender}] = amount.Clone()
	return nil
}

func (t *token) TransferFrom(spender, from, to common.Address, amount *uint256.Int) error {
	return t.c.atomic(func() error {
		if err := t.c.spend(spender, from, amount); err != nil {
			return err
		}
		return t.c.move(from, to, amount)
	})
}

type escrow struct{ c *Chain }

func (*escrow) Address() common.Address { return VotingEscrowAddress }

func (e *escrow) OwnerOf(id uint64) (common.Address, error) {
	l, ok := e.c.state.locks[id]
	if !ok {
		return common.Address{}, fmt.Errorf("%w: %d", ve.ErrLockNotFound, id)
	}
	return l.Owner, nil
}

func (e *escrow) DepositFor(from common.Address, id uint64, amount *uint256.Int) error {
	if amount == nil || amount.IsZero() {
		return ve.ErrZeroAmount
	}
	return e.c.atomic(func() error {
		l, ok := e.c.state.locks[id]
		if !ok {
			return fmt.Errorf("%w: %d", ve.ErrLockNotFound, id)
		}
		if err := e.c.token.TransferFrom(VotingEscrowAddress, from, VotingEscrowAddress, amount); err != nil {
			return err
		}
		l.Amount = new(uint256.Int).Add(l.Amount, amount)
		return nil
	})
}

func (e *escrow) CreateLockFor(from common.Address, p ve.CreateLockParams) (uint64, error) {
	if p.Amount == nil || p.Amount.IsZero() {
		return 0, ve.ErrZeroAmount
	}
	if !p.WithPermanentLock && p.Duration == 0 {
		return 0, ve.ErrInvalidLockParams
	}
	if p.Owner == (common.Address{}) {
		return 0, ve.ErrInvalidLockParams
	}
	var id uint64
	err := e.c.atomic(func() error {
		if p.ManagedTokenIDForAttach != 0 {
			if _, ok := e.c.state.locks[p.ManagedTokenIDForAttach]; !ok {
				return fmt.Errorf("%w: %d", ErrUnknownManagedToken, p.ManagedTokenIDForAttach)
			}
		}
		if err := e.c.token.TransferFrom(VotingEscrowAddress, from, VotingEscrowAddress, p.Amount); err != nil {
			return err
		}
		e.c.state.nextLockID++
		id = e.c.state.nextLockID
		l := &Lock{
			ID:          id,
			Owner:       p.Owner,
			Amount:      p.Amount.Clone(),
			Permanent:   p.WithPermanentLock,
			Boosted:     p.ShouldBoosted,
			ManagedID:   p.ManagedTokenIDForAttach,
			CreatedFrom: from,
		}
		if !p.WithPermanentLock {
			l.End = ve.EpochStart(e.c.Now() + p.Duration)
		}
		e.c.state.locks[id] = l
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

type voter struct{ c *Chain }

func (*voter) Address() common.Address { return VoterAddress }

func (v *voter) PoolToGauge(pool common.Address) common.Address {
	return v.c.state.poolGauges[pool]
}

func (v *voter) IsAlive(gaugeAddr common.Address) bool {
	g, ok := v.c.state.gauges[gaugeAddr]
	return ok && g.alive
}

func (v *voter) GaugeState(gaugeAddr common.Address) ve.GaugeState {
	g, ok := v.c.state.gauges[gaugeAddr]
	if !ok {
		return ve.GaugeState{}
	}
	return ve.GaugeState{
		IsGauge:       true,
		IsAlive:       g.alive,
		Pool:          g.pool,
		ExternalBribe: g.bribe,
	}
}
