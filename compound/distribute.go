// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/percent"
	"github.com/parsdao/compound/ve"
)

// distribute splits gross, already held in custody, according to target's
// configuration. Whatever is not sent to locks or bribe pools, rounding dust
// included, is transferred back to target, so custody ends where it started.
func (tx *txn) distribute(target common.Address, gross *uint256.Int) (DistributionResult, error) {
	res := DistributionResult{
		Target:       target,
		Gross:        gross.Clone(),
		ToLocks:      new(uint256.Int),
		ToBribePools: new(uint256.Int),
		Passthrough:  new(uint256.Int),
	}

	rec, err := tx.store.User(target)
	if err != nil {
		return res, err
	}
	toLocks, toBribes, err := splitShares(gross, rec.ToLocksPercentage, rec.ToBribePoolsPercentage)
	if err != nil {
		return res, err
	}
	res.ToLocks, res.ToBribePools = toLocks, toBribes

	cfg, err := resolvedCreateLockConfig(tx.store, rec)
	if err != nil {
		return res, err
	}

	distributed := new(uint256.Int)
	if !toLocks.IsZero() && len(rec.TargetLocks) > 0 {
		rewritten := false
		for i := range rec.TargetLocks {
			entry := &rec.TargetLocks[i]
			amount, err := percent.Proportion(toLocks, entry.Percentage)
			if err != nil {
				return res, err
			}
			if amount.IsZero() {
				continue
			}

			lockID := entry.LockID
			if lockID != 0 {
				stale, err := tx.isStaleLock(target, lockID)
				if err != nil {
					return res, err
				}
				if stale {
					lockID = 0
				}
			}

			if lockID != 0 {
				if err := tx.depositFor(lockID, amount); err != nil {
					return res, err
				}
				if err := tx.events.emit(EventCompoundEmissionToTargetLock, target, bigID(lockID), amount.ToBig()); err != nil {
					return res, err
				}
				res.Locks = append(res.Locks, LockAllocation{LockID: lockID, Amount: amount})
			} else {
				newID, err := tx.createLock(target, amount, cfg)
				if err != nil {
					return res, err
				}
				if err := tx.events.emit(EventCreateLockFromCompoundEmission, target, bigID(newID), amount.ToBig()); err != nil {
					return res, err
				}
				res.Locks = append(res.Locks, LockAllocation{LockID: newID, Amount: amount, Created: true})
				entry.LockID = newID
				rewritten = true
			}
			distributed.Add(distributed, amount)
		}
		if rewritten {
			if err := tx.store.PutUser(target, rec); err != nil {
				return res, err
			}
		}
	}

	if !toBribes.IsZero() && len(rec.TargetBribePools) > 0 {
		for _, entry := range rec.TargetBribePools {
			amount, err := percent.Proportion(toBribes, entry.Percentage)
			if err != nil {
				return res, err
			}
			if amount.IsZero() {
				continue
			}

			gauge := tx.e.host.Voter.PoolToGauge(entry.Pool)
			state := tx.e.host.Voter.GaugeState(gauge)
			if gauge != (common.Address{}) && state.IsAlive && state.ExternalBribe != (common.Address{}) {
				if err := tx.notifyBribe(state.ExternalBribe, amount); err != nil {
					return res, err
				}
				if err := tx.events.emit(EventCompoundEmissionToBribePool, target, entry.Pool, amount.ToBig()); err != nil {
					return res, err
				}
				res.Pools = append(res.Pools, PoolAllocation{Pool: entry.Pool, Amount: amount})
			} else {
				newID, err := tx.createLock(target, amount, cfg)
				if err != nil {
					return res, err
				}
				if err := tx.events.emit(EventCreateLockFromCompoundEmissionForBribePools, target, entry.Pool, bigID(newID), amount.ToBig()); err != nil {
					return res, err
				}
				res.Pools = append(res.Pools, PoolAllocation{Pool: entry.Pool, Amount: amount, Redirected: true, LockID: newID})
			}
			distributed.Add(distributed, amount)
		}
	}

	if distributed.Gt(gross) {
		return res, fmt.Errorf("distributed %s exceeds claimed %s", distributed.Dec(), gross.Dec())
	}
	res.Passthrough = new(uint256.Int).Sub(gross, distributed)
	if !res.Passthrough.IsZero() {
		if err := tx.e.host.Token.Transfer(tx.e.address, target, res.Passthrough); err != nil {
			return res, fmt.Errorf("failed to transfer %s to %s: %w", res.Passthrough.Dec(), target.Hex(), err)
		}
	}
	return res, nil
}

func (tx *txn) depositFor(lockID uint64, amount *uint256.Int) error {
	escrow := tx.e.host.VotingEscrow
	if err := tx.e.host.Token.Approve(tx.e.address, escrow.Address(), amount); err != nil {
		return err
	}
	if err := escrow.DepositFor(tx.e.address, lockID, amount); err != nil {
		return fmt.Errorf("failed to deposit %s into lock %d: %w", amount.Dec(), lockID, err)
	}
	return nil
}

func (tx *txn) createLock(owner common.Address, amount *uint256.Int, cfg CreateLockConfig) (uint64, error) {
	escrow := tx.e.host.VotingEscrow
	if err := tx.e.host.Token.Approve(tx.e.address, escrow.Address(), amount); err != nil {
		return 0, err
	}
	id, err := escrow.CreateLockFor(tx.e.address, ve.CreateLockParams{
		Amount:                  amount,
		Duration:                cfg.LockDuration,
		Owner:                   owner,
		WithPermanentLock:       cfg.WithPermanentLock,
		ShouldBoosted:           cfg.ShouldBoosted,
		ManagedTokenIDForAttach: cfg.ManagedTokenIDForAttach,
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create lock of %s for %s: %w", amount.Dec(), owner.Hex(), err)
	}
	return id, nil
}

func (tx *txn) notifyBribe(bribe common.Address, amount *uint256.Int) error {
	token := tx.e.host.Token
	if err := token.Approve(tx.e.address, bribe, amount); err != nil {
		return err
	}
	if err := tx.e.host.Bribes.NotifyRewardAmount(bribe, tx.e.address, token.Address(), amount); err != nil {
		return fmt.Errorf("failed to notify %s to bribe %s: %w", amount.Dec(), bribe.Hex(), err)
	}
	return nil
}
