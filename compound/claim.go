// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/ve"
)

// CompoundEmissionClaim claims the gauge and Merkl rewards of p.Target and
// distributes them according to the target's configuration. The caller must
// be the target itself or hold the keeper role.
func (e *Extension) CompoundEmissionClaim(caller common.Address, p ClaimParams) (DistributionResult, error) {
	var res DistributionResult
	err := e.update(func(tx *txn) error {
		if caller != p.Target && !e.hasRole(KeeperRole, caller) {
			return fmt.Errorf("%w: %s cannot claim for %s", ErrAccessDenied, caller.Hex(), p.Target.Hex())
		}
		var err error
		res, err = tx.claim(p)
		return err
	})
	ClaimsTotal.WithLabelValues("single", status(err)).Inc()
	if err != nil {
		return DistributionResult{}, err
	}
	observeAllocations([]DistributionResult{res})
	e.logDistribution(caller, res)
	return res, nil
}

// CompoundEmissionClaimBatch runs a claim for every entry as one unit of
// work: if any entry fails, none of them takes effect. Keepers only.
func (e *Extension) CompoundEmissionClaimBatch(caller common.Address, batch []ClaimParams) ([]DistributionResult, error) {
	var results []DistributionResult
	err := e.update(func(tx *txn) error {
		if !e.hasRole(KeeperRole, caller) {
			return fmt.Errorf("%w: %s is not a keeper", ErrAccessDenied, caller.Hex())
		}
		results = make([]DistributionResult, 0, len(batch))
		for i, p := range batch {
			res, err := tx.claim(p)
			if err != nil {
				return fmt.Errorf("claim %d for %s: %w", i, p.Target.Hex(), err)
			}
			results = append(results, res)
		}
		return nil
	})
	ClaimsTotal.WithLabelValues("batch", status(err)).Inc()
	if err != nil {
		return nil, err
	}
	BatchSize.Observe(float64(len(batch)))
	observeAllocations(results)
	for _, res := range results {
		e.logDistribution(caller, res)
	}
	return results, nil
}

// claim pulls the rewards of p.Target into custody and distributes them.
// The claimed amount is measured as the custody balance delta.
func (tx *txn) claim(p ClaimParams) (DistributionResult, error) {
	if err := ve.CheckMerklUsers(p.Target, p.Merkl); err != nil {
		return DistributionResult{}, err
	}

	custody := tx.e.address
	before := tx.e.host.Token.BalanceOf(custody)
	reported, err := tx.e.host.Rewards.ClaimRewardsFor(p.Target, p.Gauges, p.Merkl, custody)
	if err != nil {
		return DistributionResult{}, err
	}
	after := tx.e.host.Token.BalanceOf(custody)
	if after.Lt(before) {
		return DistributionResult{}, fmt.Errorf("custody balance decreased from %s to %s during claim", before.Dec(), after.Dec())
	}
	gross := new(uint256.Int).Sub(after, before)
	if reported != nil && !reported.Eq(gross) {
		tx.e.log.Warn("reward source reported a different amount",
			"target", p.Target,
			"reported", reported.Dec(),
			"received", gross.Dec(),
		)
	}

	if gross.IsZero() {
		return DistributionResult{
			Target:       p.Target,
			Gross:        gross,
			ToLocks:      new(uint256.Int),
			ToBribePools: new(uint256.Int),
			Passthrough:  new(uint256.Int),
		}, nil
	}
	return tx.distribute(p.Target, gross)
}

func (e *Extension) logDistribution(caller common.Address, res DistributionResult) {
	e.log.Info("compound emission distributed",
		"caller", caller,
		"target", res.Target,
		"gross", res.Gross.Dec(),
		"toLocks", res.ToLocks.Dec(),
		"toBribePools", res.ToBribePools.Dec(),
		"passthrough", res.Passthrough.Dec(),
		"locks", len(res.Locks),
		"pools", len(res.Pools),
	)
}
