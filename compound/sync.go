// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"errors"
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/ve"
)

// ChangeEmissionTargetLockID rewrites every target lock entry of user equal
// to from into to. It is called by the voting escrow on lock transfer
// (to == 0) and merge, or by the voter. Nothing is written if no entry
// matches.
func (e *Extension) ChangeEmissionTargetLockID(caller, user common.Address, from, to uint64) error {
	var rewritten int
	err := e.update(func(tx *txn) error {
		if caller != e.host.VotingEscrow.Address() && caller != e.host.Voter.Address() {
			return fmt.Errorf("%w: %s cannot rewrite target locks", ErrAccessDenied, caller.Hex())
		}
		rec, err := tx.store.User(user)
		if err != nil {
			return err
		}
		for i := range rec.TargetLocks {
			if rec.TargetLocks[i].LockID == from {
				rec.TargetLocks[i].LockID = to
				rewritten++
			}
		}
		if rewritten == 0 {
			return nil
		}
		if err := tx.store.PutUser(user, rec); err != nil {
			return err
		}
		return tx.events.emit(EventChangeEmissionTargetLock, user, bigID(from), bigID(to))
	})
	if err != nil {
		return err
	}
	if rewritten > 0 {
		TargetLockRewritesTotal.Inc()
		e.log.Debug("target lock rewritten",
			"user", user,
			"from", from,
			"to", to,
			"entries", rewritten,
		)
	}
	return nil
}

// isStaleLock reports whether lockID no longer belongs to user.
func (tx *txn) isStaleLock(user common.Address, lockID uint64) (bool, error) {
	owner, err := tx.e.host.VotingEscrow.OwnerOf(lockID)
	if errors.Is(err, ve.ErrLockNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return owner != user, nil
}
