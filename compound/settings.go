// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/percent"
)

// =========================================================================
// Create-lock configuration
// =========================================================================

// SetCreateLockConfig sets the caller's own create-lock config.
func (e *Extension) SetCreateLockConfig(caller common.Address, cfg CreateLockConfig) error {
	err := e.update(func(tx *txn) error {
		if !cfg.Valid() {
			return ErrInvalidCreateLockConfig
		}
		rec, err := tx.store.User(caller)
		if err != nil {
			return err
		}
		rec.CreateLockConfig = cfg
		rec.IsCustomConfig = true
		if err := tx.store.PutUser(caller, rec); err != nil {
			return err
		}
		return tx.events.emit(EventSetCreateLockConfig, caller, toABICreateLockConfig(cfg))
	})
	ConfigUpdatesTotal.WithLabelValues("set_create_lock_config", status(err)).Inc()
	return err
}

// SetDefaultCreateLockConfig sets the create-lock config of every user
// without a custom one. Administrators only.
func (e *Extension) SetDefaultCreateLockConfig(caller common.Address, cfg CreateLockConfig) error {
	err := e.update(func(tx *txn) error {
		if !e.hasRole(AdministratorRole, caller) {
			return fmt.Errorf("%w: %s is not an administrator", ErrAccessDenied, caller.Hex())
		}
		if !cfg.Valid() {
			return ErrInvalidCreateLockConfig
		}
		if err := tx.store.PutDefaultCreateLockConfig(cfg); err != nil {
			return err
		}
		return tx.events.emit(EventSetDefaultCreateLockConfig, toABICreateLockConfig(cfg))
	})
	ConfigUpdatesTotal.WithLabelValues("set_default_create_lock_config", status(err)).Inc()
	if err == nil {
		e.log.Info("default create lock config updated",
			"caller", caller,
			"lockDuration", cfg.LockDuration,
			"withPermanentLock", cfg.WithPermanentLock,
		)
	}
	return err
}

// =========================================================================
// Compound configuration
// =========================================================================

// SetCompoundEmissionConfig applies a partial update of the caller's compound
// configuration. Nothing is written unless every touched subset and the
// resulting configuration validate.
func (e *Extension) SetCompoundEmissionConfig(caller common.Address, p UpdateParams) error {
	err := e.update(func(tx *txn) error {
		rec, err := tx.store.User(caller)
		if err != nil {
			return err
		}

		toLocks, toBribes := rec.ToLocksPercentage, rec.ToBribePoolsPercentage
		if p.ShouldUpdateGeneralPercentages {
			toLocks, toBribes = orZero(p.ToLocksPercentage), orZero(p.ToBribePoolsPercentage)
			if err := validateGeneralPercentages(toLocks, toBribes); err != nil {
				return err
			}
		}

		locks := rec.TargetLocks
		if p.ShouldUpdateTargetLocks {
			locks = p.TargetLocks
		}
		if toLocks.IsZero() != (len(locks) == 0) {
			return fmt.Errorf("%w: to-locks percentage %s with %d target locks",
				ErrInvalidCompoundEmissionParams, percent.Format(toLocks), len(locks))
		}
		if p.ShouldUpdateTargetLocks {
			if err := tx.validateTargetLocks(caller, locks); err != nil {
				return err
			}
		}

		pools := rec.TargetBribePools
		if p.ShouldUpdateTargetBribePools {
			pools = p.TargetBribePools
		}
		if toBribes.IsZero() != (len(pools) == 0) {
			return fmt.Errorf("%w: to-bribe-pools percentage %s with %d target pools",
				ErrInvalidCompoundEmissionParams, percent.Format(toBribes), len(pools))
		}
		if p.ShouldUpdateTargetBribePools {
			if err := tx.validateTargetPools(pools); err != nil {
				return err
			}
		}

		if p.ShouldUpdateGeneralPercentages {
			rec.ToLocksPercentage = toLocks.Clone()
			rec.ToBribePoolsPercentage = toBribes.Clone()
			if err := tx.events.emit(EventSetCompoundEmissionGeneralPercentages, caller, toLocks.ToBig(), toBribes.ToBig()); err != nil {
				return err
			}
		}
		if p.ShouldUpdateTargetLocks {
			rec.TargetLocks = cloneTargetLocks(locks)
			if err := tx.events.emit(EventSetCompoundEmissionTargetLocks, caller, toABITargetLocks(locks)); err != nil {
				return err
			}
		}
		if p.ShouldUpdateTargetBribePools {
			rec.TargetBribePools = cloneTargetPools(pools)
			if err := tx.events.emit(EventSetCompoundEmissionTargetBribePools, caller, toABITargetPools(pools)); err != nil {
				return err
			}
		}
		if !p.ShouldUpdateGeneralPercentages && !p.ShouldUpdateTargetLocks && !p.ShouldUpdateTargetBribePools {
			return nil
		}
		return tx.store.PutUser(caller, rec)
	})
	ConfigUpdatesTotal.WithLabelValues("set_compound_emission_config", status(err)).Inc()
	return err
}

func validateGeneralPercentages(toLocks, toBribes *uint256.Int) error {
	if !percent.InRange(toLocks) || !percent.InRange(toBribes) {
		return fmt.Errorf("%w: percentage above 100%%", ErrInvalidCompoundEmissionParams)
	}
	total, ok := percent.Sum([]*uint256.Int{toLocks, toBribes})
	if !ok || total.Gt(percent.Scale()) {
		return fmt.Errorf("%w: to-locks %s and to-bribe-pools %s exceed 100%%",
			ErrInvalidCompoundEmissionParams, percent.Format(toLocks), percent.Format(toBribes))
	}
	return nil
}

func (tx *txn) validateTargetLocks(user common.Address, locks []TargetLock) error {
	parts := make([]*uint256.Int, len(locks))
	for i, t := range locks {
		if t.Percentage == nil || t.Percentage.IsZero() {
			return fmt.Errorf("%w: target lock %d has zero percentage", ErrInvalidCompoundEmissionParams, i)
		}
		if t.LockID != 0 {
			owner, err := tx.e.host.VotingEscrow.OwnerOf(t.LockID)
			if err != nil {
				return fmt.Errorf("%w: lock %d: %w", ErrAnotherUserTargetLocks, t.LockID, err)
			}
			if owner != user {
				return fmt.Errorf("%w: lock %d owned by %s", ErrAnotherUserTargetLocks, t.LockID, owner.Hex())
			}
		}
		parts[i] = t.Percentage
	}
	if !percent.ValidateSplit(parts) {
		return fmt.Errorf("%w: target lock percentages do not sum to 100%%", ErrInvalidCompoundEmissionParams)
	}
	return nil
}

func (tx *txn) validateTargetPools(pools []TargetPool) error {
	parts := make([]*uint256.Int, len(pools))
	for i, t := range pools {
		if t.Percentage == nil || t.Percentage.IsZero() {
			return fmt.Errorf("%w: target pool %d has zero percentage", ErrInvalidCompoundEmissionParams, i)
		}
		if t.Pool == (common.Address{}) {
			return fmt.Errorf("%w: target pool %d is the zero address", ErrInvalidCompoundEmissionParams, i)
		}
		gauge := tx.e.host.Voter.PoolToGauge(t.Pool)
		if gauge == (common.Address{}) || !tx.e.host.Voter.IsAlive(gauge) {
			return fmt.Errorf("%w: pool %s", ErrTargetPoolGaugeIsKilled, t.Pool.Hex())
		}
		parts[i] = t.Percentage
	}
	if !percent.ValidateSplit(parts) {
		return fmt.Errorf("%w: target pool percentages do not sum to 100%%", ErrInvalidCompoundEmissionParams)
	}
	return nil
}

// =========================================================================
// Queries
// =========================================================================

// GetUserInfo returns the full compound configuration of user.
func (e *Extension) GetUserInfo(user common.Address) (UserInfo, error) {
	var info UserInfo
	err := e.view(func(store *Store) error {
		rec, err := store.User(user)
		if err != nil {
			return err
		}
		cfg, err := resolvedCreateLockConfig(store, rec)
		if err != nil {
			return err
		}
		info = UserInfo{
			ToLocksPercentage:        rec.ToLocksPercentage.Clone(),
			ToBribePoolsPercentage:   rec.ToBribePoolsPercentage.Clone(),
			TargetLocks:              cloneTargetLocks(rec.TargetLocks),
			TargetBribePools:         cloneTargetPools(rec.TargetBribePools),
			CreateLockConfig:         cfg,
			IsCreateLockCustomConfig: rec.IsCustomConfig,
		}
		return nil
	})
	return info, err
}

// GetUserCreateLockConfig returns the create-lock config used for user.
func (e *Extension) GetUserCreateLockConfig(user common.Address) (CreateLockConfig, error) {
	var cfg CreateLockConfig
	err := e.view(func(store *Store) error {
		rec, err := store.User(user)
		if err != nil {
			return err
		}
		cfg, err = resolvedCreateLockConfig(store, rec)
		return err
	})
	return cfg, err
}

// GetDefaultCreateLockConfig returns the default create-lock config.
func (e *Extension) GetDefaultCreateLockConfig() (CreateLockConfig, error) {
	var cfg CreateLockConfig
	err := e.view(func(store *Store) error {
		stored, ok, err := store.DefaultCreateLockConfig()
		if err != nil {
			return err
		}
		if !ok {
			stored = DefaultCreateLockConfig()
		}
		cfg = stored
		return nil
	})
	return cfg, err
}

func (e *Extension) GetToLocksPercentage(user common.Address) (*uint256.Int, error) {
	info, err := e.GetUserInfo(user)
	if err != nil {
		return nil, err
	}
	return info.ToLocksPercentage, nil
}

func (e *Extension) GetToBribePoolsPercentage(user common.Address) (*uint256.Int, error) {
	info, err := e.GetUserInfo(user)
	if err != nil {
		return nil, err
	}
	return info.ToBribePoolsPercentage, nil
}

// GetAmountOutToCompound previews how much of amount the user's
// configuration sends to target locks and to target bribe pools.
func (e *Extension) GetAmountOutToCompound(user common.Address, amount *uint256.Int) (toTargetLocks, toTargetBribePools *uint256.Int, err error) {
	info, err := e.GetUserInfo(user)
	if err != nil {
		return nil, nil, err
	}
	return splitShares(orZero(amount), info.ToLocksPercentage, info.ToBribePoolsPercentage)
}

func splitShares(amount, toLocksPct, toBribesPct *uint256.Int) (toLocks, toBribes *uint256.Int, err error) {
	if toLocks, err = percent.Proportion(amount, toLocksPct); err != nil {
		return nil, nil, err
	}
	if toBribes, err = percent.Proportion(amount, toBribesPct); err != nil {
		return nil, nil, err
	}
	return toLocks, toBribes, nil
}
