// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"fmt"
	"math/big"

	"github.com/holiman/uint256"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
)

// Event names
const (
	EventSetDefaultCreateLockConfig                  = "SetDefaultCreateLockConfig"
	EventSetCreateLockConfig                         = "SetCreateLockConfig"
	EventSetCompoundEmissionGeneralPercentages       = "SetCompoundEmissionGeneralPercentages"
	EventSetCompoundEmissionTargetLocks              = "SetCompoundEmissionTargetLocks"
	EventSetCompoundEmissionTargetBribePools         = "SetCompoundEmissionTargetBribePools"
	EventChangeEmissionTargetLock                    = "ChangeEmissionTargetLock"
	EventCompoundEmissionToTargetLock                = "CompoundEmissionToTargetLock"
	EventCreateLockFromCompoundEmission              = "CreateLockFromCompoundEmission"
	EventCompoundEmissionToBribePool                 = "CompoundEmissionToBribePool"
	EventCreateLockFromCompoundEmissionForBribePools = "CreateLockFromCompoundEmissionForBribePools"
)

const createLockConfigComponents = `[
	{"name":"shouldBoosted","type":"bool"},
	{"name":"withPermanentLock","type":"bool"},
	{"name":"lockDuration","type":"uint256"},
	{"name":"managedTokenIdForAttach","type":"uint256"}
]`

const rawABI = `[
{"type":"event","name":"SetDefaultCreateLockConfig","anonymous":false,"inputs":[
	{"name":"config","type":"tuple","indexed":false,"components":` + createLockConfigComponents + `}
]},
{"type":"event","name":"SetCreateLockConfig","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"config","type":"tuple","indexed":false,"components":` + createLockConfigComponents + `}
]},
{"type":"event","name":"SetCompoundEmissionGeneralPercentages","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"toLocksPercentage","type":"uint256","indexed":false},
	{"name":"toBribePoolsPercentage","type":"uint256","indexed":false}
]},
{"type":"event","name":"SetCompoundEmissionTargetLocks","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"targetLocks","type":"tuple[]","indexed":false,"components":[
		{"name":"tokenId","type":"uint256"},
		{"name":"percentage","type":"uint256"}
	]}
]},
{"type":"event","name":"SetCompoundEmissionTargetBribePools","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"targetBribePools","type":"tuple[]","indexed":false,"components":[
		{"name":"pool","type":"address"},
		{"name":"percentage","type":"uint256"}
	]}
]},
{"type":"event","name":"ChangeEmissionTargetLock","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"targetTokenId","type":"uint256","indexed":false},
	{"name":"newTokenId","type":"uint256","indexed":false}
]},
{"type":"event","name":"CompoundEmissionToTargetLock","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"tokenId","type":"uint256","indexed":false},
	{"name":"amount","type":"uint256","indexed":false}
]},
{"type":"event","name":"CreateLockFromCompoundEmission","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"tokenId","type":"uint256","indexed":false},
	{"name":"amount","type":"uint256","indexed":false}
]},
{"type":"event","name":"CompoundEmissionToBribePool","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"pool","type":"address","indexed":false},
	{"name":"amount","type":"uint256","indexed":false}
]},
{"type":"event","name":"CreateLockFromCompoundEmissionForBribePools","anonymous":false,"inputs":[
	{"name":"user","type":"address","indexed":true},
	{"name":"pool","type":"address","indexed":false},
	{"name":"tokenId","type":"uint256","indexed":false},
	{"name":"amount","type":"uint256","indexed":false}
]}
]`

// ExtensionABI describes the events emitted by the extension.
var ExtensionABI = ParseABI(rawABI)

// ABI-side shapes of the tuple arguments. Field names follow the ABI
// component names.
type (
	abiCreateLockConfig struct {
		ShouldBoosted           bool
		WithPermanentLock       bool
		LockDuration            *big.Int
		ManagedTokenIdForAttach *big.Int
	}

	abiTargetLock struct {
		TokenId    *big.Int
		Percentage *big.Int
	}

	abiTargetPool struct {
		Pool       common.Address
		Percentage *big.Int
	}
)

func toABICreateLockConfig(c CreateLockConfig) abiCreateLockConfig {
	return abiCreateLockConfig{
		ShouldBoosted:           c.ShouldBoosted,
		WithPermanentLock:       c.WithPermanentLock,
		LockDuration:            new(big.Int).SetUint64(c.LockDuration),
		ManagedTokenIdForAttach: new(big.Int).SetUint64(c.ManagedTokenIDForAttach),
	}
}

func toABITargetLocks(in []TargetLock) []abiTargetLock {
	out := make([]abiTargetLock, len(in))
	for i, t := range in {
		out[i] = abiTargetLock{TokenId: new(big.Int).SetUint64(t.LockID), Percentage: bigOf(t.Percentage)}
	}
	return out
}

func toABITargetPools(in []TargetPool) []abiTargetPool {
	out := make([]abiTargetPool, len(in))
	for i, t := range in {
		out[i] = abiTargetPool{Pool: t.Pool, Percentage: bigOf(t.Percentage)}
	}
	return out
}

func bigOf(v *uint256.Int) *big.Int {
	return orZero(v).ToBig()
}

func bigID(id uint64) *big.Int {
	return new(big.Int).SetUint64(id)
}

// emitter buffers the logs of one unit of work until it commits.
type emitter struct {
	address common.Address
	logs    []*types.Log
}

func (em *emitter) emit(name string, args ...interface{}) error {
	topics, data, err := ExtensionABI.PackEvent(name, args...)
	if err != nil {
		return fmt.Errorf("failed to pack %s: %w", name, err)
	}
	em.logs = append(em.logs, &types.Log{
		Address: em.address,
		Topics:  topics,
		Data:    data,
	})
	return nil
}
