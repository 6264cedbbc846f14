// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package registry

import (
	"github.com/luxfi/geth/common"
)

// ============================================================================
// EXTENSION ADDRESS SCHEME - Aligned with LP Numbering
// ============================================================================
//
// Vote-escrow extensions use trailing-significant 20-byte addresses:
//   Format: 0x00000000000000000000000000000000000090II
//
// The address ends with the LP number of the extension. The extension holds
// reward custody at its own address for the span of a claim.
//
// LP-9090: Compound Emission Extension (claim, split, re-lock, bribe)
// LP-9091: Compound Emission Keeper batching (same module, reserved)

const (
	CompoundEmission       = "0x0000000000000000000000000000000000009090" // LP-9090
	CompoundEmissionKeeper = "0x0000000000000000000000000000000000009091" // LP-9091 (reserved)
)

// ExtensionInfo contains metadata about an extension address
type ExtensionInfo struct {
	Address     string
	Name        string
	Description string
	LPRange     string
}

// AllExtensions lists all known extensions with their metadata
var AllExtensions = []ExtensionInfo{
	{CompoundEmission, "COMPOUND_EMISSION", "Compound emission rewards into locks and bribes", "LP-9090"},
	{CompoundEmissionKeeper, "COMPOUND_EMISSION_KEEPER", "Keeper batch claims (reserved)", "LP-9091"},
}

// GetExtensionAddress returns the address for an extension by name
func GetExtensionAddress(name string) common.Address {
	for _, e := range AllExtensions {
		if e.Name == name {
			return common.HexToAddress(e.Address)
		}
	}
	return common.Address{}
}

// GetExtension returns the metadata of the extension at addr.
func GetExtension(addr common.Address) (ExtensionInfo, bool) {
	for _, e := range AllExtensions {
		if common.HexToAddress(e.Address) == addr {
			return e, true
		}
	}
	return ExtensionInfo{}, false
}
