// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/luxfi/geth/common"
)

// AddressRange represents a continuous range of addresses
type AddressRange struct {
	Start common.Address
	End   common.Address
}

// Contains returns true iff [addr] is contained within the (inclusive)
// range of addresses defined by [a].
func (a *AddressRange) Contains(addr common.Address) bool {
	addrBytes := addr.Bytes()
	return bytes.Compare(addrBytes, a.Start[:]) >= 0 && bytes.Compare(addrBytes, a.End[:]) <= 0
}

// BlackholeAddr is the address where assets are burned
var BlackholeAddr = common.Address{
	1, 0, 0, 0, 0, 0, 0, 0, 0, 0,
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0,
}

var (
	// registeredModules is kept sorted by address for deterministic iteration
	registeredModules = make([]Module, 0)

	// Reserved address ranges for extension modules. Addresses end with the
	// LP number of the extension (0x0000...LPNUM).
	//
	// 0x9000-0x90FF: Vote-escrow tokenomics (gauges, bribes, compounding)
	// 0x9100-0x91FF: Vote-escrow extensions reserved for future use
	reservedRanges = []AddressRange{
		// Vote-escrow tokenomics (0x9000-0x90FF)
		{
			Start: common.HexToAddress("0x0000000000000000000000000000000000009000"),
			End:   common.HexToAddress("0x00000000000000000000000000000000000090ff"),
		},
		// Vote-escrow extensions (0x9100-0x91FF)
		{
			Start: common.HexToAddress("0x0000000000000000000000000000000000009100"),
			End:   common.HexToAddress("0x00000000000000000000000000000000000091ff"),
		},
	}
)

// ReservedAddress returns true if [addr] is in a reserved range for extension modules
func ReservedAddress(addr common.Address) bool {
	for _, reservedRange := range reservedRanges {
		if reservedRange.Contains(addr) {
			return true
		}
	}

	return false
}

// RegisterModule registers an extension module
func RegisterModule(m Module) error {
	address := m.Address
	key := m.ConfigKey

	if address == BlackholeAddr {
		return fmt.Errorf("address %s overlaps with blackhole address", address)
	}
	if !ReservedAddress(address) {
		return fmt.Errorf("address %s not in a reserved range", address)
	}
	if m.Configurator == nil {
		return fmt.Errorf("module %s has no configurator", key)
	}

	for _, registeredModule := range registeredModules {
		if registeredModule.ConfigKey == key {
			return fmt.Errorf("name %s already used by an extension module", key)
		}
		if registeredModule.Address == address {
			return fmt.Errorf("address %s already used by an extension module", address)
		}
	}
	registeredModules = insertSortedByAddress(registeredModules, m)
	return nil
}

func GetModuleByAddress(address common.Address) (Module, bool) {
	for _, m := range registeredModules {
		if m.Address == address {
			return m, true
		}
	}
	return Module{}, false
}

func GetModule(key string) (Module, bool) {
	for _, m := range registeredModules {
		if m.ConfigKey == key {
			return m, true
		}
	}
	return Module{}, false
}

func RegisteredModules() []Module {
	return registeredModules
}

// ParseConfigs decodes a JSON object keyed by module config key into the
// verified configs of the registered modules, in registration order.
func ParseConfigs(data []byte) ([]Config, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode module configs: %w", err)
	}
	for key := range raw {
		if _, ok := GetModule(key); !ok {
			return nil, fmt.Errorf("unknown module config key %q", key)
		}
	}

	configs := make([]Config, 0, len(raw))
	for _, m := range registeredModules {
		msg, ok := raw[m.ConfigKey]
		if !ok {
			continue
		}
		cfg := m.Configurator.MakeConfig()
		if err := json.Unmarshal(msg, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode %s: %w", m.ConfigKey, err)
		}
		if err := cfg.Verify(); err != nil {
			return nil, fmt.Errorf("invalid %s: %w", m.ConfigKey, err)
		}
		configs = append(configs, cfg)
	}
	return configs, nil
}

func insertSortedByAddress(data []Module, m Module) []Module {
	data = append(data, m)
	slices.SortFunc(data, func(a, b Module) int {
		return bytes.Compare(a.Address[:], b.Address[:])
	})
	return data
}
