// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/modules"
	"github.com/parsdao/compound/registry"
)

var _ modules.Configurator = (*configurator)(nil)

// ConfigKey is the key used in json config files to specify this extension config.
const ConfigKey = "compoundEmissionConfig"

// ContractAddress is the extension's custody address (LP-9090).
var ContractAddress = common.HexToAddress(registry.CompoundEmission)

// Module is the extension module
var Module = modules.Module{
	ConfigKey:    ConfigKey,
	Address:      ContractAddress,
	Configurator: &configurator{},
}

type configurator struct{}

func init() {
	if err := modules.RegisterModule(Module); err != nil {
		panic(err)
	}
}

func (*configurator) MakeConfig() modules.Config {
	return new(Config)
}
