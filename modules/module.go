// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package modules

import "github.com/luxfi/geth/common"

// Config is the JSON configuration of one extension module.
type Config interface {
	Key() string
	Timestamp() *uint64
	IsDisabled() bool
	Equal(Config) bool
	Verify() error
}

// Configurator builds empty configs for its module.
type Configurator interface {
	MakeConfig() Config
}

// Module binds a config key to the address an extension is deployed at.
type Module struct {
	// ConfigKey is the key used in json config files to specify this module.
	ConfigKey string
	// Address is the address the extension holds its custody at.
	Address common.Address
	// Configurator makes the module's config.
	Configurator Configurator
}

// Upgrade schedules the activation of a module.
type Upgrade struct {
	BlockTimestamp *uint64 `json:"blockTimestamp,omitempty"`
	Disable        bool    `json:"disable,omitempty"`
}

// Timestamp returns the activation time, or nil if unscheduled.
func (u *Upgrade) Timestamp() *uint64 {
	return u.BlockTimestamp
}

// Equal returns true iff [other] has the same timestamp and disable flag.
func (u *Upgrade) Equal(other *Upgrade) bool {
	if other == nil {
		return false
	}
	if u.Disable != other.Disable {
		return false
	}
	switch {
	case u.BlockTimestamp == nil && other.BlockTimestamp == nil:
		return true
	case u.BlockTimestamp == nil || other.BlockTimestamp == nil:
		return false
	default:
		return *u.BlockTimestamp == *other.BlockTimestamp
	}
}
