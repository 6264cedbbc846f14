// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"encoding/json"
	"fmt"

	"github.com/luxfi/geth/common"

	"github.com/parsdao/compound/modules"
)

var _ modules.Config = (*Config)(nil)

// Config implements the modules.Config interface
type Config struct {
	Upgrade modules.Upgrade `json:"upgrade,omitempty"`

	// Collaborator addresses. The host passed to NewExtension must match.
	Token        common.Address `json:"token"`
	Voter        common.Address `json:"voter"`
	VotingEscrow common.Address `json:"votingEscrow"`

	// DefaultCreateLockConfig seeds the default create-lock config the
	// first time the extension opens its store. The factory default is used
	// when unset.
	DefaultCreateLockConfig *CreateLockConfig `json:"defaultCreateLockConfig,omitempty"`
}

// ParseConfig decodes and verifies a JSON config.
func ParseConfig(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Verify(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Key() string {
	return ConfigKey
}

func (c *Config) Timestamp() *uint64 {
	return c.Upgrade.Timestamp()
}

func (c *Config) IsDisabled() bool {
	return c.Upgrade.Disable
}

func (c *Config) Equal(cfg modules.Config) bool {
	other, ok := cfg.(*Config)
	if !ok {
		return false
	}
	if (c.DefaultCreateLockConfig == nil) != (other.DefaultCreateLockConfig == nil) {
		return false
	}
	if c.DefaultCreateLockConfig != nil && *c.DefaultCreateLockConfig != *other.DefaultCreateLockConfig {
		return false
	}
	return c.Upgrade.Equal(&other.Upgrade) &&
		c.Token == other.Token &&
		c.Voter == other.Voter &&
		c.VotingEscrow == other.VotingEscrow
}

func (c *Config) Verify() error {
	if c.Token == (common.Address{}) {
		return fmt.Errorf("%w: token address is zero", ErrInvalidConfig)
	}
	if c.Voter == (common.Address{}) {
		return fmt.Errorf("%w: voter address is zero", ErrInvalidConfig)
	}
	if c.VotingEscrow == (common.Address{}) {
		return fmt.Errorf("%w: voting escrow address is zero", ErrInvalidConfig)
	}
	if c.DefaultCreateLockConfig != nil && !c.DefaultCreateLockConfig.Valid() {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, ErrInvalidCreateLockConfig)
	}
	return nil
}

// defaultCreateLockConfig returns the configured seed or the factory default.
func (c *Config) defaultCreateLockConfig() CreateLockConfig {
	if c.DefaultCreateLockConfig != nil {
		return *c.DefaultCreateLockConfig
	}
	return DefaultCreateLockConfig()
}
