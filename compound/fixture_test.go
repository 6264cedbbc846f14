// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package compound

import (
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/jonboulle/clockwork"
	"github.com/luxfi/database"
	"github.com/luxfi/database/memdb"
	"github.com/luxfi/geth/common"
	"github.com/luxfi/geth/core/types"
	"github.com/luxfi/log"
	"github.com/stretchr/testify/require"

	"github.com/parsdao/compound/percent"
	"github.com/parsdao/compound/ve"
	"github.com/parsdao/compound/ve/vetest"
)

var (
	admin  = common.HexToAddress("0x000000000000000000000000000000000000a11c")
	keeper = common.HexToAddress("0x000000000000000000000000000000000000bee5")
	user1  = common.HexToAddress("0x0000000000000000000000000000000000001001")
	user2  = common.HexToAddress("0x0000000000000000000000000000000000001002")

	pool1 = common.HexToAddress("0x0000000000000000000000000000000000005001")
	pool2 = common.HexToAddress("0x0000000000000000000000000000000000005002")
)

func pct(s string) *uint256.Int {
	return percent.MustParse(s)
}

func amt(v uint64) *uint256.Int {
	return uint256.NewInt(v)
}

type fixture struct {
	t      *testing.T
	clock  *clockwork.FakeClock
	chain  *vetest.Chain
	db     database.Database
	ext    *Extension
	gauge1 common.Address
	gauge2 common.Address
}

func testConfig() *Config {
	return &Config{
		Token:        vetest.TokenAddress,
		Voter:        vetest.VoterAddress,
		VotingEscrow: vetest.VotingEscrowAddress,
	}
}

func hostOf(chain *vetest.Chain) Host {
	return Host{
		Token:        chain.Token(),
		VotingEscrow: chain.VotingEscrow(),
		Voter:        chain.Voter(),
		Bribes:       chain,
		Rewards:      chain,
		Access:       chain,
		Journal:      chain,
		Logs:         chain,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := clockwork.NewFakeClockAt(time.Date(2025, time.March, 6, 12, 0, 0, 0, time.UTC))
	chain := vetest.NewChain(clock)
	db := memdb.New()

	ext, err := NewExtension(testConfig(), db, hostOf(chain), log.NewTestLogger(log.InfoLevel))
	require.NoError(t, err)
	chain.SetLockChangeHook(ext.ChangeEmissionTargetLockID)

	chain.GrantRole(AdministratorRole, admin)
	chain.GrantRole(KeeperRole, keeper)

	gauge1, err := chain.CreateGauge(pool1)
	require.NoError(t, err)
	gauge2, err := chain.CreateGauge(pool2)
	require.NoError(t, err)

	return &fixture{
		t:      t,
		clock:  clock,
		chain:  chain,
		db:     db,
		ext:    ext,
		gauge1: gauge1,
		gauge2: gauge2,
	}
}

// lockFor creates a funded lock owned by owner.
func (f *fixture) lockFor(owner common.Address) uint64 {
	f.t.Helper()
	f.chain.Mint(owner, amt(1))
	id, err := f.chain.CreateLock(owner, amt(1), 26*ve.Week)
	require.NoError(f.t, err)
	return id
}

func (f *fixture) lockAmount(id uint64) *uint256.Int {
	f.t.Helper()
	l, ok := f.chain.Lock(id)
	require.True(f.t, ok, "lock %d", id)
	return l.Amount
}

func (f *fixture) configure(user common.Address, p UpdateParams) {
	f.t.Helper()
	require.NoError(f.t, f.ext.SetCompoundEmissionConfig(user, p))
}

// reward funds a pending gauge reward for user on pool1's gauge and returns
// the claim params that collect it.
func (f *fixture) reward(user common.Address, amount uint64) ClaimParams {
	f.chain.AddGaugeReward(f.gauge1, user, amt(amount))
	return ClaimParams{Target: user, Gauges: []common.Address{f.gauge1}}
}

func (f *fixture) userInfo(user common.Address) UserInfo {
	f.t.Helper()
	info, err := f.ext.GetUserInfo(user)
	require.NoError(f.t, err)
	return info
}

// eventNames returns the names of the extension events in logs.
func eventNames(t *testing.T, logs []*types.Log) []string {
	t.Helper()
	names := make([]string, 0, len(logs))
	for _, l := range logs {
		require.Equal(t, ContractAddress, l.Address)
		ev, err := ExtensionABI.EventByID(l.Topics[0])
		require.NoError(t, err)
		names = append(names, ev.Name)
	}
	return names
}

func fullConfig(toLocks, toBribes string, locks []TargetLock, pools []TargetPool) UpdateParams {
	return UpdateParams{
		ShouldUpdateGeneralPercentages: true,
		ShouldUpdateTargetLocks:        true,
		ShouldUpdateTargetBribePools:   true,
		ToLocksPercentage:              pct(toLocks),
		ToBribePoolsPercentage:         pct(toBribes),
		TargetLocks:                    locks,
		TargetBribePools:               pools,
	}
}
