package synth

import (
	"errors"
	"math/big"
	"testing"

	"synthvault/crypto"
	"synthvault/native/bank"
)

// seedUnderwater installs a position at 100% health: 100000 collateral
// against 100000 debt at a price of 1.0.
func seedUnderwater(t *testing.T, env *testEnv, account crypto.Address) {
	t.Helper()
	pos := &Position{
		Address:             account,
		CollateralDeposited: big.NewInt(100_000),
		SyntheticMinted:     big.NewInt(100_000),
		Health:              RatioHealth(big.NewInt(100)),
	}
	if err := env.state.PutPosition(pos); err != nil {
		t.Fatalf("seed position: %v", err)
	}
	global := &GlobalState{
		TotalCollateral:      big.NewInt(100_000),
		TotalSyntheticSupply: big.NewInt(100_000),
	}
	if err := env.state.PutGlobal(global); err != nil {
		t.Fatalf("seed global: %v", err)
	}
}

func TestLiquidatePartialCoverage(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	env.prices.lastUpdate = 10
	seedUnderwater(t, env, account)

	id, err := env.engine.Liquidate(liquidator, account, big.NewInt(50_000), 10)
	if err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if id != 1 {
		t.Fatalf("record id = %d, want 1", id)
	}

	// Covering 50000 debt at 1.0 is worth 50000 collateral; the reward adds
	// the 10% bonus and the position burns a further 5% penalty.
	if len(env.ledger.transfers) != 1 {
		t.Fatalf("transfers = %d, want 1", len(env.ledger.transfers))
	}
	paid := env.ledger.transfers[0]
	if paid.amount.Cmp(big.NewInt(55_000)) != 0 {
		t.Fatalf("reward = %s, want 55000", paid.amount)
	}
	if !paid.from.Equal(env.custody) || !paid.to.Equal(liquidator) {
		t.Fatal("reward routed to the wrong accounts")
	}

	pos, _ := env.engine.Position(account)
	if pos.CollateralDeposited.Cmp(big.NewInt(47_500)) != 0 {
		t.Fatalf("remaining collateral = %s, want 47500", pos.CollateralDeposited)
	}
	if pos.SyntheticMinted.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("remaining debt = %s, want 50000", pos.SyntheticMinted)
	}
	if pos.Health.Unbounded || pos.Health.Ratio.Cmp(big.NewInt(95)) != 0 {
		t.Fatalf("health = %s, want 95", pos.Health.Percent())
	}
	if pos.LastInteractionBlock != 10 {
		t.Fatalf("last interaction = %d, want 10", pos.LastInteractionBlock)
	}

	global, _ := env.engine.GlobalSnapshot()
	if global.TotalSyntheticSupply.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("supply = %s, want 50000", global.TotalSyntheticSupply)
	}
	if global.TotalCollateral.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("total collateral = %s, want 50000", global.TotalCollateral)
	}
	if global.LiquidationNonce != 1 {
		t.Fatalf("nonce = %d, want 1", global.LiquidationNonce)
	}

	records, _ := env.engine.Liquidations()
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	record := records[0]
	if record.ID != 1 || record.BlockHeight != 10 {
		t.Fatalf("record header: id=%d height=%d", record.ID, record.BlockHeight)
	}
	if record.CollateralSeized.Cmp(big.NewInt(52_500)) != 0 {
		t.Fatalf("seized = %s, want 52500", record.CollateralSeized)
	}
	if record.DebtCovered.Cmp(big.NewInt(50_000)) != 0 {
		t.Fatalf("covered = %s, want 50000", record.DebtCovered)
	}
	if record.Reward.Cmp(big.NewInt(55_000)) != 0 {
		t.Fatalf("reward = %s, want 55000", record.Reward)
	}
	if !record.Account.Equal(account) || !record.Liquidator.Equal(liquidator) {
		t.Fatal("record parties mismatch")
	}
}

func TestLiquidationPenaltyBurn(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	env.prices.lastUpdate = 10
	seedUnderwater(t, env, account)

	if _, err := env.engine.Liquidate(liquidator, account, big.NewInt(50_000), 10); err != nil {
		t.Fatalf("liquidate: %v", err)
	}

	// The penalty leaves the position but not the global total, so the
	// totals diverge by exactly the burned amount.
	global, _ := env.engine.GlobalSnapshot()
	sumCollateral, _ := env.state.SumPositions()
	drift := new(big.Int).Sub(global.TotalCollateral, sumCollateral)
	if drift.Cmp(big.NewInt(2_500)) != 0 {
		t.Fatalf("collateral drift = %s, want penalty 2500", drift)
	}
}

func TestLiquidateHealthyPositionRejected(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	env.prices.lastUpdate = 10
	seedUnderwater(t, env, account)

	// Doubling the price lifts health to 200.
	env.prices.price = new(big.Int).Mul(big.NewInt(2), priceScale)
	if _, err := env.engine.Liquidate(liquidator, account, big.NewInt(10_000), 10); !errors.Is(err, ErrLiquidationNotAllowed) {
		t.Fatalf("healthy liquidation: got %v, want ErrLiquidationNotAllowed", err)
	}
}

func TestLiquidateHealthCheckPrecedesStaleness(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	seedUnderwater(t, env, account)

	// Stale price, healthy position: the health verdict wins.
	env.prices.price = new(big.Int).Mul(big.NewInt(2), priceScale)
	env.prices.lastUpdate = 0
	if _, err := env.engine.Liquidate(liquidator, account, big.NewInt(10_000), 500); !errors.Is(err, ErrLiquidationNotAllowed) {
		t.Fatalf("healthy+stale: got %v, want ErrLiquidationNotAllowed", err)
	}

	// Stale price, unhealthy position: staleness blocks execution.
	env.prices.price = new(big.Int).Set(priceScale)
	if _, err := env.engine.Liquidate(liquidator, account, big.NewInt(10_000), 500); !errors.Is(err, ErrStalePrice) {
		t.Fatalf("unhealthy+stale: got %v, want ErrStalePrice", err)
	}
}

func TestLiquidateHalfDebtCap(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	env.prices.lastUpdate = 10
	seedUnderwater(t, env, account)

	if _, err := env.engine.Liquidate(liquidator, account, big.NewInt(50_001), 10); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("over-half coverage: got %v, want ErrInvalidAmount", err)
	}
	if _, err := env.engine.Liquidate(liquidator, account, big.NewInt(0), 10); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("zero coverage: got %v, want ErrInvalidAmount", err)
	}
}

func TestLiquidateUnknownPosition(t *testing.T) {
	env := newTestEnv(t)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	stranger := makeAddress(crypto.AccountPrefix, 0x30)
	env.prices.lastUpdate = 10

	if _, err := env.engine.Liquidate(liquidator, stranger, big.NewInt(1), 10); !errors.Is(err, ErrPositionNotFound) {
		t.Fatalf("unknown position: got %v, want ErrPositionNotFound", err)
	}
}

func TestLiquidateTransferFailureAborts(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	env.prices.lastUpdate = 10
	seedUnderwater(t, env, account)
	env.ledger.err = errors.New("custody unavailable")

	_, err := env.engine.Liquidate(liquidator, account, big.NewInt(50_000), 10)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("transfer failure: got %v, want ErrTransferFailed", err)
	}

	pos, _ := env.engine.Position(account)
	if pos.CollateralDeposited.Cmp(big.NewInt(100_000)) != 0 || pos.SyntheticMinted.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatal("failed liquidation mutated the position")
	}
	global, _ := env.engine.GlobalSnapshot()
	if global.LiquidationNonce != 0 {
		t.Fatal("failed liquidation advanced the nonce")
	}
	records, _ := env.engine.Liquidations()
	if len(records) != 0 {
		t.Fatal("failed liquidation appended a record")
	}
}

func TestLiquidateSettlesThroughBankLedger(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	env.prices.lastUpdate = 10
	seedUnderwater(t, env, account)

	ledger := bank.NewLedger()
	if err := ledger.Credit(env.custody, big.NewInt(60_000)); err != nil {
		t.Fatalf("seed custody: %v", err)
	}
	env.engine.SetLedger(ledger)

	if _, err := env.engine.Liquidate(liquidator, account, big.NewInt(50_000), 10); err != nil {
		t.Fatalf("liquidate: %v", err)
	}
	if got := ledger.Balance(liquidator); got.Cmp(big.NewInt(55_000)) != 0 {
		t.Fatalf("liquidator balance = %s, want 55000", got)
	}
	if got := ledger.Balance(env.custody); got.Cmp(big.NewInt(5_000)) != 0 {
		t.Fatalf("custody balance = %s, want 5000", got)
	}
}

func TestLiquidateUnderfundedCustodyAborts(t *testing.T) {
	env := newTestEnv(t)
	account := makeAddress(crypto.AccountPrefix, 0x10)
	liquidator := makeAddress(crypto.AccountPrefix, 0x20)
	env.prices.lastUpdate = 10
	seedUnderwater(t, env, account)

	ledger := bank.NewLedger()
	if err := ledger.Credit(env.custody, big.NewInt(10)); err != nil {
		t.Fatalf("seed custody: %v", err)
	}
	env.engine.SetLedger(ledger)

	_, err := env.engine.Liquidate(liquidator, account, big.NewInt(50_000), 10)
	if !errors.Is(err, ErrTransferFailed) {
		t.Fatalf("underfunded custody: got %v, want ErrTransferFailed", err)
	}
	pos, _ := env.engine.Position(account)
	if pos.CollateralDeposited.Cmp(big.NewInt(100_000)) != 0 {
		t.Fatal("failed liquidation mutated the position")
	}
}
