package synth

import (
	"fmt"
	"math/big"

	"synthvault/crypto"
	nativecommon "synthvault/native/common"
)

// Liquidate lets a third party cover part of an unhealthy position's debt
// in exchange for a bonus-bearing collateral reward paid from protocol
// custody. A single call may cover at most half the outstanding debt so a
// position cannot be wiped out in one shot.
//
// The penalty share is burned from the position's collateral without a
// matching reduction of the global collateral total, so the totals drift
// apart by exactly the burned amount.
func (e *Engine) Liquidate(liquidator, account crypto.Address, debtToCover *big.Int, now uint64) (uint64, error) {
	if e == nil || e.state == nil {
		return 0, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return 0, err
	}

	pos, err := e.state.GetPosition(account)
	if err != nil {
		return 0, err
	}
	if pos == nil {
		return 0, ErrPositionNotFound
	}
	normalisePosition(pos)

	// Health is recomputed from live collateral, debt and price; the
	// stored ratio is never trusted here.
	price, lastUpdate := e.currentPrice()
	health, err := HealthRatio(pos.CollateralDeposited, pos.SyntheticMinted, price)
	if err != nil {
		return 0, err
	}
	if !health.Below(e.params.LiquidationThreshold) {
		return 0, ErrLiquidationNotAllowed
	}
	if price.Sign() <= 0 || (now >= lastUpdate && now-lastUpdate >= e.params.OracleStalenessLimit) {
		return 0, ErrStalePrice
	}

	if debtToCover == nil || debtToCover.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	halfDebt := new(big.Int).Quo(pos.SyntheticMinted, big.NewInt(2))
	if debtToCover.Cmp(halfDebt) > 0 {
		return 0, ErrInvalidAmount
	}

	collateralValue, err := collateralForDebt(debtToCover, price)
	if err != nil {
		return 0, err
	}
	reward := pctOf(collateralValue, 100+e.params.LiquidationBonusPct)
	penalty := pctOf(collateralValue, e.params.LiquidationPenaltyPct)

	seized := new(big.Int).Add(collateralValue, penalty)
	remainingCollateral, err := checkedSub(pos.CollateralDeposited, seized)
	if err != nil {
		return 0, err
	}
	remainingDebt, err := checkedSub(pos.SyntheticMinted, debtToCover)
	if err != nil {
		return 0, err
	}

	global, err := e.loadGlobal()
	if err != nil {
		return 0, err
	}
	newSupply, err := checkedSub(global.TotalSyntheticSupply, debtToCover)
	if err != nil {
		return 0, err
	}
	newTotalCollateral, err := checkedSub(global.TotalCollateral, collateralValue)
	if err != nil {
		return 0, err
	}

	newHealth, err := HealthRatio(remainingCollateral, remainingDebt, price)
	if err != nil {
		return 0, err
	}

	// The reward settles through the external ledger before anything is
	// persisted; a refused transfer aborts the whole operation.
	if e.ledger == nil {
		return 0, ErrTransferFailed
	}
	if err := e.ledger.Transfer(reward, e.custody, liquidator); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}

	pos.CollateralDeposited = remainingCollateral
	pos.SyntheticMinted = remainingDebt
	pos.Health = newHealth
	pos.LastInteractionBlock = now

	global.TotalSyntheticSupply = newSupply
	global.TotalCollateral = newTotalCollateral
	global.LiquidationNonce++

	record := &LiquidationRecord{
		ID:               global.LiquidationNonce,
		Account:          account,
		Liquidator:       liquidator,
		CollateralSeized: seized,
		DebtCovered:      new(big.Int).Set(debtToCover),
		Reward:           reward,
		BlockHeight:      now,
	}

	if err := e.state.PutPosition(pos); err != nil {
		return 0, err
	}
	if err := e.state.PutGlobal(global); err != nil {
		return 0, err
	}
	if err := e.state.AppendLiquidation(record); err != nil {
		return 0, err
	}
	return record.ID, nil
}

// currentPrice reads the feed without freshness enforcement; callers
// decide when staleness is an error.
func (e *Engine) currentPrice() (*big.Int, uint64) {
	if e.prices == nil {
		return big.NewInt(0), 0
	}
	price, lastUpdate := e.prices.CurrentPrice()
	if price == nil {
		price = big.NewInt(0)
	}
	return price, lastUpdate
}
