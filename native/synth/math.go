package synth

import "math/big"

// All divisions in this file truncate toward zero. Do not substitute
// rounded division; callers depend on the truncating results.

// HealthRatio computes the integer collateralisation percentage of a
// position: (collateral * price * 100) / (debt * priceScale). A zero debt
// yields the Unbounded variant.
func HealthRatio(collateral, debt, price *big.Int) (Health, error) {
	if collateral == nil || debt == nil || price == nil {
		return Health{}, ErrArithmetic
	}
	if collateral.Sign() < 0 || debt.Sign() < 0 || price.Sign() < 0 {
		return Health{}, ErrArithmetic
	}
	if debt.Sign() == 0 {
		return UnboundedHealth(), nil
	}
	num := new(big.Int).Mul(collateral, price)
	num.Mul(num, percent)
	den := new(big.Int).Mul(debt, priceScale)
	return RatioHealth(num.Quo(num, den)), nil
}

// MaxMintable computes the largest synthetic debt supportable by the given
// collateral under the required ratio: (collateral * price) / (ratio * 1e6).
func MaxMintable(collateral, price *big.Int, ratioPct uint64) (*big.Int, error) {
	if collateral == nil || price == nil {
		return nil, ErrArithmetic
	}
	if collateral.Sign() < 0 || price.Sign() < 0 || ratioPct == 0 {
		return nil, ErrArithmetic
	}
	num := new(big.Int).Mul(collateral, price)
	den := new(big.Int).Mul(new(big.Int).SetUint64(ratioPct), ratioScale)
	return num.Quo(num, den), nil
}

// collateralForDebt converts a synthetic debt amount into collateral token
// units at the given price: debt * priceScale / price.
func collateralForDebt(debt, price *big.Int) (*big.Int, error) {
	if debt == nil || price == nil || price.Sign() <= 0 {
		return nil, ErrArithmetic
	}
	value := new(big.Int).Mul(debt, priceScale)
	return value.Quo(value, price), nil
}

// pctOf returns value * pct / 100, truncating.
func pctOf(value *big.Int, pct uint64) *big.Int {
	out := new(big.Int).Mul(value, new(big.Int).SetUint64(pct))
	return out.Quo(out, percent)
}

// bpsOf returns value * bps / 10_000, truncating.
func bpsOf(value *big.Int, bps uint64) *big.Int {
	out := new(big.Int).Mul(value, new(big.Int).SetUint64(bps))
	return out.Quo(out, basisPoints)
}

// checkedSub subtracts b from a, failing instead of producing a negative
// balance. Unsigned quantities never go below zero on a valid transition.
func checkedSub(a, b *big.Int) (*big.Int, error) {
	if a == nil || b == nil {
		return nil, ErrArithmetic
	}
	out := new(big.Int).Sub(a, b)
	if out.Sign() < 0 {
		return nil, ErrArithmetic
	}
	return out, nil
}
