package synth

import (
	"encoding/json"
	"math/big"

	"synthvault/crypto"
)

// Health is the collateralisation ratio of a position expressed as an
// integer percentage. A position with no outstanding debt carries the
// Unbounded variant instead of a numeric ratio so that callers cannot
// accidentally compare the sentinel against price-derived thresholds.
type Health struct {
	Unbounded bool
	Ratio     *big.Int
}

// UnboundedHealth is the health of a debt-free position.
func UnboundedHealth() Health {
	return Health{Unbounded: true}
}

// RatioHealth wraps a concrete percentage ratio.
func RatioHealth(ratio *big.Int) Health {
	if ratio == nil {
		ratio = big.NewInt(0)
	}
	return Health{Ratio: new(big.Int).Set(ratio)}
}

// Below reports whether the health is a concrete ratio strictly below the
// supplied percentage threshold. Unbounded health is never below anything.
func (h Health) Below(threshold uint64) bool {
	if h.Unbounded || h.Ratio == nil {
		return false
	}
	return h.Ratio.Cmp(new(big.Int).SetUint64(threshold)) < 0
}

// AtLeast reports whether the health meets the supplied percentage
// threshold. Unbounded health satisfies every threshold.
func (h Health) AtLeast(threshold uint64) bool {
	if h.Unbounded {
		return true
	}
	if h.Ratio == nil {
		return false
	}
	return h.Ratio.Cmp(new(big.Int).SetUint64(threshold)) >= 0
}

// Percent returns the wire representation: the concrete ratio, or the
// HealthSentinel value for unbounded health.
func (h Health) Percent() *big.Int {
	if h.Unbounded {
		return big.NewInt(HealthSentinel)
	}
	if h.Ratio == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(h.Ratio)
}

// Clone returns a deep copy of the health value.
func (h Health) Clone() Health {
	clone := Health{Unbounded: h.Unbounded}
	if h.Ratio != nil {
		clone.Ratio = new(big.Int).Set(h.Ratio)
	}
	return clone
}

// MarshalJSON renders health as its wire percentage.
func (h Health) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Percent().String())
}

// UnmarshalJSON accepts the wire percentage, mapping the sentinel back to
// the Unbounded variant.
func (h *Health) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	value, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return ErrInvalidAmount
	}
	if value.Cmp(big.NewInt(HealthSentinel)) == 0 {
		*h = UnboundedHealth()
		return nil
	}
	*h = RatioHealth(value)
	return nil
}

// Position maintains the collateral and debt bookkeeping for a single
// account. Positions are created on first deposit and never deleted; a
// fully unwound position simply holds zeros.
type Position struct {
	// Address is the owning account identifier.
	Address crypto.Address
	// CollateralDeposited is the locked collateral in scaled token units.
	CollateralDeposited *big.Int
	// SyntheticMinted is the outstanding synthetic debt in scaled units.
	SyntheticMinted *big.Int
	// LastInteractionBlock records the logical block of the last mutating
	// operation against the position.
	LastInteractionBlock uint64
	// Health is the stored collateralisation ratio after the last mutation.
	Health Health
	// LiquidationProtected marks positions granted protection through
	// sufficiently diversified collateral baskets.
	LiquidationProtected bool
}

// Clone returns a deep copy of the position.
func (p *Position) Clone() *Position {
	if p == nil {
		return nil
	}
	clone := &Position{
		Address:              p.Address,
		LastInteractionBlock: p.LastInteractionBlock,
		Health:               p.Health.Clone(),
		LiquidationProtected: p.LiquidationProtected,
	}
	if p.CollateralDeposited != nil {
		clone.CollateralDeposited = new(big.Int).Set(p.CollateralDeposited)
	}
	if p.SyntheticMinted != nil {
		clone.SyntheticMinted = new(big.Int).Set(p.SyntheticMinted)
	}
	return clone
}

// GlobalState captures the protocol-wide accounting totals. The invariant
// after every committed operation is that TotalCollateral and
// TotalSyntheticSupply reconcile with the per-position sums, modulo the
// liquidation penalty burn documented on the liquidation path.
type GlobalState struct {
	TotalCollateral      *big.Int
	TotalSyntheticSupply *big.Int
	// LiquidationNonce is the strictly increasing identifier assigned to
	// liquidation records.
	LiquidationNonce uint64
}

// Clone returns a deep copy of the global totals.
func (g *GlobalState) Clone() *GlobalState {
	if g == nil {
		return nil
	}
	clone := &GlobalState{LiquidationNonce: g.LiquidationNonce}
	if g.TotalCollateral != nil {
		clone.TotalCollateral = new(big.Int).Set(g.TotalCollateral)
	}
	if g.TotalSyntheticSupply != nil {
		clone.TotalSyntheticSupply = new(big.Int).Set(g.TotalSyntheticSupply)
	}
	return clone
}

// LiquidationRecord is the immutable audit entry appended for every
// executed liquidation.
type LiquidationRecord struct {
	ID               uint64
	Account          crypto.Address
	Liquidator       crypto.Address
	CollateralSeized *big.Int
	DebtCovered      *big.Int
	Reward           *big.Int
	BlockHeight      uint64
}

// Clone returns a deep copy of the record.
func (r *LiquidationRecord) Clone() *LiquidationRecord {
	if r == nil {
		return nil
	}
	clone := &LiquidationRecord{
		ID:          r.ID,
		Account:     r.Account,
		Liquidator:  r.Liquidator,
		BlockHeight: r.BlockHeight,
	}
	if r.CollateralSeized != nil {
		clone.CollateralSeized = new(big.Int).Set(r.CollateralSeized)
	}
	if r.DebtCovered != nil {
		clone.DebtCovered = new(big.Int).Set(r.DebtCovered)
	}
	if r.Reward != nil {
		clone.Reward = new(big.Int).Set(r.Reward)
	}
	return clone
}
