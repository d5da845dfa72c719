package synth

import "math/big"

// Prices are carried as 8-decimal fixed-point integers; ratios and
// percentages are plain integer percent values (100 == 100%).
const (
	// PriceDecimals is the fixed-point scale applied to oracle prices.
	PriceDecimals = 8
	// HealthSentinel is the wire representation of an unbounded health
	// ratio (a position with no outstanding debt).
	HealthSentinel = 999_999
)

var (
	// priceScale is 1.0 in fixed-point price units (10^PriceDecimals).
	priceScale = big.NewInt(100_000_000)
	// ratioScale converts an integer percent ratio into price units for
	// the mint capacity formula: ratio% * 1e6 == ratio/100 * priceScale.
	ratioScale  = big.NewInt(1_000_000)
	percent     = big.NewInt(100)
	basisPoints = big.NewInt(10_000)
)

// RiskParameters groups the protocol safety limits governing minting,
// liquidation and diversified position management.
type RiskParameters struct {
	// MinCollateralRatio is the percentage of collateral value over debt
	// value required for any mint to succeed.
	MinCollateralRatio uint64
	// LiquidationThreshold is the health percentage below which a position
	// becomes liquidatable.
	LiquidationThreshold uint64
	// LiquidationBonusPct is the liquidator reward on top of the covered
	// collateral value, in percent.
	LiquidationBonusPct uint64
	// LiquidationPenaltyPct is the share of covered collateral value burned
	// from the liquidated position, in percent.
	LiquidationPenaltyPct uint64
	// MintingFeeBps is the fee withheld from every mint, in basis points.
	MintingFeeBps uint64
	// CooldownBlocks is the minimum block interval between a position's
	// consecutive mutating interactions before a mint may proceed.
	CooldownBlocks uint64
	// OracleStalenessLimit is the block-count window after which the
	// current price is considered untrustworthy.
	OracleStalenessLimit uint64
	// MaxPositionPct caps a single position's share of global collateral
	// for diversified operations, in percent.
	MaxPositionPct uint64
	// MinDiversifiedRiskScore is the lowest acceptable average risk score
	// across a diversified basket.
	MinDiversifiedRiskScore uint64
}

// DefaultRiskParameters returns the protocol reference limits.
func DefaultRiskParameters() RiskParameters {
	return RiskParameters{
		MinCollateralRatio:      150,
		LiquidationThreshold:    120,
		LiquidationBonusPct:     10,
		LiquidationPenaltyPct:   5,
		MintingFeeBps:           50,
		CooldownBlocks:          10,
		OracleStalenessLimit:    100,
		MaxPositionPct:          10,
		MinDiversifiedRiskScore: 50,
	}
}

// Normalise fills zero-valued limits with the reference defaults so a
// partially populated configuration cannot disable a safety check.
func (p RiskParameters) Normalise() RiskParameters {
	def := DefaultRiskParameters()
	if p.MinCollateralRatio == 0 {
		p.MinCollateralRatio = def.MinCollateralRatio
	}
	if p.LiquidationThreshold == 0 {
		p.LiquidationThreshold = def.LiquidationThreshold
	}
	if p.LiquidationBonusPct == 0 {
		p.LiquidationBonusPct = def.LiquidationBonusPct
	}
	if p.LiquidationPenaltyPct == 0 {
		p.LiquidationPenaltyPct = def.LiquidationPenaltyPct
	}
	if p.MintingFeeBps == 0 {
		p.MintingFeeBps = def.MintingFeeBps
	}
	if p.CooldownBlocks == 0 {
		p.CooldownBlocks = def.CooldownBlocks
	}
	if p.OracleStalenessLimit == 0 {
		p.OracleStalenessLimit = def.OracleStalenessLimit
	}
	if p.MaxPositionPct == 0 {
		p.MaxPositionPct = def.MaxPositionPct
	}
	if p.MinDiversifiedRiskScore == 0 {
		p.MinDiversifiedRiskScore = def.MinDiversifiedRiskScore
	}
	return p
}
