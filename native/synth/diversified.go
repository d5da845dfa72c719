package synth

import (
	"math/big"

	"synthvault/crypto"
	nativecommon "synthvault/native/common"
)

// ManageOp selects the diversified operation flavour.
type ManageOp string

const (
	// ManageOpMint commits the projected collateral and debt.
	ManageOpMint ManageOp = "mint"
	// ManageOpDeposit computes the same figures without committing any
	// state; the call is a read-style quote.
	ManageOpDeposit ManageOp = "deposit"
)

const (
	maxBasketAssets = 5
	// Risk scores are percentages; bounding them keeps the sum below any
	// overflow horizon for a five-asset basket.
	maxRiskScore = 100
	// Baskets spanning more than two assets earn the larger ratio rebate.
	wideBasketBonusPct   = 10
	narrowBasketBonusPct = 5
	protectedBonusFloor  = 8
)

// ManageRequest describes a multi-asset deposit or mint. AssetIDs, Amounts
// and RiskScores must be equal length, holding between two and five
// entries; single-asset calls use the plain deposit and mint paths.
type ManageRequest struct {
	AssetIDs        []string
	Amounts         []*big.Int
	RiskScores      []uint64
	Operation       ManageOp
	SyntheticAmount *big.Int
}

// ManageResult reports the figures computed for the basket.
type ManageResult struct {
	HealthRatio           Health
	DiversificationBonus  uint64
	MaxAdditionalMintable *big.Int
	AvgRiskScore          uint64
	CollateralLocked      *big.Int
}

// ManagePosition evaluates a diversified basket against the account's
// position. Spreading collateral across more assets lowers the required
// collateral ratio. Every gate must pass or the call fails with no state
// change; on success only the mint flavour commits.
func (e *Engine) ManagePosition(account crypto.Address, req ManageRequest, now uint64) (*ManageResult, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	count := len(req.AssetIDs)
	if count <= 1 || count > maxBasketAssets {
		return nil, ErrInvalidAmount
	}
	if len(req.Amounts) != count || len(req.RiskScores) != count {
		return nil, ErrInvalidAmount
	}
	if req.Operation != ManageOpMint && req.Operation != ManageOpDeposit {
		return nil, ErrInvalidAmount
	}

	if err := nativecommon.Guard(e.pauses, moduleName); err != nil {
		return nil, err
	}

	price, err := e.freshPrice(now)
	if err != nil {
		return nil, err
	}

	totalCollateralValue := big.NewInt(0)
	var riskSum uint64
	for i := 0; i < count; i++ {
		amount := req.Amounts[i]
		if amount == nil || amount.Sign() <= 0 {
			return nil, ErrInvalidAmount
		}
		if req.RiskScores[i] > maxRiskScore {
			return nil, ErrInvalidAmount
		}
		totalCollateralValue.Add(totalCollateralValue, amount)
		riskSum += req.RiskScores[i]
	}
	avgRiskScore := riskSum / uint64(count)

	bonus := uint64(narrowBasketBonusPct)
	if count > 2 {
		bonus = wideBasketBonusPct
	}
	if bonus >= e.params.MinCollateralRatio {
		return nil, ErrArithmetic
	}
	adjustedRatio := e.params.MinCollateralRatio - bonus

	pos, err := e.ensurePosition(account)
	if err != nil {
		return nil, err
	}
	global, err := e.loadGlobal()
	if err != nil {
		return nil, err
	}

	syntheticAmount := req.SyntheticAmount
	if syntheticAmount == nil {
		syntheticAmount = big.NewInt(0)
	}
	if syntheticAmount.Sign() < 0 {
		return nil, ErrInvalidAmount
	}

	projectedDebt := new(big.Int).Set(pos.SyntheticMinted)
	if req.Operation == ManageOpMint {
		projectedDebt.Add(projectedDebt, syntheticAmount)
	}
	projectedCollateral := new(big.Int).Add(pos.CollateralDeposited, totalCollateralValue)

	newHealth, err := HealthRatio(projectedCollateral, projectedDebt, price)
	if err != nil {
		return nil, err
	}
	maxMintable, err := MaxMintable(projectedCollateral, price, adjustedRatio)
	if err != nil {
		return nil, err
	}

	// Concentration is measured against the global total as it stands
	// before the basket commits. An empty pool cannot satisfy the cap.
	if global.TotalCollateral.Sign() <= 0 {
		return nil, ErrExceedsMaxPosition
	}
	share := new(big.Int).Mul(projectedCollateral, percent)
	share.Quo(share, global.TotalCollateral)
	if share.Cmp(new(big.Int).SetUint64(e.params.MaxPositionPct)) > 0 {
		return nil, ErrExceedsMaxPosition
	}
	if !newHealth.AtLeast(e.params.MinCollateralRatio) {
		return nil, ErrInsufficientCollateral
	}
	if syntheticAmount.Cmp(maxMintable) > 0 {
		return nil, ErrInsufficientCollateral
	}
	if avgRiskScore < e.params.MinDiversifiedRiskScore {
		return nil, ErrInvalidAmount
	}

	headroom, err := checkedSub(maxMintable, projectedDebt)
	if err != nil {
		headroom = big.NewInt(0)
	}
	result := &ManageResult{
		HealthRatio:           newHealth,
		DiversificationBonus:  bonus,
		MaxAdditionalMintable: headroom,
		AvgRiskScore:          avgRiskScore,
		CollateralLocked:      totalCollateralValue,
	}

	if req.Operation == ManageOpDeposit {
		// Quote flavour: figures are returned but nothing is committed.
		return result, nil
	}

	pos.CollateralDeposited = projectedCollateral
	pos.SyntheticMinted = projectedDebt
	pos.Health = newHealth
	pos.LastInteractionBlock = now
	pos.LiquidationProtected = bonus > protectedBonusFloor

	global.TotalCollateral = new(big.Int).Add(global.TotalCollateral, totalCollateralValue)
	global.TotalSyntheticSupply = new(big.Int).Add(global.TotalSyntheticSupply, syntheticAmount)

	if err := e.state.PutPosition(pos); err != nil {
		return nil, err
	}
	if err := e.state.PutGlobal(global); err != nil {
		return nil, err
	}
	return result, nil
}
