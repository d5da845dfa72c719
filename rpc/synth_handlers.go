package rpc

import (
	"math/big"
	"net/http"

	"synthvault/native/synth"
	"synthvault/observability/metrics"
)

type depositParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type mintParams struct {
	Account string `json:"account"`
	Amount  string `json:"amount"`
}

type liquidateParams struct {
	Liquidator  string `json:"liquidator"`
	Account     string `json:"account"`
	DebtToCover string `json:"debtToCover"`
}

type managePositionParams struct {
	Account         string   `json:"account"`
	AssetIDs        []string `json:"assetIds"`
	Amounts         []string `json:"amounts"`
	RiskScores      []uint64 `json:"riskScores"`
	Operation       string   `json:"operation"`
	SyntheticAmount string   `json:"syntheticAmount,omitempty"`
}

type accountParams struct {
	Account string `json:"account"`
}

type positionResult struct {
	Account              string   `json:"account"`
	CollateralDeposited  *big.Int `json:"collateralDeposited"`
	SyntheticMinted      *big.Int `json:"syntheticMinted"`
	LastInteractionBlock uint64   `json:"lastInteractionBlock"`
	PositionHealth       *big.Int `json:"positionHealth"`
	LiquidationProtected bool     `json:"liquidationProtected"`
}

type mintResult struct {
	MintedAfterFee *big.Int `json:"mintedAfterFee"`
	BlockHeight    uint64   `json:"blockHeight"`
}

type liquidateResult struct {
	LiquidationID uint64 `json:"liquidationId"`
	BlockHeight   uint64 `json:"blockHeight"`
}

type manageResult struct {
	HealthRatio           *big.Int `json:"healthRatio"`
	DiversificationBonus  uint64   `json:"diversificationBonus"`
	MaxAdditionalMintable *big.Int `json:"maxAdditionalMintable"`
	AvgRiskScore          uint64   `json:"avgRiskScore"`
	CollateralLocked      *big.Int `json:"collateralLocked"`
}

type globalStateResult struct {
	TotalCollateral      *big.Int `json:"totalCollateral"`
	TotalSyntheticSupply *big.Int `json:"totalSyntheticSupply"`
	LiquidationNonce     uint64   `json:"liquidationNonce"`
	Paused               bool     `json:"paused"`
	BlockHeight          uint64   `json:"blockHeight"`
}

type liquidationRecordResult struct {
	ID               uint64   `json:"id"`
	Account          string   `json:"account"`
	Liquidator       string   `json:"liquidator"`
	CollateralSeized *big.Int `json:"collateralSeized"`
	DebtCovered      *big.Int `json:"debtCovered"`
	Reward           *big.Int `json:"reward"`
	BlockHeight      uint64   `json:"blockHeight"`
}

func positionResultFrom(pos *synth.Position) *positionResult {
	if pos == nil {
		return nil
	}
	return &positionResult{
		Account:              pos.Address.String(),
		CollateralDeposited:  pos.CollateralDeposited,
		SyntheticMinted:      pos.SyntheticMinted,
		LastInteractionBlock: pos.LastInteractionBlock,
		PositionHealth:       pos.Health.Percent(),
		LiquidationProtected: pos.LiquidationProtected,
	}
}

func (s *Server) handleDeposit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params depositParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	now := s.now()
	if err := s.engine.Deposit(account, amount, now); err != nil {
		metrics.Synth().OpRejected("deposit")
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Synth().DepositCommitted()
	s.publishTotals()
	pos, err := s.engine.Position(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load position", err.Error())
		return
	}
	writeResult(w, req.ID, positionResultFrom(pos))
}

func (s *Server) handleMint(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params mintParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid amount", err.Error())
		return
	}
	now := s.now()
	net, err := s.engine.Mint(account, amount, now)
	if err != nil {
		metrics.Synth().OpRejected("mint")
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Synth().MintCommitted()
	s.publishTotals()
	writeResult(w, req.ID, mintResult{MintedAfterFee: net, BlockHeight: now})
}

func (s *Server) handleLiquidate(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params liquidateParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	liquidator, err := parseAddress(params.Liquidator)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid liquidator", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account", err.Error())
		return
	}
	debtToCover, err := parseAmount(params.DebtToCover)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid debtToCover", err.Error())
		return
	}
	now := s.now()
	id, err := s.engine.Liquidate(liquidator, account, debtToCover, now)
	if err != nil {
		metrics.Synth().OpRejected("liquidate")
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Synth().LiquidationExecuted()
	s.publishTotals()
	writeResult(w, req.ID, liquidateResult{LiquidationID: id, BlockHeight: now})
}

func (s *Server) handleManagePosition(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params managePositionParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account", err.Error())
		return
	}
	amounts := make([]*big.Int, 0, len(params.Amounts))
	for _, raw := range params.Amounts {
		amount, err := parseAmount(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid basket amount", err.Error())
			return
		}
		amounts = append(amounts, amount)
	}
	syntheticAmount := big.NewInt(0)
	if params.SyntheticAmount != "" {
		syntheticAmount, err = parseAmount(params.SyntheticAmount)
		if err != nil {
			writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid syntheticAmount", err.Error())
			return
		}
	}
	request := synth.ManageRequest{
		AssetIDs:        params.AssetIDs,
		Amounts:         amounts,
		RiskScores:      params.RiskScores,
		Operation:       synth.ManageOp(params.Operation),
		SyntheticAmount: syntheticAmount,
	}
	now := s.now()
	result, err := s.engine.ManagePosition(account, request, now)
	if err != nil {
		metrics.Synth().OpRejected("manage")
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Synth().DiversifiedOp(params.Operation)
	s.publishTotals()
	writeResult(w, req.ID, manageResult{
		HealthRatio:           result.HealthRatio.Percent(),
		DiversificationBonus:  result.DiversificationBonus,
		MaxAdditionalMintable: result.MaxAdditionalMintable,
		AvgRiskScore:          result.AvgRiskScore,
		CollateralLocked:      result.CollateralLocked,
	})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account", err.Error())
		return
	}
	pos, err := s.engine.Position(account)
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load position", err.Error())
		return
	}
	if pos == nil {
		writeError(w, http.StatusNotFound, req.ID, codePositionNotFound, "position not found", nil)
		return
	}
	writeResult(w, req.ID, positionResultFrom(pos))
}

func (s *Server) handleGetGlobalState(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	global, err := s.engine.GlobalSnapshot()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load global state", err.Error())
		return
	}
	writeResult(w, req.ID, globalStateResult{
		TotalCollateral:      global.TotalCollateral,
		TotalSyntheticSupply: global.TotalSyntheticSupply,
		LiquidationNonce:     global.LiquidationNonce,
		Paused:               s.pauses.IsPaused(""),
		BlockHeight:          s.now(),
	})
}

func (s *Server) handleListLiquidations(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	records, err := s.engine.Liquidations()
	if err != nil {
		writeError(w, http.StatusInternalServerError, req.ID, codeServerError, "failed to load liquidations", err.Error())
		return
	}
	out := make([]liquidationRecordResult, 0, len(records))
	for _, record := range records {
		out = append(out, liquidationRecordResult{
			ID:               record.ID,
			Account:          record.Account.String(),
			Liquidator:       record.Liquidator.String(),
			CollateralSeized: record.CollateralSeized,
			DebtCovered:      record.DebtCovered,
			Reward:           record.Reward,
			BlockHeight:      record.BlockHeight,
		})
	}
	writeResult(w, req.ID, out)
}

func (s *Server) handleBankBalance(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params accountParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	account, err := parseAddress(params.Account)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid account", err.Error())
		return
	}
	writeResult(w, req.ID, struct {
		Account string   `json:"account"`
		Balance *big.Int `json:"balance"`
	}{Account: account.String(), Balance: s.ledger.Balance(account)})
}

func (s *Server) publishTotals() {
	global, err := s.engine.GlobalSnapshot()
	if err != nil {
		return
	}
	metrics.Synth().SetTotals(global.TotalCollateral, global.TotalSyntheticSupply)
}
