package rpc

import (
	"math/big"
	"net/http"

	"synthvault/observability/metrics"
)

type submitPriceParams struct {
	Oracle     string `json:"oracle"`
	AssetID    string `json:"assetId"`
	Price      string `json:"price"`
	Confidence uint64 `json:"confidence"`
}

type oracleRegisterParams struct {
	Caller string `json:"caller"`
	Oracle string `json:"oracle"`
}

type oracleInfoParams struct {
	Oracle string `json:"oracle"`
}

type adminParams struct {
	Caller string `json:"caller"`
}

type submitPriceResult struct {
	SubmissionID uint64 `json:"submissionId"`
	BlockHeight  uint64 `json:"blockHeight"`
}

type oracleInfoResult struct {
	Address          string `json:"address"`
	Active           bool   `json:"active"`
	TotalSubmissions uint64 `json:"totalSubmissions"`
	CredibilityScore uint64 `json:"credibilityScore"`
}

type priceResult struct {
	Price       *big.Int `json:"price"`
	LastUpdate  uint64   `json:"lastUpdate"`
	Fresh       bool     `json:"fresh"`
	BlockHeight uint64   `json:"blockHeight"`
}

func (s *Server) handleOracleSubmit(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params submitPriceParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	oracleID, err := parseAddress(params.Oracle)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid oracle", err.Error())
		return
	}
	price, err := parseAmount(params.Price)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid price", err.Error())
		return
	}
	now := s.now()
	id, err := s.feed.Submit(oracleID, params.AssetID, price, params.Confidence, now)
	if err != nil {
		metrics.Synth().OracleSubmission(false)
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Synth().OracleSubmission(true)
	metrics.Synth().SetCurrentPrice(price)
	writeResult(w, req.ID, submitPriceResult{SubmissionID: id, BlockHeight: now})
}

func (s *Server) handleOracleRegister(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params oracleRegisterParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	oracleID, err := parseAddress(params.Oracle)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid oracle", err.Error())
		return
	}
	if err := s.registry.Register(caller, oracleID); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, true)
}

func (s *Server) handleOracleInfo(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params oracleInfoParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	oracleID, err := parseAddress(params.Oracle)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid oracle", err.Error())
		return
	}
	info := s.registry.Get(oracleID)
	if info == nil {
		writeError(w, http.StatusNotFound, req.ID, codeOracleNotRegistered, "oracle not registered", nil)
		return
	}
	writeResult(w, req.ID, oracleInfoResult{
		Address:          info.Address.String(),
		Active:           info.Active,
		TotalSubmissions: info.TotalSubmissions,
		CredibilityScore: info.CredibilityScore,
	})
}

func (s *Server) handleGetPrice(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	price, lastUpdate := s.feed.CurrentPrice()
	if price == nil {
		writeError(w, http.StatusNotFound, req.ID, codeStalePrice, "no price submitted yet", nil)
		return
	}
	now := s.now()
	writeResult(w, req.ID, priceResult{
		Price:       price,
		LastUpdate:  lastUpdate,
		Fresh:       s.feed.IsFresh(lastUpdate, now),
		BlockHeight: now,
	})
}

func (s *Server) handlePause(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params adminParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	if err := s.pauses.Pause(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Synth().SetPaused(true)
	writeResult(w, req.ID, true)
}

func (s *Server) handleResume(w http.ResponseWriter, _ *http.Request, req *RPCRequest) {
	var params adminParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid parameters", err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, "invalid caller", err.Error())
		return
	}
	if err := s.pauses.Resume(caller); err != nil {
		writeEngineError(w, req.ID, err)
		return
	}
	metrics.Synth().SetPaused(false)
	writeResult(w, req.ID, true)
}
