package rpc

import (
	"bytes"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"strings"

	"synthvault/crypto"
	"synthvault/native/bank"
	nativecommon "synthvault/native/common"
	"synthvault/native/oracle"
	"synthvault/native/synth"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000

	codeContractPaused         = -32030
	codeInvalidAmount          = -32031
	codePositionNotFound       = -32032
	codeStalePrice             = -32033
	codeLiquidationBlocked     = -32034
	codeInsufficientCollateral = -32035
	codeExceedsMaxPosition     = -32036
	codeOracleNotRegistered    = -32037
	codeArithmetic             = -32038
	codeTransferFailed         = -32039
)

// BlockClock exposes the monotonic logical block height the engine
// operations are stamped with.
type BlockClock interface {
	Height() uint64
}

type Server struct {
	engine   *synth.Engine
	feed     *oracle.Feed
	registry *oracle.Registry
	pauses   *nativecommon.PauseRegistry
	ledger   *bank.Ledger
	clock    BlockClock

	authToken string
	logger    *slog.Logger
}

func NewServer(engine *synth.Engine, feed *oracle.Feed, registry *oracle.Registry, pauses *nativecommon.PauseRegistry, ledger *bank.Ledger, clock BlockClock) *Server {
	token := strings.TrimSpace(os.Getenv("SYNTHVAULT_RPC_TOKEN"))
	return &Server{
		engine:    engine,
		feed:      feed,
		registry:  registry,
		pauses:    pauses,
		ledger:    ledger,
		clock:     clock,
		authToken: token,
		logger:    slog.Default(),
	}
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      int               `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string, data interface{}) {
	if status <= 0 {
		status = http.StatusBadRequest
	}
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	errObj := &RPCError{Code: code, Message: message}
	if data != nil {
		errObj.Data = data
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: errObj}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps the engine's sentinel errors onto stable RPC codes.
func writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	status := http.StatusConflict
	code := codeServerError
	switch {
	case errors.Is(err, synth.ErrContractPaused):
		code = codeContractPaused
		status = http.StatusServiceUnavailable
	case errors.Is(err, synth.ErrNotAuthorized):
		code = codeUnauthorized
		status = http.StatusForbidden
	case errors.Is(err, synth.ErrInvalidAmount), errors.Is(err, oracle.ErrInvalidAmount):
		code = codeInvalidAmount
		status = http.StatusBadRequest
	case errors.Is(err, synth.ErrPositionNotFound):
		code = codePositionNotFound
		status = http.StatusNotFound
	case errors.Is(err, synth.ErrStalePrice):
		code = codeStalePrice
	case errors.Is(err, synth.ErrLiquidationNotAllowed):
		code = codeLiquidationBlocked
	case errors.Is(err, synth.ErrInsufficientCollateral):
		code = codeInsufficientCollateral
	case errors.Is(err, synth.ErrExceedsMaxPosition):
		code = codeExceedsMaxPosition
	case errors.Is(err, oracle.ErrOracleNotRegistered):
		code = codeOracleNotRegistered
	case errors.Is(err, synth.ErrArithmetic):
		code = codeArithmetic
	case errors.Is(err, synth.ErrTransferFailed):
		code = codeTransferFailed
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	writeError(w, status, id, code, err.Error(), nil)
}

func (s *Server) requireAuth(r *http.Request) *RPCError {
	if s.authToken == "" {
		return &RPCError{Code: codeUnauthorized, Message: "RPC authentication token not configured"}
	}
	header := r.Header.Get("Authorization")
	if header == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing Authorization header"}
	}
	if !strings.HasPrefix(header, "Bearer ") {
		return &RPCError{Code: codeUnauthorized, Message: "Authorization header must use Bearer scheme"}
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		return &RPCError{Code: codeUnauthorized, Message: "missing bearer token"}
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(s.authToken)) != 1 {
		return &RPCError{Code: codeUnauthorized, Message: "invalid RPC credentials"}
	}
	return nil
}

func (s *Server) now() uint64 {
	if s.clock == nil {
		return 0
	}
	return s.clock.Height()
}

// ServeHTTP routes JSON-RPC requests to the method handlers.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() {
		_ = reader.Close()
	}()

	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(reader)
	if err != nil {
		status := http.StatusBadRequest
		message := "failed to read request body"
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			status = http.StatusRequestEntityTooLarge
			message = fmt.Sprintf("request body exceeds %d bytes", maxRequestBytes)
		}
		writeError(w, status, nil, codeInvalidRequest, message, err.Error())
		return
	}
	if len(bytes.TrimSpace(body)) == 0 {
		writeError(w, http.StatusBadRequest, nil, codeInvalidRequest, "request body required", nil)
		return
	}

	req := &RPCRequest{}
	if err := json.Unmarshal(body, req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload", err.Error())
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported jsonrpc version", req.JSONRPC)
		return
	}
	if req.Method == "" {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "method required", nil)
		return
	}

	switch req.Method {
	case "synth_deposit":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleDeposit(w, r, req)
	case "synth_mint":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleMint(w, r, req)
	case "synth_liquidate":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleLiquidate(w, r, req)
	case "synth_managePosition":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleManagePosition(w, r, req)
	case "synth_getPosition":
		s.handleGetPosition(w, r, req)
	case "synth_getGlobalState":
		s.handleGetGlobalState(w, r, req)
	case "synth_listLiquidations":
		s.handleListLiquidations(w, r, req)
	case "synth_getPrice":
		s.handleGetPrice(w, r, req)
	case "bank_getBalance":
		s.handleBankBalance(w, r, req)
	case "oracle_submitPrice":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleOracleSubmit(w, r, req)
	case "oracle_register":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleOracleRegister(w, r, req)
	case "oracle_getInfo":
		s.handleOracleInfo(w, r, req)
	case "admin_pause":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handlePause(w, r, req)
	case "admin_resume":
		if authErr := s.requireAuth(r); authErr != nil {
			writeError(w, http.StatusUnauthorized, req.ID, authErr.Code, authErr.Message, authErr.Data)
			return
		}
		s.handleResume(w, r, req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("unknown method %q", req.Method), nil)
	}
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one parameter object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(raw string) (crypto.Address, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return crypto.Address{}, fmt.Errorf("address required")
	}
	return crypto.DecodeAddress(trimmed)
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", raw)
	}
	return amount, nil
}
