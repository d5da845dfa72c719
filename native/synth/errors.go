package synth

import (
	"errors"

	nativecommon "synthvault/native/common"
)

var (
	errNilState               = errors.New("synth engine: state not configured")
	ErrInvalidAmount          = errors.New("synth engine: amount invalid")
	ErrInsufficientCollateral = errors.New("synth engine: insufficient collateral")
	ErrPositionNotFound       = errors.New("synth engine: position not found")
	ErrStalePrice             = errors.New("synth engine: oracle price stale")
	ErrLiquidationNotAllowed  = errors.New("synth engine: position not liquidatable")
	ErrExceedsMaxPosition     = errors.New("synth engine: position exceeds concentration limit")
	ErrArithmetic             = errors.New("synth engine: arithmetic bounds exceeded")
	ErrTransferFailed         = errors.New("synth engine: custody transfer failed")

	// Shared with the pause registry so callers match a single sentinel.
	ErrContractPaused = nativecommon.ErrModulePaused
	ErrNotAuthorized  = nativecommon.ErrNotAuthorized
)
