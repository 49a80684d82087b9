package submit

import "errors"

var (
	ErrNoInstructions    = errors.New("submit: no instructions")
	ErrNoUnitsConsumed   = errors.New("submit: failed to get required CUs")
	ErrSimulationFailed  = errors.New("submit: simulation failed")
	ErrNoFeeEstimate     = errors.New("submit: failed to get fee estimate")
	ErrStaleEstimate     = errors.New("submit: fee estimate is stale")
	ErrBlockhashExpired  = errors.New("submit: blockhash expired before confirmation")
	ErrConfirmTimeout    = errors.New("submit: confirmation timed out")
	ErrTransactionFailed = errors.New("submit: transaction failed on chain")
	ErrPreflightRejected = errors.New("submit: transaction rejected by preflight")
	ErrRetriesExhausted  = errors.New("submit: retries exhausted")
)
