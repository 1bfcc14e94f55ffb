package errors

import "errors"

var (
	ErrQueueNotFound          = errors.New("distribution queue not found")
	ErrQueueExists            = errors.New("active distribution queue already exists for request")
	ErrQueueTerminal          = errors.New("distribution queue is in a terminal status")
	ErrAttemptNotFound        = errors.New("distribution attempt not found")
	ErrAlreadyResolved        = errors.New("distribution attempt already resolved")
	ErrQueueConflict          = errors.New("distribution queue changed concurrently")
	ErrNoEligibleCandidates   = errors.New("no eligible candidates remaining")
	ErrRequestNotFound        = errors.New("distribution request not found")
	ErrInvalidInput           = errors.New("invalid distribution input")
	ErrInvalidSettings        = errors.New("distribution settings are missing or invalid")
	ErrDistributionDisabled   = errors.New("automatic distribution is disabled")
	ErrChannelUnavailable     = errors.New("messaging channel unavailable")
	ErrInvalidAddress         = errors.New("recipient address rejected by messaging channel")
	ErrInvalidStateTransition = errors.New("invalid distribution state transition")
)
