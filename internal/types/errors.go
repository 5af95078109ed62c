package types

import "errors"

// Error kinds surfaced by the engine, per the closed error-kind set.
// DSP stages never surface these — a stage that cannot satisfy its
// contract logs a warning and passes its input through unchanged.
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrNotFound              = errors.New("not found")
	ErrDecodeFailure         = errors.New("decode failure")
	ErrEncodeFailure         = errors.New("encode failure")
	ErrFingerprintUnavailable = errors.New("fingerprint unavailable")
	ErrInternal              = errors.New("internal error")
)
