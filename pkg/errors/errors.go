package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrEmptyKey       = errors.New("empty key")
	ErrInvalidData    = errors.New("invalid data type")
	ErrEntityExists   = errors.New("entity already exists")
	ErrUnavailable    = errors.New("dependent service unavailable")
	ErrListenerStart  = errors.New("failed to start aggregation listener")
	ErrMissingUserID  = errors.New("missing user id")
	ErrMissingAudio   = errors.New("missing audio data")
	ErrInvalidEmotion = errors.New("unsupported emotion label")
	ErrInvalidType    = errors.New("invalid feedback type")
	ErrConfidence     = errors.New("confidence must be within [0, 1]")
)
