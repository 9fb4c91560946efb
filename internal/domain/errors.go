package domain

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrStoreUnavailable  = errors.New("config store unavailable")
	ErrSourceUnavailable = errors.New("course source unavailable")
	ErrDeliveryFailed    = errors.New("notification delivery failed")
	ErrMailUnconfigured  = errors.New("mail transport not configured")
	ErrRunInProgress     = errors.New("a run is already in progress")
	ErrUnauthorized      = errors.New("unauthorized")
)
