package errors

import "errors"

var (
	ErrNotFound = errors.New("appointment not found")

	ErrInvalidID = errors.New("invalid appointment ID format")

	// ErrStatusChanged is returned by compare-and-set writes when the stored
	// status no longer matches the one the caller read.
	ErrStatusChanged = errors.New("appointment status changed concurrently")

	ErrSlotTaken = errors.New("provider already has an active appointment at this instant")

	ErrLockBusy = errors.New("provider schedule is locked by another request")
)
