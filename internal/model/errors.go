package model

import "errors"

// Error kinds shared by the ledger and the reminder scheduler.
var (
	ErrInvalidAmount    = errors.New("invalid amount: must be greater than zero")
	ErrInvalidGoal      = errors.New("invalid goal: must be greater than zero")
	ErrInvalidPlan      = errors.New("invalid reminder plan")
	ErrStorage          = errors.New("storage failure")
	ErrPermissionDenied = errors.New("notification permission denied")
)
