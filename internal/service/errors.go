package service

import "errors"

// Common service errors
var (
	// ErrNotFound is returned when a resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when there's a conflict (e.g., duplicate)
	ErrConflict = errors.New("resource conflict")

	// ErrUnauthorized is returned when the caller is not authenticated
	ErrUnauthorized = errors.New("unauthorized")

	// ErrPermissionDenied is returned when the caller lacks a capability for an action
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidTransition is returned when a lead status change is not allowed
	// from the lead's current status
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrLeadTerminal is returned when modifying a lead in a terminal status
	ErrLeadTerminal = errors.New("lead is in a terminal status")

	// ErrInvalidPaymentChange = payment status change not allowed from current status
	ErrInvalidPaymentChange = errors.New("invalid payment status change")

	// ErrStaffInactive is returned when assigning work to a deactivated staff member
	ErrStaffInactive = errors.New("staff member is inactive")
)
