// Package core defines sentinel errors.
package core

import "errors"

// Sentinel errors, wrapped with %w by callers.
var (
	// Input errors
	ErrInputUnreadable = errors.New("amarilog: input log unreadable")

	// Descriptor errors
	ErrDescriptorInvalid = errors.New("amarilog: invalid descriptor")

	// Sink errors
	ErrSinkNotFound = errors.New("amarilog: sink not found")
	ErrSinkNotOpen  = errors.New("amarilog: sink not open")

	// Configuration errors
	ErrConfigInvalid = errors.New("amarilog: invalid configuration")

	// Collaborator errors
	ErrNotJSONArray  = errors.New("amarilog: expected a JSON array")
	ErrNoSummaryData = errors.New("amarilog: no user-port packets found")
)
