package campaign

import "errors"

// Sentinel errors for the campaign service layer.
var (
	ErrNotFound          = errors.New("campaign not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNotEditable       = errors.New("campaign can no longer be edited")
	ErrHasActivity       = errors.New("campaign has scheduled posts and cannot be deleted")
)
