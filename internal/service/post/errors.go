package post

import "errors"

// Sentinel errors for the scheduled-post service layer.
var (
	ErrNotFound          = errors.New("scheduled post not found")
	ErrInvalidTransition = errors.New("invalid post status transition")
	ErrNotEditable       = errors.New("post can no longer be edited")
	ErrPastDue           = errors.New("post is past its scheduled time")
)
