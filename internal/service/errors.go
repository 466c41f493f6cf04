package service

import "errors"

// Error taxonomy for the checkout and rating APIs. Handlers map these to
// structured failure payloads; anything else is treated as transient and
// reported generically so the client can retry the whole checkout.

type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string { return e.Message }

var (
	ErrLinkInvalid  = errors.New("invalid or expired rating link")
	ErrLinkExpired  = errors.New("this rating link has expired")
	ErrAlreadyRated = errors.New("you have already submitted ratings for this order")
)
