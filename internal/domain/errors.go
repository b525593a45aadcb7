package domain

import "errors"

var (
	// ErrSubscriptionFailed is returned when subscription to contract logs fails
	ErrSubscriptionFailed = errors.New("subscription failed")

	// ErrUserNotFound is returned when no user matches a blockchain address
	ErrUserNotFound = errors.New("user not found")

	// ErrUnknownEventSignature is returned for logs whose first topic is not a known event
	ErrUnknownEventSignature = errors.New("unknown event signature")
)
