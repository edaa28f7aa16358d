package domain

import "errors"

// Domain errors propagate uncaught from command handlers to the bus
// caller; the transport layer translates them to user-facing responses.
var (
	// ErrUserExists signals an email or username uniqueness conflict.
	ErrUserExists = errors.New("user already exists")

	// ErrPostNotFound signals a lookup miss on a post.
	ErrPostNotFound = errors.New("post not found")

	// ErrUnauthorized covers both missing users and lack of standing.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrInvalidOperation signals an aggregate-level validation failure.
	ErrInvalidOperation = errors.New("invalid operation")
)
