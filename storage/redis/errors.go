package redis

import "errors"

var (
	// ErrEmptyConnectionURL is returned when no connection URL is provided.
	ErrEmptyConnectionURL = errors.New("empty redis connection URL")

	// ErrFailedToParseConnString is returned for a malformed connection URL.
	ErrFailedToParseConnString = errors.New("failed to parse redis connection string")

	// ErrRedisNotReady is returned when Redis doesn't become ready within
	// the configured retry budget.
	ErrRedisNotReady = errors.New("redis not ready")

	// ErrHealthcheckFailed is returned when the health check ping fails.
	ErrHealthcheckFailed = errors.New("redis healthcheck failed")
)
