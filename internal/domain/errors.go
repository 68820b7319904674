package domain

import "errors"

var (
	// ErrInvalidArgument marks caller mistakes such as an unknown mode.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNetworkFailure marks a failed upstream call: transport error,
	// non-2xx status or an undecodable body.
	ErrNetworkFailure = errors.New("network failure")
)
