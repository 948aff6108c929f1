package models

import "errors"

var (
	// ErrEmptyQuery is returned when keyword extraction leaves no usable search terms.
	ErrEmptyQuery = errors.New("no usable search terms in content")

	// ErrProviderUnavailable is returned when the discussion provider cannot be
	// reached or answers with a non-2xx status.
	ErrProviderUnavailable = errors.New("discussion provider unavailable")

	// ErrMalformedResponse is returned when the provider payload is missing expected fields.
	ErrMalformedResponse = errors.New("malformed discussion provider response")

	// ErrTweetNotFound is returned when no stored tweet has the requested id.
	ErrTweetNotFound = errors.New("tweet not found")

	// ErrDraftNotFound is returned when no saved reply draft has the requested id.
	ErrDraftNotFound = errors.New("reply draft not found")
)
