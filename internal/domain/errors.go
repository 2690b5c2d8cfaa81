package domain

import "errors"

// Sentinel errors for domain operations
var (
	// ErrServerOffline indicates the scan server is unreachable
	ErrServerOffline = errors.New("scan server is unreachable")

	// ErrUnexpectedStatus indicates the server answered with a non-2xx status
	ErrUnexpectedStatus = errors.New("unexpected status from scan server")

	// ErrMalformedResponse indicates the response body could not be decoded
	ErrMalformedResponse = errors.New("malformed response from scan server")

	// ErrIndexOutOfRange indicates an edit targeted a position outside the photo list
	ErrIndexOutOfRange = errors.New("photo index out of range")

	// ErrNoEditSession indicates a draft operation without an active edit
	ErrNoEditSession = errors.New("no active edit session")

	// ErrPhotoNotFound indicates a photo name that is not in the current list
	ErrPhotoNotFound = errors.New("photo not found")
)
