package domain

import "errors"

// Resolution error kinds. All except ErrInvalidRequest are caught at
// component boundaries and converted into try-next-tier signals; only
// ErrInvalidRequest is surfaced to the caller.
var (
	// ErrStoreUnavailable means the search store health probe failed
	ErrStoreUnavailable = errors.New("search store unavailable")

	// ErrQueryFailed means the store returned a non-2xx or malformed response
	ErrQueryFailed = errors.New("search query failed")

	// ErrNoData means the store answered but matched zero documents
	ErrNoData = errors.New("no data found")

	// ErrRemoteModel means the remote model call timed out, failed, or
	// returned empty content
	ErrRemoteModel = errors.New("remote model failed")

	// ErrInvalidRequest means required filter fields or analysis text are
	// missing; rejected immediately, never retried through any tier
	ErrInvalidRequest = errors.New("invalid request")

	// ErrFileRead means the fallback log file exists but could not be read
	ErrFileRead = errors.New("log file unreadable")
)
