package cache

import "errors"

// Domain errors for the cache package.
//
// These errors can be checked using errors.Is():
//
//	if errors.Is(err, cache.ErrSaveFailed) {
//	    // cache file could not be written
//	}
var (
	// ErrLoadFailed is returned when the cache file exists but cannot be read.
	ErrLoadFailed = errors.New("cache: load failed")

	// ErrSaveFailed is returned when the cache file cannot be written or renamed.
	ErrSaveFailed = errors.New("cache: save failed")
)
