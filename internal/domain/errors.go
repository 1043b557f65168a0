package domain

import "errors"

var (
	// ErrInvalidInput is returned when input is structurally invalid (missing columns, no platform)
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoRecords is returned when an analysis is requested with no records at all
	ErrNoRecords = errors.New("no records to analyze")

	// ErrInvalidRequest is returned when request parameters are invalid
	ErrInvalidRequest = errors.New("invalid request parameters")

	// ErrAnalysisNotFound is returned when a persisted analysis run does not exist
	ErrAnalysisNotFound = errors.New("analysis not found")

	// ErrSnapshotNotFound is returned when no snapshot file is available
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrCacheMiss is returned when data is not found in cache
	ErrCacheMiss = errors.New("cache miss")

	// ErrFetchFailed is returned when a platform page cannot be fetched
	ErrFetchFailed = errors.New("platform fetch failed")

	// ErrPlatformNotConfigured is returned when an extractor is requested for an unknown platform
	ErrPlatformNotConfigured = errors.New("platform not configured")
)
