package catalog

import "errors"

var (
	// ErrConfiguration means the loader was started without a store handle.
	ErrConfiguration = errors.New("catalog: no document store configured")
	// ErrDataSource wraps failures of primary reads and writes.
	ErrDataSource = errors.New("catalog: data source failure")
	// ErrSubResource wraps failures of summary, pricing or review reads
	// that are not replaced by a default.
	ErrSubResource = errors.New("catalog: sub-resource failure")
	// ErrNotInitialized is returned by store-backed calls made before Initialize.
	ErrNotInitialized = errors.New("catalog: loader not initialized")
)
