package domain

import "errors"

var (
	// ErrUnreadableTable is returned when the input cannot be parsed as a table.
	ErrUnreadableTable = errors.New("input is not a readable table")
	// ErrInvalidConfig is returned when analysis parameters are outside their ranges.
	ErrInvalidConfig = errors.New("invalid analysis configuration")
	// ErrUnknownGrouping is returned for an unsupported summary dimension.
	ErrUnknownGrouping = errors.New("unknown grouping")
	// ErrUnknownCategory is returned for a category code outside A to E.
	ErrUnknownCategory = errors.New("unknown rotation category")
	// ErrFamilyRequired is returned when a subfamily summary has no family selected.
	ErrFamilyRequired = errors.New("a family must be selected for subfamily summaries")
	// ErrUnknownFormat is returned for an unsupported export format.
	ErrUnknownFormat = errors.New("unknown export format")
	// ErrEmptyUpload is returned when no file content was provided.
	ErrEmptyUpload = errors.New("empty upload")
	// ErrValuationUnavailable is returned when a view needs stock and price columns that were not found.
	ErrValuationUnavailable = errors.New("stock and price columns are required for this view")
	// ErrUnknownList is returned for an unsupported product list name.
	ErrUnknownList = errors.New("unknown product list")
	// ErrExportNotFound is returned when a published export key does not exist.
	ErrExportNotFound = errors.New("export not found")
	// ErrInvalidExportKey is returned for keys that are empty or leave the storage root.
	ErrInvalidExportKey = errors.New("invalid export key")
	// ErrPublishingDisabled is returned when an export is published without a storage backend.
	ErrPublishingDisabled = errors.New("export publishing is not configured")
)
