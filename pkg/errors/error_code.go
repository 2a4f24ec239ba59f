package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeMalformedSignal      ErrorCode = 102
	ErrCodeInvalidDirection     ErrorCode = 103
	ErrCodeInvalidInterval      ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeSignalNotFound        ErrorCode = 203
	ErrCodeSignalAlreadyClosed   ErrorCode = 204
	ErrCodeChannelNotFound       ErrorCode = 205
	ErrCodeMigrationFailed       ErrorCode = 206
	ErrCodeWriteFailed           ErrorCode = 207

	// Evaluation errors (300-399)
	ErrCodeEvaluationFailed ErrorCode = 300
	ErrCodeInvalidOutcome   ErrorCode = 301

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeRateLimited           ErrorCode = 703
	ErrCodeInvalidProvider       ErrorCode = 704

	// Notification errors (800-899)
	ErrCodeNotificationFailed ErrorCode = 800
)
