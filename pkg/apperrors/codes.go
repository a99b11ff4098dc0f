package apperrors

// Error codes grouped by domain. The lifecycle codes form the closed set the
// decision core reports; everything else is transport/auth plumbing.
const (
	// Authentication and authorization
	CodeInvalidCredentials ErrorCode = "INVALID_CREDENTIALS"
	CodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	CodeForbidden          ErrorCode = "FORBIDDEN"
	CodeInvalidToken       ErrorCode = "INVALID_TOKEN"

	// Validation
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeWeakPassword     ErrorCode = "WEAK_PASSWORD"

	// Resources
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeAlreadyExists ErrorCode = "ALREADY_EXISTS"

	// Task lifecycle
	CodeInvalidTransition       ErrorCode = "INVALID_TRANSITION"
	CodeContentRejected         ErrorCode = "CONTENT_REJECTED"
	CodeContentFlagged          ErrorCode = "CONTENT_FLAGGED"
	CodeTrustLevelInsufficient  ErrorCode = "TRUST_LEVEL_INSUFFICIENT"
	CodePaymentFailure          ErrorCode = "PAYMENT_FAILURE"
	CodeConflict                ErrorCode = "CONFLICT"
	CodeLimitExceeded           ErrorCode = "LIMIT_EXCEEDED"
	CodeInvalidOperation        ErrorCode = "INVALID_OPERATION"

	// System
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeDatabaseError        ErrorCode = "DATABASE_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"
)
