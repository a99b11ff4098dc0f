package apperrors

import (
	"fmt"
	"net/http"
)

// Predeclared errors for the task lifecycle. Services return these (or
// copies via WithMessage/WithDetails) so handlers and tests can match with
// errors.Is instead of string comparison.

// --- Task lifecycle (decision core) ---

// ErrInvalidTransition - the requested status edge is not in the allowed
// table. Permanent for that (from, to) pair, never retried.
var ErrInvalidTransition = New(
	CodeInvalidTransition,
	"task",
	"Invalid task status transition",
	http.StatusConflict,
)

// ErrContentRejected - moderation auto-rejected the submission. The caller
// must resubmit different content.
var ErrContentRejected = New(
	CodeContentRejected,
	"moderation",
	"Content rejected by moderation",
	http.StatusUnprocessableEntity,
)

// ErrContentFlagged - moderation queued the submission for manual review.
// Not a failure in the usual sense; callers must distinguish it from
// ErrContentRejected.
var ErrContentFlagged = New(
	CodeContentFlagged,
	"moderation",
	"Content flagged for manual review",
	http.StatusAccepted,
)

// ErrTrustLevelInsufficient - authorization-class failure, not a data error.
var ErrTrustLevelInsufficient = New(
	CodeTrustLevelInsufficient,
	"trust",
	"Trust level insufficient for this operation",
	http.StatusForbidden,
)

// ErrPaymentFailure - wraps a payment gateway failure. The preceding task
// state is preserved exactly.
var ErrPaymentFailure = New(
	CodePaymentFailure,
	"payment",
	"Payment provider error",
	http.StatusBadGateway,
)

// ErrConflict - lost a concurrent-transition race; the entity changed
// between read and write.
var ErrConflict = New(
	CodeConflict,
	"task",
	"Task was modified concurrently",
	http.StatusConflict,
)

// --- Resources ---

var ErrTaskNotFound = New(CodeNotFound, "task", "Task not found", http.StatusNotFound)

var ErrApplicationNotFound = New(CodeNotFound, "application", "Application not found", http.StatusNotFound)

var ErrPaymentNotFound = New(CodeNotFound, "payment", "Payment not found", http.StatusNotFound)

var ErrUserNotFound = New(CodeNotFound, "user", "User not found", http.StatusNotFound)

var ErrReviewNotFound = New(CodeNotFound, "review", "Review not found", http.StatusNotFound)

var ErrApplicationExists = New(
	CodeAlreadyExists,
	"application",
	"You have already applied to this task",
	http.StatusConflict,
)

var ErrReviewExists = New(
	CodeAlreadyExists,
	"review",
	"You have already reviewed this task",
	http.StatusConflict,
)

// --- Auth ---

var ErrInvalidCredentials = New(
	CodeInvalidCredentials,
	"auth",
	"Invalid email or password",
	http.StatusUnauthorized,
)

var ErrUnauthorized = New(CodeUnauthorized, "auth", "Authentication required", http.StatusUnauthorized)

var ErrForbidden = New(CodeForbidden, "auth", "Access denied", http.StatusForbidden)

var ErrInvalidToken = New(CodeInvalidToken, "auth", "Invalid or expired token", http.StatusUnauthorized)

var ErrEmailAlreadyExists = New(
	CodeAlreadyExists,
	"auth",
	"Email already in use",
	http.StatusConflict,
)

var ErrWeakPassword = New(
	CodeWeakPassword,
	"validation",
	"Password must be at least 8 characters",
	http.StatusBadRequest,
)

var ErrUserSuspended = New(
	CodeForbidden,
	"auth",
	"Your account has been suspended",
	http.StatusForbidden,
)

// --- Factories ---

// InvalidTransition builds the transition error with the offending pair in
// the message and details.
func InvalidTransition(from, to string) *AppError {
	return ErrInvalidTransition.
		WithMessage(fmt.Sprintf("Cannot transition from %s to %s", from, to)).
		WithDetails(map[string]string{"from": from, "to": to})
}

// ContentRejected carries the classifier reason.
func ContentRejected(reason string) *AppError {
	return ErrContentRejected.WithDetails(map[string]string{"reason": reason})
}

// ContentFlagged carries the classifier reason.
func ContentFlagged(reason string) *AppError {
	return ErrContentFlagged.WithDetails(map[string]string{"reason": reason})
}

// TrustLevelInsufficient carries the specific policy that failed.
func TrustLevelInsufficient(reason string) *AppError {
	return ErrTrustLevelInsufficient.WithMessage(reason)
}

// PaymentFailure carries the gateway's reason; chain WithError to attach
// the underlying cause.
func PaymentFailure(message string) *AppError {
	return ErrPaymentFailure.WithMessage(message)
}

func NotFound(resource string) *AppError {
	return New(CodeNotFound, resource, fmt.Sprintf("%s not found", resource), http.StatusNotFound)
}

func BadRequest(message string) *AppError {
	return New(CodeValidationFailed, "validation", message, http.StatusBadRequest)
}

func LimitExceeded(domain, message string) *AppError {
	return New(CodeLimitExceeded, domain, message, http.StatusForbidden)
}

func InvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message, http.StatusBadRequest)
}
