package domain

import "errors"

// Kind classifies a failure so the API boundary can decide how to answer
// without knowing every individual error.
type Kind string

const (
	KindValidation      Kind = "VALIDATION"
	KindNotFound        Kind = "NOT_FOUND"
	KindAuthorization   Kind = "AUTHORIZATION"
	KindStateConflict   Kind = "STATE_CONFLICT"
	KindExternalGateway Kind = "EXTERNAL_GATEWAY"
	KindInternal        Kind = "INTERNAL"
)

// Error is a typed domain failure. Code is the stable, client-facing reason
// (e.g. "WINDOW_EXPIRED"); Msg is a human readable description.
type Error struct {
	Kind      Kind
	Code      string
	Msg       string
	retryable bool
}

func (e *Error) Error() string { return e.Msg }

// Retryable reports whether the caller may re-validate and try once more.
func (e *Error) Retryable() bool { return e.retryable }

func newErr(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError extracts the first *Error in err's chain.
func AsError(err error) (*Error, bool) {
	var de *Error
	ok := errors.As(err, &de)
	return de, ok
}

var (
	// Common domain errors
	ErrNotFound        = newErr(KindNotFound, "NOT_FOUND", "entity not found")
	ErrAlreadyExists   = newErr(KindStateConflict, "ALREADY_EXISTS", "entity already exists")
	ErrInvalidArgument = newErr(KindValidation, "INVALID_ARGUMENT", "invalid argument")
	ErrUnauthenticated = newErr(KindAuthorization, "UNAUTHENTICATED", "authentication required")
	ErrForbidden       = newErr(KindAuthorization, "FORBIDDEN", "operation not allowed for this role")
	ErrMalformedBody   = newErr(KindValidation, "MALFORMED_BODY", "request body is not valid JSON")
	ErrRateLimited     = &Error{Kind: KindStateConflict, Code: "RATE_LIMITED", Msg: "too many requests", retryable: true}

	// Storage errors
	ErrOperationFailed    = newErr(KindInternal, "OPERATION_FAILED", "database operation failed")
	ErrReadDatabaseRow    = newErr(KindInternal, "READ_ROW_FAILED", "failed to read database row")
	ErrInvalidExecContext = newErr(KindInternal, "INVALID_EXEC_CONTEXT", "invalid database execution context")
	ErrLockBusy           = &Error{Kind: KindStateConflict, Code: "LOCK_BUSY", Msg: "resource is being processed", retryable: true}

	// Fees
	ErrNegativePrice        = newErr(KindValidation, "NEGATIVE_PRICE", "price must not be negative")
	ErrNegativeDiscount     = newErr(KindValidation, "NEGATIVE_DISCOUNT", "discount must not be negative")
	ErrInvalidFeePercentage = newErr(KindValidation, "INVALID_FEE_PERCENTAGE", "platform fee percentage must be within [0,100]")
	ErrUnknownPaymentMethod = newErr(KindValidation, "UNKNOWN_PAYMENT_METHOD", "unknown payment method")

	// Coupons
	ErrCouponNotFound      = newErr(KindNotFound, "NOT_FOUND", "coupon not found or inactive")
	ErrCouponExhausted     = &Error{Kind: KindStateConflict, Code: "EXPIRED_OR_EXHAUSTED", Msg: "coupon expired or exhausted", retryable: true}
	ErrCouponAlreadyUsed   = newErr(KindStateConflict, "ALREADY_USED", "coupon already used by this user")
	ErrCouponNotApplicable = newErr(KindValidation, "NOT_APPLICABLE", "coupon does not apply to this course")
	ErrInvalidCoupon       = newErr(KindValidation, "INVALID_COUPON", "invalid coupon definition")
	ErrCouponCodeTaken     = newErr(KindStateConflict, "CODE_TAKEN", "coupon code already exists")

	// Payments
	ErrPaymentNotFound    = newErr(KindNotFound, "NOT_FOUND", "payment not found")
	ErrIllegalTransition  = newErr(KindStateConflict, "ILLEGAL_TRANSITION", "illegal payment status transition")
	ErrExternalIDConflict = newErr(KindStateConflict, "EXTERNAL_ID_CONFLICT", "payment already bound to another external id")
	ErrCourseNotFound     = newErr(KindNotFound, "NOT_FOUND", "course not found")

	// Subscriptions
	ErrSubscriptionNotFound   = newErr(KindNotFound, "NOT_FOUND", "subscription not found")
	ErrSubscriptionTerminated = newErr(KindStateConflict, "SUBSCRIPTION_CANCELLED", "subscription is cancelled")

	// Enrollments
	ErrEnrollmentNotFound = newErr(KindNotFound, "NOT_FOUND", "enrollment not found")

	// Refunds
	ErrRefundNotFound         = newErr(KindNotFound, "NOT_FOUND", "refund request not found")
	ErrRefundNotOwner         = newErr(KindAuthorization, "NOT_OWNER", "payment does not belong to user")
	ErrRefundNotCompleted     = newErr(KindStateConflict, "NOT_COMPLETED", "payment is not completed")
	ErrRefundWindowExpired    = newErr(KindStateConflict, "WINDOW_EXPIRED", "refund window has expired")
	ErrRefundAlreadyRequested = newErr(KindStateConflict, "ALREADY_REQUESTED", "an active refund request already exists")
	ErrRefundIllegalState     = newErr(KindStateConflict, "ILLEGAL_REFUND_STATE", "refund request cannot move to that state")

	// Webhooks
	ErrWebhookSignature = newErr(KindExternalGateway, "BAD_SIGNATURE", "webhook signature verification failed")
	ErrWebhookPayload   = newErr(KindExternalGateway, "BAD_PAYLOAD", "malformed webhook payload")
	ErrUnknownProvider  = newErr(KindExternalGateway, "UNKNOWN_PROVIDER", "unknown payment provider")
)
