package handraise

import (
	"strings"

	"github.com/goliatone/go-errors"
)

const (
	// TextCodeUnauthenticated marks requests carrying no usable credential
	TextCodeUnauthenticated = "UNAUTHENTICATED"
	// TextCodeTokenExpired marks tokens past their expiry
	TextCodeTokenExpired = "TOKEN_EXPIRED"
	// TextCodeTokenMalformed marks tokens that fail signature or parsing
	TextCodeTokenMalformed = "TOKEN_MALFORMED"
	// TextCodeForbidden marks role mismatches against an allowed set
	TextCodeForbidden = "FORBIDDEN"
	// TextCodeResetTokenInvalid marks invalid or expired recovery tokens
	TextCodeResetTokenInvalid = "RESET_TOKEN_INVALID"
	// TextCodeDeliveryFailure marks recovery e-mail dispatch failures
	TextCodeDeliveryFailure = "DELIVERY_FAILURE"
)

// ErrUnauthenticated is returned when the request carries no credential at all.
var ErrUnauthenticated = errors.New("missing authentication credential", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeUnauthenticated)

// ErrTokenExpired is returned when a bearer token is past its expiry.
var ErrTokenExpired = errors.New("authentication token has expired", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenExpired)

// ErrTokenMalformed is returned when a bearer token fails signature or parsing.
var ErrTokenMalformed = errors.New("authentication token is malformed", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized).
	WithTextCode(TextCodeTokenMalformed)

// ErrUserNotFound is returned when an email resolves to no user, on login and
// forgot-password. The session gate never uses it; a deleted token subject is
// an auth failure there.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound)

// ErrForbidden is returned when the resolved role is not in the allowed set.
var ErrForbidden = errors.New("insufficient role for this resource", errors.CategoryAuthz).
	WithCode(errors.CodeForbidden).
	WithTextCode(TextCodeForbidden)

// ErrResetTokenInvalid covers unknown, consumed, and expired recovery tokens.
// The three cases are deliberately indistinguishable to the caller.
var ErrResetTokenInvalid = errors.New("reset token is invalid or has expired", errors.CategoryValidation).
	WithCode(errors.CodeBadRequest).
	WithTextCode(TextCodeResetTokenInvalid)

// ErrDeliveryFailure is returned when the recovery e-mail could not be sent.
var ErrDeliveryFailure = errors.New("could not deliver the recovery e-mail", errors.CategoryOperation).
	WithCode(errors.CodeInternal).
	WithTextCode(TextCodeDeliveryFailure)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = errors.New("identity not found", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrMismatchedHashAndPassword is returned when a password comparison fails
var ErrMismatchedHashAndPassword = errors.New("credentials do not match", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrTooManyLoginAttempts is returned once the cool down threshold is hit
var ErrTooManyLoginAttempts = errors.New("too many login attempts", errors.CategoryRateLimit)

// ErrNoEmptyString rejects empty secrets before hashing
var ErrNoEmptyString = errors.New("value must not be empty", errors.CategoryBadInput)

// ErrEmailTaken is returned on registration with an already registered email.
// It answers 400 like any other rejected registration payload.
var ErrEmailTaken = errors.New("email is already registered", errors.CategoryConflict).
	WithCode(errors.CodeBadRequest)

// ErrUnableToFindSession is the error when our request has no cookie
var ErrUnableToFindSession = errors.New("unable to find session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToDecodeSession unable to decode JWT from session cookie
var ErrUnableToDecodeSession = errors.New("unable to decode session", errors.CategoryAuth).
	WithCode(errors.CodeUnauthorized)

// ErrUnableToParseData parse error
var ErrUnableToParseData = errors.New("unable to parse data", errors.CategoryBadInput)

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrTokenExpired) {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}

// IsMalformedError will check for error message
func IsMalformedError(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "token is malformed") ||
		strings.Contains(err.Error(), "missing or malformed JWT")
}
