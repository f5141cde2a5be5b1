// Package engine implements the provisioning reconciliation core: it
// surveys remote billing state, diffs it against the desired catalog,
// builds an ordered plan, and applies it. Plans are pure functions of
// (desired state, remote snapshot); the provider's own resource metadata
// is the only persistence.
package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies an error for retry and abort decisions.
type ErrorClass string

const (
	// ErrorClassTransient is a temporary failure that may succeed on retry,
	// such as a network timeout.
	ErrorClassTransient ErrorClass = "transient"

	// ErrorClassThrottled is provider rate limiting. Retried with a longer
	// backoff than transient failures.
	ErrorClassThrottled ErrorClass = "throttled"

	// ErrorClassPermanent is a non-recoverable failure: malformed
	// configuration, authentication, or a rejected request.
	ErrorClassPermanent ErrorClass = "permanent"
)

// Error codes for programmatic handling.
const (
	// ErrCodeConfigParse marks a malformed desired-state document.
	// Raised before any provider call is made.
	ErrCodeConfigParse = "CONFIG_PARSE"

	// ErrCodeProviderCall marks a failed provider list or mutate call.
	ErrCodeProviderCall = "PROVIDER_CALL"

	// ErrCodePolicy marks a plan rejected by the policy gate.
	ErrCodePolicy = "POLICY_DENIED"

	// ErrCodeValidation marks invalid tool configuration.
	ErrCodeValidation = "VALIDATION"
)

// BootstrapError is a classified error with resource and operation context.
type BootstrapError struct {
	Class     ErrorClass `json:"class"`
	Code      string     `json:"code,omitempty"`
	Message   string     `json:"message"`
	Resource  string     `json:"resource,omitempty"`
	Operation string     `json:"operation,omitempty"`
	Err       error      `json:"-"`
}

func (e *BootstrapError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Class, e.Message)
	if e.Resource != "" {
		msg += fmt.Sprintf(" (resource=%s", e.Resource)
		if e.Operation != "" {
			msg += fmt.Sprintf(", operation=%s", e.Operation)
		}
		msg += ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BootstrapError) Unwrap() error { return e.Err }

// Is matches on class and code so errors.Is can test categories.
func (e *BootstrapError) Is(target error) bool {
	t, ok := target.(*BootstrapError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// WithResource attaches the resource that caused the error.
func (e *BootstrapError) WithResource(resource string) *BootstrapError {
	e.Resource = resource
	return e
}

// WithOperation attaches the operation being performed.
func (e *BootstrapError) WithOperation(op string) *BootstrapError {
	e.Operation = op
	return e
}

// NewTransientError creates a transient-class error.
func NewTransientError(message string, err error) *BootstrapError {
	return &BootstrapError{Class: ErrorClassTransient, Message: message, Err: err}
}

// NewThrottledError creates a throttled-class error.
func NewThrottledError(message string, err error) *BootstrapError {
	return &BootstrapError{Class: ErrorClassThrottled, Message: message, Err: err}
}

// NewPermanentError creates a permanent-class error.
func NewPermanentError(message string, err error) *BootstrapError {
	return &BootstrapError{Class: ErrorClassPermanent, Message: message, Err: err}
}

// NewConfigParseError wraps a desired-state parse failure. Always fatal.
func NewConfigParseError(err error) *BootstrapError {
	return &BootstrapError{
		Class:   ErrorClassPermanent,
		Code:    ErrCodeConfigParse,
		Message: "invalid product configuration",
		Err:     err,
	}
}

// NewProviderCallError wraps a provider API failure, keeping the class of
// the underlying error when it is already classified.
func NewProviderCallError(op, resource string, err error) *BootstrapError {
	class := ErrorClassPermanent
	var be *BootstrapError
	if errors.As(err, &be) {
		class = be.Class
	}
	return &BootstrapError{
		Class:     class,
		Code:      ErrCodeProviderCall,
		Message:   "provider call failed",
		Resource:  resource,
		Operation: op,
		Err:       err,
	}
}

func classOf(err error) (ErrorClass, bool) {
	var be *BootstrapError
	if errors.As(err, &be) {
		return be.Class, true
	}
	return "", false
}

// IsTransient reports whether err is classified transient.
func IsTransient(err error) bool {
	class, ok := classOf(err)
	return ok && class == ErrorClassTransient
}

// IsThrottled reports whether err is classified throttled.
func IsThrottled(err error) bool {
	class, ok := classOf(err)
	return ok && class == ErrorClassThrottled
}

// IsPermanent reports whether err is classified permanent.
func IsPermanent(err error) bool {
	class, ok := classOf(err)
	return ok && class == ErrorClassPermanent
}

// IsRetryable reports whether the operation that produced err may be
// retried. Transient and throttled failures are retryable.
func IsRetryable(err error) bool {
	return IsTransient(err) || IsThrottled(err)
}
