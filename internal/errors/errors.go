package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	apierrors "k8s.io/apimachinery/pkg/api/errors"
)

// Transient errors indicate temporary conditions that should be retried with backoff.

// ErrTransientConnection indicates a transient connection error that should be retried.
// This includes timeouts, connection refused, DNS resolution failures, and network unreachable errors.
var ErrTransientConnection = errors.New("transient connection error")

// ErrTransientKubernetesAPI indicates a transient Kubernetes API error that should be retried.
// This includes conflicts, throttling, temporary server errors, and objects not yet observed.
var ErrTransientKubernetesAPI = errors.New("transient Kubernetes API error")

// Permanent errors require a spec change. They are written to status and are not requeued.

// ErrPermanentConfig indicates an error in the declared Trustify spec, such as an
// unresolvable hostname or an enabled external identity provider without its sub-spec.
var ErrPermanentConfig = errors.New("permanent configuration error")

// ErrPermanentPrerequisitesMissing indicates a collaborator the operator cannot create
// itself is absent, e.g. an explicitly referenced secret.
var ErrPermanentPrerequisitesMissing = errors.New("permanent prerequisites missing")

// ErrInvariantViolation indicates two owners disagree on a singleton slot, for example
// an object with the desired name that is controlled by something else. It is fatal for
// the affected kind only.
var ErrInvariantViolation = errors.New("invariant violation")

// reasonError carries a short CamelCase reason alongside the wrapped error.
type reasonError struct {
	reason string
	err    error
}

func (e *reasonError) Error() string { return e.err.Error() }
func (e *reasonError) Unwrap() error { return e.err }

// WithReason attaches a condition reason to err. The reason is surfaced on the
// HasErrors/Ready conditions and as the reason label of the error metric.
func WithReason(err error, reason string) error {
	if err == nil {
		return nil
	}
	return &reasonError{reason: reason, err: err}
}

// Reason returns the outermost reason attached with WithReason, or a reason derived
// from the error class when none was attached.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	var re *reasonError
	if errors.As(err, &re) {
		return re.reason
	}
	switch {
	case IsInvariantViolation(err):
		return "InvariantViolation"
	case errors.Is(err, ErrPermanentPrerequisitesMissing):
		return "PrerequisitesMissing"
	case errors.Is(err, ErrPermanentConfig):
		return "InvalidConfiguration"
	case IsTransient(err):
		return "TransientError"
	default:
		return "ReconcileError"
	}
}

// IsTransientConnection checks if an error is a transient connection error.
func IsTransientConnection(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTransientConnection) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	transientPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timeout",
		"context deadline exceeded",
		"i/o timeout",
		"no such host",
		"network is unreachable",
		"temporary failure",
		"dial tcp",
		"connection closed",
		"broken pipe",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

// IsTransientKubernetesAPI checks if an error is a transient Kubernetes API error.
func IsTransientKubernetesAPI(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTransientKubernetesAPI) {
		return true
	}

	if apierrors.IsConflict(err) ||
		apierrors.IsTooManyRequests(err) ||
		apierrors.IsServerTimeout(err) ||
		apierrors.IsTimeout(err) ||
		apierrors.IsServiceUnavailable(err) ||
		apierrors.IsInternalError(err) {
		return true
	}

	errStr := strings.ToLower(err.Error())

	transientPatterns := []string{
		"rate limit",
		"too many requests",
		"service unavailable",
		"internal server error",
		"context deadline exceeded",
		"the object has been modified",
	}

	for _, pattern := range transientPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}

	return false
}

// WrapTransientConnection wraps an error as a transient connection error.
// If the error is already a transient connection error, it is returned as-is.
func WrapTransientConnection(err error) error {
	if err == nil {
		return nil
	}

	if IsTransientConnection(err) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrTransientConnection, err)
}

// WrapTransientKubernetesAPI wraps an error as a transient Kubernetes API error.
func WrapTransientKubernetesAPI(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrTransientKubernetesAPI) {
		return err
	}

	return fmt.Errorf("%w: %w", ErrTransientKubernetesAPI, err)
}

// WrapPermanentConfig wraps an error as a permanent configuration error.
func WrapPermanentConfig(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrPermanentConfig, err)
}

// WrapPermanentPrerequisitesMissing wraps an error as a permanent prerequisites missing error.
func WrapPermanentPrerequisitesMissing(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrPermanentPrerequisitesMissing, err)
}

// WrapInvariantViolation wraps an error as an invariant violation.
func WrapInvariantViolation(err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %w", ErrInvariantViolation, err)
}

// WrapKubernetesAPI classifies an error returned by the Kubernetes client.
// Missing CRDs become configuration errors, everything else is treated as transient.
func WrapKubernetesAPI(err error) error {
	if err == nil {
		return nil
	}
	if IsCRDMissingError(err) {
		return WrapCRDMissing(err)
	}
	if IsPermanent(err) || IsInvariantViolation(err) {
		return err
	}
	return WrapTransientKubernetesAPI(err)
}

// IsTransient checks if an error is transient (should be retried).
func IsTransient(err error) bool {
	if IsPermanent(err) || IsInvariantViolation(err) {
		return false
	}
	return IsTransientConnection(err) || IsTransientKubernetesAPI(err)
}

// IsPermanent checks if an error is permanent (requires user intervention).
func IsPermanent(err error) bool {
	if err == nil {
		return false
	}

	return errors.Is(err, ErrPermanentConfig) || errors.Is(err, ErrPermanentPrerequisitesMissing)
}

// IsInvariantViolation checks if an error is an invariant violation.
func IsInvariantViolation(err error) bool {
	return err != nil && errors.Is(err, ErrInvariantViolation)
}

// ShouldRequeue determines if an error should trigger a requeue.
// Returns (shouldRequeue, requeueAfter). A zero delay with shouldRequeue=true
// leaves the backoff to the controller work queue.
func ShouldRequeue(err error) (bool, time.Duration) {
	if err == nil {
		return false, 0
	}

	if IsPermanent(err) || IsInvariantViolation(err) {
		return false, 0
	}

	if IsTransientConnection(err) {
		return true, 5 * time.Second
	}

	return true, 0
}

// IsCRDMissingError checks if an error indicates that a CRD is not installed.
func IsCRDMissingError(err error) bool {
	if err == nil {
		return false
	}

	errStr := strings.ToLower(err.Error())
	return strings.Contains(errStr, "no matches for kind") ||
		strings.Contains(errStr, "no kind is registered for the type") ||
		strings.Contains(errStr, "could not find the requested resource")
}

// WrapCRDMissing wraps an error as a permanent config error for missing CRDs.
func WrapCRDMissing(err error) error {
	if err == nil {
		return nil
	}

	if IsCRDMissingError(err) {
		return WithReason(WrapPermanentConfig(fmt.Errorf("CRD not installed: %w", err)), "CRDNotInstalled")
	}

	return err
}
