package constants

import "time"

// Requeue intervals used by the controller.
const (
	RequeueShort = 5 * time.Second

	RequeueSafetyNetBase   = 20 * time.Minute
	RequeueSafetyNetJitter = 5 * time.Minute

	// Work queue backoff bounds for transient failures.
	BackoffBase = 1 * time.Second
	BackoffMax  = 60 * time.Second
)

// SelfSignedCertValidity is the lifetime of self-issued TLS certificates.
const SelfSignedCertValidity = 10 * 365 * 24 * time.Hour
