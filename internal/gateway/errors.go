package gateway

import (
	"errors"
	"strings"
)

// Sentinel failures surfaced by the gateway. Callers branch on these to
// decide whether a run can continue, must stop, or needs operator setup.
var (
	// ErrCredentialMissing means no API key was configured and none was
	// found in the environment.
	ErrCredentialMissing = errors.New("inference credential missing")

	// ErrQuotaExhausted means the provider reported the daily quota as
	// spent. Retrying is pointless until the quota window resets.
	ErrQuotaExhausted = errors.New("daily quota exhausted")

	// ErrMalformedResponse means the provider answered but the payload
	// could not be used.
	ErrMalformedResponse = errors.New("malformed provider response")
)

var quotaMarkers = []string{
	"current quota",
	"daily limit",
	"DAILY_QUOTA_EXHAUSTED",
}

var rateLimitMarkers = []string{
	"429",
	"RESOURCE_EXHAUSTED",
	"Too Many Requests",
}

// isQuotaExhausted reports whether the error text names a spent daily
// quota rather than a momentary rate limit.
func isQuotaExhausted(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range quotaMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// isRateLimited reports whether the error text indicates provider
// throttling that a longer backoff can outwait.
func isRateLimited(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, marker := range rateLimitMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
