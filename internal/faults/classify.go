// Package faults classifies raw generation errors into a small taxonomy that
// decides whether a job fails terminally or falls back to sample content.
package faults

import (
	"errors"
	"strings"

	"github.com/veogen/veogen-api/internal/artifact"
	"github.com/veogen/veogen-api/internal/generator"
)

// Kind identifies a class of generation failure.
type Kind string

const (
	// KindCredentialMissing means no API key was supplied. Caught before any
	// remote call and rejected synchronously at submission.
	KindCredentialMissing Kind = "CREDENTIAL_MISSING"
	// KindQuotaExceeded means the provider reported resource exhaustion.
	// The only fallback-eligible kind.
	KindQuotaExceeded Kind = "QUOTA_EXCEEDED"
	// KindInvalidCredential means the supplied API key was rejected.
	KindInvalidCredential Kind = "INVALID_CREDENTIAL"
	// KindPermissionDenied means the key lacks access to the model or service.
	KindPermissionDenied Kind = "PERMISSION_DENIED"
	// KindNoResult means the remote operation finished without an artifact.
	KindNoResult Kind = "NO_RESULT"
	// KindFetchFailed means the artifact location answered with an error.
	KindFetchFailed Kind = "FETCH_FAILED"
	// KindEmptyArtifact means the fetched payload had zero length.
	KindEmptyArtifact Kind = "EMPTY_ARTIFACT"
	// KindUnknown covers everything else; the original message is preserved.
	KindUnknown Kind = "UNKNOWN"
)

// Known provider message markers, matched case-sensitively.
const (
	markerQuota             = "quota"
	markerResourceExhausted = "RESOURCE_EXHAUSTED"
	markerInvalidKey        = "API key not valid"
	markerPermission        = "permission to access"
)

// User-actionable rewrites for credential and permission failures.
const (
	invalidCredentialMessage = "The API key provided is not valid. " +
		"Please check for typos or generate a new key from Google AI Studio."
	permissionDeniedMessage = "The API key does not have permission for this model or service. " +
		"Please ensure the Generative Language API is enabled in your Google Cloud project."
)

// Classification is the outcome of classifying a raw error.
type Classification struct {
	// Kind is the failure class.
	Kind Kind
	// FallbackEligible reports whether the job may settle with a substituted
	// sample artifact instead of failing.
	FallbackEligible bool
	// Message is the user-facing error text: rewritten for credential and
	// permission failures, otherwise the original message.
	Message string
}

// Classify maps a raw error to its failure class. It is a pure function of
// the error's message text and sentinel identity; classifying the same error
// twice yields the same result.
func Classify(err error) Classification {
	if err == nil {
		return Classification{Kind: KindUnknown}
	}

	msg := err.Error()

	// Message markers take priority: a quota body wrapped in a transport
	// error still means quota.
	switch {
	case strings.Contains(msg, markerResourceExhausted) || strings.Contains(msg, markerQuota):
		return Classification{
			Kind:             KindQuotaExceeded,
			FallbackEligible: true,
			Message:          msg,
		}
	case strings.Contains(msg, markerInvalidKey):
		return Classification{
			Kind:    KindInvalidCredential,
			Message: invalidCredentialMessage,
		}
	case strings.Contains(msg, markerPermission):
		return Classification{
			Kind:    KindPermissionDenied,
			Message: permissionDeniedMessage,
		}
	}

	switch {
	case errors.Is(err, generator.ErrCredentialMissing):
		return Classification{Kind: KindCredentialMissing, Message: msg}
	case errors.Is(err, generator.ErrNoResult):
		return Classification{Kind: KindNoResult, Message: msg}
	case errors.Is(err, artifact.ErrEmptyArtifact):
		return Classification{Kind: KindEmptyArtifact, Message: msg}
	case errors.Is(err, artifact.ErrFetchFailed):
		return Classification{Kind: KindFetchFailed, Message: msg}
	}

	return Classification{Kind: KindUnknown, Message: msg}
}
