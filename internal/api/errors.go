package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/libreseed/registry/internal/archive"
	"github.com/libreseed/registry/internal/authz"
	"github.com/libreseed/registry/internal/index"
	"github.com/libreseed/registry/internal/registry"
	"github.com/libreseed/registry/internal/semver"
	"github.com/libreseed/registry/internal/signature"
	"github.com/libreseed/registry/internal/storage"
)

// ErrorCode is the registry's own taxonomy (spec.md §7, enumerated in
// SPEC_FULL.md §10), distinct from pkg/api/errors.go's generic
// BAD_REQUEST/CONFLICT codes but kept in the same envelope shape.
type ErrorCode string

const (
	ErrCodeInvalidIdentifier  ErrorCode = "INVALID_IDENTIFIER"
	ErrCodeMalformedArchive   ErrorCode = "MALFORMED_ARCHIVE"
	ErrCodeNoDescriptor       ErrorCode = "NO_DESCRIPTOR"
	ErrCodeBadSignatureLength ErrorCode = "BAD_SIGNATURE_LENGTH"
	ErrCodeUnauthorized       ErrorCode = "UNAUTHORIZED"
	ErrCodeUnknownPublisher   ErrorCode = "UNKNOWN_PUBLISHER"
	ErrCodeUnknownNamespace   ErrorCode = "UNKNOWN_NAMESPACE"
	ErrCodeUnknownPackage     ErrorCode = "UNKNOWN_PACKAGE"
	ErrCodeUnknownPackageKey  ErrorCode = "UNKNOWN_PACKAGE_KEY"
	ErrCodeNamespaceExists    ErrorCode = "NAMESPACE_EXISTS"
	ErrCodePackageExists      ErrorCode = "PACKAGE_EXISTS"
	ErrCodeVersionNotAhead    ErrorCode = "VERSION_NOT_AHEAD"
	ErrCodePayloadTooLarge    ErrorCode = "PAYLOAD_TOO_LARGE"
	ErrCodeBadRequest         ErrorCode = "BAD_REQUEST"
	ErrCodeInfrastructure     ErrorCode = "INFRASTRUCTURE"
)

// ErrorDetail mirrors pkg/api/errors.go's ErrorDetail, extended with the
// registry's ErrorCode type.
type ErrorDetail struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse is the JSON envelope every error response uses.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// APIError pairs a registry ErrorCode with the HTTP status it maps to,
// matching pkg/api/errors.go's APIError shape.
type APIError struct {
	Code       ErrorCode
	Message    string
	StatusCode int
}

func (e *APIError) Error() string { return e.Message }

func newAPIError(code ErrorCode, message string, status int) *APIError {
	return &APIError{Code: code, Message: message, StatusCode: status}
}

// WriteError renders err as the standard error envelope, resolving it to
// an APIError via MapError first if it isn't one already.
func WriteError(w http.ResponseWriter, err error) {
	apiErr, ok := err.(*APIError)
	if !ok {
		apiErr = MapError(err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.StatusCode)
	json.NewEncoder(w).Encode(ErrorResponse{Error: ErrorDetail{Code: apiErr.Code, Message: apiErr.Message}})
}

// MapError maps a domain error from internal/identifier, internal/archive,
// internal/signature, internal/index, internal/authz, internal/registry,
// or internal/storage onto spec.md §7's HTTP status taxonomy.
func MapError(err error) *APIError {
	switch {
	case errors.Is(err, registry.ErrInvalidIdentifier), errors.Is(err, semver.ErrInvalidVersion):
		return newAPIError(ErrCodeInvalidIdentifier, err.Error(), http.StatusBadRequest)
	case errors.Is(err, archive.ErrMalformedArchive):
		return newAPIError(ErrCodeMalformedArchive, err.Error(), http.StatusBadRequest)
	case errors.Is(err, archive.ErrNoDescriptor), errors.Is(err, archive.ErrDescriptorTooLarge):
		return newAPIError(ErrCodeNoDescriptor, err.Error(), http.StatusBadRequest)
	case errors.Is(err, signature.ErrBadSignatureLength):
		return newAPIError(ErrCodeBadSignatureLength, err.Error(), http.StatusBadRequest)
	case errors.Is(err, signature.ErrUnrecoverable), errors.Is(err, signature.ErrBadPublicKey):
		return newAPIError(ErrCodeBadSignatureLength, err.Error(), http.StatusBadRequest)

	case errors.Is(err, authz.ErrUnauthorized):
		return newAPIError(ErrCodeUnauthorized, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, index.ErrUnknownPublisher):
		return newAPIError(ErrCodeUnknownPublisher, err.Error(), http.StatusUnauthorized)

	case errors.Is(err, index.ErrUnknownNamespace):
		return newAPIError(ErrCodeUnknownNamespace, err.Error(), http.StatusNotFound)
	case errors.Is(err, index.ErrUnknownPackage):
		return newAPIError(ErrCodeUnknownPackage, err.Error(), http.StatusNotFound)
	case errors.Is(err, index.ErrUnknownVersion), errors.Is(err, registry.ErrUnknownPackageKey), errors.Is(err, storage.ErrNotFound):
		return newAPIError(ErrCodeUnknownPackageKey, err.Error(), http.StatusNotFound)
	case errors.Is(err, registry.ErrInvalidPackageKey):
		return newAPIError(ErrCodeBadRequest, err.Error(), http.StatusBadRequest)

	case errors.Is(err, index.ErrNamespaceExists):
		return newAPIError(ErrCodeNamespaceExists, err.Error(), http.StatusConflict)
	case errors.Is(err, index.ErrPublisherExists):
		return newAPIError(ErrCodeNamespaceExists, err.Error(), http.StatusConflict)
	case errors.Is(err, index.ErrPackageExists), errors.Is(err, index.ErrVersionExists):
		return newAPIError(ErrCodePackageExists, err.Error(), http.StatusConflict)
	case errors.Is(err, registry.ErrConflict):
		return newAPIError(ErrCodePackageExists, err.Error(), http.StatusConflict)
	case errors.Is(err, index.ErrVersionNotAhead):
		return newAPIError(ErrCodeVersionNotAhead, err.Error(), http.StatusConflict)

	case errors.Is(err, registry.ErrPayloadTooLarge):
		return newAPIError(ErrCodePayloadTooLarge, err.Error(), http.StatusRequestEntityTooLarge)

	default:
		return newAPIError(ErrCodeInfrastructure, "internal error", http.StatusInternalServerError)
	}
}
