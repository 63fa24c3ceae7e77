package utils

import (
	"errors"
	"net/http"
)

// Error kinds surfaced in the response envelope. Every failure in the
// pipeline maps to exactly one of these; none are retried.
const (
	KindUnsupportedFileType = "unsupported_file_type"
	KindFileTooLarge        = "file_too_large"
	KindEmptyDocument       = "empty_document"
	KindDocumentCorrupt     = "document_corrupt"
	KindMissingQuery        = "missing_query"
	KindProviderUnavailable = "provider_unavailable"
	KindProviderRejected    = "provider_rejected"
	KindBadRequest          = "bad_request"
	KindInternal            = "internal_error"
)

type AppError struct {
	Kind       string
	StatusCode int
	Message    string
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// AsAppError unwraps err into an *AppError if one is in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewUnsupportedFileTypeError(message string) *AppError {
	return &AppError{Kind: KindUnsupportedFileType, StatusCode: http.StatusBadRequest, Message: message}
}

func NewFileTooLargeError(message string) *AppError {
	return &AppError{Kind: KindFileTooLarge, StatusCode: http.StatusRequestEntityTooLarge, Message: message}
}

func NewEmptyDocumentError(message string) *AppError {
	return &AppError{Kind: KindEmptyDocument, StatusCode: http.StatusBadRequest, Message: message}
}

func NewDocumentCorruptError(message string, err error) *AppError {
	return &AppError{Kind: KindDocumentCorrupt, StatusCode: http.StatusUnprocessableEntity, Message: message, Err: err}
}

func NewMissingQueryError(message string) *AppError {
	return &AppError{Kind: KindMissingQuery, StatusCode: http.StatusBadRequest, Message: message}
}

func NewProviderUnavailableError(message string, err error) *AppError {
	return &AppError{Kind: KindProviderUnavailable, StatusCode: http.StatusServiceUnavailable, Message: message, Err: err}
}

func NewProviderRejectedError(message string, err error) *AppError {
	return &AppError{Kind: KindProviderRejected, StatusCode: http.StatusBadGateway, Message: message, Err: err}
}

func NewBadRequestError(message string) *AppError {
	return &AppError{Kind: KindBadRequest, StatusCode: http.StatusBadRequest, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{Kind: KindInternal, StatusCode: http.StatusInternalServerError, Message: message}
}
