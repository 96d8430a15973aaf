// Package apierror is the error envelope of the local API. Detail is shown to
// staff as is; Code is what the POS UI branches on.
package apierror

type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeValidation   Code = "validation"
	CodeUnauthorized Code = "unauthorized"
	CodeForbidden    Code = "forbidden"
	CodeNotFound     Code = "not_found"
	CodeNoStore      Code = "no_store"
	// CodeOffline means the write or read could not reach the record store.
	// Local writes are still accepted; only direct remote calls fail this way.
	CodeOffline  Code = "offline"
	CodeConflict Code = "conflict"
	CodeInternal Code = "internal"
)

type APIError struct {
	Code   Code   `json:"code"`
	Detail string `json:"detail"`
}

func New(code Code, msg string) *APIError {
	return &APIError{Code: code, Detail: msg}
}

// ValidationError carries one entry per rejected field: field name → failed tag.
type ValidationError struct {
	Code   Code              `json:"code"`
	Detail string            `json:"detail"`
	Fields map[string]string `json:"fields"`
}

func NewValidation(fields map[string]string) *ValidationError {
	return &ValidationError{Code: CodeValidation, Detail: "Error de validacion", Fields: fields}
}
