// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import "atelier/internal/core/apperror"

// ListResponse wraps one page of a collection.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// NewErrorResponse renders an application error.
func NewErrorResponse(err *apperror.AppError) ErrorResponse {
	return ErrorResponse{Code: err.Code, Message: err.Message, Details: err.Details}
}

// InternalErrorResponse hides the cause and points at the request id in the logs.
func InternalErrorResponse(requestID string) ErrorResponse {
	return ErrorResponse{
		Code:    apperror.CodeInternal,
		Message: "Internal server error",
		Details: map[string]any{"requestId": requestID},
	}
}
