package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// QueryService is the remote data service behind the dashboard.
type QueryService interface {
	InitialData(ctx context.Context, recordID string) (*DashboardPayload, error)
	DataForBAC(ctx context.Context, recordID, bac string) (*DashboardPayload, error)
}

type ErrorBody struct {
	Message string `json:"message"`
}

// FetchError is a failed call to the data service. Body carries the
// service's own explanation when it sent one.
type FetchError struct {
	Status  int
	Body    *ErrorBody
	Message string
}

func (e *FetchError) Error() string {
	if e.Body != nil && e.Body.Message != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Body.Message)
	}
	return e.Message
}

// ErrorMessage returns the text shown to the user for a failed fetch: the
// service body message when present, otherwise the error's own message.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		if fe.Body != nil && fe.Body.Message != "" {
			return fe.Body.Message
		}
		return fe.Message
	}
	return err.Error()
}

func notFound(format string, args ...any) *FetchError {
	msg := fmt.Sprintf(format, args...)
	return &FetchError{
		Status:  http.StatusNotFound,
		Body:    &ErrorBody{Message: msg},
		Message: "data service request failed",
	}
}
