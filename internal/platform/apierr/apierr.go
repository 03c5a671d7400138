package apierr

import (
	"errors"
	"fmt"
	"net/http"

	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
)

type Error struct {
	Status int
	Code   string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	if e.Code != "" {
		return e.Code
	}
	if e.Status != 0 {
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

// From maps an aggregate error code onto an HTTP status. 5xx errors carry a
// generic message so storage details never leave the process.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	code := domainagg.CodeOf(err)
	switch code {
	case domainagg.CodeValidation:
		return New(http.StatusBadRequest, string(code), errors.New(domainagg.PublicMessage(err)))
	case domainagg.CodeNotFound:
		return New(http.StatusNotFound, string(code), errors.New(domainagg.PublicMessage(err)))
	case domainagg.CodeInvalidState:
		return New(http.StatusConflict, string(code), errors.New(domainagg.PublicMessage(err)))
	case domainagg.CodePersistence:
		return New(http.StatusInternalServerError, string(code), errors.New("internal error"))
	default:
		return New(http.StatusInternalServerError, string(domainagg.CodeInternal), errors.New("internal error"))
	}
}
