package aggregates

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	domainagg "github.com/yungbote/breadlog-backend/internal/domain/aggregates"
	"github.com/yungbote/breadlog-backend/internal/domain/baking"
	"github.com/yungbote/breadlog-backend/internal/domain/catalog"
)

var (
	// ErrValidation indicates caller input validation failure.
	ErrValidation = errors.New("aggregate validation")
	// ErrInvalidState indicates an operation the current lifecycle state forbids.
	ErrInvalidState = errors.New("aggregate invalid state")
)

// ValidationError tags an error as validation failure.
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(strings.TrimSpace(msg)))
}

// InvalidStateError tags an error as a lifecycle violation.
func InvalidStateError(msg string) error {
	return errors.Join(ErrInvalidState, errors.New(strings.TrimSpace(msg)))
}

// MapError maps infrastructure/domain failures into aggregate error codes.
// Anything unrecognised is a persistence failure.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var aggErr *domainagg.Error
	if errors.As(err, &aggErr) {
		return err
	}
	switch {
	case errors.Is(err, ErrValidation):
		return domainagg.NewError(domainagg.CodeValidation, op, taggedMessage(err, ErrValidation), err)
	case errors.Is(err, ErrInvalidState):
		return domainagg.NewError(domainagg.CodeInvalidState, op, taggedMessage(err, ErrInvalidState), err)
	case errors.Is(err, catalog.ErrInvalidParamValue), errors.Is(err, baking.ErrInvalidRating):
		return domainagg.Wrap(domainagg.CodeValidation, op, err)
	case errors.Is(err, baking.ErrInvalidTransition):
		return domainagg.Wrap(domainagg.CodeInvalidState, op, err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return domainagg.Wrap(domainagg.CodeNotFound, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return domainagg.NewError(domainagg.CodePersistence, op, fmt.Sprintf("postgres %s: %s", pgErr.Code, pgErr.Message), err)
	}
	return domainagg.Wrap(domainagg.CodePersistence, op, err)
}

// taggedMessage drops the sentinel line errors.Join adds.
func taggedMessage(err, sentinel error) string {
	msg := strings.TrimSpace(strings.TrimPrefix(err.Error(), sentinel.Error()))
	if msg == "" {
		return sentinel.Error()
	}
	return msg
}
