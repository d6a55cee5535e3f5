package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/access"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/query"
	"github.com/Skotchmaster/restaurant_orders/services/shop/internal/repo"
)

var (
	ErrValidation      = errors.New("validation")                           // 400
	ErrInvalidLineItem = fmt.Errorf("%w: invalid line item", ErrValidation) // 400
	ErrNotFound        = errors.New("not found")                            // 404
	ErrOrderNotFound   = fmt.Errorf("%w: order", ErrNotFound)               // 404
	ErrProductNotFound = fmt.Errorf("%w: product", ErrNotFound)             // 404
	ErrReviewNotFound  = fmt.Errorf("%w: review", ErrNotFound)              // 404
	ErrUnauthenticated = errors.New("unauthenticated")                      // 401
	ErrForbidden       = errors.New("forbidden")                            // 403
	ErrConflict        = errors.New("conflict")                             // 409
)

// LineItemError names the offending entry of an order's line list.
type LineItemError struct {
	Index     int
	ProductID uint
	Reason    string
}

func (e *LineItemError) Error() string {
	return fmt.Sprintf("items[%d] (product %d): %s", e.Index, e.ProductID, e.Reason)
}

func (e *LineItemError) Unwrap() error { return ErrInvalidLineItem }

type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Unwrap() error { return ErrValidation }

func fieldErr(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

func fromFilterError(err error) error {
	var fe *query.FilterError
	if errors.As(err, &fe) {
		return &FieldError{Field: fe.Param, Reason: fe.Reason}
	}
	return err
}

func authorize(caller *access.Caller, res access.Resource, op access.Op, owner uuid.UUID) error {
	d := access.Decide(caller, res, op, owner)
	if d.Allowed {
		return nil
	}
	if d.Kind == access.KindUnauthenticated {
		return fmt.Errorf("%w: %s", ErrUnauthenticated, d.Reason)
	}
	return fmt.Errorf("%w: %s", ErrForbidden, d.Reason)
}

// mapRepoError turns storage errors into service errors. notFound is used
// when the target row does not exist.
func mapRepoError(err, notFound error) error {
	switch {
	case err == nil:
		return nil
	case repo.IsNotFound(err):
		return notFound
	case repo.IsConstraint(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	}
	return err
}
