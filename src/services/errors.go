package services

import (
	"errors"
	"fmt"
	"strings"

	"assetfolio/src/repositories"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrNotFound         = errors.New("not found")
	ErrCapacityExceeded = errors.New("capacity exceeded")
	ErrConflict         = errors.New("conflict")
)

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func notFound(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// amountScale is the number of decimal places stored for quantities, amounts and prices.
const amountScale = 4

// validateAmount rejects negative values and values with more decimal places
// than the store keeps, so what is echoed back is what gets persisted.
func validateAmount(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return invalidArgument("%s must be a non-negative number", field)
	}
	if !d.Equal(d.Truncate(amountScale)) {
		return invalidArgument("%s must have at most %d decimal places", field, amountScale)
	}
	return nil
}

// translateNotFound rewrites a repository miss into the service error for what.
func translateNotFound(err error, what string, id int) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return notFound("%s %d not found", what, id)
	}
	return err
}

// CapacityError carries the numbers behind a rejected allocation change.
type CapacityError struct {
	TotalOwned    decimal.Decimal
	UsedElsewhere decimal.Decimal
	Requested     decimal.Decimal
	shrink        bool
}

func newCapacityError(total, used, requested decimal.Decimal) *CapacityError {
	return &CapacityError{TotalOwned: total, UsedElsewhere: used, Requested: requested}
}

// newShrinkError reports an owned quantity edit that would fall below what
// portfolios already claim. Requested is the new owned quantity.
func newShrinkError(allocated, requested decimal.Decimal) *CapacityError {
	return &CapacityError{TotalOwned: requested, UsedElsewhere: allocated, Requested: requested, shrink: true}
}

func (e *CapacityError) Error() string {
	if e.shrink {
		return fmt.Sprintf("cannot reduce owned quantity to %s: %s is allocated to portfolios",
			e.Requested.String(), e.UsedElsewhere.String())
	}
	return fmt.Sprintf("requested quantity %s exceeds available %s (total owned %s, allocated elsewhere %s)",
		e.Requested.String(), e.Available().String(), e.TotalOwned.String(), e.UsedElsewhere.String())
}

func (e *CapacityError) Unwrap() error { return ErrCapacityExceeded }

func (e *CapacityError) Available() decimal.Decimal {
	return e.TotalOwned.Sub(e.UsedElsewhere)
}

// ConflictError lists the portfolios whose allocations block a holding delete.
type ConflictError struct {
	Portfolios []string
}

func (e *ConflictError) Error() string {
	return "holding is allocated to portfolios: " + strings.Join(e.Portfolios, ", ")
}

func (e *ConflictError) Unwrap() error { return ErrConflict }
