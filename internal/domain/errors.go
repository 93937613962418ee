package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ValidationError reports malformed input or an invariant mismatch,
// e.g. a pricing breakdown which does not reconcile with its items.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NotFoundError reports a missing cart, order or product.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s[%s] not found", e.Entity, e.ID)
}

// BusinessError reports a rule violation: an empty cart,
// an illegal status transition, a coupon below its minimum.
type BusinessError struct {
	Message string
}

func (e BusinessError) Error() string {
	return e.Message
}

// ConflictError reports a write conflict: a duplicate order number
// or a lost inventory compare-and-swap.
type ConflictError struct {
	Message string
}

func (e ConflictError) Error() string {
	return e.Message
}

// ReservationFailure describes one item which could not be reserved.
type ReservationFailure struct {
	ProductID   uuid.UUID
	ProductName string
	Requested   int
	Available   int
	Reason      string
}

func (f ReservationFailure) String() string {
	return fmt.Sprintf("%s: 请求%d件, 可用%d件 (%s)", f.ProductName, f.Requested, f.Available, f.Reason)
}

// ReservationError aggregates every failing item of a reservation batch.
type ReservationError struct {
	Failures []ReservationFailure
}

func (e ReservationError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.String())
	}

	return "库存预留失败: " + strings.Join(parts, "; ")
}
