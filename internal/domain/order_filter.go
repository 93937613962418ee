package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderFilter has AND semantics across fields, OR semantics within each field slice
type OrderFilter struct {
	IDs          []uuid.UUID
	OrderNumbers []string
	CustomerIDs  []string
	Statuses     []OrderStatus
	OrderedAt    *TimeRange
}

func (f OrderFilter) Validate() error {
	if len(f.IDs) == 0 && len(f.OrderNumbers) == 0 && len(f.CustomerIDs) == 0 && len(f.Statuses) == 0 && f.OrderedAt == nil {
		return errors.New("all fields are empty")
	}

	for _, number := range f.OrderNumbers {
		if err := ValidateOrderNumber(number); err != nil {
			return fmt.Errorf("orderNumbers: %w", err)
		}
	}

	if f.OrderedAt != nil {
		if err := f.OrderedAt.Validate(); err != nil {
			return fmt.Errorf("orderedAt: %w", err)
		}
	}

	return nil
}

type TimeRange struct {
	Before *time.Time
	After  *time.Time
}

func (t TimeRange) Validate() error {
	if t.Before == nil && t.After == nil {
		return errors.New("both Before and After are nil")
	}

	if t.Before != nil && t.After != nil {
		if t.Before.Before(*t.After) {
			return fmt.Errorf("before is before After")
		}
	}

	return nil
}
