package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// OrderItem is a snapshot of a product line at order-placement time,
// so later catalog changes cannot retroactively alter a placed order.
type OrderItem struct {
	ProductID   uuid.UUID
	ProductName string
	SKU         string
	Quantity    int
	UnitPrice   Money
	Discount    Money

	CreatedAt time.Time
}

func (i OrderItem) Validate() error {
	if i.ProductID == uuid.Nil {
		return fmt.Errorf("product id is empty")
	}

	if i.Quantity <= 0 {
		return fmt.Errorf("quantity[%d] is not positive", i.Quantity)
	}

	if err := i.UnitPrice.Validate(); err != nil {
		return fmt.Errorf("unit price: %w", err)
	}

	if err := i.Discount.Validate(); err != nil {
		return fmt.Errorf("discount: %w", err)
	}

	return nil
}

// Total is unitPrice*quantity - discount.
func (i OrderItem) Total() Money {
	gross := i.UnitPrice.MulInt(int64(i.Quantity))

	total, err := gross.Sub(i.Discount)
	if err != nil {
		// discount exceeding the gross amount is rejected by Validate;
		// clamp to zero instead of going negative
		return ZeroMoney(i.UnitPrice.Currency)
	}

	return total
}
