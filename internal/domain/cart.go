package domain

import (
	"time"

	"github.com/google/uuid"
)

type CartItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
	UnitPrice   Money

	CreatedAt time.Time
}

type Cart struct {
	ID      uuid.UUID
	OwnerID string
	Items   []CartItem

	CreatedAt time.Time
	UpdatedAt time.Time

	events []Event
}

func (c *Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

func (c *Cart) Clear() {
	if c.IsEmpty() {
		return
	}

	c.Items = nil
	c.record(CartCleared{CartID: c.ID, OwnerID: c.OwnerID, At: time.Now().UTC()})
}

// Events returns the uncommitted domain events of this cart.
func (c *Cart) Events() []Event {
	return c.events
}

func (c *Cart) ClearEvents() {
	c.events = nil
}

func (c *Cart) record(e Event) {
	c.events = append(c.events, e)
}
