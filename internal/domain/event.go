package domain

import (
	"time"

	"github.com/google/uuid"
)

// Event is the closed set of domain events raised by the Cart and Order
// aggregates. Aggregates buffer events until a publisher marks them committed.
type Event interface {
	Name() string
	OccurredAt() time.Time

	isEvent()
}

type OrderPlaced struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	CustomerID  string    `json:"customer_id"`
	Total       string    `json:"total"`
	At          time.Time `json:"at"`
}

type OrderPaid struct {
	OrderID   uuid.UUID `json:"order_id"`
	PaymentID string    `json:"payment_id"`
	At        time.Time `json:"at"`
}

type OrderShipped struct {
	OrderID        uuid.UUID `json:"order_id"`
	ShipmentID     string    `json:"shipment_id"`
	TrackingNumber string    `json:"tracking_number"`
	Carrier        string    `json:"carrier"`
	At             time.Time `json:"at"`
}

type OrderDelivered struct {
	OrderID uuid.UUID `json:"order_id"`
	At      time.Time `json:"at"`
}

type OrderCancelled struct {
	OrderID uuid.UUID `json:"order_id"`
	Reason  string    `json:"reason"`
	At      time.Time `json:"at"`
}

type OrderRefunded struct {
	OrderID uuid.UUID `json:"order_id"`
	At      time.Time `json:"at"`
}

type CartCleared struct {
	CartID  uuid.UUID `json:"cart_id"`
	OwnerID string    `json:"owner_id"`
	At      time.Time `json:"at"`
}

func (OrderPlaced) Name() string    { return "order.placed" }
func (OrderPaid) Name() string      { return "order.paid" }
func (OrderShipped) Name() string   { return "order.shipped" }
func (OrderDelivered) Name() string { return "order.delivered" }
func (OrderCancelled) Name() string { return "order.cancelled" }
func (OrderRefunded) Name() string  { return "order.refunded" }
func (CartCleared) Name() string    { return "cart.cleared" }

func (e OrderPlaced) OccurredAt() time.Time    { return e.At }
func (e OrderPaid) OccurredAt() time.Time      { return e.At }
func (e OrderShipped) OccurredAt() time.Time   { return e.At }
func (e OrderDelivered) OccurredAt() time.Time { return e.At }
func (e OrderCancelled) OccurredAt() time.Time { return e.At }
func (e OrderRefunded) OccurredAt() time.Time  { return e.At }
func (e CartCleared) OccurredAt() time.Time    { return e.At }

func (OrderPlaced) isEvent()    {}
func (OrderPaid) isEvent()      {}
func (OrderShipped) isEvent()   {}
func (OrderDelivered) isEvent() {}
func (OrderCancelled) isEvent() {}
func (OrderRefunded) isEvent()  {}
func (CartCleared) isEvent()    {}
