package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Order is the aggregate root of a placed order. It owns its item
// snapshots, pricing breakdown and the three status fields, and is
// mutated only through the named lifecycle methods below. Orders are
// never deleted, only terminally transitioned.
type Order struct {
	ID          uuid.UUID
	OrderNumber string
	CustomerID  string
	OrderedAt   time.Time

	Items           []OrderItem
	ShippingAddress Address
	BillingAddress  Address
	Pricing         Pricing
	PaymentMethod   string

	Status         OrderStatus
	PaymentStatus  PaymentStatus
	ShippingStatus ShippingStatus

	PaymentID      string
	ShipmentID     string
	TrackingNumber string
	Carrier        string
	Notes          string

	PaidAt      *time.Time
	ShippedAt   *time.Time
	DeliveredAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	events []Event
}

type NewOrderParams struct {
	OrderNumber     string
	CustomerID      string
	OrderedAt       time.Time
	Items           []OrderItem
	ShippingAddress Address
	BillingAddress  Address
	Pricing         Pricing
	PaymentMethod   string
	Notes           string
}

// NewOrder validates the supplied pricing breakdown against an independent
// recomputation from the items. This deliberately duplicates the pricing
// engine's own validation as a second guard at the aggregate boundary.
func NewOrder(params NewOrderParams) (*Order, error) {
	if err := ValidateOrderNumber(params.OrderNumber); err != nil {
		return nil, ValidationError{Field: "orderNumber", Message: err.Error()}
	}

	if params.CustomerID == "" {
		return nil, ValidationError{Field: "customerID", Message: "is empty"}
	}

	if len(params.Items) == 0 {
		return nil, ValidationError{Field: "items", Message: "are empty"}
	}

	for i, item := range params.Items {
		if err := item.Validate(); err != nil {
			return nil, ValidationError{Field: fmt.Sprintf("items[%d]", i), Message: err.Error()}
		}
	}

	if err := params.ShippingAddress.Validate(); err != nil {
		return nil, ValidationError{Field: "shippingAddress", Message: err.Error()}
	}

	billing := params.BillingAddress
	if billing.IsZero() {
		billing = params.ShippingAddress
	}
	if err := billing.Validate(); err != nil {
		return nil, ValidationError{Field: "billingAddress", Message: err.Error()}
	}

	if err := params.Pricing.Validate(); err != nil {
		return nil, ValidationError{Field: "pricing", Message: err.Error()}
	}

	subtotal := ZeroMoney(params.Pricing.Subtotal.Currency)
	for i, item := range params.Items {
		var err error
		subtotal, err = subtotal.Add(item.Total())
		if err != nil {
			return nil, ValidationError{Field: fmt.Sprintf("items[%d]", i), Message: err.Error()}
		}
	}

	if subtotal.Amount.Sub(params.Pricing.Subtotal.Amount).Abs().GreaterThan(PriceTolerance) {
		return nil, ValidationError{
			Field:   "pricing",
			Message: fmt.Sprintf("subtotal[%s] does not match sum of item totals[%s]", params.Pricing.Subtotal.Amount, subtotal.Amount),
		}
	}

	orderedAt := params.OrderedAt
	if orderedAt.IsZero() {
		orderedAt = time.Now().UTC()
	}

	o := &Order{
		OrderNumber:     params.OrderNumber,
		CustomerID:      params.CustomerID,
		OrderedAt:       orderedAt,
		Items:           params.Items,
		ShippingAddress: params.ShippingAddress,
		BillingAddress:  billing,
		Pricing:         params.Pricing,
		PaymentMethod:   params.PaymentMethod,
		Notes:           params.Notes,
		Status:          OrderStatusPending,
		PaymentStatus:   PaymentStatusPending,
		ShippingStatus:  ShippingStatusPending,
	}

	return o, nil
}

// Place records the placement event once the order has an identity.
func (o *Order) Place() {
	o.record(OrderPlaced{
		OrderID:     o.ID,
		OrderNumber: o.OrderNumber,
		CustomerID:  o.CustomerID,
		Total:       o.Pricing.Total.String(),
		At:          time.Now().UTC(),
	})
}

func (o *Order) Pay(paymentID string) error {
	if o.Status != OrderStatusPending {
		return BusinessError{Message: fmt.Sprintf("订单状态为%s, 不能支付", o.Status)}
	}

	if o.PaymentStatus != PaymentStatusPending {
		return BusinessError{Message: fmt.Sprintf("支付状态为%s, 不能支付", o.PaymentStatus)}
	}

	now := time.Now().UTC()

	o.Status = OrderStatusPaid
	o.PaymentStatus = PaymentStatusCompleted
	o.PaymentID = paymentID
	o.PaidAt = &now

	o.record(OrderPaid{OrderID: o.ID, PaymentID: paymentID, At: now})
	return nil
}

func (o *Order) StartProcessing() error {
	if o.Status != OrderStatusPaid {
		return BusinessError{Message: fmt.Sprintf("订单状态为%s, 不能开始处理", o.Status)}
	}

	o.Status = OrderStatusProcessing
	o.ShippingStatus = ShippingStatusPreparing
	return nil
}

func (o *Order) Ship(shipmentID, trackingNumber, carrier string) error {
	if o.Status != OrderStatusProcessing {
		return BusinessError{Message: fmt.Sprintf("订单状态为%s, 不能发货", o.Status)}
	}

	now := time.Now().UTC()

	o.Status = OrderStatusShipped
	o.ShippingStatus = ShippingStatusShipped
	o.ShipmentID = shipmentID
	o.TrackingNumber = trackingNumber
	o.Carrier = carrier
	o.ShippedAt = &now

	o.record(OrderShipped{
		OrderID:        o.ID,
		ShipmentID:     shipmentID,
		TrackingNumber: trackingNumber,
		Carrier:        carrier,
		At:             now,
	})
	return nil
}

func (o *Order) Deliver() error {
	if o.Status != OrderStatusShipped {
		return BusinessError{Message: fmt.Sprintf("订单状态为%s, 不能确认送达", o.Status)}
	}

	now := time.Now().UTC()

	o.Status = OrderStatusDelivered
	o.ShippingStatus = ShippingStatusDelivered
	o.DeliveredAt = &now

	o.record(OrderDelivered{OrderID: o.ID, At: now})
	return nil
}

func (o *Order) Complete() error {
	if o.Status != OrderStatusDelivered {
		return BusinessError{Message: fmt.Sprintf("订单状态为%s, 不能完成", o.Status)}
	}

	o.Status = OrderStatusCompleted
	return nil
}

// Cancel is rejected once the order has shipped. Cancelling a paid order
// also flips the payment status to refunded.
func (o *Order) Cancel(reason string) error {
	switch o.Status {
	case OrderStatusShipped:
		return BusinessError{Message: "已发货的订单不能取消"}
	case OrderStatusDelivered:
		return BusinessError{Message: "已送达的订单不能取消"}
	case OrderStatusCompleted:
		return BusinessError{Message: "已完成的订单不能取消"}
	case OrderStatusCancelled, OrderStatusRefunded:
		return BusinessError{Message: fmt.Sprintf("订单状态为%s, 不能取消", o.Status)}
	}

	if o.PaymentStatus == PaymentStatusCompleted {
		o.PaymentStatus = PaymentStatusRefunded
	}

	o.Status = OrderStatusCancelled

	o.record(OrderCancelled{OrderID: o.ID, Reason: reason, At: time.Now().UTC()})
	return nil
}

func (o *Order) Refund() error {
	if o.PaymentStatus != PaymentStatusCompleted {
		return BusinessError{Message: fmt.Sprintf("支付状态为%s, 不能退款", o.PaymentStatus)}
	}

	o.Status = OrderStatusRefunded
	o.PaymentStatus = PaymentStatusRefunded

	o.record(OrderRefunded{OrderID: o.ID, At: time.Now().UTC()})
	return nil
}

// Events returns the uncommitted domain events of this order.
func (o *Order) Events() []Event {
	return o.events
}

func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) record(e Event) {
	o.events = append(o.events, e)
}
