package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/samber/lo"
)

var ErrNotFound = errors.New("order not found")

const orderColumns = `
	id, order_number, customer_id, ordered_at, payment_method,
	status, payment_status, shipping_status,
	subtotal_amount::text, discount_amount::text, shipping_fee_amount::text,
	tax_amount::text, total_amount::text, currency,
	shipping_address, billing_address,
	payment_id, shipment_id, tracking_number, carrier, notes,
	paid_at, shipped_at, delivered_at, created_at, updated_at`

type orderRepository struct {
	db querier
}

func NewOrder(pool *pgxpool.Pool) port.OrderRepository {
	return &orderRepository{db: pool}
}

func NewOrderWithTx(tx pgx.Tx) port.OrderRepository {
	return &orderRepository{db: tx}
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error) {
	if orderID == uuid.Nil {
		return domain.Order{}, fmt.Errorf("orderID is empty")
	}

	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, orderID.String())
}

func (r *orderRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error) {
	if err := domain.ValidateOrderNumber(orderNumber); err != nil {
		return domain.Order{}, fmt.Errorf("domain.ValidateOrderNumber: %w", err)
	}

	return r.getOrder(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_number = $1`, orderNumber)
}

func (r *orderRepository) getOrder(ctx context.Context, query string, arg string) (domain.Order, error) {
	var o domain.Order

	order, err := withTx(ctx, r.db, func(q querier) (domain.Order, error) {
		row := q.QueryRow(ctx, query, arg)

		order, err := scanOrder(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return o, fmt.Errorf("scanOrder: %w", ErrNotFound)
			}
			return o, fmt.Errorf("scanOrder: %w", err)
		}

		order.Items, err = getOrderItems(ctx, q, order.ID)
		if err != nil {
			return o, fmt.Errorf("getOrderItems: %w", err)
		}

		return order, nil
	})
	if err != nil {
		return o, fmt.Errorf("withTx: %w", err)
	}

	return order, nil
}

func (r *orderRepository) InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error) {
	if len(order.Items) == 0 {
		return uuid.Nil, errors.New("no items in order")
	}

	orderID, err := withTx(ctx, r.db, func(q querier) (uuid.UUID, error) {
		shippingJSON, err := json.Marshal(order.ShippingAddress)
		if err != nil {
			return uuid.Nil, fmt.Errorf("json.Marshal shipping address: %w", err)
		}

		billingJSON, err := json.Marshal(order.BillingAddress)
		if err != nil {
			return uuid.Nil, fmt.Errorf("json.Marshal billing address: %w", err)
		}

		var orderID uuid.UUID

		err = q.QueryRow(ctx, `
			INSERT INTO orders (order_number, customer_id, ordered_at, payment_method,
			                    status, payment_status, shipping_status,
			                    subtotal_amount, discount_amount, shipping_fee_amount,
			                    tax_amount, total_amount, currency,
			                    shipping_address, billing_address, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7,
			        $8::numeric, $9::numeric, $10::numeric, $11::numeric, $12::numeric, $13,
			        $14, $15, $16)
			RETURNING id`,
			order.OrderNumber, order.CustomerID, order.OrderedAt, order.PaymentMethod,
			string(order.Status), string(order.PaymentStatus), string(order.ShippingStatus),
			order.Pricing.Subtotal.Amount.String(), order.Pricing.Discount.Amount.String(),
			order.Pricing.ShippingFee.Amount.String(), order.Pricing.Tax.Amount.String(),
			order.Pricing.Total.Amount.String(), order.Pricing.Subtotal.Currency.String(),
			shippingJSON, billingJSON, order.Notes,
		).Scan(&orderID)
		if err != nil {
			if isUniqueViolation(err, "orders_order_number_key") {
				return uuid.Nil, domain.ConflictError{Message: fmt.Sprintf("duplicate order number[%s]", order.OrderNumber)}
			}
			return uuid.Nil, fmt.Errorf("q.QueryRow insert order: %w", err)
		}

		for _, item := range order.Items {
			_, err := q.Exec(ctx, `
				INSERT INTO order_items (order_id, product_id, product_name, sku, quantity,
				                         unit_price_amount, discount_amount, currency)
				VALUES ($1, $2, $3, $4, $5, $6::numeric, $7::numeric, $8)`,
				orderID.String(), item.ProductID.String(), item.ProductName, item.SKU, item.Quantity,
				item.UnitPrice.Amount.String(), item.Discount.Amount.String(),
				item.UnitPrice.Currency.String())
			if err != nil {
				return uuid.Nil, fmt.Errorf("q.Exec insert item[%s]: %w", item.ProductID, err)
			}
		}

		return orderID, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("withTx: %w", err)
	}

	return orderID, nil
}

// UpdateOrder persists the mutable lifecycle fields; the item snapshots and
// pricing breakdown are immutable after placement.
func (r *orderRepository) UpdateOrder(ctx context.Context, order domain.Order) error {
	if order.ID == uuid.Nil {
		return fmt.Errorf("orderID is empty")
	}

	cmdTag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status          = $2,
		    payment_status  = $3,
		    shipping_status = $4,
		    payment_id      = $5,
		    shipment_id     = $6,
		    tracking_number = $7,
		    carrier         = $8,
		    paid_at         = $9,
		    shipped_at      = $10,
		    delivered_at    = $11,
		    updated_at      = now()
		WHERE id = $1`,
		order.ID.String(), string(order.Status), string(order.PaymentStatus), string(order.ShippingStatus),
		order.PaymentID, order.ShipmentID, order.TrackingNumber, order.Carrier,
		order.PaidAt, order.ShippedAt, order.DeliveredAt)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("db.Exec: %w", ErrNotFound)
	}

	return nil
}

func (r *orderRepository) SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter.Validate: %w", err)
	}

	query := `SELECT ` + orderColumns + ` FROM orders WHERE true`
	var args []any

	appendCondition := func(condition string, arg any) {
		args = append(args, arg)
		query += fmt.Sprintf(condition, len(args))
	}

	if len(filter.IDs) > 0 {
		ids := lo.Map(filter.IDs, func(id uuid.UUID, _ int) string { return id.String() })
		appendCondition(" AND id = ANY($%d::uuid[])", ids)
	}

	if len(filter.OrderNumbers) > 0 {
		appendCondition(" AND order_number = ANY($%d)", filter.OrderNumbers)
	}

	if len(filter.CustomerIDs) > 0 {
		appendCondition(" AND customer_id = ANY($%d)", filter.CustomerIDs)
	}

	if len(filter.Statuses) > 0 {
		statuses := lo.Map(filter.Statuses, func(s domain.OrderStatus, _ int) string { return string(s) })
		appendCondition(" AND status = ANY($%d)", statuses)
	}

	if filter.OrderedAt != nil {
		if filter.OrderedAt.After != nil {
			appendCondition(" AND ordered_at >= $%d", *filter.OrderedAt.After)
		}
		if filter.OrderedAt.Before != nil {
			appendCondition(" AND ordered_at <= $%d", *filter.OrderedAt.Before)
		}
	}

	query += ` ORDER BY ordered_at`

	orders, err := withTx(ctx, r.db, func(q querier) ([]domain.Order, error) {
		rows, err := q.Query(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("q.Query: %w", err)
		}
		defer rows.Close()

		var orders []domain.Order

		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				return nil, fmt.Errorf("scanOrder: %w", err)
			}
			orders = append(orders, order)
		}

		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("rows.Err: %w", err)
		}

		for i := range orders {
			orders[i].Items, err = getOrderItems(ctx, q, orders[i].ID)
			if err != nil {
				return nil, fmt.Errorf("getOrderItems: %w", err)
			}
		}

		return orders, nil
	})
	if err != nil {
		return nil, fmt.Errorf("withTx: %w", err)
	}

	return orders, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o domain.Order

		statusStr         string
		paymentStatusStr  string
		shippingStatusStr string

		subtotalStr, discountStr, shippingFeeStr, taxStr, totalStr string
		currencyCode                                               string

		shippingJSON, billingJSON []byte

		paidAt, shippedAt, deliveredAt *time.Time
	)

	err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.OrderedAt, &o.PaymentMethod,
		&statusStr, &paymentStatusStr, &shippingStatusStr,
		&subtotalStr, &discountStr, &shippingFeeStr, &taxStr, &totalStr, &currencyCode,
		&shippingJSON, &billingJSON,
		&o.PaymentID, &o.ShipmentID, &o.TrackingNumber, &o.Carrier, &o.Notes,
		&paidAt, &shippedAt, &deliveredAt, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return o, err
	}

	if o.Status, err = domain.ToOrderStatus(statusStr); err != nil {
		return o, fmt.Errorf("domain.ToOrderStatus: %w", err)
	}

	if o.PaymentStatus, err = domain.ToPaymentStatus(paymentStatusStr); err != nil {
		return o, fmt.Errorf("domain.ToPaymentStatus: %w", err)
	}

	if o.ShippingStatus, err = domain.ToShippingStatus(shippingStatusStr); err != nil {
		return o, fmt.Errorf("domain.ToShippingStatus: %w", err)
	}

	for _, part := range []struct {
		dst       *domain.Money
		amountStr string
	}{
		{&o.Pricing.Subtotal, subtotalStr},
		{&o.Pricing.Discount, discountStr},
		{&o.Pricing.ShippingFee, shippingFeeStr},
		{&o.Pricing.Tax, taxStr},
		{&o.Pricing.Total, totalStr},
	} {
		*part.dst, err = parseMoney(part.amountStr, currencyCode)
		if err != nil {
			return o, fmt.Errorf("parseMoney: %w", err)
		}
	}

	if err := json.Unmarshal(shippingJSON, &o.ShippingAddress); err != nil {
		return o, fmt.Errorf("json.Unmarshal shipping address: %w", err)
	}

	if err := json.Unmarshal(billingJSON, &o.BillingAddress); err != nil {
		return o, fmt.Errorf("json.Unmarshal billing address: %w", err)
	}

	o.PaidAt = paidAt
	o.ShippedAt = shippedAt
	o.DeliveredAt = deliveredAt

	return o, nil
}

func getOrderItems(ctx context.Context, q querier, orderID uuid.UUID) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, `
		SELECT product_id, product_name, sku, quantity,
		       unit_price_amount::text, discount_amount::text, currency, created_at
		FROM order_items
		WHERE order_id = $1
		ORDER BY created_at`, orderID.String())
	if err != nil {
		return nil, fmt.Errorf("q.Query: %w", err)
	}
	defer rows.Close()

	var items []domain.OrderItem

	for rows.Next() {
		var (
			item         domain.OrderItem
			unitPriceStr string
			discountStr  string
			currencyCode string
		)

		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.SKU, &item.Quantity,
			&unitPriceStr, &discountStr, &currencyCode, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		if item.UnitPrice, err = parseMoney(unitPriceStr, currencyCode); err != nil {
			return nil, fmt.Errorf("parseMoney unit price: %w", err)
		}

		if item.Discount, err = parseMoney(discountStr, currencyCode); err != nil {
			return nil, fmt.Errorf("parseMoney discount: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}
