package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/inventory"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/pricing"
	"go.uber.org/zap"
)

// orderNumberRetries bounds regeneration after a duplicate order number.
const orderNumberRetries = 3

type PlaceOrderRequest struct {
	UserID string
	// CartID overrides lookup by user when set.
	CartID          *uuid.UUID
	ShippingAddress domain.Address
	BillingAddress  *domain.Address
	PaymentMethod   string
	CouponCode      string
	Notes           string
}

type PlaceOrderResult struct {
	OrderID     uuid.UUID
	OrderNumber string

	Subtotal    domain.Money
	Discount    domain.Money
	ShippingFee domain.Money
	Tax         domain.Money
	Total       domain.Money
}

// Service sequences a checkout across the cart, product and order
// aggregates: reserve inventory, price, construct and persist the order,
// clear the cart, publish events. Once inventory is reserved every later
// failure triggers a best-effort release before the original error is
// returned unchanged.
type Service struct {
	carts     port.CartRepository
	products  port.ProductRepository
	orders    port.OrderRepository
	inventory *inventory.Coordinator
	pricing   *pricing.Engine
	publisher port.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

func NewService(
	carts port.CartRepository,
	products port.ProductRepository,
	orders port.OrderRepository,
	coordinator *inventory.Coordinator,
	engine *pricing.Engine,
	publisher port.EventPublisher,
	logger *zap.Logger,
) (*Service, error) {
	if carts == nil || products == nil || orders == nil {
		return nil, fmt.Errorf("repository is nil")
	}

	if coordinator == nil {
		return nil, fmt.Errorf("coordinator is nil")
	}

	if engine == nil {
		return nil, fmt.Errorf("engine is nil")
	}

	if publisher == nil {
		return nil, fmt.Errorf("publisher is nil")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		carts:     carts,
		products:  products,
		orders:    orders,
		inventory: coordinator,
		pricing:   engine,
		publisher: publisher,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *Service) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResult, error) {
	var zero PlaceOrderResult

	cart, err := s.resolveCart(ctx, req)
	if err != nil {
		return zero, err
	}

	if cart.IsEmpty() {
		return zero, domain.BusinessError{Message: "购物车为空"}
	}

	batch := reservationBatch(cart)

	// nothing is reserved yet: a failure here needs no compensation
	if err := s.inventory.ReserveBatch(ctx, batch); err != nil {
		return zero, fmt.Errorf("inventory.ReserveBatch: %w", err)
	}

	result, err := s.placeReserved(ctx, req, cart, batch)
	if err != nil {
		// compensation: release what ReserveBatch took; failures inside
		// are logged by the coordinator, never substituted for err
		s.inventory.ReleaseBatch(ctx, batch)
		return zero, err
	}

	return result, nil
}

// placeReserved runs every step after inventory reservation; any error
// return makes the caller release the reserved batch.
func (s *Service) placeReserved(ctx context.Context, req PlaceOrderRequest, cart domain.Cart, batch []inventory.ReservationItem) (PlaceOrderResult, error) {
	var zero PlaceOrderResult

	items, err := s.snapshotItems(ctx, cart)
	if err != nil {
		return zero, err
	}

	breakdown, err := s.pricing.CalculateOrderPricing(items, req.ShippingAddress, req.CouponCode)
	if err != nil {
		return zero, fmt.Errorf("pricing.CalculateOrderPricing: %w", err)
	}

	if valid, problems := s.pricing.ValidateOrderPricing(items, breakdown); !valid {
		return zero, domain.ValidationError{Field: "pricing", Message: fmt.Sprintf("%v", problems)}
	}

	var billing domain.Address
	if req.BillingAddress != nil {
		billing = *req.BillingAddress
	}

	now := s.now()

	order, err := domain.NewOrder(domain.NewOrderParams{
		OrderNumber:     domain.NewOrderNumber(now),
		CustomerID:      req.UserID,
		OrderedAt:       now,
		Items:           items,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
		Pricing:         breakdown,
		PaymentMethod:   req.PaymentMethod,
		Notes:           req.Notes,
	})
	if err != nil {
		return zero, fmt.Errorf("domain.NewOrder: %w", err)
	}

	orderID, err := s.insertOrder(ctx, order)
	if err != nil {
		return zero, err
	}
	order.ID = orderID
	order.Place()

	cart.Clear()
	if err := s.carts.SaveCart(ctx, cart); err != nil {
		return zero, fmt.Errorf("carts.SaveCart: %w", err)
	}

	events := append(order.Events(), cart.Events()...)
	if err := s.publisher.PublishAll(ctx, events); err != nil {
		return zero, fmt.Errorf("publisher.PublishAll: %w", err)
	}
	order.ClearEvents()
	cart.ClearEvents()

	return PlaceOrderResult{
		OrderID:     orderID,
		OrderNumber: order.OrderNumber,
		Subtotal:    breakdown.Subtotal,
		Discount:    breakdown.Discount,
		ShippingFee: breakdown.ShippingFee,
		Tax:         breakdown.Tax,
		Total:       breakdown.Total,
	}, nil
}

func (s *Service) resolveCart(ctx context.Context, req PlaceOrderRequest) (domain.Cart, error) {
	if req.CartID != nil {
		cart, err := s.carts.GetCart(ctx, *req.CartID)
		if err != nil {
			return domain.Cart{}, fmt.Errorf("carts.GetCart: %w", err)
		}
		return cart, nil
	}

	cart, err := s.carts.GetCartByOwner(ctx, req.UserID)
	if err != nil {
		return domain.Cart{}, fmt.Errorf("carts.GetCartByOwner: %w", err)
	}

	return cart, nil
}

// snapshotItems rebuilds order items from the now-reserved products so the
// order carries the current name, SKU and price, immune to later catalog
// changes.
func (s *Service) snapshotItems(ctx context.Context, cart domain.Cart) ([]domain.OrderItem, error) {
	items := make([]domain.OrderItem, 0, len(cart.Items))

	for _, line := range cart.Items {
		product, err := s.products.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, fmt.Errorf("products.GetProduct[%s]: %w", line.ProductID, err)
		}

		items = append(items, domain.OrderItem{
			ProductID:   product.ID,
			ProductName: product.Name,
			SKU:         product.SKU,
			Quantity:    line.Quantity,
			UnitPrice:   product.Price,
			Discount:    domain.ZeroMoney(product.Price.Currency),
		})
	}

	return items, nil
}

// insertOrder retries with a freshly generated number when the unique index
// on order_number reports a collision.
func (s *Service) insertOrder(ctx context.Context, order *domain.Order) (uuid.UUID, error) {
	var lastErr error

	for attempt := 0; attempt < orderNumberRetries; attempt++ {
		orderID, err := s.orders.InsertOrder(ctx, *order)
		if err == nil {
			return orderID, nil
		}

		var conflict domain.ConflictError
		if !errors.As(err, &conflict) {
			return uuid.Nil, fmt.Errorf("orders.InsertOrder: %w", err)
		}

		lastErr = err
		s.logger.Warn("duplicate order number, regenerating",
			zap.String("order_number", order.OrderNumber))
		order.OrderNumber = domain.NewOrderNumber(s.now())
	}

	return uuid.Nil, fmt.Errorf("orders.InsertOrder: %w", lastErr)
}

func reservationBatch(cart domain.Cart) []inventory.ReservationItem {
	batch := make([]inventory.ReservationItem, 0, len(cart.Items))

	for _, line := range cart.Items {
		batch = append(batch, inventory.ReservationItem{
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
		})
	}

	return batch
}
