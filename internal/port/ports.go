package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
)

type CartRepository interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (domain.Cart, error)
	GetCartByOwner(ctx context.Context, ownerID string) (domain.Cart, error)

	SaveCart(ctx context.Context, cart domain.Cart) error
}

type ProductRepository interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error)

	InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error)

	// UpdateInventory persists the product's inventory counters with a
	// compare-and-swap on the inventory version. A lost race surfaces as
	// domain.ConflictError.
	UpdateInventory(ctx context.Context, product domain.Product) error
}

type OrderRepository interface {
	GetOrder(ctx context.Context, orderID uuid.UUID) (domain.Order, error)
	GetOrderByNumber(ctx context.Context, orderNumber string) (domain.Order, error)

	SearchOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.Order, error)

	// InsertOrder surfaces a duplicate order number as domain.ConflictError.
	InsertOrder(ctx context.Context, order domain.Order) (uuid.UUID, error)

	UpdateOrder(ctx context.Context, order domain.Order) error
}

// EventPublisher dispatches domain events to out-of-scope handlers,
// fire-and-forget.
type EventPublisher interface {
	PublishAll(ctx context.Context, events []domain.Event) error
}
