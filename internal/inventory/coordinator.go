package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"go.uber.org/zap"
)

const (
	ReasonNotFound          = "商品不存在"
	ReasonInactive          = "商品已下架"
	ReasonInsufficientStock = "库存不足"
)

// casRetries bounds reloads after a lost inventory compare-and-swap.
const casRetries = 3

// ReservationItem is a batch line, alive only for one coordination call.
type ReservationItem struct {
	ProductID   uuid.UUID
	ProductName string
	Quantity    int
}

type AvailabilityResult struct {
	Valid    bool
	Failures []domain.ReservationFailure
}

// Coordinator validates and reserves, releases or deducts stock across a
// batch of products, each owned by its own product aggregate.
type Coordinator struct {
	products port.ProductRepository
	logger   *zap.Logger
}

func NewCoordinator(products port.ProductRepository, logger *zap.Logger) (*Coordinator, error) {
	if products == nil {
		return nil, fmt.Errorf("products is nil")
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	return &Coordinator{products: products, logger: logger}, nil
}

// ValidateAvailability checks every requested item without mutating state.
func (c *Coordinator) ValidateAvailability(ctx context.Context, items []ReservationItem) (AvailabilityResult, error) {
	var failures []domain.ReservationFailure

	for _, item := range items {
		product, err := c.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			var notFound domain.NotFoundError
			if errors.As(err, &notFound) {
				failures = append(failures, domain.ReservationFailure{
					ProductID:   item.ProductID,
					ProductName: item.ProductName,
					Requested:   item.Quantity,
					Reason:      ReasonNotFound,
				})
				continue
			}

			return AvailabilityResult{}, fmt.Errorf("products.GetProduct[%s]: %w", item.ProductID, err)
		}

		if product.Status != domain.ProductStatusActive {
			failures = append(failures, domain.ReservationFailure{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Inventory.Available(),
				Reason:      ReasonInactive,
			})
			continue
		}

		if product.Inventory.Available() < item.Quantity {
			failures = append(failures, domain.ReservationFailure{
				ProductID:   item.ProductID,
				ProductName: product.Name,
				Requested:   item.Quantity,
				Available:   product.Inventory.Available(),
				Reason:      ReasonInsufficientStock,
			})
		}
	}

	return AvailabilityResult{Valid: len(failures) == 0, Failures: failures}, nil
}

// ReserveBatch validates the whole batch first and reserves nothing if any
// item fails. Reservation writes are sequential, one product at a time, so a
// persistence failure partway through leaves earlier items reserved; the
// caller owns compensation for that case.
func (c *Coordinator) ReserveBatch(ctx context.Context, items []ReservationItem) error {
	result, err := c.ValidateAvailability(ctx, items)
	if err != nil {
		return fmt.Errorf("c.ValidateAvailability: %w", err)
	}

	if !result.Valid {
		return domain.ReservationError{Failures: result.Failures}
	}

	for _, item := range items {
		if err := c.reserveOne(ctx, item); err != nil {
			return fmt.Errorf("c.reserveOne[%s]: %w", item.ProductID, err)
		}
	}

	return nil
}

// reserveOne reloads the product and retries when the inventory version
// moved underneath us, so two concurrent checkouts cannot both reserve the
// last unit.
func (c *Coordinator) reserveOne(ctx context.Context, item ReservationItem) error {
	var lastErr error

	for attempt := 0; attempt < casRetries; attempt++ {
		product, err := c.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			return fmt.Errorf("products.GetProduct: %w", err)
		}

		if err := product.Reserve(item.Quantity); err != nil {
			return fmt.Errorf("product.Reserve: %w", err)
		}

		err = c.products.UpdateInventory(ctx, product)
		if err == nil {
			return nil
		}

		var conflict domain.ConflictError
		if !errors.As(err, &conflict) {
			return fmt.Errorf("products.UpdateInventory: %w", err)
		}

		lastErr = err
	}

	return fmt.Errorf("products.UpdateInventory: %w", lastErr)
}

// ReleaseBatch gives reserved stock back, best effort: per-item failures are
// logged and swallowed so a compensation run never masks the error which
// triggered it.
func (c *Coordinator) ReleaseBatch(ctx context.Context, items []ReservationItem) {
	for _, item := range items {
		if err := c.releaseOne(ctx, item); err != nil {
			c.logger.Error("inventory release failed, reservation may be stuck",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (c *Coordinator) releaseOne(ctx context.Context, item ReservationItem) error {
	var lastErr error

	for attempt := 0; attempt < casRetries; attempt++ {
		product, err := c.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			var notFound domain.NotFoundError
			if errors.As(err, &notFound) {
				// a vanished product has nothing left to release
				return nil
			}
			return fmt.Errorf("products.GetProduct: %w", err)
		}

		product.Release(item.Quantity)

		err = c.products.UpdateInventory(ctx, product)
		if err == nil {
			return nil
		}

		var conflict domain.ConflictError
		if !errors.As(err, &conflict) {
			return fmt.Errorf("products.UpdateInventory: %w", err)
		}

		lastErr = err
	}

	return fmt.Errorf("products.UpdateInventory: %w", lastErr)
}

// DeductBatch permanently removes reserved stock, best effort per item.
func (c *Coordinator) DeductBatch(ctx context.Context, items []ReservationItem) {
	for _, item := range items {
		if err := c.deductOne(ctx, item); err != nil {
			c.logger.Error("inventory deduction failed",
				zap.String("product_id", item.ProductID.String()),
				zap.Int("quantity", item.Quantity),
				zap.Error(err))
		}
	}
}

func (c *Coordinator) deductOne(ctx context.Context, item ReservationItem) error {
	var lastErr error

	for attempt := 0; attempt < casRetries; attempt++ {
		product, err := c.products.GetProduct(ctx, item.ProductID)
		if err != nil {
			var notFound domain.NotFoundError
			if errors.As(err, &notFound) {
				return nil
			}
			return fmt.Errorf("products.GetProduct: %w", err)
		}

		if err := product.Deduct(item.Quantity); err != nil {
			return fmt.Errorf("product.Deduct: %w", err)
		}

		err = c.products.UpdateInventory(ctx, product)
		if err == nil {
			return nil
		}

		var conflict domain.ConflictError
		if !errors.As(err, &conflict) {
			return fmt.Errorf("products.UpdateInventory: %w", err)
		}

		lastErr = err
	}

	return fmt.Errorf("products.UpdateInventory: %w", lastErr)
}

// CanDeleteProduct is true only while nothing is reserved for the product.
func (c *Coordinator) CanDeleteProduct(ctx context.Context, productID uuid.UUID) (bool, error) {
	product, err := c.products.GetProduct(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("products.GetProduct: %w", err)
	}

	return product.Inventory.Reserved == 0, nil
}
