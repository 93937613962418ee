package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
)

type productRepository struct {
	db querier
}

func NewProduct(pool *pgxpool.Pool) port.ProductRepository {
	return &productRepository{db: pool}
}

func NewProductWithTx(tx pgx.Tx) port.ProductRepository {
	return &productRepository{db: tx}
}

func (r *productRepository) GetProduct(ctx context.Context, productID uuid.UUID) (domain.Product, error) {
	var p domain.Product

	row := r.db.QueryRow(ctx, `
		SELECT id, name, sku, status, price_amount::text, price_currency,
		       inventory_total, inventory_reserved, inventory_version,
		       created_at, updated_at
		FROM products
		WHERE id = $1`, productID.String())

	var (
		statusStr    string
		amountStr    string
		currencyCode string
	)

	err := row.Scan(&p.ID, &p.Name, &p.SKU, &statusStr, &amountStr, &currencyCode,
		&p.Inventory.Total, &p.Inventory.Reserved, &p.Inventory.Version,
		&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, domain.NotFoundError{Entity: "product", ID: productID.String()}
		}
		return p, fmt.Errorf("row.Scan: %w", err)
	}

	p.Status, err = domain.ToProductStatus(statusStr)
	if err != nil {
		return p, fmt.Errorf("domain.ToProductStatus: %w", err)
	}

	p.Price, err = parseMoney(amountStr, currencyCode)
	if err != nil {
		return p, fmt.Errorf("parseMoney: %w", err)
	}

	return p, nil
}

func (r *productRepository) InsertProduct(ctx context.Context, product domain.Product) (uuid.UUID, error) {
	if err := product.Price.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("price.Validate: %w", err)
	}

	if err := product.Inventory.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("inventory.Validate: %w", err)
	}

	var productID uuid.UUID

	err := r.db.QueryRow(ctx, `
		INSERT INTO products (name, sku, status, price_amount, price_currency,
		                      inventory_total, inventory_reserved)
		VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		RETURNING id`,
		product.Name, product.SKU, string(product.Status),
		product.Price.Amount.String(), product.Price.Currency.String(),
		product.Inventory.Total, product.Inventory.Reserved,
	).Scan(&productID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("row.Scan: %w", err)
	}

	return productID, nil
}

// UpdateInventory persists the counters with a compare-and-swap on the
// inventory version; a lost race surfaces as domain.ConflictError so the
// caller can reload and retry.
func (r *productRepository) UpdateInventory(ctx context.Context, product domain.Product) error {
	if err := product.Inventory.Validate(); err != nil {
		return fmt.Errorf("inventory.Validate: %w", err)
	}

	cmdTag, err := r.db.Exec(ctx, `
		UPDATE products
		SET inventory_total    = $2,
		    inventory_reserved = $3,
		    inventory_version  = inventory_version + 1,
		    status             = $4,
		    updated_at         = now()
		WHERE id = $1
		  AND inventory_version = $5`,
		product.ID.String(), product.Inventory.Total, product.Inventory.Reserved,
		string(product.Status), product.Inventory.Version)
	if err != nil {
		return fmt.Errorf("db.Exec: %w", err)
	}

	if cmdTag.RowsAffected() > 0 {
		return nil
	}

	// zero rows: either the product vanished or the version moved
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, product.ID.String()).Scan(&exists); err != nil {
		return fmt.Errorf("row.Scan: %w", err)
	}

	if !exists {
		return domain.NotFoundError{Entity: "product", ID: product.ID.String()}
	}

	return domain.ConflictError{Message: fmt.Sprintf("inventory version conflict for product[%s]", product.ID)}
}

func parseMoney(amount, currencyCode string) (domain.Money, error) {
	parsedAmount, err := decimal.NewFromString(amount)
	if err != nil {
		return domain.Money{}, fmt.Errorf("amount[%s] is not valid: %w", amount, err)
	}

	parsedCurrency, err := currency.ParseISO(currencyCode)
	if err != nil {
		return domain.Money{}, fmt.Errorf("currency[%s] is not valid: %w", currencyCode, err)
	}

	return domain.Money{Amount: parsedAmount, Currency: parsedCurrency}, nil
}
