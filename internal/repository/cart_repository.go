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
)

type cartRepository struct {
	db querier
}

func NewCart(pool *pgxpool.Pool) port.CartRepository {
	return &cartRepository{db: pool}
}

func NewCartWithTx(tx pgx.Tx) port.CartRepository {
	return &cartRepository{db: tx}
}

func (r *cartRepository) GetCart(ctx context.Context, cartID uuid.UUID) (domain.Cart, error) {
	return r.getCart(ctx, `SELECT id, owner_id, created_at, updated_at FROM carts WHERE id = $1`, cartID.String())
}

func (r *cartRepository) GetCartByOwner(ctx context.Context, ownerID string) (domain.Cart, error) {
	return r.getCart(ctx, `SELECT id, owner_id, created_at, updated_at FROM carts WHERE owner_id = $1`, ownerID)
}

func (r *cartRepository) getCart(ctx context.Context, query string, arg string) (domain.Cart, error) {
	var c domain.Cart

	err := r.db.QueryRow(ctx, query, arg).Scan(&c.ID, &c.OwnerID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c, domain.NotFoundError{Entity: "cart", ID: arg}
		}
		return c, fmt.Errorf("row.Scan: %w", err)
	}

	c.Items, err = r.getCartItems(ctx, c.ID)
	if err != nil {
		return c, fmt.Errorf("r.getCartItems: %w", err)
	}

	return c, nil
}

func (r *cartRepository) getCartItems(ctx context.Context, cartID uuid.UUID) ([]domain.CartItem, error) {
	rows, err := r.db.Query(ctx, `
		SELECT product_id, product_name, quantity, price_amount::text, price_currency, created_at
		FROM cart_items
		WHERE cart_id = $1
		ORDER BY created_at`, cartID.String())
	if err != nil {
		return nil, fmt.Errorf("db.Query: %w", err)
	}
	defer rows.Close()

	var items []domain.CartItem

	for rows.Next() {
		var (
			item         domain.CartItem
			amountStr    string
			currencyCode string
		)

		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &amountStr, &currencyCode, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("rows.Scan: %w", err)
		}

		item.UnitPrice, err = parseMoney(amountStr, currencyCode)
		if err != nil {
			return nil, fmt.Errorf("parseMoney: %w", err)
		}

		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows.Err: %w", err)
	}

	return items, nil
}

// SaveCart replaces the cart's items wholesale: the aggregate owns its item
// list, so the stored rows always mirror the in-memory state.
func (r *cartRepository) SaveCart(ctx context.Context, cart domain.Cart) error {
	if cart.OwnerID == "" {
		return fmt.Errorf("owner id is empty")
	}

	_, err := withTx(ctx, r.db, func(q querier) (struct{}, error) {
		var cartID uuid.UUID

		err := q.QueryRow(ctx, `
			INSERT INTO carts (owner_id)
			VALUES ($1)
			ON CONFLICT (owner_id) DO UPDATE SET updated_at = now()
			RETURNING id`, cart.OwnerID).Scan(&cartID)
		if err != nil {
			return struct{}{}, fmt.Errorf("row.Scan: %w", err)
		}

		if _, err := q.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID.String()); err != nil {
			return struct{}{}, fmt.Errorf("q.Exec delete items: %w", err)
		}

		for _, item := range cart.Items {
			_, err := q.Exec(ctx, `
				INSERT INTO cart_items (cart_id, product_id, product_name, quantity, price_amount, price_currency)
				VALUES ($1, $2, $3, $4, $5::numeric, $6)`,
				cartID.String(), item.ProductID.String(), item.ProductName, item.Quantity,
				item.UnitPrice.Amount.String(), item.UnitPrice.Currency.String())
			if err != nil {
				return struct{}{}, fmt.Errorf("q.Exec insert item[%s]: %w", item.ProductID, err)
			}
		}

		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("withTx: %w", err)
	}

	return nil
}
