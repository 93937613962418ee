package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProductStatus string

// remember to add new statuses to the validProductStatuses map
const (
	ProductStatusActive       ProductStatus = "active"
	ProductStatusInactive     ProductStatus = "inactive"
	ProductStatusDiscontinued ProductStatus = "discontinued"
)

var validProductStatuses = map[ProductStatus]struct{}{
	ProductStatusActive:       {},
	ProductStatusInactive:     {},
	ProductStatusDiscontinued: {},
}

func ToProductStatus(s string) (ProductStatus, error) {
	status := ProductStatus(s)
	if _, ok := validProductStatuses[status]; ok {
		return status, nil
	}

	return "", fmt.Errorf("invalid product status[%s]", s)
}

// Inventory tracks stock counters of a single product.
// Version is compared at write time to detect concurrent reservations.
type Inventory struct {
	Total    int
	Reserved int
	Version  int64
}

func (i Inventory) Available() int {
	return i.Total - i.Reserved
}

func (i Inventory) Validate() error {
	if i.Total < 0 {
		return fmt.Errorf("total[%d] is negative", i.Total)
	}

	if i.Reserved < 0 || i.Reserved > i.Total {
		return fmt.Errorf("reserved[%d] is out of range [0, %d]", i.Reserved, i.Total)
	}

	return nil
}

type Product struct {
	ID        uuid.UUID
	Name      string
	SKU       string
	Status    ProductStatus
	Price     Money
	Inventory Inventory

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reserve soft-allocates stock to a pending order.
func (p *Product) Reserve(quantity int) error {
	if quantity <= 0 {
		return ValidationError{Field: "quantity", Message: fmt.Sprintf("must be positive, got %d", quantity)}
	}

	if p.Status != ProductStatusActive {
		return BusinessError{Message: "商品已下架"}
	}

	if quantity > p.Inventory.Available() {
		return BusinessError{Message: "库存不足"}
	}

	p.Inventory.Reserved += quantity
	return nil
}

// Release gives reserved stock back, clamping at zero so that a
// double release during compensation cannot corrupt the counters.
func (p *Product) Release(quantity int) {
	if quantity <= 0 {
		return
	}

	p.Inventory.Reserved -= quantity
	if p.Inventory.Reserved < 0 {
		p.Inventory.Reserved = 0
	}
}

// Deduct permanently removes reserved stock once an order ships.
func (p *Product) Deduct(quantity int) error {
	if quantity <= 0 {
		return ValidationError{Field: "quantity", Message: fmt.Sprintf("must be positive, got %d", quantity)}
	}

	if quantity > p.Inventory.Reserved {
		return BusinessError{Message: fmt.Sprintf("扣减数量%d超过预留数量%d", quantity, p.Inventory.Reserved)}
	}

	p.Inventory.Reserved -= quantity
	p.Inventory.Total -= quantity
	return nil
}
