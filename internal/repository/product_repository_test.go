package repository_test

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"go.uber.org/goleak"
	"golang.org/x/text/currency"
)

type productRepositorySuite struct {
	suite.Suite

	pool      *pgxpool.Pool
	repo      port.ProductRepository
	container testcontainers.Container
}

// entry point to run the tests in the suite
func TestProductRepositorySuite(t *testing.T) {
	// Verifies no leaks after all tests in the suite run.
	defer goleak.VerifyNone(t)

	suite.Run(t, new(productRepositorySuite))
}

// before all tests in the suite
func (suite *productRepositorySuite) SetupSuite() {
	ctx := suite.T().Context()

	var (
		connStr string
		err     error
	)

	suite.container, connStr, err = startPostgres(ctx)
	suite.NoError(err)

	suite.pool, err = pgxpool.New(ctx, connStr)
	suite.NoError(err)

	suite.repo = repository.NewProduct(suite.pool)
}

// after all tests in the suite
func (suite *productRepositorySuite) TearDownSuite() {
	ctx := suite.T().Context()

	if suite.pool != nil {
		suite.pool.Close()
	}
	if suite.container != nil {
		suite.NoError(suite.container.Terminate(ctx))
	}
}

func (suite *productRepositorySuite) TestInsertProduct() {
	tests := []struct {
		name        string
		productFunc func() domain.Product
		wantError   string
	}{
		{
			name:        "valid product: ok",
			productFunc: fakeProduct,
		},
		{
			name: "negative price: fail",
			productFunc: func() domain.Product {
				p := fakeProduct()
				p.Price.Amount = decimal.NewFromInt(-1)
				return p
			},
			wantError: "price.Validate: amount[-1] is negative",
		},
		{
			name: "reserved above total: fail",
			productFunc: func() domain.Product {
				p := fakeProduct()
				p.Inventory = domain.Inventory{Total: 1, Reserved: 2}
				return p
			},
			wantError: "inventory.Validate: reserved[2] is out of range [0, 1]",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()
			ctx := t.Context()

			ttProduct := tt.productFunc()

			productID, err := suite.repo.InsertProduct(ctx, ttProduct)
			if tt.wantError != "" {
				require.EqualError(t, err, tt.wantError)
				return
			}
			require.NoError(t, err)

			actual, err := suite.repo.GetProduct(ctx, productID)
			require.NoError(t, err)

			expected := ttProduct
			expected.ID = productID

			assertProduct(t, expected, actual)
			assert.EqualValues(t, 0, actual.Inventory.Version)
		})
	}
}

func (suite *productRepositorySuite) TestGetProductNotFound() {
	t := suite.T()

	_, err := suite.repo.GetProduct(t.Context(), uuid.MustParse(gofakeit.UUID()))

	var notFound domain.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "product", notFound.Entity)
}

func (suite *productRepositorySuite) TestUpdateInventory() {
	t := suite.T()
	ctx := t.Context()

	productID, err := suite.repo.InsertProduct(ctx, fakeProduct())
	require.NoError(t, err)

	suite.Run("current version: ok", func() {
		product, err := suite.repo.GetProduct(ctx, productID)
		require.NoError(t, err)

		require.NoError(t, product.Reserve(3))

		err = suite.repo.UpdateInventory(ctx, product)
		require.NoError(t, err)

		updated, err := suite.repo.GetProduct(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 3, updated.Inventory.Reserved)
		assert.Equal(t, product.Inventory.Version+1, updated.Inventory.Version)
	})

	suite.Run("stale version: conflict", func() {
		product, err := suite.repo.GetProduct(ctx, productID)
		require.NoError(t, err)

		product.Inventory.Version--

		err = suite.repo.UpdateInventory(ctx, product)

		var conflictErr domain.ConflictError
		require.ErrorAs(t, err, &conflictErr)

		// the stale write left the counters untouched
		unchanged, err := suite.repo.GetProduct(ctx, productID)
		require.NoError(t, err)
		assert.Equal(t, 3, unchanged.Inventory.Reserved)
	})

	suite.Run("missing product: not found", func() {
		product := fakeProduct()
		product.ID = uuid.MustParse(gofakeit.UUID())

		err := suite.repo.UpdateInventory(ctx, product)

		var notFound domain.NotFoundError
		require.ErrorAs(t, err, &notFound)
	})
}

func fakeProduct() domain.Product {
	return domain.Product{
		Name:   gofakeit.ProductName(),
		SKU:    gofakeit.UUID(),
		Status: domain.ProductStatusActive,
		Price: domain.Money{
			Amount:   decimal.NewFromFloat(gofakeit.Price(1, 100)),
			Currency: currency.CNY,
		},
		Inventory: domain.Inventory{Total: gofakeit.Number(5, 50)},
	}
}

func assertProduct(t *testing.T, expected, actual domain.Product) {
	t.Helper()

	currencyComparer := cmp.Comparer(func(x, y currency.Unit) bool {
		return x.String() == y.String()
	})

	opts := cmp.Options{
		cmpopts.IgnoreFields(domain.Product{}, "CreatedAt", "UpdatedAt"),
		currencyComparer,
	}

	diff := cmp.Diff(expected, actual, opts)
	assert.Empty(t, diff)

	assert.False(t, actual.CreatedAt.IsZero())
	assert.False(t, actual.UpdatedAt.IsZero())
}
