package main

import (
	"context"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/nikolayk812/storefront/internal/checkout"
	"github.com/nikolayk812/storefront/internal/domain"
	"github.com/nikolayk812/storefront/internal/event"
	"github.com/nikolayk812/storefront/internal/inventory"
	"github.com/nikolayk812/storefront/internal/port"
	"github.com/nikolayk812/storefront/internal/pricing"
	"github.com/nikolayk812/storefront/internal/repository"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"
)

// Demo wiring: seeds a product and a cart, then places one order through
// the full checkout path against the database from DATABASE_URL.
func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		logger.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	carts := repository.NewCart(pool)
	products := repository.NewProduct(pool)
	orders := repository.NewOrder(pool)

	var publisher port.EventPublisher = event.NewLoggingPublisher(logger)
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		kafkaPublisher, err := event.NewKafkaPublisher(strings.Split(brokers, ","), "storefront.events")
		if err != nil {
			logger.Fatal("event.NewKafkaPublisher", zap.Error(err))
		}
		defer func() { _ = kafkaPublisher.Close() }()
		publisher = kafkaPublisher
	}

	coordinator, err := inventory.NewCoordinator(products, logger)
	if err != nil {
		logger.Fatal("inventory.NewCoordinator", zap.Error(err))
	}

	engine, err := pricing.NewEngine(pricing.NewStaticRules())
	if err != nil {
		logger.Fatal("pricing.NewEngine", zap.Error(err))
	}

	service, err := checkout.NewService(carts, products, orders, coordinator, engine, publisher, logger)
	if err != nil {
		logger.Fatal("checkout.NewService", zap.Error(err))
	}

	productID, err := products.InsertProduct(ctx, domain.Product{
		Name:      "保温杯",
		SKU:       "CUP-500ML",
		Status:    domain.ProductStatusActive,
		Price:     domain.Money{Amount: decimal.NewFromInt(100), Currency: currency.CNY},
		Inventory: domain.Inventory{Total: 10},
	})
	if err != nil {
		logger.Fatal("products.InsertProduct", zap.Error(err))
	}

	ownerID := uuid.NewString()
	err = carts.SaveCart(ctx, domain.Cart{
		OwnerID: ownerID,
		Items: []domain.CartItem{{
			ProductID:   productID,
			ProductName: "保温杯",
			Quantity:    2,
			UnitPrice:   domain.Money{Amount: decimal.NewFromInt(100), Currency: currency.CNY},
		}},
	})
	if err != nil {
		logger.Fatal("carts.SaveCart", zap.Error(err))
	}

	address, err := domain.NewAddress("北京市", "北京", "朝阳区", "建国路88号", "100022", "张三", "13800138000")
	if err != nil {
		logger.Fatal("domain.NewAddress", zap.Error(err))
	}

	result, err := service.PlaceOrder(ctx, checkout.PlaceOrderRequest{
		UserID:          ownerID,
		ShippingAddress: address,
		PaymentMethod:   "alipay",
		CouponCode:      "SAVE10",
	})
	if err != nil {
		logger.Fatal("service.PlaceOrder", zap.Error(err))
	}

	logger.Info("order placed",
		zap.String("order_id", result.OrderID.String()),
		zap.String("order_number", result.OrderNumber),
		zap.String("subtotal", result.Subtotal.String()),
		zap.String("discount", result.Discount.String()),
		zap.String("shipping_fee", result.ShippingFee.String()),
		zap.String("tax", result.Tax.String()),
		zap.String("total", result.Total.String()))
}
