package provider

import (
	"github.com/sketezo-next/internal/cache"
	"github.com/sketezo-next/internal/config"
	"github.com/sketezo-next/internal/courier/zippypost"
	"github.com/sketezo-next/internal/logger"
	"github.com/sketezo-next/internal/models"
	"github.com/sketezo-next/internal/payment/razorpay"
	"github.com/sketezo-next/internal/queue"
	"github.com/sketezo-next/internal/repository"
	"github.com/sketezo-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	UserRepo           repository.UserRepository
	AddressRepo        repository.AddressRepository
	ProductRepo        repository.ProductRepository
	VariantRepo        repository.ProductVariantRepository
	StockMovementRepo  repository.StockMovementRepository
	DiscountRepo       repository.DiscountRepository
	OrderRepo          repository.OrderRepository
	OrderStatusRepo    repository.OrderStatusUpdateRepository
	ShipmentRecordRepo repository.ShipmentRecordRepository

	// Services
	UserAuthService    *service.UserAuthService
	AddressService     *service.AddressService
	ProductService     *service.ProductService
	StockLedgerService *service.StockLedgerService
	DiscountService    *service.DiscountService
	PricingService     *service.PricingService
	OrderStatusService *service.OrderStatusService
	ShipmentService    *service.ShipmentService
	OrderService       *service.OrderService
	PaymentService     *service.PaymentService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.AddressRepo = repository.NewAddressRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.VariantRepo = repository.NewProductVariantRepository(db)
	c.StockMovementRepo = repository.NewStockMovementRepository(db)
	c.DiscountRepo = repository.NewDiscountRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.OrderStatusRepo = repository.NewOrderStatusUpdateRepository(db)
	c.ShipmentRecordRepo = repository.NewShipmentRecordRepository(db)
}

func (c *Container) initServices() {
	gatewayCfg := &razorpay.Config{
		KeyID:     c.Config.Razorpay.KeyID,
		KeySecret: c.Config.Razorpay.KeySecret,
		Currency:  c.Config.Razorpay.Currency,
		BaseURL:   c.Config.Razorpay.BaseURL,
	}
	gatewayCfg.Normalize()

	courierCfg := &zippypost.Config{
		BaseURL:    c.Config.Zippypost.BaseURL,
		PublicKey:  c.Config.Zippypost.PublicKey,
		PrivateKey: c.Config.Zippypost.PrivateKey,
		SellerID:   c.Config.Zippypost.SellerID,
		CODCharge:  c.Config.Zippypost.CODCharge,
	}
	courierCfg.Normalize()

	c.UserAuthService = service.NewUserAuthService(c.Config, c.UserRepo)
	c.AddressService = service.NewAddressService(c.AddressRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.VariantRepo)
	c.StockLedgerService = service.NewStockLedgerService(c.VariantRepo, c.StockMovementRepo)
	c.DiscountService = service.NewDiscountService(c.DiscountRepo)
	c.PricingService = service.NewPricingService(
		c.Config.Pricing.TaxRate,
		c.Config.Pricing.ShippingFee,
		c.Config.Pricing.FreeShippingThreshold,
		c.Config.Pricing.Currency,
	)
	c.OrderStatusService = service.NewOrderStatusService(c.OrderRepo, c.OrderStatusRepo)
	c.ShipmentService = service.NewShipmentService(c.ShipmentRecordRepo, c.OrderRepo, c.OrderStatusService, courierCfg)
	c.OrderService = service.NewOrderService(
		c.OrderRepo,
		c.ProductRepo,
		c.VariantRepo,
		c.AddressRepo,
		c.StockLedgerService,
		c.DiscountService,
		c.PricingService,
		c.OrderStatusService,
		c.ShipmentService,
		c.QueueClient,
		c.Config.Order.PaymentExpireMinutes,
	)
	c.PaymentService = service.NewPaymentService(c.OrderRepo, c.OrderService, gatewayCfg)
}
