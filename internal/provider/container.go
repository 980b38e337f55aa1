package provider

import (
	"github.com/chengpei-next/internal/cache"
	"github.com/chengpei-next/internal/config"
	"github.com/chengpei-next/internal/finance"
	"github.com/chengpei-next/internal/logger"
	"github.com/chengpei-next/internal/models"
	"github.com/chengpei-next/internal/queue"
	"github.com/chengpei-next/internal/repository"
	"github.com/chengpei-next/internal/service"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	RouteRepo      repository.RouteRepository
	RouteOrderRepo repository.RouteOrderRepository
	ItemRepo       repository.DeliveryItemRepository
	ReasonRepo     repository.DeliveryReasonRepository
	MovementRepo   repository.InventoryMovementRepository
	OrderRepo      repository.SalesOrderRepository
	AuditRepo      repository.AuditLogRepository

	// Services
	RouteService     *service.RouteService
	LoadingService   *service.LoadingService
	DispatchService  *service.DispatchService
	StockService     *service.StockService
	ReconcileService *service.ReconcileService
	ReasonService    *service.ReasonService
	OrderService     *service.SalesOrderService
	AuditService     *service.AuditService
	FinanceClient    *finance.Client
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
	c.RouteRepo = repository.NewRouteRepository(db)
	c.RouteOrderRepo = repository.NewRouteOrderRepository(db)
	c.ItemRepo = repository.NewDeliveryItemRepository(db)
	c.ReasonRepo = repository.NewDeliveryReasonRepository(db)
	c.MovementRepo = repository.NewInventoryMovementRepository(db)
	c.OrderRepo = repository.NewSalesOrderRepository(db)
	c.AuditRepo = repository.NewAuditLogRepository(db)
}

func (c *Container) initServices() {
	c.RouteService = service.NewRouteService(c.RouteRepo, c.RouteOrderRepo, c.OrderRepo, c.QueueClient)
	c.StockService = service.NewStockService(c.RouteRepo, c.ItemRepo, c.MovementRepo, c.QueueClient)
	c.LoadingService = service.NewLoadingService(c.RouteRepo, c.RouteOrderRepo, c.ItemRepo, c.ReasonRepo, c.QueueClient)
	c.DispatchService = service.NewDispatchService(c.RouteRepo, c.RouteOrderRepo, c.OrderRepo, c.StockService, c.QueueClient, &c.Config.Route)
	c.ReconcileService = service.NewReconcileService(c.RouteRepo, c.RouteOrderRepo, c.ItemRepo, c.OrderRepo, c.ReasonRepo, c.QueueClient, &c.Config.Route)
	c.ReasonService = service.NewReasonService(c.ReasonRepo)
	c.OrderService = service.NewSalesOrderService(c.OrderRepo)
	c.AuditService = service.NewAuditService(c.AuditRepo)
	c.FinanceClient = finance.NewClient(&c.Config.Finance)
}
