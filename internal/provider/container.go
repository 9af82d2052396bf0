package provider

import (
	"github.com/sokoni-shop/internal/authz"
	"github.com/sokoni-shop/internal/cache"
	"github.com/sokoni-shop/internal/config"
	"github.com/sokoni-shop/internal/logger"
	"github.com/sokoni-shop/internal/models"
	"github.com/sokoni-shop/internal/queue"
	"github.com/sokoni-shop/internal/repository"
	"github.com/sokoni-shop/internal/service"
	"github.com/sokoni-shop/internal/sms"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	SMSClient   *sms.Client

	// Repositories
	CustomerRepo  repository.CustomerRepository
	CategoryRepo  repository.CategoryRepository
	ProductRepo   repository.ProductRepository
	OrderRepo     repository.OrderRepository
	DashboardRepo repository.DashboardRepository

	// Services
	AuthzService        *authz.Service
	CustomerAuthService *service.CustomerAuthService
	EmailService        *service.EmailService
	CaptchaService      *service.CaptchaService
	CategoryService     *service.CategoryService
	ProductService      *service.ProductService
	NotificationService *service.NotificationService
	OrderService        *service.OrderService
	DashboardService    *service.DashboardService
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
		SMSClient:   sms.NewClient(cfg.SMS),
	}

	// 1. 初始化 Repositories
	c.initRepositories()

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.CustomerRepo = repository.NewCustomerRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.DashboardRepo = repository.NewDashboardRepository(db)
}

func (c *Container) initServices() {
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		logger.Errorw("provider_init_authz_failed", "error", err)
		panic(err)
	}
	c.AuthzService = authzService
	if err := c.AuthzService.BootstrapBuiltinRoles(); err != nil {
		logger.Errorw("provider_bootstrap_builtin_roles_failed", "error", err)
		panic(err)
	}

	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.CaptchaService = service.NewCaptchaService(c.Config.Captcha)
	c.CustomerAuthService = service.NewCustomerAuthService(c.Config, c.CustomerRepo)
	c.CategoryService = service.NewCategoryService(c.CategoryRepo, c.ProductRepo)
	c.ProductService = service.NewProductService(c.ProductRepo, c.CategoryService)
	c.NotificationService = service.NewNotificationService(c.OrderRepo, c.EmailService, c.SMSClient, c.QueueClient, c.Config.Notify.AdminEmail)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.ProductRepo, c.CustomerRepo, c.NotificationService)
	c.DashboardService = service.NewDashboardService(c.DashboardRepo)
}
