package app

import (
	"errors"

	"github.com/sokoni-shop/internal/config"
	"github.com/sokoni-shop/internal/logger"
	"github.com/sokoni-shop/internal/provider"
	"github.com/sokoni-shop/internal/repository"
	"github.com/sokoni-shop/internal/router"
	"github.com/sokoni-shop/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)
	grantStaffDefaultRoles(container)

	var services []Service

	// 初始化 HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		httpService := NewHTTPService(addr, engine)
		services = append(services, httpService)
	}

	// 初始化 Worker 服务
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		if err != nil {
			return nil, err
		}
		services = append(services, workerService)
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// grantStaffDefaultRoles 为尚未分配角色的员工授予内置管理员角色。
// 幂等操作，保证默认员工账号开箱即可进入管理端。
func grantStaffDefaultRoles(container *provider.Container) {
	if container == nil || container.AuthzService == nil || container.CustomerRepo == nil {
		return
	}

	staff, _, err := container.CustomerRepo.List(repository.CustomerListFilter{
		Page:      1,
		PageSize:  100,
		OnlyStaff: true,
	})
	if err != nil {
		logger.Warnw("app_list_staff_failed", "error", err)
		return
	}

	for _, customer := range staff {
		roles, err := container.AuthzService.GetCustomerRoles(customer.ID)
		if err != nil {
			logger.Warnw("app_get_staff_roles_failed", "customer_id", customer.ID, "error", err)
			continue
		}
		if len(roles) > 0 {
			continue
		}
		if err := container.AuthzService.GrantAllBuiltinRoles(customer.ID); err != nil {
			logger.Warnw("app_grant_staff_roles_failed", "customer_id", customer.ID, "error", err)
		}
	}
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
