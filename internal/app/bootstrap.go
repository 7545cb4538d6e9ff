package app

import (
	"errors"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/provider"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/router"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg, nil)

	var services []Service

	// 初始化 HTTP 服务与实时推送
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
		services = append(services, NewRealtimeService(container.Propagator))
	}

	// 初始化 Worker 服务；未启用队列时通知在 API 进程内后台执行
	if mode == ModeAll || mode == ModeWorker {
		consumer := worker.NewConsumer(container.NotificationService)
		workerService, err := worker.NewService(&cfg.Queue, consumer)
		switch {
		case err == nil:
			services = append(services, workerService)
		case mode == ModeWorker:
			container.Close()
			return nil, err
		default:
			logger.Warnw("app_worker_skipped", "error", err)
		}
	}

	if len(services) == 0 {
		container.Close()
		return nil, errors.New("no services initialized (check mode and config)")
	}

	runner := NewRunner(services...)
	runner.AddCleanup(container.Close)
	return runner, nil
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
