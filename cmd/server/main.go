package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"syscall"

	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/app"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/authz"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/config"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/constants"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/logger"
	"github.com/naeemAbdul-Aziz/discreetkit-sub000/internal/models"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiGreen = "\033[32m"
	ansiCyan  = "\033[36m"
)

func main() {
	// 解析命令行参数
	var mode string
	flag.StringVar(&mode, "mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	printStartupBanner(mode)

	// 加载配置
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if cfg.Server.Mode == "release" {
		if isWeakSecret(cfg.JWT.SecretKey) {
			stdLog.Fatalf("JWT secret 过弱或仍为默认值，请在生产环境中配置强随机密钥")
		}
		if strings.TrimSpace(cfg.Paystack.SecretKey) == "" {
			stdLog.Fatalf("未配置 Paystack secret key")
		}
	} else if isWeakSecret(cfg.JWT.SecretKey) {
		stdLog.Printf("警告: JWT secret 过弱或仍为默认值，建议在生产环境中更换")
	}

	// 初始化数据库
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	// 自动迁移数据库表
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	// 初始化默认管理员账号
	if mode != app.ModeWorker {
		initDefaultAdmin(cfg, stdLog)
	}

	// 设置 Gin 模式
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func initDefaultAdmin(cfg *config.Config, stdLog *log.Logger) {
	username := os.Getenv("DK_DEFAULT_ADMIN_USERNAME")
	email := os.Getenv("DK_DEFAULT_ADMIN_EMAIL")
	password := os.Getenv("DK_DEFAULT_ADMIN_PASSWORD")
	if cfg.Server.Mode == "release" && password == "" {
		stdLog.Printf("警告: 未设置 DK_DEFAULT_ADMIN_PASSWORD，已跳过默认管理员初始化")
		return
	}
	admin, err := models.InitDefaultAdmin(username, email, password)
	if err != nil {
		stdLog.Printf("警告: 初始化默认管理员失败: %v", err)
		return
	}
	if admin == nil {
		return
	}
	authzService, err := authz.NewService(models.DB)
	if err != nil {
		stdLog.Printf("警告: 初始化权限服务失败: %v", err)
		return
	}
	if err := authzService.BootstrapBuiltinRoles(); err != nil {
		stdLog.Printf("警告: 初始化内置角色失败: %v", err)
		return
	}
	if err := authzService.SetOperatorRoles(admin.ID, []string{constants.RoleAdmin}); err != nil {
		stdLog.Printf("警告: 默认管理员授权失败: %v", err)
	}
}

func printStartupBanner(mode string) {
	fmt.Println(ansiCyan + "╔══════════════════════════════════════════════╗" + ansiReset)
	fmt.Println(ansiCyan + "║           DiscreetKit API 启动中             ║" + ansiReset)
	fmt.Println(ansiCyan + "╚══════════════════════════════════════════════╝" + ansiReset)
	fmt.Println(ansiGreen + ansiBold + "mode: " + mode + ansiReset)
	fmt.Println(ansiDim + "----------------------------------------------" + ansiReset)
}

func isWeakSecret(secret string) bool {
	if len(secret) < 32 {
		return true
	}
	normalized := strings.ToLower(secret)
	if strings.Contains(normalized, "change-me") ||
		strings.Contains(normalized, "change-in-production") ||
		strings.Contains(normalized, "your-secret-key") {
		return true
	}
	return false
}
