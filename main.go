// @title StudyHelper 后端 API
// @version 1.0
// @description StudyHelper 学习助手的后端服务：文档摘要、测验与作答统计。

// @host localhost:8080
// @BasePath /
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization

package main

import (
	"context"
	"flag"
	"log"

	"studyhelper_backend/internal/app"
	"studyhelper_backend/internal/config"
	"studyhelper_backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	// 命令行参数
	configDir := flag.String("config", "configs", "配置文件目录")
	migrateOnly := flag.Bool("migrate-only", false, "只执行主库迁移，完成后退出")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MigrateOnly = *migrateOnly

	application := app.NewApp(cfg)
	defer logger.Log.Sync()

	// 迁移完成后直接退出
	if *migrateOnly {
		if !application.Selector.UsePrimary() {
			logger.Log.Fatal("Primary database unreachable, nothing migrated",
				zap.String("reason", application.Selector.Reason()))
		}
		if cfg.Database.Fallback.Enabled {
			if err := application.Local.Init(context.Background()); err != nil {
				logger.Log.Fatal("Local schema initialization failed", zap.Error(err))
			}
		}
		application.Close(context.Background())
		logger.Log.Info("数据库迁移完成，退出程序")
		return
	}

	application.Run()
}
