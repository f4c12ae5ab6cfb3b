package main

import (
	"github.com/gin-gonic/gin"
	"github.com/inkpress/internal/config"
	"github.com/inkpress/internal/db"
	"github.com/inkpress/internal/handler"
	"github.com/inkpress/internal/router"
	"github.com/inkpress/internal/storage"
	"github.com/inkpress/pkg/logger"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	gin.SetMode(cfg.GinMode)

	// 初始化数据库
	if err := db.Init(cfg.DatabasePath); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	// 按需创建超级管理员
	if err := db.EnsureUser(cfg.SuperRootUserName, cfg.SuperRootPassword); err != nil {
		log.Fatal().Err(err).Msg("failed to ensure super root user")
	}

	store := storage.NewDiskStore(cfg.UploadDir, cfg.UploadURLPath)
	api := handler.NewAPI(db.DB, store, cfg.SiteName, log)

	r := router.SetupRouter(api, cfg.SessionSecret, cfg.UploadDir, cfg.UploadURLPath, cfg.TemplateGlob, log)

	log.Info().Str("addr", cfg.ListenAddr).Msg("server starting")
	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal().Err(err).Msg("failed to run server")
	}
}
