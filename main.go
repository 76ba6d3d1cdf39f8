package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"provisionapi/bootstrap"
	"provisionapi/config"
	"provisionapi/controllers"
	"provisionapi/pkg/logger"
	"provisionapi/repository"
	"provisionapi/services/hosting"
	"provisionapi/services/remote"
	"provisionapi/services/step"
	"provisionapi/utils"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title           provisionapi
// @version         1.0
// @description     Remote web application provisioning API

// @BasePath  /api

func main() {
	// 1) Load config
	if err := config.LoadConfig(); err != nil {
		log.Fatalf("LoadConfig error: %v", err)
	}

	// 2) Init structured logger with config
	logLevel := logger.ParseLogLevel(config.Cfg.LogLevel)
	logger.InitWithConfig(
		config.Cfg.LogFile,
		logLevel,
		config.Cfg.LogMaxSize,
		config.Cfg.LogMaxBackups,
		config.Cfg.LogMaxAge,
		config.Cfg.LogCompress,
	)
	logger.Infof("Starting provisionapi with log level: %s", config.Cfg.LogLevel)

	// 3) Connect DB (GORM) and migrate schema
	db, err := config.ConnectDB()
	if err != nil {
		log.Fatalf("ConnectDB error: %v", err)
	}
	if err := bootstrap.Migrate(db); err != nil {
		log.Fatalf("Migrate error: %v", err)
	}

	// 4) Wire repositories, clients and the step executor
	appRepo := repository.NewApplicationRepository(db)
	logRepo := repository.NewStepLogRepository(db)
	dialer := remote.NewDialer(config.Cfg.SSHConnectTimeout, config.Cfg.SSHCommandTimeout)
	hostingClient := hosting.NewClient(config.Cfg.HostingAPIBaseURL, config.Cfg.HostingAPITimeout)
	executor := step.NewExecutor(step.NewRegistry(), appRepo, logRepo, dialer, hostingClient)

	controllers.SetStepExecutor(executor)
	controllers.SetHostingClient(hostingClient)

	// 5) Setup Gin
	router := gin.Default()
	router.Use(utils.LoggerMiddleware())

	v1 := router.Group("/api")
	{
		controllers.RegisterConnectionRoutes(v1)
		controllers.RegisterStepRoutes(v1)
		controllers.RegisterHistoryRoutes(v1)
		controllers.RegisterRepositoryRoutes(v1)
	}

	// 6) Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// 7) Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Infof("Received shutdown signal")
		logger.Infof("Application shutdown complete")
		os.Exit(0)
	}()

	// 8) Run
	logger.Infof("Starting server at port %s", config.Cfg.HTTPPort)
	router.Run("0.0.0.0:" + config.Cfg.HTTPPort)
}
