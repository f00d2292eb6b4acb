package main

import (
	"log"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/hqvuong/work-order-api/internal/config"
	"github.com/hqvuong/work-order-api/internal/constants"
	"github.com/hqvuong/work-order-api/internal/database"
	"github.com/hqvuong/work-order-api/internal/handlers"
	"github.com/hqvuong/work-order-api/internal/logger"
	"github.com/hqvuong/work-order-api/internal/middleware"
	"github.com/hqvuong/work-order-api/internal/repository"
	"github.com/hqvuong/work-order-api/internal/searchtext"
	"github.com/hqvuong/work-order-api/internal/services"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.New(cfg.LogDev)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	gin.SetMode(cfg.GinMode)

	db, err := database.Connect(cfg)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}

	normalizer := searchtext.NewNormalizer(searchtext.DefaultConfig())
	builder := searchtext.NewBuilder(normalizer)

	if err := database.Migrate(db); err != nil {
		zlog.Fatal("Failed to run migrations", zap.Error(err))
	}
	if err := database.AddIndexes(db); err != nil {
		zlog.Fatal("Failed to create indexes", zap.Error(err))
	}
	if err := database.BackfillSearchText(db, builder, cfg.RefreshBatchSize); err != nil {
		zlog.Fatal("Failed to backfill search text", zap.Error(err))
	}

	taskRepo := repository.NewTaskRepository(db, builder)
	customerRepo := repository.NewCustomerRepository(db, builder)
	locationRepo := repository.NewLocationRepository(db, builder)
	userRepo := repository.NewUserRepository(db)

	searchCfg := services.DefaultSearchConfig()
	searchCfg.DefaultPageSize = cfg.DefaultPageSize
	searchCfg.MaxPageSize = cfg.MaxPageSize
	searchCfg.RefreshBatchSize = cfg.RefreshBatchSize

	authService := services.NewAuthService(userRepo)
	taskService := services.NewTaskService(taskRepo, customerRepo, locationRepo, userRepo, normalizer, searchCfg, zlog)
	customerService := services.NewCustomerService(customerRepo, taskRepo, searchCfg, zlog)
	locationService := services.NewLocationService(locationRepo, taskRepo, searchCfg, zlog)

	authHandler := handlers.NewAuthHandler(authService)
	taskHandler := handlers.NewTaskHandler(taskService)
	customerHandler := handlers.NewCustomerHandler(customerService)
	locationHandler := handlers.NewLocationHandler(locationService)

	r := gin.Default()

	store := cookie.NewStore([]byte(cfg.SessionSecret))
	isProduction := cfg.GinMode == "release"
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   86400 * 7,
		HttpOnly: true,
		Secure:   isProduction,
		SameSite: 2,
	})
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", authHandler.Signup)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", authHandler.Logout)
			auth.GET("/me", middleware.RequireAuth(), authHandler.GetCurrentUser)
		}

		users := api.Group("/users")
		users.Use(middleware.RequireAuth(), middleware.RequireAdmin())
		{
			users.POST("", authHandler.CreateUser)
		}

		tasks := api.Group("/tasks")
		tasks.Use(middleware.RequireAuth())
		{
			tasks.GET("", taskHandler.SearchTasks)
			tasks.POST("", middleware.RequireAdmin(), taskHandler.CreateTask)
			tasks.GET("/:id", taskHandler.GetTask)
			tasks.PATCH("/:id", taskHandler.UpdateTask)
			tasks.DELETE("/:id", middleware.RequireAdmin(), taskHandler.DeleteTask)
			tasks.POST("/:id/assign", middleware.RequireAdmin(), taskHandler.AssignTask)
			tasks.POST("/:id/unassign", middleware.RequireAdmin(), taskHandler.UnassignTask)
		}

		customers := api.Group("/customers")
		customers.Use(middleware.RequireAuth())
		{
			customers.POST("", middleware.RequireAdmin(), customerHandler.CreateCustomer)
			customers.GET("/:id", customerHandler.GetCustomer)
			customers.PATCH("/:id", middleware.RequireAdmin(), customerHandler.UpdateCustomer)
		}

		locations := api.Group("/locations")
		locations.Use(middleware.RequireAuth())
		{
			locations.POST("", middleware.RequireAdmin(), locationHandler.CreateLocation)
			locations.GET("/:id", locationHandler.GetLocation)
			locations.PATCH("/:id", middleware.RequireAdmin(), locationHandler.UpdateLocation)
		}
	}

	zlog.Info("Server starting", zap.String("addr", ":8080"))
	if err := r.Run(":8080"); err != nil {
		zlog.Fatal("Failed to start server", zap.Error(err))
	}
}
