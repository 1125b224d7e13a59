package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go-order-ws/internal/events"
	"go-order-ws/internal/handler"
	"go-order-ws/internal/idempotency"
	"go-order-ws/internal/middleware"
	"go-order-ws/internal/model"
	"go-order-ws/internal/repository"
	"go-order-ws/internal/service"
	"go-order-ws/internal/ws"
	"go-order-ws/pkg/config"
	"go-order-ws/pkg/database"
	"go-order-ws/pkg/jwt"
	applog "go-order-ws/pkg/logger"
	"go-order-ws/pkg/metrics"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	zlog, err := applog.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zlog.Sync()
	zap.ReplaceGlobals(zlog)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Setup Database
	db, err := database.ConnectDB(cfg)
	if err != nil {
		zlog.Fatal("database", zap.Error(err))
	}
	if err := db.AutoMigrate(
		&model.Enterprise{}, &model.Customer{}, &model.Product{},
		&model.Order{}, &model.OrderItem{}, &model.StockMovement{},
		&model.Privilege{}, &model.Role{}, &model.User{},
	); err != nil {
		zlog.Fatal("migrate", zap.Error(err))
	}

	userRepo := repository.NewUserRepo(db)
	privilegeRepo := repository.NewPrivilegeRepo(db)
	roleRepo := repository.NewRoleRepo(db)

	// 3. Seed default privileges, roles, and admin user
	if err := service.SeedAccessControl(ctx, service.SeedDeps{
		Privileges:    privilegeRepo,
		Roles:         roleRepo,
		Users:         userRepo,
		AdminEmail:    cfg.Auth.AdminEmail,
		AdminPassword: cfg.Auth.AdminPassword,
		Logger:        zlog,
	}); err != nil {
		zlog.Fatal("seed access control", zap.Error(err))
	}

	// 4. Setup WebSocket Hub and event sinks
	wsHub := ws.NewHub(zlog)
	go wsHub.Run(ctx)

	publishers := []events.Publisher{events.NewWSPublisher(wsHub)}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPub := events.NewKafkaPublisher(events.NewKafkaWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer kafkaPub.Close()
		publishers = append(publishers, kafkaPub)
		zlog.Info("kafka events enabled", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}
	publisher := events.Fanout(publishers...)

	var idem idempotency.Store
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			zlog.Fatal("redis", zap.Error(err))
		}
		idem = idempotency.NewRedisStore(rdb, cfg.Idempotency.TTL)
		zlog.Info("idempotency keys enabled", zap.String("redis", cfg.Redis.Addr))
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	// 5. Dependency Injection (Wiring Layers)
	store := repository.NewStore(db)
	ledger := service.NewStockLedger()
	tokens := jwt.NewManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)

	orderService := service.NewOrderService(service.OrderServiceDeps{
		Store:     store,
		Validator: service.NewOrderValidator(store.Catalog(), cfg.MinOrderValue(), time.Now),
		Ledger:    ledger,
		Events:    publisher,
		Logger:    zlog.Named("orders"),
		Metrics:   m,
	})
	productService := service.NewProductService(store, ledger, publisher, zlog.Named("products"), m)
	customerService := service.NewCustomerService(store.Customers())
	enterpriseService := service.NewEnterpriseService(store.Enterprises())
	dashService := service.NewDashboardService(store.Movements())
	authService := service.NewAuthService(userRepo, tokens, zlog.Named("auth"))
	userService := service.NewUserService(userRepo, roleRepo)

	orderHandler := handler.NewOrderHandler(orderService, idem)
	productHandler := handler.NewProductHandler(productService)
	customerHandler := handler.NewCustomerHandler(customerService)
	enterpriseHandler := handler.NewEnterpriseHandler(enterpriseService)
	dashHandler := handler.NewDashboardHandler(dashService)
	authHandler := handler.NewAuthHandler(authService)
	userHandler := handler.NewUserHandler(userService)

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: cfg.App.Name,
	})

	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New())
	app.Use(m.Middleware())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "ws_clients": wsHub.ClientCount()})
	})
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))

	// 7. Routes
	api := app.Group("/api/v1")

	auth := api.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/validate-token", authHandler.ValidateToken)

	protected := api.Group("", middleware.RequireAuth(authService))

	protected.Get("/orders", orderHandler.GetOrders)
	protected.Get("/orders/:id", orderHandler.GetOrder)
	protected.Post("/orders", middleware.RequirePrivilege(model.PrivOrderCreate), orderHandler.CreateOrder)
	protected.Patch("/orders/:id", middleware.RequirePrivilege(model.PrivOrderUpdate), orderHandler.UpdateOrder)
	protected.Post("/orders/:id/cancel", middleware.RequirePrivilege(model.PrivOrderCancel), orderHandler.CancelOrder)
	protected.Delete("/orders/:id", middleware.RequirePrivilege(model.PrivOrderDelete), orderHandler.DeleteOrder)

	protected.Get("/products", productHandler.GetProducts)
	protected.Get("/products/:id", productHandler.GetProduct)
	protected.Get("/products/:id/movements", productHandler.GetMovements)
	protected.Post("/products", middleware.RequirePrivilege(model.PrivProductCreate), productHandler.CreateProduct)
	protected.Post("/products/:id/stock", middleware.RequirePrivilege(model.PrivProductRestock), productHandler.AdjustStock)

	protected.Get("/customers", customerHandler.GetCustomers)
	protected.Get("/customers/:id", customerHandler.GetCustomer)
	protected.Post("/customers", middleware.RequirePrivilege(model.PrivCustomerCreate), customerHandler.CreateCustomer)

	protected.Get("/enterprises", enterpriseHandler.GetEnterprises)
	protected.Get("/enterprises/:id", enterpriseHandler.GetEnterprise)
	protected.Post("/enterprises", middleware.RequirePrivilege(model.PrivEnterpriseCreate), enterpriseHandler.CreateEnterprise)

	dashboard := protected.Group("/dashboard", middleware.RequirePrivilege(model.PrivDashboardView))
	dashboard.Get("/stats", dashHandler.GetDashboardStats)
	dashboard.Get("/stock-movement", dashHandler.GetStockMovement)
	dashboard.Get("/movements", dashHandler.GetRecentMovements)

	protected.Get("/users", userHandler.GetUsers)
	protected.Post("/users", middleware.RequirePrivilege(model.PrivUserCreate), userHandler.CreateUser)
	protected.Get("/roles", userHandler.GetRoles)

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(wsHub.Serve))

	// 8. Graceful Shutdown
	go func() {
		if err := app.Listen(":" + cfg.App.Port); err != nil {
			zlog.Error("listen", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		zlog.Error("server forced to shutdown", zap.Error(err))
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	zlog.Info("server exited")
}
