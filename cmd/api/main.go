package main

import (
	"context"
	"errors"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "expenses/api/swagger" // swagger docs
	"expenses/internal/config"
	"expenses/internal/database"
	"expenses/internal/handler"
	"expenses/internal/log"
	"expenses/internal/notify"
	"expenses/internal/repository"
	"expenses/internal/service"
	"expenses/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// @title           Expense Claims API
// @version         1.0
// @description     Expense claims with receipts, manager approval and substitutes.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		stdlog.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load(os.Getenv("EXPENSES_CONFIG"))
	if err != nil {
		stdlog.Fatalf("Configuration failed: %v", err)
	}

	logger := log.New(log.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Component: "api"})
	log.SetDefault(logger)
	gin.SetMode(cfg.Server.Mode)

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		return err
	}
	defer closeDB(db, logger)
	logger.Info("database ready", "driver", cfg.Database.Driver)

	if cfg.Database.Seed {
		if err := database.Seed(ctx, db); err != nil {
			return err
		}
	}

	// Set up WebSocket Hub
	hub := websocket.NewHub(logger.WithComponent("ws"))
	notifiers := notify.Multi{hub}
	if cfg.AMQP.URL != "" {
		publisher, err := notify.NewAMQPPublisher(cfg.AMQP.URL, cfg.AMQP.Exchange, logger.WithComponent("amqp"))
		if err != nil {
			return err
		}
		defer publisher.Close()
		notifiers = append(notifiers, publisher)
	}

	// Set up dependencies (Repository -> Service -> Handler)
	tx := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	claimRepo := repository.NewClaimRepository(db)
	receiptRepo := repository.NewReceiptRepository(db)
	refRepo := repository.NewReferenceDataRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	opts := []service.Option{
		service.WithNotifier(notifiers),
		service.WithLogger(logger.WithComponent("service")),
	}
	tokens := service.TokenIssuer{Secret: []byte(cfg.JWT.Secret), TTL: cfg.JWT.TokenTTL()}
	svc := handler.Services{
		Claims:    service.NewClaimService(tx, claimRepo, userRepo, refRepo, auditRepo, opts...),
		Receipts:  service.NewReceiptService(tx, claimRepo, receiptRepo, refRepo, auditRepo, opts...),
		Listing:   service.NewListingService(claimRepo, userRepo),
		Accounts:  service.NewAccountService(tx, userRepo, refRepo, auditRepo, opts...),
		Users:     service.NewUserService(tx, userRepo, refRepo, auditRepo, tokens, opts...),
		Export:    service.NewExportService(claimRepo),
		Audit:     service.NewAuditService(auditRepo),
		Reference: service.NewReferenceDataService(refRepo),
	}

	if err := bootstrapAdmin(ctx, cfg.Admin, svc.Users, userRepo, logger); err != nil {
		return err
	}

	router := handler.NewRouter(handler.RouterConfig{
		JWTSecret:      []byte(cfg.JWT.Secret),
		TokenTTL:       cfg.JWT.TokenTTL(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, svc, hub, logger.WithComponent("http"))

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// bootstrapAdmin creates the configured administrator on first start.
func bootstrapAdmin(ctx context.Context, cfg config.AdminConfig, users service.UserService, repo repository.UserRepository, logger *log.Logger) error {
	email := strings.ToLower(strings.TrimSpace(cfg.Email))
	if email == "" {
		return nil
	}
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	_, err := users.CreateUser(ctx, uuid.Nil, service.CreateUserRequest{
		Email:     email,
		FirstName: "Admin",
		Password:  cfg.Password,
		IsAdmin:   true,
	})
	if err != nil {
		return err
	}
	logger.Info("administrator created", "email", email)
	return nil
}

func closeDB(db *gorm.DB, logger *log.Logger) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("closing database", "error", err)
	}
}
