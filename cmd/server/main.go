package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	"github.com/moonmist/storefront/internal/config"
	"github.com/moonmist/storefront/internal/events"
	"github.com/moonmist/storefront/internal/handlers"
	"github.com/moonmist/storefront/internal/hash"
	"github.com/moonmist/storefront/internal/logging"
	"github.com/moonmist/storefront/internal/middleware/requestlog"
	"github.com/moonmist/storefront/internal/models"
	"github.com/moonmist/storefront/internal/search"
	"github.com/moonmist/storefront/internal/storage"
	"github.com/moonmist/storefront/internal/token"
	httpserver "github.com/moonmist/storefront/internal/transport/http"
)

const productIndex = "products"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := logging.New(configuration.LOG_LEVEL)

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("database init error: %v", err)
	}

	issuer := token.NewIssuer([]byte(configuration.JWT_SECRET), configuration.TOKEN_TTL)

	prod := events.NewProducer(configuration.KAFKA_ADDRESS)

	var esClient *elasticsearch.Client
	if configuration.ES_URL != "" {
		esClient, err = search.NewClient(search.Options{
			URL:      configuration.ES_URL,
			Username: configuration.ES_USER,
			Password: configuration.ES_PASSWORD,
		})
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	var imageStore storage.Service
	if configuration.S3_BUCKET != "" {
		s3Store, err := storage.NewS3Service(context.Background(), storage.S3Options{
			Bucket:    configuration.S3_BUCKET,
			KeyPrefix: configuration.S3_KEY_PREFIX,
			Region:    configuration.S3_REGION,
			Endpoint:  configuration.S3_ENDPOINT,
		})
		if err != nil {
			log.Fatalf("storage init error: %v", err)
		}
		imageStore = s3Store
	}

	if err := ensureAdmin(db, configuration); err != nil {
		log.Fatalf("admin bootstrap error: %v", err)
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID(), middleware.CORS())
	e.Use(requestlog.Middleware(logger))

	deps := httpserver.Deps{
		Issuer:           issuer,
		AuthHandler:      &handlers.AuthHandler{DB: db, Issuer: issuer, Producer: prod},
		ProductHandler:   &handlers.ProductHandler{DB: db, Producer: prod, Storage: imageStore, ES: esClient, Index: productIndex},
		CartHandler:      &handlers.CartHandler{DB: db, Producer: prod},
		FavoritesHandler: &handlers.FavoritesHandler{DB: db, Producer: prod},
		SearchHandler:    &handlers.SearchHandler{ES: esClient, Index: productIndex},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         configuration.HTTP_ADDR,
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", configuration.HTTP_ADDR)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			logger.Error("db close error", "error", err)
		}
	}

	if err := prod.Close(); err != nil {
		logger.Error("kafka close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// ensureAdmin creates or promotes the configured admin account. Registration
// only ever produces customers, so this is the path to the first admin.
func ensureAdmin(db *gorm.DB, configuration *config.Config) error {
	if configuration.ADMIN_EMAIL == "" || configuration.ADMIN_PASSWORD == "" {
		return nil
	}

	var user models.User
	err := db.Where("email = ?", configuration.ADMIN_EMAIL).First(&user).Error
	if err == nil {
		if user.Role == "admin" {
			return nil
		}
		return db.Model(&user).Update("role", "admin").Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	passwordHash, err := hash.HashPassword(configuration.ADMIN_PASSWORD)
	if err != nil {
		return err
	}
	return db.Create(&models.User{
		ID:           uuid.NewString(),
		Name:         "Admin",
		Email:        configuration.ADMIN_EMAIL,
		PasswordHash: passwordHash,
		Role:         "admin",
	}).Error
}
