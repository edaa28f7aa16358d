package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/golang-migrate/migrate/v4"
	pgmigrate "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/matrixnet/social-service/config"
	"github.com/matrixnet/social-service/internal/adapters"
	"github.com/matrixnet/social-service/internal/bootstrap"
	pginfra "github.com/matrixnet/social-service/internal/infrastructure/postgres"
	handlers "github.com/matrixnet/social-service/internal/interface/http"
	"github.com/matrixnet/social-service/internal/interface/middleware"
	"github.com/matrixnet/social-service/internal/router"
	"github.com/matrixnet/social-service/internal/router/modules"
	"github.com/matrixnet/social-service/internal/service"
	"github.com/matrixnet/social-service/pkg/helpers"
	"github.com/matrixnet/social-service/pkg/validation"
)

func main() {
	_ = godotenv.Load() // load .env if present

	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName, cfg.Env)
	gin.SetMode(cfg.GinMode)
	validation.Init()

	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	if err := runMigrations(cfg.PostgresDSN(), cfg.MigrationsDir, logger); err != nil {
		log.Fatalf("migration failed: %v", err)
	}

	rdb := helpers.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer func() { _ = rdb.Close() }()

	jwtManager := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.AccessTTL, cfg.RefreshTTL)

	starter := pginfra.NewStarter(pool)
	opts := bootstrap.Options{
		Starter: starter,
		Logger:  logger,
	}

	if cfg.GCSBucket != "" {
		gcsClient, err := helpers.NewGCSClient(ctx, cfg.GCSCredentialsJSONPath)
		if err != nil {
			log.Fatalf("failed to init GCS client: %v", err)
		}
		defer func() { _ = gcsClient.Close() }()
		opts.Storage = adapters.NewGCSFileStorage(gcsClient, cfg.GCSBucket, cfg.GCSUploadPrefix)
	}

	if cfg.RabbitMQURL != "" && cfg.MailSendEnabled {
		pub, err := helpers.NewRabbitPublisher(cfg.RabbitMQURL, cfg.RabbitMQEmailQueue)
		if err != nil {
			log.Fatalf("failed to connect to rabbitmq: %v", err)
		}
		defer pub.Close()
		opts.Notifier = adapters.NewEmailQueueNotifier(pub)
	}

	var search *adapters.UserSearchIndexer
	if addrs := cfg.ESAddrs(); len(addrs) > 0 {
		esClient, err := helpers.NewESClient(addrs, cfg.ElasticsearchUser, cfg.ElasticsearchPass)
		if err != nil {
			log.Fatalf("failed to init elasticsearch client: %v", err)
		}
		search = adapters.NewUserSearchIndexer(esClient, cfg.ESUsersIndex)
		opts.Indexer = search
	}

	bus := bootstrap.New(opts)
	views := service.NewViews(starter)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestID())
	if origins := cfg.CORSOrigins(); len(origins) > 0 {
		engine.Use(cors.New(cors.Config{
			AllowOrigins:     origins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if cfg.HTTPLogEnabled {
		engine.Use(gin.Logger())
	}

	userHandler := &handlers.UserHandler{
		Bus:        bus,
		Views:      views,
		JWT:        jwtManager,
		Redis:      rdb,
		Logger:     logger,
		Search:     search,
		SessionTTL: cfg.SessionTTL,
	}
	postHandler := &handlers.PostHandler{Bus: bus, Views: views, Logger: logger}
	uploadHandler := &handlers.UploadHandler{Bus: bus, Logger: logger}

	reg := router.NewRegistry(engine)
	reg.Add(
		&modules.UserModule{Handler: userHandler, JWT: jwtManager, Redis: rdb},
		&modules.PostModule{Handler: postHandler, JWT: jwtManager, Redis: rdb},
		&modules.UploadModule{Handler: uploadHandler, JWT: jwtManager, Redis: rdb},
	)
	reg.RegisterAll()

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: engine}
	go func() {
		logger.Infof("server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("listen: %s", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctxShutdown); err != nil {
		logger.Fatalf("server forced to shutdown: %v", err)
	}
	logger.Info("server exited properly")
}

func runMigrations(dsn, migrationsDir string, logger *logrus.Logger) error {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	driver, err := pgmigrate.WithInstance(db, &pgmigrate.Config{})
	if err != nil {
		return err
	}
	m, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", migrationsDir), "postgres", driver)
	if err != nil {
		return err
	}
	logger.Info("running migrations...")
	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Info("no migrations to run")
		return nil
	}
	return err
}
