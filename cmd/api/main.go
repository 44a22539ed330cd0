package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	mysqldriver "github.com/go-sql-driver/mysql"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tutorhub/tutorhub-backend/internal/config"
	"github.com/tutorhub/tutorhub-backend/internal/domain"
	"github.com/tutorhub/tutorhub-backend/internal/handler"
	"github.com/tutorhub/tutorhub-backend/internal/middleware"
	"github.com/tutorhub/tutorhub-backend/internal/migration"
	"github.com/tutorhub/tutorhub-backend/internal/repository"
	"github.com/tutorhub/tutorhub-backend/internal/routes"
	"github.com/tutorhub/tutorhub-backend/internal/scheduler"
	"github.com/tutorhub/tutorhub-backend/internal/service"
	pkgcache "github.com/tutorhub/tutorhub-backend/pkg/cache"
	"github.com/tutorhub/tutorhub-backend/pkg/jwt"
	pkglogger "github.com/tutorhub/tutorhub-backend/pkg/logger"
	pkgredis "github.com/tutorhub/tutorhub-backend/pkg/redis"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// getConfigPath returns config file path based on APP_ENV environment variable
func getConfigPath() string {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	return fmt.Sprintf("configs/config.%s.yaml", env)
}

func main() {
	dotenvFiles := config.LoadDotEnv()

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "local"
	}
	pkglogger.Init(env)
	pkglogger.Info("APP_ENV=%s, loaded env files: %v", env, dotenvFiles)

	configPath := getConfigPath()
	pkglogger.Info("Loading config from: %s", configPath)
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// MySQL connection. The process entry point owns the store lifecycle;
	// nothing below reaches for a global connection
	db, err := initDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	pkglogger.Info("Connected to MySQL")

	if err := migration.Run(db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	// Redis connection (optional, listings fall back to the DB)
	var cacheService pkgcache.Service
	redisClient, err := pkgredis.NewClient(
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		cfg.Redis.PoolSize,
	)
	if err != nil {
		pkglogger.Warn("Failed to connect to Redis: %v (continuing without cache)", err)
	} else {
		cacheService = pkgcache.NewService(redisClient)
		pkglogger.Info("Connected to Redis")
	}

	// JWT Manager
	jwtManager := jwt.NewManager(cfg.JWT.Secret, cfg.JWT.ExpiresIn)

	// Repositories
	tutorialRepo := repository.NewTutorialRepository(db)
	pageRepo := repository.NewPageRepository(db)
	versionRepo := repository.NewVersionRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	approvalRepo := repository.NewApprovalRepository(db)

	// Content-type dispatch table for the lifecycle engine
	stores := repository.ContentStores{
		domain.ContentTypeTutorial: tutorialRepo,
		domain.ContentTypePage:     pageRepo,
	}

	// Lifecycle coordinator
	lifecycleSvc := service.NewLifecycleService(versionRepo, scheduleRepo, approvalRepo, stores)
	if cacheService != nil {
		lifecycleSvc.SetCache(cacheService)
	}

	// Handlers
	contentHandler := handler.NewContentHandler(tutorialRepo, pageRepo, lifecycleSvc)
	lifecycleHandler := handler.NewLifecycleHandler(lifecycleSvc)

	// Router
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())

	allowOrigins := cfg.CORS.AllowOrigins
	if allowOrigins == "" {
		allowOrigins = "http://localhost:3000"
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     splitAndTrim(allowOrigins, ","),
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		ExposeHeaders:    []string{"X-Request-ID"},
		MaxAge:           86400 * time.Second,
	}))

	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "tutorhub-backend",
			"time":    time.Now().Unix(),
		})
	})

	routes.Setup(router, contentHandler, lifecycleHandler, jwtManager)

	// In-process trigger for the execute-pass. The pass itself is safe to
	// run from several replicas at once, so this needs no leader election.
	if cfg.Scheduler.Enabled {
		sched := scheduler.New(cfg.Scheduler.Interval, lifecycleSvc.ExecuteScheduled)
		sched.Start()
		defer sched.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	pkglogger.Info("Listening on %s", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initDB opens the MySQL connection and configures the pool
func initDB(cfg *config.Config) (*gorm.DB, error) {
	mysqlCfg, err := mysqldriver.ParseDSN(cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	logMode := gormlogger.Warn
	if cfg.IsDevelopment() {
		logMode = gormlogger.Info
	}

	db, err := gorm.Open(mysql.Open(mysqlCfg.FormatDSN()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logMode),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	return db, nil
}

// splitAndTrim splits a string by delimiter and trims spaces
func splitAndTrim(s string, delimiter string) []string {
	parts := []string{}
	for _, part := range strings.Split(s, delimiter) {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return parts
}
