package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	pgrepo "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/db/postgres"
	redisrepo "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/db/redis"
	myGrpc "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/grpc"
	myHttp "github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/adapters/transport/http/dto"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/guard"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/hash"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/jwt"
	appsvc "github.com/Miraines/MoonyAndStarry/session-service/internal/app/auth/service"
	customErrors "github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/errors"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/domain/auth/model"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/config"
	lg "github.com/Miraines/MoonyAndStarry/session-service/internal/infra/log"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/metrics"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/migrate"
	"github.com/Miraines/MoonyAndStarry/session-service/internal/infra/server"
	"golang.org/x/sync/errgroup"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg.Must("").Fatal("failed to load config", zap.Error(err))
	}

	zapLog := lg.Must(cfg.LogLevel)
	defer zapLog.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		zapLog.Fatal("failed to connect to database", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		zapLog.Fatal("db handle", zap.Error(err))
	}
	defer sqlDB.Close()
	if err := migrate.Up(sqlDB); err != nil {
		zapLog.Fatal("run migrations", zap.Error(err))
	}

	redisCli := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddress,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	hasher, err := hash.NewFromConfig(cfg)
	if err != nil {
		zapLog.Fatal("failed to init hasher", zap.Error(err))
	}
	signer, err := jwt.NewSigner(cfg)
	if err != nil {
		zapLog.Fatal("failed to init token signer", zap.Error(err))
	}
	authMetrics, err := metrics.NewPrometheus(prometheus.DefaultRegisterer)
	if err != nil {
		zapLog.Fatal("register metrics", zap.Error(err))
	}

	accountRepo := pgrepo.NewPostgresAccountRepo(db)
	tokenRepo := redisrepo.NewRedisTokenRepo(redisCli)
	validate := validator.New()

	svc := appsvc.New(accountRepo, hasher, signer, validate, zapLog.Named("auth"), authMetrics)
	g := guard.New(signer, svc, tokenRepo)

	if cfg.BootstrapAdminUsername != "" {
		bootstrapAdmin(context.Background(), svc, cfg, zapLog)
	}

	gin.SetMode(gin.ReleaseMode)
	httpHandler := myHttp.NewHandler(svc, g, validate, zapLog.Named("http"),
		map[string]myHttp.Pinger{"db": accountRepo, "redis": tokenRepo})
	router := myHttp.NewRouter(httpHandler, myHttp.RouterConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowCredentials: cfg.AllowCredentials,
		Gatherer:         prometheus.DefaultGatherer,
	}, zapLog.Named("http"))

	grpcHandler := myGrpc.NewHandler(svc, g, zapLog.Named("grpc"),
		map[string]myGrpc.Pinger{"db": accountRepo, "redis": tokenRepo})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		return server.StartGRPCServer(ctx, cfg, grpcHandler, zapLog.Named("grpc"))
	})
	eg.Go(func() error {
		return server.StartHTTPServer(ctx, cfg, router, zapLog.Named("http"))
	})

	<-ctx.Done()
	zapLog.Info("shutdown signal received")
	if err := eg.Wait(); err != nil {
		zapLog.Error("server terminated", zap.Error(err))
	}
}

// bootstrapAdmin creates the configured administrator once. Sign-up cannot
// grant ADMIN, so this is how the first one comes to exist.
func bootstrapAdmin(ctx context.Context, svc appsvc.Service, cfg *config.Config, log *zap.Logger) {
	_, err := svc.CreateAccount(ctx, dto.RegisterDTO{
		Username: cfg.BootstrapAdminUsername,
		Password: cfg.BootstrapAdminPassword,
		Roles:    []string{model.RoleAdmin},
	})
	switch {
	case err == nil:
		log.Info("bootstrap admin created", zap.String("username", cfg.BootstrapAdminUsername))
	case customErrors.IsAlreadyExists(err):
		log.Debug("bootstrap admin already exists")
	default:
		log.Fatal("create bootstrap admin", zap.Error(err))
	}
}
