package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/query-system/internal/config"
	"github.com/iliyamo/query-system/internal/database"
	"github.com/iliyamo/query-system/internal/handler"
	"github.com/iliyamo/query-system/internal/idgen"
	"github.com/iliyamo/query-system/internal/logging"
	"github.com/iliyamo/query-system/internal/model"
	"github.com/iliyamo/query-system/internal/notify"
	"github.com/iliyamo/query-system/internal/otp"
	"github.com/iliyamo/query-system/internal/queue"
	"github.com/iliyamo/query-system/internal/repository"
	"github.com/iliyamo/query-system/internal/router"
	"github.com/iliyamo/query-system/internal/service"
)

// stores groups the record stores selected by STORE_DRIVER.
type stores struct {
	users, mentors, admins repository.AccountStore
	queries                repository.QueryStore
}

func main() {
	_ = godotenv.Load() // .env is optional
	cfg := config.Load()
	log := logging.New(os.Stdout, cfg.LogFormat, cfg.LogLevel).With("service", "query-desk", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, db, err := openStores(ctx, cfg)
	if err != nil {
		log.Error(ctx, "store init failed", "driver", cfg.StoreDriver, "err", err)
		os.Exit(1)
	}
	if db != nil {
		defer db.Close()
	}

	var rdb *redis.Client
	cacheCfg := config.LoadCacheConfig()
	if cacheCfg.Enabled {
		if rdb = config.NewRedisClient(ctx); rdb == nil {
			log.Warn(ctx, "redis unavailable; admin listing cache disabled")
		} else {
			defer rdb.Close()
		}
	}

	dispatcher := notify.NewDispatcher(newNotifier(cfg, log), log, cfg.AdminEmail, cfg.OTPTTL)
	issuer := otp.NewIssuer(cfg.OTPTTL)

	authFor := func(role model.Role, store repository.AccountStore, prefix string) *handler.AuthHandler {
		svc := service.NewAuthService(service.AuthConfig{
			Role:         role,
			AdminEmail:   cfg.AdminEmail,
			JWTSecret:    cfg.JWTSecret,
			AccessTTLMin: cfg.AccessTTLMin,
		}, store, idgen.New(prefix), issuer, dispatcher, log)
		return handler.NewAuthHandler(svc, log)
	}
	querySvc := service.NewQueryService(st.queries, st.users, idgen.New("Q"), dispatcher, log)

	e := router.New(router.Deps{
		Users:     authFor(model.RoleUser, st.users, "U"),
		Mentors:   authFor(model.RoleMentor, st.mentors, "M"),
		Admins:    authFor(model.RoleAdmin, st.admins, "A"),
		Queries:   handler.NewQueryHandler(querySvc, log),
		Admin:     handler.NewAdminHandler(querySvc, log),
		JWTSecret: cfg.JWTSecret,
		Cache:     cacheCfg,
		Redis:     rdb,
		Log:       log,
	})

	addr := ":" + cfg.Port
	go func() {
		log.Info(ctx, "listening", "addr", addr, "store", cfg.StoreDriver, "notify", cfg.NotifyDriver)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error(ctx, "server stopped", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error(shutdownCtx, "shutdown", "err", err)
	}
}

func openStores(ctx context.Context, cfg config.Config) (stores, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		return stores{
			users:   repository.NewMemoryAccountRepo(model.RoleUser),
			mentors: repository.NewMemoryAccountRepo(model.RoleMentor),
			admins:  repository.NewMemoryAccountRepo(model.RoleAdmin),
			queries: repository.NewMemoryQueryRepo(),
		}, nil, nil
	}

	db, err := database.Open(ctx, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		return stores{}, nil, err
	}
	if err := database.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, nil, err
	}
	return stores{
		users:   repository.NewAccountRepo(db, model.RoleUser),
		mentors: repository.NewAccountRepo(db, model.RoleMentor),
		admins:  repository.NewAccountRepo(db, model.RoleAdmin),
		queries: repository.NewQueryRepo(db),
	}, db, nil
}

func newNotifier(cfg config.Config, log logging.Logger) notify.Notifier {
	switch cfg.NotifyDriver {
	case config.NotifyAMQP:
		return queue.NewPublisher(cfg.AMQPURL, cfg.NotifyQueue)
	case config.NotifySMTP:
		return notify.NewSMTPMailer(cfg.SMTP)
	default:
		return notify.LogNotifier{Log: log}
	}
}
