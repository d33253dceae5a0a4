package main

import (
	"context"
	"log/slog"

	httpadp "loan-engine/internal/adapter/http"
	eventsredis "loan-engine/internal/adapter/events/redis"
	"loan-engine/internal/adapter/middleware"
	"loan-engine/internal/adapter/repository/memory"
	"loan-engine/internal/adapter/repository/mysql"
	"loan-engine/internal/config"
	"loan-engine/internal/domain/uow"
	"loan-engine/internal/infrastructure/cache"
	"loan-engine/internal/infrastructure/db"
	"loan-engine/internal/infrastructure/metrics"
	custodyuc "loan-engine/internal/usecase/custody"
	loanuc "loan-engine/internal/usecase/loan"
	"loan-engine/pkg/clock"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
)

type app struct {
	echo    *echo.Echo
	closers []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

// newApp wires the store, Redis, metrics and HTTP routes from cfg.
func newApp(ctx context.Context, cfg *config.Config, clk clock.Clock, log *slog.Logger) (*app, error) {
	a := &app{}
	var checks []httpadp.Check

	var tx uow.UnitOfWork
	switch cfg.Store {
	case config.StoreMemory:
		log.Warn("using in-memory store; state is lost on restart")
		tx = memory.NewStore()
	default:
		gdb, err := db.OpenGorm(cfg.MySQLDSN(), log)
		if err != nil {
			return nil, err
		}
		sqlDB, err := gdb.DB()
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sqlDB.Close)
		checks = append(checks, httpadp.Check{Name: "mysql", Probe: sqlDB.PingContext})
		tx = mysql.NewGormUoW(gdb)
	}

	m := metrics.New()
	opts := []loanuc.Option{loanuc.WithMetrics(m), loanuc.WithLogger(log)}
	routes := httpadp.Routes{Metrics: m.Handler()}

	if cfg.RedisEnabled() {
		rdb, err := cache.OpenRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, rdb.Close)
		checks = append(checks, httpadp.Check{Name: "redis", Probe: redisProbe(rdb)})
		opts = append(opts, loanuc.WithPublisher(eventsredis.NewPublisher(rdb, cfg.EventsStream)))
		routes.Idempotency = middleware.Idempotency(rdb, cfg.IdempotencyTTL(), clk, log)
	} else {
		log.Warn("redis disabled; no idempotency and no event stream")
	}

	routes.Health = httpadp.NewHandler(clk, checks...)
	routes.Loans = httpadp.NewLoanHandler(loanuc.NewUsecase(tx, clk, opts...))
	routes.Accounts = httpadp.NewAccountHandler(custodyuc.NewUsecase(tx))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())
	httpadp.Register(e, routes)
	a.echo = e
	return a, nil
}

func redisProbe(rdb *redis.Client) func(context.Context) error {
	return func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
}
