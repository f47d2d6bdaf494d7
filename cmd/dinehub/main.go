package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"dinehub/internal/config"
	"dinehub/internal/db"
	"dinehub/internal/domain"
	"dinehub/internal/fanout"
	"dinehub/internal/httpapi"
	"dinehub/internal/httpx"
	"dinehub/internal/logger"
	"dinehub/internal/mq"
	"dinehub/internal/repository"
	"dinehub/internal/service"
	"dinehub/internal/ws"
)

func main() {
	cfg := config.Load()
	lg := logger.New("bootstrap")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		lg.Error("db_connect_failed", err, nil)
		os.Exit(1)
	}
	defer conn.Close()

	seq, err := repository.NewRedisSequencer(cfg.RedisURL)
	if err != nil {
		lg.Error("redis_connect_failed", err, nil)
		os.Exit(1)
	}
	defer seq.Close()

	bus, err := mq.Dial(cfg.AMQPURL)
	if err != nil {
		lg.Error("amqp_connect_failed", err, nil)
		os.Exit(1)
	}
	defer bus.Close()
	if err := bus.DeclareAll(); err != nil {
		lg.Error("amqp_declare_failed", err, nil)
		os.Exit(1)
	}

	orders := repository.NewOrdersPG(conn)
	tickets := repository.NewTicketsPG(conn)
	tables := repository.NewTablesPG(conn)
	notifications := repository.NewNotificationsPG(conn)
	menu := repository.NewMenuPG(conn)

	hub := ws.NewHub(logger.New("ws-hub"))
	router := fanout.NewRouter(notifications, bus, hub, logger.New("fanout"), cfg.FanoutQueueSize)

	policy := domain.PriorityPolicy{
		Medium: cfg.KOTMediumAfter,
		High:   cfg.KOTHighAfter,
		Urgent: cfg.KOTUrgentAfter,
	}
	tableSvc := service.NewTableService(tables, router, logger.New("tables"))
	kotSvc := service.NewKOTService(tickets, orders, router, policy, logger.New("kitchen"))
	pricing := service.StaticPricing{
		DiscountRate:   cfg.DiscountRate,
		TaxRate:        cfg.TaxRate,
		DeliveryCharge: cfg.DeliveryCharge,
	}
	orderSvc := service.NewOrderService(orders, menu, seq, pricing, kotSvc, tableSvc, router, logger.New("orders"))

	engine := httpapi.NewRouter(orderSvc, kotSvc, tableSvc, notifications, hub, logger.New("http"))
	srv := httpx.New(":"+cfg.HTTPPort, engine, cfg.ShutdownDrain)
	subscriber := fanout.NewSubscriber(bus, logger.New("subscriber"))

	lg.Info("service_started", map[string]any{"port": cfg.HTTPPort})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return router.Run(gctx) })
	g.Go(func() error { return subscriber.Run(gctx) })

	if err := g.Wait(); err != nil {
		lg.Error("fatal", err, nil)
		os.Exit(1)
	}
	lg.Info("shutdown_complete", nil)
}
