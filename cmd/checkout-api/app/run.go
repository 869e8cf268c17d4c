package app

import (
	"context"
	"database/sql"

	"github.com/gin-gonic/gin"
	_ "github.com/go-sql-driver/mysql"
	"github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/son261103/api-sell-clothes-v1--sub000/configs"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/cache"
	httpadapter "github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/http"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/http/middleware"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/kafka"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/queue"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/repo"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/adapter/vnpay"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/logging"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/security"
	"github.com/son261103/api-sell-clothes-v1--sub000/internal/usecase"
)

type App struct {
	Router *gin.Engine
}

func InitWithConfig(cfg configs.Config) (*App, func(), error) {
	logging.Init(cfg.App.Name, "./logs/app.log")
	log := logging.New("app")

	// init database
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		return nil, nil, err
	}
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	if err := db.PingContext(context.Background()); err != nil {
		return nil, nil, err
	}

	// init redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, nil, err
	}

	// init rabbitmq
	conn, err := amqp091.Dial(cfg.Rabbit.URL)
	if err != nil {
		return nil, nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	// gateway signer
	signer, err := security.NewSigner(cfg.VNPay.HashSecret)
	if err != nil {
		return nil, nil, err
	}
	gateway := vnpay.NewClient(cfg.VNPay.TmnCode, cfg.VNPay.PayURL, cfg.VNPay.ReturnURL, signer)

	// infra
	txm := repo.NewTxManager(db)
	orderRepo := repo.NewMySQLOrderRepo(db)
	variantRepo := repo.NewMySQLVariantRepo(db)
	couponRepo := repo.NewMySQLCouponRepo(db)
	shippingRepo := repo.NewMySQLShippingMethodRepo(db)
	paymentRepo := repo.NewMySQLPaymentRepo(db)
	methodRepo := repo.NewMySQLPaymentMethodRepo(db)
	cartRepo := repo.NewMySQLCartRepo(db)
	addressRepo := repo.NewMySQLAddressRepo(db)
	outboxRepo := repo.NewMySQLOutboxRepo(db)
	idem := cache.NewRedisIdempotencyStore(rdb, cfg.Idempotency.TTL)
	statusCache := cache.NewRedisCache(rdb, cfg.Cache.TTL)

	// use cases
	shippingQuote := usecase.NewShippingQuote(shippingRepo, logging.New("shipping"))
	checkoutUC := usecase.NewCheckout(orderRepo, cartRepo, addressRepo, variantRepo,
		variantRepo, shippingQuote, outboxRepo, idem, txm, logging.New("checkout"))
	couponUC := usecase.NewCouponService(couponRepo, orderRepo, txm)
	statusUC := usecase.NewOrderStatusService(orderRepo, variantRepo, outboxRepo,
		statusCache, txm, logging.New("lifecycle"))
	paymentUC := usecase.NewPaymentService(paymentRepo, methodRepo, orderRepo,
		gateway, idem, outboxRepo, txm, logging.New("payment"))

	appCtx, stop := context.WithCancel(context.Background())

	// outbox relay -> rabbitmq
	producer, err := queue.NewRabbitProducer(ch)
	if err != nil {
		stop()
		return nil, nil, err
	}
	relay := queue.NewOutboxRelay(outboxRepo, producer, cfg.Rabbit.RelayInterval, logging.New("outbox-relay"))
	go relay.Start(appCtx)

	// fulfillment shipment-status listener
	if err := setupKafkaListener(appCtx, cfg, statusUC); err != nil {
		stop()
		return nil, nil, err
	}

	// handlers + router + middleware
	oh := httpadapter.NewOrderHandler(checkoutUC, statusUC, orderRepo)
	couponHandler := httpadapter.NewCouponHandler(couponUC)
	ph := httpadapter.NewPaymentHandler(paymentUC)
	th := httpadapter.NewTokenHandler(cfg)
	authz := middleware.NewAuthz(cfg)
	router := httpadapter.NewRouter(oh, couponHandler, ph, th, authz)

	log.Info("checkout-api wired", "http_addr", cfg.App.HTTPAddr)

	cleanup := func() {
		stop()
		_ = ch.Close()
		_ = conn.Close()
		_ = rdb.Close()
		_ = db.Close()
	}
	return &App{Router: router}, cleanup, nil
}

func setupKafkaListener(ctx context.Context, cfg configs.Config, statusUC *usecase.OrderStatusService) error {
	grp, err := kafka.NewGroup(cfg.Kafka.Brokers, cfg.Kafka.GroupID)
	if err != nil {
		return err
	}

	h := kafka.NewShipmentStatusHandler(statusUC, logging.New("shipment-consumer"))
	consumer := kafka.NewConsumer(grp, []string{cfg.Kafka.ShipmentTopic}, h.Handle, logging.New("kafka"))

	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logging.New("kafka").Error("consumer stopped", "error", err)
		}
	}()
	return nil
}
