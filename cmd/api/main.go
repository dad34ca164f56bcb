package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront/internal/authx"
	"github.com/ariefcatur/go-storefront/internal/cart"
	"github.com/ariefcatur/go-storefront/internal/catalog"
	"github.com/ariefcatur/go-storefront/internal/checkout"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront/internal/kafka"
	"github.com/ariefcatur/go-storefront/internal/orders"
	"github.com/ariefcatur/go-storefront/internal/postgres"
	"github.com/ariefcatur/go-storefront/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per lifecycle topic
	pCreated := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderCreated, 1024)
	pCreated.Start(ctx)
	pPaid := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPaid, 1024)
	pPaid.Start(ctx)
	pDelivered := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderDelivered, 1024)
	pDelivered.Start(ctx)

	// Collaborators; no hidden singletons, everything wired here
	verifier := &authx.SessionVerifier{Redis: rdb}
	catalogRepo := &catalog.Repo{DB: db}
	carts := &cart.Store{Redis: rdb}
	assembler := &checkout.Assembler{
		Pricing: checkout.StandardPricing(cfg.ShippingFlatFee, cfg.FreeShippingOver, cfg.TaxRate),
	}
	ordersRepo := &orders.Repo{DB: db}

	router := httpx.NewRouter()
	(&httpx.ProductsHandler{Catalog: catalogRepo, Auth: verifier}).Register(router)
	(&httpx.CartHandler{Carts: carts, Catalog: catalogRepo, Auth: verifier}).Register(router)
	(&httpx.OrdersHandler{
		Repo:      ordersRepo,
		Carts:     carts,
		Assembler: assembler,
		Auth:      verifier,
		Redis:     rdb,
		Service:   cfg.ServiceName,
		Created:   pCreated,
		Paid:      pPaid,
		Delivered: pDelivered,
	}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)

	// close inboxes -> flush & close writers, then wait for the drain
	for _, p := range []*kafkax.Producer{pCreated, pPaid, pDelivered} {
		p.Close()
	}
	cancel()
	for _, p := range []*kafkax.Producer{pCreated, pPaid, pDelivered} {
		p.WaitClosed()
	}
}
