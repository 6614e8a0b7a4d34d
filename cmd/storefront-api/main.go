// Command storefront-api serves the olive oil storefront: catalog, session
// cart, favorites, preferences, checkout and the order back office.
//
// @title                       Storefront API
// @version                     1.0
// @description                 Cart, checkout and order endpoints for the olive oil storefront.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/MikeMC777/storefront/internal/address"
	"github.com/MikeMC777/storefront/internal/auth"
	"github.com/MikeMC777/storefront/internal/checkout"
	"github.com/MikeMC777/storefront/internal/clientstore"
	"github.com/MikeMC777/storefront/internal/config"
	"github.com/MikeMC777/storefront/internal/db"
	"github.com/MikeMC777/storefront/internal/events"
	"github.com/MikeMC777/storefront/internal/favorites"
	"github.com/MikeMC777/storefront/internal/httpx"
	"github.com/MikeMC777/storefront/internal/idempotency"
	"github.com/MikeMC777/storefront/internal/order"
	"github.com/MikeMC777/storefront/internal/payment"
	"github.com/MikeMC777/storefront/internal/product"
	"github.com/MikeMC777/storefront/internal/profile"
	"github.com/MikeMC777/storefront/internal/settings"
	"github.com/MikeMC777/storefront/internal/tracing"
)

// paymentClaimTTL bounds how long a settled intent stays claimed.
const paymentClaimTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("[config] JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, "storefront-api", cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("[tracing] %v", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Printf("[tracing] shutdown: %v", err)
		}
	}()

	pool, err := db.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[db] %v", err)
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("[db] %v", err)
	}

	var (
		sessions clientstore.Sessions = clientstore.NewMemory()
		guard    idempotency.Guard    = idempotency.NewMemory(paymentClaimTTL)
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("[redis] ping %s: %v", cfg.RedisAddr, err)
		}
		sessions = clientstore.NewRedis(rdb, cfg.SessionTTL, cfg.CartTTL)
		guard = idempotency.NewRedis(rdb, paymentClaimTTL)
	} else {
		log.Printf("[redis] REDIS_ADDR not set, sessions are kept in memory")
	}

	var pub events.Publisher = events.Log{}
	if len(cfg.KafkaBrokers) > 0 {
		k := events.NewKafka(events.NewKafkaWriter(cfg.KafkaBrokers, cfg.KafkaTopic), cfg.KafkaTopic)
		defer k.Close()
		pub = k
	}
	host, _ := os.Hostname()
	go events.NewRelay(events.NewPGOutbox(pool), pub, host).Run(ctx)

	var processor payment.Processor
	if cfg.StripeSecretKey != "" {
		processor = payment.NewStripe(cfg.StripeSecretKey)
	} else {
		processor = payment.NewFake()
	}

	catalog := product.NewCatalog(product.NewPGRepo(pool))
	if st := catalog.Refresh(ctx); st.Err != nil {
		log.Printf("[catalog] initial load: %v", st.Err)
	}
	go every(ctx, time.Minute, func(ctx context.Context) {
		if st := catalog.Refresh(ctx); st.Err != nil {
			log.Printf("[catalog] refresh: %v", st.Err)
		}
	})

	store := settings.NewProvider(settings.NewPGRepo(pool))
	store.Load(ctx)
	go every(ctx, cfg.SettingsRefresh, func(ctx context.Context) {
		if err := store.Refresh(ctx); err != nil {
			log.Printf("[settings] refresh: %v", err)
		}
	})

	profiles := profile.NewPGRepo(pool)
	orderRepo := order.NewPGRepo(pool)
	addresses := address.NewService(address.NewPGRepo(pool))

	r := newRouter(deps{
		sessions:   sessions,
		sessionTTL: cfg.CartTTL,
		verifier:   auth.NewVerifier(cfg.JWTSecret),
		admins:     profiles,
		limiter:    httpx.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		catalog:    catalog,
		favorites:  favorites.NewPGRepo(pool),
		settings:   store,
		orders:     order.NewService(orderRepo),
		addresses:  addresses,
		checkout: checkout.NewService(checkout.Deps{
			Settings:  store,
			Addresses: addresses,
			Profiles:  profiles,
			Orders:    orderRepo,
			Processor: processor,
			Guard:     guard,
		}),
	})

	gs := grpc.NewServer()
	hs := health.NewServer()
	healthpb.RegisterHealthServer(gs, hs)
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", cfg.GRPCAddr)
	if err != nil {
		log.Fatalf("[grpc] listen %s: %v", cfg.GRPCAddr, err)
	}
	go func() {
		log.Printf("[grpc] health listening on %s", cfg.GRPCAddr)
		if err := gs.Serve(lis); err != nil {
			log.Printf("[grpc] serve: %v", err)
		}
	}()

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type", httpx.SessionHeader},
		ExposedHeaders:   []string{httpx.SessionHeader, "X-Request-ID"},
		AllowCredentials: true,
	})
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("storefront-api listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[http] %v", err)
		}
	}()

	<-ctx.Done()
	log.Printf("shutting down")
	hs.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[http] shutdown: %v", err)
	}
	gs.GracefulStop()
}

// every runs fn on a ticker until ctx is done. A non-positive d disables it.
func every(ctx context.Context, d time.Duration, fn func(context.Context)) {
	if d <= 0 {
		return
	}
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fn(ctx)
		}
	}
}

func init() {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}
}
